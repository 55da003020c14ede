// oidc.go — вход в snapfeed через Keycloak: Authorization Code Flow с PKCE (RFC 7636).
// Клиент public, без client_secret. Незавершённый вход (Flow) хранится
// у браузера в короткоживущей cookie до возврата на callback.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTokenEndpoint — Keycloak отклонил обмен code на токены.
var ErrTokenEndpoint = errors.New("token endpoint отклонил запрос")

// maxTokenResponseBytes — ограничение на размер ответа token endpoint.
const maxTokenResponseBytes = 1 << 20

// FlowKind — с какой страницы Keycloak начинается вход.
type FlowKind int

const (
	// FlowLogin — форма входа существующего пользователя.
	FlowLogin FlowKind = iota
	// FlowRegister — форма регистрации. Keycloak возвращает code на тот же callback.
	FlowRegister
)

func (k FlowKind) endpoint() string {
	if k == FlowRegister {
		return "registrations"
	}
	return "auth"
}

// Flow — незавершённый вход: CSRF state и PKCE code_verifier.
type Flow struct {
	State    string `json:"state"`
	Verifier string `json:"code_verifier"`
}

// Encode сериализует Flow в значение cookie.
func (f *Flow) Encode() string {
	raw, _ := json.Marshal(f)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeFlow восстанавливает Flow из значения cookie.
func DecodeFlow(value string) (*Flow, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования state cookie: %w", err)
	}
	var f Flow
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("ошибка парсинга state cookie: %w", err)
	}
	if f.State == "" || f.Verifier == "" {
		return nil, errors.New("state cookie без state или code_verifier")
	}
	return &f, nil
}

// challenge — S256 code_challenge для Verifier.
func (f *Flow) challenge() string {
	sum := sha256.Sum256([]byte(f.Verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Tokens — то, что snapfeed берёт из ответа token endpoint.
// Refresh token не используется: сессия живёт SessionTTL и не продлевается.
type Tokens struct {
	AccessToken string `json:"access_token"` //nolint:gosec // G117: структура токена OAuth2
	IDToken     string `json:"id_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// OIDCConfig — конфигурация OIDC-клиента.
type OIDCConfig struct {
	// KeycloakURL — базовый URL Keycloak.
	KeycloakURL string
	// Realm — realm snapfeed в Keycloak.
	Realm string
	// ClientID — OIDC Client ID (public client).
	ClientID string
	// HTTPClient — nil: клиент с Timeout.
	HTTPClient *http.Client
	// Timeout — таймаут запросов к Keycloak (по умолчанию 30s).
	Timeout time.Duration
}

// OIDCClient — клиент OpenID Connect endpoints realm'а snapfeed.
type OIDCClient struct {
	clientID   string
	base       string
	httpClient *http.Client
}

// NewOIDCClient создаёт OIDC-клиент.
func NewOIDCClient(cfg OIDCConfig) *OIDCClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &OIDCClient{
		clientID:   cfg.ClientID,
		base:       strings.TrimRight(cfg.KeycloakURL, "/") + "/realms/" + url.PathEscape(cfg.Realm) + "/protocol/openid-connect/",
		httpClient: httpClient,
	}
}

// Begin начинает вход: генерирует state и code_verifier и возвращает
// URL страницы Keycloak, на которую нужно перенаправить браузер.
func (c *OIDCClient) Begin(kind FlowKind, redirectURI string) (*Flow, string, error) {
	state, err := randomToken(16)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка генерации state: %w", err)
	}
	verifier, err := randomToken(32)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка генерации code_verifier: %w", err)
	}
	flow := &Flow{State: state, Verifier: verifier}

	params := url.Values{
		"client_id":             {c.clientID},
		"response_type":         {"code"},
		"redirect_uri":          {redirectURI},
		"state":                 {flow.State},
		"scope":                 {"openid profile email"},
		"code_challenge":        {flow.challenge()},
		"code_challenge_method": {"S256"},
	}
	return flow, c.base + kind.endpoint() + "?" + params.Encode(), nil
}

// Exchange обменивает authorization code на токены.
// redirectURI должен совпадать с переданным в Begin.
func (c *OIDCClient) Exchange(ctx context.Context, flow *Flow, code, redirectURI string) (*Tokens, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientID},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"code_verifier": {flow.Verifier},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации OIDC
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxTokenResponseBytes)
	if resp.StatusCode != http.StatusOK {
		var kcErr struct {
			Code        string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.NewDecoder(body).Decode(&kcErr) == nil && kcErr.Code != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrTokenEndpoint, kcErr.Code, kcErr.Description)
		}
		return nil, fmt.Errorf("%w: статус %d", ErrTokenEndpoint, resp.StatusCode)
	}

	var tokens Tokens
	if err := json.NewDecoder(body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа token endpoint: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: пустой access_token", ErrTokenEndpoint)
	}
	return &tokens, nil
}

// LogoutURL — URL выхода из Keycloak с возвратом на postLogoutRedirectURI.
// С id_token_hint Keycloak не спрашивает подтверждение.
func (c *OIDCClient) LogoutURL(idTokenHint, postLogoutRedirectURI string) string {
	params := url.Values{
		"client_id":                {c.clientID},
		"post_logout_redirect_uri": {postLogoutRedirectURI},
	}
	if idTokenHint != "" {
		params.Set("id_token_hint", idTokenHint)
	}
	return c.base + "logout?" + params.Encode()
}

// randomToken — n случайных байт в base64url без padding.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
