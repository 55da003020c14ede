// Пакет handlers — HTTP-обработчики веб-интерфейса snapfeed.
// auth.go — вход и регистрация через Keycloak OIDC (Authorization Code + PKCE).
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	coreauth "github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/ui/auth"
	"github.com/bigkaa/snapfeed/internal/ui/nav"
)

// stateCookieName — cookie с auth.Flow на время входа.
const stateCookieName = "snapfeed_auth_state"

// stateCookieMaxAge — максимальный возраст state cookie (5 минут).
const stateCookieMaxAge = 5 * 60

// TokenValidator проверяет access token, полученный от Keycloak.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*coreauth.Claims, error)
}

// UserEnsurer заводит пользователя при первом входе.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, subject, email, name string) (*model.User, error)
}

// AuthHandler — обработчики аутентификации веб-интерфейса.
type AuthHandler struct {
	oidcClient     *auth.OIDCClient
	sessionManager *auth.SessionManager
	validator      TokenValidator
	users          UserEnsurer
	logger         *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(
	oidcClient *auth.OIDCClient,
	sessionManager *auth.SessionManager,
	validator TokenValidator,
	users UserEnsurer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		oidcClient:     oidcClient,
		sessionManager: sessionManager,
		validator:      validator,
		users:          users,
		logger:         logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleLogin — GET /auth/prihlasenie, страница входа Keycloak.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.startFlow(w, r, auth.FlowLogin)
}

// HandleRegister — GET /auth/registracia, страница регистрации Keycloak.
// Сюда же ведёт любой переход неаутентифицированного пользователя.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.startFlow(w, r, auth.FlowRegister)
}

func (h *AuthHandler) startFlow(w http.ResponseWriter, r *http.Request, kind auth.FlowKind) {
	if _, ok := h.sessionManager.PrincipalFromRequest(r); ok {
		http.Redirect(w, r, nav.PathProfile, http.StatusFound)
		return
	}

	flow, target, err := h.oidcClient.Begin(kind, h.buildRedirectURI(r))
	if err != nil {
		h.logger.Error("Ошибка начала входа", slog.String("error", err.Error()))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	h.setFlowCookie(w, flow.Encode(), stateCookieMaxAge)

	h.logger.Debug("Redirect на Keycloak", slog.String("url", target))
	http.Redirect(w, r, target, http.StatusFound)
}

// setFlowCookie записывает state cookie; maxAge < 0 удаляет её.
func (h *AuthHandler) setFlowCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     "/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.sessionManager.Secure(),
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleCallback — GET /auth/callback
// Обменивает authorization code на tokens, заводит пользователя,
// создаёт session cookie и перенаправляет на профиль.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	// 1. Ошибка от Keycloak
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		h.logger.Warn("Keycloak вернул ошибку авторизации",
			slog.String("error", errCode),
			slog.String("description", r.URL.Query().Get("error_description")),
		)
		http.Error(w, fmt.Sprintf("Ошибка авторизации: %s", errCode), http.StatusBadRequest)
		return
	}

	// 2. code и state
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "Отсутствует code или state", http.StatusBadRequest)
		return
	}

	// 3. state cookie одноразовый: удаляется при любом исходе
	var flow *auth.Flow
	cookie, err := r.Cookie(stateCookieName)
	if err == nil {
		flow, err = auth.DecodeFlow(cookie.Value)
	}
	if err != nil {
		h.logger.Warn("Некорректный state cookie", slog.String("error", err.Error()))
		http.Error(w, "Сессия авторизации истекла, попробуйте ещё раз", http.StatusBadRequest)
		return
	}
	h.setFlowCookie(w, "", -1)
	if flow.State != state {
		h.logger.Warn("State mismatch (возможная CSRF атака)")
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// 4. code → tokens
	tokens, err := h.oidcClient.Exchange(r.Context(), flow, code, h.buildRedirectURI(r))
	if err != nil {
		h.logger.Error("Ошибка обмена code на tokens", slog.String("error", err.Error()))
		http.Error(w, "Ошибка аутентификации", http.StatusBadGateway)
		return
	}

	// 5. Подпись и issuer access token
	claims, err := h.validator.Validate(r.Context(), tokens.AccessToken)
	if err != nil {
		h.logger.Error("Access token от Keycloak не прошёл проверку", slog.String("error", err.Error()))
		http.Error(w, "Ошибка обработки токена", http.StatusUnauthorized)
		return
	}

	// 6. Пользователь в БД
	user, err := h.users.EnsureUser(r.Context(), claims.Subject, claims.Email, claims.DisplayName())
	if err != nil {
		h.logger.Error("Ошибка заведения пользователя",
			slog.String("subject", claims.Subject),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	// 7. session cookie
	if _, err := h.sessionManager.Issue(w, user, tokens.IDToken); err != nil {
		h.logger.Error("Ошибка установки session cookie", slog.String("error", err.Error()))
		http.Error(w, "Ошибка создания сессии", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Пользователь аутентифицирован",
		slog.String("user_id", user.ID),
		slog.String("subject", user.Subject),
	)
	http.Redirect(w, r, nav.PathProfile, http.StatusFound)
}

// HandleLogout — POST /auth/odhlasenie
// Очищает session cookie, redirect на Keycloak logout endpoint.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var idToken string
	if session, err := h.sessionManager.Load(r); err == nil {
		idToken = session.IDToken
	}
	h.sessionManager.Clear(w)

	logoutURL := h.oidcClient.LogoutURL(idToken, h.buildBaseURL(r)+nav.PathHome)
	h.logger.Info("Пользователь выполняет logout")
	http.Redirect(w, r, logoutURL, http.StatusFound)
}

// buildRedirectURI формирует callback redirect URI на основе текущего запроса.
func (h *AuthHandler) buildRedirectURI(r *http.Request) string {
	return h.buildBaseURL(r) + nav.PathCallback
}

// buildBaseURL формирует базовый URL (scheme + host) из заголовков запроса.
// Учитывает X-Forwarded-* заголовки от reverse proxy.
func (h *AuthHandler) buildBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if fwdHost := r.Header.Get("X-Forwarded-Host"); fwdHost != "" {
		host = fwdHost
	}
	return scheme + "://" + host
}
