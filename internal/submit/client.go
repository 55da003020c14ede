// client.go — HTTP-клиент API snapfeed для отправки постов.
package submit

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxErrorBody — сколько байт тела ошибки читается для сообщения.
const maxErrorBody = 4 << 10

// TokenProvider возвращает bearer-токен для запросов к API.
type TokenProvider func(ctx context.Context) (string, error)

// StatusError — сервер ответил статусом, отличным от ожидаемого.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: статус %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: статус %d", e.Op, e.Status)
}

// HTTPConfig — параметры HTTPClient.
type HTTPConfig struct {
	// BaseURL — адрес snapfeed (например, https://snapfeed.example.com)
	BaseURL string
	// SessionCookie — значение cookie snapfeed_session (вместо токена)
	SessionCookie string
	// TokenProvider — источник bearer-токена (nil — без Authorization)
	TokenProvider TokenProvider
	// CACertPath — CA-сертификат для TLS (пусто — системный пул)
	CACertPath string
	// Timeout — таймаут одного запроса
	Timeout time.Duration
}

// HTTPClient реализует Client поверх API /api/upload и /api/posts.
type HTTPClient struct {
	baseURL       string
	sessionCookie string
	tokenProvider TokenProvider
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewHTTPClient создаёт HTTP-клиент API.
func NewHTTPClient(cfg HTTPConfig, logger *slog.Logger) (*HTTPClient, error) {
	transport := &http.Transport{MaxIdleConnsPerHost: 2}
	if cfg.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		sessionCookie: cfg.SessionCookie,
		tokenProvider: cfg.TokenProvider,
		httpClient:    &http.Client{Timeout: timeout, Transport: transport},
		logger:        logger.With(slog.String("component", "submit_client")),
	}, nil
}

// StaticToken — TokenProvider, всегда возвращающий token.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

// UploadAsset — POST /api/upload (multipart, поле file).
func (c *HTTPClient) UploadAsset(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("формирование multipart: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("формирование multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("формирование multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.do(req, "upload", &resp, http.StatusOK); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", fmt.Errorf("upload: в ответе нет imageUrl")
	}
	return resp.ImageURL, nil
}

// CreatePost — POST /api/posts с заголовком Idempotency-Key.
func (c *HTTPClient) CreatePost(ctx context.Context, imageURL, caption, idempotencyKey string) (string, error) {
	payload, err := json.Marshal(map[string]string{"imageUrl": imageURL, "caption": caption})
	if err != nil {
		return "", fmt.Errorf("формирование тела запроса: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/posts", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	var resp struct {
		PostID string `json:"postId"`
	}
	if err := c.do(req, "create post", &resp, http.StatusCreated, http.StatusOK); err != nil {
		return "", err
	}
	return resp.PostID, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s: %w", path, err)
	}
	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("получение токена: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: "snapfeed_session", Value: c.sessionCookie})
	}
	return req, nil
}

// do выполняет запрос и декодирует JSON-ответ в out.
// Статус вне accepted — *StatusError с сообщением из {"error": ...}.
func (c *HTTPClient) do(req *http.Request, op string, out any, accepted ...int) error {
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации клиента
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	for _, status := range accepted {
		if resp.StatusCode == status {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("%s: ошибка разбора ответа: %w", op, err)
			}
			return nil
		}
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(raw, &apiErr) != nil {
		apiErr.Error = strings.TrimSpace(string(raw))
	}
	c.logger.Debug("Сервер отклонил запрос",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.String("message", apiErr.Error),
	)
	return &StatusError{Op: op, Status: resp.StatusCode, Message: apiErr.Error}
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
