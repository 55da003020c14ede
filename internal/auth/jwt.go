package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken — токен не прошёл валидацию.
var ErrInvalidToken = errors.New("невалидный или просроченный токен")

// Claims — извлечённые claims Keycloak JWT.
type Claims struct {
	Subject           string
	Email             string
	Name              string
	PreferredUsername string
}

// DisplayName возвращает имя для отображения: name, затем preferred_username.
func (c *Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.PreferredUsername
}

// keycloakClaims — raw claims из Keycloak JWT для парсинга.
type keycloakClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Name              string `json:"name"`
}

// TokenValidator проверяет подпись (RS256) и срок действия JWT через JWKS Keycloak.
type TokenValidator struct {
	jwks   keyfunc.Keyfunc
	issuer string
	leeway time.Duration
	logger *slog.Logger
}

// NewTokenValidator создаёт валидатор с JWKS из Keycloak.
// JWKS обновляется в фоне; старт возможен при недоступном Keycloak.
func NewTokenValidator(jwksURL, issuer string, refreshInterval time.Duration, logger *slog.Logger) (*TokenValidator, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewTokenValidatorWithKeyfunc(k, issuer, logger), nil
}

// NewTokenValidatorWithKeyfunc создаёт валидатор с предоставленной keyfunc.
// Используется в тестах для подстановки mock JWKS.
func NewTokenValidatorWithKeyfunc(kf keyfunc.Keyfunc, issuer string, logger *slog.Logger) *TokenValidator {
	return &TokenValidator{
		jwks:   kf,
		issuer: issuer,
		leeway: 30 * time.Second,
		logger: logger.With(slog.String("component", "jwt_validator")),
	}
}

// Validate проверяет токен и возвращает claims.
func (v *TokenValidator) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	raw := &keycloakClaims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, raw, v.jwks.KeyfuncCtx(ctx), parserOpts...)
	if err != nil || !token.Valid {
		if err != nil {
			v.logger.Debug("JWT валидация не пройдена", slog.String("error", err.Error()))
		}
		return nil, ErrInvalidToken
	}

	subject, err := raw.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: отсутствует sub", ErrInvalidToken)
	}

	return &Claims{
		Subject:           subject,
		Email:             raw.Email,
		Name:              raw.Name,
		PreferredUsername: raw.PreferredUsername,
	}, nil
}
