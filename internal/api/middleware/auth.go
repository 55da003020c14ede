// auth.go — middleware аутентификации API snapfeed.
// Principal берётся из cookie-сессии веб-интерфейса или из
// Authorization: Bearer <JWT> (валидация через JWKS Keycloak).
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	apierrors "github.com/bigkaa/snapfeed/internal/api/errors"
	"github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/domain/model"
)

const (
	// principalCacheSize — число закэшированных bearer-субъектов.
	principalCacheSize = 1000
	// principalCacheTTL — время жизни записи кэша субъектов.
	principalCacheTTL = 5 * time.Minute
)

// SessionSource извлекает principal из cookie-сессии.
type SessionSource interface {
	PrincipalFromRequest(r *http.Request) (*auth.Principal, bool)
}

// TokenValidator проверяет bearer-токен.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// UserEnsurer заводит пользователя по claim sub.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, subject, email, name string) (*model.User, error)
}

// Authenticator — middleware, требующий наличия principal у запроса.
type Authenticator struct {
	sessions  SessionSource
	validator TokenValidator
	users     UserEnsurer
	cache     *expirable.LRU[string, *auth.Principal]
	logger    *slog.Logger
}

// NewAuthenticator создаёт middleware аутентификации.
// sessions и validator могут быть nil (соответствующий источник отключён).
func NewAuthenticator(sessions SessionSource, validator TokenValidator, users UserEnsurer, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		sessions:  sessions,
		validator: validator,
		users:     users,
		cache:     expirable.NewLRU[string, *auth.Principal](principalCacheSize, nil, principalCacheTTL),
		logger:    logger.With(slog.String("component", "api_auth")),
	}
}

// Require пропускает запрос дальше только с principal в контексте.
// Без сессии и без валидного токена — 401 {"error":"Unauthorized"}.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := a.resolve(r)
		if p == nil {
			apierrors.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// resolve определяет principal запроса или возвращает nil.
func (a *Authenticator) resolve(r *http.Request) *auth.Principal {
	if a.sessions != nil {
		if p, ok := a.sessions.PrincipalFromRequest(r); ok && p.UserID != "" {
			return p
		}
	}

	token := bearerToken(r)
	if token == "" || a.validator == nil {
		return nil
	}

	claims, err := a.validator.Validate(r.Context(), token)
	if err != nil {
		a.logger.Debug("Bearer-токен отклонён", slog.String("error", err.Error()))
		return nil
	}

	if p, ok := a.cache.Get(claims.Subject); ok {
		return p
	}

	user, err := a.users.EnsureUser(r.Context(), claims.Subject, claims.Email, claims.DisplayName())
	if err != nil {
		a.logger.Error("Не удалось синхронизировать пользователя",
			slog.String("subject", claims.Subject),
			slog.String("error", err.Error()),
		)
		return nil
	}

	p := &auth.Principal{
		UserID:  user.ID,
		Subject: user.Subject,
		Email:   user.Email,
		Name:    user.Name,
	}
	a.cache.Add(claims.Subject, p)
	return p
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
