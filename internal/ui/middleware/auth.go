// Пакет middleware — HTTP middleware веб-интерфейса snapfeed.
// auth.go — чтение cookie-сессии, redirect анонимных посетителей.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	coreauth "github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/ui/auth"
	"github.com/bigkaa/snapfeed/internal/ui/nav"
)

// contextKey — тип для ключей контекста UI (избегаем коллизий с API middleware).
type contextKey string

// ContextKeyUISession — данные UI-сессии в контексте запроса.
const ContextKeyUISession contextKey = "ui_session"

// UIAuth — middleware сессий веб-интерфейса.
type UIAuth struct {
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewUIAuth создаёт новый UIAuth middleware.
func NewUIAuth(sessionManager *auth.SessionManager, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Session возвращает middleware, помещающий действующую сессию в контекст.
// Запрос без сессии проходит дальше как анонимный; повреждённый или
// истёкший cookie удаляется.
func (ua *UIAuth) Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ua.sessionManager.Load(r)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					ua.logger.Debug("UI-сессия отклонена",
						slog.String("error", err.Error()),
						slog.String("remote_addr", r.RemoteAddr),
					)
					ua.sessionManager.Clear(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUISession, session)
			ctx = coreauth.WithPrincipal(ctx, session.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require возвращает middleware для страниц, доступных только с сессией.
// Анонимный посетитель перенаправляется по правилам навигации (на регистрацию).
// Применяется после Session.
func (ua *UIAuth) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromContext(r.Context()) == nil {
				target, _ := nav.Resolve(r.URL.Path, false)
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil для анонимного запроса.
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}
