// Пакет theme — светлая/тёмная тема веб-интерфейса.
// Предпочтение хранится в cookie "theme", читается middleware один раз
// на запрос и явно передаётся в компоненты страниц.
package theme

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CookieName — имя cookie с выбранной темой.
const CookieName = "theme"

// cookieMaxAge — срок хранения выбора темы (1 год).
const cookieMaxAge = 365 * 24 * time.Hour

// Preference — выбранная тема.
type Preference string

const (
	Light Preference = "light"
	Dark  Preference = "dark"
)

// Default — тема для посетителя без cookie.
const Default = Light

// Parse возвращает тему по значению cookie; неизвестное значение — Default.
func Parse(v string) Preference {
	if Preference(v) == Dark {
		return Dark
	}
	return Default
}

// Toggle возвращает противоположную тему.
func (p Preference) Toggle() Preference {
	if p == Dark {
		return Light
	}
	return Dark
}

// IconName — иконка кнопки переключения: солнце для светлой, луна для тёмной.
func (p Preference) IconName() string {
	if p == Dark {
		return "brightness-4"
	}
	return "brightness-7"
}

// String реализует fmt.Stringer.
func (p Preference) String() string { return string(p) }

// FromRequest читает тему из cookie запроса.
func FromRequest(r *http.Request) Preference {
	if c, err := r.Cookie(CookieName); err == nil {
		return Parse(c.Value)
	}
	return Default
}

type contextKey struct{}

// WithPreference помещает тему в контекст.
func WithPreference(ctx context.Context, p Preference) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext возвращает тему запроса (Default, если middleware не применялся).
func FromContext(ctx context.Context) Preference {
	if p, ok := ctx.Value(contextKey{}).(Preference); ok {
		return p
	}
	return Default
}

// Middleware читает тему из cookie и помещает её в контекст запроса.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPreference(r.Context(), FromRequest(r))))
		})
	}
}

// SetCookie сохраняет тему в cookie ответа.
func SetCookie(w http.ResponseWriter, p Preference) {
	http.SetCookie(w, &http.Cookie{
		Name:   CookieName,
		Value:  string(p),
		Path:   "/",
		MaxAge: int(cookieMaxAge.Seconds()),
		// JS читает cookie для мгновенного переключения без перезагрузки
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleToggle обрабатывает POST /theme.
// Переключает тему и перенаправляет обратно на страницу из Referer.
func HandleToggle(w http.ResponseWriter, r *http.Request) {
	SetCookie(w, FromRequest(r).Toggle())
	http.Redirect(w, r, backPath(r.Header.Get("Referer"), r.Host), http.StatusSeeOther)
}

// backPath — путь и query из Referer, если он указывает на host.
// Чужой хост и пути, которые браузер прочтёт как протокол-относительный URL
// ("//x", "/\x"), дают "/".
func backPath(referer, host string) string {
	u, err := url.Parse(referer)
	if err != nil || (u.Host != "" && !strings.EqualFold(u.Host, host)) {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, `/\`) {
		return "/"
	}
	back := u.Path
	if u.RawQuery != "" {
		back += "?" + u.RawQuery
	}
	return back
}
