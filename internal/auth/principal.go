// Пакет auth — аутентифицированный пользователь запроса (principal)
// и валидация Keycloak JWT через JWKS.
package auth

import "context"

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// contextKeyPrincipal — principal в контексте запроса.
const contextKeyPrincipal contextKey = "principal"

// Principal — пользователь, от имени которого выполняется запрос.
type Principal struct {
	// UserID — UUID пользователя в таблице users
	UserID string
	// Subject — claim sub из Keycloak
	Subject string
	Email   string
	Name    string
}

// WithPrincipal помещает principal в контекст.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext возвращает principal или nil для анонимного запроса.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKeyPrincipal).(*Principal)
	return p
}

// UserIDFromContext возвращает UUID пользователя или пустую строку.
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}
