package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/auth/authtest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTokenValidator_Valid(t *testing.T) {
	keys := authtest.NewTestKeys(t, testLogger())
	token := keys.Token(t, "kc-u1", "u1@example.com", "Ján Novák", time.Hour)

	claims, err := keys.Validator.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate() ошибка: %v", err)
	}
	if claims.Subject != "kc-u1" {
		t.Errorf("Subject = %q, ожидался kc-u1", claims.Subject)
	}
	if claims.Email != "u1@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.DisplayName() != "Ján Novák" {
		t.Errorf("DisplayName() = %q", claims.DisplayName())
	}
}

func TestTokenValidator_Rejects(t *testing.T) {
	keys := authtest.NewTestKeys(t, testLogger())
	other := authtest.NewTestKeys(t, testLogger())

	tests := []struct {
		name  string
		token string
	}{
		{"пустой", ""},
		{"мусор", "not-a-jwt"},
		{"просроченный", keys.Token(t, "kc-u1", "", "", -time.Hour)},
		{"чужой ключ", other.Token(t, "kc-u1", "", "", time.Hour)},
		{"без sub", keys.Token(t, "", "", "", time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := keys.Validator.Validate(context.Background(), tt.token)
			if !errors.Is(err, auth.ErrInvalidToken) {
				t.Errorf("Validate() ошибка = %v, ожидалась auth.ErrInvalidToken", err)
			}
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	if auth.PrincipalFromContext(ctx) != nil || auth.UserIDFromContext(ctx) != "" {
		t.Fatal("анонимный контекст содержит principal")
	}

	ctx = auth.WithPrincipal(ctx, &auth.Principal{UserID: "u1", Subject: "kc-u1"})
	if auth.UserIDFromContext(ctx) != "u1" {
		t.Errorf("auth.UserIDFromContext() = %q, ожидался u1", auth.UserIDFromContext(ctx))
	}
}
