package service

import (
	"context"
	"errors"
	"testing"
)

func TestEnsureUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.users.EnsureUser(ctx, "kc-sub-1", "jan@example.com", "Ján")
	if err != nil {
		t.Fatalf("EnsureUser() ошибка: %v", err)
	}
	second, err := env.users.EnsureUser(ctx, "kc-sub-1", "jan@example.sk", "Ján Novák")
	if err != nil {
		t.Fatalf("повторный EnsureUser() ошибка: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("повторный вход создал нового пользователя: %q != %q", second.ID, first.ID)
	}
	if second.Email != "jan@example.sk" || second.Name != "Ján Novák" {
		t.Errorf("email/name не обновлены: %+v", second)
	}

	if _, err := env.users.EnsureUser(ctx, "", "a@b.c", "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("пустой subject: ошибка = %v, ожидалась ErrUnauthenticated", err)
	}
}
