package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/auth/authtest"
	"github.com/bigkaa/snapfeed/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockSessions — SessionSource с фиксированным principal.
type mockSessions struct {
	p *auth.Principal
}

func (m *mockSessions) PrincipalFromRequest(*http.Request) (*auth.Principal, bool) {
	return m.p, m.p != nil
}

// mockUsers — UserEnsurer с подсчётом вызовов.
type mockUsers struct {
	calls  int
	err    error
	userID string
}

func (m *mockUsers) EnsureUser(_ context.Context, subject, email, name string) (*model.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &model.User{ID: m.userID, Subject: subject, Email: email, Name: name}, nil
}

// principalEcho возвращает user_id principal из контекста.
func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(auth.UserIDFromContext(r.Context())))
	})
}

func TestAuthenticator_NoCredentials(t *testing.T) {
	a := NewAuthenticator(&mockSessions{}, nil, &mockUsers{}, testLogger())

	w := httptest.NewRecorder()
	a.Require(principalEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/upload", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("статус = %d, ожидался 401", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Unauthorized" {
		t.Errorf("error = %q, ожидалось Unauthorized", body["error"])
	}
}

func TestAuthenticator_Session(t *testing.T) {
	users := &mockUsers{}
	a := NewAuthenticator(&mockSessions{p: &auth.Principal{UserID: "u1"}}, nil, users, testLogger())

	w := httptest.NewRecorder()
	a.Require(principalEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if w.Code != http.StatusOK || w.Body.String() != "u1" {
		t.Fatalf("ответ = %d %q, ожидался 200 u1", w.Code, w.Body.String())
	}
	if users.calls != 0 {
		t.Errorf("EnsureUser вызван %d раз для сессии", users.calls)
	}
}

func TestAuthenticator_Bearer(t *testing.T) {
	keys := authtest.NewTestKeys(t, testLogger())
	users := &mockUsers{userID: "u-bearer"}
	a := NewAuthenticator(nil, keys.Validator, users, testLogger())
	token := keys.Token(t, "kc-1", "a@example.com", "A", time.Hour)

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		a.Require(principalEcho()).ServeHTTP(w, r)

		if w.Code != http.StatusOK || w.Body.String() != "u-bearer" {
			t.Fatalf("ответ = %d %q, ожидался 200 u-bearer", w.Code, w.Body.String())
		}
	}
	if users.calls != 1 {
		t.Errorf("EnsureUser вызван %d раз, ожидался 1 (кэш)", users.calls)
	}
}

func TestAuthenticator_BearerRejected(t *testing.T) {
	keys := authtest.NewTestKeys(t, testLogger())

	tests := []struct {
		name   string
		header string
		users  *mockUsers
	}{
		{"просроченный", "Bearer " + keys.Token(t, "kc-1", "", "", -time.Hour), &mockUsers{}},
		{"не bearer", "Basic dXNlcjpwYXNz", &mockUsers{}},
		{"ошибка БД", "Bearer " + keys.Token(t, "kc-2", "", "", time.Hour), &mockUsers{err: errors.New("db down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthenticator(nil, keys.Validator, tt.users, testLogger())
			r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			r.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			a.Require(principalEcho()).ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("статус = %d, ожидался 401", w.Code)
			}
		})
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		path      string
		status    int
		wantLevel string
	}{
		{"/api/posts", http.StatusCreated, "INFO"},
		{"/api/upload", http.StatusBadRequest, "WARN"},
		{"/api/upload", http.StatusInternalServerError, "ERROR"},
		{"/health/live", http.StatusOK, "DEBUG"},
	}
	for _, tt := range tests {
		buf.Reset()
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("ok"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("некорректная запись лога: %v", err)
		}
		if entry["level"] != tt.wantLevel {
			t.Errorf("%s %d: level = %v, ожидался %s", tt.path, tt.status, entry["level"], tt.wantLevel)
		}
		if entry["bytes"] != float64(2) {
			t.Errorf("bytes = %v, ожидалось 2", entry["bytes"])
		}
	}
}

func TestRoutePattern(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/uploads/*", func(_ http.ResponseWriter, r *http.Request) {
		got = routePattern(r)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/uploads/1700000000000.jpg", nil))

	if got != "/uploads/*" {
		t.Errorf("routePattern() = %q, ожидался /uploads/*", got)
	}
	if p := routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)); !strings.EqualFold(p, "unmatched") {
		t.Errorf("routePattern() вне роутера = %q", p)
	}
}

func TestStatusOf_NoWriteHeader(t *testing.T) {
	ww := chimw.NewWrapResponseWriter(httptest.NewRecorder(), 1)
	if got := statusOf(ww); got != http.StatusOK {
		t.Errorf("statusOf() без WriteHeader = %d, ожидался 200", got)
	}
	ww.WriteHeader(http.StatusNoContent)
	if got := statusOf(ww); got != http.StatusNoContent {
		t.Errorf("statusOf() = %d, ожидался 204", got)
	}
}
