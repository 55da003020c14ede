package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testOIDCClient(keycloakURL string) *OIDCClient {
	return NewOIDCClient(OIDCConfig{
		KeycloakURL: keycloakURL,
		Realm:       "snapfeed",
		ClientID:    "snapfeed-web",
	})
}

func TestBegin(t *testing.T) {
	client := testOIDCClient("https://keycloak.example.com/")

	tests := []struct {
		name string
		kind FlowKind
		path string
	}{
		{"вход", FlowLogin, "/realms/snapfeed/protocol/openid-connect/auth"},
		{"регистрация", FlowRegister, "/realms/snapfeed/protocol/openid-connect/registrations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, target, err := client.Begin(tt.kind, "http://localhost:8080/auth/callback")
			if err != nil {
				t.Fatalf("Begin() ошибка: %v", err)
			}
			parsed, err := url.Parse(target)
			if err != nil {
				t.Fatalf("Ошибка парсинга URL: %v", err)
			}
			if parsed.Host != "keycloak.example.com" || parsed.Path != tt.path {
				t.Fatalf("URL = %s, ожидался path %s", target, tt.path)
			}

			// 32 байта → 43 символа base64url без padding
			if len(flow.Verifier) != 43 {
				t.Errorf("длина code_verifier = %d, ожидалось 43", len(flow.Verifier))
			}
			want := map[string]string{
				"client_id":             "snapfeed-web",
				"response_type":         "code",
				"redirect_uri":          "http://localhost:8080/auth/callback",
				"state":                 flow.State,
				"code_challenge":        flow.challenge(),
				"code_challenge_method": "S256",
				"scope":                 "openid profile email",
			}
			for key, v := range want {
				if got := parsed.Query().Get(key); got != v {
					t.Errorf("параметр %s = %q, ожидалось %q", key, got, v)
				}
			}
		})
	}
}

func TestBegin_FreshFlowEachTime(t *testing.T) {
	client := testOIDCClient("https://keycloak.example.com")
	a, _, _ := client.Begin(FlowLogin, "http://x/cb")
	b, _, _ := client.Begin(FlowLogin, "http://x/cb")
	if a.State == b.State || a.Verifier == b.Verifier {
		t.Error("два входа получили одинаковые state или code_verifier")
	}
}

func TestDecodeFlow(t *testing.T) {
	flow := &Flow{State: "s1", Verifier: "v1"}
	got, err := DecodeFlow(flow.Encode())
	if err != nil || *got != *flow {
		t.Fatalf("DecodeFlow() = %+v, %v", got, err)
	}

	for name, value := range map[string]string{
		"не base64":       "%%%",
		"не JSON":         "bm90LWpzb24",
		"без verifier":    (&Flow{State: "s1"}).Encode(),
		"пустое значение": "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeFlow(value); err == nil {
				t.Error("ожидалась ошибка")
			}
		})
	}
}

func TestLogoutURL(t *testing.T) {
	client := testOIDCClient("https://keycloak.example.com")

	parsed, err := url.Parse(client.LogoutURL("id-token-hint", "http://localhost:8080/"))
	if err != nil {
		t.Fatalf("Ошибка парсинга URL: %v", err)
	}
	if parsed.Path != "/realms/snapfeed/protocol/openid-connect/logout" {
		t.Errorf("path = %s", parsed.Path)
	}
	if parsed.Query().Get("id_token_hint") != "id-token-hint" {
		t.Errorf("id_token_hint = %q", parsed.Query().Get("id_token_hint"))
	}
	if parsed.Query().Get("post_logout_redirect_uri") != "http://localhost:8080/" {
		t.Errorf("post_logout_redirect_uri не совпадает")
	}

	parsed, _ = url.Parse(client.LogoutURL("", "http://localhost:8080/"))
	if parsed.Query().Has("id_token_hint") {
		t.Error("id_token_hint не должен передаваться пустым")
	}
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realms/snapfeed/protocol/openid-connect/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Form.Get("code") == "empty":
			_, _ = w.Write([]byte(`{"id_token":"it"}`))
		case r.Form.Get("code") != "good-code" || r.Form.Get("code_verifier") != "verifier":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Code not valid"}`))
		default:
			_, _ = w.Write([]byte(`{"access_token":"at","id_token":"it","expires_in":300,"refresh_token":"rt"}`))
		}
	}))
	defer srv.Close()

	client := testOIDCClient(srv.URL)
	flow := &Flow{State: "s", Verifier: "verifier"}

	tokens, err := client.Exchange(context.Background(), flow, "good-code", "http://localhost/auth/callback")
	if err != nil {
		t.Fatalf("Exchange() ошибка: %v", err)
	}
	if tokens.AccessToken != "at" || tokens.IDToken != "it" || tokens.ExpiresIn != 300 {
		t.Errorf("Tokens = %+v", tokens)
	}

	tests := []struct {
		name string
		code string
		want string
	}{
		{"invalid_grant", "bad-code", "invalid_grant"},
		{"без access_token", "empty", "access_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Exchange(context.Background(), flow, tt.code, "http://localhost/auth/callback")
			if !errors.Is(err, ErrTokenEndpoint) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ошибка = %v, ожидалась ErrTokenEndpoint с %q", err, tt.want)
			}
		})
	}
}
