package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// apiCalls — что получил fakeAPI.
type apiCalls struct {
	keys  []string
	files []string
}

// fakeAPI — сервер с /api/upload и /api/posts, проверяющий bearer-токен.
func fakeAPI(t *testing.T) (*httptest.Server, *apiCalls) {
	t.Helper()
	calls := &apiCalls{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		if _, hdr, err := r.FormFile("file"); err == nil {
			calls.files = append(calls.files, hdr.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"imageUrl": "/uploads/1.png"})
	})
	mux.HandleFunc("POST /api/posts", func(w http.ResponseWriter, r *http.Request) {
		calls.keys = append(calls.keys, r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"postId": "p-42"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, calls
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cat.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommand_Post(t *testing.T) {
	srv, calls := fakeAPI(t)

	cmd := newRootCommand(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--url", srv.URL, "--token", "secret", "-c", "Tatry", writeImage(t)})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() ошибка: %v, вывод %q", err, out.String())
	}
	if !strings.Contains(out.String(), "p-42") || !strings.Contains(out.String(), srv.URL+"/profile") {
		t.Errorf("вывод = %q", out.String())
	}
	if len(calls.keys) != 1 || calls.keys[0] == "" {
		t.Errorf("ожидался один запрос с Idempotency-Key, получено %v", calls.keys)
	}
	// на сервер уходит только имя файла, без каталогов
	if len(calls.files) != 1 || calls.files[0] != "cat.png" {
		t.Errorf("имя загруженного файла = %v, ожидалось cat.png", calls.files)
	}
}

func TestRootCommand_Errors(t *testing.T) {
	srv, _ := fakeAPI(t)
	image := writeImage(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"нет учётных данных", []string{"--url", srv.URL, image}, "--token"},
		{"нет файла", []string{"--url", srv.URL, "--token", "secret", "/nonexistent.png"}, "чтение"},
		{"неверный токен", []string{"--url", srv.URL, "--token", "wrong", image}, "Failed to upload image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand(viper.New())
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err == nil {
				t.Fatal("ожидалась ошибка")
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("вывод %q не содержит %q", out.String(), tt.want)
			}
		})
	}
}

func TestRootCommand_Env(t *testing.T) {
	srv, _ := fakeAPI(t)
	t.Setenv("SNAPFEED_URL", srv.URL)
	t.Setenv("SNAPFEED_TOKEN", "secret")

	cmd := newRootCommand(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{writeImage(t)})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() ошибка: %v, вывод %q", err, out.String())
	}
}
