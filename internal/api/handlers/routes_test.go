package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/snapfeed/internal/api/openapi"
)

// echoServer отвечает именем вызванной операции.
type echoServer struct{}

func echo(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(name)) }
}

func (echoServer) UploadAsset(w http.ResponseWriter, r *http.Request)   { echo("uploadAsset")(w, r) }
func (echoServer) ListPosts(w http.ResponseWriter, r *http.Request)     { echo("listPosts")(w, r) }
func (echoServer) CreatePost(w http.ResponseWriter, r *http.Request)    { echo("createPost")(w, r) }
func (echoServer) GetProfile(w http.ResponseWriter, r *http.Request)    { echo("getProfile")(w, r) }
func (echoServer) UpdateProfile(w http.ResponseWriter, r *http.Request) { echo("updateProfile")(w, r) }

func TestOperations_MatchOpenAPI(t *testing.T) {
	doc, err := openapi.Load(context.Background())
	if err != nil {
		t.Fatalf("openapi.Load() ошибка: %v", err)
	}

	mounted := make(map[string]bool)
	for _, op := range Operations(echoServer{}) {
		mounted[op.Method+" "+op.Pattern] = true

		item := doc.Paths.Find(op.Pattern)
		if item == nil {
			t.Errorf("%s %s: пути нет в OpenAPI-документе", op.Method, op.Pattern)
			continue
		}
		docOp := item.GetOperation(op.Method)
		if docOp == nil || docOp.OperationID != op.OperationID {
			t.Errorf("%s %s: operationId в документе %v, ожидался %s", op.Method, op.Pattern, docOp, op.OperationID)
		}
	}

	for path, item := range doc.Paths.Map() {
		if !strings.HasPrefix(path, "/api/") {
			continue
		}
		for method := range item.Operations() {
			if !mounted[method+" "+path] {
				t.Errorf("операция %s %s из документа не зарегистрирована", method, path)
			}
		}
	}
}

func TestHandlerWithOptions(t *testing.T) {
	requireKey := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Key") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	router := chi.NewRouter()
	router.Get("/health/live", echo("healthLive"))
	HandlerWithOptions(echoServer{}, ChiServerOptions{
		BaseRouter:  router,
		Middlewares: []func(http.Handler) http.Handler{requireKey},
	})

	for _, op := range Operations(echoServer{}) {
		t.Run(op.OperationID, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(op.Method, op.Pattern, nil))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("без ключа: статус = %d, ожидался 401", w.Code)
			}

			r := httptest.NewRequest(op.Method, op.Pattern, nil)
			r.Header.Set("X-Key", "k")
			w = httptest.NewRecorder()
			router.ServeHTTP(w, r)
			if w.Code != http.StatusOK || w.Body.String() != op.OperationID {
				t.Errorf("статус = %d, тело = %q, ожидалась операция %s", w.Code, w.Body.String(), op.OperationID)
			}
		})
	}

	// middleware API не затрагивает остальные маршруты роутера
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health/live: статус = %d, ожидался 200", w.Code)
	}
}
