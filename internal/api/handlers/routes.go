// routes.go — привязка операций API к маршрутам chi.
// Оформлено как chi-server oapi-codegen: ServerInterface + HandlerFromMux.
// Пути и operationId совпадают с openapi.yaml, что проверяется тестом.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ServerInterface — операции API, требующие аутентификации.
type ServerInterface interface {
	// POST /api/upload
	UploadAsset(w http.ResponseWriter, r *http.Request)
	// GET /api/posts
	ListPosts(w http.ResponseWriter, r *http.Request)
	// POST /api/posts
	CreatePost(w http.ResponseWriter, r *http.Request)
	// GET /api/user/profile
	GetProfile(w http.ResponseWriter, r *http.Request)
	// PUT /api/user/profile
	UpdateProfile(w http.ResponseWriter, r *http.Request)
}

var _ ServerInterface = (*APIHandler)(nil)

// Operation — маршрут одной операции OpenAPI.
type Operation struct {
	Method      string
	Pattern     string
	OperationID string
	Handler     http.HandlerFunc
}

// Operations — операции si в порядке openapi.yaml.
func Operations(si ServerInterface) []Operation {
	return []Operation{
		{http.MethodPost, "/api/upload", "uploadAsset", si.UploadAsset},
		{http.MethodGet, "/api/posts", "listPosts", si.ListPosts},
		{http.MethodPost, "/api/posts", "createPost", si.CreatePost},
		{http.MethodGet, "/api/user/profile", "getProfile", si.GetProfile},
		{http.MethodPut, "/api/user/profile", "updateProfile", si.UpdateProfile},
	}
}

// ChiServerOptions — параметры HandlerWithOptions.
type ChiServerOptions struct {
	// BaseRouter — роутер, в который добавляются маршруты (nil — новый).
	BaseRouter chi.Router
	// Middlewares оборачивают каждый маршрут API.
	Middlewares []func(http.Handler) http.Handler
}

// HandlerFromMux регистрирует операции si в r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions регистрирует операции si с middleware из options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	api := r.With(options.Middlewares...)
	for _, op := range Operations(si) {
		api.Method(op.Method, op.Pattern, op.Handler)
	}
	return r
}
