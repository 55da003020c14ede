// handler.go — основной обработчик API snapfeed.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/snapfeed/internal/service"
)

// APIHandler — обработчик REST API: загрузка файлов, посты, профиль.
type APIHandler struct {
	posts          *service.PostService
	profiles       *service.ProfileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAPIHandler создаёт обработчик API.
// maxUploadBytes — ограничение тела запроса POST /api/upload.
func NewAPIHandler(
	posts *service.PostService,
	profiles *service.ProfileService,
	maxUploadBytes int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		posts:          posts,
		profiles:       profiles,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
