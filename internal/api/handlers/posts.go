// posts.go — обработчики /api/posts: создание поста и список своих постов.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/snapfeed/internal/api/errors"
	"github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/service"
)

// maxPostBodyBytes — ограничение JSON-тела POST /api/posts.
const maxPostBodyBytes = 64 << 10

// IdempotencyKeyHeader — заголовок с токеном попытки отправки.
const IdempotencyKeyHeader = "Idempotency-Key"

// CreatePost — POST /api/posts.
// 201 {"postId"} для нового поста, 200 для повтора с тем же Idempotency-Key.
func (h *APIHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPostBodyBytes)).Decode(&req); err != nil {
		apierrors.ValidationError(w, apierrors.MsgInvalidJSON)
		return
	}

	post, created, err := h.posts.CreatePost(r.Context(), userID, req.ImageURL, req.Caption, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrUnauthenticated):
			apierrors.Unauthorized(w)
		default:
			h.logger.Error("Ошибка создания поста",
				slog.String("user_id", userID),
				slog.String("image_url", req.ImageURL),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w)
		}
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, CreatePostResponse{PostID: post.ID})
}

// ListPosts — GET /api/posts?limit&offset.
// Возвращает посты текущего пользователя, новые первыми.
func (h *APIHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	var limit, offset *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр limit")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", r.URL.Query(), &offset); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр offset")
		return
	}
	l, o := paginationDefaults(limit, offset)

	posts, err := h.posts.ListByUser(r.Context(), userID, l, o)
	if err != nil {
		h.logger.Error("Ошибка получения постов", slog.String("user_id", userID), slog.String("error", err.Error()))
		apierrors.InternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Items: mapPosts(posts), Limit: l, Offset: o})
}

// paginationDefaults нормализует параметры пагинации.
func paginationDefaults(limit, offset *int) (int, int) {
	l := service.DefaultPageSize
	o := 0

	if limit != nil {
		l = *limit
		if l < 1 {
			l = 1
		}
		if l > service.MaxPageSize {
			l = service.MaxPageSize
		}
	}
	if offset != nil && *offset > 0 {
		o = *offset
	}
	return l, o
}
