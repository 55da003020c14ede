// upload.go — POST /api/upload: сохранение изображения в хранилище.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/snapfeed/internal/api/errors"
	"github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/service"
)

// multipartMemory — часть multipart-формы, хранимая в памяти; остальное во временных файлах.
const multipartMemory = 1 << 20

// UploadAsset — POST /api/upload.
// Принимает multipart-форму с полем file, возвращает {"imageUrl": "/uploads/<name>"}.
func (h *APIHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.ValidationError(w, apierrors.MsgFileTooLarge)
			return
		}
		apierrors.ValidationError(w, apierrors.MsgNoFile)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, apierrors.MsgNoFile)
		return
	}
	defer file.Close()

	asset, err := h.posts.UploadAsset(r.Context(), userID, file, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, apierrors.MsgEmptyFile)
		case errors.Is(err, service.ErrUnauthenticated):
			apierrors.Unauthorized(w)
		default:
			h.logger.Error("Ошибка загрузки файла",
				slog.String("user_id", userID),
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{ImageURL: asset.Reference})
}
