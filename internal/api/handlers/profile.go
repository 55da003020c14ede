// profile.go — обработчики /api/user/profile.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/snapfeed/internal/api/errors"
	"github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/service"
)

// GetProfile — GET /api/user/profile.
// Возвращает пользователя вместе с профилем и постами.
func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	u, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "User not found")
			return
		}
		h.logger.Error("Ошибка получения профиля", slog.String("user_id", userID), slog.String("error", err.Error()))
		apierrors.InternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, mapUserProfile(u))
}

// UpdateProfile — PUT /api/user/profile.
// Обновляет био, местоположение и интересы; возвращает обновлённый профиль.
func (h *APIHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPostBodyBytes)).Decode(&req); err != nil {
		apierrors.ValidationError(w, apierrors.MsgInvalidJSON)
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Bio:       req.Bio,
		Location:  req.Location,
		Interests: req.Interests,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrUnauthenticated):
			apierrors.Unauthorized(w)
		default:
			h.logger.Error("Ошибка обновления профиля", slog.String("user_id", userID), slog.String("error", err.Error()))
			apierrors.InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, mapProfile(profile))
}
