package blobstore

import (
	"errors"
	"log/slog"
	"net/http"
)

// Handler возвращает HTTP-обработчик раздачи файлов по публичным ссылкам.
// Монтируется на префикс хранилища (/uploads/*). Листинг директории не отдаётся.
func (s *Store) Handler(logger *slog.Logger) http.Handler {
	logger = logger.With(slog.String("component", "blobstore"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		f, err := s.Open(r.URL.Path)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidReference) {
				http.NotFound(w, r)
				return
			}
			logger.Error("Ошибка открытия файла", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}

		// Имя файла уникально и содержимое не меняется
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}
