// pages.go — страницы веб-интерфейса: лента, поиск, создание поста, профиль.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	coreauth "github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/service"
	"github.com/bigkaa/snapfeed/internal/storage/blobstore"
	"github.com/bigkaa/snapfeed/internal/ui/nav"
	"github.com/bigkaa/snapfeed/internal/ui/pages"
	"github.com/bigkaa/snapfeed/internal/ui/theme"
)

// feedPageSize — число постов в ленте и результатах поиска.
const feedPageSize = 30

// PagesHandler — обработчики HTML-страниц.
type PagesHandler struct {
	posts          *service.PostService
	profiles       *service.ProfileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewPagesHandler создаёт новый PagesHandler.
func NewPagesHandler(posts *service.PostService, profiles *service.ProfileService, maxUploadBytes int64, logger *slog.Logger) *PagesHandler {
	return &PagesHandler{
		posts:          posts,
		profiles:       profiles,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "ui.pages")),
	}
}

// pageFor собирает общие данные страницы из запроса.
func pageFor(r *http.Request, title string) pages.Page {
	return pages.Page{
		Title:     title,
		Path:      r.URL.Path,
		Theme:     theme.FromContext(r.Context()),
		Principal: coreauth.PrincipalFromContext(r.Context()),
	}
}

// render выводит страницу со статусом status.
func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// renderError выводит страницу ошибки.
func (h *PagesHandler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, pages.ErrorPage(pages.ErrorData{
		Page:    pageFor(r, http.StatusText(status)),
		Status:  status,
		Message: msg,
	}))
}

// HandleHome — GET /
// Пользователь с сессией попадает в ленту.
func (h *PagesHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if coreauth.PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, nav.PathFeed, http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, pages.Home(pageFor(r, "Domov")))
}

// HandleAbout — GET /o-mne
func (h *PagesHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.About(pageFor(r, "O mne")))
}

// HandleFeed — GET /prispevok
func (h *PagesHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListRecent(r.Context(), feedPageSize, 0)
	if err != nil {
		h.logger.Error("Ошибка получения ленты", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "")
		return
	}
	h.render(w, r, http.StatusOK, pages.Feed(pages.FeedData{
		Page:  pageFor(r, "Príspevky"),
		Posts: posts,
	}))
}

// HandleSearch — GET /hladat?q=
func (h *PagesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	results, err := h.posts.Search(r.Context(), query, feedPageSize)
	if err != nil {
		h.logger.Error("Ошибка поиска", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "")
		return
	}
	h.render(w, r, http.StatusOK, pages.Search(pages.SearchData{
		Page:    pageFor(r, "Hľadať"),
		Query:   query,
		Results: results,
	}))
}

// HandleCreateForm — GET /pridat
func (h *PagesHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.CreatePost(pages.CreatePostData{
		Page: pageFor(r, "Pridať"),
	}))
}

// HandleCreateSubmit — POST /pridat
// Отправка формы без JS: файл и запись создаются одной серверной операцией.
func (h *PagesHandler) HandleCreateSubmit(w http.ResponseWriter, r *http.Request) {
	userID := coreauth.UserIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	formError := func(status int, caption, msg string) {
		h.render(w, r, status, pages.CreatePost(pages.CreatePostData{
			Page:    pageFor(r, "Pridať"),
			Caption: caption,
			Error:   msg,
		}))
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			formError(http.StatusRequestEntityTooLarge, "", "Failed to upload image")
			return
		}
		formError(http.StatusBadRequest, "", "Please select an image")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	caption := r.FormValue("caption")
	file, header, err := r.FormFile("file")
	if err != nil {
		formError(http.StatusBadRequest, caption, "Please select an image")
		return
	}
	defer file.Close()

	post, _, err := h.posts.CreatePostWithAsset(r.Context(), userID, file, header.Filename, caption, "")
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrEmpty):
			formError(http.StatusBadRequest, caption, "Please select an image")
		case errors.Is(err, blobstore.ErrStorage):
			h.logger.Error("Ошибка сохранения файла из формы",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			formError(http.StatusInternalServerError, caption, "Failed to upload image")
		case errors.Is(err, service.ErrValidation):
			formError(http.StatusBadRequest, caption, "Failed to create post")
		case errors.Is(err, service.ErrUnauthenticated):
			http.Redirect(w, r, nav.PathRegister, http.StatusFound)
		default:
			h.logger.Error("Ошибка создания поста из формы",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			formError(http.StatusInternalServerError, caption, "Something went wrong")
		}
		return
	}

	h.logger.Debug("Пост создан из формы", slog.String("post_id", post.ID))
	http.Redirect(w, r, nav.PathProfile, http.StatusSeeOther)
}

// HandleProfile — GET /profile
func (h *PagesHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID := coreauth.UserIDFromContext(r.Context())
	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.render(w, r, http.StatusNotFound, pages.Profile(pages.ProfileData{Page: pageFor(r, "Profil")}))
			return
		}
		h.logger.Error("Ошибка получения профиля",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		h.renderError(w, r, http.StatusInternalServerError, "")
		return
	}
	h.render(w, r, http.StatusOK, pages.Profile(pages.ProfileData{
		Page:    pageFor(r, "Profil"),
		Profile: profile,
	}))
}

// NotFound — страница 404 для неизвестных путей.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Stránka neexistuje")
}
