// Пакет server — HTTP-сервер snapfeed с graceful shutdown.
// Без TLS — TLS termination на ingress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bigkaa/snapfeed/internal/api/handlers"
	apimiddleware "github.com/bigkaa/snapfeed/internal/api/middleware"
	"github.com/bigkaa/snapfeed/internal/config"
	"github.com/bigkaa/snapfeed/internal/storage/blobstore"
	uihandlers "github.com/bigkaa/snapfeed/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/snapfeed/internal/ui/middleware"
	"github.com/bigkaa/snapfeed/internal/ui/nav"
	"github.com/bigkaa/snapfeed/internal/ui/static"
	"github.com/bigkaa/snapfeed/internal/ui/theme"
)

// Components — обработчики и middleware, из которых собирается роутер.
type Components struct {
	API           *handlers.APIHandler
	Health        *handlers.HealthHandler
	Authenticator *apimiddleware.Authenticator
	// OpenAPI — обработчик /api/openapi.json (nil — маршрут не регистрируется)
	OpenAPI http.Handler
	Assets  *blobstore.Store

	UIAuth      *uimiddleware.UIAuth
	AuthHandler *uihandlers.AuthHandler
	Pages       *uihandlers.PagesHandler
}

// Server — HTTP-сервер snapfeed.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, c *Components) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(logger, c),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер: health и metrics, API под аутентификацией,
// раздачу файлов и статики, страницы веб-интерфейса.
func NewRouter(logger *slog.Logger, c *Components) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(chimw.RequestID)
	router.Use(apimiddleware.MetricsMiddleware())
	router.Use(apimiddleware.RequestLogger(logger))
	router.Use(chimw.Recoverer)

	// Health и metrics проверяются Kubernetes напрямую
	router.Get("/health/live", c.Health.HealthLive)
	router.Get("/health/ready", c.Health.HealthReady)
	router.Get("/metrics", c.Health.GetMetrics)

	if c.OpenAPI != nil {
		router.Method(http.MethodGet, "/api/openapi.json", c.OpenAPI)
	}

	handlers.HandlerWithOptions(c.API, handlers.ChiServerOptions{
		BaseRouter:  router,
		Middlewares: []func(http.Handler) http.Handler{c.Authenticator.Require},
	})

	// Публичная раздача загруженных файлов
	assets := c.Assets.Handler(logger)
	router.Method(http.MethodGet, c.Assets.Prefix()+"*", assets)
	router.Method(http.MethodHead, c.Assets.Prefix()+"*", assets)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	// Веб-интерфейс
	router.Group(func(r chi.Router) {
		r.Use(theme.Middleware())
		r.Use(c.UIAuth.Session())

		r.Get(nav.PathHome, c.Pages.HandleHome)
		r.Get(nav.PathAbout, c.Pages.HandleAbout)
		r.Get(nav.PathLogin, c.AuthHandler.HandleLogin)
		r.Get(nav.PathRegister, c.AuthHandler.HandleRegister)
		r.Get(nav.PathCallback, c.AuthHandler.HandleCallback)
		r.Post(nav.PathLogout, c.AuthHandler.HandleLogout)
		r.Post("/theme", theme.HandleToggle)

		r.Group(func(r chi.Router) {
			r.Use(c.UIAuth.Require())
			r.Get(nav.PathFeed, c.Pages.HandleFeed)
			r.Get(nav.PathSearch, c.Pages.HandleSearch)
			r.Get(nav.PathCreate, c.Pages.HandleCreateForm)
			r.Post(nav.PathCreate, c.Pages.HandleCreateSubmit)
			r.Get(nav.PathProfile, c.Pages.HandleProfile)
		})

		r.NotFound(c.Pages.NotFound)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
