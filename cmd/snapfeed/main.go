// Точка входа snapfeed — веб-приложение публикации изображений.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт хранилище файлов, сервисный слой, API и веб-интерфейс,
// запускает фоновые задачи (очистка файлов, topologymetrics)
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/snapfeed/internal/api/handlers"
	apimiddleware "github.com/bigkaa/snapfeed/internal/api/middleware"
	"github.com/bigkaa/snapfeed/internal/api/openapi"
	coreauth "github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/clock"
	"github.com/bigkaa/snapfeed/internal/config"
	"github.com/bigkaa/snapfeed/internal/database"
	"github.com/bigkaa/snapfeed/internal/repository"
	"github.com/bigkaa/snapfeed/internal/server"
	"github.com/bigkaa/snapfeed/internal/service"
	"github.com/bigkaa/snapfeed/internal/storage/blobstore"
	"github.com/bigkaa/snapfeed/internal/ui/auth"
	uihandlers "github.com/bigkaa/snapfeed/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/snapfeed/internal/ui/middleware"
)

// jwksRefreshInterval — период фонового обновления JWKS Keycloak.
const jwksRefreshInterval = 15 * time.Minute

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("snapfeed запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("SF_DEPHEALTH_GROUP") == "" {
		logger.Warn("SF_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Хранилище загруженных файлов
	realClock := clock.NewRealClock()
	assets, err := blobstore.New(cfg.UploadDir, cfg.UploadPrefix, realClock)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища файлов",
			slog.String("dir", cfg.UploadDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Хранилище файлов готово",
		slog.String("dir", assets.Dir()),
		slog.String("prefix", assets.Prefix()),
	)

	// 6. Repositories
	postRepo := repository.NewPostRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// 7. Services
	profileSvc := service.NewProfileService(userRepo, postRepo, cfg.ProfileCacheSize, cfg.ProfileCacheTTL, logger)
	userSvc := service.NewUserService(userRepo, profileSvc, logger)
	postSvc := service.NewPostService(postRepo, assets, cfg.VerifyAssetRef, profileSvc, logger)
	sweeperSvc := service.NewSweeperService(assets, postRepo, realClock, cfg.SweepInterval, cfg.SweepGrace, logger)

	// 8. JWT validator (JWKS Keycloak)
	validator, err := coreauth.NewTokenValidator(cfg.JWKSURL, cfg.JWTIssuer, jwksRefreshInterval, logger)
	if err != nil {
		logger.Error("Ошибка создания JWT validator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT validator инициализирован",
		slog.String("jwks_url", cfg.JWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 9. Сессии и OIDC веб-интерфейса
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SecureCookies())
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("SF_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}
	oidcClient := auth.NewOIDCClient(auth.OIDCConfig{
		KeycloakURL: cfg.KeycloakURL,
		Realm:       cfg.KeycloakRealm,
		ClientID:    cfg.OIDCClientID,
	})

	// 10. topologymetrics — мониторинг зависимостей (PostgreSQL + Keycloak)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "snapfeed",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PostgresURL:   cfg.DatabaseURL(),
		JWKSURL:       cfg.JWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	var kcChecker handlers.ReadinessChecker
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		kcChecker = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 11. OpenAPI-документ
	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-документа", slog.String("error", err.Error()))
		os.Exit(1)
	}
	openAPIHandler, err := openapi.Handler(doc)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-документа", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. HTTP-компоненты
	health := handlers.NewHealthHandler(
		handlers.Check{Name: "postgresql", Checker: database.NewReadinessChecker(pool), Critical: true},
		handlers.Check{Name: "uploads", Checker: assets, Critical: true},
		handlers.Check{Name: "keycloak", Checker: kcChecker},
	)
	components := &server.Components{
		API:           handlers.NewAPIHandler(postSvc, profileSvc, cfg.MaxUploadBytes, logger),
		Health:        health,
		Authenticator: apimiddleware.NewAuthenticator(sessionMgr, validator, userSvc, logger),
		OpenAPI:       openAPIHandler,
		Assets:        assets,
		UIAuth:        uimiddleware.NewUIAuth(sessionMgr, logger),
		AuthHandler:   uihandlers.NewAuthHandler(oidcClient, sessionMgr, validator, userSvc, logger),
		Pages:         uihandlers.NewPagesHandler(postSvc, profileSvc, cfg.MaxUploadBytes, logger),
	}

	// 13. Фоновая очистка осиротевших файлов
	sweeperSvc.Start(ctx)

	// 14. HTTP-сервер
	srv := server.New(cfg, logger, components)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 15. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	sweeperSvc.Stop()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("snapfeed остановлен")
}
