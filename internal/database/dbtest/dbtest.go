// Пакет dbtest — PostgreSQL в Docker-контейнере для интеграционных тестов.
// Тесты пропускаются, если не задана переменная TEST_INTEGRATION.
package dbtest

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/snapfeed/internal/config"
)

const (
	image      = "docker.io/postgres:17-alpine"
	dbName     = "snapfeed_test"
	dbUser     = "snapfeed"
	dbPassword = "test-password"
)

// Config запускает PostgreSQL через testcontainers и возвращает
// конфигурацию, указывающую на контейнер. Контейнер останавливается в t.Cleanup.
func Config(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("интеграционный тест: задайте TEST_INTEGRATION=1")
	}

	ctx := context.Background()

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		// postgres перезапускается после initdb, готовность — второе сообщение
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("PostgreSQL контейнер не запущен: %v", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("host контейнера: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("порт контейнера: %v", err)
	}

	t.Setenv("SF_DB_HOST", host)
	t.Setenv("SF_DB_PORT", port.Port())
	t.Setenv("SF_DB_NAME", dbName)
	t.Setenv("SF_DB_USER", dbUser)
	t.Setenv("SF_DB_PASSWORD", dbPassword)
	t.Setenv("SF_DB_SSL_MODE", "disable")
	t.Setenv("SF_KEYCLOAK_URL", "http://localhost:8080")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() для контейнера: %v", err)
	}
	return cfg
}

// Logger — debug-логгер тестов в stderr.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
