// Пакет config — загрузка и валидация конфигурации snapfeed
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации snapfeed.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Загрузка файлов ---

	// Директория на диске, куда сохраняются загруженные изображения
	UploadDir string
	// Публичный префикс ссылок на файлы (/uploads/<name>)
	UploadPrefix string
	// Максимальный размер тела запроса загрузки в байтах
	MaxUploadBytes int64
	// Проверять существование файла перед созданием поста
	VerifyAssetRef bool

	// --- Очистка осиротевших файлов ---

	// Интервал запуска очистки
	SweepInterval time.Duration
	// Минимальный возраст файла, после которого он считается осиротевшим
	SweepGrace time.Duration

	// --- Кэш профилей ---

	ProfileCacheSize int
	ProfileCacheTTL  time.Duration

	// --- Keycloak / OIDC ---

	// URL Keycloak (например, https://keycloak.kryukov.lan)
	KeycloakURL string
	// Имя realm в Keycloak
	KeycloakRealm string
	// Client ID публичного OIDC-клиента веб-интерфейса
	OIDCClientID string
	// Issuer JWT (авто-вычисляется из KeycloakURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из KeycloakURL, если не задан)
	JWKSURL string
	// Ключ шифрования cookie-сессий (пустой — генерируется при старте)
	SessionSecret string

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SF_PORT — порт HTTP-сервера (по умолчанию 8080)
	if cfg.Port, err = envParse("SF_PORT", 8080, strconv.Atoi); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SF_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	if cfg.LogLevel, err = envParse("SF_LOG_LEVEL", slog.LevelInfo, parseLogLevel); err != nil {
		return nil, err
	}

	cfg.LogFormat = getEnvDefault("SF_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SF_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("SF_DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.DBPort, err = envParse("SF_DB_PORT", 5432, strconv.Atoi); err != nil {
		return nil, err
	}
	if cfg.DBName, err = getEnvRequired("SF_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("SF_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("SF_DB_PASSWORD"); err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("SF_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("SF_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Загрузка файлов ---

	cfg.UploadDir = getEnvDefault("SF_UPLOAD_DIR", "./public/uploads")
	cfg.UploadPrefix = strings.Trim(getEnvDefault("SF_UPLOAD_PREFIX", "uploads"), "/")
	if cfg.UploadPrefix == "" {
		return nil, fmt.Errorf("SF_UPLOAD_PREFIX: префикс не может быть пустым")
	}

	maxUpload, err := envParse("SF_MAX_UPLOAD_BYTES", 10<<20, strconv.Atoi)
	if err != nil {
		return nil, err
	}
	if maxUpload < 1 {
		return nil, fmt.Errorf("SF_MAX_UPLOAD_BYTES: значение должно быть положительным")
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if cfg.VerifyAssetRef, err = envParse("SF_VERIFY_ASSET_REF", true, strconv.ParseBool); err != nil {
		return nil, err
	}

	// --- Очистка ---

	if cfg.SweepInterval, err = envParse("SF_SWEEP_INTERVAL", time.Hour, time.ParseDuration); err != nil {
		return nil, err
	}
	if cfg.SweepGrace, err = envParse("SF_SWEEP_GRACE", 24*time.Hour, time.ParseDuration); err != nil {
		return nil, err
	}
	if cfg.SweepGrace < time.Minute {
		return nil, fmt.Errorf("SF_SWEEP_GRACE: значение %s меньше минимального 1m", cfg.SweepGrace)
	}

	// --- Кэш профилей ---

	if cfg.ProfileCacheSize, err = envParse("SF_PROFILE_CACHE_SIZE", 1000, strconv.Atoi); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheSize < 1 {
		return nil, fmt.Errorf("SF_PROFILE_CACHE_SIZE: значение должно быть положительным")
	}
	if cfg.ProfileCacheTTL, err = envParse("SF_PROFILE_CACHE_TTL", 30*time.Second, time.ParseDuration); err != nil {
		return nil, err
	}

	// --- Keycloak / OIDC ---

	if cfg.KeycloakURL, err = getEnvRequired("SF_KEYCLOAK_URL"); err != nil {
		return nil, err
	}
	cfg.KeycloakURL = strings.TrimRight(cfg.KeycloakURL, "/")
	cfg.KeycloakRealm = getEnvDefault("SF_KEYCLOAK_REALM", "snapfeed")
	cfg.OIDCClientID = getEnvDefault("SF_OIDC_CLIENT_ID", "snapfeed-web")

	cfg.JWTIssuer = getEnvDefault("SF_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.KeycloakURL, cfg.KeycloakRealm))
	cfg.JWKSURL = getEnvDefault("SF_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.KeycloakURL, cfg.KeycloakRealm))

	cfg.SessionSecret = getEnvDefault("SF_SESSION_SECRET", "")

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("SF_DEPHEALTH_GROUP", "snapfeed")
	if cfg.DephealthCheckInterval, err = envParse("SF_DEPHEALTH_CHECK_INTERVAL", 15*time.Second, time.ParseDuration); err != nil {
		return nil, err
	}

	// --- Graceful shutdown ---

	if cfg.ShutdownTimeout, err = envParse("SF_SHUTDOWN_TIMEOUT", 5*time.Second, time.ParseDuration); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL без пароля.
// Используется в лейблах topologymetrics.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName)
}

// SecureCookies возвращает true, если Keycloak доступен по HTTPS.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.KeycloakURL, "https")
}

// SetupLogger создаёт логгер по LogLevel/LogFormat и делает его логгером по умолчанию.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler).With(slog.String("service", "snapfeed"))
	slog.SetDefault(logger)
	return logger
}

// getEnvRequired — значение обязательной переменной окружения.
func getEnvRequired(key string) (string, error) {
	if val := os.Getenv(key); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
}

// getEnvDefault — значение переменной окружения или defaultVal, если она пуста.
func getEnvDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envParse разбирает переменную окружения функцией parse.
// Пустая переменная — defaultVal. Ошибка разбора содержит имя переменной.
func envParse[T any](key string, defaultVal T, parse func(string) (T, error)) (T, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	v, err := parse(val)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: некорректное значение %q", key, val)
	}
	return v, nil
}

// parseLogLevel — slog.Level по имени уровня.
func parseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
	return l, nil
}
