// Пакет config — загрузка и валидация конфигурации DocHub Portal
// из переменных окружения (префикс DH_).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// ServiceName — имя сервиса в health-ответах и метриках зависимостей.
const ServiceName = "dochub-portal"

// Config содержит все параметры конфигурации портала.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (по умолчанию 8040)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Публичный URL портала (для Secure cookie и ссылок)
	PublicURL string

	// --- Backend API ---

	// Базовый URL backend (без /api/v1)
	APIURL string
	// Таймаут запросов к backend (по умолчанию 10s)
	APITimeout time.Duration
	// Путь к CA-сертификату backend (опционально)
	APICACertPath string

	// --- Сессия ---

	// Секрет шифрования cookie сессии (пусто — случайный ключ)
	SessionSecret string
	// Время жизни cookie сессии (по умолчанию 24h)
	SessionMaxAge time.Duration
	// Флаг Secure для cookie сессии
	SessionSecureCookie bool
	// Время кэширования пользователя по токену (0 — без кэша)
	SessionCacheTTL time.Duration
	// Максимальное число пользователей в кэше сессий
	SessionCacheSize int

	// --- JWT ---

	// URL JWKS для проверки подписи токена (пусто — проверка только exp)
	JWTJWKSURL string
	// Интервал обновления JWKS (по умолчанию 15m)
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение часов при проверке exp (по умолчанию 30s)
	JWTLeeway time.Duration

	// --- Файлы ---

	// Максимальное число открытых object URL (по умолчанию 128)
	BlobCacheSize int
	// Время жизни object URL (по умолчанию 10m)
	BlobTTL time.Duration

	// --- UI ---

	// Язык по умолчанию (en, ru)
	DefaultLang string

	// --- topologymetrics ---

	// Группа в метриках зависимостей (по умолчанию dochub)
	DephealthGroup string
	// Интервал проверки зависимостей (по умолчанию 15s)
	DephealthCheckInterval time.Duration

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DH_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("DH_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("DH_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DH_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// DH_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DH_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DH_LOG_LEVEL: %w", err)
	}

	// DH_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DH_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DH_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// DH_PUBLIC_URL — публичный URL (по умолчанию http://localhost:<port>)
	cfg.PublicURL = strings.TrimRight(getEnvDefault("DH_PUBLIC_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")
	if err := validateHTTPURL(cfg.PublicURL); err != nil {
		return nil, fmt.Errorf("DH_PUBLIC_URL: %w", err)
	}

	// --- Backend API ---

	// DH_API_URL — обязательный
	cfg.APIURL, err = getEnvRequired("DH_API_URL")
	if err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if err := validateHTTPURL(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("DH_API_URL: %w", err)
	}

	// DH_API_TIMEOUT — таймаут запросов к backend (по умолчанию 10s)
	cfg.APITimeout, err = getEnvDuration("DH_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_API_TIMEOUT: %w", err)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("DH_API_TIMEOUT: значение должно быть > 0")
	}

	// DH_API_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.APICACertPath = getEnvDefault("DH_API_CA_CERT_PATH", "")

	// --- Сессия ---

	// DH_SESSION_SECRET — секрет шифрования cookie (опционально)
	cfg.SessionSecret = getEnvDefault("DH_SESSION_SECRET", "")

	// DH_SESSION_MAX_AGE — время жизни cookie (по умолчанию 24h)
	cfg.SessionMaxAge, err = getEnvDuration("DH_SESSION_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DH_SESSION_MAX_AGE: %w", err)
	}
	if cfg.SessionMaxAge < time.Minute {
		return nil, fmt.Errorf("DH_SESSION_MAX_AGE: значение %s меньше 1m", cfg.SessionMaxAge)
	}

	// DH_SESSION_SECURE_COOKIE — по умолчанию true, если публичный URL https
	cfg.SessionSecureCookie, err = getEnvBool("DH_SESSION_SECURE_COOKIE", strings.HasPrefix(cfg.PublicURL, "https"))
	if err != nil {
		return nil, fmt.Errorf("DH_SESSION_SECURE_COOKIE: %w", err)
	}

	// DH_SESSION_CACHE_TTL — кэш GET /auth/me по токену (по умолчанию 30s)
	cfg.SessionCacheTTL, err = getEnvDuration("DH_SESSION_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_SESSION_CACHE_TTL: %w", err)
	}
	if cfg.SessionCacheTTL < 0 {
		return nil, fmt.Errorf("DH_SESSION_CACHE_TTL: значение не может быть отрицательным")
	}

	// DH_SESSION_CACHE_SIZE — размер кэша пользователей (по умолчанию 1024)
	cfg.SessionCacheSize, err = getEnvInt("DH_SESSION_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("DH_SESSION_CACHE_SIZE: %w", err)
	}
	if cfg.SessionCacheSize < 1 {
		return nil, fmt.Errorf("DH_SESSION_CACHE_SIZE: значение должно быть >= 1")
	}

	// --- JWT ---

	// DH_JWT_JWKS_URL — URL JWKS (опционально)
	cfg.JWTJWKSURL = getEnvDefault("DH_JWT_JWKS_URL", "")
	if cfg.JWTJWKSURL != "" {
		if err := validateHTTPURL(cfg.JWTJWKSURL); err != nil {
			return nil, fmt.Errorf("DH_JWT_JWKS_URL: %w", err)
		}
	}

	// DH_JWKS_REFRESH_INTERVAL — интервал обновления JWKS (по умолчанию 15m)
	cfg.JWKSRefreshInterval, err = getEnvDuration("DH_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DH_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// DH_JWT_LEEWAY — допустимое отклонение часов (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("DH_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_JWT_LEEWAY: %w", err)
	}

	// --- Файлы ---

	// DH_BLOB_CACHE_SIZE — число открытых object URL (по умолчанию 128)
	cfg.BlobCacheSize, err = getEnvInt("DH_BLOB_CACHE_SIZE", 128)
	if err != nil {
		return nil, fmt.Errorf("DH_BLOB_CACHE_SIZE: %w", err)
	}
	if cfg.BlobCacheSize < 1 || cfg.BlobCacheSize > 10000 {
		return nil, fmt.Errorf("DH_BLOB_CACHE_SIZE: значение %d вне допустимого диапазона 1-10000", cfg.BlobCacheSize)
	}

	// DH_BLOB_TTL — время жизни object URL (по умолчанию 10m)
	cfg.BlobTTL, err = getEnvDuration("DH_BLOB_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DH_BLOB_TTL: %w", err)
	}

	// --- UI ---

	// DH_DEFAULT_LANG — язык по умолчанию (en, ru)
	cfg.DefaultLang = strings.ToLower(getEnvDefault("DH_DEFAULT_LANG", "en"))
	if cfg.DefaultLang != "en" && cfg.DefaultLang != "ru" {
		return nil, fmt.Errorf("DH_DEFAULT_LANG: недопустимое значение %q, допустимые: en, ru", cfg.DefaultLang)
	}

	// --- topologymetrics ---

	// DH_DEPHEALTH_GROUP — группа метрик зависимостей (по умолчанию dochub)
	cfg.DephealthGroup = getEnvDefault("DH_DEPHEALTH_GROUP", "dochub")

	// DH_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("DH_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- HTTP Server Timeouts ---

	// DH_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("DH_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_HTTP_READ_TIMEOUT: %w", err)
	}

	// DH_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("DH_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// DH_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("DH_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// DH_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("DH_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DH_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// validateHTTPURL проверяет, что строка — абсолютный http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("недопустимая схема %q, допустимые: http, https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("в URL %q не указан хост", raw)
	}
	return nil
}
