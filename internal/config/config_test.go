package config

import (
	"log/slog"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"DH_API_URL": "http://backend:8000/",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидается 8040", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.APIURL != "http://backend:8000" {
		t.Errorf("APIURL = %q, ожидается без завершающего /", cfg.APIURL)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("APITimeout = %v, ожидается 10s", cfg.APITimeout)
	}
	if cfg.PublicURL != "http://localhost:8040" {
		t.Errorf("PublicURL = %q, ожидается http://localhost:8040", cfg.PublicURL)
	}
	if cfg.SessionSecureCookie {
		t.Error("SessionSecureCookie должен быть false для http")
	}
	if cfg.SessionMaxAge != 24*time.Hour {
		t.Errorf("SessionMaxAge = %v, ожидается 24h", cfg.SessionMaxAge)
	}
	if cfg.SessionCacheTTL != 30*time.Second {
		t.Errorf("SessionCacheTTL = %v, ожидается 30s", cfg.SessionCacheTTL)
	}
	if cfg.JWTJWKSURL != "" {
		t.Errorf("JWTJWKSURL = %q, ожидается пустой", cfg.JWTJWKSURL)
	}
	if cfg.BlobCacheSize != 128 {
		t.Errorf("BlobCacheSize = %d, ожидается 128", cfg.BlobCacheSize)
	}
	if cfg.DefaultLang != "en" {
		t.Errorf("DefaultLang = %q, ожидается en", cfg.DefaultLang)
	}
	if cfg.DephealthGroup != "dochub" {
		t.Errorf("DephealthGroup = %q, ожидается dochub", cfg.DephealthGroup)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_SecureCookieFromPublicURL(t *testing.T) {
	envs := minimalEnvs()
	envs["DH_PUBLIC_URL"] = "https://docs.example.com"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if !cfg.SessionSecureCookie {
		t.Error("SessionSecureCookie должен быть true для https")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
	}{
		{"нет DH_API_URL", map[string]string{}},
		{"DH_API_URL без схемы", map[string]string{"DH_API_URL": "backend:8000"}},
		{"DH_API_URL ftp", map[string]string{"DH_API_URL": "ftp://backend"}},
		{"некорректный порт", map[string]string{"DH_API_URL": "http://b", "DH_PORT": "abc"}},
		{"порт вне диапазона", map[string]string{"DH_API_URL": "http://b", "DH_PORT": "70000"}},
		{"некорректный уровень логов", map[string]string{"DH_API_URL": "http://b", "DH_LOG_LEVEL": "trace"}},
		{"некорректный формат логов", map[string]string{"DH_API_URL": "http://b", "DH_LOG_FORMAT": "xml"}},
		{"некорректный таймаут", map[string]string{"DH_API_URL": "http://b", "DH_API_TIMEOUT": "10"}},
		{"нулевой таймаут", map[string]string{"DH_API_URL": "http://b", "DH_API_TIMEOUT": "0s"}},
		{"короткая сессия", map[string]string{"DH_API_URL": "http://b", "DH_SESSION_MAX_AGE": "10s"}},
		{"отрицательный TTL кэша", map[string]string{"DH_API_URL": "http://b", "DH_SESSION_CACHE_TTL": "-1s"}},
		{"некорректный bool", map[string]string{"DH_API_URL": "http://b", "DH_SESSION_SECURE_COOKIE": "да"}},
		{"неизвестный язык", map[string]string{"DH_API_URL": "http://b", "DH_DEFAULT_LANG": "de"}},
		{"размер кэша 0", map[string]string{"DH_API_URL": "http://b", "DH_BLOB_CACHE_SIZE": "0"}},
		{"некорректный JWKS URL", map[string]string{"DH_API_URL": "http://b", "DH_JWT_JWKS_URL": "jwks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DH_API_URL", "")
			setEnvs(t, tt.envs)

			if _, err := Load(); err == nil {
				t.Error("Load() должен вернуть ошибку")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if err != nil {
			t.Errorf("parseLogLevel(%q): неожиданная ошибка: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, ожидается %v", tt.input, got, tt.want)
		}
	}
}
