// Точка входа DocHub Portal — веб-портал документооборота поверх backend DocHub.
// Загружает конфигурацию, создаёт клиент backend и хранилище сессий,
// загружает каталоги переводов и OpenAPI-контракт, запускает мониторинг
// зависимостей (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/bigkaa/dochub-portal/internal/api/handlers"
	"github.com/bigkaa/dochub-portal/internal/api/middleware"
	"github.com/bigkaa/dochub-portal/internal/api/openapi"
	"github.com/bigkaa/dochub-portal/internal/apiclient"
	"github.com/bigkaa/dochub-portal/internal/config"
	"github.com/bigkaa/dochub-portal/internal/server"
	"github.com/bigkaa/dochub-portal/internal/service"
	"github.com/bigkaa/dochub-portal/internal/session"
	"github.com/bigkaa/dochub-portal/internal/ui/i18n"
)

func main() {
	// 1. Файл .env (опционально, для локального запуска)
	envErr := godotenv.Load()

	// 2. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("DocHub Portal запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
	)
	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Warn("Не удалось прочитать .env", slog.String("error", envErr.Error()))
	}

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("DH_DEPHEALTH_GROUP") == "" {
		logger.Warn("DH_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 4. Клиент backend (CA-сертификат опционален)
	api, err := apiclient.New(cfg.APIURL, cfg.APICACertPath, cfg.APITimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.APICACertPath != "" {
		logger.Info("CA-сертификат загружен", slog.String("path", cfg.APICACertPath))
	}

	// 5. Аутентификация: кэш GET /auth/me по токену
	var auth session.Authenticator = api
	if cfg.SessionCacheTTL > 0 {
		auth = session.NewCachingAuthenticator(api, cfg.SessionCacheSize, cfg.SessionCacheTTL)
		logger.Info("Кэш пользователей сессии включён",
			slog.Int("size", cfg.SessionCacheSize),
			slog.String("ttl", cfg.SessionCacheTTL.String()),
		)
	}

	// 6. Проверка подписи токена через JWKS (опционально)
	var verifier session.TokenVerifier
	if cfg.JWTJWKSURL != "" {
		jwks, jwksErr := session.NewJWKSVerifier(
			cfg.JWTJWKSURL,
			api.HTTPClient(),
			cfg.JWKSRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if jwksErr != nil {
			logger.Error("Ошибка создания JWKS-верификатора", slog.String("error", jwksErr.Error()))
			os.Exit(1)
		}
		verifier = jwks
		logger.Info("Проверка подписи токенов включена", slog.String("jwks_url", cfg.JWTJWKSURL))
	}

	// 7. Шифрование cookie сессии (AES-256-GCM)
	cipher, err := session.NewCipher(cfg.SessionSecret)
	if err != nil {
		logger.Error("Ошибка создания ключа сессии", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cipher.Ephemeral() {
		logger.Warn("DH_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	sessionAuth := middleware.NewSessionAuth(auth, middleware.SessionConfig{
		Cipher: cipher,
		Cookie: session.CookieOptions{
			MaxAge: cfg.SessionMaxAge,
			Secure: cfg.SessionSecureCookie,
		},
		Verifier: verifier,
		Leeway:   cfg.JWTLeeway,
	}, logger)

	// 8. Каталоги переводов
	bundle, err := i18n.Load(cfg.DefaultLang, logger)
	if err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. OpenAPI-контракт и валидатор запросов
	doc, err := openapi.Load()
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}
	validator, err := middleware.NewRequestValidator(doc, logger)
	if err != nil {
		logger.Error("Ошибка создания валидатора запросов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Реестр объектных URL для файлов документов
	blobs := service.NewBlobRegistry(cfg.BlobCacheSize, cfg.BlobTTL)

	// 11. topologymetrics — мониторинг backend
	ctx := context.Background()
	dephealthSvc, dephealthErr := service.NewDephealthService(
		config.ServiceName,
		cfg.DephealthGroup,
		cfg.APIURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
			defer dephealthSvc.Stop()
		}
	}

	// 12. HTTP-сервер
	router := server.NewRouter(logger, server.Routes{
		API:         handlers.New(api, blobs, bundle, logger),
		Health:      handlers.NewHealthHandler(api),
		Session:     sessionAuth,
		Validator:   validator,
		DefaultLang: cfg.DefaultLang,
	})
	srv := server.New(cfg, logger, router)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("DocHub Portal остановлен")
}
