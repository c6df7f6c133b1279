// Пакет server — HTTP-сервер портала DocHub с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/dochub-portal/internal/api/handlers"
	"github.com/bigkaa/dochub-portal/internal/api/middleware"
	"github.com/bigkaa/dochub-portal/internal/config"
	"github.com/bigkaa/dochub-portal/internal/ui/i18n"
)

// Routes — зависимости маршрутизатора.
type Routes struct {
	// API — обработчики портала
	API *handlers.Handler
	// Health — health endpoints и /metrics
	Health *handlers.HealthHandler
	// Session — восстановление сессии из cookie
	Session *middleware.SessionAuth
	// Validator — проверка запросов по OpenAPI (может быть nil)
	Validator *middleware.RequestValidator
	// DefaultLang — язык по умолчанию
	DefaultLang string
}

// NewRouter создаёт chi-маршрутизатор портала.
func NewRouter(logger *slog.Logger, rt Routes) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes напрямую, без сессии.
	router.Get("/health/live", rt.Health.HealthLive)
	router.Get("/health/ready", rt.Health.HealthReady)
	router.Get("/metrics", rt.Health.GetMetrics)

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware(rt.DefaultLang))
		r.Use(rt.Session.Middleware())
		if rt.Validator != nil {
			r.Use(rt.Validator.Middleware())
		}

		// Доступны без входа
		r.Get("/", rt.API.Home)
		r.Post("/auth/login", rt.API.Login)
		r.Post("/auth/register", rt.API.Register)
		r.Post("/auth/logout", rt.API.Logout)
		r.Get("/api/session", rt.API.Session)
		r.Get("/api/navigation/guard", rt.API.GuardRoute)
		r.Post("/api/language", rt.API.SetLanguage)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/api/dashboard", rt.API.Dashboard)

			r.Route("/api/documents", func(r chi.Router) {
				r.Get("/", rt.API.ListDocuments)
				r.Post("/", rt.API.CreateDocument)
				r.Get("/starred", rt.API.ListStarred)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.API.GetDocument)
					r.Put("/", rt.API.UpdateDocument)
					r.Delete("/", rt.API.DeleteDocument)
					r.Post("/star", rt.API.StarDocument)
					r.Delete("/star", rt.API.UnstarDocument)
					r.Get("/comments", rt.API.ListComments)
					r.Post("/comments", rt.API.PostComment)
					r.Post("/approve", rt.API.ApproveDocument)
					r.Post("/reject", rt.API.RejectDocument)
					r.Get("/file", rt.API.OpenDocumentFile)
				})
			})

			r.Get("/api/approvals/pending", rt.API.ListPending)

			r.Route("/api/admin", func(r chi.Router) {
				r.Get("/users", rt.API.ListUsers)
				r.Post("/users", rt.API.CreateUser)
				r.Delete("/users/{id}", rt.API.DeleteUser)
				r.Put("/users/{id}/roles", rt.API.AssignRoles)
				r.Get("/roles", rt.API.ListRoles)
				r.Post("/roles", rt.API.CreateRole)
				r.Get("/categories", rt.API.ListCategories)
				r.Post("/categories", rt.API.CreateCategory)
				r.Get("/stats", rt.API.SystemStats)
			})

			r.Get("/blobs/{id}", rt.API.ServeBlob)
			r.Delete("/blobs/{id}", rt.API.ReleaseBlob)
		})
	})

	return router
}

// Server — HTTP-сервер портала.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с готовым маршрутизатором.
func New(cfg *config.Config, logger *slog.Logger, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
