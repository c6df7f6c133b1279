// session.go — восстановление сессии портала из зашифрованного cookie.
// На каждый запрос создаётся session.Store поверх CookieStorage,
// Initialize проверяет токен (exp, подпись, GET /auth/me).
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	apierrors "github.com/bigkaa/dochub-portal/internal/api/errors"
	"github.com/bigkaa/dochub-portal/internal/domain/navigation"
	"github.com/bigkaa/dochub-portal/internal/session"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeySession   contextKey = "session"
	ctxKeyRedirect  contextKey = "redirect"
)

// SessionConfig — параметры SessionAuth.
type SessionConfig struct {
	// Cipher — шифрование cookie
	Cipher *session.Cipher
	// Cookie — атрибуты cookie сессии
	Cookie session.CookieOptions
	// Verifier — проверка подписи токена (может быть nil)
	Verifier session.TokenVerifier
	// Leeway — допустимое отклонение часов при проверке exp
	Leeway time.Duration
}

// SessionAuth — middleware сессии портала.
type SessionAuth struct {
	auth   session.Authenticator
	cfg    SessionConfig
	logger *slog.Logger
}

// NewSessionAuth создаёт middleware сессии.
// auth — backend аутентификации (обычно CachingAuthenticator над apiclient.Client).
func NewSessionAuth(auth session.Authenticator, cfg SessionConfig, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		auth:   auth,
		cfg:    cfg,
		logger: logger,
	}
}

// Middleware восстанавливает сессию и кладёт её в контекст запроса.
// Отсутствие или невалидность токена не прерывает запрос: сессия анонимна.
func (sa *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storage := session.NewCookieStorage(w, r, sa.cfg.Cipher, sa.cfg.Cookie)
			redirect := &pendingRedirect{}

			opts := []session.Option{
				session.WithNavigator(redirect),
				session.WithLeeway(sa.cfg.Leeway),
			}
			if sa.cfg.Verifier != nil {
				opts = append(opts, session.WithVerifier(sa.cfg.Verifier))
			}

			store := session.New(sa.auth, storage, sa.logger, opts...)
			store.Initialize(r.Context())

			ctx := context.WithValue(r.Context(), ctxKeySession, store)
			ctx = context.WithValue(ctx, ctxKeyRedirect, redirect)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser пропускает только запросы с подтверждённым пользователем.
// Иначе — 401 UNAUTHORIZED.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := SessionFromContext(r.Context())
		if store == nil || store.User() == nil {
			apierrors.Unauthorized(w, "Требуется вход в систему")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext возвращает сессию запроса (nil — вне SessionAuth).
func SessionFromContext(ctx context.Context) *session.Store {
	store, _ := ctx.Value(ctxKeySession).(*session.Store)
	return store
}

// RedirectFromContext возвращает маршрут, на который сессия выполнила переход
// в этом запросе (вход, выход, сброс). Пустая строка — перехода не было.
func RedirectFromContext(ctx context.Context) navigation.Route {
	redirect, _ := ctx.Value(ctxKeyRedirect).(*pendingRedirect)
	if redirect == nil {
		return ""
	}
	return redirect.get()
}

// pendingRedirect — session.Navigator, запоминающий последний маршрут.
type pendingRedirect struct {
	mu    sync.Mutex
	route navigation.Route
}

// Navigate запоминает маршрут.
func (p *pendingRedirect) Navigate(route navigation.Route) {
	p.mu.Lock()
	p.route = route
	p.mu.Unlock()
}

func (p *pendingRedirect) get() navigation.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.route
}
