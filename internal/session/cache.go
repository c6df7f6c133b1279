package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// Prometheus-метрики кэша пользователей.
var (
	userCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dh_session_cache_hits_total",
		Help: "Общее количество попаданий в кэш пользователей сессии.",
	})
	userCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dh_session_cache_misses_total",
		Help: "Общее количество промахов кэша пользователей сессии.",
	})
)

// CachingAuthenticator — LRU-кэш результатов CurrentUser с коротким TTL.
// Сессия портала восстанавливается на каждом HTTP-запросе; кэш избавляет
// от GET /auth/me на каждый запрос. Ключ — SHA-256 токена, сам токен
// в памяти кэша не хранится.
type CachingAuthenticator struct {
	next  Authenticator
	cache *expirable.LRU[string, *model.User]
}

// NewCachingAuthenticator создаёт кэширующую обёртку.
// maxSize — максимальное количество записей, ttl — время жизни записи.
func NewCachingAuthenticator(next Authenticator, maxSize int, ttl time.Duration) *CachingAuthenticator {
	return &CachingAuthenticator{
		next:  next,
		cache: expirable.NewLRU[string, *model.User](maxSize, nil, ttl),
	}
}

// Login передаётся backend без кэширования.
func (a *CachingAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	return a.next.Login(ctx, email, password)
}

// CurrentUser возвращает пользователя из кэша или запрашивает backend.
// Ошибки не кэшируются.
func (a *CachingAuthenticator) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	key := tokenKey(token)
	if user, ok := a.cache.Get(key); ok {
		userCacheHitsTotal.Inc()
		return user, nil
	}
	userCacheMissesTotal.Inc()

	user, err := a.next.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	a.cache.Add(key, user)
	return user, nil
}

// Forget удаляет запись токена (выход, отказ backend).
func (a *CachingAuthenticator) Forget(token string) {
	a.cache.Remove(tokenKey(token))
}

// Len возвращает количество записей в кэше.
func (a *CachingAuthenticator) Len() int {
	return a.cache.Len()
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
