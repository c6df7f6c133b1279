// Пакет session — хранилище сессии портала: токен доступа и текущий пользователь.
//
// Инвариант: пользователь != nil тогда и только тогда, когда токен присутствует
// и был подтверждён backend (GET /auth/me). Токен сохраняется в Storage только
// после успешного получения пользователя.
//
// Изменения сессии рассылаются подписчикам (Subscribe) вне блокировки.
// Успешный вход и выход сами выполняют переход через Navigator.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/navigation"
	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

// Authenticator — backend аутентификации.
// Реализуется apiclient.Client и CachingAuthenticator.
type Authenticator interface {
	// Login обменивает учётные данные на токен. Неверные данные — apperr.ErrAuth.
	Login(ctx context.Context, email, password string) (string, error)
	// CurrentUser возвращает пользователя, которому принадлежит токен.
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// Navigator выполняет переход после входа и выхода.
type Navigator interface {
	Navigate(route navigation.Route)
}

// NavigatorFunc — адаптер функции к Navigator.
type NavigatorFunc func(route navigation.Route)

// Navigate вызывает f(route).
func (f NavigatorFunc) Navigate(route navigation.Route) {
	f(route)
}

// forgetter — Authenticator, кэширующий пользователей по токену.
type forgetter interface {
	Forget(token string)
}

// State — снимок сессии для подписчиков и обработчиков.
type State struct {
	// User — текущий пользователь (nil — анонимная сессия)
	User *model.User
	// Capabilities — возможности, вычисленные по ролям пользователя
	Capabilities rbac.Capabilities
	// Actor — вариант «кто смотрит»
	Actor rbac.Actor
}

// Authenticated сообщает, есть ли подтверждённый пользователь.
func (s State) Authenticated() bool {
	return s.User != nil
}

// Option — функциональная опция Store.
type Option func(*Store)

// WithVerifier включает проверку подписи токена перед обращением к backend.
func WithVerifier(v TokenVerifier) Option {
	return func(s *Store) { s.verifier = v }
}

// WithNavigator задаёт получателя переходов после входа и выхода.
func WithNavigator(n Navigator) Option {
	return func(s *Store) { s.navigator = n }
}

// WithLeeway задаёт допустимое отклонение часов при проверке exp.
func WithLeeway(d time.Duration) Option {
	return func(s *Store) { s.leeway = d }
}

// WithClock подменяет источник времени (тесты).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store — сессия одного клиента.
// Потокобезопасен через sync.RWMutex.
type Store struct {
	auth      Authenticator
	storage   Storage
	verifier  TokenVerifier
	navigator Navigator
	leeway    time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu    sync.RWMutex
	token string
	user  *model.User
	caps  rbac.Capabilities

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// New создаёт пустую (анонимную) сессию. Для восстановления сохранённого
// токена вызывается Initialize.
func New(auth Authenticator, storage Storage, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		auth:    auth,
		storage: storage,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "session")),
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize восстанавливает сессию из Storage.
// Сохранённый токен проверяется локально (exp, подпись при наличии верификатора),
// затем через backend. Любая ошибка очищает токен и оставляет сессию анонимной.
// Ошибки не возвращаются вызывающему: анонимная сессия — корректный результат.
func (s *Store) Initialize(ctx context.Context) {
	token, err := s.storage.Get(TokenKey)
	if err != nil {
		s.logger.Warn("Не удалось прочитать сохранённый токен",
			slog.String("error", err.Error()),
		)
		s.discardStored()
		return
	}
	if token == "" {
		return
	}

	if err := CheckExpiry(token, s.now(), s.leeway); err != nil {
		s.logger.Debug("Сохранённый токен отклонён локально",
			slog.String("error", err.Error()),
		)
		s.discardStored()
		return
	}

	if s.verifier != nil {
		if err := s.verifier.Verify(ctx, token); err != nil {
			s.logger.Debug("Подпись сохранённого токена не подтверждена",
				slog.String("error", err.Error()),
			)
			s.discardStored()
			return
		}
	}

	user, err := s.auth.CurrentUser(ctx, token)
	if err != nil {
		level := slog.LevelDebug
		if !errors.Is(err, apperr.ErrAuth) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "Сохранённый токен не подтверждён backend",
			slog.String("error", err.Error()),
		)
		s.discardStored()
		return
	}

	s.set(token, user)
	s.notify()
}

// Login выполняет вход: получает токен, затем пользователя.
// Токен сохраняется только после успешного получения пользователя.
// После входа подписчики уведомляются и выполняется переход на домашний маршрут.
// Неверные учётные данные — apperr.ErrAuth.
func (s *Store) Login(ctx context.Context, email, password string) (*model.User, error) {
	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.auth.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.storage.Set(TokenKey, token); err != nil {
		return nil, fmt.Errorf("сохранение токена: %w", err)
	}

	caps := s.set(token, user)
	s.logger.Info("Пользователь вошёл",
		slog.String("user_id", user.ID),
		slog.String("actor", caps.Actor().String()),
	)

	s.notify()
	s.navigate(navigation.ResolveHome(caps))
	return user, nil
}

// Logout очищает токен и пользователя. Backend не вызывается.
func (s *Store) Logout() {
	s.clear()
	s.notify()
	s.navigate(navigation.RouteLogin)
}

// Invalidate очищает сессию, если err — ошибка уровня токена (apperr.ErrAuth).
// Возвращает true, если сессия была очищена.
func (s *Store) Invalidate(err error) bool {
	if !errors.Is(err, apperr.ErrAuth) {
		return false
	}
	s.logger.Debug("Сессия сброшена после ошибки аутентификации",
		slog.String("error", err.Error()),
	)
	s.Logout()
	return true
}

// Subscribe регистрирует наблюдателя изменений сессии.
// Возвращает функцию отписки.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// State возвращает снимок сессии.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: s.user, Capabilities: s.caps, Actor: s.caps.Actor()}
}

// User возвращает текущего пользователя (nil — анонимная сессия).
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Capabilities возвращает возможности текущего пользователя.
func (s *Store) Capabilities() rbac.Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

// Token возвращает токен доступа ("" — нет сессии).
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// TokenProvider возвращает функцию для авторизации запросов API-клиента.
// Без сессии функция возвращает apperr.ErrAuth.
func (s *Store) TokenProvider() func(ctx context.Context) (string, error) {
	return func(context.Context) (string, error) {
		token := s.Token()
		if token == "" {
			return "", apperr.Auth("Требуется вход в систему")
		}
		return token, nil
	}
}

// --- внутренние методы ---

// set устанавливает токен и пользователя, пересчитывая возможности.
func (s *Store) set(token string, user *model.User) rbac.Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.caps = rbac.Resolve(user.Roles)
	return s.caps
}

// clear сбрасывает сессию и удаляет токен из Storage.
func (s *Store) clear() {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.user = nil
	s.caps = rbac.Capabilities{}
	s.mu.Unlock()

	if f, ok := s.auth.(forgetter); ok && token != "" {
		f.Forget(token)
	}
	s.discardStored()
}

// discardStored удаляет токен из Storage, логируя ошибку.
func (s *Store) discardStored() {
	if err := s.storage.Delete(TokenKey); err != nil {
		s.logger.Warn("Не удалось удалить сохранённый токен",
			slog.String("error", err.Error()),
		)
	}
}

// notify рассылает снимок подписчикам вне блокировок.
func (s *Store) notify() {
	state := s.State()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// navigate передаёт маршрут Navigator, если он задан.
func (s *Store) navigate(route navigation.Route) {
	if s.navigator != nil {
		s.navigator.Navigate(route)
	}
}
