package session

import (
	"net/http"
	"sync"
	"time"
)

// TokenKey — ключ, под которым хранится токен доступа.
const TokenKey = "access_token"

// Storage — персистентное key-value хранилище сессии.
// Get для отсутствующего ключа возвращает "" и nil.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// --- CookieStorage ---

// CookieOptions — параметры cookie сессии.
type CookieOptions struct {
	// MaxAge — время жизни cookie
	MaxAge time.Duration
	// Secure — флаг Secure (true для HTTPS)
	Secure bool
}

// CookieStorage — хранилище одного HTTP-запроса: каждый ключ — отдельный
// зашифрованный HttpOnly cookie с тем же именем.
// Записи видны последующим Get в рамках того же запроса.
type CookieStorage struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	r       *http.Request
	cipher  *Cipher
	opts    CookieOptions
	pending map[string]*string // nil — ключ удалён в этом запросе
}

// NewCookieStorage создаёт хранилище поверх запроса и ответа.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, c *Cipher, opts CookieOptions) *CookieStorage {
	return &CookieStorage{
		w:       w,
		r:       r,
		cipher:  c,
		opts:    opts,
		pending: make(map[string]*string),
	}
}

// Get возвращает значение ключа. Cookie, который не удаётся расшифровать,
// считается отсутствующим (например, после смены секрета).
func (s *CookieStorage) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.pending[key]; ok {
		if v == nil {
			return "", nil
		}
		return *v, nil
	}

	cookie, err := s.r.Cookie(key)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	plaintext, err := s.cipher.Decrypt(cookie.Value)
	if err != nil {
		return "", nil
	}
	return string(plaintext), nil
}

// Set записывает зашифрованный cookie.
func (s *CookieStorage) Set(key, value string) error {
	encrypted, err := s.cipher.Encrypt([]byte(value))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   int(s.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.pending[key] = &value
	return nil
}

// Delete удаляет cookie (MaxAge=-1).
func (s *CookieStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.pending[key] = nil
	return nil
}
