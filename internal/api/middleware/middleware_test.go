package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/dochub-portal/internal/api/openapi"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/navigation"
	"github.com/bigkaa/dochub-portal/internal/session"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/blobs/6f1c2a", "/blobs/{id}"},
		{"/api/documents/42", "/api/documents/{id}"},
		{"/api/documents/42/comments", "/api/documents/{id}/comments"},
		{"/api/admin/users/u1/roles", "/api/admin/users/{id}/roles"},
		{"/api/documents/", "unmatched"},
		{"/wp-admin/setup.php", "unmatched"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMetricsMiddleware_RoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(MetricsMiddleware())

	var pattern string
	router.Get("/api/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router.With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			pattern = routePattern(r)
		})
	}).Get("/blobs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/d1", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("статус %d, middleware не должен менять ответ", rec.Code)
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/blobs/abc", nil))
	if pattern != "/blobs/{id}" {
		t.Errorf("шаблон маршрута = %q, ожидался /blobs/{id}", pattern)
	}
}

func TestRequestLogger_RequestID(t *testing.T) {
	var seen string
	handler := RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("генерируется", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(RequestIDHeader)
		if id == "" || id != seen {
			t.Errorf("X-Request-ID = %q, в контексте %q", id, seen)
		}
	})

	t.Run("передан клиентом", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Header().Get(RequestIDHeader) != "req-42" || seen != "req-42" {
			t.Errorf("идентификатор клиента должен сохраняться, получено %q", seen)
		}
	})

	if RequestIDFromContext(context.Background()) != "" {
		t.Error("вне RequestLogger идентификатор должен быть пустым")
	}
}

// --- SessionAuth ---

// stubAuth — Authenticator с одним пользователем.
type stubAuth struct {
	token string
	user  *model.User
}

func (s *stubAuth) Login(_ context.Context, _, password string) (string, error) {
	if password != "secret1" {
		return "", apperr.Auth("Incorrect email or password")
	}
	return s.token, nil
}

func (s *stubAuth) CurrentUser(_ context.Context, token string) (*model.User, error) {
	if token != s.token {
		return nil, apperr.Auth("Could not validate credentials")
	}
	return s.user, nil
}

func newStubAuth(t *testing.T) *stubAuth {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return &stubAuth{
		token: token,
		user:  &model.User{ID: "u1", Name: "Анна", Roles: []string{"CREATOR"}},
	}
}

func setupSessionAuth(t *testing.T) (*SessionAuth, *session.Cipher, *stubAuth) {
	t.Helper()
	cipher, err := session.NewCipher("test-session-secret")
	if err != nil {
		t.Fatalf("Ошибка NewCipher: %v", err)
	}
	auth := newStubAuth(t)
	sa := NewSessionAuth(auth, SessionConfig{
		Cipher: cipher,
		Cookie: session.CookieOptions{MaxAge: time.Hour},
		Leeway: time.Second,
	}, testLogger())
	return sa, cipher, auth
}

func TestSessionAuth_RequireUser(t *testing.T) {
	sa, cipher, auth := setupSessionAuth(t)

	var userID string
	handler := sa.Middleware()(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = SessionFromContext(r.Context()).User().ID
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("без cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("статус %d, ожидался 401", rec.Code)
		}
		var body map[string]map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body["error"]["code"] != "UNAUTHORIZED" {
			t.Errorf("неверное тело ошибки: %s", rec.Body.String())
		}
	})

	t.Run("валидный cookie", func(t *testing.T) {
		encrypted, err := cipher.Encrypt([]byte(auth.token))
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenKey, Value: encrypted})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || userID != "u1" {
			t.Errorf("статус %d, пользователь %q", rec.Code, userID)
		}
	})

	t.Run("повреждённый cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		req.AddCookie(&http.Cookie{Name: session.TokenKey, Value: "garbage"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("статус %d, ожидался 401", rec.Code)
		}
	})
}

func TestSessionAuth_LoginRedirect(t *testing.T) {
	sa, _, _ := setupSessionAuth(t)

	var before, after navigation.Route
	handler := sa.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		before = RedirectFromContext(r.Context())
		if _, err := SessionFromContext(r.Context()).Login(r.Context(), "a@b.c", "secret1"); err != nil {
			t.Errorf("Ошибка Login: %v", err)
		}
		after = RedirectFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

	if before != "" {
		t.Errorf("до входа перехода быть не должно, получено %q", before)
	}
	if after != navigation.RouteWorkspace {
		t.Errorf("после входа автора ожидался %s, получено %q", navigation.RouteWorkspace, after)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), session.TokenKey+"=") {
		t.Error("вход должен устанавливать cookie сессии")
	}
	if RedirectFromContext(context.Background()) != "" {
		t.Error("вне SessionAuth переход должен быть пустым")
	}
}

// --- RequestValidator ---

func TestRequestValidator(t *testing.T) {
	doc, err := openapi.Load()
	if err != nil {
		t.Fatalf("Ошибка openapi.Load: %v", err)
	}
	v, err := NewRequestValidator(doc, testLogger())
	if err != nil {
		t.Fatalf("Ошибка NewRequestValidator: %v", err)
	}

	reached := false
	handler := v.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		wantStatus  int
		wantField   string
	}{
		{"корректный список", http.MethodGet, "/api/documents?page=2&sort=title", "", "", http.StatusOK, ""},
		{"путь вне контракта", http.MethodGet, "/blobs/abc", "", "", http.StatusOK, ""},
		{"номер страницы 0", http.MethodGet, "/api/documents?page=0", "", "", http.StatusBadRequest, "page"},
		{"неизвестный язык", http.MethodPost, "/api/language?lang=de", "", "", http.StatusBadRequest, "lang"},
		{"пустой комментарий", http.MethodPost, "/api/documents/d1/comments", "application/json", `{"content":""}`, http.StatusBadRequest, "content"},
		{"роли не массив", http.MethodPut, "/api/admin/users/u1/roles", "application/json", `{"role_ids":"r1"}`, http.StatusBadRequest, "role_ids"},
		{"решение без тела", http.MethodPost, "/api/documents/d1/approve", "", "", http.StatusOK, ""},
		{"multipart не буферизуется", http.MethodPost, "/api/documents", "multipart/form-data; boundary=x", "--x--", http.StatusOK, ""},
		{"метод не поддерживается", http.MethodPatch, "/api/session", "", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("статус %d, ожидался %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if !reached {
					t.Error("корректный запрос должен доходить до обработчика")
				}
				return
			}
			if reached {
				t.Error("некорректный запрос не должен доходить до обработчика")
			}
			var body map[string]map[string]string
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"]["field"] != tt.wantField {
				t.Errorf("field = %q, ожидалось %q", body["error"]["field"], tt.wantField)
			}
		})
	}
}
