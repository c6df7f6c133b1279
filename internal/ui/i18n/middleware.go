// middleware.go — HTTP middleware определения языка пользователя.
package i18n

import (
	"net/http"
	"time"
)

// LangCookieName — имя cookie с выбранным языком.
const LangCookieName = "lang"

// Middleware определяет язык запроса и помещает его в контекст.
// Приоритет: cookie "lang" → Accept-Language → defaultLang.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	if !IsSupported(defaultLang) {
		defaultLang = DefaultLang
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := detectLanguage(r, defaultLang)
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}

// detectLanguage определяет язык из запроса.
func detectLanguage(r *http.Request, defaultLang string) string {
	if cookie, err := r.Cookie(LangCookieName); err == nil && IsSupported(cookie.Value) {
		return cookie.Value
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept, defaultLang)
	}
	return defaultLang
}

// SetLanguageCookie сохраняет выбранный язык на год.
// Неподдерживаемый язык заменяется DefaultLang.
func SetLanguageCookie(w http.ResponseWriter, lang string) string {
	if !IsSupported(lang) {
		lang = DefaultLang
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: false, // JS читает язык для UI-логики
		SameSite: http.SameSiteLaxMode,
	})
	return lang
}
