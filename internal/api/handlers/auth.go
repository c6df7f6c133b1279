// auth.go — вход, регистрация, выход и состояние сессии.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/bigkaa/dochub-portal/internal/api/middleware"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
	"github.com/bigkaa/dochub-portal/internal/domain/navigation"
	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
	"github.com/bigkaa/dochub-portal/internal/service"
	"github.com/bigkaa/dochub-portal/internal/ui/i18n"
)

// loginRequest — тело POST /auth/login.
// openapi_types.Email проверяет формат адреса при разборе JSON.
type loginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"` //nolint:gosec // G117: поле запроса
}

// userCreateRequest — тело POST /auth/register и POST /api/admin/users.
type userCreateRequest struct {
	Name     string              `json:"name"`
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"` //nolint:gosec // G117: поле запроса
}

// sessionResponse — состояние сессии.
type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *model.User       `json:"user"`
	Capabilities  rbac.Capabilities `json:"capabilities"`
	Actor         rbac.Actor        `json:"actor"`
	Home          navigation.Route  `json:"home"`
	Menu          []menuItem        `json:"menu"`
	Lang          string            `json:"lang"`
}

// menuItem — пункт меню с переведённой подписью.
type menuItem struct {
	Label string           `json:"label"`
	Route navigation.Route `json:"route"`
}

// loginResponse — ответ на успешный вход.
type loginResponse struct {
	User         *model.User       `json:"user"`
	Capabilities rbac.Capabilities `json:"capabilities"`
	Actor        rbac.Actor        `json:"actor"`
	Redirect     navigation.Route  `json:"redirect"`
}

// Login обрабатывает POST /auth/login.
// Успешный вход сохраняет токен в cookie и возвращает домашний маршрут.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, emailError(err))
		return
	}
	if req.Password == "" {
		h.fail(w, r, apperr.Validation("password", "пароль обязателен"))
		return
	}

	store := h.store(r)
	user, err := store.Login(r.Context(), strings.TrimSpace(string(req.Email)), req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	state := store.State()
	redirect := middleware.RedirectFromContext(r.Context())
	if redirect == "" {
		redirect = navigation.ResolveHome(state.Capabilities)
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:         user,
		Capabilities: state.Capabilities,
		Actor:        state.Actor,
		Redirect:     redirect,
	})
}

// Register обрабатывает POST /auth/register.
// Регистрация не выполняет вход: клиент переходит на страницу входа.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, emailError(err))
		return
	}

	in, err := service.ValidateUserCreate(req.Name, string(req.Email), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.api.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("Пользователь зарегистрирован", slog.String("user_id", user.ID))
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":     user,
		"redirect": navigation.RouteLogin,
	})
}

// emailError уточняет поле ошибки разбора, если отклонён адрес.
func emailError(err error) error {
	if errors.Is(err, openapi_types.ErrValidationEmail) {
		return apperr.Validation("email", "некорректный адрес электронной почты")
	}
	return err
}

// Logout обрабатывает POST /auth/logout.
// Backend не вызывается: токен удаляется из cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store(r).Logout()

	redirect := middleware.RedirectFromContext(r.Context())
	if redirect == "" {
		redirect = navigation.RouteLogin
	}
	writeJSON(w, http.StatusOK, map[string]any{"redirect": redirect})
}

// Session обрабатывает GET /api/session.
// Анонимная сессия — корректный ответ 200 с authenticated=false.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionState(r))
}

// sessionState собирает состояние сессии с переведённым меню.
func (h *Handler) sessionState(r *http.Request) sessionResponse {
	state := h.store(r).State()
	loc := h.bundle.Localizer(r.Context())

	items := navigation.ResolveMenu(state.Capabilities)
	menu := make([]menuItem, 0, len(items))
	for _, item := range items {
		menu = append(menu, menuItem{Label: loc.T(item.LabelKey), Route: item.Route})
	}

	home := navigation.RouteLogin
	if state.Authenticated() {
		home = navigation.ResolveHome(state.Capabilities)
	}

	return sessionResponse{
		Authenticated: state.Authenticated(),
		User:          state.User,
		Capabilities:  state.Capabilities,
		Actor:         state.Actor,
		Home:          home,
		Menu:          menu,
		Lang:          loc.Lang(),
	}
}

// GuardRoute обрабатывает GET /api/navigation/guard?route=.
// Без сессии любой маршрут ведёт на страницу входа.
func (h *Handler) GuardRoute(w http.ResponseWriter, r *http.Request) {
	requested := navigation.Route(r.URL.Query().Get("route"))
	if requested == "" {
		h.fail(w, r, apperr.Validation("route", "маршрут обязателен"))
		return
	}

	state := h.store(r).State()
	target := navigation.RouteLogin
	if state.Authenticated() {
		target = navigation.Guard(state.Capabilities, requested)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"route":   target,
		"allowed": target == requested,
	})
}

// SetLanguage обрабатывает POST /api/language?lang=.
// Запросы из HTML-формы перенаправляются обратно (Referer того же хоста).
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if lang == "" {
		lang = r.URL.Query().Get("lang")
	}
	lang = i18n.SetLanguageCookie(w, lang)

	if !strings.Contains(r.Header.Get("Accept"), "application/json") {
		http.Redirect(w, r, localReferer(r), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lang": lang})
}

// localReferer возвращает путь из Referer, если он указывает на этот же хост.
// Иначе — "/".
func localReferer(r *http.Request) string {
	u, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	if u.Host != "" && u.Host != r.Host {
		return "/"
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "/"
	}
	target := u.EscapedPath()
	if strings.HasPrefix(target, "//") {
		return "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}
