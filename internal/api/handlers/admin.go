// admin.go — администрирование: пользователи, роли, категории, статистика.
// Все операции требуют canManageSystem (проверяет service.AdminResources).
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/dochub-portal/internal/service"
)

// ListUsers обрабатывает GET /api/admin/users.
// Пользователи и роли загружаются параллельно для формы назначения ролей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	view, err := service.LoadUsersView(r.Context(), h.admin(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": view.Users(),
		"roles": view.Roles(),
	})
}

// CreateUser обрабатывает POST /api/admin/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, emailError(err))
		return
	}

	user, err := h.admin(r).CreateUser(r.Context(), req.Name, string(req.Email), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// DeleteUser обрабатывает DELETE /api/admin/users/{id}?confirm=true.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	confirm, err := queryBool(r, "confirm")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.admin(r).DeleteUser(r.Context(), chi.URLParam(r, "id"), confirm); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignRoles обрабатывает PUT /api/admin/users/{id}/roles.
// Ответ содержит имена ролей пользователя после назначения.
func (h *Handler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoleIDs []string `json:"role_ids"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := service.LoadUsersView(r.Context(), h.admin(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userID := chi.URLParam(r, "id")
	roles, err := view.AssignRoles(r.Context(), userID, req.RoleIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"roles":   roles,
	})
}

// ListRoles обрабатывает GET /api/admin/roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.admin(r).ListRoles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// CreateRole обрабатывает POST /api/admin/roles.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	role, err := h.admin(r).CreateRole(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

// ListCategories обрабатывает GET /api/admin/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.admin(r).ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory обрабатывает POST /api/admin/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.admin(r).CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// SystemStats обрабатывает GET /api/admin/stats.
func (h *Handler) SystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin(r).SystemStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Dashboard обрабатывает GET /api/dashboard.
// Набор данных зависит от актора пользователя.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := service.LoadDashboard(r.Context(), h.workflow(r), h.admin(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
