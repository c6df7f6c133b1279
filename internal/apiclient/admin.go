package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// --- Users API ---

// ListUsers возвращает всех пользователей.
// GET /admin/users
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users", "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Roles = model.NormalizeRoles(users[i].Roles)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// CreateUser создаёт пользователя.
// POST /admin/users
func (c *Client) CreateUser(ctx context.Context, in model.UserCreate) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPost, "/admin/users", "/admin/users", in, &user); err != nil {
		return nil, err
	}
	user.Roles = model.NormalizeRoles(user.Roles)
	return &user, nil
}

// DeleteUser удаляет пользователя.
// DELETE /admin/users/{id}
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	resp, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "/admin/users/{id}",
		path:     "/admin/users/" + url.PathEscape(id),
	})
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

// AssignRoles заменяет набор ролей пользователя.
// POST /admin/users/{id}/roles — тело: JSON-массив идентификаторов ролей.
func (c *Client) AssignRoles(ctx context.Context, userID string, roleIDs []string) error {
	if roleIDs == nil {
		roleIDs = []string{}
	}
	path := "/admin/users/" + url.PathEscape(userID) + "/roles"
	return c.doJSON(ctx, http.MethodPost, "/admin/users/{id}/roles", path, roleIDs, nil)
}

// --- Roles API ---

// ListRoles возвращает все роли.
// GET /admin/roles
func (c *Client) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := c.doJSON(ctx, http.MethodGet, "/admin/roles", "/admin/roles", nil, &roles); err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []model.Role{}
	}
	return roles, nil
}

// CreateRole создаёт роль.
// POST /admin/roles
func (c *Client) CreateRole(ctx context.Context, in model.RoleCreate) (*model.Role, error) {
	var role model.Role
	if err := c.doJSON(ctx, http.MethodPost, "/admin/roles", "/admin/roles", in, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// --- Categories API ---

// ListCategories возвращает все категории.
// GET /admin/categories
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.doJSON(ctx, http.MethodGet, "/admin/categories", "/admin/categories", nil, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// CreateCategory создаёт категорию.
// POST /admin/categories
func (c *Client) CreateCategory(ctx context.Context, in model.CategoryCreate) (*model.Category, error) {
	var category model.Category
	if err := c.doJSON(ctx, http.MethodPost, "/admin/categories", "/admin/categories", in, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// --- Stats API ---

// SystemStats возвращает сводную статистику системы.
// GET /stats/system
func (c *Client) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	var stats model.SystemStats
	if err := c.doJSON(ctx, http.MethodGet, "/stats/system", "/stats/system", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
