package service

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// UsersView — страница пользователей: пользователи и справочник ролей.
type UsersView struct {
	admin *AdminResources

	mu    sync.Mutex
	users []model.User
	roles []model.Role
}

// LoadUsersView параллельно загружает пользователей и роли.
func LoadUsersView(ctx context.Context, admin *AdminResources) (*UsersView, error) {
	v := &UsersView{admin: admin}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := admin.ListUsers(gctx)
		v.users = users
		return err
	})
	g.Go(func() error {
		roles, err := admin.ListRoles(gctx)
		v.roles = roles
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

// Users возвращает копию списка пользователей.
func (v *UsersView) Users() []model.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.users)
}

// Roles возвращает копию справочника ролей.
func (v *UsersView) Roles() []model.Role {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.roles)
}

// CreateUser создаёт пользователя и добавляет его в список.
func (v *UsersView) CreateUser(ctx context.Context, name, email, password string) (*model.User, error) {
	user, err := v.admin.CreateUser(ctx, name, email, password)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.users = mergeByID(v.users, *user, func(u model.User) string { return u.ID })
	return user, nil
}

// DeleteUser удаляет пользователя. Из списка он убирается только после
// успешного ответа backend.
func (v *UsersView) DeleteUser(ctx context.Context, id string, confirm bool) error {
	if err := v.admin.DeleteUser(ctx, id, confirm); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.users = slices.DeleteFunc(v.users, func(u model.User) bool { return u.ID == id })
	return nil
}

// AssignRoles заменяет роли пользователя и обновляет их имена в списке.
// Возвращает имена назначенных ролей.
func (v *UsersView) AssignRoles(ctx context.Context, userID string, roleIDs []string) ([]string, error) {
	ids, err := v.admin.AssignRoles(ctx, userID, roleIDs)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if i := slices.IndexFunc(v.roles, func(r model.Role) bool { return r.ID == id }); i >= 0 {
			names = append(names, v.roles[i].Name)
		}
	}
	names = model.NormalizeRoles(names)

	if i := slices.IndexFunc(v.users, func(u model.User) bool { return u.ID == userID }); i >= 0 {
		v.users[i].Roles = names
	}
	return names, nil
}

// CatalogView — страницы ролей и категорий.
type CatalogView struct {
	admin *AdminResources

	mu         sync.Mutex
	roles      []model.Role
	categories []model.Category
}

// LoadCatalogView параллельно загружает роли и категории.
func LoadCatalogView(ctx context.Context, admin *AdminResources) (*CatalogView, error) {
	v := &CatalogView{admin: admin}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roles, err := admin.ListRoles(gctx)
		v.roles = roles
		return err
	})
	g.Go(func() error {
		categories, err := admin.ListCategories(gctx)
		v.categories = categories
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

// Roles возвращает копию списка ролей.
func (v *CatalogView) Roles() []model.Role {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.roles)
}

// Categories возвращает копию списка категорий.
func (v *CatalogView) Categories() []model.Category {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.categories)
}

// CreateRole создаёт роль и добавляет её в список.
func (v *CatalogView) CreateRole(ctx context.Context, name string) (*model.Role, error) {
	role, err := v.admin.CreateRole(ctx, name)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.roles = mergeByID(v.roles, *role, func(r model.Role) string { return r.ID })
	return role, nil
}

// CreateCategory создаёт категорию и добавляет её в список.
func (v *CatalogView) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	category, err := v.admin.CreateCategory(ctx, name, description)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.categories = mergeByID(v.categories, *category, func(c model.Category) string { return c.ID })
	return category, nil
}

// mergeByID заменяет элемент с тем же ID или добавляет новый в конец.
func mergeByID[T any](items []T, item T, id func(T) string) []T {
	key := id(item)
	if i := slices.IndexFunc(items, func(x T) bool { return id(x) == key }); i >= 0 {
		items[i] = item
		return items
	}
	return append(items, item)
}
