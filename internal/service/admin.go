// admin.go — администрирование: пользователи, роли, категории, статистика.
// Все операции доступны только при canManageSystem.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/dochub-portal/internal/apiclient"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// Ограничения пароля. bcrypt на стороне backend учитывает только первые 72 байта.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// AdminBackend — административные операции backend.
// Реализуется apiclient.Client.
type AdminBackend interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, in model.UserCreate) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	AssignRoles(ctx context.Context, userID string, roleIDs []string) error
	ListRoles(ctx context.Context) ([]model.Role, error)
	CreateRole(ctx context.Context, in model.RoleCreate) (*model.Role, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, in model.CategoryCreate) (*model.Category, error)
	SystemStats(ctx context.Context) (*model.SystemStats, error)
}

var _ AdminBackend = (*apiclient.Client)(nil)

// AdminResources — административные операции от имени Viewer.
type AdminResources struct {
	backend AdminBackend
	viewer  Viewer
	logger  *slog.Logger
}

// NewAdminResources создаёт сервис администрирования.
func NewAdminResources(backend AdminBackend, viewer Viewer, logger *slog.Logger) *AdminResources {
	return &AdminResources{
		backend: backend,
		viewer:  viewer,
		logger:  logger.With(slog.String("component", "admin_resources")),
	}
}

// authorize проверяет canManageSystem до любого обращения к backend.
func (a *AdminResources) authorize() error {
	if !a.viewer.Caps.CanManageSystem {
		return apperr.Forbidden("Администрирование доступно только роли MANAGER")
	}
	return nil
}

// ListUsers возвращает всех пользователей.
func (a *AdminResources) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	users, err := a.backend.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	return users, nil
}

// CreateUser создаёт пользователя. Поля проверяются до обращения к backend,
// сообщения backend (например, занятый email) передаются дословно.
func (a *AdminResources) CreateUser(ctx context.Context, name, email, password string) (*model.User, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	in, err := ValidateUserCreate(name, email, password)
	if err != nil {
		return nil, err
	}

	user, err := a.backend.CreateUser(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}
	a.logger.Info("Пользователь создан",
		slog.String("user_id", user.ID),
		slog.String("by", a.viewer.UserID),
	)
	return user, nil
}

// DeleteUser удаляет пользователя. Требует подтверждения.
func (a *AdminResources) DeleteUser(ctx context.Context, id string, confirm bool) error {
	if err := a.authorize(); err != nil {
		return err
	}
	if !confirm {
		return apperr.ConfirmationRequired("delete_user")
	}
	id, err := requireID("id", id)
	if err != nil {
		return err
	}
	if id == a.viewer.UserID {
		return apperr.Validation("id", "Нельзя удалить собственную учётную запись")
	}

	if err := a.backend.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("удаление пользователя %s: %w", id, err)
	}
	a.logger.Info("Пользователь удалён",
		slog.String("user_id", id),
		slog.String("by", a.viewer.UserID),
	)
	return nil
}

// AssignRoles заменяет набор ролей пользователя. Повторяющиеся ID схлопываются.
// Возвращает фактически отправленный набор.
func (a *AdminResources) AssignRoles(ctx context.Context, userID string, roleIDs []string) ([]string, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	userID, err := requireID("user_id", userID)
	if err != nil {
		return nil, err
	}
	ids := normalizeList(roleIDs)

	if err := a.backend.AssignRoles(ctx, userID, ids); err != nil {
		return nil, fmt.Errorf("назначение ролей пользователю %s: %w", userID, err)
	}
	a.logger.Info("Роли пользователя изменены",
		slog.String("user_id", userID),
		slog.Any("role_ids", ids),
		slog.String("by", a.viewer.UserID),
	)
	return ids, nil
}

// ListRoles возвращает все роли.
func (a *AdminResources) ListRoles(ctx context.Context) ([]model.Role, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	roles, err := a.backend.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение ролей: %w", err)
	}
	return roles, nil
}

// CreateRole создаёт роль. Имя передаётся как введено, без пробелов по краям.
func (a *AdminResources) CreateRole(ctx context.Context, name string) (*model.Role, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", "Укажите имя роли")
	}

	role, err := a.backend.CreateRole(ctx, model.RoleCreate{Name: name})
	if err != nil {
		return nil, fmt.Errorf("создание роли: %w", err)
	}
	return role, nil
}

// ListCategories возвращает все категории.
func (a *AdminResources) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	categories, err := a.backend.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение категорий: %w", err)
	}
	return categories, nil
}

// CreateCategory создаёт категорию. Пустое описание не передаётся.
func (a *AdminResources) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", "Укажите имя категории")
	}
	in := model.CategoryCreate{Name: name}
	if d := strings.TrimSpace(description); d != "" {
		in.Description = &d
	}

	category, err := a.backend.CreateCategory(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("создание категории: %w", err)
	}
	return category, nil
}

// SystemStats возвращает сводную статистику.
func (a *AdminResources) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	stats, err := a.backend.SystemStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение статистики: %w", err)
	}
	return stats, nil
}

// ValidateUserCreate проверяет обязательные поля нового пользователя.
// Формат email проверяет backend, его сообщение возвращается без изменений.
// Используется при создании администратором и при регистрации.
func ValidateUserCreate(name, email, password string) (model.UserCreate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.UserCreate{}, apperr.Validation("name", "Укажите имя")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return model.UserCreate{}, apperr.Validation("email", "Укажите email")
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return model.UserCreate{}, apperr.Validation("password",
			fmt.Sprintf("Пароль должен содержать не менее %d символов", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return model.UserCreate{}, apperr.Validation("password",
			fmt.Sprintf("Пароль не должен превышать %d байт", MaxPasswordBytes))
	}

	return model.UserCreate{Name: name, Email: email, Password: password}, nil
}
