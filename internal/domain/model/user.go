// Пакет model — доменные модели портала DocHub.
// JSON-теги совпадают с полями API backend (uid, did, oid, rid).
package model

import "strings"

// UnknownName — отображаемое имя удалённого или неизвестного пользователя.
const UnknownName = "Unknown"

// User — пользователь портала.
type User struct {
	// ID — идентификатор пользователя (uid)
	ID string `json:"uid"`
	// Name — отображаемое имя
	Name string `json:"name"`
	// Email — адрес электронной почты
	Email string `json:"email"`
	// CreatedAt — время регистрации
	CreatedAt Timestamp `json:"created_at"`
	// Roles — имена ролей (MANAGER, CREATOR, APPROVER, READER)
	Roles []string `json:"roles"`
}

// NormalizeRoles приводит имена ролей к верхнему регистру и убирает дубликаты.
// Порядок первых вхождений сохраняется.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	result := make([]string, 0, len(roles))
	for _, r := range roles {
		name := strings.ToUpper(strings.TrimSpace(r))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// HasRole проверяет наличие роли (без учёта регистра).
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// UserCreate — тело запроса создания пользователя (POST /admin/users, POST /auth/register).
type UserCreate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: поле запроса, не секрет в коде
}
