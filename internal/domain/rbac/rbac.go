// Пакет rbac — вычисление возможностей пользователя по набору ролей.
// Роли независимы: ни одна роль не подразумевает другую, итоговые возможности —
// объединение возможностей всех ролей пользователя.
// MANAGER не даёт права создавать документы: canCreate = CREATOR и только он.
package rbac

import (
	"fmt"
	"strings"
)

// Имена ролей, распознаваемые моделью возможностей.
const (
	RoleManager  = "MANAGER"
	RoleCreator  = "CREATOR"
	RoleApprover = "APPROVER"
	RoleReader   = "READER"
)

// Capabilities — производные флаги возможностей.
// Вычисляются заново при каждой смене пользователя или его ролей.
type Capabilities struct {
	IsManager  bool `json:"is_manager"`
	IsCreator  bool `json:"is_creator"`
	IsApprover bool `json:"is_approver"`
	IsReader   bool `json:"is_reader"`

	CanRead         bool `json:"can_read"`
	CanCreate       bool `json:"can_create"`
	CanApprove      bool `json:"can_approve"`
	CanManageSystem bool `json:"can_manage_system"`
	CanComment      bool `json:"can_comment"`
	CanStar         bool `json:"can_star"`
}

// Resolve вычисляет возможности по набору ролей.
// Имена ролей сравниваются без учёта регистра, неизвестные роли игнорируются.
func Resolve(roles []string) Capabilities {
	set := toSet(roles)

	c := Capabilities{
		IsManager:  set[RoleManager],
		IsCreator:  set[RoleCreator],
		IsApprover: set[RoleApprover],
		IsReader:   set[RoleReader],
	}

	participant := c.IsReader || c.IsCreator || c.IsApprover
	c.CanRead = participant
	c.CanCreate = c.IsCreator
	c.CanApprove = c.IsApprover
	c.CanManageSystem = c.IsManager
	c.CanComment = participant
	c.CanStar = participant

	return c
}

// Actor — закрытый вариант «кто смотрит»: роли не взаимоисключающие,
// поэтому представления выбираются по одному актору с фиксированным приоритетом.
type Actor int

const (
	// ActorAnonymous — нет ни одной известной роли (или нет сессии)
	ActorAnonymous Actor = iota
	// ActorManager — менеджер системы
	ActorManager
	// ActorCreator — автор документов
	ActorCreator
	// ActorApprover — согласующий без роли автора и менеджера
	ActorApprover
	// ActorReader — только чтение
	ActorReader
)

// Actor определяет актора. Приоритет: Manager → Creator → Approver → Reader → Anonymous.
func (c Capabilities) Actor() Actor {
	switch {
	case c.IsManager:
		return ActorManager
	case c.IsCreator:
		return ActorCreator
	case c.IsApprover:
		return ActorApprover
	case c.IsReader:
		return ActorReader
	default:
		return ActorAnonymous
	}
}

// String возвращает имя актора.
func (a Actor) String() string {
	switch a {
	case ActorAnonymous:
		return "anonymous"
	case ActorManager:
		return "manager"
	case ActorCreator:
		return "creator"
	case ActorApprover:
		return "approver"
	case ActorReader:
		return "reader"
	default:
		return fmt.Sprintf("actor(%d)", int(a))
	}
}

// MarshalText сериализует актора его именем.
func (a Actor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// IsKnownRole проверяет, распознаётся ли имя роли моделью возможностей.
func IsKnownRole(role string) bool {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RoleManager, RoleCreator, RoleApprover, RoleReader:
		return true
	default:
		return false
	}
}

// toSet конвертирует срез ролей в map (ключи в верхнем регистре).
func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[strings.ToUpper(strings.TrimSpace(item))] = true
	}
	return s
}
