// Пакет navigation — политика навигации: домашний маршрут и видимое меню
// по флагам возможностей.
//
// Роли не взаимоисключающие, поэтому домашний маршрут выбирается по правилам
// с фиксированным приоритетом (первое совпадение побеждает), а пункты меню
// фильтруются предикатами без изменения объявленного порядка.
package navigation

import (
	"strings"

	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

// Route — путь страницы портала.
type Route string

// Маршруты портала.
const (
	RouteLogin           Route = "/login"
	RouteDashboard       Route = "/dashboard"
	RouteWorkspace       Route = "/workspace"
	RouteDocuments       Route = "/documents"
	RouteStarred         Route = "/documents/starred"
	RouteNewDocument     Route = "/documents/new"
	RouteApprovals       Route = "/approvals"
	RouteAdminUsers      Route = "/admin/users"
	RouteAdminRoles      Route = "/admin/roles"
	RouteAdminCategories Route = "/admin/categories"
)

// MenuItem — пункт меню. LabelKey — ключ каталога переводов.
type MenuItem struct {
	LabelKey string `json:"label_key"`
	Route    Route  `json:"route"`
}

// predicate — условие по возможностям.
type predicate func(c rbac.Capabilities) bool

// homeRule — правило выбора домашнего маршрута.
type homeRule struct {
	match predicate
	route Route
}

// homeRules — правила в порядке приоритета.
var homeRules = []homeRule{
	{
		match: func(c rbac.Capabilities) bool { return c.IsManager },
		route: RouteDashboard,
	},
	{
		match: func(c rbac.Capabilities) bool { return c.IsCreator },
		route: RouteWorkspace,
	},
	{
		match: func(c rbac.Capabilities) bool {
			return c.IsReader && !c.IsCreator && !c.IsApprover && !c.IsManager
		},
		route: RouteDocuments,
	},
	{
		match: func(c rbac.Capabilities) bool {
			return c.IsApprover && !c.IsCreator && !c.IsManager
		},
		route: RouteApprovals,
	},
}

// menuEntry — пункт меню с условием показа.
type menuEntry struct {
	item MenuItem
	show predicate
}

// menu — все пункты в объявленном порядке.
var menu = []menuEntry{
	{MenuItem{"nav.dashboard", RouteDashboard}, func(c rbac.Capabilities) bool { return c.IsManager }},
	{MenuItem{"nav.workspace", RouteWorkspace}, func(c rbac.Capabilities) bool { return c.IsCreator }},
	{MenuItem{"nav.documents", RouteDocuments}, func(c rbac.Capabilities) bool { return !c.IsManager }},
	{MenuItem{"nav.starred", RouteStarred}, func(c rbac.Capabilities) bool { return !c.IsManager }},
	{MenuItem{"nav.approvals", RouteApprovals}, func(c rbac.Capabilities) bool { return c.IsApprover }},
	{MenuItem{"nav.admin_users", RouteAdminUsers}, func(c rbac.Capabilities) bool { return c.IsManager }},
	{MenuItem{"nav.admin_roles", RouteAdminRoles}, func(c rbac.Capabilities) bool { return c.IsManager }},
	{MenuItem{"nav.admin_categories", RouteAdminCategories}, func(c rbac.Capabilities) bool { return c.IsManager }},
}

// routeRequirements — возможности, без которых страница недоступна.
// Маршруты, которых нет в таблице, доступны любому вошедшему пользователю.
var routeRequirements = map[Route]predicate{
	RouteDashboard:   func(c rbac.Capabilities) bool { return c.IsManager },
	RouteWorkspace:   func(c rbac.Capabilities) bool { return c.IsCreator },
	RouteNewDocument: func(c rbac.Capabilities) bool { return c.CanCreate },
	RouteApprovals:   func(c rbac.Capabilities) bool { return c.CanApprove },
}

// ResolveHome возвращает домашний маршрут. Ровно один маршрут для любого
// набора возможностей; без ролей — список документов.
func ResolveHome(c rbac.Capabilities) Route {
	for _, rule := range homeRules {
		if rule.match(c) {
			return rule.route
		}
	}
	return RouteDocuments
}

// ResolveMenu возвращает видимые пункты меню в объявленном порядке.
func ResolveMenu(c rbac.Capabilities) []MenuItem {
	items := make([]MenuItem, 0, len(menu))
	for _, e := range menu {
		if e.show(c) {
			items = append(items, e.item)
		}
	}
	return items
}

// Allowed проверяет, может ли пользователь открыть маршрут.
// Все страницы /admin/ требуют canManageSystem.
func Allowed(c rbac.Capabilities, route Route) bool {
	if strings.HasPrefix(string(route), "/admin/") {
		return c.CanManageSystem
	}
	if req, ok := routeRequirements[route]; ok {
		return req(c)
	}
	return true
}

// Guard возвращает запрошенный маршрут, если он доступен,
// иначе — домашний маршрут пользователя.
func Guard(c rbac.Capabilities, route Route) Route {
	if Allowed(c, route) {
		return route
	}
	return ResolveHome(c)
}
