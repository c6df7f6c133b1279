package navigation

import (
	"reflect"
	"testing"

	"github.com/bigkaa/dochub-portal/internal/domain/rbac"
)

func TestResolveHome(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  Route
	}{
		{"MANAGER", []string{rbac.RoleManager}, RouteDashboard},
		{"MANAGER + READER — правило 1 важнее правила 3", []string{rbac.RoleManager, rbac.RoleReader}, RouteDashboard},
		{"CREATOR", []string{rbac.RoleCreator}, RouteWorkspace},
		{"CREATOR + APPROVER", []string{rbac.RoleCreator, rbac.RoleApprover}, RouteWorkspace},
		{"только READER", []string{rbac.RoleReader}, RouteDocuments},
		{"только APPROVER", []string{rbac.RoleApprover}, RouteApprovals},
		{"APPROVER + READER", []string{rbac.RoleApprover, rbac.RoleReader}, RouteApprovals},
		{"без ролей — список документов", nil, RouteDocuments},
		{"неизвестная роль — список документов", []string{"GUEST"}, RouteDocuments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveHome(rbac.Resolve(tt.roles))
			if got != tt.want {
				t.Errorf("ResolveHome(%v) = %s, хотели %s", tt.roles, got, tt.want)
			}
		})
	}
}

// TestResolveHome_MatchesActor проверяет, что приоритет правил совпадает
// с вариантом Actor для всех подмножеств ролей.
func TestResolveHome_MatchesActor(t *testing.T) {
	all := []string{rbac.RoleManager, rbac.RoleCreator, rbac.RoleApprover, rbac.RoleReader}
	byActor := map[rbac.Actor]Route{
		rbac.ActorManager:   RouteDashboard,
		rbac.ActorCreator:   RouteWorkspace,
		rbac.ActorApprover:  RouteApprovals,
		rbac.ActorReader:    RouteDocuments,
		rbac.ActorAnonymous: RouteDocuments,
	}

	for mask := 0; mask < 1<<len(all); mask++ {
		var roles []string
		for i, r := range all {
			if mask&(1<<i) != 0 {
				roles = append(roles, r)
			}
		}
		caps := rbac.Resolve(roles)
		if got, want := ResolveHome(caps), byActor[caps.Actor()]; got != want {
			t.Errorf("роли %v: ResolveHome = %s, по актору %s", roles, got, want)
		}
	}
}

func TestResolveMenu(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  []Route
	}{
		{
			name:  "без ролей — документы и закладки",
			roles: nil,
			want:  []Route{RouteDocuments, RouteStarred},
		},
		{
			name:  "READER",
			roles: []string{rbac.RoleReader},
			want:  []Route{RouteDocuments, RouteStarred},
		},
		{
			name:  "CREATOR + APPROVER — порядок объявления сохраняется",
			roles: []string{rbac.RoleApprover, rbac.RoleCreator},
			want:  []Route{RouteWorkspace, RouteDocuments, RouteStarred, RouteApprovals},
		},
		{
			name:  "MANAGER — панель и администрирование",
			roles: []string{rbac.RoleManager},
			want:  []Route{RouteDashboard, RouteAdminUsers, RouteAdminRoles, RouteAdminCategories},
		},
		{
			name:  "MANAGER + APPROVER",
			roles: []string{rbac.RoleManager, rbac.RoleApprover},
			want:  []Route{RouteDashboard, RouteApprovals, RouteAdminUsers, RouteAdminRoles, RouteAdminCategories},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := ResolveMenu(rbac.Resolve(tt.roles))
			got := make([]Route, len(items))
			for i, item := range items {
				got[i] = item.Route
				if item.LabelKey == "" {
					t.Errorf("пункт %s без ключа подписи", item.Route)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveMenu(%v) = %v, хотели %v", tt.roles, got, tt.want)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	reader := rbac.Resolve([]string{rbac.RoleReader})
	manager := rbac.Resolve([]string{rbac.RoleManager})
	creator := rbac.Resolve([]string{rbac.RoleCreator})

	tests := []struct {
		name  string
		caps  rbac.Capabilities
		route Route
		want  Route
	}{
		{"читатель не попадает в администрирование", reader, RouteAdminUsers, RouteDocuments},
		{"читатель не создаёт документы", reader, RouteNewDocument, RouteDocuments},
		{"менеджер не создаёт документы", manager, RouteNewDocument, RouteDashboard},
		{"менеджер в администрировании", manager, RouteAdminCategories, RouteAdminCategories},
		{"автор создаёт документы", creator, RouteNewDocument, RouteNewDocument},
		{"карточка документа доступна всем", reader, Route("/documents/abc"), Route("/documents/abc")},
		{"очередь согласования только согласующим", creator, RouteApprovals, RouteWorkspace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Guard(tt.caps, tt.route); got != tt.want {
				t.Errorf("Guard(%s) = %s, хотели %s", tt.route, got, tt.want)
			}
		})
	}
}
