package rbac

import (
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  Capabilities
	}{
		{
			name:  "без ролей — никаких возможностей",
			roles: nil,
			want:  Capabilities{},
		},
		{
			name:  "только MANAGER — управление, но не создание",
			roles: []string{RoleManager},
			want:  Capabilities{IsManager: true, CanManageSystem: true},
		},
		{
			name:  "только READER",
			roles: []string{RoleReader},
			want:  Capabilities{IsReader: true, CanRead: true, CanComment: true, CanStar: true},
		},
		{
			name:  "только CREATOR",
			roles: []string{RoleCreator},
			want: Capabilities{
				IsCreator: true, CanRead: true, CanCreate: true, CanComment: true, CanStar: true,
			},
		},
		{
			name:  "только APPROVER",
			roles: []string{RoleApprover},
			want: Capabilities{
				IsApprover: true, CanRead: true, CanApprove: true, CanComment: true, CanStar: true,
			},
		},
		{
			name:  "MANAGER + CREATOR — объединение",
			roles: []string{RoleManager, RoleCreator},
			want: Capabilities{
				IsManager: true, IsCreator: true, CanManageSystem: true,
				CanRead: true, CanCreate: true, CanComment: true, CanStar: true,
			},
		},
		{
			name:  "регистр не важен, неизвестные роли игнорируются",
			roles: []string{"reader", "ADMIN"},
			want:  Capabilities{IsReader: true, CanRead: true, CanComment: true, CanStar: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.roles)
			if got != tt.want {
				t.Errorf("Resolve(%v) = %+v, хотели %+v", tt.roles, got, tt.want)
			}
		})
	}
}

// TestResolve_CanCreateOnlyCreator перебирает все подмножества ролей:
// canCreate истинно тогда и только тогда, когда в наборе есть CREATOR.
func TestResolve_CanCreateOnlyCreator(t *testing.T) {
	all := []string{RoleManager, RoleCreator, RoleApprover, RoleReader}

	for mask := 0; mask < 1<<len(all); mask++ {
		var roles []string
		hasCreator := false
		for i, r := range all {
			if mask&(1<<i) != 0 {
				roles = append(roles, r)
				if r == RoleCreator {
					hasCreator = true
				}
			}
		}

		if got := Resolve(roles).CanCreate; got != hasCreator {
			t.Errorf("Resolve(%v).CanCreate = %v, хотели %v", roles, got, hasCreator)
		}
	}
}

func TestCapabilities_Actor(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  Actor
	}{
		{"нет ролей", nil, ActorAnonymous},
		{"MANAGER выигрывает у всех", []string{RoleReader, RoleApprover, RoleCreator, RoleManager}, ActorManager},
		{"CREATOR выигрывает у APPROVER", []string{RoleApprover, RoleCreator}, ActorCreator},
		{"APPROVER + READER — согласующий", []string{RoleApprover, RoleReader}, ActorApprover},
		{"только READER", []string{RoleReader}, ActorReader},
		{"неизвестная роль — аноним", []string{"GUEST"}, ActorAnonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.roles).Actor(); got != tt.want {
				t.Errorf("Actor() = %s, хотели %s", got, tt.want)
			}
		})
	}
}

func TestIsKnownRole(t *testing.T) {
	for _, r := range []string{"manager", "CREATOR", " Approver ", "READER"} {
		if !IsKnownRole(r) {
			t.Errorf("IsKnownRole(%q) = false, хотели true", r)
		}
	}
	if IsKnownRole("ADMIN") {
		t.Error("IsKnownRole(ADMIN) = true, хотели false")
	}
}
