package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gymops-erp/gymops/internal/access"
)

func TestHasPermissionMatchesMatrix(t *testing.T) {
	for _, role := range access.Roles() {
		granted := make(map[access.Permission]struct{})
		for _, p := range access.Permissions(role) {
			granted[p] = struct{}{}
		}
		checks := []access.Permission{
			access.PermFinanceView,
			access.PermSalariesView,
			access.PermEmployeesAll,
			access.PermMembersView,
			access.PermInventoryManage,
			access.PermDiscountApply,
			access.PermAuditView,
			access.PermSyncManage,
		}
		for _, p := range checks {
			_, want := granted[p]
			assert.Equal(t, want, access.HasPermission(role, p), "role=%s perm=%s", role, p)
		}
	}
}

func TestVentasCannotViewSalaries(t *testing.T) {
	assert.False(t, access.HasPermission(access.RoleVentas, access.PermSalariesView))
}

func TestCanManage(t *testing.T) {
	tests := []struct {
		actor  access.Role
		target access.Role
		want   bool
	}{
		{access.RoleDireccion, access.RoleDireccion, true},
		{access.RoleDireccion, access.RoleGerente, true},
		{access.RoleDireccion, access.RoleRecepcion, true},
		{access.RoleGerente, access.RoleDireccion, false},
		{access.RoleGerente, access.RoleGerente, true},
		{access.RoleGerente, access.RoleVentas, true},
		{access.RoleVentas, access.RoleGerente, false},
		{access.RoleRecepcion, access.RoleRecepcion, true},
		{access.RoleRecepcion, access.RoleVentas, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, access.CanManage(tc.actor, tc.target), "%s manages %s", tc.actor, tc.target)
	}
}

func TestDireccionManagesEveryRole(t *testing.T) {
	for _, role := range access.Roles() {
		assert.True(t, access.CanManage(access.RoleDireccion, role))
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw  string
		want access.Role
	}{
		{"direccion", access.RoleDireccion},
		{"Dirección", access.RoleDireccion},
		{"  ADMIN  ", access.RoleDireccion},
		{"gerencia", access.RoleGerente},
		{"Manager", access.RoleGerente},
		{"Entrenadora", access.RoleEntrenador},
		{"coach", access.RoleEntrenador},
		{"vendedor", access.RoleVentas},
		{"Recepción", access.RoleRecepcion},
		{"front desk", access.RoleRecepcion},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, access.NormalizeRole(tc.raw), "raw=%q", tc.raw)
	}
}

func TestNormalizeRoleDefaultsToLowestPrivilege(t *testing.T) {
	for _, raw := range []string{"bogus-string", "", "   ", "superuser!!", "róle"} {
		assert.Equal(t, access.RoleRecepcion, access.NormalizeRole(raw), "raw=%q", raw)
	}
}

func TestRankOrdering(t *testing.T) {
	roles := access.Roles()
	for i := 1; i < len(roles); i++ {
		assert.Less(t, access.Rank(roles[i-1]), access.Rank(roles[i]))
	}
	assert.Equal(t, access.Rank(access.RoleRecepcion), access.Rank("unknown"))
}
