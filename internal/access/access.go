// Package access defines the fixed role hierarchy and permission matrix
// used across the back office.
package access

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role is one of the five staff privilege tiers.
type Role string

const (
	RoleDireccion  Role = "direccion"
	RoleGerente    Role = "gerente"
	RoleEntrenador Role = "entrenador"
	RoleVentas     Role = "ventas"
	RoleRecepcion  Role = "recepcion"
)

// roleRank orders roles by privilege. Lower rank means more privilege.
var roleRank = map[Role]int{
	RoleDireccion:  1,
	RoleGerente:    2,
	RoleEntrenador: 3,
	RoleVentas:     4,
	RoleRecepcion:  5,
}

// Permission is a single fine-grained capability flag.
type Permission string

const (
	PermFinanceView     Permission = "finance.view"
	PermSalariesView    Permission = "finance.salaries.view"
	PermEmployeesAll    Permission = "employees.manage.all"
	PermEmployeesLower  Permission = "employees.manage.lower"
	PermMembersView     Permission = "members.view"
	PermMembersCreate   Permission = "members.create"
	PermMembersEdit     Permission = "members.edit"
	PermMembersDelete   Permission = "members.delete"
	PermContractsManage Permission = "contracts.manage"
	PermPaymentsManage  Permission = "payments.manage"
	PermInventoryManage Permission = "inventory.manage"
	PermSalesCreate     Permission = "sales.create"
	PermDiscountApply   Permission = "discounts.apply"
	PermScheduleManage  Permission = "schedule.manage"
	PermReportsView     Permission = "reports.view"
	PermAuditView       Permission = "audit.view"
	PermSyncManage      Permission = "sync.manage"
)

// matrix is the fixed role -> permission mapping. Loaded once, never
// mutated after init.
var matrix = map[Role][]Permission{
	RoleDireccion: {
		PermFinanceView, PermSalariesView,
		PermEmployeesAll, PermEmployeesLower,
		PermMembersView, PermMembersCreate, PermMembersEdit, PermMembersDelete,
		PermContractsManage, PermPaymentsManage,
		PermInventoryManage, PermSalesCreate, PermDiscountApply,
		PermScheduleManage, PermReportsView, PermAuditView, PermSyncManage,
	},
	RoleGerente: {
		PermFinanceView,
		PermEmployeesLower,
		PermMembersView, PermMembersCreate, PermMembersEdit, PermMembersDelete,
		PermContractsManage, PermPaymentsManage,
		PermInventoryManage, PermSalesCreate, PermDiscountApply,
		PermScheduleManage, PermReportsView, PermSyncManage,
	},
	RoleEntrenador: {
		PermMembersView,
		PermScheduleManage,
	},
	RoleVentas: {
		PermMembersView, PermMembersCreate, PermMembersEdit,
		PermContractsManage, PermPaymentsManage,
		PermSalesCreate, PermDiscountApply,
		PermReportsView,
	},
	RoleRecepcion: {
		PermMembersView, PermMembersCreate, PermMembersEdit,
		PermPaymentsManage,
		PermSalesCreate,
	},
}

var permSets = buildPermSets()

func buildPermSets() map[Role]map[Permission]struct{} {
	sets := make(map[Role]map[Permission]struct{}, len(matrix))
	for role, perms := range matrix {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		sets[role] = set
	}
	return sets
}

// HasPermission reports whether the role's permission set contains perm.
func HasPermission(role Role, perm Permission) bool {
	set, ok := permSets[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Rank returns the hierarchy rank of the role, or the lowest rank when
// the role is unknown.
func Rank(role Role) int {
	if rank, ok := roleRank[role]; ok {
		return rank
	}
	return roleRank[RoleRecepcion]
}

// CanManage reports whether actor may manage target. Managing requires
// an equal or higher privilege rank, and gerente may never manage
// direccion regardless of the numeric comparison.
func CanManage(actor, target Role) bool {
	if actor == RoleGerente && target == RoleDireccion {
		return false
	}
	return Rank(actor) <= Rank(target)
}

// Roles returns all roles ordered from highest to lowest privilege.
func Roles() []Role {
	return []Role{RoleDireccion, RoleGerente, RoleEntrenador, RoleVentas, RoleRecepcion}
}

// Permissions returns a copy of the permission set for the role.
func Permissions(role Role) []Permission {
	perms := matrix[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// roleAliases maps legacy spellings and synonyms to canonical roles.
// Keys are pre-folded (lowercase, accent-stripped).
var roleAliases = map[string]Role{
	"direccion":   RoleDireccion,
	"director":    RoleDireccion,
	"directora":   RoleDireccion,
	"admin":       RoleDireccion,
	"owner":       RoleDireccion,
	"gerente":     RoleGerente,
	"gerencia":    RoleGerente,
	"manager":     RoleGerente,
	"encargado":   RoleGerente,
	"entrenador":  RoleEntrenador,
	"entrenadora": RoleEntrenador,
	"trainer":     RoleEntrenador,
	"coach":       RoleEntrenador,
	"monitor":     RoleEntrenador,
	"ventas":      RoleVentas,
	"vendedor":    RoleVentas,
	"vendedora":   RoleVentas,
	"sales":       RoleVentas,
	"comercial":   RoleVentas,
	"recepcion":   RoleRecepcion,
	"reception":   RoleRecepcion,
	"receptionist": RoleRecepcion,
	"recepcionista": RoleRecepcion,
	"front desk":  RoleRecepcion,
	"frontdesk":   RoleRecepcion,
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeRole maps a free-form legacy role string to a canonical Role.
// Unrecognized values resolve to the lowest-privilege role, so a bad or
// tampered value can never grant extra access.
func NormalizeRole(raw string) Role {
	folded := strings.ToLower(strings.TrimSpace(raw))
	if stripped, _, err := transform.String(accentFolder, folded); err == nil {
		folded = stripped
	}
	if role, ok := roleAliases[folded]; ok {
		return role
	}
	return RoleRecepcion
}
