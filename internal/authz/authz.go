// Package authz はロールから権限（capability）への対応表。
package authz

import "danicandles/internal/domain/model"

type Permission string

const (
	OrdersReadAny            Permission = "orders:read_any"
	OrdersUpdateStatus       Permission = "orders:update_status"
	OrdersResendNotification Permission = "orders:resend_notification"
	AuditRead                Permission = "audit:read"
)

var staffPermissions = []Permission{
	OrdersReadAny,
	OrdersUpdateStatus,
	OrdersResendNotification,
}

var rolePermissions = map[model.Role][]Permission{
	model.RoleCustomer: {},
	model.RoleStaff:    staffPermissions,
	model.RoleAdmin:    append(append([]Permission{}, staffPermissions...), AuditRead),
}

// Can は role が p を持つか。未知のroleは何も持たない。
func Can(role model.Role, p Permission) bool {
	for _, have := range rolePermissions[role] {
		if have == p {
			return true
		}
	}
	return false
}

func PermissionsOf(role model.Role) []Permission {
	ps := rolePermissions[role]
	out := make([]Permission, len(ps))
	copy(out, ps)
	return out
}
