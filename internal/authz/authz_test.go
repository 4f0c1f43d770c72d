package authz

import (
	"testing"

	"danicandles/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	tests := []struct {
		role model.Role
		perm Permission
		want bool
	}{
		{model.RoleCustomer, OrdersReadAny, false},
		{model.RoleCustomer, OrdersUpdateStatus, false},
		{model.RoleStaff, OrdersReadAny, true},
		{model.RoleStaff, OrdersUpdateStatus, true},
		{model.RoleStaff, OrdersResendNotification, true},
		{model.RoleStaff, AuditRead, false},
		{model.RoleAdmin, OrdersUpdateStatus, true},
		{model.RoleAdmin, AuditRead, true},
		{model.Role("owner"), OrdersReadAny, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.perm))
		})
	}
}

func TestPermissionsOf_ReturnsCopy(t *testing.T) {
	ps := PermissionsOf(model.RoleStaff)
	ps[0] = AuditRead

	assert.False(t, Can(model.RoleStaff, AuditRead))
	assert.Empty(t, PermissionsOf(model.RoleCustomer))
}
