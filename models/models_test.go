package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissions(t *testing.T) {
	assert.NoError(t, RoleApprover.Validate())
	assert.Error(t, Role("ROOT").Validate())

	assert.True(t, RoleApprover.Has(PermOTApprove))
	assert.False(t, RoleSupervisor.Has(PermOTApprove))
	assert.True(t, RoleSupervisor.Has(PermOTCreate))
	assert.False(t, RoleHR.Has(PermOTCreate))

	for _, p := range allPermissions {
		assert.True(t, RoleAdmin.Has(p), p)
	}
}

func TestRolesOnlyGrantKnownPermissions(t *testing.T) {
	known := map[Permission]bool{}
	for _, p := range allPermissions {
		known[p] = true
	}
	for role, perms := range rolePermissions {
		for _, p := range perms {
			assert.True(t, known[p], "%s grants unknown %s", role, p)
		}
	}
}

func TestUserCan(t *testing.T) {
	u := &User{Role: RoleApprover, Active: true}
	assert.True(t, u.Can(PermOTReject))

	u.Active = false
	assert.False(t, u.Can(PermOTReject))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("DONE").Valid())
}

func TestInviteValidity(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	inv := &Invite{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, inv.IsValid(now))
	assert.False(t, inv.IsValid(now.Add(2*time.Hour)))

	inv.Used = true
	assert.False(t, inv.IsValid(now))

	code, err := GenerateInviteCode()
	assert.NoError(t, err)
	assert.Len(t, code, 64)
}
