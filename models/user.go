package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Role string

// MinPasswordLength applies to every password the service hashes.
const MinPasswordLength = 8

const (
	RoleAdmin      Role = "ADMIN"
	RoleHR         Role = "HR"
	RoleSupervisor Role = "SUPERVISOR"
	RoleApprover   Role = "APPROVER"
)

// Permission is a closed set of capability tags. Routes check these, never
// role names.
type Permission string

const (
	PermOTRead          Permission = "ot.read"
	PermOTCreate        Permission = "ot.create"
	PermOTUpdate        Permission = "ot.update"
	PermOTApprove       Permission = "ot.approve"
	PermOTReject        Permission = "ot.reject"
	PermOTStatsRead     Permission = "ot.stats.read"
	PermOTExport        Permission = "ot.export"
	PermTripleOTRead    Permission = "tripleOt.read"
	PermTripleOTCreate  Permission = "tripleOt.create"
	PermTripleOTDelete  Permission = "tripleOt.delete"
	PermAuditRead       Permission = "audit.read"
	PermReasonsRead     Permission = "reasons.read"
	PermReasonsManage   Permission = "reasons.manage"
	PermEmployeesRead   Permission = "employees.read"
	PermEmployeesManage Permission = "employees.manage"
	PermUsersManage     Permission = "users.manage"
)

var allPermissions = []Permission{
	PermOTRead, PermOTCreate, PermOTUpdate, PermOTApprove, PermOTReject,
	PermOTStatsRead, PermOTExport,
	PermTripleOTRead, PermTripleOTCreate, PermTripleOTDelete,
	PermAuditRead,
	PermReasonsRead, PermReasonsManage,
	PermEmployeesRead, PermEmployeesManage,
	PermUsersManage,
}

var rolePermissions = map[Role][]Permission{
	RoleAdmin: allPermissions,
	RoleHR: {
		PermOTRead, PermOTStatsRead, PermOTExport,
		PermTripleOTRead, PermTripleOTCreate, PermTripleOTDelete,
		PermAuditRead, PermReasonsRead, PermReasonsManage,
		PermEmployeesRead, PermEmployeesManage,
	},
	RoleSupervisor: {
		PermOTRead, PermOTCreate, PermOTUpdate, PermOTStatsRead,
		PermTripleOTRead, PermReasonsRead, PermEmployeesRead,
	},
	RoleApprover: {
		PermOTRead, PermOTApprove, PermOTReject, PermOTStatsRead,
		PermTripleOTRead, PermReasonsRead, PermEmployeesRead,
	},
}

func (r Role) Validate() error {
	if _, ok := rolePermissions[r]; !ok {
		return fmt.Errorf("unknown role %q", r)
	}
	return nil
}

func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}

func (r Role) Has(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Username           string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	PasswordHash       string         `gorm:"not null" json:"-"`
	Role               Role           `gorm:"not null;size:20" json:"role"`
	Active             bool           `gorm:"not null;default:true" json:"active"`
	MustChangePassword bool           `gorm:"not null;default:false" json:"mustChangePassword"`
}

// BeforeSave rejects role assignments outside the declared set.
func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.Role.Validate()
}

func (u *User) Can(p Permission) bool {
	return u.Active && u.Role.Has(p)
}
