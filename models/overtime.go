package models

import (
	"time"
)

// NoShift marks a row where the employee did not work: times are cleared and
// every bucket is zero.
const NoShift = "NO_SHIFT"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// OvertimeEntry is one employee's overtime for one work date.
type OvertimeEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"index:idx_ot_status_created,priority:2" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	EmployeeID uint      `gorm:"not null;uniqueIndex:idx_ot_employee_date,priority:1" json:"employeeId"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	WorkDate   string    `gorm:"not null;size:10;uniqueIndex:idx_ot_employee_date,priority:2;index:idx_ot_date_status,priority:1" json:"workDate"`
	Shift      string    `gorm:"not null;size:50" json:"shift"`
	InTime     string    `gorm:"size:5" json:"inTime"`
	OutTime    string    `gorm:"size:5" json:"outTime"`
	Reason     string    `gorm:"size:500" json:"reason,omitempty"`

	NormalMinutes int  `gorm:"not null;default:0" json:"normalMinutes"`
	DoubleMinutes int  `gorm:"not null;default:0" json:"doubleMinutes"`
	TripleMinutes int  `gorm:"not null;default:0" json:"tripleMinutes"`
	IsNight       bool `gorm:"not null;default:false" json:"isNight"`

	Status Status `gorm:"not null;size:20;default:PENDING;index:idx_ot_date_status,priority:2;index:idx_ot_status_created,priority:1" json:"status"`

	ApprovedNormalMinutes int  `gorm:"not null;default:0" json:"approvedNormalMinutes"`
	ApprovedDoubleMinutes int  `gorm:"not null;default:0" json:"approvedDoubleMinutes"`
	ApprovedTripleMinutes int  `gorm:"not null;default:0" json:"approvedTripleMinutes"`
	ApprovedTotalMinutes  int  `gorm:"not null;default:0" json:"approvedTotalMinutes"`
	IsApprovedOverride    bool `gorm:"not null;default:false" json:"isApprovedOverride"`

	DecisionReason string     `gorm:"size:500" json:"decisionReason,omitempty"`
	DecidedBy      *uint      `json:"decidedBy,omitempty"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`

	CreatedBy uint `gorm:"not null" json:"createdBy"`
	UpdatedBy uint `gorm:"not null" json:"updatedBy"`

	// Version increments on every lifecycle write and guards against lost
	// updates between a read and the conditional write that follows it.
	Version int `gorm:"not null;default:1" json:"version"`
}

func (e *OvertimeEntry) ComputedTotalMinutes() int {
	return e.NormalMinutes + e.DoubleMinutes + e.TripleMinutes
}

// TripleOtDay flags a calendar date on which every entry is paid at the
// triple rate.
type TripleOtDay struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Date      string    `gorm:"uniqueIndex;not null;size:10" json:"date"`
	Note      string    `gorm:"size:200" json:"note,omitempty"`
}

type DecisionType string

const (
	DecisionApprove DecisionType = "APPROVE"
	DecisionReject  DecisionType = "REJECT"
)

// DecisionReason is a canned label approvers can pick from.
type DecisionReason struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Type      DecisionType `gorm:"not null;size:10;index" json:"type"`
	Label     string       `gorm:"not null;size:200" json:"label"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	Sort      int          `gorm:"not null;default:0" json:"sort"`
}
