package models

import (
	"time"

	"gorm.io/gorm"
)

type Employee struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	EmpID     string         `gorm:"uniqueIndex;not null;size:50" json:"empId"`
	Name      string         `gorm:"not null;size:200" json:"name"`
	Email     string         `gorm:"size:200" json:"email,omitempty"`
}
