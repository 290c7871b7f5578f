package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Invite lets an administrator hand out a one-time registration code bound to
// a role.
type Invite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Code      string    `gorm:"uniqueIndex;not null;size:64" json:"code"`
	Role      Role      `gorm:"not null;size:20" json:"role"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	UsedBy    *uint     `json:"usedBy,omitempty"`
	CreatedBy uint      `gorm:"not null" json:"createdBy"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
}

func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (i *Invite) IsValid(now time.Time) bool {
	return !i.Used && now.Before(i.ExpiresAt)
}
