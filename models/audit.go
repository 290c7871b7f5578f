package models

import (
	"time"
)

type AuditAction string

const (
	AuditCreate  AuditAction = "CREATE"
	AuditUpdate  AuditAction = "UPDATE"
	AuditApprove AuditAction = "APPROVE"
	AuditReject  AuditAction = "REJECT"
)

const EntityOvertime = "OT"

// AuditLog is insert-only. Nothing in this service updates or deletes rows.
type AuditLog struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt   time.Time   `gorm:"index:idx_audit_entity,priority:3;index:idx_audit_actor,priority:2" json:"createdAt"`
	EntityType  string      `gorm:"not null;size:50;index:idx_audit_entity,priority:1" json:"entityType"`
	EntityID    string      `gorm:"not null;size:64;index:idx_audit_entity,priority:2" json:"entityId"`
	Action      AuditAction `gorm:"not null;size:20" json:"action"`
	ActorUserID uint        `gorm:"not null;index:idx_audit_actor,priority:1" json:"actorUserId"`
	Diff        *AuditDiff  `gorm:"serializer:json" json:"diff,omitempty"`
	Meta        AuditMeta   `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
}

type AuditDiff struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
}

// AuditMeta is request provenance captured at the HTTP edge.
type AuditMeta struct {
	IP        string `gorm:"size:64" json:"ip,omitempty"`
	UserAgent string `gorm:"size:300" json:"userAgent,omitempty"`
	Route     string `gorm:"size:300" json:"route,omitempty"`
}
