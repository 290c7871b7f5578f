package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"otadmin/metrics"
	"otadmin/models"
)

// Actor is who performs a mutation and from where.
type Actor struct {
	UserID uint
	Meta   models.AuditMeta
}

type AuditRecord struct {
	EntityType string
	EntityID   string
	Action     models.AuditAction
	Actor      Actor
	Before     map[string]any
	After      map[string]any
}

// AuditRecorder appends audit rows. Rows are never updated or deleted here.
type AuditRecorder struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time
}

func NewAuditRecorder(db *gorm.DB, log *slog.Logger) *AuditRecorder {
	return &AuditRecorder{db: db, log: log, now: time.Now}
}

// Record persists one audit row. A failure is logged and counted as audit
// drift, then returned; callers must not fail the mutation it describes.
// The write outlives a cancelled request, since the mutation has already
// committed by the time it is recorded.
func (a *AuditRecorder) Record(ctx context.Context, rec AuditRecord) error {
	ctx = context.WithoutCancel(ctx)
	row := models.AuditLog{
		ID:          uuid.NewString(),
		CreatedAt:   a.now(),
		EntityType:  rec.EntityType,
		EntityID:    rec.EntityID,
		Action:      rec.Action,
		ActorUserID: rec.Actor.UserID,
		Meta:        rec.Actor.Meta,
	}
	if rec.Before != nil || rec.After != nil {
		row.Diff = &models.AuditDiff{Before: rec.Before, After: rec.After}
	}

	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		metrics.AuditWriteFailures.WithLabelValues(string(rec.Action)).Inc()
		a.log.ErrorContext(ctx, "audit write failed",
			"entity_type", rec.EntityType,
			"entity_id", rec.EntityID,
			"action", rec.Action,
			"actor", rec.Actor.UserID,
			"error", err,
		)
		return fmt.Errorf("write audit %s %s: %w", rec.Action, rec.EntityID, err)
	}
	return nil
}

type AuditFilter struct {
	EntityType  string
	EntityID    string
	ActorUserID uint
	Page        int
	Limit       int
}

// List returns audit rows newest first.
func (a *AuditRecorder) List(ctx context.Context, f AuditFilter) (*Page[models.AuditLog], error) {
	page, limit := normalizePage(f.Page, f.Limit)

	q := a.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.ActorUserID != 0 {
		q = q.Where("actor_user_id = ?", f.ActorUserID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count audit: %w", err)
	}

	var items []models.AuditLog
	if err := q.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	return &Page[models.AuditLog]{Page: page, Limit: limit, Total: total, Items: items}, nil
}

func entryRef(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
