package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"otadmin/metrics"
	"otadmin/models"
)

// EntryPatch carries the editable fields of a pending entry. Nil means keep.
type EntryPatch struct {
	Shift   *string `json:"shift,omitempty"`
	InTime  *string `json:"inTime,omitempty"`
	OutTime *string `json:"outTime,omitempty"`
	Reason  *string `json:"reason,omitempty"`
}

// ApproveRequest carries an optional decision reason and optional per-bucket
// overrides. Any non-nil override marks the approval as adjusted.
type ApproveRequest struct {
	Reason                *string `json:"reason,omitempty"`
	ApprovedNormalMinutes *int    `json:"approvedNormalMinutes,omitempty"`
	ApprovedDoubleMinutes *int    `json:"approvedDoubleMinutes,omitempty"`
	ApprovedTripleMinutes *int    `json:"approvedTripleMinutes,omitempty"`
}

func (r ApproveRequest) HasOverride() bool {
	return r.ApprovedNormalMinutes != nil || r.ApprovedDoubleMinutes != nil || r.ApprovedTripleMinutes != nil
}

// UpdateEntry merges patch over a pending entry and recomputes its minutes.
func (s *OvertimeService) UpdateEntry(ctx context.Context, id uint, patch EntryPatch, actor Actor) (*models.OvertimeEntry, error) {
	existing, err := s.loadPending(ctx, id, "only pending entries can be edited", models.AuditUpdate)
	if err != nil {
		return nil, err
	}

	next := *existing
	if patch.Shift != nil {
		next.Shift = strings.TrimSpace(*patch.Shift)
	}
	if patch.InTime != nil {
		next.InTime = strings.TrimSpace(*patch.InTime)
	}
	if patch.OutTime != nil {
		next.OutTime = strings.TrimSpace(*patch.OutTime)
	}
	if patch.Reason != nil {
		next.Reason = strings.TrimSpace(*patch.Reason)
	}

	if next.Shift == "" {
		return nil, invalid("shift", "must not be empty")
	}
	if next.Shift != models.NoShift {
		if err := validateTimes(next.InTime, next.OutTime); err != nil {
			return nil, invalid("", "%v", err)
		}
	}

	isTriple, err := s.triple.IsTripleDay(ctx, existing.WorkDate)
	if err != nil {
		return nil, err
	}
	if err := s.applyComputation(&next, isTriple); err != nil {
		return nil, invalid("", "%v", err)
	}

	err = s.casUpdate(ctx, existing, models.AuditUpdate, map[string]any{
		"shift":          next.Shift,
		"in_time":        next.InTime,
		"out_time":       next.OutTime,
		"reason":         next.Reason,
		"normal_minutes": next.NormalMinutes,
		"double_minutes": next.DoubleMinutes,
		"triple_minutes": next.TripleMinutes,
		"is_night":       next.IsNight,
		"updated_by":     actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, AuditRecord{
		EntityType: models.EntityOvertime,
		EntityID:   entryRef(id),
		Action:     models.AuditUpdate,
		Actor:      actor,
		Before:     mutableFields(existing),
		After:      mutableFields(&next),
	})
	return s.reload(ctx, id)
}

// ApproveEntry moves a pending entry to APPROVED. Approved minutes default to
// the computed ones; ApprovedTotalMinutes is fixed here and never derived by
// readers.
func (s *OvertimeService) ApproveEntry(ctx context.Context, id uint, req ApproveRequest, actor Actor) (*models.OvertimeEntry, error) {
	for field, v := range map[string]*int{
		"approvedNormalMinutes": req.ApprovedNormalMinutes,
		"approvedDoubleMinutes": req.ApprovedDoubleMinutes,
		"approvedTripleMinutes": req.ApprovedTripleMinutes,
	} {
		if v != nil && *v < 0 {
			return nil, invalid(field, "must not be negative")
		}
	}

	existing, err := s.loadPending(ctx, id, "already decided", models.AuditApprove)
	if err != nil {
		return nil, err
	}

	normal := valueOr(req.ApprovedNormalMinutes, existing.NormalMinutes)
	double := valueOr(req.ApprovedDoubleMinutes, existing.DoubleMinutes)
	triple := valueOr(req.ApprovedTripleMinutes, existing.TripleMinutes)
	total := normal + double + triple
	override := req.HasOverride()
	reason := ""
	if req.Reason != nil {
		reason = strings.TrimSpace(*req.Reason)
	}
	decidedAt := s.now()

	err = s.casUpdate(ctx, existing, models.AuditApprove, map[string]any{
		"status":                  models.StatusApproved,
		"decision_reason":         reason,
		"decided_by":              actor.UserID,
		"decided_at":              decidedAt,
		"updated_by":              actor.UserID,
		"approved_normal_minutes": normal,
		"approved_double_minutes": double,
		"approved_triple_minutes": triple,
		"approved_total_minutes":  total,
		"is_approved_override":    override,
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, AuditRecord{
		EntityType: models.EntityOvertime,
		EntityID:   entryRef(id),
		Action:     models.AuditApprove,
		Actor:      actor,
		Before: map[string]any{
			"status":        models.StatusPending,
			"normalMinutes": existing.NormalMinutes,
			"doubleMinutes": existing.DoubleMinutes,
			"tripleMinutes": existing.TripleMinutes,
		},
		After: map[string]any{
			"status":                models.StatusApproved,
			"decisionReason":        reason,
			"approvedNormalMinutes": normal,
			"approvedDoubleMinutes": double,
			"approvedTripleMinutes": triple,
			"approvedTotalMinutes":  total,
			"isApprovedOverride":    override,
		},
	})
	return s.reload(ctx, id)
}

// RejectEntry moves a pending entry to REJECTED. A reason is mandatory.
func (s *OvertimeService) RejectEntry(ctx context.Context, id uint, reason string, actor Actor) (*models.OvertimeEntry, error) {
	existing, err := s.loadPending(ctx, id, "already decided", models.AuditReject)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "rejection reason required")
	}

	err = s.casUpdate(ctx, existing, models.AuditReject, map[string]any{
		"status":          models.StatusRejected,
		"decision_reason": reason,
		"decided_by":      actor.UserID,
		"decided_at":      s.now(),
		"updated_by":      actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, AuditRecord{
		EntityType: models.EntityOvertime,
		EntityID:   entryRef(id),
		Action:     models.AuditReject,
		Actor:      actor,
		Before:     map[string]any{"status": models.StatusPending},
		After:      map[string]any{"status": models.StatusRejected, "decisionReason": reason},
	})
	return s.reload(ctx, id)
}

func (s *OvertimeService) loadPending(ctx context.Context, id uint, conflictReason string, action models.AuditAction) (*models.OvertimeEntry, error) {
	var entry models.OvertimeEntry
	err := s.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "overtime entry", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load overtime entry %d: %w", id, err)
	}
	if entry.Status != models.StatusPending {
		metrics.LifecycleConflicts.WithLabelValues(string(action)).Inc()
		return nil, &ConflictError{Entity: "overtime entry", ID: id, Reason: conflictReason}
	}
	return &entry, nil
}

// casUpdate applies fields only if the entry is still pending at the version
// that was read. Losing the race is reported, never overwritten.
func (s *OvertimeService) casUpdate(ctx context.Context, existing *models.OvertimeEntry, action models.AuditAction, fields map[string]any) error {
	fields["version"] = gorm.Expr("version + 1")

	res := s.db.WithContext(ctx).Model(&models.OvertimeEntry{}).
		Where("id = ? AND status = ? AND version = ?", existing.ID, models.StatusPending, existing.Version).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%s overtime entry %d: %w", strings.ToLower(string(action)), existing.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.LifecycleConflicts.WithLabelValues(string(action)).Inc()
		return &ConflictError{Entity: "overtime entry", ID: existing.ID, Reason: "entry changed or was decided concurrently"}
	}
	metrics.Decisions.WithLabelValues(string(action)).Inc()
	return nil
}

func (s *OvertimeService) reload(ctx context.Context, id uint) (*models.OvertimeEntry, error) {
	var entry models.OvertimeEntry
	if err := s.db.WithContext(ctx).Preload("Employee").First(&entry, id).Error; err != nil {
		return nil, fmt.Errorf("reload overtime entry %d: %w", id, err)
	}
	return &entry, nil
}

func mutableFields(e *models.OvertimeEntry) map[string]any {
	return map[string]any{
		"shift":         e.Shift,
		"inTime":        e.InTime,
		"outTime":       e.OutTime,
		"reason":        e.Reason,
		"normalMinutes": e.NormalMinutes,
		"doubleMinutes": e.DoubleMinutes,
		"tripleMinutes": e.TripleMinutes,
		"isNight":       e.IsNight,
	}
}

func valueOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}
