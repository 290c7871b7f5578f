package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"otadmin/metrics"
	"otadmin/models"
	"otadmin/otcalc"
)

const (
	maxBulkErrorSamples = 5
	auditConcurrency    = 8
)

// OvertimeService owns bulk intake and the entry lifecycle.
type OvertimeService struct {
	db     *gorm.DB
	policy otcalc.Policy
	triple *TripleDayRegistry
	audit  *AuditRecorder
	log    *slog.Logger
	now    func() time.Time
}

func NewOvertimeService(db *gorm.DB, policy otcalc.Policy, triple *TripleDayRegistry, audit *AuditRecorder, log *slog.Logger, loc *time.Location) *OvertimeService {
	return &OvertimeService{
		db:     db,
		policy: policy,
		triple: triple,
		audit:  audit,
		log:    log,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

type RowInput struct {
	EmployeeID uint   `json:"employeeId"`
	Shift      string `json:"shift"`
	InTime     string `json:"inTime,omitempty"`
	OutTime    string `json:"outTime,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type BulkRequest struct {
	WorkDate string     `json:"workDate"`
	Rows     []RowInput `json:"rows"`
}

type BulkResult struct {
	InsertedCount int      `json:"insertedCount"`
	Duplicates    int      `json:"duplicates,omitempty"`
	Failed        int      `json:"failed,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	AuditFailures int      `json:"auditFailures,omitempty"`
}

func (r *BulkResult) sample(msg string) {
	if len(r.Errors) < maxBulkErrorSamples {
		r.Errors = append(r.Errors, msg)
	}
}

// CreateBulk computes and inserts one PENDING entry per row. Rows that collide
// with an existing (employee, work date) entry are skipped and reported, and a
// row the database refuses is counted as failed; the rest of the batch is
// still inserted and audited. An error is returned only when rows failed and
// nothing was written.
func (s *OvertimeService) CreateBulk(ctx context.Context, req BulkRequest, actor Actor) (*BulkResult, error) {
	if err := validateBulk(req); err != nil {
		return nil, err
	}
	if err := s.ensureEmployees(ctx, req.Rows); err != nil {
		return nil, err
	}

	isTriple, err := s.triple.IsTripleDay(ctx, req.WorkDate)
	if err != nil {
		return nil, err
	}

	entries := make([]models.OvertimeEntry, 0, len(req.Rows))
	for i, row := range req.Rows {
		entry := models.OvertimeEntry{
			EmployeeID: row.EmployeeID,
			WorkDate:   req.WorkDate,
			Shift:      strings.TrimSpace(row.Shift),
			InTime:     strings.TrimSpace(row.InTime),
			OutTime:    strings.TrimSpace(row.OutTime),
			Reason:     strings.TrimSpace(row.Reason),
			Status:     models.StatusPending,
			CreatedBy:  actor.UserID,
			UpdatedBy:  actor.UserID,
			Version:    1,
		}
		if err := s.applyComputation(&entry, isTriple); err != nil {
			return nil, invalid(fmt.Sprintf("rows[%d]", i), "%v", err)
		}
		entries = append(entries, entry)
	}

	result := &BulkResult{}
	inserted := make([]*models.OvertimeEntry, 0, len(entries))
	var firstErr error
	for i := range entries {
		entry := &entries[i]
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "employee_id"}, {Name: "work_date"}},
				DoNothing: true,
			}).
			Create(entry)
		if res.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("insert overtime entry for employee %d: %w", entry.EmployeeID, res.Error)
			}
			s.log.ErrorContext(ctx, "bulk overtime row failed",
				"employee_id", entry.EmployeeID,
				"work_date", entry.WorkDate,
				"error", res.Error,
			)
			result.Failed++
			result.sample(fmt.Sprintf("insert failed: employee %d on %s", entry.EmployeeID, entry.WorkDate))
			continue
		}
		if res.RowsAffected == 0 {
			result.Duplicates++
			result.sample(fmt.Sprintf("duplicate entry: employee %d already has overtime on %s", entry.EmployeeID, entry.WorkDate))
			continue
		}
		inserted = append(inserted, entry)
	}
	result.InsertedCount = len(inserted)

	metrics.EntriesCreated.Add(float64(result.InsertedCount))
	metrics.EntriesDuplicate.Add(float64(result.Duplicates))
	metrics.EntriesFailed.Add(float64(result.Failed))

	result.AuditFailures = s.auditCreated(ctx, inserted, actor)
	if firstErr != nil && result.InsertedCount == 0 && result.Duplicates == 0 {
		return nil, firstErr
	}

	s.log.InfoContext(ctx, "bulk overtime intake",
		"work_date", req.WorkDate,
		"rows", len(req.Rows),
		"inserted", result.InsertedCount,
		"duplicates", result.Duplicates,
		"failed", result.Failed,
		"triple_day", isTriple,
		"actor", actor.UserID,
	)
	return result, nil
}

// auditCreated writes one CREATE record per inserted entry. Writes run in
// parallel and a failed write never undoes its insert.
func (s *OvertimeService) auditCreated(ctx context.Context, inserted []*models.OvertimeEntry, actor Actor) int {
	var failures atomic.Int32
	var g errgroup.Group
	g.SetLimit(auditConcurrency)

	for _, entry := range inserted {
		entry := entry
		g.Go(func() error {
			err := s.audit.Record(ctx, AuditRecord{
				EntityType: models.EntityOvertime,
				EntityID:   entryRef(entry.ID),
				Action:     models.AuditCreate,
				Actor:      actor,
				After: map[string]any{
					"employeeId": entry.EmployeeID,
					"workDate":   entry.WorkDate,
					"shift":      entry.Shift,
				},
			})
			if err != nil {
				failures.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failures.Load())
}

// applyComputation fills the computed buckets and stores times zero-padded,
// clearing them for NO_SHIFT.
func (s *OvertimeService) applyComputation(e *models.OvertimeEntry, isTriple bool) error {
	if e.Shift == models.NoShift {
		e.InTime, e.OutTime = "", ""
		e.NormalMinutes, e.DoubleMinutes, e.TripleMinutes = 0, 0, 0
		e.IsNight = false
		return nil
	}

	res, err := s.policy.Compute(otcalc.Input{
		WorkDate:  e.WorkDate,
		Shift:     e.Shift,
		InTime:    e.InTime,
		OutTime:   e.OutTime,
		TripleDay: isTriple,
	})
	if err != nil {
		return err
	}
	e.NormalMinutes = res.NormalMinutes
	e.DoubleMinutes = res.DoubleMinutes
	e.TripleMinutes = res.TripleMinutes
	e.IsNight = res.IsNight
	e.InTime, _ = otcalc.NormalizeClock(e.InTime)
	e.OutTime, _ = otcalc.NormalizeClock(e.OutTime)
	return nil
}

func (s *OvertimeService) ensureEmployees(ctx context.Context, rows []RowInput) error {
	want := make(map[uint]struct{}, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		if _, ok := want[r.EmployeeID]; !ok {
			want[r.EmployeeID] = struct{}{}
			ids = append(ids, r.EmployeeID)
		}
	}

	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Employee{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("lookup employees: %w", err)
	}
	for _, id := range found {
		delete(want, id)
	}
	for _, id := range ids {
		if _, missing := want[id]; missing {
			return &NotFoundError{Entity: "employee", ID: id}
		}
	}
	return nil
}

func validateBulk(req BulkRequest) error {
	if _, err := otcalc.ParseDate(req.WorkDate); err != nil {
		return invalid("workDate", "must be YYYY-MM-DD")
	}
	if len(req.Rows) == 0 {
		return invalid("rows", "no rows submitted")
	}
	for i, row := range req.Rows {
		if err := validateRow(row); err != nil {
			return invalid(fmt.Sprintf("rows[%d]", i), "%v", err)
		}
	}
	return nil
}

func validateRow(row RowInput) error {
	if row.EmployeeID == 0 {
		return fmt.Errorf("employeeId is required")
	}
	shift := strings.TrimSpace(row.Shift)
	if shift == "" {
		return fmt.Errorf("shift is required")
	}
	if shift == models.NoShift {
		return nil
	}
	return validateTimes(row.InTime, row.OutTime)
}

func validateTimes(in, out string) error {
	if strings.TrimSpace(in) == "" {
		return fmt.Errorf("inTime is required")
	}
	if strings.TrimSpace(out) == "" {
		return fmt.Errorf("outTime is required")
	}
	if _, err := otcalc.ParseClock(in); err != nil {
		return fmt.Errorf("inTime: %w", err)
	}
	if _, err := otcalc.ParseClock(out); err != nil {
		return fmt.Errorf("outTime: %w", err)
	}
	return nil
}
