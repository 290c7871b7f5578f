package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"otadmin/models"
	"otadmin/otcalc"
)

const (
	defaultNotificationLimit = 8
	maxNotificationLimit     = 20
)

type ListFilter struct {
	EmployeeID uint
	Status     models.Status
	From       string
	To         string
	Page       int
	Limit      int
}

// List returns entries newest work date first with their employee attached.
func (s *OvertimeService) List(ctx context.Context, f ListFilter) (*Page[models.OvertimeEntry], error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", "unknown status %q", f.Status)
	}
	for field, v := range map[string]string{"from": f.From, "to": f.To} {
		if v == "" {
			continue
		}
		if _, err := otcalc.ParseDate(v); err != nil {
			return nil, invalid(field, "must be YYYY-MM-DD")
		}
	}
	page, limit := normalizePage(f.Page, f.Limit)

	q := s.db.WithContext(ctx).Model(&models.OvertimeEntry{})
	if f.EmployeeID != 0 {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != "" {
		q = q.Where("work_date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("work_date <= ?", f.To)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count overtime entries: %w", err)
	}

	var items []models.OvertimeEntry
	err := q.Preload("Employee").
		Order("work_date desc").Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list overtime entries: %w", err)
	}
	return &Page[models.OvertimeEntry]{Page: page, Limit: limit, Total: total, Items: items}, nil
}

// ApprovedBetween returns approved entries in [from, to] ordered by date then
// employee, for export.
func (s *OvertimeService) ApprovedBetween(ctx context.Context, from, to string) ([]models.OvertimeEntry, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	var entries []models.OvertimeEntry
	err := s.db.WithContext(ctx).Preload("Employee").
		Where("status = ? AND work_date BETWEEN ? AND ?", models.StatusApproved, from, to).
		Order("work_date asc").Order("employee_id asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list approved entries: %w", err)
	}
	return entries, nil
}

func (s *OvertimeService) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.OvertimeEntry{}).
		Where("status = ?", models.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

// PendingNotifications returns the most recently submitted pending entries.
func (s *OvertimeService) PendingNotifications(ctx context.Context, limit int) ([]models.OvertimeEntry, error) {
	if limit < 1 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	var items []models.OvertimeEntry
	err := s.db.WithContext(ctx).Preload("Employee").
		Where("status = ?", models.StatusPending).
		Order("created_at desc").Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return items, nil
}
