package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"otadmin/models"
	"otadmin/otcalc"
)

// TripleDayRegistry answers whether a date is paid at the triple rate and
// lets administrators maintain the calendar.
type TripleDayRegistry struct {
	db *gorm.DB
}

func NewTripleDayRegistry(db *gorm.DB) *TripleDayRegistry {
	return &TripleDayRegistry{db: db}
}

func (r *TripleDayRegistry) IsTripleDay(ctx context.Context, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TripleOtDay{}).Where("date = ?", date).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup triple day %s: %w", date, err)
	}
	return count > 0, nil
}

func (r *TripleDayRegistry) List(ctx context.Context) ([]models.TripleOtDay, error) {
	var days []models.TripleOtDay
	if err := r.db.WithContext(ctx).Order("date asc").Find(&days).Error; err != nil {
		return nil, fmt.Errorf("list triple days: %w", err)
	}
	return days, nil
}

func (r *TripleDayRegistry) Create(ctx context.Context, date, note string) (*models.TripleOtDay, error) {
	if _, err := otcalc.ParseDate(date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}

	day := models.TripleOtDay{Date: date, Note: strings.TrimSpace(note)}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&day)
	if res.Error != nil {
		return nil, fmt.Errorf("create triple day: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Entity: "triple day", ID: date, Reason: "already flagged"}
	}
	return &day, nil
}

func (r *TripleDayRegistry) Delete(ctx context.Context, id uint) error {
	var day models.TripleOtDay
	err := r.db.WithContext(ctx).First(&day, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: "triple day", ID: id}
	}
	if err != nil {
		return fmt.Errorf("load triple day: %w", err)
	}
	if err := r.db.WithContext(ctx).Delete(&day).Error; err != nil {
		return fmt.Errorf("delete triple day: %w", err)
	}
	return nil
}
