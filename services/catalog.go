package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"otadmin/models"
)

// ReasonCatalog maintains the canned decision reasons offered to approvers.
type ReasonCatalog struct {
	db *gorm.DB
}

func NewReasonCatalog(db *gorm.DB) *ReasonCatalog {
	return &ReasonCatalog{db: db}
}

type ReasonInput struct {
	Type   models.DecisionType `json:"type"`
	Label  string              `json:"label"`
	Active *bool               `json:"active,omitempty"`
	Sort   int                 `json:"sort,omitempty"`
}

// List filters by type and active flag when given, ordered by sort then label.
func (c *ReasonCatalog) List(ctx context.Context, typ models.DecisionType, active *bool) ([]models.DecisionReason, error) {
	q := c.db.WithContext(ctx)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	if active != nil {
		q = q.Where("active = ?", *active)
	}

	var items []models.DecisionReason
	if err := q.Order("sort asc").Order("label asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list decision reasons: %w", err)
	}
	return items, nil
}

func (c *ReasonCatalog) Create(ctx context.Context, in ReasonInput) (*models.DecisionReason, error) {
	if in.Type != models.DecisionApprove && in.Type != models.DecisionReject {
		return nil, invalid("type", "must be APPROVE or REJECT")
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, invalid("label", "must not be empty")
	}

	reason := models.DecisionReason{Type: in.Type, Label: label, Active: true, Sort: in.Sort}
	if err := c.db.WithContext(ctx).Create(&reason).Error; err != nil {
		return nil, fmt.Errorf("create decision reason: %w", err)
	}
	// A false bool is a zero value, so the column default would win on insert.
	if in.Active != nil && !*in.Active {
		if err := c.db.WithContext(ctx).Model(&reason).Update("active", false).Error; err != nil {
			return nil, fmt.Errorf("deactivate decision reason: %w", err)
		}
	}
	return &reason, nil
}

func (c *ReasonCatalog) Delete(ctx context.Context, id uint) error {
	res := c.db.WithContext(ctx).Delete(&models.DecisionReason{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete decision reason: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "decision reason", ID: id}
	}
	return nil
}

// EmployeeDirectory is the employee master the intake rows reference.
type EmployeeDirectory struct {
	db *gorm.DB
}

func NewEmployeeDirectory(db *gorm.DB) *EmployeeDirectory {
	return &EmployeeDirectory{db: db}
}

type EmployeeInput struct {
	EmpID string `json:"empId"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// List matches search against employee code and name, ordered by code.
func (d *EmployeeDirectory) List(ctx context.Context, search string, page, limit int) (*Page[models.Employee], error) {
	page, limit = normalizePage(page, limit)

	q := d.db.WithContext(ctx).Model(&models.Employee{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(emp_id) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}

	var items []models.Employee
	if err := q.Order("emp_id asc").Offset((page - 1) * limit).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return &Page[models.Employee]{Page: page, Limit: limit, Total: total, Items: items}, nil
}

func (d *EmployeeDirectory) Create(ctx context.Context, in EmployeeInput) (*models.Employee, error) {
	emp := models.Employee{
		EmpID: strings.TrimSpace(in.EmpID),
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if emp.EmpID == "" {
		return nil, invalid("empId", "must not be empty")
	}
	if emp.Name == "" {
		return nil, invalid("name", "must not be empty")
	}
	if emp.Email != "" {
		if _, err := mail.ParseAddress(emp.Email); err != nil {
			return nil, invalid("email", "invalid address")
		}
	}

	res := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&emp)
	if res.Error != nil {
		return nil, fmt.Errorf("create employee: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Entity: "employee", ID: emp.EmpID, Reason: "employee code already exists"}
	}
	return &emp, nil
}

func (d *EmployeeDirectory) Get(ctx context.Context, id uint) (*models.Employee, error) {
	var emp models.Employee
	err := d.db.WithContext(ctx).First(&emp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "employee", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	return &emp, nil
}
