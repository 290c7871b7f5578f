package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"otadmin/database/dbtest"
	"otadmin/models"
	"otadmin/otcalc"
)

// Monday.
const testDate = "2024-03-04"

type fixture struct {
	db        *gorm.DB
	ot        *OvertimeService
	triple    *TripleDayRegistry
	audit     *AuditRecorder
	stats     *StatsService
	employees []models.Employee
	actor     Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc := time.UTC

	audit := NewAuditRecorder(db, log)
	triple := NewTripleDayRegistry(db)
	user := dbtest.User(t, db, "sup", models.RoleSupervisor)

	return &fixture{
		db:        db,
		ot:        NewOvertimeService(db, otcalc.DefaultPolicy(), triple, audit, log, loc),
		triple:    triple,
		audit:     audit,
		stats:     NewStatsService(db, loc),
		employees: dbtest.Employees(t, db, "ana", "ben", "cai"),
		actor: Actor{
			UserID: user.ID,
			Meta:   models.AuditMeta{IP: "10.0.0.1", UserAgent: "test", Route: "/api/ot"},
		},
	}
}

// submit creates one pending entry through bulk intake and returns it.
func (f *fixture) submit(t *testing.T, emp models.Employee, date, shift, in, out string) models.OvertimeEntry {
	t.Helper()

	res, err := f.ot.CreateBulk(ctx(), BulkRequest{
		WorkDate: date,
		Rows:     []RowInput{{EmployeeID: emp.ID, Shift: shift, InTime: in, OutTime: out}},
	}, f.actor)
	require.NoError(t, err)
	require.Equal(t, 1, res.InsertedCount)

	var entry models.OvertimeEntry
	require.NoError(t, f.db.Where("employee_id = ? AND work_date = ?", emp.ID, date).First(&entry).Error)
	return entry
}

func (f *fixture) reload(t *testing.T, id uint) models.OvertimeEntry {
	t.Helper()

	var entry models.OvertimeEntry
	require.NoError(t, f.db.First(&entry, id).Error)
	return entry
}

func (f *fixture) auditRows(t *testing.T, action models.AuditAction) []models.AuditLog {
	t.Helper()

	var rows []models.AuditLog
	require.NoError(t, f.db.Where("action = ?", action).Order("created_at asc").Find(&rows).Error)
	return rows
}

func ctx() context.Context { return context.Background() }

func ptr[T any](v T) *T { return &v }
