package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otadmin/models"
)

type seedRow struct {
	emp                    int
	date                   string
	status                 models.Status
	normal, double, triple int
	approvedTotal          int
}

func seedEntries(t *testing.T, f *fixture, rows ...seedRow) {
	t.Helper()
	for _, r := range rows {
		e := models.OvertimeEntry{
			EmployeeID:           f.employees[r.emp].ID,
			WorkDate:             r.date,
			Shift:                "Shift 1",
			Status:               r.status,
			NormalMinutes:        r.normal,
			DoubleMinutes:        r.double,
			TripleMinutes:        r.triple,
			ApprovedTotalMinutes: r.approvedTotal,
			Version:              1,
		}
		require.NoError(t, f.db.Create(&e).Error)
	}
}

func TestDayStats(t *testing.T) {
	f := newFixture(t)
	seedEntries(t, f,
		seedRow{emp: 0, date: testDate, status: models.StatusPending, normal: 150},
		seedRow{emp: 1, date: testDate, status: models.StatusApproved, normal: 45, approvedTotal: 30},
		seedRow{emp: 2, date: testDate, status: models.StatusRejected, double: 20},
		seedRow{emp: 0, date: "2024-03-05", status: models.StatusPending, normal: 600},
	)

	got, err := f.stats.DayStats(ctx(), testDate)
	require.NoError(t, err)

	assert.Equal(t, testDate, got.Date)
	assert.EqualValues(t, 3, got.Total)
	assert.EqualValues(t, 1, got.Pending)
	assert.EqualValues(t, 1, got.Approved)
	assert.EqualValues(t, 1, got.Rejected)
	assert.Equal(t, Hours{Normal: 3.25, Double: 0.33, Triple: 0}, got.Hours)
	assert.Equal(t, 0.5, got.ApprovedHours)
}

func TestDayStats_EmptyDateAndBadInput(t *testing.T) {
	f := newFixture(t)

	got, err := f.stats.DayStats(ctx(), "2024-01-01")
	require.NoError(t, err)
	assert.Zero(t, got.Total)
	assert.Equal(t, "2024-01-01", got.Date)

	_, err = f.stats.DayStats(ctx(), "yesterday")
	assert.True(t, IsValidation(err))
}

func TestRangeStats_AscendingOnePerDate(t *testing.T) {
	f := newFixture(t)
	seedEntries(t, f,
		seedRow{emp: 0, date: "2024-03-06", status: models.StatusPending, normal: 60},
		seedRow{emp: 0, date: "2024-03-04", status: models.StatusPending, normal: 60},
		seedRow{emp: 1, date: "2024-03-04", status: models.StatusApproved, normal: 30, approvedTotal: 30},
		seedRow{emp: 0, date: "2024-03-11", status: models.StatusPending, normal: 60},
	)

	got, err := f.stats.RangeStats(ctx(), "2024-03-04", "2024-03-10")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-04", got[0].Date)
	assert.EqualValues(t, 2, got[0].Total)
	assert.Equal(t, 1.5, got[0].Hours.Normal)
	assert.Equal(t, "2024-03-06", got[1].Date)

	_, err = f.stats.RangeStats(ctx(), "2024-03-10", "2024-03-04")
	assert.True(t, IsValidation(err))
}

func TestSummary_WindowsAndBuckets(t *testing.T) {
	f := newFixture(t)
	f.stats.now = func() time.Time { return time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) }
	seedEntries(t, f,
		seedRow{emp: 0, date: "2024-02-26", status: models.StatusPending, normal: 60},
		seedRow{emp: 0, date: "2024-03-04", status: models.StatusPending, normal: 60},
		seedRow{emp: 1, date: "2024-03-06", status: models.StatusApproved, normal: 60, approvedTotal: 60},
		seedRow{emp: 0, date: "2024-03-10", status: models.StatusPending, double: 120},
		seedRow{emp: 0, date: "2024-03-11", status: models.StatusPending, normal: 60},
		seedRow{emp: 0, date: "2024-12-31", status: models.StatusRejected, triple: 60},
	)

	cases := []struct {
		name     string
		req      SummaryRequest
		from, to string
		keys     []string
	}{
		{"daily defaults to today", SummaryRequest{Scope: ScopeDaily}, "2024-03-06", "2024-03-06", []string{"2024-03-06"}},
		{"weekly defaults to current week", SummaryRequest{Scope: ScopeWeekly}, "2024-03-04", "2024-03-10", []string{"2024-03-04"}},
		{"weekly from a sunday anchor", SummaryRequest{Scope: ScopeWeekly, Anchor: "2024-03-03"}, "2024-02-26", "2024-03-03", []string{"2024-02-26"}},
		{"monthly by month anchor", SummaryRequest{Scope: ScopeMonthly, Anchor: "2024-02"}, "2024-02-01", "2024-02-29", []string{"2024-02"}},
		{"monthly defaults to current month", SummaryRequest{Scope: ScopeMonthly}, "2024-03-01", "2024-03-31", []string{"2024-03"}},
		{"yearly by year anchor", SummaryRequest{Scope: ScopeYearly, Anchor: "2024"}, "2024-01-01", "2024-12-31", []string{"2024"}},
		{"explicit bounds bucket by week", SummaryRequest{Scope: ScopeWeekly, From: "2024-02-01", To: "2024-03-31"}, "2024-02-01", "2024-03-31",
			[]string{"2024-02-26", "2024-03-04", "2024-03-11"}},
		{"explicit bounds default to daily", SummaryRequest{From: "2024-03-04", To: "2024-03-06"}, "2024-03-04", "2024-03-06",
			[]string{"2024-03-04", "2024-03-06"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.stats.Summary(ctx(), tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.from, got.From)
			assert.Equal(t, tc.to, got.To)

			keys := make([]string, 0, len(got.Items))
			for _, it := range got.Items {
				keys = append(keys, it.Date)
			}
			assert.Equal(t, tc.keys, keys)
		})
	}
}

func TestSummary_WeekBucketAggregates(t *testing.T) {
	f := newFixture(t)
	seedEntries(t, f,
		seedRow{emp: 0, date: "2024-03-04", status: models.StatusPending, normal: 60},
		seedRow{emp: 1, date: "2024-03-06", status: models.StatusApproved, normal: 60, approvedTotal: 45},
		seedRow{emp: 0, date: "2024-03-10", status: models.StatusPending, double: 120},
	)

	got, err := f.stats.Summary(ctx(), SummaryRequest{Scope: ScopeWeekly, Anchor: "2024-03-08"})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	week := got.Items[0]
	assert.EqualValues(t, 3, week.Total)
	assert.EqualValues(t, 2, week.Pending)
	assert.EqualValues(t, 1, week.Approved)
	assert.Equal(t, Hours{Normal: 2, Double: 2}, week.Hours)
	assert.Equal(t, 0.75, week.ApprovedHours)
}

func TestSummary_InvalidInput(t *testing.T) {
	f := newFixture(t)

	cases := []SummaryRequest{
		{Scope: "hourly"},
		{Scope: ScopeDaily, Anchor: "2024-03"},
		{Scope: ScopeMonthly, Anchor: "March"},
		{Scope: ScopeYearly, Anchor: "24"},
		{From: "2024-03-01"},
		{From: "2024-03-05", To: "2024-03-01"},
	}
	for _, req := range cases {
		_, err := f.stats.Summary(ctx(), req)
		assert.True(t, IsValidation(err), "%+v: got %v", req, err)
	}
}

func TestWeekStart(t *testing.T) {
	for date, want := range map[string]string{
		"2024-03-04": "2024-03-04",
		"2024-03-09": "2024-03-04",
		"2024-03-10": "2024-03-04",
		"2024-01-01": "2024-01-01",
		"2023-01-01": "2022-12-26",
	} {
		assert.Equal(t, want, bucketKey(ScopeWeekly)(date), date)
	}
}
