package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"otadmin/models"
	"otadmin/otcalc"
)

type Scope string

const (
	ScopeDaily   Scope = "daily"
	ScopeWeekly  Scope = "weekly"
	ScopeMonthly Scope = "monthly"
	ScopeYearly  Scope = "yearly"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeDaily, ScopeWeekly, ScopeMonthly, ScopeYearly:
		return true
	}
	return false
}

type Hours struct {
	Normal float64 `json:"normal"`
	Double float64 `json:"double"`
	Triple float64 `json:"triple"`
}

// DayStats aggregates entries sharing one bucket key: a work date for day and
// range stats, or a summary bucket (date, week start, month, year).
type DayStats struct {
	Date          string  `json:"date"`
	Total         int64   `json:"total"`
	Pending       int64   `json:"pending"`
	Approved      int64   `json:"approved"`
	Rejected      int64   `json:"rejected"`
	Hours         Hours   `json:"hours"`
	ApprovedHours float64 `json:"approvedHours"`
}

type SummaryRequest struct {
	Scope  Scope
	Anchor string
	From   string
	To     string
}

type Summary struct {
	Scope Scope      `json:"scope"`
	From  string     `json:"from"`
	To    string     `json:"to"`
	Items []DayStats `json:"items"`
}

// StatsService reads persisted entries for reporting. It never writes.
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsService(db *gorm.DB, loc *time.Location) *StatsService {
	return &StatsService{db: db, now: func() time.Time { return time.Now().In(loc) }}
}

type statusAggregate struct {
	WorkDate        string
	Status          models.Status
	Count           int64
	NormalMinutes   int64
	DoubleMinutes   int64
	TripleMinutes   int64
	ApprovedMinutes int64
}

type bucket struct {
	key                                   string
	total, pending, approved, rejected    int64
	normal, double, triple, approvedTotal int64
}

func (b *bucket) add(r statusAggregate) {
	b.total += r.Count
	b.normal += r.NormalMinutes
	b.double += r.DoubleMinutes
	b.triple += r.TripleMinutes
	b.approvedTotal += r.ApprovedMinutes
	switch r.Status {
	case models.StatusPending:
		b.pending += r.Count
	case models.StatusApproved:
		b.approved += r.Count
	case models.StatusRejected:
		b.rejected += r.Count
	}
}

func (b *bucket) stats() DayStats {
	return DayStats{
		Date:     b.key,
		Total:    b.total,
		Pending:  b.pending,
		Approved: b.approved,
		Rejected: b.rejected,
		Hours: Hours{
			Normal: minutesToHours(b.normal),
			Double: minutesToHours(b.double),
			Triple: minutesToHours(b.triple),
		},
		ApprovedHours: minutesToHours(b.approvedTotal),
	}
}

// minutesToHours converts once, after summing, so rounding never accumulates.
func minutesToHours(m int64) float64 {
	return decimal.NewFromInt(m).Div(decimal.NewFromInt(60)).Round(2).InexactFloat64()
}

func (s *StatsService) DayStats(ctx context.Context, date string) (*DayStats, error) {
	if _, err := otcalc.ParseDate(date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	rows, err := s.aggregate(ctx, date, date)
	if err != nil {
		return nil, err
	}
	b := &bucket{key: date}
	for _, r := range rows {
		b.add(r)
	}
	out := b.stats()
	return &out, nil
}

// RangeStats returns one item per work date present in [from, to], ascending.
func (s *StatsService) RangeStats(ctx context.Context, from, to string) ([]DayStats, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	rows, err := s.aggregate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return groupBy(rows, func(date string) string { return date }), nil
}

// Summary resolves a window from explicit bounds or from (scope, anchor) and
// buckets it by scope.
func (s *StatsService) Summary(ctx context.Context, req SummaryRequest) (*Summary, error) {
	scope := req.Scope
	if scope == "" {
		scope = ScopeDaily
	}
	if !scope.Valid() {
		return nil, invalid("scope", "must be one of daily, weekly, monthly, yearly")
	}

	from, to := req.From, req.To
	if from != "" || to != "" {
		if err := validateRange(from, to); err != nil {
			return nil, err
		}
	} else {
		var err error
		if from, to, err = s.resolveWindow(scope, req.Anchor); err != nil {
			return nil, err
		}
	}

	rows, err := s.aggregate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &Summary{Scope: scope, From: from, To: to, Items: groupBy(rows, bucketKey(scope))}, nil
}

func (s *StatsService) resolveWindow(scope Scope, anchor string) (string, string, error) {
	today := s.now()
	ref := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	if anchor != "" {
		var err error
		ref, err = parseAnchor(scope, anchor)
		if err != nil {
			return "", "", err
		}
	}

	switch scope {
	case ScopeWeekly:
		start := weekStart(ref)
		return otcalc.FormatDate(start), otcalc.FormatDate(start.AddDate(0, 0, 6)), nil
	case ScopeMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return otcalc.FormatDate(start), otcalc.FormatDate(start.AddDate(0, 1, -1)), nil
	case ScopeYearly:
		return fmt.Sprintf("%04d-01-01", ref.Year()), fmt.Sprintf("%04d-12-31", ref.Year()), nil
	default:
		d := otcalc.FormatDate(ref)
		return d, d, nil
	}
}

// parseAnchor accepts a full date for any scope, YYYY-MM for monthly and
// YYYY for yearly.
func parseAnchor(scope Scope, anchor string) (time.Time, error) {
	if d, err := otcalc.ParseDate(anchor); err == nil {
		return d, nil
	}
	switch {
	case scope == ScopeMonthly && len(anchor) == 7:
		if d, err := time.Parse("2006-01", anchor); err == nil {
			return d, nil
		}
	case scope == ScopeYearly && len(anchor) == 4:
		if d, err := time.Parse("2006", anchor); err == nil {
			return d, nil
		}
	}
	return time.Time{}, invalid("anchor", "%q is not a valid %s anchor", anchor, scope)
}

func bucketKey(scope Scope) func(string) string {
	switch scope {
	case ScopeWeekly:
		return func(date string) string {
			d, err := otcalc.ParseDate(date)
			if err != nil {
				return date
			}
			return otcalc.FormatDate(weekStart(d))
		}
	case ScopeMonthly:
		return func(date string) string { return date[:7] }
	case ScopeYearly:
		return func(date string) string { return date[:4] }
	default:
		return func(date string) string { return date }
	}
}

// weekStart returns the Monday on or before d.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func groupBy(rows []statusAggregate, key func(string) string) []DayStats {
	buckets := make(map[string]*bucket)
	for _, r := range rows {
		k := key(r.WorkDate)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{key: k}
			buckets[k] = b
		}
		b.add(r)
	}

	out := make([]DayStats, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *StatsService) aggregate(ctx context.Context, from, to string) ([]statusAggregate, error) {
	var rows []statusAggregate
	err := s.db.WithContext(ctx).Model(&models.OvertimeEntry{}).
		Select(`work_date, status, COUNT(*) AS count,
			COALESCE(SUM(normal_minutes), 0) AS normal_minutes,
			COALESCE(SUM(double_minutes), 0) AS double_minutes,
			COALESCE(SUM(triple_minutes), 0) AS triple_minutes,
			COALESCE(SUM(approved_total_minutes), 0) AS approved_minutes`).
		Where("work_date BETWEEN ? AND ?", from, to).
		Group("work_date, status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate overtime %s..%s: %w", from, to, err)
	}
	return rows, nil
}

func validateRange(from, to string) error {
	if _, err := otcalc.ParseDate(from); err != nil {
		return invalid("from", "must be YYYY-MM-DD")
	}
	if _, err := otcalc.ParseDate(to); err != nil {
		return invalid("to", "must be YYYY-MM-DD")
	}
	if from > to {
		return invalid("to", "must not be before from")
	}
	return nil
}
