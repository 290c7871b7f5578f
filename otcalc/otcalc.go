// Package otcalc turns clock-in/clock-out times into payable overtime minutes.
//
// The computation is pure: the same input always yields the same result and
// nothing is read from or written to storage. Whether a date is a triple day
// is decided by the caller and passed in.
package otcalc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60
	dateLayout    = "2006-01-02"
)

var (
	ErrInvalidClock = errors.New("invalid clock time")
	ErrInvalidDate  = errors.New("invalid work date")
)

type DayType string

const (
	Weekday  DayType = "WEEKDAY"
	Saturday DayType = "SATURDAY"
	Sunday   DayType = "SUNDAY"
)

type ShiftClass string

const (
	Shift0630  ShiftClass = "SHIFT_0630"
	Shift0830  ShiftClass = "SHIFT_0830"
	ShiftOther ShiftClass = "OTHER"
)

// Policy holds the business constants of the overtime rules. All clock values
// are minutes since midnight.
type Policy struct {
	BreakMinutes      int
	BreakAppliesAt    int
	RoundingStep      int
	NightAfter        int
	SaturdayShift0630 int
	SaturdayOther     int
	WeekdayShift0630  int
	WeekdayOther      int
}

// DefaultPolicy returns the rules the plant has always run with.
func DefaultPolicy() Policy {
	return Policy{
		BreakMinutes:      60,
		BreakAppliesAt:    6 * 60,
		RoundingStep:      15,
		NightAfter:        21 * 60,
		SaturdayShift0630: 11*60 + 30,
		SaturdayOther:     13*60 + 30,
		WeekdayShift0630:  15*60 + 30,
		WeekdayOther:      17*60 + 30,
	}
}

type Input struct {
	WorkDate  string
	Shift     string
	InTime    string
	OutTime   string
	TripleDay bool
}

// Result is the categorized outcome. At most one of the three buckets is
// non-zero.
type Result struct {
	NormalMinutes int  `json:"normalMinutes"`
	DoubleMinutes int  `json:"doubleMinutes"`
	TripleMinutes int  `json:"tripleMinutes"`
	IsNight       bool `json:"isNight"`
}

func (r Result) Total() int {
	return r.NormalMinutes + r.DoubleMinutes + r.TripleMinutes
}

// Compute applies the policy to one worked day.
func (p Policy) Compute(in Input) (Result, error) {
	inMin, err := ParseClock(in.InTime)
	if err != nil {
		return Result{}, err
	}
	outMin, err := ParseClock(in.OutTime)
	if err != nil {
		return Result{}, err
	}
	day, err := ClassifyDay(in.WorkDate)
	if err != nil {
		return Result{}, err
	}

	outAdjusted := outMin
	if outMin < inMin {
		outAdjusted += minutesPerDay
	}

	res := Result{IsNight: outAdjusted > p.NightAfter}
	worked := max(0, outAdjusted-inMin)

	switch {
	case in.TripleDay:
		res.TripleMinutes = p.finalize(worked)
	case day == Sunday:
		res.DoubleMinutes = p.finalize(worked)
	default:
		start := max(inMin, p.OTStart(day, ClassifyShift(in.Shift)))
		res.NormalMinutes = p.finalize(max(0, outAdjusted-start))
	}
	return res, nil
}

// OTStart is the time of day after which a weekday or Saturday shift earns
// overtime.
func (p Policy) OTStart(day DayType, shift ShiftClass) int {
	if day == Saturday {
		if shift == Shift0630 {
			return p.SaturdayShift0630
		}
		return p.SaturdayOther
	}
	if shift == Shift0630 {
		return p.WeekdayShift0630
	}
	return p.WeekdayOther
}

func (p Policy) finalize(mins int) int {
	if mins >= p.BreakAppliesAt {
		mins = max(0, mins-p.BreakMinutes)
	}
	if p.RoundingStep <= 1 {
		return mins
	}
	return mins / p.RoundingStep * p.RoundingStep
}

// ClassifyDay maps a YYYY-MM-DD date onto its day type.
func ClassifyDay(workDate string) (DayType, error) {
	d, err := ParseDate(workDate)
	if err != nil {
		return "", err
	}
	switch d.Weekday() {
	case time.Sunday:
		return Sunday, nil
	case time.Saturday:
		return Saturday, nil
	default:
		return Weekday, nil
	}
}

func ClassifyShift(shift string) ShiftClass {
	s := strings.ToLower(strings.TrimSpace(shift))
	switch {
	case s == "shift 1" || strings.Contains(s, "6:30") || strings.Contains(s, "0630"):
		return Shift0630
	case s == "shift 2" || strings.Contains(s, "8:30") || strings.Contains(s, "0830"):
		return Shift0830
	default:
		return ShiftOther
	}
}

// ParseClock converts "HH:MM" (or "H:MM") into minutes since midnight. Both
// parts must be plain digits.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// NormalizeClock rewrites a valid clock string in its zero-padded form.
func NormalizeClock(s string) (string, error) {
	mins, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(mins), nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseDate parses a fixed-width YYYY-MM-DD date anchored at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(dateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
