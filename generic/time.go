/*
Package generic provides the calendar primitives the accounting engine is built on.

PURPOSE:
  Leave is counted in whole calendar days. Request dates and holiday dates
  arrive from different sources (JSON bodies, SQLite rows, config files) and
  may carry different times of day or locations. Everything in this package
  reduces them to a calendar date first, so "same day" always means same
  year-month-day.

KEY CONCEPTS:
  - TimePoint: A calendar day (no time of day, always UTC midnight)
  - Period:    An inclusive [Start, End] interval of days
  - HolidaySet: Calendar-date lookup for business-day counting

SEE ALSO:
  - period.go:   Interval clipping to a calendar year
  - calendar.go: Business-day counting
  - recurring.go: Recurring holiday expansion
*/
package generic

import (
	"time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// TimePoint is a single calendar day. The zero value is the zero time and
// reports IsZero.
type TimePoint struct {
	Time time.Time
}

// NewTimePoint returns the calendar day year-month-day.
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's own location.
// 2025-03-10T23:30:00-05:00 is March 10, not March 11.
func DateOf(t time.Time) TimePoint {
	if t.IsZero() {
		return TimePoint{}
	}
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DateOf(t), nil
}

func Today() TimePoint {
	return DateOf(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint  { return DateOf(tp.normalize().AddDate(0, 0, n)) }
func (tp TimePoint) AddYears(n int) TimePoint { return DateOf(tp.normalize().AddDate(n, 0, 0)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.normalize().Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Key returns a comparable calendar-date value usable as a map key.
func (tp TimePoint) Key() DateKey {
	return DateKey{Year: tp.Time.Year(), Month: tp.Time.Month(), Day: tp.Time.Day()}
}

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// DateKey identifies a calendar date independently of time and location.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint   { return NewTimePoint(year, time.December, 31) }

// MaxDate returns the later of a and b.
func MaxDate(a, b TimePoint) TimePoint {
	if a.After(b) {
		return a
	}
	return b
}

// MinDate returns the earlier of a and b.
func MinDate(a, b TimePoint) TimePoint {
	if a.Before(b) {
		return a
	}
	return b
}
