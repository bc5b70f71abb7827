/*
calendar.go - Business-day counting

PURPOSE:
  A business day is a calendar day that is neither Saturday, Sunday nor a
  configured holiday. Leave entitlement is consumed in business days only.

HOLIDAY MATCHING:
  Holidays are matched on calendar date alone. A holiday stored as
  2025-12-25T00:00:00Z and a request day of 2025-12-25T09:00:00+02:00 are
  the same day. Duplicate holiday dates collapse into one entry; exclusion
  is boolean so duplicates never change a count.

EXAMPLE:
  holidays := generic.NewHolidaySet(generic.NewTimePoint(2025, time.July, 4))
  n := generic.CountBusinessDays(
      generic.NewTimePoint(2025, time.June, 30),
      generic.NewTimePoint(2025, time.July, 6),
      holidays,
  ) // 4: Mon-Fri minus Friday July 4

SEE ALSO:
  - timeoff/aggregate.go: Sums business days per request and category
*/
package generic

// =============================================================================
// HOLIDAY - Company-wide day off
// =============================================================================

// Holiday is a global non-working day. Holidays apply to every user.
type Holiday struct {
	ID   string
	Name string
	Date TimePoint
}

// HolidaySetOf collects the dates of holidays.
func HolidaySetOf(holidays []Holiday) HolidaySet {
	days := make([]TimePoint, 0, len(holidays))
	for _, h := range holidays {
		days = append(days, h.Date)
	}
	return NewHolidaySet(days...)
}

// =============================================================================
// HOLIDAY SET
// =============================================================================

// HolidaySet is a set of calendar dates. The zero value is an empty set.
type HolidaySet struct {
	dates map[DateKey]struct{}
}

// NewHolidaySet builds a set from days.
func NewHolidaySet(days ...TimePoint) HolidaySet {
	s := HolidaySet{dates: make(map[DateKey]struct{}, len(days))}
	for _, d := range days {
		if d.IsZero() {
			continue
		}
		s.dates[d.Key()] = struct{}{}
	}
	return s
}

// Contains reports whether day is a holiday.
func (s HolidaySet) Contains(day TimePoint) bool {
	if s.dates == nil {
		return false
	}
	_, ok := s.dates[day.Key()]
	return ok
}

// Len returns the number of distinct holiday dates.
func (s HolidaySet) Len() int {
	return len(s.dates)
}

// IsBusinessDay reports whether day is a weekday and not a holiday.
func (s HolidaySet) IsBusinessDay(day TimePoint) bool {
	return !day.IsWeekend() && !s.Contains(day)
}

// =============================================================================
// BUSINESS-DAY CALCULATOR
// =============================================================================

// CountBusinessDays counts business days in the inclusive interval
// [start, end]. It returns 0 when start is after end.
func CountBusinessDays(start, end TimePoint, holidays HolidaySet) int {
	return CountPeriodBusinessDays(NewPeriod(start, end), holidays)
}

// CountPeriodBusinessDays counts business days in p.
func CountPeriodBusinessDays(p Period, holidays HolidaySet) int {
	if p.IsEmpty() {
		return 0
	}
	count := 0
	for day := DateOf(p.Start.Time); day.BeforeOrEqual(p.End); day = day.AddDays(1) {
		if holidays.IsBusinessDay(day) {
			count++
		}
	}
	return count
}
