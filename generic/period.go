package generic

// =============================================================================
// PERIOD - Inclusive interval of calendar days
// =============================================================================

// Period is the inclusive day interval [Start, End].
//
// A period whose End is before its Start is empty. Empty periods are valid
// values: they contain no days and count zero business days.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod returns [start, end] reduced to calendar days.
func NewPeriod(start, end TimePoint) Period {
	return Period{Start: DateOf(start.Time), End: DateOf(end.Time)}
}

// YearPeriod returns Jan 1 - Dec 31 of year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// IsEmpty reports whether the period contains no days.
func (p Period) IsEmpty() bool {
	return p.Start.After(p.End)
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period in ascending order.
func (p Period) Days() []TimePoint {
	if p.IsEmpty() {
		return nil
	}
	var days []TimePoint
	for current := DateOf(p.Start.Time); current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Intersect returns the overlap of p and other and whether it is non-empty.
func (p Period) Intersect(other Period) (Period, bool) {
	overlap := Period{
		Start: MaxDate(p.Start, other.Start),
		End:   MinDate(p.End, other.End),
	}
	if overlap.IsEmpty() {
		return Period{}, false
	}
	return overlap, true
}

// ClipToYear returns the part of p that falls inside the calendar year.
// A request spanning Dec 30 - Jan 2 clips to Dec 30-31 for the first year
// and Jan 1-2 for the second. ok is false when p does not touch the year.
func (p Period) ClipToYear(year int) (Period, bool) {
	return p.Intersect(YearPeriod(year))
}

// Years returns every calendar year the period touches, ascending.
func (p Period) Years() []int {
	if p.IsEmpty() {
		return nil
	}
	years := make([]int, 0, p.End.Year()-p.Start.Year()+1)
	for y := p.Start.Year(); y <= p.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
