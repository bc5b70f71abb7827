package generic

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ExpandRecurring returns the occurrences of an RFC 5545 recurrence rule that
// fall on days within the given calendar years. Rules without DTSTART are
// anchored at Jan 1 of the first year, so
//
//	FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25
//	FREQ=YEARLY;BYMONTH=11;BYDAY=4TH
//
// produce Christmas Day and the fourth Thursday of November.
func ExpandRecurring(rule string, years ...int) ([]TimePoint, error) {
	if len(years) == 0 {
		return nil, nil
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
	}

	first, last := years[0], years[0]
	for _, y := range years[1:] {
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = time.Date(first, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
	}

	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}

	from := time.Date(first, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(last, time.December, 31, 23, 59, 59, 0, time.UTC)
	var out []TimePoint
	for _, occ := range r.Between(from, to, true) {
		day := DateOf(occ)
		if wanted[day.Year()] {
			out = append(out, day)
		}
	}
	return out, nil
}

// ValidateRecurrence reports whether rule parses as a recurrence rule.
func ValidateRecurrence(rule string) error {
	if _, err := rrule.StrToROption(rule); err != nil {
		return fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
	}
	return nil
}
