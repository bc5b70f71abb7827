package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/dayoff/generic"
)

func dates(days []generic.TimePoint) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.String())
	}
	return out
}

func TestExpandRecurring_FixedDate(t *testing.T) {
	days, err := generic.ExpandRecurring("FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", 2025, 2026)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-25", "2026-12-25"}, dates(days))
}

func TestExpandRecurring_NthWeekday(t *testing.T) {
	// Fourth Thursday of November
	days, err := generic.ExpandRecurring("FREQ=YEARLY;BYMONTH=11;BYDAY=4TH", 2025)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-11-27"}, dates(days))
}

func TestExpandRecurring_NonContiguousYears(t *testing.T) {
	days, err := generic.ExpandRecurring("FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1", 2027, 2025)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2027-01-01"}, dates(days))
}

func TestExpandRecurring_NoYears(t *testing.T) {
	days, err := generic.ExpandRecurring("FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1")
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestExpandRecurring_InvalidRule(t *testing.T) {
	_, err := generic.ExpandRecurring("FREQ=SOMETIMES", 2025)
	assert.Error(t, err)
	assert.Error(t, generic.ValidateRecurrence("FREQ=SOMETIMES"))
	assert.NoError(t, generic.ValidateRecurrence("FREQ=YEARLY;BYMONTH=7;BYMONTHDAY=4"))
}
