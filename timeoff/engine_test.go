package timeoff_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func leave(id string, start, end generic.TimePoint, c timeoff.Category, s timeoff.Status) timeoff.LeaveRequest {
	return timeoff.LeaveRequest{
		ID:        id,
		UserID:    "u-1",
		StartDate: start,
		EndDate:   end,
		Category:  c,
		Status:    s,
		Reason:    "family trip to the coast",
	}
}

func testUser(vacation, additional int) *timeoff.User {
	return &timeoff.User{
		ID:                  "u-1",
		Name:                "Jane Doe",
		Email:               "jane@example.com",
		Role:                timeoff.RoleUser,
		AllocatedVacation:   vacation,
		AllocatedAdditional: additional,
	}
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregate_StatusContributions(t *testing.T) {
	// GIVEN: One request per status, each a Mon-Fri week in 2025
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
		leave("r2", day(2025, 3, 10), day(2025, 3, 14), timeoff.CategoryVacation, timeoff.StatusPending),
		leave("r3", day(2025, 3, 17), day(2025, 3, 21), timeoff.CategoryVacation, timeoff.StatusRejected),
		leave("r4", day(2025, 3, 24), day(2025, 3, 28), timeoff.CategoryVacation, timeoff.StatusCancelled),
	}

	// WHEN: Aggregating
	totals := timeoff.Aggregate(2025, requests, generic.HolidaySet{})

	// THEN: Approved counts as spent, approved and pending as requested
	assert.Equal(t, 5, totals.SpentVacation)
	assert.Equal(t, 10, totals.RequestedVacation)
	assert.Equal(t, 0, totals.SpentAdditional)
	assert.Equal(t, 0, totals.RequestedAdditional)
}

func TestAggregate_LegacyCategoryIsVacation(t *testing.T) {
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), "", timeoff.StatusApproved),
	}

	totals := timeoff.Aggregate(2025, requests, generic.HolidaySet{})

	assert.Equal(t, 5, totals.SpentVacation)
	assert.Equal(t, 0, totals.SpentAdditional)
}

func TestAggregate_CategoriesKeptApart(t *testing.T) {
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
		leave("r2", day(2025, 4, 7), day(2025, 4, 8), timeoff.CategoryAdditional, timeoff.StatusApproved),
		leave("r3", day(2025, 4, 9), day(2025, 4, 9), timeoff.CategoryAdditional, timeoff.StatusPending),
	}

	totals := timeoff.Aggregate(2025, requests, generic.HolidaySet{})

	assert.Equal(t, timeoff.Totals{
		SpentVacation:       5,
		SpentAdditional:     2,
		RequestedVacation:   5,
		RequestedAdditional: 3,
	}, totals)
}

func TestAggregate_CrossYearRequestSplits(t *testing.T) {
	// GIVEN: Mon 2025-12-29 .. Fri 2026-01-02, Jan 1 is a holiday
	holidays := generic.NewHolidaySet(day(2026, 1, 1))
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 12, 29), day(2026, 1, 2), timeoff.CategoryVacation, timeoff.StatusApproved),
	}

	// WHEN/THEN: Each year sees only its own business days
	assert.Equal(t, 3, timeoff.Aggregate(2025, requests, holidays).SpentVacation)
	assert.Equal(t, 1, timeoff.Aggregate(2026, requests, holidays).SpentVacation)
	assert.Equal(t, 0, timeoff.Aggregate(2024, requests, holidays).SpentVacation)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), "", timeoff.StatusApproved),
	}
	before := requests[0]

	timeoff.Aggregate(2025, requests, generic.HolidaySet{})

	assert.Equal(t, before, requests[0])
	assert.Equal(t, timeoff.Category(""), requests[0].Category)
}

func TestFilterByUser(t *testing.T) {
	a := leave("r1", day(2025, 3, 3), day(2025, 3, 7), "", timeoff.StatusApproved)
	b := a
	b.ID, b.UserID = "r2", "u-2"

	got := timeoff.FilterByUser([]timeoff.LeaveRequest{a, b}, "u-2")
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)
}

// =============================================================================
// BALANCE REPORT
// =============================================================================

func TestCalculateUserYearStats_ApprovedWeek(t *testing.T) {
	// GIVEN: 20 vacation days and one approved Mon-Fri week
	user := testUser(20, 0)
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
	}

	// WHEN: Computing the 2025 balance
	stats := timeoff.CalculateUserYearStats(2025, user, requests, nil)

	// THEN: 15 days remain
	assert.Equal(t, 5, stats.SpentVacation)
	assert.Equal(t, 15, stats.RemainingVacation)
	assert.Equal(t, 5, stats.TotalApprovedDays)
	assert.False(t, stats.ExceededVacation)
}

func TestCalculateUserYearStats_WednesdayHoliday(t *testing.T) {
	user := testUser(20, 0)
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
	}
	holidays := []generic.Holiday{{ID: "h1", Name: "Company Day", Date: day(2025, 3, 5)}}

	stats := timeoff.CalculateUserYearStats(2025, user, requests, holidays)

	assert.Equal(t, 4, stats.SpentVacation)
	assert.Equal(t, 16, stats.RemainingVacation)
}

func TestCalculateUserYearStats_OverbookedClampsToZero(t *testing.T) {
	// GIVEN: 3 vacation days and a 5-day approved request
	user := testUser(3, 0)
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
	}

	stats := timeoff.CalculateUserYearStats(2025, user, requests, nil)

	// THEN: Remaining is 0, not -2, and the overrun is flagged
	assert.Equal(t, 0, stats.RemainingVacation)
	assert.Equal(t, 5, stats.SpentVacation)
	assert.True(t, stats.ExceededVacation)
	assert.Equal(t, "166.7", stats.Usage(timeoff.CategoryVacation).String())
}

func TestCalculateUserYearStats_RemainingNeverNegative(t *testing.T) {
	for allocated := 0; allocated <= 10; allocated++ {
		for spent := 0; spent <= 15; spent++ {
			stats := timeoff.Report(2025, timeoff.Entitlement{Vacation: allocated, Additional: allocated},
				timeoff.Totals{SpentVacation: spent, SpentAdditional: spent})
			assert.GreaterOrEqual(t, stats.RemainingVacation, 0)
			assert.GreaterOrEqual(t, stats.RemainingAdditional, 0)
			assert.Equal(t, max(0, allocated-spent), stats.RemainingVacation)
		}
	}
}

func TestCalculateUserYearStats_MissingUserIsZeroAllocation(t *testing.T) {
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
	}

	stats := timeoff.CalculateUserYearStats(2025, nil, requests, nil)

	assert.Equal(t, 0, stats.AllocatedVacation)
	assert.Equal(t, 0, stats.RemainingVacation)
	assert.Equal(t, 5, stats.TotalApprovedDays)
	assert.True(t, stats.Usage(timeoff.CategoryVacation).IsZero())
}

func TestCalculateUserYearStats_EmptyInputs(t *testing.T) {
	stats := timeoff.CalculateUserYearStats(2025, nil, nil, nil)
	assert.Equal(t, timeoff.YearStats{Year: 2025}, stats)
}

func TestCalculateUserYearStats_Idempotent(t *testing.T) {
	user := testUser(20, 5)
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
		leave("r2", day(2025, 5, 5), day(2025, 5, 6), timeoff.CategoryAdditional, timeoff.StatusPending),
	}
	holidays := []generic.Holiday{{ID: "h1", Name: "Company Day", Date: day(2025, 3, 5)}}

	first := timeoff.CalculateUserYearStats(2025, user, requests, holidays)
	second := timeoff.CalculateUserYearStats(2025, user, requests, holidays)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.PendingAdditional)
	assert.Equal(t, 4, first.RequestedVacation)
}

func TestUsage(t *testing.T) {
	stats := timeoff.YearStats{AllocatedVacation: 20, SpentVacation: 5, AllocatedAdditional: 3, SpentAdditional: 1}
	assert.Equal(t, "25", stats.Usage(timeoff.CategoryVacation).String())
	assert.Equal(t, "33.3", stats.Usage(timeoff.CategoryAdditional).String())
}

func TestCalculateProfileBalance(t *testing.T) {
	user := testUser(20, 0)
	requests := []timeoff.LeaveRequest{
		leave("r1", day(2024, 12, 30), day(2025, 1, 3), timeoff.CategoryVacation, timeoff.StatusApproved),
	}

	balance := timeoff.CalculateProfileBalance(2025, user, requests, nil)

	assert.Equal(t, 2025, balance.Current.Year)
	assert.Equal(t, 3, balance.Current.SpentVacation)
	assert.Equal(t, 2024, balance.Previous.Year)
	assert.Equal(t, 2, balance.Previous.SpentVacation)
}

// =============================================================================
// ADMISSION
// =============================================================================

func TestCheckAdmission_Shortfall(t *testing.T) {
	// GIVEN: 20 vacation days with 15 already approved
	ent := timeoff.Entitlement{Vacation: 20}
	existing := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 21), timeoff.CategoryVacation, timeoff.StatusApproved),
	}

	// WHEN: Proposing two working weeks (10 business days)
	a := timeoff.CheckAdmission(timeoff.Proposal{
		StartDate: day(2025, 6, 2),
		EndDate:   day(2025, 6, 13),
		Category:  timeoff.CategoryVacation,
	}, existing, generic.HolidaySet{}, ent)

	// THEN: Blocked with the shortfall
	assert.False(t, a.Allowed)
	require.NotNil(t, a.Shortfall)
	assert.Equal(t, timeoff.Shortfall{
		Category:  timeoff.CategoryVacation,
		Year:      2025,
		Requested: 10,
		Remaining: 5,
	}, *a.Shortfall)

	var ie *generic.InsufficientEntitlementError
	require.True(t, errors.As(a.Err(), &ie))
	assert.True(t, errors.Is(a.Err(), generic.ErrInsufficientEntitlement))
	assert.Equal(t, 5, ie.Shortfall())
}

func TestCheckAdmission_OtherCategoryAllowed(t *testing.T) {
	// GIVEN: Vacation exhausted but additional pool untouched
	ent := timeoff.Entitlement{Vacation: 5, Additional: 10}
	existing := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
	}
	p := timeoff.Proposal{StartDate: day(2025, 6, 2), EndDate: day(2025, 6, 6), Category: timeoff.CategoryVacation}

	blocked := timeoff.CheckAdmission(p, existing, generic.HolidaySet{}, ent)
	p.Category = p.Category.Other()
	allowed := timeoff.CheckAdmission(p, existing, generic.HolidaySet{}, ent)

	assert.False(t, blocked.Allowed)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, timeoff.CategoryAdditional, allowed.Category)
	assert.Equal(t, 10, allowed.Remaining)
	assert.NoError(t, allowed.Err())
}

func TestCheckAdmission_ExactFitAllowed(t *testing.T) {
	ent := timeoff.Entitlement{Vacation: 5}
	a := timeoff.CheckAdmission(timeoff.Proposal{
		StartDate: day(2025, 6, 2),
		EndDate:   day(2025, 6, 6),
	}, nil, generic.HolidaySet{}, ent)

	assert.True(t, a.Allowed)
	assert.Equal(t, timeoff.CategoryVacation, a.Category)
	assert.Equal(t, 5, a.BusinessDays)
	assert.Nil(t, a.Shortfall)
}

func TestCheckAdmission_PendingDoesNotReduceRemaining(t *testing.T) {
	ent := timeoff.Entitlement{Vacation: 5}
	existing := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusPending),
	}

	a := timeoff.CheckAdmission(timeoff.Proposal{
		StartDate: day(2025, 6, 2),
		EndDate:   day(2025, 6, 6),
	}, existing, generic.HolidaySet{}, ent)

	assert.True(t, a.Allowed)
	assert.Equal(t, 5, a.Remaining)
}

func TestCheckAdmission_WeekendOnlyWarns(t *testing.T) {
	a := timeoff.CheckAdmission(timeoff.Proposal{
		StartDate: day(2025, 7, 5),
		EndDate:   day(2025, 7, 6),
	}, nil, generic.HolidaySet{}, timeoff.Entitlement{})

	assert.True(t, a.Allowed)
	assert.True(t, a.NoDeduction)
	assert.Equal(t, 0, a.BusinessDays)
	assert.Equal(t, timeoff.NoDeductionWarning, a.Warning())
}

func TestCheckAdmission_UsesStartYear(t *testing.T) {
	// GIVEN: 2025 exhausted, 2026 untouched
	ent := timeoff.Entitlement{Vacation: 5}
	existing := []timeoff.LeaveRequest{
		leave("r1", day(2025, 3, 3), day(2025, 3, 7), timeoff.CategoryVacation, timeoff.StatusApproved),
	}

	// WHEN: Proposing Dec 31 2025 .. Jan 2 2026
	a := timeoff.CheckAdmission(timeoff.Proposal{
		StartDate: day(2025, 12, 31),
		EndDate:   day(2026, 1, 2),
	}, existing, generic.HolidaySet{}, ent)

	// THEN: Judged against 2025 with the full interval counted
	assert.Equal(t, 2025, a.Year)
	assert.Equal(t, 3, a.BusinessDays)
	assert.False(t, a.Allowed)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, timeoff.CategoryVacation, timeoff.Category("").Resolve())
	assert.True(t, timeoff.Category("").Valid())
	assert.False(t, timeoff.Category("sabbatical").Valid())
	assert.Equal(t, timeoff.CategoryVacation, timeoff.CategoryAdditional.Other())
	assert.Equal(t, timeoff.CategoryAdditional, timeoff.Category("").Other())
}
