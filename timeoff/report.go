/*
report.go - Yearly balance report

PURPOSE:
  Turns aggregated business-day totals and a user's allocation into the
  figures shown on the profile page: spent, pending, remaining and whether
  the allocation was exceeded.

REMAINING:
  remaining = max(0, allocated - spent)

  Over-booking is allowed. Approved usage above the allocation is reported
  through the Exceeded flags while remaining stays at 0.

EXAMPLE:
  stats := timeoff.CalculateUserYearStats(2025, &user, userRequests, holidays)
  stats.RemainingVacation // 15 for 20 allocated and one approved Mon-Fri week

SEE ALSO:
  - aggregate.go: Builds the Totals consumed here
  - admission.go: Uses RemainingVacation/RemainingAdditional at submission
*/
package timeoff

import (
	"github.com/shopspring/decimal"
	"github.com/warp/dayoff/generic"
)

// =============================================================================
// BALANCE REPORTER
// =============================================================================

// Report combines totals with an entitlement. It never fails; zero inputs
// give an all-zero record for the year.
func Report(year int, ent Entitlement, t Totals) YearStats {
	return YearStats{
		Year:                year,
		AllocatedVacation:   ent.Vacation,
		AllocatedAdditional: ent.Additional,
		SpentVacation:       t.SpentVacation,
		SpentAdditional:     t.SpentAdditional,
		RequestedVacation:   t.RequestedVacation,
		RequestedAdditional: t.RequestedAdditional,
		PendingVacation:     t.RequestedVacation - t.SpentVacation,
		PendingAdditional:   t.RequestedAdditional - t.SpentAdditional,
		RemainingVacation:   max(0, ent.Vacation-t.SpentVacation),
		RemainingAdditional: max(0, ent.Additional-t.SpentAdditional),
		TotalApprovedDays:   t.SpentVacation + t.SpentAdditional,
		ExceededVacation:    t.SpentVacation > ent.Vacation,
		ExceededAdditional:  t.SpentAdditional > ent.Additional,
	}
}

// CalculateUserYearStats computes the year balance of user from the user's
// own requests. A nil user is treated as having no allocation.
func CalculateUserYearStats(year int, user *User, userRequests []LeaveRequest, holidays []generic.Holiday) YearStats {
	return Report(year, user.Entitlement(), Aggregate(year, userRequests, generic.HolidaySetOf(holidays)))
}

// =============================================================================
// USAGE - Share of the allocation already spent
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Usage returns spent / allocated as a percentage rounded to one decimal
// place. It is zero when nothing is allocated and may exceed 100.
func (s YearStats) Usage(c Category) decimal.Decimal {
	allocated := s.Allocated(c)
	if allocated <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Spent(c))).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(allocated)), 1)
}

// ProfileBalance is the current and previous year side by side.
type ProfileBalance struct {
	Current  YearStats
	Previous YearStats
}

// CalculateProfileBalance reports year and year-1.
func CalculateProfileBalance(year int, user *User, userRequests []LeaveRequest, holidays []generic.Holiday) ProfileBalance {
	set := generic.HolidaySetOf(holidays)
	ent := user.Entitlement()
	return ProfileBalance{
		Current:  Report(year, ent, Aggregate(year, userRequests, set)),
		Previous: Report(year-1, ent, Aggregate(year-1, userRequests, set)),
	}
}
