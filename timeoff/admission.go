package timeoff

import "github.com/warp/dayoff/generic"

// NoDeductionWarning is shown when a submission contains no business days.
const NoDeductionWarning = "The selected dates contain no business days. No leave will be deducted."

// Proposal is a request that has not been created yet.
type Proposal struct {
	StartDate generic.TimePoint
	EndDate   generic.TimePoint
	Category  Category
}

// Shortfall describes why a proposal was not admitted.
type Shortfall struct {
	Category  Category
	Year      int
	Requested int
	Remaining int
}

// Admission is the outcome of checking a proposal against entitlement.
type Admission struct {
	Allowed      bool
	Year         int
	Category     Category
	BusinessDays int
	Remaining    int
	Shortfall    *Shortfall

	// NoDeduction is set when the proposal has zero business days. The
	// proposal is allowed but consumes nothing.
	NoDeduction bool
}

// Warning returns the user-facing warning for an allowed proposal, if any.
func (a Admission) Warning() string {
	if a.Allowed && a.NoDeduction {
		return NoDeductionWarning
	}
	return ""
}

// Err returns an *generic.InsufficientEntitlementError when the proposal was
// not admitted, nil otherwise.
func (a Admission) Err() error {
	if a.Allowed || a.Shortfall == nil {
		return nil
	}
	return &generic.InsufficientEntitlementError{
		Category:  string(a.Shortfall.Category),
		Year:      a.Shortfall.Year,
		Requested: a.Shortfall.Requested,
		Remaining: a.Shortfall.Remaining,
	}
}

// CheckAdmission decides whether p fits in the remaining entitlement.
//
// The business days of the whole proposed interval are compared with the
// remaining days of p's category in the year of p's start date. Remaining is
// computed from existing requests only; p itself is not counted. A proposal
// is never split across categories.
func CheckAdmission(p Proposal, existing []LeaveRequest, holidays generic.HolidaySet, ent Entitlement) Admission {
	category := p.Category.Resolve()
	year := p.StartDate.Year()
	requested := generic.CountBusinessDays(p.StartDate, p.EndDate, holidays)

	stats := Report(year, ent, Aggregate(year, existing, holidays))
	remaining := stats.Remaining(category)

	a := Admission{
		Allowed:      true,
		Year:         year,
		Category:     category,
		BusinessDays: requested,
		Remaining:    remaining,
		NoDeduction:  requested == 0,
	}
	if requested > remaining {
		a.Allowed = false
		a.Shortfall = &Shortfall{
			Category:  category,
			Year:      year,
			Requested: requested,
			Remaining: remaining,
		}
	}
	return a
}
