package timeoff

import "github.com/warp/dayoff/generic"

// =============================================================================
// LEAVE AGGREGATOR
// =============================================================================

// Aggregate sums the business days of requests that fall inside year.
//
// Each request is clipped to Jan 1 - Dec 31 of year first, so a request
// spanning a year boundary only contributes its own portion. Approved
// requests count as spent and requested; pending requests count as
// requested only; rejected and cancelled requests count nowhere.
//
// The caller filters requests by user. Inputs are not modified.
func Aggregate(year int, requests []LeaveRequest, holidays generic.HolidaySet) Totals {
	var t Totals
	for _, req := range requests {
		if !req.Status.CountsAsRequested() {
			continue
		}
		overlap, ok := req.Period().ClipToYear(year)
		if !ok {
			continue
		}
		days := generic.CountPeriodBusinessDays(overlap, holidays)

		switch req.Category.Resolve() {
		case CategoryVacation:
			if req.Status.CountsAsSpent() {
				t.SpentVacation += days
			}
			t.RequestedVacation += days
		case CategoryAdditional:
			if req.Status.CountsAsSpent() {
				t.SpentAdditional += days
			}
			t.RequestedAdditional += days
		}
	}
	return t
}

// FilterByUser returns the requests owned by userID, preserving order.
func FilterByUser(requests []LeaveRequest, userID string) []LeaveRequest {
	var out []LeaveRequest
	for _, r := range requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}
