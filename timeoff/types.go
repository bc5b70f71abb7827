// Package timeoff implements day-off requests and leave-balance accounting.
// It uses the generic calendar primitives for business-day arithmetic.
package timeoff

import (
	"time"

	"github.com/warp/dayoff/generic"
)

// =============================================================================
// CATEGORY - Which entitlement pool a request draws from
// =============================================================================

// Category classifies a leave request. Each category has its own pool.
// The empty category appears on legacy records and means vacation.
type Category string

const (
	CategoryVacation   Category = "vacation"
	CategoryAdditional Category = "additional"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryVacation, CategoryAdditional}

// Resolve applies the legacy default: an absent category is vacation.
func (c Category) Resolve() Category {
	if c == "" {
		return CategoryVacation
	}
	return c
}

// Valid reports whether c names a known category after defaulting.
func (c Category) Valid() bool {
	switch c.Resolve() {
	case CategoryVacation, CategoryAdditional:
		return true
	}
	return false
}

// Other returns the opposite pool. Callers use it to suggest switching
// categories when one pool is exhausted.
func (c Category) Other() Category {
	if c.Resolve() == CategoryAdditional {
		return CategoryVacation
	}
	return CategoryAdditional
}

// =============================================================================
// STATUS - Request lifecycle
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CountsAsSpent reports whether requests in this state consume entitlement.
func (s Status) CountsAsSpent() bool { return s == StatusApproved }

// CountsAsRequested reports whether requests in this state are included in
// the would-be-spent total.
func (s Status) CountsAsRequested() bool { return s == StatusApproved || s == StatusPending }

// =============================================================================
// USERS
// =============================================================================

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an employee with a yearly allocation per category. The allocation
// is the same for every year.
type User struct {
	ID                  string
	Name                string
	Email               string
	Role                Role
	AllocatedVacation   int
	AllocatedAdditional int
	CreatedAt           time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Entitlement returns the user's allocation. A nil user has none.
func (u *User) Entitlement() Entitlement {
	if u == nil {
		return Entitlement{}
	}
	return Entitlement{Vacation: u.AllocatedVacation, Additional: u.AllocatedAdditional}
}

// Entitlement is the allocated number of days per category.
type Entitlement struct {
	Vacation   int
	Additional int
}

// For returns the allocation of category c.
func (e Entitlement) For(c Category) int {
	switch c.Resolve() {
	case CategoryVacation:
		return e.Vacation
	case CategoryAdditional:
		return e.Additional
	}
	return 0
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

// LeaveRequest is a request for the inclusive day range [StartDate, EndDate].
// ID, UserID and CreatedAt never change after creation; Status changes only
// through explicit transitions.
type LeaveRequest struct {
	ID        string
	UserID    string
	StartDate generic.TimePoint
	EndDate   generic.TimePoint
	Category  Category
	Status    Status
	Reason    string

	// Advisory text attached after submission. Never used in balance math.
	RejectionSuggestions []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period returns the requested days.
func (r LeaveRequest) Period() generic.Period {
	return generic.NewPeriod(r.StartDate, r.EndDate)
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Totals are business-day sums over a set of requests for one year.
type Totals struct {
	SpentVacation       int
	SpentAdditional     int
	RequestedVacation   int
	RequestedAdditional int
}

// Spent returns the approved business days of category c.
func (t Totals) Spent(c Category) int {
	if c.Resolve() == CategoryAdditional {
		return t.SpentAdditional
	}
	return t.SpentVacation
}

// Requested returns the approved plus pending business days of category c.
func (t Totals) Requested(c Category) int {
	if c.Resolve() == CategoryAdditional {
		return t.RequestedAdditional
	}
	return t.RequestedVacation
}

// YearStats is a user's balance for one calendar year. It is computed on
// demand and never stored.
type YearStats struct {
	Year                int
	AllocatedVacation   int
	AllocatedAdditional int
	SpentVacation       int
	SpentAdditional     int
	RequestedVacation   int
	RequestedAdditional int
	PendingVacation     int
	PendingAdditional   int
	RemainingVacation   int
	RemainingAdditional int
	TotalApprovedDays   int

	// Set when approved usage is above the allocation. Remaining is 0 then.
	ExceededVacation   bool
	ExceededAdditional bool
}

// Remaining returns the remaining days of category c.
func (s YearStats) Remaining(c Category) int {
	if c.Resolve() == CategoryAdditional {
		return s.RemainingAdditional
	}
	return s.RemainingVacation
}

// Allocated returns the allocation of category c.
func (s YearStats) Allocated(c Category) int {
	if c.Resolve() == CategoryAdditional {
		return s.AllocatedAdditional
	}
	return s.AllocatedVacation
}

// Spent returns the approved days of category c.
func (s YearStats) Spent(c Category) int {
	if c.Resolve() == CategoryAdditional {
		return s.SpentAdditional
	}
	return s.SpentVacation
}
