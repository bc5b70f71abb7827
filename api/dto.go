/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DATES:
  Calendar days are "YYYY-MM-DD" strings. Timestamps are RFC3339.

USAGE PERCENTAGES:
  usageVacation/usageAdditional are decimal strings with one decimal place
  ("62.5"), so clients never see float rounding noise.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	AllocatedVacation   int       `json:"allocatedVacation"`
	AllocatedAdditional int       `json:"allocatedAdditional"`
	CreatedAt           time.Time `json:"createdAt"`
}

// UserRequest creates or updates a user.
type UserRequest struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	AllocatedVacation   int    `json:"allocatedVacation"`
	AllocatedAdditional int    `json:"allocatedAdditional"`
}

func (u UserRequest) input() timeoff.UserInput {
	role := timeoff.Role(u.Role)
	if role == "" {
		role = timeoff.RoleUser
	}
	return timeoff.UserInput{
		Name:                u.Name,
		Email:               u.Email,
		Role:                role,
		AllocatedVacation:   u.AllocatedVacation,
		AllocatedAdditional: u.AllocatedAdditional,
	}
}

func toUserDTO(u timeoff.User) UserDTO {
	return UserDTO{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Role:                string(u.Role),
		AllocatedVacation:   u.AllocatedVacation,
		AllocatedAdditional: u.AllocatedAdditional,
		CreatedAt:           u.CreatedAt,
	}
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type LeaveRequestDTO struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	StartDate            string    `json:"startDate"`
	EndDate              string    `json:"endDate"`
	Category             string    `json:"category"`
	Status               string    `json:"status"`
	Reason               string    `json:"reason"`
	RejectionSuggestions []string  `json:"rejectionSuggestions,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// SubmitRequestDTO is the body of a new request or an admission preview.
type SubmitRequestDTO struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Category  string `json:"category,omitempty"`
	Reason    string `json:"reason"`
}

type SubmitResponse struct {
	Request      LeaveRequestDTO `json:"request"`
	BusinessDays int             `json:"businessDays"`
	Warning      string          `json:"warning,omitempty"`
}

type PendingApprovalDTO struct {
	LeaveRequestDTO
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

func toLeaveRequestDTO(r timeoff.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:                   r.ID,
		UserID:               r.UserID,
		StartDate:            r.StartDate.String(),
		EndDate:              r.EndDate.String(),
		Category:             string(r.Category.Resolve()),
		Status:               string(r.Status),
		Reason:               r.Reason,
		RejectionSuggestions: r.RejectionSuggestions,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toLeaveRequestDTOs(rs []timeoff.LeaveRequest) []LeaveRequestDTO {
	out := make([]LeaveRequestDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toLeaveRequestDTO(r))
	}
	return out
}

// =============================================================================
// ADMISSION
// =============================================================================

type ShortfallDTO struct {
	Category  string `json:"category"`
	Year      int    `json:"year"`
	Requested int    `json:"requested"`
	Remaining int    `json:"remaining"`
}

type AdmissionDTO struct {
	Allowed      bool          `json:"allowed"`
	Year         int           `json:"year"`
	Category     string        `json:"category"`
	BusinessDays int           `json:"businessDays"`
	Remaining    int           `json:"remaining"`
	NoDeduction  bool          `json:"noDeduction"`
	Warning      string        `json:"warning,omitempty"`
	Shortfall    *ShortfallDTO `json:"shortfall,omitempty"`
}

func toAdmissionDTO(a timeoff.Admission) AdmissionDTO {
	dto := AdmissionDTO{
		Allowed:      a.Allowed,
		Year:         a.Year,
		Category:     string(a.Category),
		BusinessDays: a.BusinessDays,
		Remaining:    a.Remaining,
		NoDeduction:  a.NoDeduction,
		Warning:      a.Warning(),
	}
	if a.Shortfall != nil {
		dto.Shortfall = &ShortfallDTO{
			Category:  string(a.Shortfall.Category),
			Year:      a.Shortfall.Year,
			Requested: a.Shortfall.Requested,
			Remaining: a.Shortfall.Remaining,
		}
	}
	return dto
}

// =============================================================================
// BALANCES
// =============================================================================

type YearStatsDTO struct {
	Year                int             `json:"year"`
	AllocatedVacation   int             `json:"allocatedVacation"`
	AllocatedAdditional int             `json:"allocatedAdditional"`
	SpentVacation       int             `json:"spentVacation"`
	SpentAdditional     int             `json:"spentAdditional"`
	RequestedVacation   int             `json:"requestedVacation"`
	RequestedAdditional int             `json:"requestedAdditional"`
	PendingVacation     int             `json:"pendingVacation"`
	PendingAdditional   int             `json:"pendingAdditional"`
	RemainingVacation   int             `json:"remainingVacation"`
	RemainingAdditional int             `json:"remainingAdditional"`
	TotalApprovedDays   int             `json:"totalApprovedDays"`
	ExceededVacation    bool            `json:"exceededVacation"`
	ExceededAdditional  bool            `json:"exceededAdditional"`
	UsageVacation       decimal.Decimal `json:"usageVacation"`
	UsageAdditional     decimal.Decimal `json:"usageAdditional"`
}

type BalanceDTO struct {
	Current  YearStatsDTO `json:"current"`
	Previous YearStatsDTO `json:"previous"`
}

func toYearStatsDTO(s timeoff.YearStats) YearStatsDTO {
	return YearStatsDTO{
		Year:                s.Year,
		AllocatedVacation:   s.AllocatedVacation,
		AllocatedAdditional: s.AllocatedAdditional,
		SpentVacation:       s.SpentVacation,
		SpentAdditional:     s.SpentAdditional,
		RequestedVacation:   s.RequestedVacation,
		RequestedAdditional: s.RequestedAdditional,
		PendingVacation:     s.PendingVacation,
		PendingAdditional:   s.PendingAdditional,
		RemainingVacation:   s.RemainingVacation,
		RemainingAdditional: s.RemainingAdditional,
		TotalApprovedDays:   s.TotalApprovedDays,
		ExceededVacation:    s.ExceededVacation,
		ExceededAdditional:  s.ExceededAdditional,
		UsageVacation:       s.Usage(timeoff.CategoryVacation),
		UsageAdditional:     s.Usage(timeoff.CategoryAdditional),
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

// CreateHolidayRequest adds a holiday on date, or on every occurrence of
// rrule within years.
type CreateHolidayRequest struct {
	Name  string `json:"name"`
	Date  string `json:"date,omitempty"`
	RRule string `json:"rrule,omitempty"`
	Years []int  `json:"years,omitempty"`
}

func toHolidayDTOs(hs []generic.Holiday) []HolidayDTO {
	out := make([]HolidayDTO, 0, len(hs))
	for _, h := range hs {
		out = append(out, HolidayDTO{ID: h.ID, Name: h.Name, Date: h.Date.String()})
	}
	return out
}

type CalendarDTO struct {
	Requests []LeaveRequestDTO `json:"requests"`
	Holidays []HolidayDTO      `json:"holidays"`
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

type AnalyzeRequest struct {
	Description string `json:"description"`
}

type AnalyzeResponse struct {
	Success     bool     `json:"success"`
	Suggestions []string `json:"suggestions,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error     string          `json:"error"`
	Details   string          `json:"details,omitempty"`
	Fields    []FieldErrorDTO `json:"fields,omitempty"`
	Shortfall *ShortfallDTO   `json:"shortfall,omitempty"`
}
