/*
handlers.go - HTTP API handlers for the day-off service

PURPOSE:
  Exposes the day-off request lifecycle and the balance engine via REST.
  Handles HTTP request/response and JSON serialization, and delegates to
  timeoff.RequestService and timeoff.AdminService.

ENDPOINTS:
  Users:
    GET    /api/users                    List users
    POST   /api/users                    Create user (admin)
    GET    /api/users/{id}               Get user
    PUT    /api/users/{id}               Update user (admin)
    DELETE /api/users/{id}               Delete user (admin)
    GET    /api/users/{id}/stats?year=   Year balance
    GET    /api/users/{id}/balance       Current and previous year
    GET    /api/users/{id}/requests      User's requests, newest first
    POST   /api/users/{id}/requests      Submit request
    POST   /api/users/{id}/admission     Preview admission check
    GET    /api/users/{id}/calendar      Approved requests and holidays

  Requests:
    GET    /api/requests                 All requests
    GET    /api/requests/pending         Pending approvals with user details
    GET    /api/requests/{id}            Single request
    POST   /api/requests/{id}/approve    Approve (admin)
    POST   /api/requests/{id}/reject     Reject (admin)
    POST   /api/requests/{id}/cancel     Cancel (owner or admin)
    POST   /api/requests/analyze         Advisory rejection suggestions

  Holidays:
    GET    /api/holidays                 List holidays
    POST   /api/holidays                 Add holiday or recurring holiday (admin)
    POST   /api/holidays/defaults        Seed default holidays (admin)
    DELETE /api/holidays/{id}            Delete holiday (admin)

  GET /api/business-days?start=&end=     Count business days

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Acting user lacks permission
  - 404: Resource not found
  - 409: Status transition not allowed, duplicate user
  - 422: Insufficient entitlement (body carries the shortfall)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the services behind the API.
type Handler struct {
	Requests *timeoff.RequestService
	Admin    *timeoff.AdminService
	Logger   *zap.Logger

	// Now defaults the year of balance queries.
	Now func() time.Time
}

func NewHandler(requests *timeoff.RequestService, admin *timeoff.AdminService, logger *zap.Logger) *Handler {
	return &Handler{Requests: requests, Admin: admin, Logger: logger, Now: time.Now}
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func actorID(r *http.Request) string {
	return r.Header.Get(ActorHeader)
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// ListUsers returns all users.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Admin.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": dtos})
}

// GetUser returns a single user.
// GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Admin.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// CreateUser creates a user.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	u, err := h.Admin.CreateUser(r.Context(), actorID(r), req.input())
	if err != nil {
		h.writeServiceError(w, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

// UpdateUser replaces a user's profile and allocation.
// PUT /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	u, err := h.Admin.UpdateUser(r.Context(), actorID(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeServiceError(w, "Failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// DeleteUser removes a user.
// DELETE /api/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteUser(r.Context(), actorID(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "Failed to delete user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// BALANCE ENDPOINTS
// =============================================================================

// GetYearStats returns the balance of one year, the current year by default.
// GET /api/users/{id}/stats?year=2025
func (h *Handler) GetYearStats(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	stats, err := h.Requests.YearStats(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		h.writeServiceError(w, "Failed to calculate balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toYearStatsDTO(stats))
}

// GetBalance returns the current and previous year side by side.
// GET /api/users/{id}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	b, err := h.Requests.Balance(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		h.writeServiceError(w, "Failed to calculate balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		Current:  toYearStatsDTO(b.Current),
		Previous: toYearStatsDTO(b.Previous),
	})
}

func (h *Handler) yearParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return h.Now().Year(), nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if year < 1 || year > 9999 {
		return 0, errors.New("year out of range")
	}
	return year, nil
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// ListUserRequests returns the user's requests, newest first.
// GET /api/users/{id}/requests
func (h *Handler) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Requests.ListUserRequests(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": toLeaveRequestDTOs(reqs)})
}

// SubmitRequest submits a new day-off request for the user.
// POST /api/users/{id}/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSubmit(w, r)
	if !ok {
		return
	}
	sub, err := h.Requests.Submit(r.Context(), actorID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, "Failed to submit request", err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{
		Request:      toLeaveRequestDTO(sub.Request),
		BusinessDays: sub.Admission.BusinessDays,
		Warning:      sub.Warning,
	})
}

// PreviewAdmission runs the admission check without creating a request.
// POST /api/users/{id}/admission
func (h *Handler) PreviewAdmission(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSubmit(w, r)
	if !ok {
		return
	}
	adm, err := h.Requests.Preview(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, "Failed to check admission", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdmissionDTO(adm))
}

func decodeSubmit(w http.ResponseWriter, r *http.Request) (timeoff.SubmitInput, bool) {
	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return timeoff.SubmitInput{}, false
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", err)
		return timeoff.SubmitInput{}, false
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endDate (use YYYY-MM-DD)", err)
		return timeoff.SubmitInput{}, false
	}
	return timeoff.SubmitInput{
		StartDate: start,
		EndDate:   end,
		Category:  timeoff.Category(req.Category),
		Reason:    req.Reason,
	}, true
}

// parseOptionalDate leaves missing dates zero so validation reports them.
func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	tp, err := generic.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return tp.Time, nil
}

// GetCalendar returns approved requests of the user and all holidays.
// GET /api/users/{id}/calendar
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	view, err := h.Requests.Calendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to load calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, CalendarDTO{
		Requests: toLeaveRequestDTOs(view.Requests),
		Holidays: toHolidayDTOs(view.Holidays),
	})
}

// ListRequests returns every request, newest first.
// GET /api/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Requests.ListRequests(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": toLeaveRequestDTOs(reqs)})
}

// GetRequest returns a single request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Requests.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// =============================================================================
// APPROVAL WORKFLOW ENDPOINTS
// =============================================================================

// ListPendingRequests returns all pending requests awaiting approval.
// GET /api/requests/pending
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Requests.PendingApprovals(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to get pending requests", err)
		return
	}
	dtos := make([]PendingApprovalDTO, 0, len(pending))
	for _, p := range pending {
		dtos = append(dtos, PendingApprovalDTO{
			LeaveRequestDTO: toLeaveRequestDTO(p.LeaveRequest),
			UserName:        p.UserName,
			UserEmail:       p.UserEmail,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": dtos})
}

// ApproveRequest approves a pending request.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Requests.Approve, "Failed to approve request")
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Requests.Reject, "Failed to reject request")
}

// CancelRequest withdraws a pending request.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Requests.Cancel, "Failed to cancel request")
}

type transitionFunc func(ctx context.Context, actorID, requestID string) (timeoff.LeaveRequest, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc, message string) {
	req, err := fn(r.Context(), actorID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, message, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// AnalyzeReason returns advisory rejection suggestions for a reason.
// POST /api/requests/analyze
func (h *Handler) AnalyzeReason(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	suggestions, err := h.Requests.Analyze(r.Context(), req.Description)
	if err != nil {
		writeJSON(w, http.StatusOK, AnalyzeResponse{Success: false, Error: "Failed to get AI suggestions."})
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Suggestions: suggestions})
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays ordered by date.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Admin.ListHolidays(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to get holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": toHolidayDTOs(holidays)})
}

// CreateHoliday adds a holiday, or one per occurrence of a recurrence rule.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	years := req.Years
	if req.RRule != "" && len(years) == 0 {
		years = []int{h.Now().Year()}
	}

	added, err := h.Admin.AddHoliday(r.Context(), actorID(r), timeoff.HolidayInput{
		Name:  req.Name,
		Date:  date,
		RRule: req.RRule,
		Years: years,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"holidays": toHolidayDTOs(added)})
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteHoliday(r.Context(), actorID(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// AddDefaultHolidays seeds the default holidays for a year, the current year
// unless ?year= is given.
// POST /api/holidays/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	added, err := h.Admin.SeedDefaultHolidays(r.Context(), actorID(r), year)
	if err != nil {
		h.writeServiceError(w, "Failed to add default holidays", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "created",
		"count":    len(added),
		"holidays": toHolidayDTOs(added),
	})
}

// CountBusinessDays counts business days in an inclusive range.
// GET /api/business-days?start=2025-06-30&end=2025-07-06
func (h *Handler) CountBusinessDays(w http.ResponseWriter, r *http.Request) {
	start, err := generic.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use YYYY-MM-DD)", err)
		return
	}
	end, err := generic.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use YYYY-MM-DD)", err)
		return
	}
	n, err := h.Requests.BusinessDays(r.Context(), start, end)
	if err != nil {
		h.writeServiceError(w, "Failed to count business days", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start":        start.String(),
		"end":          end.String(),
		"businessDays": n,
	})
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps service errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	var short *generic.InsufficientEntitlementError
	var verr *generic.ValidationError

	switch {
	case errors.As(err, &short):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Insufficient entitlement",
			Details: err.Error(),
			Shortfall: &ShortfallDTO{
				Category:  short.Category,
				Year:      short.Year,
				Requested: short.Requested,
				Remaining: short.Remaining,
			},
		})
	case errors.As(err, &verr):
		resp := ErrorResponse{Error: "Validation failed", Details: err.Error()}
		for _, f := range verr.Fields {
			resp.Fields = append(resp.Fields, FieldErrorDTO{Field: f.Field, Message: f.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, generic.ErrInvalidPeriod), errors.Is(err, generic.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, generic.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, generic.ErrInvalidTransition), errors.Is(err, generic.ErrDuplicateUser):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.logger().Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
