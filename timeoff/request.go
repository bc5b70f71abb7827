/*
request.go - Day-off request lifecycle

PURPOSE:
  Handles the full lifecycle of leave requests:
  1. Submission: Validate intake, run the admission check, store as pending
  2. Pending:    Counts as requested, not as spent
  3. Approval:   Request becomes spent
  4. Rejection/Cancellation: Request stops counting anywhere

REQUEST FLOW:
  ┌─────────────────────────────────────────────────────────────────┐
  │                                                                 │
  │  User submits     Admission        Store as          Approval   │
  │  request    ──▶   check      ──▶   pending     ──▶   workflow   │
  │                     │                  │                        │
  │                     ▼                  │  (async)               │
  │               422 shortfall            └──▶ Analyzer suggestions │
  │                                                                 │
  │   pending ──approve──▶ approved     (admin)                     │
  │   pending ──reject───▶ rejected     (admin)                     │
  │   pending ──cancel───▶ cancelled    (owner or admin)            │
  │                                                                 │
  └─────────────────────────────────────────────────────────────────┘

  Every other transition fails with generic.ErrInvalidTransition. The
  store applies each change as a compare-and-set on the observed status.

BALANCES:
  Balances are never stored. YearStats and Balance read a snapshot of the
  user's requests and the global holidays and run the pure engine
  (Aggregate, Report) over it.

SUGGESTIONS:
  After a successful submission the reason is sent to the Analyzer in the
  background with AnalyzeTimeout. Results are attached to the request.
  Failures are logged and never affect the submission. Wait blocks until
  background analyses are done.

EXAMPLE:
  svc := timeoff.NewRequestService(store, timeoff.NopAnalyzer{}, logger)

  sub, err := svc.Submit(ctx, "u-1", "u-1", timeoff.SubmitInput{...})
  approved, err := svc.Approve(ctx, "admin-1", sub.Request.ID)

SEE ALSO:
  - admission.go: CheckAdmission
  - report.go:    CalculateUserYearStats
  - admin.go:     User and holiday management
*/
package timeoff

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/dayoff/generic"
)

// DefaultAnalyzeTimeout bounds a single call to the Analyzer.
const DefaultAnalyzeTimeout = 15 * time.Second

// Submission is the result of a successful submit.
type Submission struct {
	Request   LeaveRequest
	Admission Admission
	// Warning is set when the request deducts nothing.
	Warning string
}

// PendingApproval is a pending request with its owner's details.
type PendingApproval struct {
	LeaveRequest
	UserName  string
	UserEmail string
}

// CalendarView is what a user sees on the team calendar.
type CalendarView struct {
	Requests []LeaveRequest
	Holidays []generic.Holiday
}

// =============================================================================
// REQUEST SERVICE
// =============================================================================

type RequestService struct {
	Store          Store
	Analyzer       Analyzer
	Logger         *zap.Logger
	AnalyzeTimeout time.Duration

	Now   func() time.Time
	NewID func() string

	// submitMu makes the admission check and the create of one submission
	// atomic with respect to other submissions through this service.
	submitMu sync.Mutex
	wg       sync.WaitGroup
}

// NewRequestService creates a service with default clock, ids and timeout.
// A nil analyzer means no suggestions; a nil logger means no logging.
func NewRequestService(store Store, analyzer Analyzer, logger *zap.Logger) *RequestService {
	if analyzer == nil {
		analyzer = NopAnalyzer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		Store:          store,
		Analyzer:       analyzer,
		Logger:         logger,
		AnalyzeTimeout: DefaultAnalyzeTimeout,
		Now:            time.Now,
		NewID:          uuid.NewString,
	}
}

// Submit validates in, checks it against userID's remaining entitlement and
// stores it as pending. A shortfall is returned as
// *generic.InsufficientEntitlementError together with the Admission.
func (s *RequestService) Submit(ctx context.Context, actorID, userID string, in SubmitInput) (Submission, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Submission{}, err
	}
	if err := s.authorizeOwnerOrAdmin(ctx, actorID, userID); err != nil {
		return Submission{}, err
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	adm, err := s.admission(ctx, userID, in.Proposal())
	if err != nil {
		return Submission{}, err
	}
	if err := adm.Err(); err != nil {
		s.Logger.Info("submission blocked",
			zap.String("user_id", userID),
			zap.String("category", string(adm.Category)),
			zap.Int("requested", adm.BusinessDays),
			zap.Int("remaining", adm.Remaining))
		return Submission{Admission: adm}, err
	}

	now := s.Now().UTC()
	p := in.Proposal()
	req := LeaveRequest{
		ID:        s.NewID(),
		UserID:    userID,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Category:  p.Category,
		Status:    StatusPending,
		Reason:    in.Reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.CreateRequest(ctx, req); err != nil {
		return Submission{}, fmt.Errorf("failed to create request: %w", err)
	}

	s.Logger.Info("request submitted",
		zap.String("request_id", req.ID),
		zap.String("user_id", userID),
		zap.String("category", string(req.Category)),
		zap.Stringer("period", req.Period()),
		zap.Int("business_days", adm.BusinessDays))

	s.analyzeAsync(ctx, req)

	return Submission{Request: req, Admission: adm, Warning: adm.Warning()}, nil
}

// Preview runs the admission check without creating anything.
func (s *RequestService) Preview(ctx context.Context, userID string, in SubmitInput) (Admission, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Admission{}, err
	}
	return s.admission(ctx, userID, in.Proposal())
}

func (s *RequestService) admission(ctx context.Context, userID string, p Proposal) (Admission, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return Admission{}, err
	}
	existing, err := s.Store.ListRequestsByUser(ctx, userID)
	if err != nil {
		return Admission{}, fmt.Errorf("failed to list requests: %w", err)
	}
	holidays, err := s.Store.ListHolidays(ctx)
	if err != nil {
		return Admission{}, fmt.Errorf("failed to list holidays: %w", err)
	}
	return CheckAdmission(p, existing, generic.HolidaySetOf(holidays), user.Entitlement()), nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Approve moves a pending request to approved. Admins only.
func (s *RequestService) Approve(ctx context.Context, actorID, requestID string) (LeaveRequest, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return LeaveRequest{}, err
	}
	return s.transition(ctx, actorID, requestID, StatusApproved)
}

// Reject moves a pending request to rejected. Admins only.
func (s *RequestService) Reject(ctx context.Context, actorID, requestID string) (LeaveRequest, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return LeaveRequest{}, err
	}
	return s.transition(ctx, actorID, requestID, StatusRejected)
}

// Cancel withdraws a pending request. Allowed for its owner and for admins.
func (s *RequestService) Cancel(ctx context.Context, actorID, requestID string) (LeaveRequest, error) {
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := s.authorizeOwnerOrAdmin(ctx, actorID, req.UserID); err != nil {
		return LeaveRequest{}, err
	}
	return s.transition(ctx, actorID, requestID, StatusCancelled)
}

func (s *RequestService) transition(ctx context.Context, actorID, requestID string, to Status) (LeaveRequest, error) {
	current, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if current.Status != StatusPending {
		return LeaveRequest{}, &generic.TransitionError{RequestID: requestID, From: string(current.Status), To: string(to)}
	}

	updated, err := s.Store.UpdateRequestStatus(ctx, requestID, StatusPending, to)
	if err != nil {
		return LeaveRequest{}, err
	}

	s.Logger.Info("request status changed",
		zap.String("request_id", requestID),
		zap.String("actor_id", actorID),
		zap.String("from", string(StatusPending)),
		zap.String("to", string(to)))
	return updated, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// GetRequest returns a single request.
func (s *RequestService) GetRequest(ctx context.Context, requestID string) (LeaveRequest, error) {
	return s.Store.GetRequest(ctx, requestID)
}

// ListRequests returns every request, newest first.
func (s *RequestService) ListRequests(ctx context.Context) ([]LeaveRequest, error) {
	return s.Store.ListRequests(ctx)
}

// ListUserRequests returns the user's requests, newest first.
func (s *RequestService) ListUserRequests(ctx context.Context, userID string) ([]LeaveRequest, error) {
	return s.Store.ListRequestsByUser(ctx, userID)
}

// PendingApprovals lists every pending request with its owner's name and
// email, newest first. Requests of deleted users keep empty details.
func (s *RequestService) PendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	all, err := s.Store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := []PendingApproval{}
	for _, r := range all {
		if r.Status != StatusPending {
			continue
		}
		u := byID[r.UserID]
		out = append(out, PendingApproval{LeaveRequest: r, UserName: u.Name, UserEmail: u.Email})
	}
	return out, nil
}

// YearStats computes the user's balance for year.
func (s *RequestService) YearStats(ctx context.Context, userID string, year int) (YearStats, error) {
	user, requests, holidays, err := s.snapshot(ctx, userID)
	if err != nil {
		return YearStats{}, err
	}
	return CalculateUserYearStats(year, user, requests, holidays), nil
}

// Balance computes the user's balance for year and the year before.
func (s *RequestService) Balance(ctx context.Context, userID string, year int) (ProfileBalance, error) {
	user, requests, holidays, err := s.snapshot(ctx, userID)
	if err != nil {
		return ProfileBalance{}, err
	}
	return CalculateProfileBalance(year, user, requests, holidays), nil
}

// Calendar returns the user's approved requests and all holidays.
func (s *RequestService) Calendar(ctx context.Context, userID string) (CalendarView, error) {
	requests, err := s.Store.ListRequestsByUser(ctx, userID)
	if err != nil {
		return CalendarView{}, fmt.Errorf("failed to list requests: %w", err)
	}
	holidays, err := s.Store.ListHolidays(ctx)
	if err != nil {
		return CalendarView{}, fmt.Errorf("failed to list holidays: %w", err)
	}
	view := CalendarView{Requests: []LeaveRequest{}, Holidays: holidays}
	for _, r := range requests {
		if r.Status == StatusApproved {
			view.Requests = append(view.Requests, r)
		}
	}
	return view, nil
}

// BusinessDays counts business days in [start, end] against the stored
// holidays.
func (s *RequestService) BusinessDays(ctx context.Context, start, end generic.TimePoint) (int, error) {
	holidays, err := s.Store.ListHolidays(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list holidays: %w", err)
	}
	return generic.CountBusinessDays(start, end, generic.HolidaySetOf(holidays)), nil
}

func (s *RequestService) snapshot(ctx context.Context, userID string) (*User, []LeaveRequest, []generic.Holiday, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	requests, err := s.Store.ListRequestsByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list requests: %w", err)
	}
	holidays, err := s.Store.ListHolidays(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return user, requests, holidays, nil
}

// lookupUser returns nil without error for unknown users; they have no
// allocation.
func (s *RequestService) lookupUser(ctx context.Context, userID string) (*User, error) {
	u, err := s.Store.GetUser(ctx, userID)
	if errors.Is(err, generic.ErrUserNotFound) {
		s.Logger.Warn("no entitlement on record, using zero allocation", zap.String("user_id", userID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// Analyze returns suggestions for reason synchronously. Any failure is
// reported as generic.ErrSuggestionsUnavailable.
func (s *RequestService) Analyze(ctx context.Context, reason string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.analyzeTimeout())
	defer cancel()

	suggestions, err := s.Analyzer.Analyze(ctx, reason)
	if err != nil {
		s.Logger.Warn("analysis failed", zap.Error(err))
		if errors.Is(err, generic.ErrSuggestionsUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", generic.ErrSuggestionsUnavailable, err)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions, nil
}

func (s *RequestService) analyzeAsync(parent context.Context, req LeaveRequest) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.analyzeTimeout())
		defer cancel()

		log := s.Logger.With(zap.String("request_id", req.ID))
		suggestions, err := s.Analyzer.Analyze(ctx, req.Reason)
		if err != nil {
			log.Warn("suggestions unavailable", zap.Error(err))
			return
		}
		if len(suggestions) == 0 {
			return
		}
		if err := s.Store.SetRejectionSuggestions(ctx, req.ID, suggestions); err != nil {
			log.Warn("failed to attach suggestions", zap.Error(err))
			return
		}
		log.Debug("suggestions attached", zap.Int("count", len(suggestions)))
	}()
}

// Wait blocks until all background analyses have finished.
func (s *RequestService) Wait() {
	s.wg.Wait()
}

func (s *RequestService) analyzeTimeout() time.Duration {
	if s.AnalyzeTimeout <= 0 {
		return DefaultAnalyzeTimeout
	}
	return s.AnalyzeTimeout
}

// =============================================================================
// ACTORS
// =============================================================================

func (s *RequestService) requireAdmin(ctx context.Context, actorID string) error {
	return requireAdmin(ctx, s.Store, actorID)
}

func (s *RequestService) authorizeOwnerOrAdmin(ctx context.Context, actorID, ownerID string) error {
	if actorID == ownerID || actorID == SystemActor {
		return nil
	}
	return requireAdmin(ctx, s.Store, actorID)
}
