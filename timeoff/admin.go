package timeoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/dayoff/generic"
)

// SystemActor is the actor used for seeding and operator tooling. It passes
// every permission check.
const SystemActor = "system"

// AdminService manages users and the global holiday calendar.
type AdminService struct {
	Store  Store
	Logger *zap.Logger

	Now   func() time.Time
	NewID func() string
}

func NewAdminService(store Store, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{Store: store, Logger: logger, Now: time.Now, NewID: uuid.NewString}
}

// =============================================================================
// USERS
// =============================================================================

func (a *AdminService) ListUsers(ctx context.Context) ([]User, error) {
	return a.Store.ListUsers(ctx)
}

func (a *AdminService) GetUser(ctx context.Context, id string) (User, error) {
	return a.Store.GetUser(ctx, id)
}

// CreateUser registers a user. Emails are unique, case-insensitively.
func (a *AdminService) CreateUser(ctx context.Context, actorID string, in UserInput) (User, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return User{}, err
	}
	if err := requireAdmin(ctx, a.Store, actorID); err != nil {
		return User{}, err
	}
	if err := a.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return User{}, err
	}

	u := User{
		ID:                  a.NewID(),
		Name:                in.Name,
		Email:               in.Email,
		Role:                in.Role,
		AllocatedVacation:   in.AllocatedVacation,
		AllocatedAdditional: in.AllocatedAdditional,
		CreatedAt:           a.Now().UTC(),
	}
	if err := a.Store.CreateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	a.Logger.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// UpdateUser replaces a user's profile and allocation. An admin cannot
// remove their own admin role.
func (a *AdminService) UpdateUser(ctx context.Context, actorID, id string, in UserInput) (User, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return User{}, err
	}
	if err := requireAdmin(ctx, a.Store, actorID); err != nil {
		return User{}, err
	}
	existing, err := a.Store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if actorID == id && existing.IsAdmin() && in.Role != RoleAdmin {
		return User{}, fmt.Errorf("%w: cannot change your own admin role", generic.ErrForbidden)
	}
	if err := a.ensureEmailFree(ctx, in.Email, id); err != nil {
		return User{}, err
	}

	existing.Name = in.Name
	existing.Email = in.Email
	existing.Role = in.Role
	existing.AllocatedVacation = in.AllocatedVacation
	existing.AllocatedAdditional = in.AllocatedAdditional
	if err := a.Store.UpdateUser(ctx, existing); err != nil {
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}
	a.Logger.Info("user updated", zap.String("user_id", id), zap.String("actor_id", actorID))
	return existing, nil
}

// DeleteUser removes a user. Their requests are kept.
func (a *AdminService) DeleteUser(ctx context.Context, actorID, id string) error {
	if err := requireAdmin(ctx, a.Store, actorID); err != nil {
		return err
	}
	if err := a.Store.DeleteUser(ctx, id); err != nil {
		return err
	}
	a.Logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actorID))
	return nil
}

func (a *AdminService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return fmt.Errorf("%w: %s", generic.ErrDuplicateUser, email)
		}
	}
	return nil
}

func (in UserInput) normalize() UserInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (a *AdminService) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	return a.Store.ListHolidays(ctx)
}

// AddHoliday stores a single holiday, or one holiday per occurrence of a
// recurrence rule in the requested years.
func (a *AdminService) AddHoliday(ctx context.Context, actorID string, in HolidayInput) ([]generic.Holiday, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, a.Store, actorID); err != nil {
		return nil, err
	}

	var dates []generic.TimePoint
	if in.RRule != "" {
		expanded, err := generic.ExpandRecurring(in.RRule, in.Years...)
		if err != nil {
			return nil, &generic.ValidationError{Fields: []generic.FieldError{{Field: "RRule", Message: err.Error()}}}
		}
		dates = expanded
	} else {
		dates = []generic.TimePoint{generic.DateOf(in.Date)}
	}

	added := make([]generic.Holiday, 0, len(dates))
	for _, d := range dates {
		h := generic.Holiday{ID: a.NewID(), Name: in.Name, Date: d}
		if err := a.Store.AddHoliday(ctx, h); err != nil {
			return added, fmt.Errorf("failed to add holiday: %w", err)
		}
		added = append(added, h)
	}
	a.Logger.Info("holidays added", zap.String("name", in.Name), zap.Int("count", len(added)))
	return added, nil
}

func (a *AdminService) DeleteHoliday(ctx context.Context, actorID, id string) error {
	if err := requireAdmin(ctx, a.Store, actorID); err != nil {
		return err
	}
	return a.Store.DeleteHoliday(ctx, id)
}

// DefaultHolidays are the holidays seeded into an empty calendar.
func DefaultHolidays(year int) []HolidayInput {
	return []HolidayInput{
		{Name: "New Year's Day", Date: generic.NewTimePoint(year, time.January, 1).Time},
		{Name: "Independence Day", Date: generic.NewTimePoint(year, time.July, 4).Time},
		{Name: "Christmas Day", Date: generic.NewTimePoint(year, time.December, 25).Time},
	}
}

// SeedDefaultHolidays adds DefaultHolidays(year) that are not already on the
// calendar by name and date.
func (a *AdminService) SeedDefaultHolidays(ctx context.Context, actorID string, year int) ([]generic.Holiday, error) {
	existing, err := a.Store.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, h := range existing {
		have[h.Name+"|"+h.Date.String()] = true
	}

	var added []generic.Holiday
	for _, in := range DefaultHolidays(year) {
		if have[in.Name+"|"+generic.DateOf(in.Date).String()] {
			continue
		}
		hs, err := a.AddHoliday(ctx, actorID, in)
		if err != nil {
			return added, err
		}
		added = append(added, hs...)
	}
	return added, nil
}

// =============================================================================
// PERMISSIONS
// =============================================================================

func requireAdmin(ctx context.Context, users UserStore, actorID string) error {
	if actorID == SystemActor {
		return nil
	}
	if actorID == "" {
		return fmt.Errorf("%w: no acting user", generic.ErrForbidden)
	}
	actor, err := users.GetUser(ctx, actorID)
	if errors.Is(err, generic.ErrUserNotFound) {
		return fmt.Errorf("%w: unknown acting user %s", generic.ErrForbidden, actorID)
	}
	if err != nil {
		return fmt.Errorf("failed to get acting user: %w", err)
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", generic.ErrForbidden)
	}
	return nil
}
