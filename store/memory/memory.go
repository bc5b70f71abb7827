// Package memory provides an in-memory timeoff.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps everything in maps guarded by one RWMutex. Values are copied
// in and out, so callers never share slices with the store.
type Store struct {
	mu       sync.RWMutex
	requests map[string]timeoff.LeaveRequest
	users    map[string]timeoff.User
	holidays map[string]generic.Holiday
}

var _ timeoff.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		requests: make(map[string]timeoff.LeaveRequest),
		users:    make(map[string]timeoff.User),
		holidays: make(map[string]generic.Holiday),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Store) CreateRequest(_ context.Context, r timeoff.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[r.ID]; ok {
		return fmt.Errorf("request %s already exists", r.ID)
	}
	m.requests[r.ID] = cloneRequest(r)
	return nil
}

func (m *Store) GetRequest(_ context.Context, id string) (timeoff.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return timeoff.LeaveRequest{}, fmt.Errorf("%w: %s", generic.ErrRequestNotFound, id)
	}
	return cloneRequest(r), nil
}

func (m *Store) ListRequests(_ context.Context) ([]timeoff.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectLocked(func(timeoff.LeaveRequest) bool { return true }), nil
}

func (m *Store) ListRequestsByUser(_ context.Context, userID string) ([]timeoff.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectLocked(func(r timeoff.LeaveRequest) bool { return r.UserID == userID }), nil
}

func (m *Store) collectLocked(keep func(timeoff.LeaveRequest) bool) []timeoff.LeaveRequest {
	out := []timeoff.LeaveRequest{}
	for _, r := range m.requests {
		if keep(r) {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UpdateRequestStatus is a compare-and-set under the write lock.
func (m *Store) UpdateRequestStatus(_ context.Context, id string, from, to timeoff.Status) (timeoff.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return timeoff.LeaveRequest{}, fmt.Errorf("%w: %s", generic.ErrRequestNotFound, id)
	}
	if r.Status != from {
		return timeoff.LeaveRequest{}, &generic.TransitionError{RequestID: id, From: string(r.Status), To: string(to)}
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	m.requests[id] = r
	return cloneRequest(r), nil
}

func (m *Store) SetRejectionSuggestions(_ context.Context, id string, suggestions []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("%w: %s", generic.ErrRequestNotFound, id)
	}
	r.RejectionSuggestions = append([]string(nil), suggestions...)
	m.requests[id] = r
	return nil
}

func cloneRequest(r timeoff.LeaveRequest) timeoff.LeaveRequest {
	if r.RejectionSuggestions != nil {
		r.RejectionSuggestions = append([]string(nil), r.RejectionSuggestions...)
	}
	return r
}

// =============================================================================
// USERS
// =============================================================================

func (m *Store) CreateUser(_ context.Context, u timeoff.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("%w: %s", generic.ErrDuplicateUser, u.ID)
	}
	m.users[u.ID] = u
	return nil
}

func (m *Store) GetUser(_ context.Context, id string) (timeoff.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return timeoff.User{}, fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	return u, nil
}

func (m *Store) ListUsers(_ context.Context) ([]timeoff.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]timeoff.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Store) UpdateUser(_ context.Context, u timeoff.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, u.ID)
	}
	u.CreatedAt = existing.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *Store) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	delete(m.users, id)
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Store) ListHolidays(_ context.Context) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]generic.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Name < out[j].Name
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// AddHoliday stores h. Two holidays on the same date are both kept.
func (m *Store) AddHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holidays[h.ID]; ok {
		return fmt.Errorf("holiday %s already exists", h.ID)
	}
	m.holidays[h.ID] = h
	return nil
}

func (m *Store) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holidays[id]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrHolidayNotFound, id)
	}
	delete(m.holidays, id)
	return nil
}
