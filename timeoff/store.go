/*
store.go - Persistence interface for requests, users and holidays

PURPOSE:
  Defines the boundary between the request lifecycle and storage. The
  accounting engine never touches a Store; services read a snapshot from
  the Store and pass plain slices into Aggregate/Report/CheckAdmission.

ATOMIC STATUS CHANGES:
  UpdateRequestStatus takes the status the caller observed. The store
  applies the change only if the request is still in that status, as one
  assignment. A concurrent approve and cancel cannot both succeed.

IMPLEMENTATIONS:
  - store/memory: In-memory (tests, dev, default server mode)
  - store/sqlite: SQLite file or :memory:

SEE ALSO:
  - request.go: RequestService, the main Store consumer
  - admin.go:   User and holiday management
*/
package timeoff

import (
	"context"

	"github.com/warp/dayoff/generic"
)

// RequestStore persists leave requests. Requests are never deleted.
type RequestStore interface {
	// CreateRequest stores a new request.
	CreateRequest(ctx context.Context, r LeaveRequest) error

	// GetRequest returns generic.ErrRequestNotFound for unknown ids.
	GetRequest(ctx context.Context, id string) (LeaveRequest, error)

	// ListRequests returns all requests, newest CreatedAt first.
	ListRequests(ctx context.Context) ([]LeaveRequest, error)

	// ListRequestsByUser returns the user's requests, newest CreatedAt first.
	ListRequestsByUser(ctx context.Context, userID string) ([]LeaveRequest, error)

	// UpdateRequestStatus moves a request from one status to another.
	// Returns *generic.TransitionError if the request is no longer in from.
	UpdateRequestStatus(ctx context.Context, id string, from, to Status) (LeaveRequest, error)

	// SetRejectionSuggestions attaches advisory text to a request.
	SetRejectionSuggestions(ctx context.Context, id string, suggestions []string) error
}

// UserStore persists users and their allocations.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	// GetUser returns generic.ErrUserNotFound for unknown ids.
	GetUser(ctx context.Context, id string) (User, error)
	// ListUsers returns users ordered by name.
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id string) error
}

// HolidayStore persists global holidays.
type HolidayStore interface {
	// ListHolidays returns holidays ordered by date.
	ListHolidays(ctx context.Context) ([]generic.Holiday, error)
	AddHoliday(ctx context.Context, h generic.Holiday) error
	// DeleteHoliday returns generic.ErrHolidayNotFound for unknown ids.
	DeleteHoliday(ctx context.Context, id string) error
}

// Store is everything the services need.
type Store interface {
	RequestStore
	UserStore
	HolidayStore
}
