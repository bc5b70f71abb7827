/*
sqlite_test.go - Tests for the SQLite store

Tests for:
- Request round trip (dates, legacy NULL category, suggestions)
- Conditional status updates
- User uniqueness and not-found mapping
- Holiday ordering
*/
package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var created = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func pendingRequest(id string, at time.Time) timeoff.LeaveRequest {
	return timeoff.LeaveRequest{
		ID:        id,
		UserID:    "u-1",
		StartDate: generic.NewTimePoint(2025, time.June, 2),
		EndDate:   generic.NewTimePoint(2025, time.June, 6),
		Category:  timeoff.CategoryAdditional,
		Status:    timeoff.StatusPending,
		Reason:    "Moving to a new apartment",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestRequest_RoundTrip(t *testing.T) {
	// GIVEN: A stored request
	store := newTestStore(t)
	ctx := context.Background()
	in := pendingRequest("r-1", created)
	require.NoError(t, store.CreateRequest(ctx, in))

	// WHEN: Reading it back
	got, err := store.GetRequest(ctx, "r-1")
	require.NoError(t, err)

	// THEN: Every field survives
	assert.Equal(t, "2025-06-02", got.StartDate.String())
	assert.Equal(t, "2025-06-06", got.EndDate.String())
	assert.Equal(t, timeoff.CategoryAdditional, got.Category)
	assert.Equal(t, timeoff.StatusPending, got.Status)
	assert.Equal(t, in.Reason, got.Reason)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Nil(t, got.RejectionSuggestions)
}

func TestRequest_LegacyNullCategory(t *testing.T) {
	// GIVEN: A row written before categories existed
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO requests (id, user_id, start_date, end_date, category, status, reason, created_at, updated_at)
		VALUES ('legacy', 'u-1', '2025-03-03', '2025-03-07', NULL, 'approved', 'old entry', ?, ?)`,
		formatTime(created), formatTime(created))
	require.NoError(t, err)

	// WHEN: Reading and aggregating it
	reqs, err := store.ListRequestsByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	totals := timeoff.Aggregate(2025, reqs, generic.HolidaySet{})

	// THEN: It counts as vacation
	assert.Equal(t, timeoff.Category(""), reqs[0].Category)
	assert.Equal(t, 5, totals.SpentVacation)
}

func TestRequest_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetRequest(context.Background(), "nope")
	assert.ErrorIs(t, err, generic.ErrRequestNotFound)
}

func TestRequest_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("r-1", created)))
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("r-2", created.Add(time.Hour))))
	other := pendingRequest("r-3", created.Add(500*time.Millisecond))
	other.UserID = "u-2"
	require.NoError(t, store.CreateRequest(ctx, other))

	all, err := store.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"r-2", "r-3", "r-1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := store.ListRequestsByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := store.ListRequestsByUser(ctx, "u-9")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateRequestStatus_CompareAndSet(t *testing.T) {
	// GIVEN: A pending request
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("r-1", created)))

	// WHEN: Approving, then trying to cancel from pending
	approved, err := store.UpdateRequestStatus(ctx, "r-1", timeoff.StatusPending, timeoff.StatusApproved)
	require.NoError(t, err)
	_, err = store.UpdateRequestStatus(ctx, "r-1", timeoff.StatusPending, timeoff.StatusCancelled)

	// THEN: The first wins, the second sees the current status
	assert.Equal(t, timeoff.StatusApproved, approved.Status)
	assert.True(t, approved.UpdatedAt.After(created))

	var te *generic.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "approved", te.From)
	assert.Equal(t, "cancelled", te.To)

	got, err := store.GetRequest(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusApproved, got.Status)
}

func TestUpdateRequestStatus_Missing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.UpdateRequestStatus(context.Background(), "nope", timeoff.StatusPending, timeoff.StatusApproved)
	assert.ErrorIs(t, err, generic.ErrRequestNotFound)
}

func TestSetRejectionSuggestions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("r-1", created)))

	require.NoError(t, store.SetRejectionSuggestions(ctx, "r-1", []string{"Too close to launch", "Overlaps team offsite"}))

	got, err := store.GetRequest(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Too close to launch", "Overlaps team offsite"}, got.RejectionSuggestions)
	assert.ErrorIs(t, store.SetRejectionSuggestions(ctx, "nope", []string{"x"}), generic.ErrRequestNotFound)
}

// =============================================================================
// USERS
// =============================================================================

func TestUser_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	u := timeoff.User{
		ID: "u-1", Name: "Jane Doe", Email: "jane@example.com", Role: timeoff.RoleUser,
		AllocatedVacation: 20, AllocatedAdditional: 3, CreatedAt: created,
	}
	require.NoError(t, store.CreateUser(ctx, u))
	assert.ErrorIs(t, store.CreateUser(ctx, u), generic.ErrDuplicateUser)

	got, err := store.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	u.AllocatedVacation = 25
	u.Role = timeoff.RoleAdmin
	require.NoError(t, store.UpdateUser(ctx, u))
	got, err = store.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 25, got.AllocatedVacation)
	assert.True(t, got.IsAdmin())

	require.NoError(t, store.DeleteUser(ctx, "u-1"))
	_, err = store.GetUser(ctx, "u-1")
	assert.ErrorIs(t, err, generic.ErrUserNotFound)
	assert.ErrorIs(t, store.DeleteUser(ctx, "u-1"), generic.ErrUserNotFound)
	assert.ErrorIs(t, store.UpdateUser(ctx, u), generic.ErrUserNotFound)
}

func TestUser_ListByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, u := range []timeoff.User{
		{ID: "u-1", Name: "Zoe", Email: "zoe@example.com", Role: timeoff.RoleUser, CreatedAt: created},
		{ID: "u-2", Name: "Adam", Email: "adam@example.com", Role: timeoff.RoleUser, CreatedAt: created},
	} {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Adam", users[0].Name)
	assert.Equal(t, "Zoe", users[1].Name)
}

func TestDeleteUser_KeepsRequests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, timeoff.User{ID: "u-1", Name: "Jane", Email: "jane@example.com", Role: timeoff.RoleUser, CreatedAt: created}))
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("r-1", created)))

	require.NoError(t, store.DeleteUser(ctx, "u-1"))

	reqs, err := store.ListRequestsByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, h := range []generic.Holiday{
		{ID: "h-1", Name: "Christmas Day", Date: generic.NewTimePoint(2025, time.December, 25)},
		{ID: "h-2", Name: "New Year's Day", Date: generic.NewTimePoint(2025, time.January, 1)},
		{ID: "h-3", Name: "Christmas (duplicate)", Date: generic.NewTimePoint(2025, time.December, 25)},
	} {
		require.NoError(t, store.AddHoliday(ctx, h))
	}

	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 3)
	assert.Equal(t, "h-2", holidays[0].ID)
	assert.Equal(t, "2025-12-25", holidays[1].Date.String())
	assert.Equal(t, 2, generic.HolidaySetOf(holidays).Len())

	require.NoError(t, store.DeleteHoliday(ctx, "h-3"))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, "h-3"), generic.ErrHolidayNotFound)
	holidays, err = store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, holidays, 2)
}

func TestStore_ImplementsServices(t *testing.T) {
	// The request service runs unchanged on top of SQLite.
	store := newTestStore(t)
	ctx := context.Background()
	admin := timeoff.NewAdminService(store, nil)
	requests := timeoff.NewRequestService(store, nil, nil)

	user, err := admin.CreateUser(ctx, timeoff.SystemActor, timeoff.UserInput{
		Name: "Jane Doe", Email: "jane@example.com", Role: timeoff.RoleUser, AllocatedVacation: 20,
	})
	require.NoError(t, err)
	_, err = admin.AddHoliday(ctx, timeoff.SystemActor, timeoff.HolidayInput{
		Name: "Company Day", Date: time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	sub, err := requests.Submit(ctx, user.ID, user.ID, timeoff.SubmitInput{
		StartDate: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC),
		Reason:    "Family vacation at the lake",
	})
	require.NoError(t, err)
	_, err = requests.Approve(ctx, timeoff.SystemActor, sub.Request.ID)
	require.NoError(t, err)
	requests.Wait()

	stats, err := requests.YearStats(ctx, user.ID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.SpentVacation)
	assert.Equal(t, 16, stats.RemainingVacation)
}
