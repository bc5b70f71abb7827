/*
Package sqlite provides a SQLite-backed timeoff.Store.

PURPOSE:
  Persists users, leave requests and holidays. Balances are never stored;
  the timeoff package derives them from the requests on every read.

KEY TABLES:
  users:    Employees with their yearly allocation per category
  requests: Leave requests (never deleted, status changes only)
  holidays: Global non-working days (duplicate dates allowed)

DATES:
  Calendar days (request start/end, holiday date) are stored as TEXT in
  YYYY-MM-DD. Timestamps (created_at, updated_at) are stored as RFC3339 in UTC with
  nanoseconds.

ATOMIC STATUS CHANGES:
  UpdateRequestStatus runs

    UPDATE requests SET status = :to WHERE id = :id AND status = :from

  and treats zero affected rows as a lost race. Two concurrent transitions
  out of pending cannot both succeed.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/dayoff.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New() with CREATE TABLE IF NOT EXISTS.

SEE ALSO:
  - timeoff/store.go:      Interface definitions
  - store/memory/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

// Store implements timeoff.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ timeoff.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		allocated_vacation INTEGER NOT NULL DEFAULT 0,
		allocated_additional INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_email
		ON users(email);

	-- No foreign key to users: requests outlive deleted users.
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		category TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT,
		suggestions_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user
		ON requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_created
		ON requests(created_at);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REQUEST STORE
// =============================================================================

const requestColumns = `id, user_id, start_date, end_date, category, status, reason, suggestions_json, created_at, updated_at`

// CreateRequest inserts a new request.
func (s *Store) CreateRequest(ctx context.Context, r timeoff.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	suggestions, err := encodeSuggestions(r.RejectionSuggestions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID,
		r.UserID,
		r.StartDate.String(),
		r.EndDate.String(),
		nullString(string(r.Category)),
		r.Status,
		r.Reason,
		suggestions,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id string) (timeoff.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRequest(ctx, id)
}

func (s *Store) getRequest(ctx context.Context, id string) (timeoff.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM requests WHERE id = ?", id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return timeoff.LeaveRequest{}, fmt.Errorf("%w: %s", generic.ErrRequestNotFound, id)
	}
	return r, err
}

// ListRequests returns all requests, newest first.
func (s *Store) ListRequests(ctx context.Context) ([]timeoff.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx,
		"SELECT "+requestColumns+" FROM requests ORDER BY created_at DESC, id DESC")
}

// ListRequestsByUser returns the user's requests, newest first.
func (s *Store) ListRequestsByUser(ctx context.Context, userID string) ([]timeoff.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
}

// UpdateRequestStatus moves a request from one status to another in a
// single conditional UPDATE.
func (s *Store) UpdateRequestStatus(ctx context.Context, id string, from, to timeoff.Status) (timeoff.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, formatTime(time.Now()), id, from,
	)
	if err != nil {
		return timeoff.LeaveRequest{}, fmt.Errorf("failed to update request status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return timeoff.LeaveRequest{}, fmt.Errorf("failed to update request status: %w", err)
	}

	r, err := s.getRequest(ctx, id)
	if err != nil {
		return timeoff.LeaveRequest{}, err
	}
	if n == 0 {
		return timeoff.LeaveRequest{}, &generic.TransitionError{RequestID: id, From: string(r.Status), To: string(to)}
	}
	return r, nil
}

// SetRejectionSuggestions stores advisory text on a request.
func (s *Store) SetRejectionSuggestions(ctx context.Context, id string, suggestions []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := encodeSuggestions(suggestions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE requests SET suggestions_json = ? WHERE id = ?", encoded, id)
	if err != nil {
		return fmt.Errorf("failed to store suggestions: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrRequestNotFound, id)
	}
	return nil
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]timeoff.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := []timeoff.LeaveRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (timeoff.LeaveRequest, error) {
	var r timeoff.LeaveRequest
	var start, end, createdAt, updatedAt string
	var category, reason, suggestions sql.NullString

	err := row.Scan(
		&r.ID, &r.UserID, &start, &end, &category, &r.Status,
		&reason, &suggestions, &createdAt, &updatedAt,
	)
	if err != nil {
		return timeoff.LeaveRequest{}, err
	}

	if r.StartDate, err = generic.ParseDate(start); err != nil {
		return timeoff.LeaveRequest{}, fmt.Errorf("request %s: bad start_date: %w", r.ID, err)
	}
	if r.EndDate, err = generic.ParseDate(end); err != nil {
		return timeoff.LeaveRequest{}, fmt.Errorf("request %s: bad end_date: %w", r.ID, err)
	}
	// Rows written before categories existed keep a NULL category; the
	// engine resolves it to vacation.
	r.Category = timeoff.Category(category.String)
	r.Reason = reason.String
	if suggestions.Valid && suggestions.String != "" {
		if err := json.Unmarshal([]byte(suggestions.String), &r.RejectionSuggestions); err != nil {
			return timeoff.LeaveRequest{}, fmt.Errorf("request %s: bad suggestions: %w", r.ID, err)
		}
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}

// =============================================================================
// USER STORE
// =============================================================================

const userColumns = `id, name, email, role, allocated_vacation, allocated_additional, created_at`

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u timeoff.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Name, u.Email, u.Role, u.AllocatedVacation, u.AllocatedAdditional,
		formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", generic.ErrDuplicateUser, u.ID)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (timeoff.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return timeoff.User{}, fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	return u, err
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]timeoff.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []timeoff.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser replaces a user's mutable fields.
func (s *Store) UpdateUser(ctx context.Context, u timeoff.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			name = ?,
			email = ?,
			role = ?,
			allocated_vacation = ?,
			allocated_additional = ?
		WHERE id = ?`,
		u.Name, u.Email, u.Role, u.AllocatedVacation, u.AllocatedAdditional, u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, u.ID)
	}
	return nil
}

// DeleteUser removes a user. Their requests are kept.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	return nil
}

func scanUser(row scanner) (timeoff.User, error) {
	var u timeoff.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role,
		&u.AllocatedVacation, &u.AllocatedAdditional, &createdAt); err != nil {
		return timeoff.User{}, err
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, date FROM holidays ORDER BY date, name")
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	holidays := []generic.Holiday{}
	for rows.Next() {
		var h generic.Holiday
		var date string
		if err := rows.Scan(&h.ID, &h.Name, &date); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("holiday %s: bad date: %w", h.ID, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// AddHoliday inserts a holiday.
func (s *Store) AddHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO holidays (id, name, date) VALUES (?, ?, ?)",
		h.ID, h.Name, h.Date.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes a holiday.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrHolidayNotFound, id)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// timeLayout has fixed-width fractional seconds so TEXT ordering matches
// time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func encodeSuggestions(suggestions []string) (sql.NullString, error) {
	if len(suggestions) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(suggestions)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode suggestions: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
