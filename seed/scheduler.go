/*
scheduler.go - Year rollover for the holiday calendar

PURPOSE:
  Holidays are stored per date, so a calendar seeded in December has
  nothing for January of the next year. The scheduler notices when the
  calendar year changes and seeds holidays for the new year.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Remembers the last year it handled; the startup seed counts as the
    first one
  - Recurring seed holidays are expanded for the new year, single dates
    are re-checked, and with no seed holidays the defaults are added
  - Everything goes through Rollover, which is idempotent

USAGE:
  scheduler := seed.NewScheduler(admin, cfg.Seed, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - seed.go: Startup seeding
  - timeoff/admin.go: SeedDefaultHolidays
*/
package seed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/dayoff/config"
	"github.com/warp/dayoff/timeoff"
)

// Scheduler seeds holidays whenever the calendar year changes.
type Scheduler struct {
	Admin         *timeoff.AdminService
	Seed          config.SeedConfig
	Logger        *zap.Logger
	CheckInterval time.Duration
	Now           func() time.Time

	lastYear int
	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewScheduler creates a scheduler that treats the current year as done.
func NewScheduler(admin *timeoff.AdminService, cfg config.SeedConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Admin:         admin,
		Seed:          cfg,
		Logger:        logger,
		CheckInterval: cfg.RolloverInterval,
		Now:           time.Now,
		lastYear:      time.Now().Year(),
	}
}

// Start begins periodic checks. A zero interval leaves the scheduler off.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CheckInterval <= 0 {
		s.Logger.Info("rollover disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	s.Logger.Info("rollover started", zap.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler and waits for a running check.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	ticker, stop := s.ticker, s.stop
	s.ticker, s.stop = nil, nil
	s.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	s.wg.Wait()
	s.Logger.Info("rollover stopped")
}

func (s *Scheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ticker.C:
			if _, err := s.RunNow(context.Background()); err != nil {
				s.Logger.Error("rollover failed", zap.Error(err))
			}
		case <-stop:
			return
		}
	}
}

// RunNow seeds the current year if it has not been handled yet. It reports
// how many holidays were added.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	year := s.Now().Year()

	s.mu.Lock()
	if year <= s.lastYear {
		s.mu.Unlock()
		return 0, nil
	}
	s.mu.Unlock()

	added, err := Rollover(ctx, s.Admin, s.Seed, year, s.Logger)
	if err != nil {
		return added, err
	}

	s.mu.Lock()
	s.lastYear = year
	s.mu.Unlock()
	return added, nil
}

// Rollover seeds the holidays of year. Seed holidays are used when configured,
// otherwise the default holidays.
func Rollover(ctx context.Context, admin *timeoff.AdminService, cfg config.SeedConfig, year int, logger *zap.Logger) (int, error) {
	if len(cfg.Holidays) == 0 {
		added, err := admin.SeedDefaultHolidays(ctx, timeoff.SystemActor, year)
		if err != nil {
			return len(added), fmt.Errorf("failed to seed default holidays for %d: %w", year, err)
		}
		logger.Info("rollover complete", zap.Int("year", year), zap.Int("holidays", len(added)))
		return len(added), nil
	}

	// Users are left alone; only the calendar rolls over.
	res, err := Apply(ctx, admin, config.SeedConfig{Holidays: cfg.Holidays}, []int{year}, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), logger)
	if err != nil {
		return res.Holidays, fmt.Errorf("failed to seed holidays for %d: %w", year, err)
	}
	logger.Info("rollover complete", zap.Int("year", year), zap.Int("holidays", res.Holidays))
	return res.Holidays, nil
}
