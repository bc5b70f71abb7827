/*
seed.go - Initial data for an empty or partially filled store

PURPOSE:
  Creates the users and holidays named in the configuration on startup.
  Seeding is idempotent: users are matched by email, holidays by name and
  date, so restarting against a persistent store adds nothing twice.

HOLIDAYS:
  A seed holiday is a single date or a recurrence rule expanded for the
  configured years. With no seed holidays and an empty calendar the default
  holidays of the current year are added.

SEE ALSO:
  - config/config.go: SeedConfig
  - timeoff/admin.go: AdminService used for every write
*/
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warp/dayoff/config"
	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

// Result counts what was created.
type Result struct {
	Users    int
	Holidays int
}

// Apply seeds users and holidays through admin.
func Apply(ctx context.Context, admin *timeoff.AdminService, cfg config.SeedConfig, years []int, now time.Time, logger *zap.Logger) (Result, error) {
	var res Result

	users, err := admin.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list users: %w", err)
	}
	emails := make(map[string]bool, len(users))
	for _, u := range users {
		emails[strings.ToLower(u.Email)] = true
	}
	for _, su := range cfg.Users {
		if emails[strings.ToLower(su.Email)] {
			continue
		}
		if _, err := admin.CreateUser(ctx, timeoff.SystemActor, timeoff.UserInput{
			Name:                su.Name,
			Email:               su.Email,
			Role:                timeoff.Role(su.Role),
			AllocatedVacation:   su.AllocatedVacation,
			AllocatedAdditional: su.AllocatedAdditional,
		}); err != nil {
			return res, fmt.Errorf("failed to seed user %s: %w", su.Email, err)
		}
		emails[strings.ToLower(su.Email)] = true
		res.Users++
	}

	existing, err := admin.ListHolidays(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list holidays: %w", err)
	}

	if len(cfg.Holidays) == 0 {
		if len(existing) == 0 {
			added, err := admin.SeedDefaultHolidays(ctx, timeoff.SystemActor, now.Year())
			if err != nil {
				return res, err
			}
			res.Holidays += len(added)
		}
		logger.Info("seed complete", zap.Int("users", res.Users), zap.Int("holidays", res.Holidays))
		return res, nil
	}

	have := make(map[string]bool, len(existing))
	for _, h := range existing {
		have[holidayKey(h.Name, h.Date)] = true
	}
	for _, sh := range cfg.Holidays {
		dates, err := seedDates(sh, years)
		if err != nil {
			return res, err
		}
		for _, d := range dates {
			if have[holidayKey(sh.Name, d)] {
				continue
			}
			if _, err := admin.AddHoliday(ctx, timeoff.SystemActor, timeoff.HolidayInput{Name: sh.Name, Date: d.Time}); err != nil {
				return res, fmt.Errorf("failed to seed holiday %s: %w", sh.Name, err)
			}
			have[holidayKey(sh.Name, d)] = true
			res.Holidays++
		}
	}

	logger.Info("seed complete", zap.Int("users", res.Users), zap.Int("holidays", res.Holidays))
	return res, nil
}

func seedDates(sh config.SeedHoliday, years []int) ([]generic.TimePoint, error) {
	if sh.RRule != "" {
		return generic.ExpandRecurring(sh.RRule, years...)
	}
	d, err := generic.ParseDate(sh.Date)
	if err != nil {
		return nil, fmt.Errorf("seed holiday %s: %w", sh.Name, err)
	}
	return []generic.TimePoint{d}, nil
}

func holidayKey(name string, d generic.TimePoint) string {
	return name + "|" + d.String()
}
