package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/dayoff/generic"
	"github.com/warp/dayoff/timeoff"
)

func statsCmd() *cobra.Command {
	var userID string
	var year int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a user's balance for a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.logger.Debug("stats command", zap.String("user_id", userID), zap.Int("year", year))

			stats, err := app.requests.YearStats(app.ctx, userID, year)
			if err != nil {
				return err
			}

			fmt.Printf("\nBalance %d for %s\n\n", stats.Year, userID)
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tALLOCATED\tSPENT\tPENDING\tREMAINING\tUSAGE")
			for _, c := range timeoff.Categories {
				pending := stats.PendingVacation
				if c == timeoff.CategoryAdditional {
					pending = stats.PendingAdditional
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s%%\n",
					c, stats.Allocated(c), stats.Spent(c), pending, stats.Remaining(c), stats.Usage(c).StringFixed(1))
			}
			tw.Flush()
			fmt.Printf("\nTotal approved days: %d\n", stats.TotalApprovedDays)
			if stats.ExceededVacation || stats.ExceededAdditional {
				fmt.Println("Warning: days taken exceed allocation")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Calendar year")
	cmd.MarkFlagRequired("user")
	return cmd
}

func holidaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List and add holidays",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all holidays",
		RunE: func(cmd *cobra.Command, args []string) error {
			holidays, err := app.admin.ListHolidays(app.ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tWEEKDAY\tNAME\tID")
			for _, h := range holidays {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Date, h.Date.Weekday(), h.Name, h.ID)
			}
			return tw.Flush()
		},
	}

	var name, date, rule string
	var years []int
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a holiday on a date or for a recurrence rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := timeoff.HolidayInput{Name: name, RRule: rule, Years: years}
			if date != "" {
				d, err := generic.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				in.Date = d.Time
			}
			if rule != "" && len(in.Years) == 0 {
				in.Years = []int{time.Now().Year()}
			}

			added, err := app.admin.AddHoliday(app.ctx, timeoff.SystemActor, in)
			if err != nil {
				return err
			}
			for _, h := range added {
				fmt.Printf("✓ %s %s (%s)\n", h.Date, h.Name, h.ID)
			}
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "Holiday name")
	add.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	add.Flags().StringVar(&rule, "rrule", "", "Recurrence rule, e.g. FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25")
	add.Flags().IntSliceVar(&years, "year", nil, "Years to expand --rrule for (repeatable)")
	add.MarkFlagRequired("name")

	cmd.AddCommand(list, add)
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all users with their allocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.admin.ListUsers(app.ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tVACATION\tADDITIONAL")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
					u.ID, u.Name, u.Email, u.Role, u.AllocatedVacation, u.AllocatedAdditional)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(list)
	return cmd
}
