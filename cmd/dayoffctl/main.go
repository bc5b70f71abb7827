// Command dayoffctl is an operator CLI over a dayoff SQLite database.
//
//	dayoffctl --db dayoff.db stats --user u-1 --year 2025
//	dayoffctl --db dayoff.db holidays list
//	dayoffctl --db dayoff.db holidays add --name "Company Day" --date 2025-06-13
//	dayoffctl --db dayoff.db users list
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/dayoff/logging"
	"github.com/warp/dayoff/store/sqlite"
	"github.com/warp/dayoff/timeoff"
)

// App holds the CLI dependencies.
type App struct {
	store    *sqlite.Store
	requests *timeoff.RequestService
	admin    *timeoff.AdminService
	logger   *zap.Logger
	ctx      context.Context
}

var (
	dbPath   string
	logLevel string
	app      *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dayoffctl",
		Short: "Inspect and manage day-off balances",
		Long:  `Operator tool for the day-off service: balances, holidays and users in a SQLite database.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.store.Close()
				app.logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "dayoff.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(holidaysCmd())
	rootCmd.AddCommand(usersCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, store and services
func initApp() error {
	logger, err := logging.New(logLevel, "console")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", zap.String("path", dbPath))

	app = &App{
		store:    store,
		requests: timeoff.NewRequestService(store, timeoff.NopAnalyzer{}, logger),
		admin:    timeoff.NewAdminService(store, logger),
		logger:   logger,
		ctx:      context.Background(),
	}
	return nil
}
