package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/installment-sync/pkg/config"
	"github.com/pigeonworks-llc/installment-sync/pkg/db"
	"github.com/pigeonworks-llc/installment-sync/pkg/pathutil"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display link history statistics",
	Long: `Display statistics about detected installments and linked schedules.

Shows:
- Total number of linked transactions
- Number of distinct schedules
- Number of schedules created by this tool
- Number of completed series
- Last run timestamp

Example:
  installment-sync stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	// Validate required fields
	if err := cfg.Validate([]string{"actual", "dataDir"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	// Initialize PathResolver
	pathResolver := pathutil.New(pathutil.Config{
		DataDir:      cfg.Actual.DataDir,
		DatabasePath: cfg.Cache.DBPath,
	})

	// Open database connection
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	// Get link history
	linkHistory := db.NewLinkHistory(conn)

	// Get statistics
	stats, err := linkHistory.GetStats()
	exitOnError(err, "failed to get statistics")

	// Display statistics
	fmt.Println("\n=== Link History ===")
	fmt.Printf("Linked transactions:   %d\n", stats.TotalLinks)
	fmt.Printf("Distinct schedules:    %d\n", stats.TotalSchedules)
	fmt.Printf("Schedules created:     %d\n", stats.CreatedSchedules)
	fmt.Printf("Completed series:      %d\n", stats.CompletedSeries)

	if stats.LastRun.Valid {
		fmt.Printf("Last run:              %s\n", stats.LastRun.String)
	} else {
		fmt.Printf("Last run:              (never)\n")
	}

	fmt.Println()

	slog.Info("Statistics displayed successfully")
}
