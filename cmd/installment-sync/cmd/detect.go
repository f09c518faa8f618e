package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/installment-sync/pkg/actual"
	"github.com/pigeonworks-llc/installment-sync/pkg/config"
	"github.com/pigeonworks-llc/installment-sync/pkg/db"
	"github.com/pigeonworks-llc/installment-sync/pkg/installment"
	"github.com/pigeonworks-llc/installment-sync/pkg/pathutil"
)

var (
	keepDates bool
	redetect  bool
	dryRun    bool
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect installments and link transactions to schedules",
	Long: `Scan the budget for unlinked transactions carrying an installment
marker and resolve each one against the schedule store.

This command:
1. Logs into the server and downloads the budget into the data dir
2. Queries transactions with no schedule reference
3. Keeps those whose notes contain a (DD/DD) marker
4. For each, creates or reuses the series' schedule and links it
5. Records every link in the local SQLite history
6. Syncs pending changes back to the server

Example:
  installment-sync detect
  installment-sync detect --dry-run
  installment-sync detect --keep-dates --redetect`,
	Run: runDetect,
}

func init() {
	// Flags
	detectCmd.Flags().BoolVar(&keepDates, "keep-dates", false, "name series by each transaction's own month instead of the recomputed series range")
	detectCmd.Flags().BoolVar(&redetect, "redetect", false, "create a fresh schedule even when one with the same name exists")
	detectCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no store writes)")
}

func runDetect(cmd *cobra.Command, args []string) {
	slog.Info("Starting detection", "keep_dates", keepDates, "redetect", redetect, "dry_run", dryRun)

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	// Validate required fields
	if err := cfg.Validate(
		[]string{"actual", "serverUrl"},
		[]string{"actual", "password"},
		[]string{"actual", "budgetId"},
		[]string{"actual", "dataDir"},
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	// Initialize components
	pathResolver := pathutil.New(pathutil.Config{
		DataDir:      cfg.Actual.DataDir,
		DatabasePath: cfg.Cache.DBPath,
	})

	// Open link history database
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	linkHistory := db.NewLinkHistory(conn)

	// Load naming configuration
	naming := installment.DefaultNaming()
	if cfg.Cache.NamingFile != "" {
		naming, err = installment.LoadNaming(cfg.Cache.NamingFile)
		exitOnError(err, "failed to load naming config")
	}

	// Initialize ledger server client
	client := actual.NewClient(actual.ClientConfig{
		ServerURL: cfg.Actual.ServerURL,
		Password:  cfg.Actual.Password,
		DataDir:   cfg.Actual.DataDir,
	})

	slog.Info("Logging into server", "url", cfg.Actual.ServerURL)
	exitOnError(client.Init(), "failed to initialize client")

	cacheDir, err := pathResolver.GetBudgetCacheDir(cfg.Actual.BudgetID)
	exitOnError(err, "failed to resolve budget cache dir")

	slog.Info("Downloading budget", "budget_id", cfg.Actual.BudgetID, "cache_dir", cacheDir)
	exitOnError(client.DownloadBudget(cfg.Actual.BudgetID), "failed to download budget")

	// Fetch transactions with no schedule reference
	transactions, err := client.UnlinkedTransactions()
	exitOnError(err, "failed to query transactions")
	slog.Info("Fetched unlinked transactions", "count", len(transactions))

	// Keep only those carrying an installment marker
	candidates := filterCandidates(transactions)
	slog.Info("Installment candidates",
		"candidates", len(candidates),
		"skipped", len(transactions)-len(candidates),
	)

	if len(candidates) == 0 {
		fmt.Println("No installment transactions to resolve")
		shutdown(client)
		return
	}

	// Resolve sequentially, one transaction at a time
	resolver := installment.NewResolver(client, naming, installment.Options{
		RecomputeDates: !keepDates,
		IgnoreExisting: redetect,
		DryRun:         dryRun,
	})

	summary, err := resolver.ResolveAll(candidates)

	// Record whatever was linked before reporting any batch failure;
	// there is no rollback of already-processed transactions.
	for _, link := range summary.Links {
		if recErr := linkHistory.RecordLink(db.LinkRecord{
			TransactionID: link.TransactionID,
			ScheduleID:    link.ScheduleID,
			ScheduleName:  link.ScheduleName,
			TxnDate:       link.Date,
			Amount:        link.Amount,
			Parcel:        link.Parcel,
			ParcelTotal:   link.ParcelTotal,
			Created:       link.Created,
			Completed:     link.Completed,
		}); recErr != nil {
			slog.Error("Failed to record link", "transaction_id", link.TransactionID, "error", recErr)
		}
	}

	exitOnError(err, "batch resolution failed")

	if !dryRun {
		slog.Info("Syncing changes to server")
		exitOnError(client.Sync(), "failed to sync")
	}

	shutdown(client)

	// Display final statistics
	fmt.Println("\n=== Detection Summary ===")
	fmt.Printf("Transactions linked:   %d\n", summary.Linked)
	fmt.Printf("Schedules created:     %d\n", summary.Created)
	fmt.Printf("Schedules reused:      %d\n", summary.Reused)
	fmt.Printf("Series completed:      %d\n", summary.Completed)
	fmt.Printf("Skipped:               %d\n", summary.Skipped)
	fmt.Println()

	slog.Info("Detection completed",
		"linked", summary.Linked,
		"created", summary.Created,
		"reused", summary.Reused,
		"completed", summary.Completed,
		"skipped", summary.Skipped,
	)
}

// filterCandidates keeps transactions whose notes carry an installment
// marker. Transactions without one are not an error, just out of scope.
func filterCandidates(transactions []actual.Transaction) []actual.Transaction {
	var result []actual.Transaction
	for _, tx := range transactions {
		if installment.HasMarker(tx.Notes) {
			result = append(result, tx)
		}
	}
	return result
}

func shutdown(client *actual.Client) {
	if err := client.Shutdown(); err != nil {
		slog.Warn("Shutdown failed", "error", err)
	}
}
