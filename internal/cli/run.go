package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pglode/internal/db"
	"github.com/vvka-141/pglode/internal/ingest"
	"github.com/vvka-141/pglode/internal/logging"
	"github.com/vvka-141/pglode/internal/source"
	"github.com/vvka-141/pglode/internal/tui"
	"github.com/vvka-141/pglode/pkg/pglode"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a loader run over the catalog",
	Long: `Execute a loader run: read the catalog, ingest each dataset from its
CSV source, and record every write in the changelog.

For each entry the loader:
1. Expands the source path (a file or glob, matched in sorted order)
2. Parses the CSV files (header row required, all values loaded as text)
3. Skips the dataset if the source checksum matches the last ingest
4. Drops and recreates the target table, then bulk-copies the rows
5. Records the ingest in the changelog

One failing dataset never aborts the run; remaining entries are still
processed and the failure is reported in the summary.

Examples:
  pglode run                       # Ingest everything in the catalog
  pglode run --only orders         # Just one dataset
  pglode run --only orders,leads   # A selection, in the given order
  pglode run --force               # Re-ingest even if sources are unchanged
  pglode run --dry-run             # Show the plan without writing`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

type runFlagValues struct {
	only    []string
	force   bool
	dryRun  bool
	timeout time.Duration
}

var (
	runFlags     runFlagValues
	runConnFlags connectionFlags
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runFlags.only, "only", nil,
		"Restrict the run to the named datasets (comma-separated or repeated)\n"+
			"Datasets are processed in the order given")
	runCmd.Flags().BoolVar(&runFlags.force, "force", false,
		"Re-ingest datasets even when the source checksum matches the last ingest")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false,
		"Resolve sources and report what would happen without writing")
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", 10*time.Minute,
		"Catastrophic failure protection timeout for the whole run\n"+
			"Examples: 30s, 5m, 1h30m")

	registerConnectionFlags(runCmd, &runConnFlags)
}

func runRun(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	connConfig, err := resolveConnectionFromFlags(runConnFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	timeout := runFlags.timeout
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, parseErr := time.ParseDuration(projectCfg.Timeout)
		if parseErr != nil {
			return fmt.Errorf("invalid timeout in pglode.yaml: %w", parseErr)
		}
		timeout = parsed
	}

	runConfig := pglode.RunConfig{
		ConnectionString:  db.BuildConnectionString(connConfig),
		Only:              runFlags.only,
		Force:             runFlags.force,
		DryRun:            runFlags.dryRun,
		Timeout:           timeout,
		Verbose:           verbose,
		AuthMethod:        connConfig.AuthMethod,
		AzureTenantID:     connConfig.AzureTenantID,
		AzureClientID:     connConfig.AzureClientID,
		AzureClientSecret: connConfig.AzureClientSecret,
	}

	logger := logging.NewConsoleLogger(verbose)
	runner := ingest.NewRunner(db.NewConnector, source.NewOSFileSystem(), logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
		cancel()
	}()

	result, runErr := runner.Run(ctx, runConfig)
	if result != nil {
		printRunSummary(result, runFlags.dryRun)
	}
	return runErr
}

// printRunSummary renders the per-dataset outcomes and totals.
func printRunSummary(result *pglode.RunResult, dryRun bool) {
	if len(result.Entries) == 0 {
		fmt.Fprintln(os.Stderr, "Catalog is empty; nothing to do. Add entries with 'pglode add'.")
		return
	}

	rows := make([][]string, 0, len(result.Entries))
	var loaded, skipped, planned, failed int
	for _, e := range result.Entries {
		detail := ""
		switch e.Status {
		case pglode.StatusLoaded:
			loaded++
			detail = durationString(e.Duration)
		case pglode.StatusSkipped:
			skipped++
			detail = "source unchanged"
		case pglode.StatusPlanned:
			planned++
		case pglode.StatusFailed:
			failed++
			if e.Err != nil {
				detail = e.Err.Error()
			}
		}

		rows = append(rows, []string{
			statusSymbol(e.Status),
			e.Name,
			string(e.Status),
			strconv.FormatInt(e.RowCount, 10),
			detail,
		})
	}

	fmt.Fprint(os.Stdout, tui.RenderTable(
		[]string{"", "DATASET", "STATUS", "ROWS", "DETAIL"}, rows))

	fmt.Fprintln(os.Stderr)
	if dryRun {
		fmt.Fprintf(os.Stderr, "Dry run: %d planned, %d skipped, %d failed (%s)\n",
			planned, skipped, failed, durationString(result.Elapsed))
		return
	}
	fmt.Fprintf(os.Stderr, "%d loaded, %d skipped, %d failed (%s)\n",
		loaded, skipped, failed, durationString(result.Elapsed))
}

func statusSymbol(status pglode.EntryStatus) string {
	switch status {
	case pglode.StatusLoaded:
		return tui.SymbolCheck
	case pglode.StatusSkipped:
		return tui.SymbolSkip
	case pglode.StatusPlanned:
		return tui.SymbolPlan
	case pglode.StatusFailed:
		return tui.SymbolCross
	}
	return "?"
}

func durationString(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
