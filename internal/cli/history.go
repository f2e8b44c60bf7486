package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pglode/internal/db"
	"github.com/vvka-141/pglode/internal/history"
	"github.com/vvka-141/pglode/internal/tui"
	"github.com/vvka-141/pglode/pkg/pglode"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the changelog",
	Long: `Show the append-only changelog, newest first.

Every write pglode performs adds one row: catalog creation (init), entry
batches (append) and table overwrites (ingest). Checksum skips are not
recorded, so the number of rows equals the number of actual writes.

Examples:
  pglode history
  pglode history --dataset orders
  pglode history --operation ingest --limit 10
  pglode history --json | jq '.[0]'`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

type historyFlagValues struct {
	dataset   string
	operation string
	limit     int
	jsonOut   bool
	timeout   time.Duration
}

var (
	historyFlags     historyFlagValues
	historyConnFlags connectionFlags
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.dataset, "dataset", "",
		"Only show changes for this dataset")
	historyCmd.Flags().StringVar(&historyFlags.operation, "operation", "",
		"Only show this operation kind: init|append|ingest")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 0,
		fmt.Sprintf("Maximum rows to show, newest first (default %d)", pglode.DefaultHistoryLimit))
	historyCmd.Flags().BoolVar(&historyFlags.jsonOut, "json", false,
		"Output as JSON for pipeline consumption")
	historyCmd.Flags().DurationVar(&historyFlags.timeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout")

	registerConnectionFlags(historyCmd, &historyConnFlags)
}

// changeRecordJSON is the stable JSON shape emitted by --json.
type changeRecordJSON struct {
	Version        int64  `json:"version"`
	Operation      string `json:"operation"`
	Dataset        string `json:"dataset"`
	RowCount       int64  `json:"row_count"`
	SourceChecksum string `json:"source_checksum,omitempty"`
	PerformedBy    string `json:"performed_by"`
	PerformedAt    string `json:"performed_at"`
	Note           string `json:"note,omitempty"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	filter, err := buildHistoryFilter(historyFlags)
	if err != nil {
		return err
	}

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	connConfig, err := resolveConnectionFromFlags(historyConnFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), historyFlags.timeout)
	defer cancel()

	connector, err := db.NewConnector(connConfig)
	if err != nil {
		return err
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	records, err := history.List(ctx, pool, filter)
	if err != nil {
		return err
	}

	if historyFlags.jsonOut {
		out := make([]changeRecordJSON, 0, len(records))
		for _, r := range records {
			out = append(out, changeRecordJSON{
				Version:        r.Version,
				Operation:      string(r.Operation),
				Dataset:        r.Dataset,
				RowCount:       r.RowCount,
				SourceChecksum: r.SourceChecksum,
				PerformedBy:    r.PerformedBy,
				PerformedAt:    r.PerformedAt.Format(time.RFC3339),
				Note:           r.Note,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No changelog entries match.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.Version, 10),
			string(r.Operation),
			r.Dataset,
			strconv.FormatInt(r.RowCount, 10),
			shortChecksum(r.SourceChecksum),
			r.PerformedBy,
			r.PerformedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	fmt.Fprint(os.Stdout, tui.RenderTable(
		[]string{"VERSION", "OPERATION", "DATASET", "ROWS", "CHECKSUM", "BY", "AT"}, rows))
	return nil
}

// buildHistoryFilter validates the flag values into a changelog filter.
func buildHistoryFilter(flags historyFlagValues) (history.Filter, error) {
	filter := history.Filter{
		Dataset: flags.dataset,
		Limit:   flags.limit,
	}

	if flags.limit < 0 {
		return history.Filter{}, fmt.Errorf("--limit cannot be negative: %w", pglode.ErrInvalidConfig)
	}

	switch op := pglode.Operation(flags.operation); op {
	case "", pglode.OpInit, pglode.OpAppend, pglode.OpIngest:
		filter.Operation = op
	default:
		return history.Filter{}, fmt.Errorf("unknown operation '%s' (expected init, append or ingest): %w",
			flags.operation, pglode.ErrInvalidConfig)
	}

	return filter, nil
}

// shortChecksum truncates a SHA-256 hex digest for table display.
func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
