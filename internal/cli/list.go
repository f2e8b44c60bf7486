package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pglode/internal/catalog"
	"github.com/vvka-141/pglode/internal/db"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the catalog entries",
	Long: `Show the dataset entries currently registered in the catalog,
sorted by name.

Examples:
  pglode list
  pglode list --json | jq '.[].name'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listJSON      bool
	listTimeout   time.Duration
	listConnFlags connectionFlags
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON for pipeline consumption")
	listCmd.Flags().DurationVar(&listTimeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout")

	registerConnectionFlags(listCmd, &listConnFlags)
}

// listEntryJSON is the stable JSON shape emitted by --json.
type listEntryJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SourcePath    string `json:"source_path"`
	TargetTable   string `json:"target_table"`
	LoadFrequency string `json:"load_frequency,omitempty"`
	TransformNote string `json:"transform_note,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func runList(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	connConfig, err := resolveConnectionFromFlags(listConnFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), listTimeout)
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

	entries, err := catalog.Snapshot(ctx, pool)
	if err != nil {
		return err
	}

	if listJSON {
		out := make([]listEntryJSON, 0, len(entries))
		for _, e := range entries {
			out = append(out, listEntryJSON{
				ID:            e.ID.String(),
				Name:          e.Name,
				SourcePath:    e.SourcePath,
				TargetTable:   e.TargetTable,
				LoadFrequency: e.LoadFrequency,
				TransformNote: e.TransformNote,
				CreatedAt:     e.CreatedAt.Format(time.RFC3339),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Catalog is empty. Add entries with 'pglode add'.")
		return nil
	}

	printEntriesTable(entries)
	fmt.Fprintf(os.Stderr, "\n%d dataset(s)\n", len(entries))
	return nil
}
