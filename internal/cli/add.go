package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pglode/internal/catalog"
	"github.com/vvka-141/pglode/internal/db"
	"github.com/vvka-141/pglode/internal/tui"
	"github.com/vvka-141/pglode/internal/tui/wizards"
	"github.com/vvka-141/pglode/pkg/pglode"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append dataset entries to the catalog",
	Long: `Append one or more dataset entries to the catalog.

Entries come from one of three sources:
1. Flags: --name, --source and --target describe a single entry
2. A YAML file: --file datasets.yaml appends a batch atomically
3. An interactive wizard, when run on a terminal with no entry flags

Dataset names are unique across the catalog (case-insensitive). A batch
either appends completely or not at all; one duplicate name rejects the
whole file.

The load frequency is a scheduling hint only: a keyword (hourly, daily,
weekly, monthly) or a cron expression. pglode validates it but never acts
on it. The transform note is free-text documentation and is never executed.

Examples:
  # Single entry from flags
  pglode add --name orders --source 'data/orders_*.csv' --target t_orders \
    --frequency daily --note 'dedupe on order_id'

  # Batch from a YAML file
  pglode add -f datasets.yaml

  # Interactive wizard
  pglode add`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

type addFlagValues struct {
	name      string
	source    string
	target    string
	frequency string
	note      string
	file      string
	timeout   time.Duration
}

var (
	addFlags     addFlagValues
	addConnFlags connectionFlags
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addFlags.name, "name", "", "Dataset name (unique across the catalog)")
	addCmd.Flags().StringVar(&addFlags.source, "source", "", "Source file path or glob pattern")
	addCmd.Flags().StringVar(&addFlags.target, "target", "", "Target table name (overwritten on every run)")
	addCmd.Flags().StringVar(&addFlags.frequency, "frequency", "",
		"Load frequency hint: hourly|daily|weekly|monthly or a cron expression")
	addCmd.Flags().StringVar(&addFlags.note, "note", "", "Free-text transform note (documentation only)")
	addCmd.Flags().StringVarP(&addFlags.file, "file", "f", "",
		"Append a batch of entries from a YAML file")
	addCmd.Flags().DurationVar(&addFlags.timeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout")

	registerConnectionFlags(addCmd, &addConnFlags)
}

// datasetsFile is the YAML document format read by --file.
type datasetsFile struct {
	Datasets []datasetsFileEntry `yaml:"datasets"`
}

type datasetsFileEntry struct {
	Name          string `yaml:"name"`
	SourcePath    string `yaml:"source_path"`
	TargetTable   string `yaml:"target_table"`
	LoadFrequency string `yaml:"load_frequency"`
	TransformNote string `yaml:"transform_note"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	entries, err := collectEntries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil // wizard cancelled
	}

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	connConfig, err := resolveConnectionFromFlags(addConnFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), addFlags.timeout)
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

	added, err := catalog.Append(ctx, pool, entries)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Appended %d entr%s to the catalog\n\n",
		len(added), pluralIES(len(added)))
	printEntriesTable(added)
	return nil
}

// collectEntries gathers dataset entries from the file, flags, or the
// interactive wizard, in that order of preference.
func collectEntries() ([]pglode.DatasetEntry, error) {
	if addFlags.file != "" {
		if addFlags.name != "" || addFlags.source != "" || addFlags.target != "" {
			return nil, fmt.Errorf("--file cannot be combined with --name/--source/--target")
		}
		return loadEntriesFromFile(addFlags.file)
	}

	if addFlags.name != "" || addFlags.source != "" || addFlags.target != "" {
		return []pglode.DatasetEntry{{
			Name:          addFlags.name,
			SourcePath:    addFlags.source,
			TargetTable:   addFlags.target,
			LoadFrequency: addFlags.frequency,
			TransformNote: addFlags.note,
		}}, nil
	}

	if !tui.IsInteractive() {
		return nil, fmt.Errorf("no entry provided\n\nProvide an entry via flags or a file:\n  pglode add --name orders --source 'data/orders_*.csv' --target t_orders\n  pglode add -f datasets.yaml\n\nOr run on a terminal for the interactive wizard")
	}

	result, err := wizards.RunAddEntry(pglode.DatasetEntry{
		LoadFrequency: addFlags.frequency,
		TransformNote: addFlags.note,
	})
	if err != nil {
		return nil, err
	}
	if result.Cancelled {
		fmt.Fprintln(os.Stderr, "Cancelled.")
		return nil, nil
	}
	return []pglode.DatasetEntry{result.Entry}, nil
}

// loadEntriesFromFile parses a datasets YAML file into catalog entries.
func loadEntriesFromFile(path string) ([]pglode.DatasetEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read datasets file '%s': %w", path, err)
	}

	var doc datasetsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse datasets file '%s': %w", path, err)
	}
	if len(doc.Datasets) == 0 {
		return nil, fmt.Errorf("datasets file '%s' contains no entries: %w", path, pglode.ErrInvalidEntry)
	}

	entries := make([]pglode.DatasetEntry, 0, len(doc.Datasets))
	for _, d := range doc.Datasets {
		entries = append(entries, pglode.DatasetEntry{
			Name:          d.Name,
			SourcePath:    d.SourcePath,
			TargetTable:   d.TargetTable,
			LoadFrequency: d.LoadFrequency,
			TransformNote: d.TransformNote,
		})
	}
	return entries, nil
}

func printEntriesTable(entries []pglode.DatasetEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name, e.SourcePath, e.TargetTable, e.LoadFrequency, e.TransformNote,
		})
	}
	fmt.Fprint(os.Stdout, tui.RenderTable(
		[]string{"NAME", "SOURCE", "TARGET", "FREQUENCY", "NOTE"}, rows))
}

func pluralIES(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
