package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `
             _           _
  _ __    __ _| | ___   __| | ___
 | '_ \ / _` + "`" + ` | |/ _ \ / _` + "`" + ` |/ _ \
 | |_) | (_| | | (_) | (_| |  __/
 | .__/ \__, |_|\___/ \__,_|\___|
 |_|    |___/`

var rootCmd = &cobra.Command{
	Use:   "pglode",
	Short: "Catalog-driven CSV loader for PostgreSQL",
	Long: asciiLogo + `

pglode keeps a catalog table describing your datasets: where their CSV
source files live, which table each one loads into, and how often it should
be refreshed. The loader reads the catalog, overwrites each target table
from its source, and records every write in an append-only changelog.

All loaded columns are text. Typing and transformation happen downstream,
in the database, where the transform notes say they should.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or catalog entry
  11 - Database connection failed
  12 - User denied overwrite approval
  13 - One or more dataset ingests failed
  14 - Catalog tables not found (run 'pglode init --db' first)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for pglode")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
