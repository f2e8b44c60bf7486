package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pglode/internal/catalog"
	"github.com/vvka-141/pglode/internal/db"
	"github.com/vvka-141/pglode/internal/logging"
	"github.com/vvka-141/pglode/internal/scaffold"
	"github.com/vvka-141/pglode/internal/tui"
	"github.com/vvka-141/pglode/internal/ui"
	"github.com/vvka-141/pglode/pkg/pglode"
)

var initCmd = &cobra.Command{
	Use:   "init [target_path]",
	Short: "Initialize a pglode project or the database catalog",
	Long: `Initialize a pglode project directory, or create the catalog tables
in the database.

Without --db, init scaffolds a project directory with:
- pglode.yaml connection configuration
- datasets.yaml example catalog entries
- data/ directory for CSV source files

With --db, init connects to PostgreSQL and creates the control tables
(` + pglode.CatalogTable + ` and ` + pglode.ChangelogTable + `). If the catalog
already exists, --overwrite drops and recreates it after confirmation.
Overwriting destroys the catalog and its history; loaded data tables are
never touched.

Examples:
  pglode init .                  # Scaffold in current directory
  pglode init ./warehouse        # Scaffold in ./warehouse
  pglode init --db -d warehouse  # Create catalog tables in 'warehouse'
  pglode init --db --overwrite --force   # Recreate catalog (CI/CD)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initTemplate  string
	initDB        bool
	initOverwrite bool
	initForce     bool
	initTimeout   time.Duration
	initConnFlags connectionFlags
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "basic", "Project template to use")
	initCmd.Flags().BoolVar(&initDB, "db", false,
		"Create the catalog tables in the database instead of scaffolding files")
	initCmd.Flags().BoolVar(&initOverwrite, "overwrite", false,
		"Drop and recreate an existing catalog (destroys catalog history)\n"+
			"Requires interactive confirmation unless --force is used")
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Skip the interactive approval prompt for --overwrite\n"+
			"A short countdown runs instead; use in CI/CD pipelines")
	initCmd.Flags().DurationVar(&initTimeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout")

	registerConnectionFlags(initCmd, &initConnFlags)
}

func runInit(cmd *cobra.Command, args []string) error {
	if initDB {
		return runInitDB(cmd)
	}
	return runInitScaffold(cmd, args)
}

func runInitScaffold(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("target path required\n\nUsage: pglode init <target_path> [flags]\n\nExamples:\n  pglode init .            # Current directory\n  pglode init ./warehouse  # Subdirectory\n\nUse 'pglode init --db' to create the catalog tables in the database")
	}

	targetPath := args[0]

	projectName := filepath.Base(targetPath)
	if projectName == "." || projectName == ".." {
		cwd, err := os.Getwd()
		if err == nil {
			projectName = filepath.Base(cwd)
		} else {
			projectName = "project"
		}
	}
	verbose := getVerboseFlag(cmd)

	templates, err := scaffold.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	validTemplate := false
	for _, t := range templates {
		if t == initTemplate {
			validTemplate = true
			break
		}
	}
	if !validTemplate {
		return fmt.Errorf("invalid template '%s'. Available templates: %v", initTemplate, templates)
	}

	scaffolder := scaffold.NewScaffolder(verbose)
	if err := scaffolder.CreateProject(projectName, initTemplate, targetPath); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully in '%s'\n\n", targetPath)
	} else {
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully using template '%s'\n\n", initTemplate)
		fmt.Fprintln(os.Stderr, "Created structure:")
		fmt.Fprint(os.Stderr, tree)
	}

	fmt.Fprintln(os.Stderr, "\nNext steps:")
	if targetPath != "." {
		fmt.Fprintf(os.Stderr, "  cd %s\n", targetPath)
	}
	fmt.Fprintln(os.Stderr, "  pglode init --db           # Create the catalog tables")
	fmt.Fprintln(os.Stderr, "  pglode add -f datasets.yaml")
	fmt.Fprintln(os.Stderr, "  pglode run")

	return nil
}

func runInitDB(cmd *cobra.Command) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	connConfig, err := resolveConnectionFromFlags(initConnFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), initTimeout)
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

	var approver pglode.Approver
	switch {
	case initForce:
		approver = ui.NewForcedApprover(verbose)
	case tui.IsInteractive():
		approver = ui.NewInteractiveApprover(verbose)
	}

	err = catalog.Init(ctx, pool, catalog.InitOptions{
		Overwrite: initOverwrite,
		Approver:  approver,
		Logger:    logging.NewConsoleLogger(verbose),
	})
	if err != nil {
		if errors.Is(err, pglode.ErrCatalogExists) {
			return fmt.Errorf("%w\n\nUse --overwrite to drop and recreate the catalog.\nThis destroys the catalog and its changelog; loaded data tables are kept", err)
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Catalog initialized (%s, %s)\n", pglode.CatalogTable, pglode.ChangelogTable)
	return nil
}
