// Package ingest implements the catalog-driven loader.
//
// A run takes one immutable snapshot of the catalog, then processes each
// entry in order: resolve the source files, parse them, and overwrite the
// target table inside a single transaction. One failing entry never aborts
// the rest of the run; failures are collected and reported at the end.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pglode/internal/catalog"
	"github.com/vvka-141/pglode/internal/checksum"
	"github.com/vvka-141/pglode/internal/db"
	"github.com/vvka-141/pglode/internal/history"
	"github.com/vvka-141/pglode/internal/retry"
	"github.com/vvka-141/pglode/internal/source"
	"github.com/vvka-141/pglode/pkg/pglode"
)

// Runner implements the Ingestor interface.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type Runner struct {
	connectorFactory func(*pglode.ConnectionConfig) (pglode.Connector, error)
	fs               source.FileSystem
	logger           pglode.Logger
	checksummer      checksum.Calculator
	retryExecutor    *retry.Executor
}

// NewRunner creates a Runner with all dependencies injected.
// Panics on nil dependencies: those are programmer errors and should fail
// loudly at startup rather than surface as nil dereferences mid-run.
func NewRunner(
	connectorFactory func(*pglode.ConnectionConfig) (pglode.Connector, error),
	fs source.FileSystem,
	logger pglode.Logger,
) *Runner {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if fs == nil {
		panic("fs cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &Runner{
		connectorFactory: connectorFactory,
		fs:               fs,
		logger:           logger,
		checksummer:      checksum.SHA256{},
		retryExecutor: retry.NewExecutor(
			retry.NewPostgreSQLErrorClassifier(),
			retry.NewExponentialBackoff(pglode.DefaultRetryMaxAttempts,
				retry.WithInitialDelay(pglode.DefaultRetryInitialDelay),
				retry.WithMaxDelay(pglode.DefaultRetryMaxDelay),
			),
		),
	}
}

// Run executes a loader run using the provided configuration.
func (r *Runner) Run(ctx context.Context, config pglode.RunConfig) (*pglode.RunResult, error) {
	connConfig, err := r.validateAndParseConfig(config)
	if err != nil {
		return nil, err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	connector, err := r.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	// One snapshot per run. Catalog writes after this point do not affect
	// the run in progress.
	entries, err := catalog.Snapshot(ctx, pool)
	if err != nil {
		return nil, err
	}
	r.logger.Verbose("Catalog snapshot: %d entries", len(entries))

	entries, err = filterEntries(entries, config.Only)
	if err != nil {
		return nil, err
	}

	result := &pglode.RunResult{Started: time.Now()}
	for _, entry := range entries {
		result.Entries = append(result.Entries, r.processEntry(ctx, pool, entry, config))
	}
	result.Elapsed = time.Since(result.Started)

	if failed := result.Failed(); len(failed) > 0 {
		return result, fmt.Errorf("%d of %d datasets failed: %w",
			len(failed), len(result.Entries), pglode.ErrIngestFailed)
	}

	return result, nil
}

func (r *Runner) validateAndParseConfig(config pglode.RunConfig) (*pglode.ConnectionConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "pglode"
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret

	return connConfig, nil
}

// filterEntries applies the --only restriction. Names that match nothing in
// the catalog are configuration errors, not silent no-ops. Repeated names
// select their entry once.
func filterEntries(entries []pglode.DatasetEntry, only []string) ([]pglode.DatasetEntry, error) {
	if len(only) == 0 {
		return entries, nil
	}

	byName := make(map[string]pglode.DatasetEntry, len(entries))
	for _, e := range entries {
		byName[strings.ToLower(e.Name)] = e
	}

	filtered := make([]pglode.DatasetEntry, 0, len(only))
	seen := make(map[string]bool, len(only))
	for _, name := range only {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		entry, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("dataset %q not found in catalog: %w", name, pglode.ErrInvalidConfig)
		}
		filtered = append(filtered, entry)
	}

	return filtered, nil
}

// processEntry ingests one catalog entry and never lets its error escape;
// the outcome lands in the returned EntryResult.
func (r *Runner) processEntry(ctx context.Context, pool *pgxpool.Pool, entry pglode.DatasetEntry, config pglode.RunConfig) pglode.EntryResult {
	started := time.Now()
	result := pglode.EntryResult{Name: entry.Name}

	fail := func(err error) pglode.EntryResult {
		r.logger.Error("✗ %s: %v", entry.Name, err)
		result.Status = pglode.StatusFailed
		result.Err = err
		result.Duration = time.Since(started)
		return result
	}

	r.logger.Verbose("Resolving source for '%s': %s", entry.Name, entry.SourcePath)

	table, err := source.NewReader(r.fs).ReadGlob(entry.SourcePath)
	if err != nil {
		return fail(err)
	}

	sum, err := r.sourceChecksum(table.Files)
	if err != nil {
		return fail(err)
	}
	result.Checksum = sum
	result.RowCount = int64(len(table.Rows))

	if !config.Force {
		last, err := history.LastChecksum(ctx, pool, entry.Name)
		if err != nil {
			return fail(err)
		}
		if last != "" && last == sum {
			r.logger.Info("- %s: source unchanged, skipping (use --force to reload)", entry.Name)
			result.Status = pglode.StatusSkipped
			result.Duration = time.Since(started)
			return result
		}
	}

	if config.DryRun {
		r.logger.Info("~ %s: would load %d rows from %d file(s) into %s",
			entry.Name, len(table.Rows), len(table.Files), entry.TargetTable)
		result.Status = pglode.StatusPlanned
		result.Duration = time.Since(started)
		return result
	}

	err = r.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		return r.overwriteTarget(ctx, pool, entry, table, sum)
	})
	if err != nil {
		return fail(err)
	}

	r.logger.Info("✓ %s: loaded %d rows into %s", entry.Name, len(table.Rows), entry.TargetTable)
	result.Status = pglode.StatusLoaded
	result.Duration = time.Since(started)
	return result
}

// overwriteTarget replaces the target table with the source rows in one
// transaction: drop, recreate with text columns from the header, bulk-copy,
// changelog row. Readers of the old table see it until commit.
func (r *Runner) overwriteTarget(ctx context.Context, pool *pgxpool.Pool, entry pglode.DatasetEntry, table *source.Table, sum string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	target := tableIdentifier(entry.TargetTable)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+target.Sanitize()); err != nil {
		return fmt.Errorf("failed to drop %s: %w", entry.TargetTable, err)
	}

	if _, err := tx.Exec(ctx, createTableSQL(target, table.Columns)); err != nil {
		return fmt.Errorf("failed to create %s: %w", entry.TargetTable, err)
	}

	copied, err := tx.CopyFrom(ctx, target, table.Columns, &tableRowSource{rows: table.Rows})
	if err != nil {
		return fmt.Errorf("failed to copy rows into %s: %w", entry.TargetTable, err)
	}
	if copied != int64(len(table.Rows)) {
		return fmt.Errorf("copied %d of %d rows into %s", copied, len(table.Rows), entry.TargetTable)
	}

	if _, err := history.Record(ctx, tx, pglode.ChangeRecord{
		Operation:      pglode.OpIngest,
		Dataset:        entry.Name,
		RowCount:       copied,
		SourceChecksum: sum,
		Note:           entry.SourcePath,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ingest of %s: %w", entry.Name, err)
	}

	return nil
}

// sourceChecksum hashes the concatenated bytes of the source files in their
// sorted order, normalized so BOM or line-ending-only edits still match and
// renames without content changes still match.
func (r *Runner) sourceChecksum(files []string) (string, error) {
	var all []byte
	for _, path := range files {
		data, err := r.fs.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s for checksum: %w", path, err)
		}
		all = append(all, data...)
	}
	return r.checksummer.CalculateNormalized(all), nil
}

// tableIdentifier splits an optionally schema-qualified name into a pgx
// identifier for safe quoting.
func tableIdentifier(name string) pgx.Identifier {
	parts := strings.SplitN(name, ".", 2)
	return pgx.Identifier(parts)
}

func createTableSQL(target pgx.Identifier, columns []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pgx.Identifier{col}.Sanitize() + " text"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", target.Sanitize(), strings.Join(defs, ", "))
}

// tableRowSource adapts parsed rows to pgx.CopyFromSource. Values stay text;
// the target columns are all text so no conversion happens server-side.
type tableRowSource struct {
	rows [][]string
	idx  int
}

func (s *tableRowSource) Next() bool {
	return s.idx < len(s.rows)
}

func (s *tableRowSource) Values() ([]any, error) {
	row := s.rows[s.idx]
	s.idx++
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	return values, nil
}

func (s *tableRowSource) Err() error { return nil }
