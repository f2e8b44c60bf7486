// Package catalog manages the dataset catalog: the control table that tells
// the loader which datasets exist, where their source files live, and which
// tables they load into.
//
// The catalog is append-only from the CLI's point of view. Entries are added
// in batches and never mutated in place; re-initializing an existing catalog
// destroys its history and therefore requires explicit approval.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pglode/internal/history"
	"github.com/vvka-141/pglode/internal/schema"
	"github.com/vvka-141/pglode/pkg/pglode"
)

// InitOptions controls catalog initialization.
type InitOptions struct {
	// Overwrite drops an existing catalog and its changelog before
	// recreating them. Requires approval.
	Overwrite bool

	// Approver gates the destructive overwrite path. Required when
	// Overwrite is set.
	Approver pglode.Approver

	// Logger receives progress output. Required.
	Logger pglode.Logger
}

// Init creates the catalog and changelog tables.
//
// If the catalog already exists the call fails with ErrCatalogExists unless
// Overwrite is set, in which case the existing control tables (and their
// history) are dropped after approval. Loaded data tables are never touched.
func Init(ctx context.Context, pool *pgxpool.Pool, opts InitOptions) error {
	exists, err := schema.Exists(ctx, pool)
	if err != nil {
		return err
	}

	if exists {
		if !opts.Overwrite {
			return fmt.Errorf("catalog table %s already exists (use --overwrite to recreate): %w",
				pglode.CatalogTable, pglode.ErrCatalogExists)
		}

		if opts.Approver == nil {
			return fmt.Errorf("overwrite requested without an approver: %w", pglode.ErrApprovalDenied)
		}
		approved, err := opts.Approver.RequestApproval(ctx, pglode.CatalogTable)
		if err != nil {
			return err
		}
		if !approved {
			return fmt.Errorf("catalog overwrite not approved: %w", pglode.ErrApprovalDenied)
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if exists {
		opts.Logger.Verbose("Dropping existing control tables")
		if err := schema.Drop(ctx, tx); err != nil {
			return err
		}
	}

	version, err := schema.Apply(ctx, tx, "")
	if err != nil {
		return err
	}
	opts.Logger.Verbose("Applied control schema v%s", version)

	if _, err := history.Record(ctx, tx, pglode.ChangeRecord{
		Operation: pglode.OpInit,
		Dataset:   pglode.CatalogTable,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog initialization: %w", err)
	}

	opts.Logger.Info("Catalog initialized (%s, %s)", pglode.CatalogTable, pglode.ChangelogTable)
	return nil
}

// Append validates the entries and adds them to the catalog in one
// transaction, together with a single changelog row covering the batch.
//
// Dataset names must be unique, both within the batch and against the
// existing catalog. Either the whole batch is appended or none of it.
func Append(ctx context.Context, pool *pgxpool.Pool, entries []pglode.DatasetEntry) ([]pglode.DatasetEntry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries to append: %w", pglode.ErrInvalidEntry)
	}

	seen := make(map[string]bool, len(entries))
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("entry %q: %w", entries[i].Name, err)
		}

		name := strings.ToLower(entries[i].Name)
		if seen[name] {
			return nil, fmt.Errorf("dataset %q appears twice in batch: %w",
				entries[i].Name, pglode.ErrDuplicateDataset)
		}
		seen[name] = true

		if entries[i].ID == uuid.Nil {
			entries[i].ID = uuid.New()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = time.Now().UTC()
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sql := fmt.Sprintf(`
		INSERT INTO %s (id, dataset_name, source_path, target_table, load_frequency, transform_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, pglode.CatalogTable)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(sql, e.ID, e.Name, e.SourcePath, e.TargetTable,
			e.LoadFrequency, e.TransformNote, e.CreatedAt)
	}

	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, classifyAppendError(err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, classifyAppendError(err)
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	if _, err := history.Record(ctx, tx, pglode.ChangeRecord{
		Operation: pglode.OpAppend,
		Dataset:   pglode.CatalogTable,
		RowCount:  int64(len(entries)),
		Note:      strings.Join(names, ", "),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit catalog append: %w", err)
	}

	return entries, nil
}

// Snapshot reads the full catalog in one query. The loader takes exactly one
// snapshot per run; catalog writes after the snapshot do not affect a run in
// progress.
func Snapshot(ctx context.Context, q history.Querier) ([]pglode.DatasetEntry, error) {
	sql := fmt.Sprintf(`
		SELECT id, dataset_name, source_path, target_table, load_frequency, transform_note, created_at
		FROM %s
		ORDER BY dataset_name`, pglode.CatalogTable)

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, classifyReadError(err)
	}
	defer rows.Close()

	var entries []pglode.DatasetEntry
	for rows.Next() {
		var e pglode.DatasetEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.SourcePath, &e.TargetTable,
			&e.LoadFrequency, &e.TransformNote, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return entries, nil
}

func classifyAppendError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("dataset name already in catalog: %w", pglode.ErrDuplicateDataset)
		case "42P01": // undefined_table
			return fmt.Errorf("catalog table %s not found (run `pglode init --db` first): %w",
				pglode.CatalogTable, pglode.ErrCatalogMissing)
		}
	}
	return fmt.Errorf("failed to append catalog entries: %w", err)
}

func classifyReadError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("catalog table %s not found (run `pglode init --db` first): %w",
			pglode.CatalogTable, pglode.ErrCatalogMissing)
	}
	return fmt.Errorf("failed to read catalog: %w", err)
}
