// Package history reads and writes the append-only changelog.
//
// Every write pglode performs, whether against the catalog or a target
// table, adds exactly one row here. Version numbers are assigned by the
// database and increase monotonically, so the changelog doubles as an audit
// trail and as the checksum memory the loader uses to skip unchanged
// sources.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pglode/pkg/pglode"
)

// Querier is the subset of pgx used by this package.
// *pgxpool.Pool, *pgxpool.Conn, and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Filter narrows a changelog listing.
type Filter struct {
	// Dataset restricts results to one dataset. Empty means all.
	Dataset string

	// Operation restricts results to one operation kind. Empty means all.
	Operation pglode.Operation

	// Limit caps the number of rows returned, newest first.
	// Zero means pglode.DefaultHistoryLimit.
	Limit int
}

// Record appends one row to the changelog and returns it with the
// database-assigned version and timestamp filled in. If PerformedBy is
// empty, the current OS user is recorded.
func Record(ctx context.Context, q Querier, rec pglode.ChangeRecord) (pglode.ChangeRecord, error) {
	if rec.PerformedBy == "" {
		rec.PerformedBy = CurrentActor()
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (operation, dataset, row_count, source_checksum, performed_by, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING version, performed_at`, pglode.ChangelogTable)

	err := q.QueryRow(ctx, sql,
		string(rec.Operation), rec.Dataset, rec.RowCount,
		rec.SourceChecksum, rec.PerformedBy, rec.Note,
	).Scan(&rec.Version, &rec.PerformedAt)
	if err != nil {
		return pglode.ChangeRecord{}, fmt.Errorf("failed to record %s operation: %w", rec.Operation, err)
	}

	return rec, nil
}

// List returns changelog rows matching the filter, newest first.
func List(ctx context.Context, q Querier, filter Filter) ([]pglode.ChangeRecord, error) {
	sql, args := buildListQuery(filter)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, pglode.ErrCatalogMissing
		}
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}
	defer rows.Close()

	var records []pglode.ChangeRecord
	for rows.Next() {
		var rec pglode.ChangeRecord
		var op string
		if err := rows.Scan(&rec.Version, &op, &rec.Dataset, &rec.RowCount,
			&rec.SourceChecksum, &rec.PerformedBy, &rec.PerformedAt, &rec.Note); err != nil {
			return nil, fmt.Errorf("failed to scan changelog row: %w", err)
		}
		rec.Operation = pglode.Operation(op)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}

	return records, nil
}

// LastChecksum returns the source checksum of the most recent successful
// ingest of the dataset, or "" if it was never ingested.
func LastChecksum(ctx context.Context, q Querier, dataset string) (string, error) {
	sql := fmt.Sprintf(`
		SELECT source_checksum FROM %s
		WHERE operation = $1 AND dataset = $2
		ORDER BY version DESC
		LIMIT 1`, pglode.ChangelogTable)

	var checksum string
	err := q.QueryRow(ctx, sql, string(pglode.OpIngest), dataset).Scan(&checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last checksum for %s: %w", dataset, err)
	}
	return checksum, nil
}

func buildListQuery(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Dataset != "" {
		args = append(args, filter.Dataset)
		conditions = append(conditions, fmt.Sprintf("dataset = $%d", len(args)))
	}
	if filter.Operation != "" {
		args = append(args, string(filter.Operation))
		conditions = append(conditions, fmt.Sprintf("operation = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = pglode.DefaultHistoryLimit
	}
	args = append(args, limit)

	sql := fmt.Sprintf(`
		SELECT version, operation, dataset, row_count, source_checksum, performed_by, performed_at, note
		FROM %s%s
		ORDER BY version DESC
		LIMIT $%d`, pglode.ChangelogTable, where, len(args))

	return sql, args
}

// isUndefinedTable reports whether the error is PostgreSQL's undefined_table
// (42P01), which here means `pglode init --db` has not been run.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}

// CurrentActor identifies the OS user performing the operation.
func CurrentActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return "unknown"
}
