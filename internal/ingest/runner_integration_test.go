package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pglode/internal/catalog"
	"github.com/vvka-141/pglode/internal/db"
	"github.com/vvka-141/pglode/internal/history"
	"github.com/vvka-141/pglode/internal/logging"
	"github.com/vvka-141/pglode/internal/source"
	pgltesting "github.com/vvka-141/pglode/internal/testing"
	"github.com/vvka-141/pglode/pkg/pglode"
)

func setupRun(t *testing.T, entries []pglode.DatasetEntry) (string, *pgxpool.Pool, *source.MemoryFileSystem, *Runner) {
	t.Helper()

	connString := pgltesting.RequireDatabase(t)
	pool := pgltesting.ConnectPool(t, connString)
	pgltesting.ResetControlTables(t, pool)

	if len(entries) > 0 {
		if _, err := catalog.Append(context.Background(), pool, entries); err != nil {
			t.Fatalf("Failed to seed catalog: %v", err)
		}
	}

	fs := source.NewMemoryFileSystem()
	runner := NewRunner(db.NewConnector, fs, logging.NewNullLogger())
	return connString, pool, fs, runner
}

func countIngestRecords(t *testing.T, pool *pgxpool.Pool, dataset string) int {
	t.Helper()
	records, err := history.List(context.Background(), pool, history.Filter{
		Dataset:   dataset,
		Operation: pglode.OpIngest,
	})
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	return len(records)
}

func TestRun_LoadsAndRecords_Integration(t *testing.T) {
	connString, pool, fs, runner := setupRun(t, []pglode.DatasetEntry{
		{Name: "orders", SourcePath: "data/orders_*.csv", TargetTable: "t_orders"},
	})
	ctx := context.Background()

	fs.AddFile("data/orders_2026_01.csv", "id,amount,flag\n1,9.99,true\n2,0.50,false\n")
	fs.AddFile("data/orders_2026_02.csv", "id,amount,flag\n3,1.00,true\n")

	result, err := runner.Run(ctx, pglode.RunConfig{ConnectionString: connString})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("Expected 1 entry result, got %d", len(result.Entries))
	}

	entry := result.Entries[0]
	if entry.Status != pglode.StatusLoaded {
		t.Fatalf("Status = %s, want loaded (err: %v)", entry.Status, entry.Err)
	}
	if entry.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", entry.RowCount)
	}
	if entry.Checksum == "" {
		t.Error("Checksum should be recorded")
	}

	// Values arrive as text, exactly as they appeared in the source
	var amount string
	err = pool.QueryRow(ctx, "SELECT amount FROM t_orders WHERE id = '1'").Scan(&amount)
	if err != nil {
		t.Fatalf("Failed to query target table: %v", err)
	}
	if amount != "9.99" {
		t.Errorf("amount = %q, want \"9.99\"", amount)
	}

	var colType string
	err = pool.QueryRow(ctx,
		"SELECT data_type FROM information_schema.columns WHERE table_name = 't_orders' AND column_name = 'flag'").
		Scan(&colType)
	if err != nil {
		t.Fatalf("Failed to inspect column type: %v", err)
	}
	if colType != "text" {
		t.Errorf("flag column type = %q, want text", colType)
	}

	records, err := history.List(ctx, pool, history.Filter{Dataset: "orders", Operation: pglode.OpIngest})
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 ingest record, got %d", len(records))
	}
	if records[0].RowCount != 3 || records[0].SourceChecksum != entry.Checksum {
		t.Errorf("Ingest record mismatch: %+v", records[0])
	}
	if records[0].Note != "data/orders_*.csv" {
		t.Errorf("Ingest record note = %q", records[0].Note)
	}
}

func TestRun_ChecksumSkip_Integration(t *testing.T) {
	connString, pool, fs, runner := setupRun(t, []pglode.DatasetEntry{
		{Name: "orders", SourcePath: "data/orders.csv", TargetTable: "t_orders"},
	})
	ctx := context.Background()

	fs.AddFile("data/orders.csv", "id,amount\n1,10\n")

	if _, err := runner.Run(ctx, pglode.RunConfig{ConnectionString: connString}); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	// Unchanged source skips, and skips leave no changelog row
	result, err := runner.Run(ctx, pglode.RunConfig{ConnectionString: connString})
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if result.Entries[0].Status != pglode.StatusSkipped {
		t.Fatalf("Status = %s, want skipped", result.Entries[0].Status)
	}
	if got := countIngestRecords(t, pool, "orders"); got != 1 {
		t.Errorf("Expected 1 ingest record after skip, got %d", got)
	}

	// A line-ending-only rewrite is still the same source
	fs.AddFile("data/orders.csv", "id,amount\r\n1,10\r\n")
	result, err = runner.Run(ctx, pglode.RunConfig{ConnectionString: connString})
	if err != nil {
		t.Fatalf("CRLF run failed: %v", err)
	}
	if result.Entries[0].Status != pglode.StatusSkipped {
		t.Fatalf("Status = %s, want skipped for line-ending-only change", result.Entries[0].Status)
	}
	fs.AddFile("data/orders.csv", "id,amount\n1,10\n")

	// Force reloads even when unchanged
	result, err = runner.Run(ctx, pglode.RunConfig{ConnectionString: connString, Force: true})
	if err != nil {
		t.Fatalf("Forced run failed: %v", err)
	}
	if result.Entries[0].Status != pglode.StatusLoaded {
		t.Fatalf("Status = %s, want loaded with --force", result.Entries[0].Status)
	}
	if got := countIngestRecords(t, pool, "orders"); got != 2 {
		t.Errorf("Expected 2 ingest records after force, got %d", got)
	}

	// A content change reloads without force
	fs.AddFile("data/orders.csv", "id,amount\n1,10\n2,20\n")
	result, err = runner.Run(ctx, pglode.RunConfig{ConnectionString: connString})
	if err != nil {
		t.Fatalf("Third run failed: %v", err)
	}
	if result.Entries[0].Status != pglode.StatusLoaded {
		t.Fatalf("Status = %s, want loaded after content change", result.Entries[0].Status)
	}

	var rows int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM t_orders").Scan(&rows); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if rows != 2 {
		t.Errorf("Expected 2 rows after reload, got %d", rows)
	}
}

func TestRun_DryRun_Integration(t *testing.T) {
	connString, pool, fs, runner := setupRun(t, []pglode.DatasetEntry{
		{Name: "orders", SourcePath: "data/orders.csv", TargetTable: "t_orders"},
	})
	ctx := context.Background()

	// Earlier tests in this package may have created the target table
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS t_orders"); err != nil {
		t.Fatalf("Failed to drop leftover table: %v", err)
	}
	fs.AddFile("data/orders.csv", "id\n1\n2\n")

	result, err := runner.Run(ctx, pglode.RunConfig{ConnectionString: connString, DryRun: true})
	if err != nil {
		t.Fatalf("Dry run failed: %v", err)
	}
	if result.Entries[0].Status != pglode.StatusPlanned {
		t.Fatalf("Status = %s, want planned", result.Entries[0].Status)
	}
	if result.Entries[0].RowCount != 2 {
		t.Errorf("Planned row count = %d, want 2", result.Entries[0].RowCount)
	}

	// Nothing written: no table, no changelog row
	var exists *string
	if err := pool.QueryRow(ctx, "SELECT to_regclass('t_orders')::text").Scan(&exists); err != nil {
		t.Fatalf("Failed to check table: %v", err)
	}
	if exists != nil {
		t.Error("Dry run must not create the target table")
	}
	if got := countIngestRecords(t, pool, "orders"); got != 0 {
		t.Errorf("Dry run must not record history, got %d records", got)
	}
}

func TestRun_FailureIsolation_Integration(t *testing.T) {
	connString, pool, fs, runner := setupRun(t, []pglode.DatasetEntry{
		{Name: "broken", SourcePath: "missing/*.csv", TargetTable: "t_broken"},
		{Name: "orders", SourcePath: "data/orders.csv", TargetTable: "t_orders"},
	})
	ctx := context.Background()

	fs.AddFile("data/orders.csv", "id\n1\n")

	result, err := runner.Run(ctx, pglode.RunConfig{ConnectionString: connString})
	if !errors.Is(err, pglode.ErrIngestFailed) {
		t.Fatalf("Expected ErrIngestFailed, got: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("Expected both entries processed, got %d", len(result.Entries))
	}

	byName := map[string]pglode.EntryResult{}
	for _, e := range result.Entries {
		byName[e.Name] = e
	}
	if byName["broken"].Status != pglode.StatusFailed {
		t.Errorf("broken status = %s, want failed", byName["broken"].Status)
	}
	if byName["orders"].Status != pglode.StatusLoaded {
		t.Errorf("orders status = %s, want loaded (err: %v)", byName["orders"].Status, byName["orders"].Err)
	}

	// The healthy dataset still landed
	var rows int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM t_orders").Scan(&rows); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected 1 row in t_orders, got %d", rows)
	}
}

func TestRun_OnlyUnknownDataset_Integration(t *testing.T) {
	connString, _, fs, runner := setupRun(t, []pglode.DatasetEntry{
		{Name: "orders", SourcePath: "data/orders.csv", TargetTable: "t_orders"},
	})
	fs.AddFile("data/orders.csv", "id\n1\n")

	_, err := runner.Run(context.Background(), pglode.RunConfig{
		ConnectionString: connString,
		Only:             []string{"nope"},
	})
	if !errors.Is(err, pglode.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
}

func TestRun_SchemaQualifiedTarget_Integration(t *testing.T) {
	connString, pool, fs, runner := setupRun(t, []pglode.DatasetEntry{
		{Name: "orders", SourcePath: "data/orders.csv", TargetTable: "staging.t_orders"},
	})
	ctx := context.Background()

	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS staging"); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	fs.AddFile("data/orders.csv", "id\n1\n")

	result, err := runner.Run(ctx, pglode.RunConfig{ConnectionString: connString})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Entries[0].Status != pglode.StatusLoaded {
		t.Fatalf("Status = %s, want loaded (err: %v)", result.Entries[0].Status, result.Entries[0].Err)
	}

	var rows int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM staging.t_orders").Scan(&rows); err != nil {
		t.Fatalf("Failed to query schema-qualified table: %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected 1 row, got %d", rows)
	}
}
