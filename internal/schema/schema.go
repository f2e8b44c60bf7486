// Package schema owns the DDL for the pglode control tables and knows how
// to apply, detect, and drop them. The DDL is embedded and versioned so a
// given binary always creates exactly the schema it was built with.
package schema

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pglode/pkg/pglode"
)

//go:embed ddl-v1.sql
var ddlV1SQL string

// Version represents a control-schema version identifier.
type Version string

const (
	V1     Version = "1"
	Latest Version = V1
)

var supportedVersions = map[Version]string{
	V1: "ddl-v1.sql",
}

// Executor is the subset of pgx query execution used by this package.
// *pgxpool.Pool, *pgxpool.Conn, and pgx.Tx all satisfy it.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Load returns the DDL for the specified schema version.
// If version is empty, the latest version is used.
func Load(version string) (string, Version, error) {
	v := Version(version)
	if v == "" {
		v = Latest
	}

	switch v {
	case V1:
		return ddlV1SQL, v, nil
	default:
		return "", "", fmt.Errorf("unsupported schema version %q; supported: %v", version, SupportedVersions())
	}
}

// Apply creates the control tables for the specified schema version.
// The DDL is idempotent; applying over an existing schema is a no-op.
func Apply(ctx context.Context, exec Executor, version string) (Version, error) {
	sql, v, err := Load(version)
	if err != nil {
		return "", err
	}

	if _, err := exec.Exec(ctx, sql); err != nil {
		return "", fmt.Errorf("failed to apply control schema v%s: %w", v, err)
	}

	return v, nil
}

// Exists reports whether the catalog table is present in the connected
// database.
func Exists(ctx context.Context, exec Executor) (bool, error) {
	var regclass *string
	err := exec.QueryRow(ctx, "SELECT to_regclass($1)::text", pglode.CatalogTable).Scan(&regclass)
	if err != nil {
		return false, fmt.Errorf("failed to check for catalog table: %w", err)
	}
	return regclass != nil, nil
}

// Drop removes the control tables. Used only by the guarded overwrite path
// of catalog initialization; loaded data tables are left untouched.
func Drop(ctx context.Context, exec Executor) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s, %s", pglode.CatalogTable, pglode.ChangelogTable)
	if _, err := exec.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop control tables: %w", err)
	}
	return nil
}

// SupportedVersions returns a sorted list of all supported schema versions.
func SupportedVersions() []Version {
	versions := make([]Version, 0, len(supportedVersions))
	for v := range supportedVersions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}
