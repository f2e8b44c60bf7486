package ingest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pglode/internal/logging"
	"github.com/vvka-141/pglode/internal/source"
	"github.com/vvka-141/pglode/pkg/pglode"
)

func entry(name string) pglode.DatasetEntry {
	return pglode.DatasetEntry{
		ID:          uuid.New(),
		Name:        name,
		SourcePath:  "data/" + name + ".csv",
		TargetTable: "t_" + name,
	}
}

func TestFilterEntries(t *testing.T) {
	entries := []pglode.DatasetEntry{entry("customers"), entry("orders"), entry("products")}

	t.Run("empty filter keeps all", func(t *testing.T) {
		got, err := filterEntries(entries, nil)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("filter selects in given order", func(t *testing.T) {
		got, err := filterEntries(entries, []string{"products", "customers"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "products", got[0].Name)
		assert.Equal(t, "customers", got[1].Name)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		got, err := filterEntries(entries, []string{"ORDERS"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "orders", got[0].Name)
	})

	t.Run("repeated names ingest once", func(t *testing.T) {
		got, err := filterEntries(entries, []string{"orders", "ORDERS", "products", "orders"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "orders", got[0].Name)
		assert.Equal(t, "products", got[1].Name)
	})

	t.Run("unknown name is a config error", func(t *testing.T) {
		_, err := filterEntries(entries, []string{"invoices"})
		require.Error(t, err)
		assert.ErrorIs(t, err, pglode.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "invoices")
	})
}

func TestCreateTableSQL(t *testing.T) {
	t.Run("plain identifiers", func(t *testing.T) {
		sql := createTableSQL(tableIdentifier("t_orders"), []string{"id", "customer"})
		assert.Equal(t, `CREATE TABLE "t_orders" ("id" text, "customer" text)`, sql)
	})

	t.Run("schema-qualified target", func(t *testing.T) {
		sql := createTableSQL(tableIdentifier("staging.orders"), []string{"id"})
		assert.Equal(t, `CREATE TABLE "staging"."orders" ("id" text)`, sql)
	})

	t.Run("hostile column names are quoted", func(t *testing.T) {
		sql := createTableSQL(tableIdentifier("t"), []string{`x"; DROP TABLE users; --`})
		assert.Contains(t, sql, `"x""; DROP TABLE users; --" text`)
	})
}

func TestTableRowSource(t *testing.T) {
	src := &tableRowSource{rows: [][]string{{"1", "alice"}, {"2", "bob"}}}

	require.True(t, src.Next())
	values, err := src.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "alice"}, values)

	require.True(t, src.Next())
	_, err = src.Values()
	require.NoError(t, err)

	assert.False(t, src.Next())
	assert.NoError(t, src.Err())
}

func TestSourceChecksum(t *testing.T) {
	fs := source.NewMemoryFileSystem()
	fs.AddFile("a.csv", "id\n1\n")
	fs.AddFile("b.csv", "id\n2\n")

	runner := NewRunner(func(*pglode.ConnectionConfig) (pglode.Connector, error) { return nil, nil },
		fs, logging.NewNullLogger())

	sum1, err := runner.sourceChecksum([]string{"a.csv", "b.csv"})
	require.NoError(t, err)

	sum2, err := runner.sourceChecksum([]string{"a.csv", "b.csv"})
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2, "checksum must be deterministic")

	// Order matters: the loader always hashes in sorted file order
	sum3, err := runner.sourceChecksum([]string{"b.csv", "a.csv"})
	require.NoError(t, err)
	assert.NotEqual(t, sum1, sum3)

	// Line-ending style is not a content change
	fs.AddFile("a_crlf.csv", "id\r\n1\r\n")
	sumCRLF, err := runner.sourceChecksum([]string{"a_crlf.csv"})
	require.NoError(t, err)
	sumLF, err := runner.sourceChecksum([]string{"a.csv"})
	require.NoError(t, err)
	assert.Equal(t, sumLF, sumCRLF)

	_, err = runner.sourceChecksum([]string{"missing.csv"})
	require.Error(t, err)
}

func TestNewRunner_NilDependencies(t *testing.T) {
	fs := source.NewMemoryFileSystem()
	factory := func(*pglode.ConnectionConfig) (pglode.Connector, error) { return nil, nil }

	assert.Panics(t, func() { NewRunner(nil, fs, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewRunner(factory, nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewRunner(factory, fs, nil) })
}

func TestValidateAndParseConfig(t *testing.T) {
	runner := NewRunner(func(*pglode.ConnectionConfig) (pglode.Connector, error) { return nil, nil },
		source.NewMemoryFileSystem(), logging.NewNullLogger())

	t.Run("valid config", func(t *testing.T) {
		cfg, err := runner.validateAndParseConfig(pglode.RunConfig{
			ConnectionString: "postgresql://loader@localhost:5432/warehouse",
		})
		require.NoError(t, err)
		assert.Equal(t, "pglode", cfg.AppName)
		assert.Equal(t, "warehouse", cfg.Database)
	})

	t.Run("missing connection string", func(t *testing.T) {
		_, err := runner.validateAndParseConfig(pglode.RunConfig{})
		assert.ErrorIs(t, err, pglode.ErrInvalidConfig)
	})

	t.Run("cloud credentials are carried over", func(t *testing.T) {
		cfg, err := runner.validateAndParseConfig(pglode.RunConfig{
			ConnectionString: "postgresql://loader@localhost/warehouse",
			AuthMethod:       pglode.AuthMethodAzureEntraID,
			AzureTenantID:    "tenant",
		})
		require.NoError(t, err)
		assert.Equal(t, pglode.AuthMethodAzureEntraID, cfg.AuthMethod)
		assert.Equal(t, "tenant", cfg.AzureTenantID)
	})
}
