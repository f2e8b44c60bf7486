package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pglode/pkg/pglode"
)

func TestLoad(t *testing.T) {
	t.Run("empty version resolves to latest", func(t *testing.T) {
		sql, v, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Latest, v)
		assert.NotEmpty(t, sql)
	})

	t.Run("explicit v1", func(t *testing.T) {
		sql, v, err := Load("1")
		require.NoError(t, err)
		assert.Equal(t, V1, v)
		assert.Contains(t, sql, pglode.CatalogTable)
		assert.Contains(t, sql, pglode.ChangelogTable)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, _, err := Load("99")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported schema version")
	})
}

func TestDDLIsIdempotent(t *testing.T) {
	sql, _, err := Load("")
	require.NoError(t, err)

	// Every CREATE must be guarded so re-applying the schema is safe
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "CREATE ") {
			assert.Contains(t, trimmed, "IF NOT EXISTS", "unguarded statement: %s", trimmed)
		}
	}
}

func TestSupportedVersions(t *testing.T) {
	versions := SupportedVersions()
	require.NotEmpty(t, versions)
	assert.Contains(t, versions, V1)
}
