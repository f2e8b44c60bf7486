package history

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pglode/pkg/pglode"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name         string
		filter       Filter
		wantContains []string
		wantArgs     []any
	}{
		{
			name:         "no filter uses default limit",
			filter:       Filter{},
			wantContains: []string{"ORDER BY version DESC", "LIMIT $1"},
			wantArgs:     []any{pglode.DefaultHistoryLimit},
		},
		{
			name:         "dataset filter",
			filter:       Filter{Dataset: "orders", Limit: 10},
			wantContains: []string{"dataset = $1", "LIMIT $2"},
			wantArgs:     []any{"orders", 10},
		},
		{
			name:         "operation filter",
			filter:       Filter{Operation: pglode.OpIngest, Limit: 5},
			wantContains: []string{"operation = $1", "LIMIT $2"},
			wantArgs:     []any{"ingest", 5},
		},
		{
			name:         "combined filters",
			filter:       Filter{Dataset: "orders", Operation: pglode.OpAppend, Limit: 1},
			wantContains: []string{"dataset = $1", "operation = $2", "LIMIT $3"},
			wantArgs:     []any{"orders", "append", 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildListQuery(tt.filter)
			for _, want := range tt.wantContains {
				assert.Contains(t, sql, want)
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestIsUndefinedTable(t *testing.T) {
	assert.True(t, isUndefinedTable(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, isUndefinedTable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUndefinedTable(assert.AnError))
}

func TestCurrentActor(t *testing.T) {
	t.Setenv("USER", "loader")
	assert.Equal(t, "loader", CurrentActor())

	t.Setenv("USER", "")
	t.Setenv("USERNAME", "winloader")
	assert.Equal(t, "winloader", CurrentActor())

	t.Setenv("USERNAME", "")
	require.Equal(t, "unknown", CurrentActor())
}
