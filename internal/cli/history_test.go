package cli

import (
	"errors"
	"testing"

	"github.com/vvka-141/pglode/pkg/pglode"
)

func TestBuildHistoryFilter(t *testing.T) {
	tests := []struct {
		name    string
		flags   historyFlagValues
		wantOp  pglode.Operation
		wantErr bool
	}{
		{name: "empty filter", flags: historyFlagValues{}},
		{name: "dataset only", flags: historyFlagValues{dataset: "orders"}},
		{name: "init operation", flags: historyFlagValues{operation: "init"}, wantOp: pglode.OpInit},
		{name: "append operation", flags: historyFlagValues{operation: "append"}, wantOp: pglode.OpAppend},
		{name: "ingest operation", flags: historyFlagValues{operation: "ingest"}, wantOp: pglode.OpIngest},
		{name: "unknown operation", flags: historyFlagValues{operation: "delete"}, wantErr: true},
		{name: "negative limit", flags: historyFlagValues{limit: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := buildHistoryFilter(tt.flags)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				if !errors.Is(err, pglode.ErrInvalidConfig) {
					t.Errorf("Expected ErrInvalidConfig, got: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if filter.Operation != tt.wantOp {
				t.Errorf("Operation = %q, want %q", filter.Operation, tt.wantOp)
			}
			if filter.Dataset != tt.flags.dataset {
				t.Errorf("Dataset = %q, want %q", filter.Dataset, tt.flags.dataset)
			}
		})
	}
}

func TestShortChecksum(t *testing.T) {
	long := "0123456789abcdef0123456789abcdef"
	if got := shortChecksum(long); got != "0123456789ab" {
		t.Errorf("shortChecksum = %q", got)
	}
	if got := shortChecksum("abc"); got != "abc" {
		t.Errorf("shortChecksum short input = %q", got)
	}
	if got := shortChecksum(""); got != "" {
		t.Errorf("shortChecksum empty = %q", got)
	}
}
