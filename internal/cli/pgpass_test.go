package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vvka-141/pglode/pkg/pglode"
)

func TestSplitPgpassLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "localhost:5432:warehouse:loader:secret",
			want: []string{"localhost", "5432", "warehouse", "loader", "secret"},
		},
		{
			name: "escaped colon in password",
			line: `localhost:5432:warehouse:loader:se\:cret`,
			want: []string{"localhost", "5432", "warehouse", "loader", "se:cret"},
		},
		{
			name: "escaped backslash",
			line: `localhost:5432:warehouse:loader:se\\cret`,
			want: []string{"localhost", "5432", "warehouse", "loader", `se\cret`},
		},
		{
			name: "wildcards",
			line: "*:*:*:loader:secret",
			want: []string{"*", "*", "*", "loader", "secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitPgpassLine(tt.line)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d fields, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Field %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLookupPgpass(t *testing.T) {
	pgpassFile := filepath.Join(t.TempDir(), "pgpass")
	content := strings.Join([]string{
		"# comment line",
		"",
		"otherhost:5432:otherdb:other:nope",
		"localhost:5432:warehouse:loader:secret",
		"*:*:*:fallback:wildcardpw",
	}, "\n") + "\n"
	if err := os.WriteFile(pgpassFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write pgpass file: %v", err)
	}
	t.Setenv("PGPASSFILE", pgpassFile)

	tests := []struct {
		name    string
		cfg     pglode.ConnectionConfig
		want    string
		wantHit bool
	}{
		{
			name:    "exact match",
			cfg:     pglode.ConnectionConfig{Host: "localhost", Port: 5432, Database: "warehouse", Username: "loader"},
			want:    "secret",
			wantHit: true,
		},
		{
			name:    "wildcard match",
			cfg:     pglode.ConnectionConfig{Host: "anywhere", Port: 9999, Database: "any", Username: "fallback"},
			want:    "wildcardpw",
			wantHit: true,
		},
		{
			name:    "no match",
			cfg:     pglode.ConnectionConfig{Host: "localhost", Port: 5432, Database: "warehouse", Username: "stranger"},
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lookupPgpass(&tt.cfg)
			if ok != tt.wantHit {
				t.Fatalf("lookupPgpass hit = %v, want %v", ok, tt.wantHit)
			}
			if ok && got != tt.want {
				t.Errorf("lookupPgpass = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupPgpass_MissingFile(t *testing.T) {
	t.Setenv("PGPASSFILE", filepath.Join(t.TempDir(), "nonexistent"))

	cfg := pglode.ConnectionConfig{Host: "localhost", Port: 5432, Database: "db", Username: "u"}
	if _, ok := lookupPgpass(&cfg); ok {
		t.Error("Expected no hit for missing pgpass file")
	}
}

func TestWritePgpassEntry(t *testing.T) {
	pgpassFile := filepath.Join(t.TempDir(), "pgpass")
	t.Setenv("PGPASSFILE", pgpassFile)

	cfg := &pglode.ConnectionConfig{
		Host: "localhost", Port: 5432, Database: "warehouse",
		Username: "loader", Password: "secret",
	}
	if err := writePgpassEntry(cfg); err != nil {
		t.Fatalf("writePgpassEntry failed: %v", err)
	}

	// Round trip: the entry we just wrote must be found again
	password, ok := lookupPgpass(cfg)
	if !ok || password != "secret" {
		t.Fatalf("lookupPgpass after write = (%q, %v), want (\"secret\", true)", password, ok)
	}

	// Updating the password replaces the line instead of appending
	cfg.Password = "rotated"
	if err := writePgpassEntry(cfg); err != nil {
		t.Fatalf("writePgpassEntry update failed: %v", err)
	}

	data, err := os.ReadFile(pgpassFile)
	if err != nil {
		t.Fatalf("Failed to read pgpass file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Errorf("Expected 1 entry after update, got %d:\n%s", len(lines), data)
	}

	password, ok = lookupPgpass(cfg)
	if !ok || password != "rotated" {
		t.Errorf("lookupPgpass after update = (%q, %v), want (\"rotated\", true)", password, ok)
	}

	info, err := os.Stat(pgpassFile)
	if err != nil {
		t.Fatalf("Failed to stat pgpass file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestEscapePgpass(t *testing.T) {
	if got := escapePgpass(`pa:ss\word`); got != `pa\:ss\\word` {
		t.Errorf("escapePgpass = %q", got)
	}
}
