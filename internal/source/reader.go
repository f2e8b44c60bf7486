package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSourceFiles is returned when a source path or pattern matches
	// no files.
	ErrNoSourceFiles = errors.New("no source files match path")

	// ErrEmptySource is returned when a source file has no header row.
	ErrEmptySource = errors.New("source file is empty")

	// ErrHeaderMismatch is returned when files matched by one pattern do
	// not share an identical header row.
	ErrHeaderMismatch = errors.New("source files have mismatched headers")
)

// Table is the parsed content of one dataset source: a header and the data
// rows from every file the source path matched. Every value is text; typing
// is left to whatever consumes the loaded table.
type Table struct {
	// Columns are the names from the header row, in file order.
	Columns []string

	// Rows are the data rows. Each row has exactly len(Columns) values.
	Rows [][]string

	// Files are the paths that contributed rows, sorted.
	Files []string
}

// Reader parses CSV source files. A header row is mandatory; files without
// one are rejected rather than guessed at.
type Reader struct {
	fs FileSystem
}

// NewReader creates a Reader backed by the given filesystem.
func NewReader(fs FileSystem) *Reader {
	return &Reader{fs: fs}
}

// Read parses a single CSV file.
func (r *Reader) Read(path string) (*Table, error) {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	columns, rows, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Table{
		Columns: columns,
		Rows:    rows,
		Files:   []string{path},
	}, nil
}

// ReadGlob expands the pattern and parses every matching file into a single
// Table. All files must share an identical header row; rows are concatenated
// in sorted file order.
func (r *Reader) ReadGlob(pattern string) (*Table, error) {
	paths, err := r.fs.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid source pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSourceFiles, pattern)
	}

	var table *Table
	for _, path := range paths {
		part, err := r.Read(path)
		if err != nil {
			return nil, err
		}

		if table == nil {
			table = part
			continue
		}

		if !equalColumns(table.Columns, part.Columns) {
			return nil, fmt.Errorf("%w: %s has [%s], %s has [%s]",
				ErrHeaderMismatch,
				table.Files[0], strings.Join(table.Columns, ", "),
				path, strings.Join(part.Columns, ", "))
		}

		table.Rows = append(table.Rows, part.Rows...)
		table.Files = append(table.Files, path)
	}

	return table, nil
}

// parseCSV parses raw CSV bytes into a validated header and data rows.
func parseCSV(data []byte) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptySource
	}

	columns, err := validateHeader(records[0])
	if err != nil {
		return nil, nil, err
	}

	rows := records[1:]
	if rows == nil {
		rows = [][]string{}
	}

	return columns, rows, nil
}

func validateHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]string, len(header))

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("header column %d is empty", i+1)
		}

		lower := strings.ToLower(name)
		if prev, dup := seen[lower]; dup {
			return nil, fmt.Errorf("duplicate header column %q (also %q)", name, prev)
		}
		seen[lower] = name
		columns[i] = name
	}

	return columns, nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
