// Package source reads dataset source files from the filesystem.
//
// The package provides:
//   - FileSystem: a small abstraction over file access, with OS-backed and
//     in-memory implementations (the latter for tests)
//   - Reader: CSV parsing with a mandatory header row; every column is
//     treated as text
//   - Glob expansion so a catalog entry can point at a file pattern
//     (data/orders_*.csv) and have all matching files loaded as one table
package source
