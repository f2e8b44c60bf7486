package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// FileSystem abstracts file access so the loader can be tested without
// touching the real filesystem.
type FileSystem interface {
	// Glob returns the names of all files matching the pattern, sorted.
	// The pattern syntax is that of path/filepath.Match. A pattern without
	// meta characters matches at most the literal path itself.
	Glob(pattern string) ([]string, error)

	// ReadFile reads the file at the given path.
	ReadFile(path string) ([]byte, error)

	// Stat returns file information for the given path.
	Stat(path string) (FileInfo, error)
}

// OSFileSystem implements FileSystem for the OS filesystem.
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS filesystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (p *OSFileSystem) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (p *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (p *OSFileSystem) Stat(path string) (FileInfo, error) {
	return os.Stat(path)
}
