package source

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return false }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryFile struct {
	content []byte
	info    *memoryFileInfo
}

// MemoryFileSystem implements FileSystem for in-memory testing.
// Paths are normalized to forward slashes.
type MemoryFileSystem struct {
	files map[string]*memoryFile
}

// NewMemoryFileSystem creates an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string]*memoryFile),
	}
}

// AddFile adds a file to the in-memory filesystem.
func (mfs *MemoryFileSystem) AddFile(filePath string, content string) {
	mfs.AddFileWithTime(filePath, content, time.Now())
}

// AddFileWithTime adds a file with a specific modification time.
func (mfs *MemoryFileSystem) AddFileWithTime(filePath string, content string, modTime time.Time) {
	filePath = path.Clean(filepath.ToSlash(filePath))
	mfs.files[filePath] = &memoryFile{
		content: []byte(content),
		info: &memoryFileInfo{
			name:    path.Base(filePath),
			size:    int64(len(content)),
			modTime: modTime,
		},
	}
}

// Glob matches stored paths against the pattern using path.Match semantics.
// Like filepath.Glob, a '*' does not cross path separators.
func (mfs *MemoryFileSystem) Glob(pattern string) ([]string, error) {
	pattern = path.Clean(filepath.ToSlash(pattern))

	var matches []string
	for filePath := range mfs.files {
		ok, err := path.Match(pattern, filePath)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, filePath)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (mfs *MemoryFileSystem) ReadFile(filePath string) ([]byte, error) {
	filePath = path.Clean(filepath.ToSlash(filePath))
	file, exists := mfs.files[filePath]
	if !exists {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}
	return file.content, nil
}

func (mfs *MemoryFileSystem) Stat(filePath string) (FileInfo, error) {
	filePath = path.Clean(filepath.ToSlash(filePath))
	file, exists := mfs.files[filePath]
	if !exists {
		return nil, fmt.Errorf("path not found: %s", filePath)
	}
	return file.info, nil
}
