package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"drawer-go/internal/drawer"
)

// MockFile is an entry in the mock filesystem.
type MockFile struct {
	Content     []byte
	IsDirectory bool
	ModTime     time.Time
}

// MockFilesystemManager is an in-memory drawer.FilesystemManager.
// Paths are absolute and slash-separated; parents are created implicitly.
type MockFilesystemManager struct {
	files  map[string]*MockFile
	ignore []string

	// OpenErr, when set, is returned by Open for every file.
	OpenErr error
}

var _ drawer.FilesystemManager = (*MockFilesystemManager)(nil)

// NewMockFilesystemManager creates an empty mock filesystem. Basenames
// matching any of the ignore patterns are reported as ignored.
func NewMockFilesystemManager(ignore ...string) *MockFilesystemManager {
	return &MockFilesystemManager{
		files:  make(map[string]*MockFile),
		ignore: ignore,
	}
}

// AddFile adds a regular file and any missing parent directories.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.addParents(path)
	m.files[filepath.Clean(path)] = &MockFile{Content: content, ModTime: time.Now()}
}

// AddDirectory adds a directory and any missing parent directories.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.addParents(path)
	m.files[filepath.Clean(path)] = &MockFile{IsDirectory: true, ModTime: time.Now()}
}

func (m *MockFilesystemManager) addParents(path string) {
	for dir := filepath.Dir(filepath.Clean(path)); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.files[dir] = &MockFile{IsDirectory: true, ModTime: time.Now()}
		}
	}
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*drawer.Path, error) {
	p := filepath.Clean(rawPath)
	if _, ok := m.files[p]; !ok {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	return m.path(p), nil
}

func (m *MockFilesystemManager) Open(path *drawer.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) ReadDir(path *drawer.Path) ([]*drawer.Path, error) {
	dir, ok := m.files[path.String()]
	if !ok || !dir.IsDirectory {
		return nil, fmt.Errorf("not a directory: %s", path.String())
	}

	prefix := path.String() + "/"
	var names []string
	for p := range m.files {
		if rest, ok := strings.CutPrefix(p, prefix); ok && !strings.Contains(rest, "/") {
			names = append(names, p)
		}
	}
	sort.Strings(names)

	paths := make([]*drawer.Path, 0, len(names))
	for _, p := range names {
		paths = append(paths, m.path(p))
	}
	return paths, nil
}

func (m *MockFilesystemManager) IsIgnored(path *drawer.Path, _ string) (bool, error) {
	for _, pattern := range m.ignore {
		if ok, _ := filepath.Match(pattern, path.Name()); ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockFilesystemManager) path(p string) *drawer.Path {
	file := m.files[p]
	info := &mockFileInfo{
		name:    filepath.Base(p),
		size:    int64(len(file.Content)),
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
	return drawer.NewPath(p, file.IsDirectory, info)
}

type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

func (m *mockFileInfo) Mode() fs.FileMode {
	if m.isDir {
		return fs.ModeDir | 0755
	}
	return 0644
}
