package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"drawer-go/internal/drawer"
)

// IgnoreFileName is read from the root of every imported tree.
const IgnoreFileName = ".drawerignore"

// OSFilesystemManager implements drawer.FilesystemManager on the real
// filesystem.
type OSFilesystemManager struct {
	ignore []string

	mu       sync.Mutex
	matchers map[string]*IgnoreMatcher // keyed by tree root
}

var _ drawer.FilesystemManager = (*OSFilesystemManager)(nil)

// NewOSFilesystemManager creates a manager that skips paths matching the
// given patterns in addition to those in each tree's .drawerignore.
func NewOSFilesystemManager(ignore []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		ignore:   ignore,
		matchers: make(map[string]*IgnoreMatcher),
	}
}

// Resolve validates a raw path and returns a Path.
func (m *OSFilesystemManager) Resolve(rawPath string) (*drawer.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, fmt.Errorf("unsupported file type %s: %s", info.Mode().Type(), absPath)
	}

	return drawer.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a regular file for reading.
func (m *OSFilesystemManager) Open(path *drawer.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// ReadDir lists the regular files and directories directly inside path.
// Symlinks, devices, pipes and sockets are skipped.
func (m *OSFilesystemManager) ReadDir(path *drawer.Path) ([]*drawer.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	entries, err := os.ReadDir(path.String())
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []*drawer.Path
	for _, entry := range entries {
		if !entry.IsDir() && !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		paths = append(paths, drawer.NewPath(filepath.Join(path.String(), entry.Name()), entry.IsDir(), info))
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].Name() < paths[j].Name() })
	return paths, nil
}

// IsIgnored matches path, relative to rootPath, against the configured
// patterns and rootPath's .drawerignore. The ignore file is read once per
// root.
func (m *OSFilesystemManager) IsIgnored(path *drawer.Path, rootPath string) (bool, error) {
	matcher, err := m.matcherFor(rootPath)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(rootPath, path.String())
	if err != nil {
		return false, fmt.Errorf("relativizing %s: %w", path.String(), err)
	}
	return matcher.Match(rel, path.IsDir()), nil
}

func (m *OSFilesystemManager) matcherFor(rootPath string) (*IgnoreMatcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if matcher, ok := m.matchers[rootPath]; ok {
		return matcher, nil
	}

	fromFile, err := ParseIgnoreFile(filepath.Join(rootPath, IgnoreFileName))
	if err != nil {
		return nil, err
	}

	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(m.ignore)+len(fromFile))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, m.ignore...)
	patterns = append(patterns, fromFile...)

	matcher := NewIgnoreMatcher(patterns)
	m.matchers[rootPath] = matcher
	return matcher, nil
}
