package drawer

import (
	"io/fs"
	"path/filepath"
)

// Path is a validated local filesystem path with cached stat info.
// Paths are produced by FilesystemManager.Resolve and FilesystemManager.ReadDir.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath creates a Path from its components.
// This is primarily for use by FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{absPath: absPath, isDir: isDir, info: info}
}

// String returns the absolute path.
func (p *Path) String() string { return p.absPath }

// Name returns the last element of the path.
func (p *Path) Name() string { return filepath.Base(p.absPath) }

// IsDir reports whether the path is a directory.
func (p *Path) IsDir() bool { return p.isDir }

// Size returns the cached size in bytes, or 0 when no stat info is held.
func (p *Path) Size() int64 {
	if p.info == nil {
		return 0
	}
	return p.info.Size()
}

// Info returns the stat info cached when the path was resolved.
func (p *Path) Info() fs.FileInfo { return p.info }
