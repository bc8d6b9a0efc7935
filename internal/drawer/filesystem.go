package drawer

import "io"

// FilesystemManager abstracts access to a local directory tree so imports
// can be tested without touching the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path. The path must exist
	// and be a regular file or a directory.
	Resolve(rawPath string) (*Path, error)

	// Open opens a regular file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// ReadDir returns the regular files and directories directly inside
	// path, sorted by name. Other entry types are skipped.
	ReadDir(path *Path) ([]*Path, error)

	// IsIgnored reports whether path should be skipped, given the root of
	// the tree being walked.
	IsIgnored(path *Path, rootPath string) (bool, error)
}
