package drawer

import (
	"context"
	"io"
)

// Vault stores metadata snapshots off the host.
// All operations stream through io.Reader/io.Writer.
type Vault interface {
	// PutSnapshot stores a named snapshot. size is the number of bytes that
	// will be read from r; version is stored alongside for consistency checks.
	PutSnapshot(ctx context.Context, name string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves a named snapshot and writes it to w.
	GetSnapshot(ctx context.Context, name string, w io.Writer) error

	// SnapshotVersion returns the version of a named snapshot, or 0 if none is stored.
	SnapshotVersion(ctx context.Context, name string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup(ctx context.Context) error
}

// Sealer turns a plaintext snapshot into its stored form and back.
type Sealer interface {
	// Seal reads plaintext from r and writes the sealed form to w.
	Seal(r io.Reader, w io.Writer) error

	// Open reads a sealed snapshot from r and writes plaintext to w.
	Open(r io.Reader, w io.Writer) error
}
