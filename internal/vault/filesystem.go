package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"drawer-go/internal/drawer"
)

// FileSystemVault stores snapshots as files under a root directory:
//
//	<root>/
//	  snapshots/
//	    <name>.snap      (sealed snapshot)
//	    <name>.version   (decimal version)
type FileSystemVault struct {
	root         string
	snapshotsDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(root string) (*FileSystemVault, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &FileSystemVault{
		root:         root,
		snapshotsDir: snapshotsDir,
	}, nil
}

// PutSnapshot writes the snapshot and then its version file. Both writes
// are atomic, and the version is only updated once the data is in place.
func (v *FileSystemVault) PutSnapshot(_ context.Context, name string, r io.Reader, size int64, version int64) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := v.writeFile(v.snapshotPath(name), r, size); err != nil {
		return err
	}

	data := strconv.FormatInt(version, 10)
	return v.writeFile(v.versionPath(name), strings.NewReader(data), int64(len(data)))
}

// GetSnapshot copies the named snapshot to w.
func (v *FileSystemVault) GetSnapshot(_ context.Context, name string, w io.Writer) error {
	if err := validateName(name); err != nil {
		return err
	}

	f, err := os.Open(v.snapshotPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns the stored version, or 0 if no version file exists.
func (v *FileSystemVault) SnapshotVersion(_ context.Context, name string) (int64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(v.versionPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault directories exist and are writable.
func (v *FileSystemVault) ValidateSetup(context.Context) error {
	info, err := os.Stat(v.snapshotsDir)
	if err != nil {
		return fmt.Errorf("vault directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.snapshotsDir)
	}

	probe, err := os.CreateTemp(v.snapshotsDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault directory not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func (v *FileSystemVault) snapshotPath(name string) string {
	return filepath.Join(v.snapshotsDir, name+".snap")
}

func (v *FileSystemVault) versionPath(name string) string {
	return filepath.Join(v.snapshotsDir, name+".version")
}

// writeFile writes data from r to destPath via a temp file in the same
// directory and a rename, so readers never see a partial file.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemVault implements drawer.Vault interface
var _ drawer.Vault = (*FileSystemVault)(nil)
