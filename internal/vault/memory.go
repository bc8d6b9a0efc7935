package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"drawer-go/internal/drawer"
)

// MemoryVault is an in-memory implementation of the drawer.Vault interface,
// useful for tests. It is safe for concurrent use.
type MemoryVault struct {
	snapshots map[string][]byte
	versions  map[string]int64
	mu        sync.RWMutex
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		snapshots: make(map[string][]byte),
		versions:  make(map[string]int64),
	}
}

// PutSnapshot stores a named snapshot, replacing any previous one.
func (m *MemoryVault) PutSnapshot(_ context.Context, name string, r io.Reader, size int64, version int64) error {
	if err := validateName(name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[name] = data
	m.versions[name] = version
	return nil
}

// GetSnapshot writes the named snapshot to w.
func (m *MemoryVault) GetSnapshot(_ context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns the stored version, or 0 if the snapshot does not exist.
func (m *MemoryVault) SnapshotVersion(_ context.Context, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[name], nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(context.Context) error {
	return nil
}

// Compile-time check that MemoryVault implements drawer.Vault interface
var _ drawer.Vault = (*MemoryVault)(nil)
