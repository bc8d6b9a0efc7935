package vault

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSnapshotNotFound is returned by GetSnapshot when no snapshot of that name is stored.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// validateName rejects names that could escape the vault's namespace.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}
