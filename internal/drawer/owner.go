package drawer

import (
	"context"
	"fmt"
)

// OwnerService handles the lifecycle of owner identities as seen by the store.
type OwnerService struct {
	store  Store
	logger Logger
}

func NewOwnerService(store Store, logger Logger) *OwnerService {
	return &OwnerService{store: store, logger: logger}
}

// Remove deletes everything owned by owner: all files, all directories and
// the owner record itself, in one transaction.
func (s *OwnerService) Remove(ctx context.Context, owner string) (*DeleteResult, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	result := &DeleteResult{}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		files, err := tx.DeleteOwnerFiles(ctx, owner)
		if err != nil {
			return storeErr("deleting owner files", err)
		}
		dirs, err := tx.DeleteOwnerDirectories(ctx, owner)
		if err != nil {
			return storeErr("deleting owner directories", err)
		}
		n, err := tx.DeleteOwner(ctx, owner)
		if err != nil {
			return storeErr("deleting owner", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: owner %s", ErrNotFound, owner)
		}
		result.Directories = dirs
		result.Files = files
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("removing owner: %w", err)
	}

	s.logger.Info("owner removed", "owner", owner, "directories", result.Directories, "files", result.Files)
	return result, nil
}
