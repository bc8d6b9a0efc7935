package drawer

import (
	"context"
	"fmt"

	"drawer-go/internal/model"
)

// FileService is the file registry. It registers, relocates, renames and
// deletes file metadata under the same ownership rules as directories.
type FileService struct {
	store  Store
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewFileService creates a FileService with the provided dependencies.
func NewFileService(store Store, logger Logger, clock Clock, idgen IDGenerator) *FileService {
	return &FileService{
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Register records a new file for owner. directoryID may be empty to leave
// the file unfiled; otherwise the directory must belong to owner.
func (s *FileService) Register(ctx context.Context, name, mimeType string, size int64, owner, directoryID string) (*model.File, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateType(mimeType); err != nil {
		return nil, err
	}
	if err := validateSize(size); err != nil {
		return nil, err
	}
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	file := &model.File{
		ID:          s.idgen.New(),
		Name:        name,
		Type:        mimeType,
		Size:        size,
		UploadedOn:  s.clock.Now(),
		DirectoryID: directoryID,
		Owner:       owner,
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		if directoryID != "" {
			if err := checkDirectoryOwner(ctx, tx, directoryID, owner); err != nil {
				return err
			}
		}
		if err := tx.EnsureOwner(ctx, owner); err != nil {
			return storeErr("recording owner", err)
		}
		if err := tx.InsertFile(ctx, file); err != nil {
			return storeErr("inserting file", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registering file: %w", err)
	}

	s.logger.Info("file registered", "id", file.ID, "owner", owner, "directory", directoryID, "size", file.Size)
	return file, nil
}

// Get returns a file by id.
func (s *FileService) Get(ctx context.Context, id string) (*model.File, error) {
	file, err := s.store.FindFile(ctx, id)
	if err != nil {
		return nil, storeErr("finding file", err)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, id)
	}
	return file, nil
}

// Move attaches a file to another directory of the same owner, or detaches
// it when newDirectoryID is empty. A detached file is unfiled, not deleted.
func (s *FileService) Move(ctx context.Context, id, newDirectoryID string) (*model.File, error) {
	var moved *model.File
	err := s.store.WithTx(ctx, func(tx Tx) error {
		file, err := tx.GetFile(ctx, id)
		if err != nil {
			return storeErr("loading file", err)
		}
		if file == nil {
			return fmt.Errorf("%w: file %s", ErrNotFound, id)
		}
		if newDirectoryID != "" {
			if err := checkDirectoryOwner(ctx, tx, newDirectoryID, file.Owner); err != nil {
				return err
			}
		}
		if err := tx.MoveFile(ctx, id, newDirectoryID); err != nil {
			return storeErr("moving file", err)
		}
		file.DirectoryID = newDirectoryID
		moved = file
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("moving file: %w", err)
	}

	s.logger.Info("file moved", "id", id, "directory", newDirectoryID)
	return moved, nil
}

// Rename changes a file's name.
func (s *FileService) Rename(ctx context.Context, id, newName string) (*model.File, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}

	var renamed *model.File
	err := s.store.WithTx(ctx, func(tx Tx) error {
		file, err := tx.GetFile(ctx, id)
		if err != nil {
			return storeErr("loading file", err)
		}
		if file == nil {
			return fmt.Errorf("%w: file %s", ErrNotFound, id)
		}
		if err := tx.RenameFile(ctx, id, newName); err != nil {
			return storeErr("renaming file", err)
		}
		file.Name = newName
		renamed = file
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renaming file: %w", err)
	}

	s.logger.Info("file renamed", "id", id, "name", newName)
	return renamed, nil
}

// Delete removes a file record.
func (s *FileService) Delete(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx Tx) error {
		n, err := tx.DeleteFile(ctx, id)
		if err != nil {
			return storeErr("deleting file", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: file %s", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}

	s.logger.Info("file deleted", "id", id)
	return nil
}

// ListInDirectory returns the files attached directly to a directory.
func (s *FileService) ListInDirectory(ctx context.Context, directoryID string) ([]*model.File, error) {
	dir, err := s.store.FindDirectory(ctx, directoryID)
	if err != nil {
		return nil, storeErr("finding directory", err)
	}
	if dir == nil {
		return nil, fmt.Errorf("%w: directory %s", ErrNotFound, directoryID)
	}
	files, err := s.store.ListFilesInDirectory(ctx, directoryID)
	if err != nil {
		return nil, storeErr("listing files", err)
	}
	return files, nil
}

// ListUnfiled returns an owner's files that are not in any directory.
func (s *FileService) ListUnfiled(ctx context.Context, owner string) ([]*model.File, error) {
	files, err := s.store.ListUnfiledFiles(ctx, owner)
	if err != nil {
		return nil, storeErr("listing unfiled files", err)
	}
	return files, nil
}

// HumanSize formats the file's size with FormatSize.
func (s *FileService) HumanSize(f *model.File) string {
	return FormatSize(f.Size)
}

// checkDirectoryOwner verifies that directoryID exists and belongs to owner.
func checkDirectoryOwner(ctx context.Context, tx Tx, directoryID, owner string) error {
	dir, err := tx.LockDirectory(ctx, directoryID)
	if err != nil {
		return storeErr("locking directory", err)
	}
	if dir == nil {
		return fmt.Errorf("%w: directory %s", ErrNotFound, directoryID)
	}
	if dir.Owner != owner {
		return fmt.Errorf("%w: directory %s belongs to another owner", ErrOwnership, directoryID)
	}
	return nil
}
