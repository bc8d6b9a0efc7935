package drawer

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"drawer-go/internal/model"
)

const defaultPageSize = 100

// DirectoryService is the directory tree manager. It creates, renames, moves
// and deletes directories while keeping each owner's forest acyclic and
// owner-consistent. Every operation is a single store transaction.
type DirectoryService struct {
	store    Store
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	pageSize int
}

// NewDirectoryService creates a DirectoryService with the provided dependencies.
func NewDirectoryService(store Store, logger Logger, clock Clock, idgen IDGenerator) *DirectoryService {
	return &DirectoryService{
		store:    store,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		pageSize: defaultPageSize,
	}
}

// SetPageSize sets how many directories a listing fetches from the store per query.
func (s *DirectoryService) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
	}
}

// DeleteResult reports what a cascading delete removed.
type DeleteResult struct {
	Directories int64
	Files       int64
}

// Create creates a directory for owner. parentID may be empty for a root
// directory; otherwise it must name a directory of the same owner.
func (s *DirectoryService) Create(ctx context.Context, name, owner, parentID string) (*model.Directory, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	dir := &model.Directory{
		ID:           s.idgen.New(),
		Name:         name,
		CreatedOn:    now,
		LastModified: now,
		ParentID:     parentID,
		Owner:        owner,
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		if parentID != "" {
			parent, err := tx.LockDirectory(ctx, parentID)
			if err != nil {
				return storeErr("locking parent directory", err)
			}
			// A parent owned by someone else is reported as missing so that
			// callers cannot discover other owners' ids.
			if parent == nil || parent.Owner != owner {
				return fmt.Errorf("%w: parent directory %s", ErrNotFound, parentID)
			}
		}
		if err := tx.EnsureOwner(ctx, owner); err != nil {
			return storeErr("recording owner", err)
		}
		if err := tx.InsertDirectory(ctx, dir); err != nil {
			return storeErr("inserting directory", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	s.logger.Info("directory created", "id", dir.ID, "owner", owner, "parent", parentID)
	return dir, nil
}

// Get returns a directory by id.
func (s *DirectoryService) Get(ctx context.Context, id string) (*model.Directory, error) {
	dir, err := s.store.FindDirectory(ctx, id)
	if err != nil {
		return nil, storeErr("finding directory", err)
	}
	if dir == nil {
		return nil, fmt.Errorf("%w: directory %s", ErrNotFound, id)
	}
	return dir, nil
}

// Rename changes a directory's name and bumps its last_modified.
func (s *DirectoryService) Rename(ctx context.Context, id, newName string) (*model.Directory, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}

	var renamed *model.Directory
	err := s.store.WithTx(ctx, func(tx Tx) error {
		dir, err := tx.LockDirectory(ctx, id)
		if err != nil {
			return storeErr("locking directory", err)
		}
		if dir == nil {
			return fmt.Errorf("%w: directory %s", ErrNotFound, id)
		}

		now := s.clock.Now()
		if err := tx.RenameDirectory(ctx, id, newName, now); err != nil {
			return storeErr("renaming directory", err)
		}
		dir.Name = newName
		dir.LastModified = now
		renamed = dir
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renaming directory: %w", err)
	}

	s.logger.Info("directory renamed", "id", id, "name", newName)
	return renamed, nil
}

// Move reparents a directory. An empty newParentID turns it into a root.
// The move is rejected with ErrCycle when the new parent is the directory
// itself or one of its descendants, and with ErrOwnership when the new
// parent belongs to another owner.
func (s *DirectoryService) Move(ctx context.Context, id, newParentID string) (*model.Directory, error) {
	var moved *model.Directory
	err := s.store.WithTx(ctx, func(tx Tx) error {
		dir, err := tx.LockDirectory(ctx, id)
		if err != nil {
			return storeErr("locking directory", err)
		}
		if dir == nil {
			return fmt.Errorf("%w: directory %s", ErrNotFound, id)
		}
		if newParentID == id {
			return fmt.Errorf("%w: %s cannot be its own parent", ErrCycle, id)
		}

		if newParentID != "" {
			parent, err := tx.LockDirectory(ctx, newParentID)
			if err != nil {
				return storeErr("locking new parent", err)
			}
			if parent == nil {
				return fmt.Errorf("%w: parent directory %s", ErrNotFound, newParentID)
			}
			if parent.Owner != dir.Owner {
				return fmt.Errorf("%w: directory %s and parent %s have different owners", ErrOwnership, id, newParentID)
			}

			// Walk from the new parent up to its root. Finding id on the way
			// means the new parent lives inside id's subtree.
			chain, err := tx.AncestorIDs(ctx, newParentID)
			if err != nil {
				return storeErr("walking ancestors", err)
			}
			if slices.Contains(chain, id) {
				return fmt.Errorf("%w: %s is a descendant of %s", ErrCycle, newParentID, id)
			}
		}

		now := s.clock.Now()
		if err := tx.ReparentDirectory(ctx, id, newParentID, now); err != nil {
			return storeErr("reparenting directory", err)
		}
		dir.ParentID = newParentID
		dir.LastModified = now
		moved = dir
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("moving directory: %w", err)
	}

	s.logger.Info("directory moved", "id", id, "parent", newParentID)
	return moved, nil
}

// Delete removes a directory, all of its descendants and every file attached
// anywhere in that subtree. Either everything is removed or nothing is.
func (s *DirectoryService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	result := &DeleteResult{}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		dir, err := tx.LockDirectory(ctx, id)
		if err != nil {
			return storeErr("locking directory", err)
		}
		if dir == nil {
			return fmt.Errorf("%w: directory %s", ErrNotFound, id)
		}

		subtree, err := tx.SubtreeIDs(ctx, id)
		if err != nil {
			return storeErr("computing subtree", err)
		}

		files, err := tx.DeleteSubtreeFiles(ctx, id)
		if err != nil {
			return storeErr("deleting subtree files", err)
		}
		dirs, err := tx.DeleteSubtree(ctx, id)
		if err != nil {
			return storeErr("deleting subtree", err)
		}
		if dirs != int64(len(subtree)) {
			return &StoreError{
				Op:  "deleting subtree",
				Err: fmt.Errorf("removed %d directories, expected %d", dirs, len(subtree)),
			}
		}

		result.Directories = dirs
		result.Files = files
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deleting directory: %w", err)
	}

	s.logger.Info("directory deleted", "id", id, "directories", result.Directories, "files", result.Files)
	return result, nil
}

// ListChildren returns the direct children of a directory ordered by name,
// then created_on. The sequence is lazy: it pages through the store while
// being ranged over, and every range starts again from the first child.
// A missing directory yields a single ErrNotFound.
func (s *DirectoryService) ListChildren(ctx context.Context, id string) iter.Seq2[*model.Directory, error] {
	return func(yield func(*model.Directory, error) bool) {
		parent, err := s.store.FindDirectory(ctx, id)
		if err != nil {
			yield(nil, storeErr("finding directory", err))
			return
		}
		if parent == nil {
			yield(nil, fmt.Errorf("%w: directory %s", ErrNotFound, id))
			return
		}
		s.paginate(yield, func(after Cursor, limit int) ([]*model.Directory, error) {
			return s.store.ListChildDirectories(ctx, id, after, limit)
		})
	}
}

// ListRoots returns the root directories of an owner's forest with the same
// ordering and laziness as ListChildren.
func (s *DirectoryService) ListRoots(ctx context.Context, owner string) iter.Seq2[*model.Directory, error] {
	return func(yield func(*model.Directory, error) bool) {
		s.paginate(yield, func(after Cursor, limit int) ([]*model.Directory, error) {
			return s.store.ListRootDirectories(ctx, owner, after, limit)
		})
	}
}

func (s *DirectoryService) paginate(yield func(*model.Directory, error) bool, fetch func(Cursor, int) ([]*model.Directory, error)) {
	var after Cursor
	for {
		page, err := fetch(after, s.pageSize)
		if err != nil {
			yield(nil, storeErr("listing directories", err))
			return
		}
		for _, d := range page {
			if !yield(d, nil) {
				return
			}
		}
		if len(page) < s.pageSize {
			return
		}
		after = CursorAfter(page[len(page)-1])
	}
}

// Path returns the chain of directories from the root down to id.
func (s *DirectoryService) Path(ctx context.Context, id string) ([]*model.Directory, error) {
	var path []*model.Directory
	err := s.store.WithTx(ctx, func(tx Tx) error {
		chain, err := tx.AncestorIDs(ctx, id)
		if err != nil {
			return storeErr("walking ancestors", err)
		}
		if len(chain) == 0 {
			return fmt.Errorf("%w: directory %s", ErrNotFound, id)
		}
		path = make([]*model.Directory, len(chain))
		for i, dirID := range chain {
			dir, err := tx.GetDirectory(ctx, dirID)
			if err != nil {
				return storeErr("loading directory", err)
			}
			if dir == nil {
				return fmt.Errorf("%w: directory %s", ErrNotFound, dirID)
			}
			path[len(chain)-1-i] = dir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return path, nil
}
