package drawer

import (
	"context"
	"time"

	"drawer-go/internal/model"
)

// Cursor is a keyset position in the (name, created_on, id) ordering used
// when listing directories. The zero Cursor sorts before every directory.
type Cursor struct {
	Name      string
	CreatedOn time.Time
	ID        string
}

// CursorAfter returns the cursor positioned just past d.
func CursorAfter(d *model.Directory) Cursor {
	return Cursor{Name: d.Name, CreatedOn: d.CreatedOn, ID: d.ID}
}

// Store is the persistence collaborator: a transactional relational store
// with cascade-on-delete semantics.
// Lookups that find nothing return (nil, nil).
type Store interface {
	// WithTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise; fn's error is returned as is.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// FindDirectory returns a directory by id outside any transaction.
	FindDirectory(ctx context.Context, id string) (*model.Directory, error)

	// FindFile returns a file by id outside any transaction.
	FindFile(ctx context.Context, id string) (*model.File, error)

	// ListChildDirectories returns up to limit direct children of parentID
	// that sort after the cursor, ordered by name, created_on, id.
	ListChildDirectories(ctx context.Context, parentID string, after Cursor, limit int) ([]*model.Directory, error)

	// ListRootDirectories is ListChildDirectories for the roots of an owner's forest.
	ListRootDirectories(ctx context.Context, owner string, after Cursor, limit int) ([]*model.Directory, error)

	// ListFilesInDirectory returns the files attached directly to a directory, ordered by name.
	ListFilesInDirectory(ctx context.Context, directoryID string) ([]*model.File, error)

	// ListUnfiledFiles returns an owner's files that have no directory, ordered by name.
	ListUnfiledFiles(ctx context.Context, owner string) ([]*model.File, error)

	// Operation journal

	CreateOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (*model.Operation, error)
	FinishOperation(ctx context.Context, id int64, status string, finishedAt time.Time) error
	ListOperations(ctx context.Context, limit int) ([]*model.Operation, error)
	MaxOperationID(ctx context.Context) (int64, error)

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// BackupTo writes a consistent copy of the store to destPath.
	BackupTo(destPath string) error

	// Close closes the store.
	Close() error
}

// Tx is the set of statements available inside a Store transaction.
// Lookups that find nothing return (nil, nil).
type Tx interface {
	// Owners

	// EnsureOwner records the owner identity if it is not known yet.
	EnsureOwner(ctx context.Context, owner string) error
	// DeleteOwner removes the owner row. Returns the number of rows removed.
	DeleteOwner(ctx context.Context, owner string) (int64, error)
	DeleteOwnerFiles(ctx context.Context, owner string) (int64, error)
	DeleteOwnerDirectories(ctx context.Context, owner string) (int64, error)

	// Directories

	GetDirectory(ctx context.Context, id string) (*model.Directory, error)
	// LockDirectory is GetDirectory that also locks the row until the
	// transaction ends, where the store supports row locks.
	LockDirectory(ctx context.Context, id string) (*model.Directory, error)
	InsertDirectory(ctx context.Context, d *model.Directory) error
	RenameDirectory(ctx context.Context, id, name string, lastModified time.Time) error
	ReparentDirectory(ctx context.Context, id, parentID string, lastModified time.Time) error
	// AncestorIDs returns id followed by each ancestor up to the root.
	// Stores with row locks lock every directory on the chain.
	AncestorIDs(ctx context.Context, id string) ([]string, error)
	// SubtreeIDs returns id and every descendant of it.
	SubtreeIDs(ctx context.Context, id string) ([]string, error)
	// DeleteSubtreeFiles removes every file attached to id or a descendant.
	DeleteSubtreeFiles(ctx context.Context, id string) (int64, error)
	// DeleteSubtree removes id and every descendant directory.
	DeleteSubtree(ctx context.Context, id string) (int64, error)

	// Files

	GetFile(ctx context.Context, id string) (*model.File, error)
	InsertFile(ctx context.Context, f *model.File) error
	RenameFile(ctx context.Context, id, name string) error
	MoveFile(ctx context.Context, id, directoryID string) error
	DeleteFile(ctx context.Context, id string) (int64, error)
}
