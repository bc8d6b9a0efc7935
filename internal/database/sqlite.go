package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"drawer-go/internal/database/migrations"
	"drawer-go/internal/database/sqlc"
	"drawer-go/internal/drawer"
	"drawer-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// maxAncestorDepth bounds the ancestor walk. A longer chain can only come
// from a corrupted tree.
const maxAncestorDepth = 10000

// SQLiteDatabase implements drawer.Store using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
	}
}

// OpenConnection opens a SQLite connection with foreign keys on, immediate
// write transactions and a busy timeout. Every pooled connection gets the
// same settings because they live in the DSN.
// An in-memory database is limited to one connection so that all statements
// see the same data.
func OpenConnection(path string) (*sql.DB, error) {
	params := "_foreign_keys=1&_txlock=immediate&_busy_timeout=5000"

	memory := path == ":memory:"
	var dsn string
	if memory {
		dsn = "file::memory:?" + params
	} else {
		dsn = "file:" + path + "?" + params + "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// WithTx runs fn in a transaction. SQLite write transactions are taken with
// BEGIN IMMEDIATE, so concurrent writers queue on the database lock.
func (s *SQLiteDatabase) WithTx(ctx context.Context, fn func(tx drawer.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{q: s.queries.WithTx(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Directory reads

func (s *SQLiteDatabase) FindDirectory(ctx context.Context, id string) (*model.Directory, error) {
	return getDirectory(ctx, s.queries, id)
}

func (s *SQLiteDatabase) ListChildDirectories(ctx context.Context, parentID string, after drawer.Cursor, limit int) ([]*model.Directory, error) {
	rows, err := s.queries.ListChildDirectories(ctx, sqlc.ListChildDirectoriesParams{
		ParentDirectoryID: nullString(parentID),
		AfterName:         after.Name,
		AfterCreatedOn:    after.CreatedOn.UTC(),
		AfterID:           after.ID,
		PageSize:          int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing child directories: %w", err)
	}
	return toDirectories(rows), nil
}

func (s *SQLiteDatabase) ListRootDirectories(ctx context.Context, owner string, after drawer.Cursor, limit int) ([]*model.Directory, error) {
	rows, err := s.queries.ListRootDirectories(ctx, sqlc.ListRootDirectoriesParams{
		OwnerID:        owner,
		AfterName:      after.Name,
		AfterCreatedOn: after.CreatedOn.UTC(),
		AfterID:        after.ID,
		PageSize:       int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing root directories: %w", err)
	}
	return toDirectories(rows), nil
}

// File reads

func (s *SQLiteDatabase) FindFile(ctx context.Context, id string) (*model.File, error) {
	return getFile(ctx, s.queries, id)
}

func (s *SQLiteDatabase) ListFilesInDirectory(ctx context.Context, directoryID string) ([]*model.File, error) {
	rows, err := s.queries.ListFilesByDirectoryID(ctx, nullString(directoryID))
	if err != nil {
		return nil, fmt.Errorf("listing files in directory: %w", err)
	}
	return toFiles(rows), nil
}

func (s *SQLiteDatabase) ListUnfiledFiles(ctx context.Context, owner string) ([]*model.File, error) {
	rows, err := s.queries.ListUnfiledFilesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing unfiled files: %w", err)
	}
	return toFiles(rows), nil
}

// Operation journal

func (s *SQLiteDatabase) CreateOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (*model.Operation, error) {
	op, err := s.queries.InsertOperation(ctx, sqlc.InsertOperationParams{
		StartedAt:  startedAt.UTC(),
		Operation:  operation,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return toOperation(op), nil
}

func (s *SQLiteDatabase) FinishOperation(ctx context.Context, id int64, status string, finishedAt time.Time) error {
	err := s.queries.UpdateOperationFinished(ctx, sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: finishedAt.UTC(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(ctx context.Context, limit int) ([]*model.Operation, error) {
	ops, err := s.queries.GetOperations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	result := make([]*model.Operation, len(ops))
	for i := range ops {
		result[i] = toOperation(ops[i])
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID(ctx context.Context) (int64, error) {
	id, err := s.queries.GetMaxOperationID(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp applies pending migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// sqliteTx implements drawer.Tx on top of a transaction-bound Queries.
type sqliteTx struct {
	q *sqlc.Queries
}

func (t *sqliteTx) EnsureOwner(ctx context.Context, owner string) error {
	return t.q.UpsertOwner(ctx, sqlc.UpsertOwnerParams{ID: owner, CreatedAt: time.Now().UTC()})
}

func (t *sqliteTx) DeleteOwner(ctx context.Context, owner string) (int64, error) {
	return t.q.DeleteOwnerByID(ctx, owner)
}

func (t *sqliteTx) DeleteOwnerFiles(ctx context.Context, owner string) (int64, error) {
	return t.q.DeleteFilesByOwner(ctx, owner)
}

// DeleteOwnerDirectories detaches the owner's directories from their parents
// first. SQLite runs ON DELETE CASCADE per row and does not count cascaded
// rows, so without the detach the count would fall short.
func (t *sqliteTx) DeleteOwnerDirectories(ctx context.Context, owner string) (int64, error) {
	if err := t.q.DetachDirectoriesByOwner(ctx, owner); err != nil {
		return 0, err
	}
	return t.q.DeleteDirectoriesByOwner(ctx, owner)
}

func (t *sqliteTx) GetDirectory(ctx context.Context, id string) (*model.Directory, error) {
	return getDirectory(ctx, t.q, id)
}

// LockDirectory is a plain read: the IMMEDIATE transaction already holds
// the database write lock.
func (t *sqliteTx) LockDirectory(ctx context.Context, id string) (*model.Directory, error) {
	return getDirectory(ctx, t.q, id)
}

func (t *sqliteTx) InsertDirectory(ctx context.Context, d *model.Directory) error {
	return t.q.InsertDirectory(ctx, sqlc.InsertDirectoryParams{
		ID:                d.ID,
		Name:              d.Name,
		CreatedOn:         d.CreatedOn.UTC(),
		LastModified:      d.LastModified.UTC(),
		ParentDirectoryID: nullString(d.ParentID),
		OwnerID:           d.Owner,
	})
}

func (t *sqliteTx) RenameDirectory(ctx context.Context, id, name string, lastModified time.Time) error {
	return t.q.UpdateDirectoryName(ctx, sqlc.UpdateDirectoryNameParams{
		Name:         name,
		LastModified: lastModified.UTC(),
		ID:           id,
	})
}

func (t *sqliteTx) ReparentDirectory(ctx context.Context, id, parentID string, lastModified time.Time) error {
	return t.q.UpdateDirectoryParent(ctx, sqlc.UpdateDirectoryParentParams{
		ParentDirectoryID: nullString(parentID),
		LastModified:      lastModified.UTC(),
		ID:                id,
	})
}

func (t *sqliteTx) AncestorIDs(ctx context.Context, id string) ([]string, error) {
	ids, err := t.q.GetAncestorIDs(ctx, sqlc.GetAncestorIDsParams{ID: id, MaxDepth: maxAncestorDepth})
	if err != nil {
		return nil, err
	}
	if len(ids) > maxAncestorDepth {
		return nil, fmt.Errorf("ancestor chain of %s exceeds %d levels", id, maxAncestorDepth)
	}
	return ids, nil
}

func (t *sqliteTx) SubtreeIDs(ctx context.Context, id string) ([]string, error) {
	return t.q.GetSubtreeIDs(ctx, id)
}

func (t *sqliteTx) DeleteSubtreeFiles(ctx context.Context, id string) (int64, error) {
	return t.q.DeleteSubtreeFiles(ctx, id)
}

// DeleteSubtree collects the closure, detaches its inner edges and deletes
// the members one by one so every removed row is counted; see
// DeleteOwnerDirectories.
func (t *sqliteTx) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	ids, err := t.q.GetSubtreeIDs(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := t.q.DetachSubtree(ctx, id); err != nil {
		return 0, err
	}

	var total int64
	for _, dirID := range ids {
		n, err := t.q.DeleteDirectoryByID(ctx, dirID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *sqliteTx) GetFile(ctx context.Context, id string) (*model.File, error) {
	return getFile(ctx, t.q, id)
}

func (t *sqliteTx) InsertFile(ctx context.Context, f *model.File) error {
	return t.q.InsertFile(ctx, sqlc.InsertFileParams{
		ID:          f.ID,
		Name:        f.Name,
		Type:        f.Type,
		Size:        f.Size,
		UploadedOn:  f.UploadedOn.UTC(),
		DirectoryID: nullString(f.DirectoryID),
		OwnerID:     f.Owner,
	})
}

func (t *sqliteTx) RenameFile(ctx context.Context, id, name string) error {
	return t.q.UpdateFileName(ctx, sqlc.UpdateFileNameParams{Name: name, ID: id})
}

func (t *sqliteTx) MoveFile(ctx context.Context, id, directoryID string) error {
	return t.q.UpdateFileDirectory(ctx, sqlc.UpdateFileDirectoryParams{
		DirectoryID: nullString(directoryID),
		ID:          id,
	})
}

func (t *sqliteTx) DeleteFile(ctx context.Context, id string) (int64, error) {
	return t.q.DeleteFileByID(ctx, id)
}

func getDirectory(ctx context.Context, q *sqlc.Queries, id string) (*model.Directory, error) {
	row, err := q.GetDirectoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding directory: %w", err)
	}
	return toDirectory(row), nil
}

func getFile(ctx context.Context, q *sqlc.Queries, id string) (*model.File, error) {
	row, err := q.GetFileByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return toFile(row), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toDirectory(d sqlc.Directory) *model.Directory {
	return &model.Directory{
		ID:           d.ID,
		Name:         d.Name,
		CreatedOn:    d.CreatedOn,
		LastModified: d.LastModified,
		ParentID:     d.ParentDirectoryID.String,
		Owner:        d.OwnerID,
	}
}

func toDirectories(rows []sqlc.Directory) []*model.Directory {
	result := make([]*model.Directory, len(rows))
	for i := range rows {
		result[i] = toDirectory(rows[i])
	}
	return result
}

func toFile(f sqlc.File) *model.File {
	return &model.File{
		ID:          f.ID,
		Name:        f.Name,
		Type:        f.Type,
		Size:        f.Size,
		UploadedOn:  f.UploadedOn,
		DirectoryID: f.DirectoryID.String,
		Owner:       f.OwnerID,
	}
}

func toFiles(rows []sqlc.File) []*model.File {
	result := make([]*model.File, len(rows))
	for i := range rows {
		result[i] = toFile(rows[i])
	}
	return result
}

func toOperation(op sqlc.Operation) *model.Operation {
	result := &model.Operation{
		ID:         op.ID,
		StartedAt:  op.StartedAt,
		Operation:  op.Operation,
		Parameters: op.Parameters,
		Status:     op.Status,
	}
	if op.FinishedAt.Valid {
		finished := op.FinishedAt.Time
		result.FinishedAt = &finished
	}
	return result
}

// Compile-time check that SQLiteDatabase implements drawer.Store
var _ drawer.Store = (*SQLiteDatabase)(nil)
