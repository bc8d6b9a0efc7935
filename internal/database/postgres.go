package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"drawer-go/internal/database/migrations"
	"drawer-go/internal/drawer"
	"drawer-go/internal/model"
)

// pgDBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so reads can run
// inside or outside a transaction.
type pgDBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDatabase implements drawer.Store using PostgreSQL through pgxpool.
// Writers serialize on row locks: every transaction locks the directories it
// reads a decision from with SELECT ... FOR UPDATE.
type PostgresDatabase struct {
	pool *pgxpool.Pool
	dsn  string
}

// NewPostgresDatabase connects to the database behind dsn and pings it.
func NewPostgresDatabase(ctx context.Context, dsn string) (*PostgresDatabase, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return &PostgresDatabase{pool: pool, dsn: dsn}, nil
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// fails and committed otherwise.
func (p *PostgresDatabase) WithTx(ctx context.Context, fn func(tx drawer.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&pgTx{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const pgDirectoryColumns = `id, name, created_on, last_modified, parent_directory_id, owner_id`

const pgFileColumns = `id, name, type, size, uploaded_on, directory_id, owner_id`

func (p *PostgresDatabase) FindDirectory(ctx context.Context, id string) (*model.Directory, error) {
	return pgGetDirectory(ctx, p.pool, id, false)
}

func (p *PostgresDatabase) ListChildDirectories(ctx context.Context, parentID string, after drawer.Cursor, limit int) ([]*model.Directory, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgDirectoryColumns+` FROM directories
		WHERE parent_directory_id = $1
		  AND (name, created_on, id) > ($2, $3, $4)
		ORDER BY name, created_on, id
		LIMIT $5`,
		parentID, after.Name, after.CreatedOn, after.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing child directories: %w", err)
	}
	return pgCollectDirectories(rows)
}

func (p *PostgresDatabase) ListRootDirectories(ctx context.Context, owner string, after drawer.Cursor, limit int) ([]*model.Directory, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgDirectoryColumns+` FROM directories
		WHERE owner_id = $1
		  AND parent_directory_id IS NULL
		  AND (name, created_on, id) > ($2, $3, $4)
		ORDER BY name, created_on, id
		LIMIT $5`,
		owner, after.Name, after.CreatedOn, after.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing root directories: %w", err)
	}
	return pgCollectDirectories(rows)
}

func (p *PostgresDatabase) FindFile(ctx context.Context, id string) (*model.File, error) {
	return pgGetFile(ctx, p.pool, id)
}

func (p *PostgresDatabase) ListFilesInDirectory(ctx context.Context, directoryID string) ([]*model.File, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgFileColumns+` FROM files
		WHERE directory_id = $1
		ORDER BY name, uploaded_on, id`, directoryID)
	if err != nil {
		return nil, fmt.Errorf("listing files in directory: %w", err)
	}
	return pgCollectFiles(rows)
}

func (p *PostgresDatabase) ListUnfiledFiles(ctx context.Context, owner string) ([]*model.File, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgFileColumns+` FROM files
		WHERE owner_id = $1 AND directory_id IS NULL
		ORDER BY name, uploaded_on, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing unfiled files: %w", err)
	}
	return pgCollectFiles(rows)
}

// Operation journal

func (p *PostgresDatabase) CreateOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (*model.Operation, error) {
	row := p.pool.QueryRow(ctx, `INSERT INTO operations (started_at, operation, parameters, status)
		VALUES ($1, $2, $3, 'running')
		RETURNING id, started_at, finished_at, operation, parameters, status`,
		startedAt, operation, parameters)
	op, err := pgScanOperation(row)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return op, nil
}

func (p *PostgresDatabase) FinishOperation(ctx context.Context, id int64, status string, finishedAt time.Time) error {
	_, err := p.pool.Exec(ctx, `UPDATE operations SET finished_at = $1, status = $2 WHERE id = $3`,
		finishedAt, status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (p *PostgresDatabase) ListOperations(ctx context.Context, limit int) ([]*model.Operation, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, started_at, finished_at, operation, parameters, status
		FROM operations ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		op, err := pgScanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (p *PostgresDatabase) MaxOperationID(ctx context.Context) (int64, error) {
	var id int64
	if err := p.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM operations`).Scan(&id); err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// MigrateUp applies pending migrations.
func (p *PostgresDatabase) MigrateUp() error {
	return migrations.MigratePostgresUp(p.dsn)
}

// CheckMigrations verifies the database schema is up-to-date.
func (p *PostgresDatabase) CheckMigrations() error {
	return migrations.CheckPostgresMigrationStatus(p.dsn)
}

// BackupTo is not available for PostgreSQL; use pg_dump instead.
func (p *PostgresDatabase) BackupTo(destPath string) error {
	return fmt.Errorf("backing up database to %s: snapshots are only supported for sqlite", destPath)
}

// Close closes the connection pool.
func (p *PostgresDatabase) Close() error {
	p.pool.Close()
	return nil
}

// pgTx implements drawer.Tx on a pgx transaction.
type pgTx struct {
	db pgx.Tx
}

func (t *pgTx) EnsureOwner(ctx context.Context, owner string) error {
	_, err := t.db.Exec(ctx, `INSERT INTO owners (id, created_at) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, owner, time.Now().UTC())
	return err
}

func (t *pgTx) DeleteOwner(ctx context.Context, owner string) (int64, error) {
	return t.execRows(ctx, `DELETE FROM owners WHERE id = $1`, owner)
}

func (t *pgTx) DeleteOwnerFiles(ctx context.Context, owner string) (int64, error) {
	return t.execRows(ctx, `DELETE FROM files WHERE owner_id = $1`, owner)
}

func (t *pgTx) DeleteOwnerDirectories(ctx context.Context, owner string) (int64, error) {
	return t.execRows(ctx, `DELETE FROM directories WHERE owner_id = $1`, owner)
}

func (t *pgTx) GetDirectory(ctx context.Context, id string) (*model.Directory, error) {
	return pgGetDirectory(ctx, t.db, id, false)
}

func (t *pgTx) LockDirectory(ctx context.Context, id string) (*model.Directory, error) {
	return pgGetDirectory(ctx, t.db, id, true)
}

func (t *pgTx) InsertDirectory(ctx context.Context, d *model.Directory) error {
	_, err := t.db.Exec(ctx, `INSERT INTO directories (`+pgDirectoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.Name, d.CreatedOn, d.LastModified, nullable(d.ParentID), d.Owner)
	return err
}

func (t *pgTx) RenameDirectory(ctx context.Context, id, name string, lastModified time.Time) error {
	_, err := t.db.Exec(ctx, `UPDATE directories SET name = $1, last_modified = $2 WHERE id = $3`,
		name, lastModified, id)
	return err
}

func (t *pgTx) ReparentDirectory(ctx context.Context, id, parentID string, lastModified time.Time) error {
	_, err := t.db.Exec(ctx, `UPDATE directories SET parent_directory_id = $1, last_modified = $2 WHERE id = $3`,
		nullable(parentID), lastModified, id)
	return err
}

// AncestorIDs walks the parent chain one row at a time, locking each row, so
// that no concurrent move can rewire the chain while the caller decides.
func (t *pgTx) AncestorIDs(ctx context.Context, id string) ([]string, error) {
	var chain []string
	cur := id
	for cur != "" {
		if len(chain) >= maxAncestorDepth {
			return nil, fmt.Errorf("ancestor chain of %s exceeds %d levels", id, maxAncestorDepth)
		}
		var parent *string
		err := t.db.QueryRow(ctx, `SELECT parent_directory_id FROM directories WHERE id = $1 FOR UPDATE`, cur).Scan(&parent)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				break
			}
			return nil, err
		}
		chain = append(chain, cur)
		if parent == nil {
			break
		}
		cur = *parent
	}
	return chain, nil
}

// SubtreeIDs locks every directory in the closure. Inserting a child takes a
// key-share lock on its parent, so once the closure is locked it cannot grow.
// The closure is recomputed until it stops changing to pick up children
// committed while the locks were being taken.
func (t *pgTx) SubtreeIDs(ctx context.Context, id string) ([]string, error) {
	var prev []string
	for {
		ids, err := t.subtreeIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		slices.Sort(ids)
		if slices.Equal(ids, prev) {
			return ids, nil
		}
		if _, err := t.db.Exec(ctx, `SELECT id FROM directories WHERE id = ANY($1) FOR UPDATE`, ids); err != nil {
			return nil, err
		}
		prev = ids
	}
}

func (t *pgTx) subtreeIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := t.db.Query(ctx, `WITH RECURSIVE subtree(id) AS (
			SELECT d.id FROM directories d WHERE d.id = $1
			UNION
			SELECT c.id FROM directories c JOIN subtree s ON c.parent_directory_id = s.id
		)
		SELECT id FROM subtree`, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (t *pgTx) DeleteSubtreeFiles(ctx context.Context, id string) (int64, error) {
	return t.execRows(ctx, `WITH RECURSIVE subtree(id) AS (
			SELECT d.id FROM directories d WHERE d.id = $1
			UNION
			SELECT c.id FROM directories c JOIN subtree s ON c.parent_directory_id = s.id
		)
		DELETE FROM files WHERE directory_id IN (SELECT id FROM subtree)`, id)
}

func (t *pgTx) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	return t.execRows(ctx, `WITH RECURSIVE subtree(id) AS (
			SELECT d.id FROM directories d WHERE d.id = $1
			UNION
			SELECT c.id FROM directories c JOIN subtree s ON c.parent_directory_id = s.id
		)
		DELETE FROM directories WHERE id IN (SELECT id FROM subtree)`, id)
}

func (t *pgTx) GetFile(ctx context.Context, id string) (*model.File, error) {
	return pgGetFile(ctx, t.db, id)
}

func (t *pgTx) InsertFile(ctx context.Context, f *model.File) error {
	_, err := t.db.Exec(ctx, `INSERT INTO files (`+pgFileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.Name, f.Type, f.Size, f.UploadedOn, nullable(f.DirectoryID), f.Owner)
	return err
}

func (t *pgTx) RenameFile(ctx context.Context, id, name string) error {
	_, err := t.db.Exec(ctx, `UPDATE files SET name = $1 WHERE id = $2`, name, id)
	return err
}

func (t *pgTx) MoveFile(ctx context.Context, id, directoryID string) error {
	_, err := t.db.Exec(ctx, `UPDATE files SET directory_id = $1 WHERE id = $2`, nullable(directoryID), id)
	return err
}

func (t *pgTx) DeleteFile(ctx context.Context, id string) (int64, error) {
	return t.execRows(ctx, `DELETE FROM files WHERE id = $1`, id)
}

func (t *pgTx) execRows(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := t.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func pgGetDirectory(ctx context.Context, db pgDBTX, id string, forUpdate bool) (*model.Directory, error) {
	query := `SELECT ` + pgDirectoryColumns + ` FROM directories WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	d, err := pgScanDirectory(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding directory: %w", err)
	}
	return d, nil
}

func pgGetFile(ctx context.Context, db pgDBTX, id string) (*model.File, error) {
	f, err := pgScanFile(db.QueryRow(ctx, `SELECT `+pgFileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return f, nil
}

func pgScanDirectory(row pgx.Row) (*model.Directory, error) {
	var d model.Directory
	var parent *string
	if err := row.Scan(&d.ID, &d.Name, &d.CreatedOn, &d.LastModified, &parent, &d.Owner); err != nil {
		return nil, err
	}
	if parent != nil {
		d.ParentID = *parent
	}
	return &d, nil
}

func pgScanFile(row pgx.Row) (*model.File, error) {
	var f model.File
	var dir *string
	if err := row.Scan(&f.ID, &f.Name, &f.Type, &f.Size, &f.UploadedOn, &dir, &f.Owner); err != nil {
		return nil, err
	}
	if dir != nil {
		f.DirectoryID = *dir
	}
	return &f, nil
}

func pgScanOperation(row pgx.Row) (*model.Operation, error) {
	var op model.Operation
	if err := row.Scan(&op.ID, &op.StartedAt, &op.FinishedAt, &op.Operation, &op.Parameters, &op.Status); err != nil {
		return nil, err
	}
	return &op, nil
}

func pgCollectDirectories(rows pgx.Rows) ([]*model.Directory, error) {
	defer rows.Close()
	var dirs []*model.Directory
	for rows.Next() {
		d, err := pgScanDirectory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning directory: %w", err)
		}
		dirs = append(dirs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading directories: %w", err)
	}
	return dirs, nil
}

func pgCollectFiles(rows pgx.Rows) ([]*model.File, error) {
	defer rows.Close()
	var files []*model.File
	for rows.Next() {
		f, err := pgScanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading files: %w", err)
	}
	return files, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Compile-time check that PostgresDatabase implements drawer.Store
var _ drawer.Store = (*PostgresDatabase)(nil)
