package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"time"

	"drawer-go/internal/config"
	"drawer-go/internal/database"
	"drawer-go/internal/drawer"
	"drawer-go/internal/encryption"
	"drawer-go/internal/fs"
	"drawer-go/internal/model"
	"drawer-go/internal/vault"
)

// snapshotName is the vault key under which metadata snapshots are stored.
const snapshotName = "drawer.db"

// ErrNoVault is returned by snapshot commands when no vault is configured.
var ErrNoVault = errors.New("no vault configured")

// DrawerApp is the application layer between the CLI and the drawer services.
// It constructs all dependencies from config, scopes commands to one owner,
// journals mutating commands and manages the store lifecycle on Close.
type DrawerApp struct {
	cfg      *config.Config
	owner    string
	db       database.Database
	vault    drawer.Vault // nil when no vault is configured
	sealer   drawer.Sealer
	fsmgr    drawer.FilesystemManager
	dirs     *drawer.DirectoryService
	files    *drawer.FileService
	owners   *drawer.OwnerService
	importer *drawer.Importer
	logger   drawer.Logger
	clock    drawer.Clock
	op       *Operation
	logFile  *os.File
}

// NewDrawerApp creates a fully wired DrawerApp from the given config.
// owner scopes directory and file commands; it may be empty for commands
// that do not act on an owner's forest. op describes the CLI command being
// run. prompt supplies snapshot passphrases. The caller must call Close.
func NewDrawerApp(ctx context.Context, cfg *config.Config, owner string, op *Operation, prompt encryption.PassphraseFunc) (*DrawerApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, cfg.LogLevel, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	cleanup := func() { logFile.Close() }

	db, err := database.NewDatabaseFromConfig(ctx, cfg.Database)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating database: %w", err)
	}
	cleanup = func() {
		db.Close()
		logFile.Close()
	}

	if err := db.CheckMigrations(); err != nil {
		cleanup()
		return nil, fmt.Errorf("database schema out of date, run 'drawer migrate': %w", err)
	}

	v, err := vault.NewVaultFromConfig(ctx, cfg.Vault)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	// A newer snapshot in the vault means another host has written metadata
	// this store has not seen.
	if v != nil {
		remote, err := v.SnapshotVersion(ctx, snapshotName)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("checking remote snapshot version: %w", err)
		}
		local, err := db.MaxOperationID(ctx)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("checking local journal: %w", err)
		}
		if remote > local {
			cleanup()
			return nil, fmt.Errorf("local metadata is behind the vault (local=%d, remote=%d): run 'drawer snapshot pull' and restore it", local, remote)
		}
	}

	sealer, err := encryption.NewSealerFromConfig(cfg.Snapshot, prompt)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating sealer: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager(cfg.Import.Ignore)
	clock := drawer.RealClock{}
	ids := drawer.UUIDGenerator{}
	dirs := drawer.NewDirectoryService(db, logger, clock, ids)
	files := drawer.NewFileService(db, logger, clock, ids)

	return &DrawerApp{
		cfg:      cfg,
		owner:    owner,
		db:       db,
		vault:    v,
		sealer:   sealer,
		fsmgr:    fsmgr,
		dirs:     dirs,
		files:    files,
		owners:   drawer.NewOwnerService(db, logger),
		importer: drawer.NewImporter(dirs, files, fsmgr, logger),
		logger:   logger,
		clock:    clock,
		op:       op,
		logFile:  logFile,
	}, nil
}

// persistOperation records the command in the journal, giving it an id.
// Only mutating commands call it.
func (a *DrawerApp) persistOperation(ctx context.Context) error {
	if a.op.Persisted() {
		return nil
	}
	rec, err := a.db.CreateOperation(ctx, a.op.Operation, a.op.Parameters, a.clock.Now())
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	a.op.ID = rec.ID
	return nil
}

// mutate journals the command, then runs fn and records its outcome.
func (a *DrawerApp) mutate(ctx context.Context, fn func() error) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if err := a.persistOperation(ctx); err != nil {
		return err
	}
	return a.op.Fail(fn())
}

func (a *DrawerApp) requireOwner() error {
	if a.owner == "" {
		return fmt.Errorf("%w: no owner selected; pass --owner, set DRAWER_OWNER or default_owner in config", drawer.ErrValidation)
	}
	return nil
}

// ownDirectory loads a directory and hides it unless it belongs to the app's owner.
func (a *DrawerApp) ownDirectory(ctx context.Context, id string) (*model.Directory, error) {
	dir, err := a.dirs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dir.Owner != a.owner {
		return nil, fmt.Errorf("%w: directory %s", drawer.ErrNotFound, id)
	}
	return dir, nil
}

// ownFile loads a file and hides it unless it belongs to the app's owner.
func (a *DrawerApp) ownFile(ctx context.Context, id string) (*model.File, error) {
	file, err := a.files.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.Owner != a.owner {
		return nil, fmt.Errorf("%w: file %s", drawer.ErrNotFound, id)
	}
	return file, nil
}

// CreateDirectory creates a directory, as a root when parentID is empty.
func (a *DrawerApp) CreateDirectory(ctx context.Context, name, parentID string) (*model.Directory, error) {
	var dir *model.Directory
	err := a.mutate(ctx, func() error {
		var err error
		dir, err = a.dirs.Create(ctx, name, a.owner, parentID)
		return err
	})
	return dir, err
}

// RenameDirectory renames one of the owner's directories.
func (a *DrawerApp) RenameDirectory(ctx context.Context, id, name string) (*model.Directory, error) {
	var dir *model.Directory
	err := a.mutate(ctx, func() error {
		if _, err := a.ownDirectory(ctx, id); err != nil {
			return err
		}
		var err error
		dir, err = a.dirs.Rename(ctx, id, name)
		return err
	})
	return dir, err
}

// MoveDirectory reparents one of the owner's directories. An empty
// parentID makes it a root.
func (a *DrawerApp) MoveDirectory(ctx context.Context, id, parentID string) (*model.Directory, error) {
	var dir *model.Directory
	err := a.mutate(ctx, func() error {
		if _, err := a.ownDirectory(ctx, id); err != nil {
			return err
		}
		var err error
		dir, err = a.dirs.Move(ctx, id, parentID)
		return err
	})
	return dir, err
}

// DeleteDirectory removes one of the owner's directories with everything below it.
func (a *DrawerApp) DeleteDirectory(ctx context.Context, id string) (*drawer.DeleteResult, error) {
	var res *drawer.DeleteResult
	err := a.mutate(ctx, func() error {
		if _, err := a.ownDirectory(ctx, id); err != nil {
			return err
		}
		var err error
		res, err = a.dirs.Delete(ctx, id)
		return err
	})
	return res, err
}

// Listing is the content of one level of the owner's forest.
type Listing struct {
	Directories iter.Seq2[*model.Directory, error]
	Files       []*model.File
}

// List returns the subdirectories and files of a directory. An empty id
// lists the owner's root directories and unfiled files.
func (a *DrawerApp) List(ctx context.Context, id string) (*Listing, error) {
	if err := a.requireOwner(); err != nil {
		return nil, err
	}

	if id == "" {
		files, err := a.files.ListUnfiled(ctx, a.owner)
		if err != nil {
			return nil, err
		}
		return &Listing{Directories: a.dirs.ListRoots(ctx, a.owner), Files: files}, nil
	}

	if _, err := a.ownDirectory(ctx, id); err != nil {
		return nil, err
	}
	files, err := a.files.ListInDirectory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Listing{Directories: a.dirs.ListChildren(ctx, id), Files: files}, nil
}

// DirectoryPath returns the chain of directories from the root down to id.
func (a *DrawerApp) DirectoryPath(ctx context.Context, id string) ([]*model.Directory, error) {
	if err := a.requireOwner(); err != nil {
		return nil, err
	}
	if _, err := a.ownDirectory(ctx, id); err != nil {
		return nil, err
	}
	return a.dirs.Path(ctx, id)
}

// AddFile registers file metadata, unfiled when directoryID is empty.
func (a *DrawerApp) AddFile(ctx context.Context, name, mimeType string, size int64, directoryID string) (*model.File, error) {
	var file *model.File
	err := a.mutate(ctx, func() error {
		var err error
		file, err = a.files.Register(ctx, name, mimeType, size, a.owner, directoryID)
		return err
	})
	return file, err
}

// MoveFile attaches one of the owner's files to a directory, or detaches it
// when directoryID is empty.
func (a *DrawerApp) MoveFile(ctx context.Context, id, directoryID string) (*model.File, error) {
	var file *model.File
	err := a.mutate(ctx, func() error {
		if _, err := a.ownFile(ctx, id); err != nil {
			return err
		}
		var err error
		file, err = a.files.Move(ctx, id, directoryID)
		return err
	})
	return file, err
}

// RenameFile renames one of the owner's files.
func (a *DrawerApp) RenameFile(ctx context.Context, id, name string) (*model.File, error) {
	var file *model.File
	err := a.mutate(ctx, func() error {
		if _, err := a.ownFile(ctx, id); err != nil {
			return err
		}
		var err error
		file, err = a.files.Rename(ctx, id, name)
		return err
	})
	return file, err
}

// DeleteFile removes one of the owner's files.
func (a *DrawerApp) DeleteFile(ctx context.Context, id string) error {
	return a.mutate(ctx, func() error {
		if _, err := a.ownFile(ctx, id); err != nil {
			return err
		}
		return a.files.Delete(ctx, id)
	})
}

// HumanSize formats a file's size for display.
func (a *DrawerApp) HumanSize(f *model.File) string {
	return a.files.HumanSize(f)
}

// Import mirrors a local directory tree into the owner's forest.
func (a *DrawerApp) Import(ctx context.Context, rawPath, parentID string) (*drawer.ImportResult, error) {
	var res *drawer.ImportResult
	err := a.mutate(ctx, func() error {
		p, err := a.fsmgr.Resolve(rawPath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		res, err = a.importer.Import(ctx, a.owner, p, parentID)
		return err
	})
	return res, err
}

// RemoveOwner deletes every directory and file of owner.
func (a *DrawerApp) RemoveOwner(ctx context.Context, owner string) (*drawer.DeleteResult, error) {
	if err := a.persistOperation(ctx); err != nil {
		return nil, err
	}
	res, err := a.owners.Remove(ctx, owner)
	return res, a.op.Fail(err)
}

// History returns the most recent journal entries, newest first.
func (a *DrawerApp) History(ctx context.Context, limit int) ([]*model.Operation, error) {
	ops, err := a.db.ListOperations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// SnapshotPush copies the store, seals the copy and uploads it to the vault.
// The snapshot is versioned with the newest journal id. It returns that version.
func (a *DrawerApp) SnapshotPush(ctx context.Context) (int64, error) {
	if a.vault == nil {
		return 0, ErrNoVault
	}

	version, err := a.db.MaxOperationID(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading journal: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "drawer-snapshot-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plainPath := filepath.Join(tmpDir, "plain.db")
	if err := a.db.BackupTo(plainPath); err != nil {
		return 0, fmt.Errorf("copying database: %w", err)
	}

	sealedPath := filepath.Join(tmpDir, "sealed")
	if err := a.sealFile(plainPath, sealedPath); err != nil {
		return 0, err
	}

	f, err := os.Open(sealedPath)
	if err != nil {
		return 0, fmt.Errorf("opening sealed snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat sealed snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(ctx, snapshotName, f, info.Size(), version); err != nil {
		return 0, fmt.Errorf("uploading snapshot: %w", err)
	}

	a.logger.Info("snapshot pushed", "version", version, "bytes", info.Size())
	return version, nil
}

// ValidateVault checks that the configured vault is reachable and writable.
func (a *DrawerApp) ValidateVault(ctx context.Context) error {
	if a.vault == nil {
		return ErrNoVault
	}
	return a.vault.ValidateSetup(ctx)
}

func (a *DrawerApp) sealFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening database copy: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating sealed snapshot: %w", err)
	}
	if err := a.sealer.Seal(in, out); err != nil {
		out.Close()
		return fmt.Errorf("sealing snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing sealed snapshot: %w", err)
	}
	return nil
}

// Close finishes the journal entry of a mutating command and releases all
// resources.
func (a *DrawerApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.db.FinishOperation(ctx, a.op.ID, a.op.Status, a.clock.Now()); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// Migrate brings the configured database's schema up to date. It runs
// without a DrawerApp because NewDrawerApp refuses an outdated schema.
func Migrate(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	db, err := database.NewDatabaseFromConfig(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// PullSnapshot downloads the latest snapshot from the configured vault,
// opens it and writes the plaintext database to outPath, which must not
// exist yet. It needs no local store, so it works when the local metadata
// is behind the vault.
func PullSnapshot(ctx context.Context, cfg *config.Config, prompt encryption.PassphraseFunc, outPath string) (int64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, fmt.Errorf("invalid config: %w", err)
	}
	v, err := vault.NewVaultFromConfig(ctx, cfg.Vault)
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}
	if v == nil {
		return 0, ErrNoVault
	}
	sealer, err := encryption.NewSealerFromConfig(cfg.Snapshot, prompt)
	if err != nil {
		return 0, fmt.Errorf("creating sealer: %w", err)
	}

	version, err := v.SnapshotVersion(ctx, snapshotName)
	if err != nil {
		return 0, fmt.Errorf("checking snapshot version: %w", err)
	}

	tmp, err := os.CreateTemp("", "drawer-snapshot-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := v.GetSnapshot(ctx, snapshotName, tmp); err != nil {
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding snapshot: %w", err)
	}

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := sealer.Open(tmp, out); err != nil {
		out.Close()
		os.Remove(outPath)
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", outPath, err)
	}
	return version, nil
}

// GenerateSnapshotKeys creates the X25519 key pair named in cfg, protecting
// the identity with a passphrase read from prompt.
func GenerateSnapshotKeys(cfg config.SnapshotConfig, prompt encryption.PassphraseFunc) error {
	if cfg.Encryption != "x25519" {
		return fmt.Errorf("snapshot encryption is %q, keys are only used with x25519", cfg.Encryption)
	}
	pass, err := prompt("New identity passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := prompt("Confirm passphrase: ")
	if err != nil {
		return err
	}
	if pass != confirm {
		return fmt.Errorf("passphrases do not match")
	}
	return encryption.NewKeyPair(cfg.RecipientsFile, cfg.IdentityFile).Generate(pass)
}
