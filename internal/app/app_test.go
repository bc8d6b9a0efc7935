package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"drawer-go/internal/config"
	"drawer-go/internal/database"
	"drawer-go/internal/drawer"
	"drawer-go/internal/encryption"
)

// newTestConfig returns a config backed by a SQLite file under a temp dir,
// with its schema migrated.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig("alice", base)
	cfg.LogLevel = "error"
	cfg.Snapshot = config.SnapshotConfig{Encryption: "none"}
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, owner, operation string, args ...string) *DrawerApp {
	t.Helper()
	a, err := NewDrawerApp(context.Background(), cfg, owner, NewOperation(operation, args...), encryption.StaticPassphrase("test-passphrase"))
	if err != nil {
		t.Fatalf("NewDrawerApp() error = %v", err)
	}
	return a
}

func closeApp(t *testing.T, a *DrawerApp) {
	t.Helper()
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestNewDrawerApp_RequiresMigratedSchema(t *testing.T) {
	cfg := config.NewConfig("alice", t.TempDir())
	cfg.LogLevel = "error"

	_, err := NewDrawerApp(context.Background(), cfg, "alice", NewOperation("List"), encryption.StaticPassphrase("x"))
	if err == nil || !strings.Contains(err.Error(), "drawer migrate") {
		t.Fatalf("NewDrawerApp() error = %v, want schema error", err)
	}

	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	a := newTestApp(t, cfg, "alice", "List")
	closeApp(t, a)
}

func TestNewDrawerApp_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig("alice", t.TempDir())
	cfg.Database.Type = "mysql"
	if _, err := NewDrawerApp(context.Background(), cfg, "alice", NewOperation("List"), nil); err == nil {
		t.Error("NewDrawerApp() expected error for invalid config")
	}
}

func TestDrawerApp_Tree(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Database = config.DatabaseConfig{Type: "memory"}

	a := newTestApp(t, cfg, "alice", "Tree")
	defer closeApp(t, a)

	root, err := a.CreateDirectory(ctx, "root", "")
	if err != nil {
		t.Fatalf("CreateDirectory(root) error = %v", err)
	}
	child, err := a.CreateDirectory(ctx, "child", root.ID)
	if err != nil {
		t.Fatalf("CreateDirectory(child) error = %v", err)
	}
	file, err := a.AddFile(ctx, "notes.txt", "text/plain", 1536, child.ID)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	if got := a.HumanSize(file); got != "1.50 KB" {
		t.Errorf("HumanSize() = %q, want %q", got, "1.50 KB")
	}

	listing, err := a.List(ctx, root.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for d, err := range listing.Directories {
		if err != nil {
			t.Fatalf("listing error = %v", err)
		}
		names = append(names, d.Name)
	}
	if !slices.Equal(names, []string{"child"}) || len(listing.Files) != 0 {
		t.Errorf("List(root) = %v dirs, %d files", names, len(listing.Files))
	}

	path, err := a.DirectoryPath(ctx, child.ID)
	if err != nil || len(path) != 2 {
		t.Fatalf("DirectoryPath() = %v, %v", path, err)
	}

	if _, err := a.MoveDirectory(ctx, root.ID, child.ID); !errors.Is(err, drawer.ErrCycle) {
		t.Errorf("MoveDirectory() error = %v, want ErrCycle", err)
	}
	if _, err := a.MoveFile(ctx, file.ID, ""); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}

	top, err := a.List(ctx, "")
	if err != nil {
		t.Fatalf("List(top) error = %v", err)
	}
	if len(top.Files) != 1 || top.Files[0].ID != file.ID {
		t.Errorf("unfiled files = %v", top.Files)
	}

	res, err := a.DeleteDirectory(ctx, root.ID)
	if err != nil {
		t.Fatalf("DeleteDirectory() error = %v", err)
	}
	if res.Directories != 2 || res.Files != 0 {
		t.Errorf("DeleteDirectory() = %+v", res)
	}

	if _, err := a.RenameFile(ctx, file.ID, "final.txt"); err != nil {
		t.Fatalf("RenameFile() error = %v", err)
	}
	if err := a.DeleteFile(ctx, file.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
}

func TestDrawerApp_Journal(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	a := newTestApp(t, cfg, "alice", "CreateDirectory", "docs")
	if _, err := a.CreateDirectory(ctx, "docs", ""); err != nil {
		t.Fatalf("CreateDirectory() error = %v", err)
	}
	closeApp(t, a)

	a = newTestApp(t, cfg, "alice", "RenameDirectory", "missing", "x")
	if _, err := a.RenameDirectory(ctx, "missing", "x"); !errors.Is(err, drawer.ErrNotFound) {
		t.Fatalf("RenameDirectory() error = %v, want ErrNotFound", err)
	}
	closeApp(t, a)

	a = newTestApp(t, cfg, "alice", "List")
	if _, err := a.List(ctx, ""); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	ops, err := a.History(ctx, 10)
	closeApp(t, a)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	if len(ops) != 2 {
		t.Fatalf("History() returned %d operations, want 2 (reads are not journaled)", len(ops))
	}
	if ops[0].Operation != "RenameDirectory" || ops[0].Status != "error" || ops[0].Parameters != "missing x" {
		t.Errorf("ops[0] = %+v", ops[0])
	}
	if ops[1].Operation != "CreateDirectory" || ops[1].Status != "success" {
		t.Errorf("ops[1] = %+v", ops[1])
	}
	for _, op := range ops {
		if op.FinishedAt == nil {
			t.Errorf("operation %d was not finished", op.ID)
		}
	}
}

func TestDrawerApp_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	alice := newTestApp(t, cfg, "alice", "CreateDirectory")
	dir, err := alice.CreateDirectory(ctx, "private", "")
	if err != nil {
		t.Fatalf("CreateDirectory() error = %v", err)
	}
	file, err := alice.AddFile(ctx, "secret.txt", "text/plain", 1, dir.ID)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	closeApp(t, alice)

	bob := newTestApp(t, cfg, "bob", "CrossOwner")
	defer closeApp(t, bob)

	checks := map[string]error{}
	_, checks["RenameDirectory"] = bob.RenameDirectory(ctx, dir.ID, "mine")
	_, checks["MoveDirectory"] = bob.MoveDirectory(ctx, dir.ID, "")
	_, checks["DeleteDirectory"] = bob.DeleteDirectory(ctx, dir.ID)
	_, checks["List"] = bob.List(ctx, dir.ID)
	_, checks["DirectoryPath"] = bob.DirectoryPath(ctx, dir.ID)
	_, checks["RenameFile"] = bob.RenameFile(ctx, file.ID, "mine")
	_, checks["MoveFile"] = bob.MoveFile(ctx, file.ID, "")
	checks["DeleteFile"] = bob.DeleteFile(ctx, file.ID)
	for name, err := range checks {
		if !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("%s() error = %v, want ErrNotFound", name, err)
		}
	}

	if _, err := bob.AddFile(ctx, "intrude.txt", "text/plain", 1, dir.ID); !errors.Is(err, drawer.ErrOwnership) {
		t.Errorf("AddFile() into another owner's directory error = %v, want ErrOwnership", err)
	}

	top, err := bob.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for d, err := range top.Directories {
		t.Errorf("bob sees directory %v (err %v)", d, err)
	}
}

func TestDrawerApp_RequiresOwner(t *testing.T) {
	cfg := newTestConfig(t)
	a := newTestApp(t, cfg, "", "CreateDirectory")
	defer closeApp(t, a)

	if _, err := a.CreateDirectory(context.Background(), "x", ""); !errors.Is(err, drawer.ErrValidation) {
		t.Errorf("CreateDirectory() error = %v, want ErrValidation", err)
	}
	if _, err := a.List(context.Background(), ""); !errors.Is(err, drawer.ErrValidation) {
		t.Errorf("List() error = %v, want ErrValidation", err)
	}
}

func TestDrawerApp_RemoveOwner(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	a := newTestApp(t, cfg, "alice", "Setup")
	if _, err := a.CreateDirectory(ctx, "docs", ""); err != nil {
		t.Fatalf("CreateDirectory() error = %v", err)
	}
	if _, err := a.AddFile(ctx, "a.txt", "text/plain", 1, ""); err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	closeApp(t, a)

	admin := newTestApp(t, cfg, "", "RemoveOwner", "alice")
	defer closeApp(t, admin)
	res, err := admin.RemoveOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("RemoveOwner() error = %v", err)
	}
	if res.Directories != 1 || res.Files != 1 {
		t.Errorf("RemoveOwner() = %+v", res)
	}
}

func TestDrawerApp_Import(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Import.Ignore = append(cfg.Import.Ignore, "*.tmp")

	src := filepath.Join(t.TempDir(), "project")
	for rel, content := range map[string]string{
		"README.md":       "# project",
		"src/main.go":     "package main",
		"src/scratch.tmp": "",
		".git/HEAD":       "ref: refs/heads/main",
	} {
		p := filepath.Join(src, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	a := newTestApp(t, cfg, "alice", "Import", src)
	defer closeApp(t, a)

	res, err := a.Import(ctx, src, "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Directories != 2 || res.Files != 2 || res.Skipped != 2 {
		t.Errorf("Import() = %+v, want 2 directories, 2 files, 2 skipped", res)
	}
	if res.Root.Name != "project" {
		t.Errorf("Root.Name = %q, want %q", res.Root.Name, "project")
	}
}

func TestDrawerApp_Snapshot(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Vault = config.VaultConfig{Type: "filesystem", FSRoot: filepath.Join(t.TempDir(), "vault")}
	cfg.Snapshot = config.SnapshotConfig{Encryption: "passphrase", CompressionLevel: 3}

	a := newTestApp(t, cfg, "alice", "CreateDirectory", "docs")
	if err := a.ValidateVault(ctx); err != nil {
		t.Fatalf("ValidateVault() error = %v", err)
	}
	dir, err := a.CreateDirectory(ctx, "docs", "")
	if err != nil {
		t.Fatalf("CreateDirectory() error = %v", err)
	}
	version, err := a.SnapshotPush(ctx)
	if err != nil {
		t.Fatalf("SnapshotPush() error = %v", err)
	}
	if version != 1 {
		t.Errorf("SnapshotPush() version = %d, want 1", version)
	}
	closeApp(t, a)

	out := filepath.Join(t.TempDir(), "restored.db")
	pulled, err := PullSnapshot(ctx, cfg, encryption.StaticPassphrase("test-passphrase"), out)
	if err != nil {
		t.Fatalf("PullSnapshot() error = %v", err)
	}
	if pulled != version {
		t.Errorf("PullSnapshot() version = %d, want %d", pulled, version)
	}

	restored, err := database.NewSQLiteDatabase(out)
	if err != nil {
		t.Fatalf("opening restored database: %v", err)
	}
	defer restored.Close()
	got, err := restored.FindDirectory(ctx, dir.ID)
	if err != nil || got == nil || got.Name != "docs" {
		t.Errorf("restored FindDirectory() = %+v, %v", got, err)
	}

	t.Run("pull refuses to overwrite", func(t *testing.T) {
		if _, err := PullSnapshot(ctx, cfg, encryption.StaticPassphrase("test-passphrase"), out); err == nil {
			t.Error("PullSnapshot() onto an existing file expected error")
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "other.db")
		if _, err := PullSnapshot(ctx, cfg, encryption.StaticPassphrase("wrong"), other); err == nil {
			t.Error("PullSnapshot() with wrong passphrase expected error")
		}
		if _, err := os.Stat(other); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("partial output left behind: %v", err)
		}
	})

	t.Run("store behind the vault is refused", func(t *testing.T) {
		stale := *cfg
		stale.Database = config.DatabaseConfig{Type: "memory"}
		_, err := NewDrawerApp(ctx, &stale, "alice", NewOperation("List"), encryption.StaticPassphrase("x"))
		if err == nil || !strings.Contains(err.Error(), "behind") {
			t.Errorf("NewDrawerApp() error = %v, want store-behind error", err)
		}
	})
}

func TestDrawerApp_SnapshotWithoutVault(t *testing.T) {
	cfg := newTestConfig(t)
	a := newTestApp(t, cfg, "alice", "SnapshotPush")
	defer closeApp(t, a)

	if _, err := a.SnapshotPush(context.Background()); !errors.Is(err, ErrNoVault) {
		t.Errorf("SnapshotPush() error = %v, want ErrNoVault", err)
	}
	if _, err := PullSnapshot(context.Background(), cfg, nil, filepath.Join(t.TempDir(), "x.db")); !errors.Is(err, ErrNoVault) {
		t.Errorf("PullSnapshot() error = %v, want ErrNoVault", err)
	}
}

func TestGenerateSnapshotKeys(t *testing.T) {
	cfg := config.NewConfig("alice", t.TempDir()).Snapshot

	answers := []string{"one", "two"}
	mismatch := func(string) (string, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	if err := GenerateSnapshotKeys(cfg, mismatch); err == nil {
		t.Error("GenerateSnapshotKeys() with mismatched passphrases expected error")
	}

	if err := GenerateSnapshotKeys(cfg, encryption.StaticPassphrase("same")); err != nil {
		t.Fatalf("GenerateSnapshotKeys() error = %v", err)
	}
	if _, err := encryption.NewKeyPair(cfg.RecipientsFile, cfg.IdentityFile).Unlock("same"); err != nil {
		t.Errorf("Unlock() error = %v", err)
	}

	none := config.SnapshotConfig{Encryption: "none"}
	if err := GenerateSnapshotKeys(none, encryption.StaticPassphrase("x")); err == nil {
		t.Error("GenerateSnapshotKeys() for encryption none expected error")
	}
}
