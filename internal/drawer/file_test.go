package drawer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"drawer-go/internal/drawer"
)

func TestFileService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("filed and unfiled", func(t *testing.T) {
		f := newFixture(t)
		dir := f.mkdir(t, "docs", "alice", "")

		filed, err := f.files.Register(ctx, "report.pdf", "application/pdf", 2048, "alice", dir.ID)
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if filed.DirectoryID != dir.ID || !filed.UploadedOn.Equal(f.clock.Now()) {
			t.Errorf("Register() = %+v", filed)
		}

		loose, err := f.files.Register(ctx, "loose.bin", "application/octet-stream", 0, "alice", "")
		if err != nil {
			t.Fatalf("Register(unfiled) error = %v", err)
		}
		if !loose.IsUnfiled() {
			t.Errorf("DirectoryID = %q, want unfiled", loose.DirectoryID)
		}

		got, err := f.files.Get(ctx, filed.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Size != 2048 || got.Type != "application/pdf" || got.Owner != "alice" {
			t.Errorf("Get() = %+v", got)
		}
		if got := f.files.HumanSize(got); got != "2.00 KB" {
			t.Errorf("HumanSize() = %q, want %q", got, "2.00 KB")
		}
	})

	tests := []struct {
		name     string
		fileName string
		mimeType string
		size     int64
		owner    string
		dir      func(t *testing.T, f *fixture) string
		want     error
	}{
		{"empty name", "", "text/plain", 1, "alice", nil, drawer.ErrValidation},
		{"257 character name", strings.Repeat("x", 257), "text/plain", 1, "alice", nil, drawer.ErrValidation},
		{"76 character type", "a", strings.Repeat("t", 76), 1, "alice", nil, drawer.ErrValidation},
		{"negative size", "a", "text/plain", -1, "alice", nil, drawer.ErrValidation},
		{"missing owner", "a", "text/plain", 1, "", nil, drawer.ErrValidation},
		{"unknown directory", "a", "text/plain", 1, "alice", func(*testing.T, *fixture) string { return "missing" }, drawer.ErrNotFound},
		{"directory of another owner", "a", "text/plain", 1, "alice", func(t *testing.T, f *fixture) string {
			return f.mkdir(t, "bobs", "bob", "").ID
		}, drawer.ErrOwnership},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			dir := ""
			if tt.dir != nil {
				dir = tt.dir(t, f)
			}
			_, err := f.files.Register(ctx, tt.fileName, tt.mimeType, tt.size, tt.owner, dir)
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
			files, err := f.files.ListUnfiled(ctx, "alice")
			if err != nil || len(files) != 0 {
				t.Errorf("store changed after failed Register: %d files, %v", len(files), err)
			}
		})
	}

	t.Run("75 character type is accepted", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.files.Register(ctx, "a", strings.Repeat("t", drawer.MaxTypeLength), 1, "alice", ""); err != nil {
			t.Errorf("Register() error = %v", err)
		}
	})
}

func TestFileService_Move(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "docs", "alice", "")
	pics := f.mkdir(t, "pics", "alice", "")
	bobs := f.mkdir(t, "bobs", "bob", "")
	file := f.addFile(t, "a.txt", "alice", docs.ID)

	t.Run("to another directory", func(t *testing.T) {
		moved, err := f.files.Move(ctx, file.ID, pics.ID)
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if moved.DirectoryID != pics.ID {
			t.Errorf("DirectoryID = %q, want %q", moved.DirectoryID, pics.ID)
		}
		inDocs, _ := f.files.ListInDirectory(ctx, docs.ID)
		inPics, _ := f.files.ListInDirectory(ctx, pics.ID)
		if len(inDocs) != 0 || len(inPics) != 1 {
			t.Errorf("docs has %d files, pics has %d", len(inDocs), len(inPics))
		}
	})

	t.Run("detach leaves file unfiled", func(t *testing.T) {
		moved, err := f.files.Move(ctx, file.ID, "")
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if !moved.IsUnfiled() {
			t.Errorf("DirectoryID = %q, want unfiled", moved.DirectoryID)
		}
		got, err := f.files.Get(ctx, file.ID)
		if err != nil || !got.IsUnfiled() {
			t.Errorf("Get() = %+v, %v; want existing unfiled file", got, err)
		}
		unfiled, _ := f.files.ListUnfiled(ctx, "alice")
		if len(unfiled) != 1 || unfiled[0].ID != file.ID {
			t.Errorf("ListUnfiled() = %v", unfiled)
		}
	})

	t.Run("cross owner", func(t *testing.T) {
		if _, err := f.files.Move(ctx, file.ID, bobs.ID); !errors.Is(err, drawer.ErrOwnership) {
			t.Errorf("Move() error = %v, want ErrOwnership", err)
		}
	})

	t.Run("unknown ids", func(t *testing.T) {
		if _, err := f.files.Move(ctx, "missing", ""); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("Move(missing file) error = %v, want ErrNotFound", err)
		}
		if _, err := f.files.Move(ctx, file.ID, "missing"); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("Move(missing directory) error = %v, want ErrNotFound", err)
		}
	})
}

func TestFileService_RenameDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file := f.addFile(t, "draft.txt", "alice", "")

	renamed, err := f.files.Rename(ctx, file.ID, "final.txt")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name != "final.txt" {
		t.Errorf("Name = %q, want %q", renamed.Name, "final.txt")
	}
	if _, err := f.files.Rename(ctx, file.ID, ""); !errors.Is(err, drawer.ErrValidation) {
		t.Errorf("Rename(\"\") error = %v, want ErrValidation", err)
	}
	if _, err := f.files.Rename(ctx, "missing", "x"); !errors.Is(err, drawer.ErrNotFound) {
		t.Errorf("Rename(missing) error = %v, want ErrNotFound", err)
	}

	if err := f.files.Delete(ctx, file.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.files.Get(ctx, file.ID); !errors.Is(err, drawer.ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := f.files.Delete(ctx, file.ID); !errors.Is(err, drawer.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFileService_ListInDirectory_Missing(t *testing.T) {
	f := newFixture(t)
	if _, err := f.files.ListInDirectory(context.Background(), "missing"); !errors.Is(err, drawer.ErrNotFound) {
		t.Errorf("ListInDirectory() error = %v, want ErrNotFound", err)
	}
}
