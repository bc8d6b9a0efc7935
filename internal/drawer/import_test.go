package drawer_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"drawer-go/internal/drawer"
	"drawer-go/internal/testutil"
)

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, ignore ...string) (*fixture, *testutil.MockFilesystemManager, *drawer.Importer) {
		t.Helper()
		f := newFixture(t)
		fsmgr := testutil.NewMockFilesystemManager(ignore...)
		fsmgr.AddFile("/home/alice/photos/cat.png", []byte("\x89PNG\r\n\x1a\n0000"))
		fsmgr.AddFile("/home/alice/photos/notes.txt", []byte("remember the milk"))
		fsmgr.AddFile("/home/alice/photos/2024/trip.json", []byte(`{"where":"coast"}`))
		fsmgr.AddFile("/home/alice/photos/2024/.DS_Store", []byte{0, 0, 0, 1})
		fsmgr.AddDirectory("/home/alice/photos/empty")
		return f, fsmgr, drawer.NewImporter(f.dirs, f.files, fsmgr, drawer.NewNopLogger())
	}

	t.Run("mirrors the tree", func(t *testing.T) {
		f, fsmgr, im := setup(t, ".DS_Store")
		root, _ := fsmgr.Resolve("/home/alice/photos")

		res, err := im.Import(ctx, "alice", root, "")
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if res.Directories != 3 || res.Files != 3 || res.Skipped != 1 {
			t.Errorf("Import() = %+v, want 3 directories, 3 files, 1 skipped", res)
		}
		if res.Root.Name != "photos" || !res.Root.IsRoot() {
			t.Errorf("Root = %+v", res.Root)
		}

		children := collect(t, f.dirs.ListChildren(ctx, res.Root.ID))
		if want := []string{"2024", "empty"}; !slices.Equal(children, want) {
			t.Errorf("children = %v, want %v", children, want)
		}

		files, err := f.files.ListInDirectory(ctx, res.Root.ID)
		if err != nil {
			t.Fatalf("ListInDirectory() error = %v", err)
		}
		types := map[string]string{}
		for _, file := range files {
			types[file.Name] = file.Type
			if file.Owner != "alice" {
				t.Errorf("file %s owner = %q", file.Name, file.Owner)
			}
		}
		if types["cat.png"] != "image/png" {
			t.Errorf("cat.png type = %q, want image/png", types["cat.png"])
		}
		if !strings.HasPrefix(types["notes.txt"], "text/plain") {
			t.Errorf("notes.txt type = %q, want text/plain", types["notes.txt"])
		}
	})

	t.Run("under an existing parent", func(t *testing.T) {
		f, fsmgr, im := setup(t)
		parent := f.mkdir(t, "imports", "alice", "")
		root, _ := fsmgr.Resolve("/home/alice/photos/2024")

		res, err := im.Import(ctx, "alice", root, parent.ID)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if res.Root.ParentID != parent.ID || res.Files != 2 {
			t.Errorf("Import() = %+v", res)
		}
	})

	t.Run("parent of another owner", func(t *testing.T) {
		f, fsmgr, im := setup(t)
		bobs := f.mkdir(t, "bobs", "bob", "")
		root, _ := fsmgr.Resolve("/home/alice/photos")

		if _, err := im.Import(ctx, "alice", root, bobs.ID); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("Import() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("file path is rejected", func(t *testing.T) {
		_, fsmgr, im := setup(t)
		p, _ := fsmgr.Resolve("/home/alice/photos/notes.txt")
		if _, err := im.Import(ctx, "alice", p, ""); err == nil {
			t.Error("Import(file) expected error")
		}
	})

	t.Run("read failure stops the walk", func(t *testing.T) {
		_, fsmgr, im := setup(t)
		fsmgr.OpenErr = errors.New("permission denied")
		root, _ := fsmgr.Resolve("/home/alice/photos")
		if _, err := im.Import(ctx, "alice", root, ""); err == nil {
			t.Error("Import() expected error")
		}
	})
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"page.html", []byte("<!DOCTYPE html><html></html>"), "text/html; charset=utf-8"},
		{"img.gif", []byte("GIF89a......"), "image/gif"},
		{"data.json", []byte(`{"a":1}`), "application/json"},
		{"blob", []byte{0x00, 0x01, 0x02}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := drawer.DetectType(tt.name, tt.head); got != tt.want {
				t.Errorf("DetectType() = %q, want %q", got, tt.want)
			}
		})
	}
}
