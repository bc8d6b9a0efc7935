package drawer_test

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"testing"
	"time"

	"drawer-go/internal/database"
	"drawer-go/internal/drawer"
	"drawer-go/internal/model"
	"drawer-go/internal/testutil"
)

type fixture struct {
	db    *database.SQLiteDatabase
	clock *testutil.StubClock
	dirs  *drawer.DirectoryService
	files *drawer.FileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	clock := testutil.FixedClock()
	ids := testutil.NewStubIDGenerator()
	return &fixture{
		db:    db,
		clock: clock,
		dirs:  drawer.NewDirectoryService(db, drawer.NewNopLogger(), clock, ids),
		files: drawer.NewFileService(db, drawer.NewNopLogger(), clock, ids),
	}
}

func (f *fixture) mkdir(t *testing.T, name, owner, parent string) *model.Directory {
	t.Helper()
	d, err := f.dirs.Create(context.Background(), name, owner, parent)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return d
}

func (f *fixture) addFile(t *testing.T, name, owner, dir string) *model.File {
	t.Helper()
	file, err := f.files.Register(context.Background(), name, "text/plain", 10, owner, dir)
	if err != nil {
		t.Fatalf("Register(%q) error = %v", name, err)
	}
	return file
}

// requireUntouched fails if any of dirs was modified after it was read.
func (f *fixture) requireUntouched(t *testing.T, dirs ...*model.Directory) {
	t.Helper()
	for _, d := range dirs {
		got, err := f.dirs.Get(context.Background(), d.ID)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", d.Name, err)
		}
		if !got.LastModified.Equal(d.LastModified) {
			t.Errorf("%s last_modified = %v, want %v", d.Name, got.LastModified, d.LastModified)
		}
	}
}

func collect(t *testing.T, seq iter.Seq2[*model.Directory, error]) []string {
	t.Helper()
	var names []string
	for d, err := range seq {
		if err != nil {
			t.Fatalf("listing error = %v", err)
		}
		names = append(names, d.Name)
	}
	return names
}

func TestDirectoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("root directory", func(t *testing.T) {
		f := newFixture(t)
		d, err := f.dirs.Create(ctx, "Documents", "alice", "")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if d.ID != "id-1" || !d.IsRoot() || d.Owner != "alice" {
			t.Errorf("Create() = %+v", d)
		}
		if !d.CreatedOn.Equal(d.LastModified) || !d.CreatedOn.Equal(f.clock.Now()) {
			t.Errorf("timestamps = %v / %v, want both %v", d.CreatedOn, d.LastModified, f.clock.Now())
		}

		got, err := f.dirs.Get(ctx, d.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Name != "Documents" || !got.CreatedOn.Equal(d.CreatedOn) {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("child directory", func(t *testing.T) {
		f := newFixture(t)
		root := f.mkdir(t, "root", "alice", "")
		child, err := f.dirs.Create(ctx, "child", "alice", root.ID)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if child.ParentID != root.ID {
			t.Errorf("ParentID = %q, want %q", child.ParentID, root.ID)
		}
	})

	t.Run("parent keeps its last_modified", func(t *testing.T) {
		f := newFixture(t)
		root := f.mkdir(t, "root", "alice", "")
		parent := f.mkdir(t, "parent", "alice", root.ID)
		f.clock.Advance(time.Hour)

		child := f.mkdir(t, "child", "alice", parent.ID)
		if !child.LastModified.Equal(f.clock.Now()) {
			t.Errorf("child last_modified = %v, want %v", child.LastModified, f.clock.Now())
		}
		f.requireUntouched(t, root, parent)
	})

	t.Run("name of 256 characters is accepted", func(t *testing.T) {
		f := newFixture(t)
		name := strings.Repeat("é", drawer.MaxNameLength)
		if _, err := f.dirs.Create(ctx, name, "alice", ""); err != nil {
			t.Errorf("Create() error = %v", err)
		}
	})

	errorCases := []struct {
		name    string
		dirName string
		owner   string
		parent  func(t *testing.T, f *fixture) string
		want    error
	}{
		{"empty name", "", "alice", nil, drawer.ErrValidation},
		{"257 characters", strings.Repeat("a", 257), "alice", nil, drawer.ErrValidation},
		{"empty owner", "x", "", nil, drawer.ErrValidation},
		{"unknown parent", "x", "alice", func(*testing.T, *fixture) string { return "missing" }, drawer.ErrNotFound},
		{"parent of another owner", "x", "alice", func(t *testing.T, f *fixture) string { return f.mkdir(t, "bobs", "bob", "").ID }, drawer.ErrNotFound},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			parent := ""
			if tt.parent != nil {
				parent = tt.parent(t, f)
			}
			_, err := f.dirs.Create(ctx, tt.dirName, tt.owner, parent)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
			if got := collect(t, f.dirs.ListRoots(ctx, "alice")); len(got) != 0 {
				t.Errorf("store changed after failed Create: %v", got)
			}
		})
	}
}

func TestDirectoryService_Rename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	root := f.mkdir(t, "root", "alice", "")
	sibling := f.mkdir(t, "sibling", "alice", "")

	f.clock.Advance(time.Hour)
	renamed, err := f.dirs.Rename(ctx, root.ID, "renamed")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name != "renamed" || !renamed.LastModified.Equal(f.clock.Now()) {
		t.Errorf("Rename() = %+v", renamed)
	}
	if !renamed.CreatedOn.Equal(root.CreatedOn) {
		t.Errorf("CreatedOn changed to %v", renamed.CreatedOn)
	}

	f.requireUntouched(t, sibling)

	t.Run("parent and children keep their last_modified", func(t *testing.T) {
		parent := f.mkdir(t, "parent", "alice", "")
		mid := f.mkdir(t, "mid", "alice", parent.ID)
		leaf := f.mkdir(t, "leaf", "alice", mid.ID)
		f.clock.Advance(time.Hour)

		if _, err := f.dirs.Rename(ctx, mid.ID, "middle"); err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		f.requireUntouched(t, parent, leaf)
	})

	t.Run("257 characters leaves directory unchanged", func(t *testing.T) {
		_, err := f.dirs.Rename(ctx, root.ID, strings.Repeat("n", 257))
		if !errors.Is(err, drawer.ErrValidation) {
			t.Fatalf("Rename() error = %v, want ErrValidation", err)
		}
		got, _ := f.dirs.Get(ctx, root.ID)
		if got.Name != "renamed" {
			t.Errorf("Name = %q after failed rename", got.Name)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := f.dirs.Rename(ctx, "missing", "x"); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("Rename() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDirectoryService_Move(t *testing.T) {
	ctx := context.Background()

	// root
	// ├── a
	// │   └── b
	// │       └── c
	// └── d
	setup := func(t *testing.T) (*fixture, map[string]*model.Directory) {
		f := newFixture(t)
		root := f.mkdir(t, "root", "alice", "")
		a := f.mkdir(t, "a", "alice", root.ID)
		b := f.mkdir(t, "b", "alice", a.ID)
		c := f.mkdir(t, "c", "alice", b.ID)
		d := f.mkdir(t, "d", "alice", root.ID)
		return f, map[string]*model.Directory{"root": root, "a": a, "b": b, "c": c, "d": d}
	}

	t.Run("moves under a sibling", func(t *testing.T) {
		f, dirs := setup(t)
		f.clock.Advance(time.Minute)
		moved, err := f.dirs.Move(ctx, dirs["a"].ID, dirs["d"].ID)
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if moved.ParentID != dirs["d"].ID || !moved.LastModified.Equal(f.clock.Now()) {
			t.Errorf("Move() = %+v", moved)
		}
		f.requireUntouched(t, dirs["root"], dirs["d"], dirs["b"], dirs["c"])

		path, err := f.dirs.Path(ctx, dirs["c"].ID)
		if err != nil {
			t.Fatalf("Path() error = %v", err)
		}
		var names []string
		for _, d := range path {
			names = append(names, d.Name)
		}
		if want := []string{"root", "d", "a", "b", "c"}; !slices.Equal(names, want) {
			t.Errorf("Path() = %v, want %v", names, want)
		}
	})

	t.Run("empty parent makes a root", func(t *testing.T) {
		f, dirs := setup(t)
		moved, err := f.dirs.Move(ctx, dirs["b"].ID, "")
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if !moved.IsRoot() {
			t.Errorf("ParentID = %q, want root", moved.ParentID)
		}
		roots := collect(t, f.dirs.ListRoots(ctx, "alice"))
		if want := []string{"b", "root"}; !slices.Equal(roots, want) {
			t.Errorf("ListRoots() = %v, want %v", roots, want)
		}
	})

	cycles := []struct {
		name   string
		id     string
		parent string
	}{
		{"onto itself", "a", "a"},
		{"under its child", "a", "b"},
		{"under a deep descendant", "root", "c"},
	}
	for _, tt := range cycles {
		t.Run("cycle "+tt.name, func(t *testing.T) {
			f, dirs := setup(t)
			_, err := f.dirs.Move(ctx, dirs[tt.id].ID, dirs[tt.parent].ID)
			if !errors.Is(err, drawer.ErrCycle) {
				t.Fatalf("Move() error = %v, want ErrCycle", err)
			}
			got, _ := f.dirs.Get(ctx, dirs[tt.id].ID)
			if got.ParentID != dirs[tt.id].ParentID {
				t.Errorf("ParentID changed to %q after rejected move", got.ParentID)
			}
			for _, d := range dirs {
				if _, err := f.dirs.Path(ctx, d.ID); err != nil {
					t.Errorf("Path(%s) error = %v", d.Name, err)
				}
			}
		})
	}

	t.Run("cross owner", func(t *testing.T) {
		f, dirs := setup(t)
		bobs := f.mkdir(t, "bobs", "bob", "")
		if _, err := f.dirs.Move(ctx, dirs["a"].ID, bobs.ID); !errors.Is(err, drawer.ErrOwnership) {
			t.Errorf("Move() error = %v, want ErrOwnership", err)
		}
	})

	t.Run("unknown ids", func(t *testing.T) {
		f, dirs := setup(t)
		if _, err := f.dirs.Move(ctx, "missing", ""); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("Move(missing id) error = %v, want ErrNotFound", err)
		}
		if _, err := f.dirs.Move(ctx, dirs["a"].ID, "missing"); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("Move(missing parent) error = %v, want ErrNotFound", err)
		}
	})
}

func TestDirectoryService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	root := f.mkdir(t, "root", "alice", "")
	a := f.mkdir(t, "a", "alice", root.ID)
	b := f.mkdir(t, "b", "alice", a.ID)
	keep := f.mkdir(t, "keep", "alice", root.ID)
	other := f.mkdir(t, "other", "alice", "")

	inA := f.addFile(t, "in-a.txt", "alice", a.ID)
	inB := f.addFile(t, "in-b.txt", "alice", b.ID)
	inKeep := f.addFile(t, "in-keep.txt", "alice", keep.ID)
	unfiled := f.addFile(t, "loose.txt", "alice", "")
	inOther := f.addFile(t, "other.txt", "alice", other.ID)

	f.clock.Advance(time.Hour)
	res, err := f.dirs.Delete(ctx, a.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if res.Directories != 2 || res.Files != 2 {
		t.Errorf("Delete() = %+v, want 2 directories and 2 files", res)
	}

	for _, id := range []string{a.ID, b.ID} {
		if _, err := f.dirs.Get(ctx, id); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("directory %s survived delete: %v", id, err)
		}
	}
	for _, id := range []string{inA.ID, inB.ID} {
		if _, err := f.files.Get(ctx, id); !errors.Is(err, drawer.ErrNotFound) {
			t.Errorf("file %s survived delete: %v", id, err)
		}
	}
	for _, id := range []string{root.ID, keep.ID, other.ID} {
		if _, err := f.dirs.Get(ctx, id); err != nil {
			t.Errorf("directory %s outside the subtree was removed: %v", id, err)
		}
	}
	for _, id := range []string{inKeep.ID, unfiled.ID, inOther.ID} {
		if _, err := f.files.Get(ctx, id); err != nil {
			t.Errorf("file %s outside the subtree was removed: %v", id, err)
		}
	}

	f.requireUntouched(t, root, keep, other)

	children := collect(t, f.dirs.ListChildren(ctx, root.ID))
	if want := []string{"keep"}; !slices.Equal(children, want) {
		t.Errorf("ListChildren(root) = %v, want %v", children, want)
	}

	if _, err := f.dirs.Delete(ctx, a.ID); !errors.Is(err, drawer.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDirectoryService_ListChildren(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.dirs.SetPageSize(2)

	root := f.mkdir(t, "root", "alice", "")
	for _, name := range []string{"delta", "Bravo", "alpha", "charlie", "alpha"} {
		f.mkdir(t, name, "alice", root.ID)
		f.clock.Advance(time.Second)
	}

	want := []string{"Bravo", "alpha", "alpha", "charlie", "delta"}

	t.Run("ordered by name then creation", func(t *testing.T) {
		if got := collect(t, f.dirs.ListChildren(ctx, root.ID)); !slices.Equal(got, want) {
			t.Errorf("ListChildren() = %v, want %v", got, want)
		}

		var alphas []*model.Directory
		for d, err := range f.dirs.ListChildren(ctx, root.ID) {
			if err != nil {
				t.Fatalf("ListChildren() error = %v", err)
			}
			if d.Name == "alpha" {
				alphas = append(alphas, d)
			}
		}
		if len(alphas) != 2 || !alphas[0].CreatedOn.Before(alphas[1].CreatedOn) {
			t.Errorf("duplicate names not ordered by created_on")
		}
	})

	t.Run("restartable", func(t *testing.T) {
		seq := f.dirs.ListChildren(ctx, root.ID)
		for range seq {
			break
		}
		if got := collect(t, seq); !slices.Equal(got, want) {
			t.Errorf("second range = %v, want %v", got, want)
		}
	})

	t.Run("lazy", func(t *testing.T) {
		seq := f.dirs.ListChildren(ctx, root.ID)
		f.mkdir(t, "echo", "alice", root.ID)
		got := collect(t, seq)
		if got[len(got)-1] != "echo" {
			t.Errorf("ListChildren() = %v, want a directory created after the call", got)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		var gotErr error
		for _, err := range f.dirs.ListChildren(ctx, "missing") {
			gotErr = err
		}
		if !errors.Is(gotErr, drawer.ErrNotFound) {
			t.Errorf("ListChildren(missing) error = %v, want ErrNotFound", gotErr)
		}
	})

	t.Run("roots are scoped to owner", func(t *testing.T) {
		f.mkdir(t, "bob-root", "bob", "")
		if got := collect(t, f.dirs.ListRoots(ctx, "alice")); !slices.Equal(got, []string{"root"}) {
			t.Errorf("ListRoots(alice) = %v", got)
		}
		if got := collect(t, f.dirs.ListRoots(ctx, "bob")); !slices.Equal(got, []string{"bob-root"}) {
			t.Errorf("ListRoots(bob) = %v", got)
		}
	})
}

func TestDirectoryService_Path(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	root := f.mkdir(t, "root", "alice", "")

	path, err := f.dirs.Path(ctx, root.ID)
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if len(path) != 1 || path[0].ID != root.ID {
		t.Errorf("Path(root) = %v", path)
	}

	if _, err := f.dirs.Path(ctx, "missing"); !errors.Is(err, drawer.ErrNotFound) {
		t.Errorf("Path(missing) error = %v, want ErrNotFound", err)
	}
}
