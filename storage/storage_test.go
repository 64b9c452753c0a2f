package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// storeFactory builds a fresh store for each subtest.
type storeFactory func(t *testing.T) Store

func testStore(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	blocks := []Block{
		{Type: "system", Content: "You are a terse assistant."},
		{Type: "user", Content: "Summarize the report."},
	}

	t.Run("save then load round-trips", func(t *testing.T) {
		s := newStore(t)
		if err := s.Save(ctx, "summary", blocks); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := s.Load(ctx, "summary")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(got) != len(blocks) {
			t.Fatalf("loaded %d blocks, want %d", len(got), len(blocks))
		}
		for i := range blocks {
			if got[i] != blocks[i] {
				t.Errorf("block[%d] = %+v, want %+v", i, got[i], blocks[i])
			}
		}
	})

	t.Run("save replaces existing blocks", func(t *testing.T) {
		s := newStore(t)
		if err := s.Save(ctx, "p", blocks); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		replacement := []Block{{Type: "system", Content: "v2"}}
		if err := s.Save(ctx, "p", replacement); err != nil {
			t.Fatalf("second Save failed: %v", err)
		}
		got, err := s.Load(ctx, "p")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(got) != 1 || got[0].Content != "v2" {
			t.Errorf("loaded %+v, want the replacement", got)
		}
	})

	t.Run("load missing id", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list is sorted", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"zeta", "alpha", "mid"} {
			if err := s.Save(ctx, id, blocks); err != nil {
				t.Fatalf("Save(%q) failed: %v", id, err)
			}
		}
		ids, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		want := []string{"alpha", "mid", "zeta"}
		if len(ids) != len(want) {
			t.Fatalf("List = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
			}
		}
	})

	t.Run("delete removes and reports missing", func(t *testing.T) {
		s := newStore(t)
		if err := s.Save(ctx, "gone", blocks); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := s.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := s.Load(ctx, "gone"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load after delete = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete = %v, want ErrNotFound", err)
		}
	})
}

func TestMemory(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestDir(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		d, err := NewDir(filepath.Join(t.TempDir(), "prompts"))
		if err != nil {
			t.Fatalf("NewDir failed: %v", err)
		}
		return d
	})

	t.Run("rejects traversal ids", func(t *testing.T) {
		d, err := NewDir(t.TempDir())
		if err != nil {
			t.Fatalf("NewDir failed: %v", err)
		}
		for _, id := range []string{"", "../escape", "a/b", `a\b`} {
			if err := d.Save(context.Background(), id, nil); err == nil {
				t.Errorf("Save(%q) succeeded, want error", id)
			}
		}
	})
}

func TestSQLite(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "prompts.db"))
		if err != nil {
			t.Fatalf("OpenSQLite failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
