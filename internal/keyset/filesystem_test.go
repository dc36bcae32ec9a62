package keyset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemStore(t *testing.T) {
	t.Run("load before store", func(t *testing.T) {
		s := NewFilesystemStore(filepath.Join(t.TempDir(), "keyset.sealed"))
		blob, ok, err := s.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if ok || blob != nil {
			t.Errorf("Load() = (%v, %v) on empty store, want (nil, false)", blob, ok)
		}
	})

	t.Run("store then load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keys", "keyset.sealed")
		s := NewFilesystemStore(path)

		want := []byte("sealed keyset bytes")
		if err := s.Store(want); err != nil {
			t.Fatalf("Store() error = %v", err)
		}

		got, ok, err := s.Load()
		if err != nil || !ok {
			t.Fatalf("Load() = ok=%v, err=%v", ok, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Load() = %q, want %q", got, want)
		}
	})

	t.Run("store replaces previous blob", func(t *testing.T) {
		s := NewFilesystemStore(filepath.Join(t.TempDir(), "keyset.sealed"))
		if err := s.Store([]byte("old")); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if err := s.Store([]byte("new")); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		got, _, err := s.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if string(got) != "new" {
			t.Errorf("Load() = %q, want %q", got, "new")
		}
	})

	t.Run("restricted file mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keyset.sealed")
		if err := NewFilesystemStore(path).Store([]byte("blob")); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if mode := info.Mode().Perm(); mode != 0600 {
			t.Errorf("keyset file mode = %o, want 0600", mode)
		}
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		if err := NewFilesystemStore(filepath.Join(dir, "keyset.sealed")).Store([]byte("blob")); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("directory holds %d entries after Store, want 1", len(entries))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	if _, ok, err := s.Load(); ok || err != nil {
		t.Fatalf("Load() on empty store = ok=%v, err=%v", ok, err)
	}

	if err := s.Store([]byte("blob")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("Load() = ok=%v, err=%v", ok, err)
	}
	if string(got) != "blob" {
		t.Errorf("Load() = %q, want %q", got, "blob")
	}

	// Mutating the returned slice must not affect the stored blob.
	got[0] = 'x'
	again, _, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != "blob" {
		t.Errorf("stored blob mutated through Load result: %q", again)
	}
}
