package keyset

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"sealfs-go/internal/aead"
	"sealfs-go/internal/sealfs"
	"sealfs-go/internal/testutil"
)

func masterCipher(t *testing.T, key []byte) sealfs.Cipher {
	t.Helper()
	c, err := aead.NewGCM(key)
	if err != nil {
		t.Fatalf("NewGCM() error = %v", err)
	}
	return c
}

func TestVault_LoadOrCreate(t *testing.T) {
	master := masterCipher(t, testutil.TestKey())

	t.Run("creates on first run", func(t *testing.T) {
		store := NewMemoryStore()
		v := NewVault(store, testutil.NewRecordingLogger())

		if _, err := v.LoadOrCreate(master); err != nil {
			t.Fatalf("LoadOrCreate() error = %v", err)
		}

		blob, ok, err := store.Load()
		if err != nil || !ok {
			t.Fatalf("store.Load() = ok=%v, err=%v after create", ok, err)
		}
		// The stored blob is sealed: unwrapping it under the master key must
		// yield a parseable keyset, and it must not contain the raw keyset.
		plain, err := master.Open(blob, nil)
		if err != nil {
			t.Fatalf("Open(stored blob) error = %v", err)
		}
		if _, err := Unmarshal(plain); err != nil {
			t.Errorf("Unmarshal(unsealed blob) error = %v", err)
		}
	})

	t.Run("reload yields interoperable cipher", func(t *testing.T) {
		store := NewMemoryStore()

		first, err := NewVault(store, testutil.NewRecordingLogger()).LoadOrCreate(master)
		if err != nil {
			t.Fatalf("first LoadOrCreate() error = %v", err)
		}
		second, err := NewVault(store, testutil.NewRecordingLogger()).LoadOrCreate(master)
		if err != nil {
			t.Fatalf("second LoadOrCreate() error = %v", err)
		}

		sealed, err := first.Seal([]byte("chunk data"), []byte("f:chunk:0"))
		if err != nil {
			t.Fatalf("Seal() error = %v", err)
		}
		opened, err := second.Open(sealed, []byte("f:chunk:0"))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if !bytes.Equal(opened, []byte("chunk data")) {
			t.Errorf("Open() = %q, want %q", opened, "chunk data")
		}
	})

	t.Run("wrong master key", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := NewVault(store, testutil.NewRecordingLogger()).LoadOrCreate(master); err != nil {
			t.Fatalf("LoadOrCreate() error = %v", err)
		}

		other := masterCipher(t, bytes.Repeat([]byte{0x77}, aead.KeySize))
		_, err := NewVault(store, testutil.NewRecordingLogger()).LoadOrCreate(other)
		if !errors.Is(err, sealfs.ErrMasterKey) {
			t.Errorf("LoadOrCreate(wrong master) error = %v, want ErrMasterKey", err)
		}
	})

	t.Run("tampered blob", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := NewVault(store, testutil.NewRecordingLogger()).LoadOrCreate(master); err != nil {
			t.Fatalf("LoadOrCreate() error = %v", err)
		}

		blob, _, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		blob[len(blob)/2] ^= 0x01
		if err := store.Store(blob); err != nil {
			t.Fatal(err)
		}

		_, err = NewVault(store, testutil.NewRecordingLogger()).LoadOrCreate(master)
		if !errors.Is(err, sealfs.ErrMasterKey) {
			t.Errorf("LoadOrCreate(tampered blob) error = %v, want ErrMasterKey", err)
		}
	})
}

func TestVault_FilesystemRoundTrip(t *testing.T) {
	// Scenario: create a vault at path K, reopen with the same master key,
	// and confirm a chunk sealed by the first handle opens with the second.
	master := masterCipher(t, testutil.TestKey())
	path := filepath.Join(t.TempDir(), "keys", "keyset.sealed")

	first, err := NewVault(NewFilesystemStore(path), testutil.NewRecordingLogger()).LoadOrCreate(master)
	if err != nil {
		t.Fatalf("first LoadOrCreate() error = %v", err)
	}
	second, err := NewVault(NewFilesystemStore(path), testutil.NewRecordingLogger()).LoadOrCreate(master)
	if err != nil {
		t.Fatalf("second LoadOrCreate() error = %v", err)
	}

	sealed, err := first.Seal([]byte("shared secret"), nil)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	opened, err := second.Open(sealed, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, []byte("shared secret")) {
		t.Errorf("Open() = %q, want %q", opened, "shared secret")
	}

	other := masterCipher(t, bytes.Repeat([]byte{0x55}, aead.KeySize))
	if _, err := NewVault(NewFilesystemStore(path), testutil.NewRecordingLogger()).LoadOrCreate(other); !errors.Is(err, sealfs.ErrMasterKey) {
		t.Errorf("LoadOrCreate(different master) error = %v, want ErrMasterKey", err)
	}
}
