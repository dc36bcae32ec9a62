package container

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"sealfs-go/internal/sealfs"
	"sealfs-go/internal/testutil"
)

func newTestAccessor(t *testing.T, suffixed bool) *Accessor {
	t.Helper()
	a, err := NewAccessor(testutil.NewTestCipher(t), 16, suffixed, testutil.NewRecordingLogger())
	if err != nil {
		t.Fatalf("NewAccessor() error = %v", err)
	}
	return a
}

func TestNewAccessor_ZeroChunkSize(t *testing.T) {
	_, err := NewAccessor(testutil.NewTestCipher(t), 0, false, testutil.NewRecordingLogger())
	if !errors.Is(err, sealfs.ErrArgument) {
		t.Errorf("NewAccessor(chunk size 0) error = %v, want ErrArgument", err)
	}
}

func TestAccessor_PathMapping(t *testing.T) {
	t.Run("transparent", func(t *testing.T) {
		a := newTestAccessor(t, false)
		if got := a.PhysicalPath("/srv/alice/report.pdf"); got != "/srv/alice/report.pdf" {
			t.Errorf("PhysicalPath() = %q, want unchanged", got)
		}
		if got := a.LogicalPath("/srv/alice/report.pdf"); got != "/srv/alice/report.pdf" {
			t.Errorf("LogicalPath() = %q, want unchanged", got)
		}
	})

	t.Run("suffixed", func(t *testing.T) {
		a := newTestAccessor(t, true)
		if got := a.PhysicalPath("/srv/alice/report.pdf"); got != "/srv/alice/report.pdf.enc" {
			t.Errorf("PhysicalPath() = %q, want .enc appended", got)
		}
		if got := a.LogicalPath("/srv/alice/report.pdf.enc"); got != "/srv/alice/report.pdf" {
			t.Errorf("LogicalPath() = %q, want .enc stripped", got)
		}
		// Round trip.
		if got := a.LogicalPath(a.PhysicalPath("x.txt")); got != "x.txt" {
			t.Errorf("LogicalPath(PhysicalPath()) = %q, want x.txt", got)
		}
	})
}

func TestAccessor_WriteReadRoundTrip(t *testing.T) {
	for _, suffixed := range []bool{false, true} {
		name := "transparent"
		if suffixed {
			name = "suffixed"
		}
		t.Run(name, func(t *testing.T) {
			a := newTestAccessor(t, suffixed)
			logical := filepath.Join(t.TempDir(), "notes.txt")
			payload := testPattern(100)

			w, err := a.OpenWrite(logical)
			if err != nil {
				t.Fatalf("OpenWrite() error = %v", err)
			}
			if _, err := w.Write(payload); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			// The physical file is where the mode says it is.
			if _, err := os.Stat(a.PhysicalPath(logical)); err != nil {
				t.Fatalf("container missing at physical path: %v", err)
			}
			if suffixed {
				if _, err := os.Stat(logical); !os.IsNotExist(err) {
					t.Errorf("suffixed mode left a file at the logical path")
				}
			}

			r, err := a.OpenRead(logical)
			if err != nil {
				t.Fatalf("OpenRead() error = %v", err)
			}
			defer r.Close()

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(got) != len(payload) {
				t.Fatalf("read %d bytes, want %d", len(got), len(payload))
			}
		})
	}
}

func TestAccessor_NameBindsContainer(t *testing.T) {
	// A container written under one logical path cannot be read under
	// another, even if the bytes are moved there.
	a := newTestAccessor(t, false)
	dir := t.TempDir()
	original := filepath.Join(dir, "original.txt")
	renamed := filepath.Join(dir, "renamed.txt")

	w, err := a.OpenWrite(original)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(testPattern(20)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if err := os.Rename(original, renamed); err != nil {
		t.Fatal(err)
	}

	r, err := a.OpenRead(renamed)
	if err != nil {
		t.Fatalf("OpenRead() error = %v", err)
	}
	defer r.Close()
	if _, err := r.Read(make([]byte, 4)); !errors.Is(err, sealfs.ErrCrypto) {
		t.Errorf("Read(renamed container) error = %v, want ErrCrypto", err)
	}

	// OpenReadAs with the original name recovers the content.
	r2, err := a.OpenReadAs(renamed, original)
	if err != nil {
		t.Fatalf("OpenReadAs() error = %v", err)
	}
	defer r2.Close()
	if _, err := r2.Read(make([]byte, 4)); err != nil {
		t.Errorf("Read(with original name) error = %v", err)
	}
}

func TestAccessor_ResolveMode(t *testing.T) {
	a := newTestAccessor(t, false)
	existing := filepath.Join(t.TempDir(), "existing.txt")
	if err := os.WriteFile(existing, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "missing.txt")

	tests := []struct {
		name string
		path string
		mode sealfs.OpenMode
		want sealfs.OpenMode
	}{
		{name: "read passes through", path: missing, mode: sealfs.ModeRead, want: sealfs.ModeRead},
		{name: "write passes through", path: existing, mode: sealfs.ModeWrite, want: sealfs.ModeWrite},
		{name: "read-write over existing file", path: existing, mode: sealfs.ModeReadWrite, want: sealfs.ModeRead},
		{name: "read-write over missing file", path: missing, mode: sealfs.ModeReadWrite, want: sealfs.ModeWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ResolveMode(tt.path, tt.mode)
			if err != nil {
				t.Fatalf("ResolveMode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveMode() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("suffixed mode stats the physical file", func(t *testing.T) {
		suffixed := newTestAccessor(t, true)
		dir := t.TempDir()
		logical := filepath.Join(dir, "doc.txt")
		if err := os.WriteFile(logical+EncSuffix, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		got, err := suffixed.ResolveMode(logical, sealfs.ModeReadWrite)
		if err != nil {
			t.Fatalf("ResolveMode() error = %v", err)
		}
		if got != sealfs.ModeRead {
			t.Errorf("ResolveMode() = %v, want ModeRead (physical .enc exists)", got)
		}
	})
}
