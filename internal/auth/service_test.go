package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"sealfs-go/internal/sealfs"
	"sealfs-go/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), testutil.NewRecordingLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
}

func TestService_RegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Register(ctx, "alice", "long enough password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		ok, err := svc.Verify(ctx, "alice", "long enough password")
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if !ok {
			t.Error("Verify() = false for correct password")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := svc.Verify(ctx, "alice", "not the password")
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if ok {
			t.Error("Verify() = true for wrong password")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		ok, err := svc.Verify(ctx, "mallory", "long enough password")
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if ok {
			t.Error("Verify() = true for unknown user")
		}
	})
}

func TestService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "short password", username: "bob", password: "seven77"},
		{name: "empty password", username: "bob", password: ""},
		{name: "empty username", username: "", password: "long enough password"},
		{name: "username with slash", username: "../bob", password: "long enough password"},
		{name: "username with space", username: "bo b", password: "long enough password"},
		{name: "dots only username", username: "..", password: "long enough password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Register(ctx, tt.username, tt.password); !errors.Is(err, sealfs.ErrArgument) {
				t.Errorf("Register(%q, %q) error = %v, want ErrArgument", tt.username, tt.password, err)
			}
		})
	}
}

func TestService_RegisterReplacesPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Register(ctx, "alice", "first password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := svc.Register(ctx, "alice", "second password"); err != nil {
		t.Fatalf("re-Register() error = %v", err)
	}

	if ok, _ := svc.Verify(ctx, "alice", "first password"); ok {
		t.Error("Verify() accepted the replaced password")
	}
	if ok, _ := svc.Verify(ctx, "alice", "second password"); !ok {
		t.Error("Verify() rejected the current password")
	}
}

func TestService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for _, u := range []string{"carol", "alice", "bob"} {
		if err := svc.Register(ctx, u, "long enough password"); err != nil {
			t.Fatalf("Register(%q) error = %v", u, err)
		}
	}

	creds, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(creds) != 3 {
		t.Fatalf("List() returned %d credentials, want 3", len(creds))
	}
	if creds[0].Username != "alice" || creds[2].Username != "carol" {
		t.Errorf("List() order = [%s %s %s], want alphabetical", creds[0].Username, creds[1].Username, creds[2].Username)
	}

	if err := svc.Delete(ctx, "bob"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := svc.Verify(ctx, "bob", "long enough password"); ok {
		t.Error("Verify() = true after Delete")
	}
}

func TestHomeDir(t *testing.T) {
	got := HomeDir("/srv/storage", "alice")
	want := filepath.Join("/srv/storage", "alice")
	if got != want {
		t.Errorf("HomeDir() = %q, want %q", got, want)
	}
}
