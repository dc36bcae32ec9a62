package auth

import (
	"context"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCredential(username string) Credential {
	return Credential{
		ID:        "id-" + username,
		Username:  username,
		Salt:      []byte("salt-" + username),
		Hash:      []byte("hash-" + username),
		CreatedAt: time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC),
	}
}

func TestSQLiteStore_UpsertLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	if err := s.Upsert(ctx, testCredential("alice")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	cred, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if cred == nil {
		t.Fatal("Lookup() = nil for stored credential")
	}
	if cred.Username != "alice" || string(cred.Salt) != "salt-alice" || string(cred.Hash) != "hash-alice" {
		t.Errorf("Lookup() = %+v, fields do not round-trip", cred)
	}
	if !cred.CreatedAt.Equal(time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v, want stored timestamp", cred.CreatedAt)
	}
}

func TestSQLiteStore_LookupUnknown(t *testing.T) {
	s := newTestSQLiteStore(t)
	cred, err := s.Lookup(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if cred != nil {
		t.Errorf("Lookup(unknown) = %+v, want nil", cred)
	}
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	if err := s.Upsert(ctx, testCredential("alice")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	updated := testCredential("alice")
	updated.Hash = []byte("new-hash")
	if err := s.Upsert(ctx, updated); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	cred, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if string(cred.Hash) != "new-hash" {
		t.Errorf("Hash = %q after upsert, want new-hash", cred.Hash)
	}

	creds, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(creds) != 1 {
		t.Errorf("List() returned %d rows after upsert of same username, want 1", len(creds))
	}
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	for _, u := range []string{"carol", "alice", "bob"} {
		if err := s.Upsert(ctx, testCredential(u)); err != nil {
			t.Fatalf("Upsert(%q) error = %v", u, err)
		}
	}

	creds, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(creds) != 3 {
		t.Fatalf("List() returned %d rows, want 3", len(creds))
	}
	if creds[0].Username != "alice" {
		t.Errorf("List() first row = %q, want alice", creds[0].Username)
	}

	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if cred, _ := s.Lookup(ctx, "alice"); cred != nil {
		t.Error("Lookup() found credential after Delete")
	}

	// Deleting an unknown user is a no-op.
	if err := s.Delete(ctx, "nobody"); err != nil {
		t.Errorf("Delete(unknown) error = %v", err)
	}
}
