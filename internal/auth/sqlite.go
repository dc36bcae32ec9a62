package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sealfs-go/internal/auth/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore is a SQLite-backed credential store.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the credential database at path and
// applies pending schema migrations. path can be ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := openConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating credential database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// openConnection opens and configures a SQLite connection.
func openConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite ships with foreign keys off for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Upsert inserts or replaces the credential for cred.Username.
func (s *SQLiteStore) Upsert(ctx context.Context, cred Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, username, salt, hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			salt = excluded.salt,
			hash = excluded.hash,
			created_at = excluded.created_at`,
		cred.ID, cred.Username, cred.Salt, cred.Hash, cred.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}

// Lookup returns the credential for username, or nil when absent.
func (s *SQLiteStore) Lookup(ctx context.Context, username string) (*Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, salt, hash, created_at
		FROM credentials WHERE username = ?`, username)

	var cred Credential
	err := row.Scan(&cred.ID, &cred.Username, &cred.Salt, &cred.Hash, &cred.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return &cred, nil
}

// List returns all credentials ordered by username.
func (s *SQLiteStore) List(ctx context.Context) ([]*Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, salt, hash, created_at
		FROM credentials ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	var creds []*Credential
	for rows.Next() {
		var cred Credential
		if err := rows.Scan(&cred.ID, &cred.Username, &cred.Salt, &cred.Hash, &cred.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		creds = append(creds, &cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credential for username. Unknown usernames are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, username string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE username = ?`, username); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
