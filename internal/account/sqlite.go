package account

import (
	"database/sql"
	"fmt"

	"github.com/geodex/geodex/internal/storage"
)

// SQLiteStore persists identities in a SQLCipher-encrypted database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the identity database at
// path. With an empty passphrase secrets are stored unencrypted.
func OpenSQLiteStore(path, passphrase string) (*SQLiteStore, error) {
	db, err := storage.Open(path, passphrase)
	if err != nil {
		return nil, err
	}

	schema := `
CREATE TABLE IF NOT EXISTS identities (
    provider   TEXT PRIMARY KEY,
    username   TEXT NOT NULL,
    secret     TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize identity schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the identity for a provider.
func (s *SQLiteStore) Get(provider string) (Identity, error) {
	var id Identity
	err := s.db.QueryRow(
		`SELECT username, secret FROM identities WHERE provider = ?`, provider,
	).Scan(&id.User, &id.Secret)
	if err == sql.ErrNoRows {
		return Identity{}, fmt.Errorf("%w: %s", ErrNotFound, provider)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read identity: %w", err)
	}
	return id, nil
}

// Set stores or replaces the identity for a provider.
func (s *SQLiteStore) Set(provider string, id Identity) error {
	_, err := s.db.Exec(`
		INSERT INTO identities (provider, username, secret, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(provider) DO UPDATE SET
		    username = excluded.username,
		    secret = excluded.secret,
		    updated_at = excluded.updated_at
	`, provider, id.User, id.Secret)
	if err != nil {
		return fmt.Errorf("failed to store identity: %w", err)
	}
	return nil
}

// Delete removes the identity for a provider.
func (s *SQLiteStore) Delete(provider string) error {
	_, err := s.db.Exec(`DELETE FROM identities WHERE provider = ?`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}
