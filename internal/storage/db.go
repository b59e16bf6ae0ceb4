// Package storage opens the SQLite databases geodex persists its state
// in. Databases are encrypted at rest via SQLCipher when a passphrase
// is configured; an empty passphrase opens them in plain SQLite mode.
package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

// Open opens (creating if needed) a SQLite database at path. A wrong
// passphrase surfaces as an error on the first read.
func Open(path, passphrase string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", path)
	if passphrase != "" {
		dsn += "&_pragma_key=" + url.QueryEscape(passphrase)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Forces key verification on encrypted databases.
	if _, err := db.Exec("SELECT count(*) FROM sqlite_master"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read database (wrong passphrase?): %w", err)
	}

	return db, nil
}
