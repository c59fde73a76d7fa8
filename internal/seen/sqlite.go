package seen

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS replied_messages (
	message_id TEXT PRIMARY KEY,
	replied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists the replied-to set in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath and
// ensures the schema exists. Parent directories are created as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Contains(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM replied_messages WHERE message_id = ?)",
		messageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query replied messages: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStore) Add(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO replied_messages (message_id) VALUES (?)",
		messageID,
	)
	if err != nil {
		return fmt.Errorf("failed to record replied message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM replied_messages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count replied messages: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
