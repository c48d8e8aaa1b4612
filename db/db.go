package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const dbDriver = "sqlite3"

// Store is the sqlite backed feedback store.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("db: create dir: %w", err)
		}
	}

	conn, err := sql.Open(dbDriver, path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory:
	// databases from splitting per connection.
	conn.SetMaxOpenConns(1)

	s := &Store{DB: conn}
	if err := s.createTables(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
