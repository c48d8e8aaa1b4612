package db

import (
	"context"
	"fmt"
)

var schema = []struct {
	name string
	sql  string
}{
	{"feedbacks", `
	CREATE TABLE IF NOT EXISTS feedbacks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		username TEXT,
		category TEXT NOT NULL,
		content TEXT NOT NULL,
		is_anonymous INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		echo_message_id TEXT,
		reply_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);`},
	{"feedbacks category index", `
	CREATE INDEX IF NOT EXISTS idx_feedbacks_category_created
		ON feedbacks (category, created_at);`},
	{"feedback_media", `
	CREATE TABLE IF NOT EXISTS feedback_media (
		feedback_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		file_ref TEXT NOT NULL,
		kind TEXT NOT NULL,
		filename TEXT,
		PRIMARY KEY (feedback_id, position)
	);`},
	{"replies", `
	CREATE TABLE IF NOT EXISTS replies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		feedback_id INTEGER NOT NULL,
		moderator_id TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`},
	{"rate_limits", `
	CREATE TABLE IF NOT EXISTS rate_limits (
		user_id TEXT PRIMARY KEY,
		last_feedback INTEGER NOT NULL
	);`},
}

// createTables creates the tables the store needs if they don't exist.
func (s *Store) createTables(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.DB.ExecContext(ctx, stmt.sql); err != nil {
			return fmt.Errorf("db: create %s: %w", stmt.name, err)
		}
	}
	return nil
}
