package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// LastAccepted returns the last accepted submission time of a user.
func (s *Store) LastAccepted(ctx context.Context, userID string) (time.Time, bool, error) {
	var nanos int64
	err := s.DB.QueryRowContext(ctx, "SELECT last_feedback FROM rate_limits WHERE user_id = ?", userID).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(0, nanos), true, nil
}

// SetLastAccepted records at for userID. The stored value never moves backwards.
func (s *Store) SetLastAccepted(ctx context.Context, userID string, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO rate_limits (user_id, last_feedback) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET last_feedback = excluded.last_feedback
		WHERE excluded.last_feedback > rate_limits.last_feedback`, userID, at.UnixNano())
	return err
}
