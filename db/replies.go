package db

import (
	"context"
	"fmt"
	"time"

	"feedbackbot/model"
)

// AddReply appends a moderator reply and bumps the submission's reply count.
func (s *Store) AddReply(ctx context.Context, r model.ReplyRecord) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO replies (feedback_id, moderator_id, text, created_at)
		VALUES (?, ?, ?, ?)`, r.SubmissionID, r.ModeratorID, r.Text, createdAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("db: insert reply: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	upd, err := tx.ExecContext(ctx, "UPDATE feedbacks SET reply_count = reply_count + 1 WHERE id = ?", r.SubmissionID)
	if err != nil {
		return 0, fmt.Errorf("db: bump reply count: %w", err)
	}
	if n, _ := upd.RowsAffected(); n == 0 {
		return 0, model.ErrNotFound
	}

	return id, tx.Commit()
}

// Replies lists the replies of a submission, oldest first.
func (s *Store) Replies(ctx context.Context, submissionID int64) ([]model.ReplyRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, feedback_id, moderator_id, text, created_at
		FROM replies WHERE feedback_id = ? ORDER BY id`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReplyRecord
	for rows.Next() {
		var (
			r  model.ReplyRecord
			at int64
		)
		if err := rows.Scan(&r.ID, &r.SubmissionID, &r.ModeratorID, &r.Text, &at); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(at)
		out = append(out, r)
	}
	return out, rows.Err()
}
