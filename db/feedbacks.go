package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedbackbot/model"
)

// rowScanner is an interface that can be satisfied by *sql.Row or *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const feedbackColumns = `id, user_id, COALESCE(username, ''), category, content, is_anonymous,
	status, COALESCE(echo_message_id, ''), reply_count, created_at`

// scanSubmission scans a row into a Submission struct.
func scanSubmission(scanner rowScanner) (*model.Submission, error) {
	var (
		sub       model.Submission
		category  string
		status    string
		createdAt int64
	)
	err := scanner.Scan(
		&sub.ID, &sub.UserID, &sub.DisplayName, &category, &sub.Content, &sub.Anonymous,
		&status, &sub.EchoMessageID, &sub.ReplyCount, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Category = model.Category(category)
	sub.Status = model.Status(status)
	sub.CreatedAt = time.UnixMilli(createdAt)
	return &sub, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateSubmission inserts a pending submission and returns its id.
func (s *Store) CreateSubmission(ctx context.Context, f model.SubmissionFields) (int64, error) {
	return insertSubmission(ctx, s.DB, f)
}

// AddAttachment records one media item of a submission.
func (s *Store) AddAttachment(ctx context.Context, a model.MediaAttachment) error {
	return insertAttachment(ctx, s.DB, a)
}

// SaveSubmission inserts a submission and its attachments in one
// transaction. Attachment positions are assigned from their order.
func (s *Store) SaveSubmission(ctx context.Context, f model.SubmissionFields, atts []model.MediaAttachment) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := insertSubmission(ctx, tx, f)
	if err != nil {
		return 0, err
	}
	for i, a := range atts {
		a.SubmissionID = id
		a.Position = i
		if err := insertAttachment(ctx, tx, a); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("db: commit feedback: %w", err)
	}
	return id, nil
}

func insertSubmission(ctx context.Context, ex execer, f model.SubmissionFields) (int64, error) {
	if !f.Category.Valid() {
		return 0, fmt.Errorf("db: invalid category %q", f.Category)
	}
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := ex.ExecContext(ctx, `INSERT INTO feedbacks
		(user_id, username, category, content, is_anonymous, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.UserID, f.DisplayName, string(f.Category), f.Content, f.Anonymous,
		string(model.StatusPending), createdAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("db: insert feedback: %w", err)
	}
	return res.LastInsertId()
}

func insertAttachment(ctx context.Context, ex execer, a model.MediaAttachment) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO feedback_media
		(feedback_id, position, file_ref, kind, filename) VALUES (?, ?, ?, ?, ?)`,
		a.SubmissionID, a.Position, a.Ref, a.Kind.String(), a.Filename,
	)
	if err != nil {
		return fmt.Errorf("db: insert media %d/%d: %w", a.SubmissionID, a.Position, err)
	}
	return nil
}

// GetSubmission loads a submission with its attachments. It returns
// nil, nil when the id is unknown.
func (s *Store) GetSubmission(ctx context.Context, id int64) (*model.Submission, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedbacks WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db: get feedback %d: %w", id, err)
	}

	sub.Attachments, err = s.attachments(ctx, id)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) attachments(ctx context.Context, id int64) ([]model.MediaAttachment, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT position, file_ref, kind, COALESCE(filename, '')
		FROM feedback_media WHERE feedback_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("db: list media %d: %w", id, err)
	}
	defer rows.Close()

	var out []model.MediaAttachment
	for rows.Next() {
		a := model.MediaAttachment{SubmissionID: id}
		var kind string
		if err := rows.Scan(&a.Position, &a.Ref, &kind, &a.Filename); err != nil {
			return nil, err
		}
		k, ok := model.ParseMediaKind(kind)
		if !ok {
			return nil, fmt.Errorf("db: media %d/%d has unknown kind %q", id, a.Position, kind)
		}
		a.Kind = k
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByCategory returns the newest submissions of a category, without attachments.
func (s *Store) ListByCategory(ctx context.Context, category model.Category, limit int) ([]*model.Submission, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+feedbackColumns+` FROM feedbacks
		WHERE category = ? ORDER BY created_at DESC, id DESC LIMIT ?`, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("db: list %s: %w", category, err)
	}
	defer rows.Close()

	var submissions []*model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

// AggregateCounts counts submissions per category created since the
// start of period.
func (s *Store) AggregateCounts(ctx context.Context, period model.Period, now time.Time) ([]model.CategoryCount, error) {
	since := period.Since(now)
	var sinceMillis int64
	if !since.IsZero() {
		sinceMillis = since.UnixMilli()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT category, COUNT(*) FROM feedbacks
		WHERE created_at >= ? GROUP BY category ORDER BY category`, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("db: aggregate %s: %w", period, err)
	}
	defer rows.Close()

	var counts []model.CategoryCount
	for rows.Next() {
		var (
			c        model.CategoryCount
			category string
		)
		if err := rows.Scan(&category, &c.Count); err != nil {
			return nil, err
		}
		c.Category = model.Category(category)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TransitionStatus moves a submission from one status to another. It
// returns model.ErrAlreadyActioned when the submission is not in from.
func (s *Store) TransitionStatus(ctx context.Context, id int64, from, to model.Status) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE feedbacks SET status = ? WHERE id = ? AND status = ?", string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("db: update status %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.DB.QueryRowContext(ctx, "SELECT 1 FROM feedbacks WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	return model.ErrAlreadyActioned
}

// SetEchoMessage remembers the moderator notification a submission was echoed to.
func (s *Store) SetEchoMessage(ctx context.Context, id int64, messageID string) error {
	_, err := s.DB.ExecContext(ctx, "UPDATE feedbacks SET echo_message_id = ? WHERE id = ?", messageID, id)
	return err
}
