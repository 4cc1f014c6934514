package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

// AppendFeedback durably stores a correction and returns its id.
func (s *SQLiteStorage) AppendFeedback(ctx context.Context, text, correctLabel string, userID *string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(text, "text"); err != nil {
		return 0, err
	}
	if err := validateString(correctLabel, "correct_label"); err != nil {
		return 0, err
	}

	var uid sql.NullString
	if userID != nil && strings.TrimSpace(*userID) != "" {
		uid = sql.NullString{String: *userID, Valid: true}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO feedback (text, correct_label, user_id, created_at) VALUES (?, ?, ?, ?)",
		text, correctLabel, uid, s.now().UnixNano())
	if err != nil {
		return 0, common.NewStorageError("append feedback", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, common.NewStorageError("append feedback", err)
	}

	return id, nil
}

// CountFeedback returns the number of stored corrections.
func (s *SQLiteStorage) CountFeedback(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&count); err != nil {
		return 0, common.NewStorageError("count feedback", err)
	}
	return count, nil
}

// ListFeedback returns every correction, oldest first.
func (s *SQLiteStorage) ListFeedback(ctx context.Context) ([]model.FeedbackRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, correct_label, user_id, created_at
		FROM feedback
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, common.NewStorageError("list feedback", err)
	}
	defer func() { _ = rows.Close() }()

	return scanFeedback(rows, "list feedback")
}

// ListRecentFeedback returns corrections younger than maxAge, newest first.
func (s *SQLiteStorage) ListRecentFeedback(ctx context.Context, maxAge time.Duration) ([]model.FeedbackRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, ErrInvalidMaxAge)
	}

	cutoff := s.now().Add(-maxAge).UnixNano()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, correct_label, user_id, created_at
		FROM feedback
		WHERE created_at >= ?
		ORDER BY created_at DESC, id DESC
	`, cutoff)
	if err != nil {
		return nil, common.NewStorageError("list recent feedback", err)
	}
	defer func() { _ = rows.Close() }()

	return scanFeedback(rows, "list recent feedback")
}

// ClearFeedback irreversibly deletes every correction.
func (s *SQLiteStorage) ClearFeedback(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM feedback"); err != nil {
		return common.NewStorageError("clear feedback", err)
	}
	return nil
}

func scanFeedback(rows *sql.Rows, op string) ([]model.FeedbackRecord, error) {
	var records []model.FeedbackRecord
	for rows.Next() {
		var (
			rec       model.FeedbackRecord
			uid       sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.CorrectLabel, &uid, &createdAt); err != nil {
			return nil, common.NewStorageError(op, err)
		}
		if uid.Valid {
			u := uid.String
			rec.UserID = &u
		}
		rec.CreatedAt = time.Unix(0, createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError(op, err)
	}
	return records, nil
}
