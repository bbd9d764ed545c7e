// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/danielhkuo/doclabel/models"
)

// Feedback stores one free-text feedback record per user per document.
type Feedback struct {
	conn *sql.DB
}

const feedbackQuery = `
	SELECT f.id, f.document_id, f.user_id, u.username, f.text, f.created_at, f.updated_at
	FROM document_feedback f
	JOIN app_user u ON u.id = f.user_id
`

func scanFeedback(row interface{ Scan(...any) error }) (*models.DocumentFeedback, error) {
	var f models.DocumentFeedback
	err := row.Scan(&f.ID, &f.DocumentID, &f.UserID, &f.Username, &f.Text, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func validateFeedbackText(text string) error {
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError("text", "This field may not be blank.")
	}
	return nil
}

// Upsert creates the user's feedback on the document, or overwrites the
// text of the existing record. created reports which of the two happened.
func (r *Feedback) Upsert(ctx context.Context, documentID, userID int64, text string) (f *models.DocumentFeedback, created bool, err error) {
	if err := validateFeedbackText(text); err != nil {
		return nil, false, err
	}

	var id int64
	ts := now()
	err = inTx(ctx, r.conn, func(tx *sql.Tx) error {
		// DO NOTHING returns no row when the record already exists.
		err := tx.QueryRowContext(ctx, `
			INSERT INTO document_feedback (document_id, user_id, text, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (document_id, user_id) DO NOTHING
			RETURNING id
		`, documentID, userID, text, ts, ts).Scan(&id)
		if err == nil {
			created = true
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return tx.QueryRowContext(ctx, `
			UPDATE document_feedback SET text = $1, updated_at = $2
			WHERE document_id = $3 AND user_id = $4
			RETURNING id
		`, text, ts, documentID, userID).Scan(&id)
	})
	if err != nil {
		return nil, false, wrap("upsert feedback", err)
	}

	f, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return f, created, nil
}

// Create inserts a new record; a second record for the same document and
// user is an ErrIntegrity.
func (r *Feedback) Create(ctx context.Context, documentID, userID int64, text string) (*models.DocumentFeedback, error) {
	if err := validateFeedbackText(text); err != nil {
		return nil, err
	}

	var id int64
	ts := now()
	err := r.conn.QueryRowContext(ctx, `
		INSERT INTO document_feedback (document_id, user_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, documentID, userID, text, ts, ts).Scan(&id)
	if err != nil {
		return nil, wrap("create feedback", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Feedback) GetByID(ctx context.Context, id int64) (*models.DocumentFeedback, error) {
	f, err := scanFeedback(r.conn.QueryRowContext(ctx, feedbackQuery+` WHERE f.id = $1`, id))
	if err != nil {
		return nil, wrap("get feedback", err)
	}
	return f, nil
}

// Get returns the user's feedback on the document.
func (r *Feedback) Get(ctx context.Context, documentID, userID int64) (*models.DocumentFeedback, error) {
	f, err := scanFeedback(r.conn.QueryRowContext(ctx,
		feedbackQuery+` WHERE f.document_id = $1 AND f.user_id = $2`, documentID, userID))
	if err != nil {
		return nil, wrap("get feedback", err)
	}
	return f, nil
}

// ListByUser returns all feedback written by the user, oldest first.
func (r *Feedback) ListByUser(ctx context.Context, userID int64) ([]models.DocumentFeedback, error) {
	return r.list(ctx, feedbackQuery+` WHERE f.user_id = $1 ORDER BY f.id`, userID)
}

// ListForProject returns one page of the feedback on the project's
// documents and the total count.
func (r *Feedback) ListForProject(ctx context.Context, projectID int64, limit, offset int) ([]models.DocumentFeedback, int, error) {
	var count int
	err := r.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM document_feedback f
		JOIN document d ON d.id = f.document_id
		WHERE d.project_id = $1
	`, projectID).Scan(&count)
	if err != nil {
		return nil, 0, wrap("count feedback", err)
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	list, err := r.list(ctx, feedbackQuery+`
		JOIN document d ON d.id = f.document_id
		WHERE d.project_id = $1
		ORDER BY f.id
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	return list, count, err
}

func (r *Feedback) list(ctx context.Context, query string, args ...any) ([]models.DocumentFeedback, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list feedback", err)
	}
	defer rows.Close()

	list := []models.DocumentFeedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, wrap("scan feedback", err)
		}
		list = append(list, *f)
	}
	return list, wrap("list feedback", rows.Err())
}

// Update replaces the text of the record with the given ID.
func (r *Feedback) Update(ctx context.Context, id int64, text string) (*models.DocumentFeedback, error) {
	if err := validateFeedbackText(text); err != nil {
		return nil, err
	}

	res, err := r.conn.ExecContext(ctx, `
		UPDATE document_feedback SET text = $1, updated_at = $2 WHERE id = $3
	`, text, now(), id)
	if err != nil {
		return nil, wrap("update feedback", err)
	}
	if err := rowsAffected("update feedback", res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Feedback) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM document_feedback WHERE id = $1`, id)
	if err != nil {
		return wrap("delete feedback", err)
	}
	return rowsAffected("delete feedback", res)
}

// DeleteByUser removes every feedback record the user wrote.
func (r *Feedback) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM document_feedback WHERE user_id = $1`, userID)
	if err != nil {
		return 0, wrap("delete feedback", err)
	}
	n, err := res.RowsAffected()
	return n, wrap("delete feedback", err)
}

// Count returns the number of feedback records in the database.
func (r *Feedback) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_feedback`).Scan(&n)
	return n, wrap("count feedback", err)
}
