// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/danielhkuo/doclabel/models"
)

type Labels struct {
	conn *sql.DB
}

const labelColumns = `id, project_id, text, prefix_key, suffix_key, background_color, text_color, created_at, updated_at`

func scanLabel(row interface{ Scan(...any) error }) (*models.Label, error) {
	var l models.Label
	err := row.Scan(&l.ID, &l.ProjectID, &l.Text, &l.PrefixKey, &l.SuffixKey,
		&l.BackgroundColor, &l.TextColor, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FullClean runs Label.Clean and then checks the label against the other
// labels of its project: the text must be unused, and so must the
// shortcut whenever either key is set.
func (r *Labels) FullClean(ctx context.Context, l *models.Label) error {
	l.Normalize()
	verr := &models.ValidationError{}
	if err := l.Clean(); err != nil && !errors.As(err, &verr) {
		return err
	}

	var n int
	err := r.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM label WHERE project_id = $1 AND text = $2 AND id <> $3
	`, l.ProjectID, l.Text, l.ID).Scan(&n)
	if err != nil {
		return wrap("check label text", err)
	}
	if n > 0 {
		verr.Add(models.NonFieldErrors, "The fields project, text must make a unique set.")
	}

	if l.HasShortcut() {
		query := `SELECT COUNT(*) FROM label WHERE project_id = $1 AND id <> $2`
		args := []any{l.ProjectID, l.ID}
		query, args = keyCondition(query, args, "prefix_key", l.PrefixKey)
		query, args = keyCondition(query, args, "suffix_key", l.SuffixKey)

		if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return wrap("check label shortcut", err)
		}
		if n > 0 {
			verr.Add(models.NonFieldErrors, "A label with this shortcut already exists in the project.")
		}
	}

	return verr.OrNil()
}

func keyCondition(query string, args []any, column string, value *string) (string, []any) {
	if value == nil {
		return query + " AND " + column + " IS NULL", args
	}
	args = append(args, *value)
	return query + " AND " + column + " = " + placeholders(len(args), 1), args
}

// Create inserts the label as is. Uniqueness is left to the database, so
// a duplicate text surfaces as ErrIntegrity; call FullClean first to get
// a ValidationError instead.
func (r *Labels) Create(ctx context.Context, l *models.Label) error {
	return createLabel(ctx, r.conn, l)
}

func createLabel(ctx context.Context, q querier, l *models.Label) error {
	l.Normalize()
	ts := now()
	err := q.QueryRowContext(ctx, `
		INSERT INTO label (project_id, text, prefix_key, suffix_key, background_color, text_color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, l.ProjectID, l.Text, l.PrefixKey, l.SuffixKey, l.BackgroundColor, l.TextColor, ts, ts).Scan(&l.ID)
	if err != nil {
		return wrap("create label", err)
	}
	l.CreatedAt, l.UpdatedAt = ts, ts
	return nil
}

func (r *Labels) Get(ctx context.Context, projectID, id int64) (*models.Label, error) {
	l, err := scanLabel(r.conn.QueryRowContext(ctx,
		`SELECT `+labelColumns+` FROM label WHERE id = $1 AND project_id = $2`, id, projectID))
	if err != nil {
		return nil, wrap("get label", err)
	}
	return l, nil
}

func getLabelByText(ctx context.Context, q querier, projectID int64, text string) (*models.Label, error) {
	l, err := scanLabel(q.QueryRowContext(ctx,
		`SELECT `+labelColumns+` FROM label WHERE project_id = $1 AND text = $2`, projectID, text))
	if err != nil {
		return nil, wrap("get label by text", err)
	}
	return l, nil
}

func (r *Labels) List(ctx context.Context, projectID int64) ([]models.Label, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+labelColumns+` FROM label WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, wrap("list labels", err)
	}
	defer rows.Close()

	labels := []models.Label{}
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, wrap("scan label", err)
		}
		labels = append(labels, *l)
	}
	return labels, wrap("list labels", rows.Err())
}

func (r *Labels) Update(ctx context.Context, l *models.Label) error {
	l.Normalize()
	l.UpdatedAt = now()
	res, err := r.conn.ExecContext(ctx, `
		UPDATE label
		SET text = $1, prefix_key = $2, suffix_key = $3, background_color = $4, text_color = $5, updated_at = $6
		WHERE id = $7 AND project_id = $8
	`, l.Text, l.PrefixKey, l.SuffixKey, l.BackgroundColor, l.TextColor, l.UpdatedAt, l.ID, l.ProjectID)
	if err != nil {
		return wrap("update label", err)
	}
	return rowsAffected("update label", res)
}

func (r *Labels) Delete(ctx context.Context, projectID, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM label WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return wrap("delete label", err)
	}
	return rowsAffected("delete label", res)
}
