// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/danielhkuo/doclabel/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Documents struct {
	conn *sql.DB
}

// DocumentFilter narrows and pages a document listing.
type DocumentFilter struct {
	Query string
	// Checked selects approved (true) or unapproved (false) documents.
	Checked *bool
	Limit   int
	Offset  int
	// ShuffleFor orders documents in a stable per-user pseudo-random
	// order when non-zero.
	ShuffleFor int64
}

const documentColumns = `id, project_id, text, meta, annotations_approved_by, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var d models.Document
	var meta string
	err := row.Scan(&d.ID, &d.ProjectID, &d.Text, &meta, &d.AnnotationsApprovedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Meta = json.RawMessage(meta)
	return &d, nil
}

// normalizeMeta accepts a JSON object (or nothing) and returns its text.
func normalizeMeta(meta json.RawMessage) (string, error) {
	if len(meta) == 0 || string(meta) == "null" {
		return "{}", nil
	}
	var obj map[string]any
	if err := json.Unmarshal(meta, &obj); err != nil {
		return "", models.NewValidationError("meta", "Value must be a JSON object.")
	}
	return string(meta), nil
}

func (r *Documents) Create(ctx context.Context, projectID int64, text string, meta json.RawMessage) (*models.Document, error) {
	return createDocument(ctx, r.conn, projectID, text, meta)
}

func createDocument(ctx context.Context, q querier, projectID int64, text string, meta json.RawMessage) (*models.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("text", "This field may not be blank.")
	}
	metaText, err := normalizeMeta(meta)
	if err != nil {
		return nil, err
	}

	ts := now()
	d := &models.Document{ProjectID: projectID, Text: text, Meta: json.RawMessage(metaText), CreatedAt: ts, UpdatedAt: ts}
	err = q.QueryRowContext(ctx, `
		INSERT INTO document (project_id, text, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, projectID, text, metaText, ts, ts).Scan(&d.ID)
	if err != nil {
		return nil, wrap("create document", err)
	}
	return d, nil
}

// Get returns the document only if it belongs to the project.
func (r *Documents) Get(ctx context.Context, projectID, id int64) (*models.Document, error) {
	d, err := scanDocument(r.conn.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM document WHERE id = $1 AND project_id = $2`, id, projectID))
	if err != nil {
		return nil, wrap("get document", err)
	}
	return d, nil
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// List returns one page of the project's documents and the total number
// of documents matching the filter.
func (r *Documents) List(ctx context.Context, projectID int64, f DocumentFilter) ([]models.Document, int, error) {
	where := []string{"project_id = $1"}
	args := []any{projectID}

	if f.Query != "" {
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Query))+"%")
		where = append(where, "LOWER(text) LIKE $"+strconv.Itoa(len(args))+` ESCAPE '\'`)
	}
	if f.Checked != nil {
		if *f.Checked {
			where = append(where, "annotations_approved_by IS NOT NULL")
		} else {
			where = append(where, "annotations_approved_by IS NULL")
		}
	}
	cond := strings.Join(where, " AND ")

	var count int
	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM document WHERE `+cond, args...).Scan(&count); err != nil {
		return nil, 0, wrap("count documents", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	order := "id"
	if f.ShuffleFor != 0 {
		args = append(args, f.ShuffleFor)
		order = "(id * 7919 + $" + strconv.Itoa(len(args)) + " * 104729) % 10007, id"
	}
	args = append(args, limit, offset)
	query := `SELECT ` + documentColumns + ` FROM document WHERE ` + cond +
		` ORDER BY ` + order +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrap("list documents", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, wrap("scan document", err)
		}
		docs = append(docs, *d)
	}
	return docs, count, wrap("list documents", rows.Err())
}

// All returns every document of the project in ID order.
func (r *Documents) All(ctx context.Context, projectID int64) ([]models.Document, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM document WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, wrap("list documents", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, wrap("scan document", err)
		}
		docs = append(docs, *d)
	}
	return docs, wrap("list documents", rows.Err())
}

// Update applies the non-empty fields of req.
func (r *Documents) Update(ctx context.Context, projectID, id int64, req models.UpdateDocumentRequest) (*models.Document, error) {
	d, err := r.Get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}

	if req.Text != nil {
		if strings.TrimSpace(*req.Text) == "" {
			return nil, models.NewValidationError("text", "This field may not be blank.")
		}
		d.Text = *req.Text
	}
	if len(req.Meta) > 0 {
		metaText, err := normalizeMeta(req.Meta)
		if err != nil {
			return nil, err
		}
		d.Meta = json.RawMessage(metaText)
	}

	d.UpdatedAt = now()
	_, err = r.conn.ExecContext(ctx, `
		UPDATE document SET text = $1, meta = $2, updated_at = $3 WHERE id = $4
	`, d.Text, string(d.Meta), d.UpdatedAt, d.ID)
	if err != nil {
		return nil, wrap("update document", err)
	}
	return d, nil
}

// SetApprover records who approved the document's annotations; nil clears it.
func (r *Documents) SetApprover(ctx context.Context, projectID, id int64, approver *int64) (*models.Document, error) {
	res, err := r.conn.ExecContext(ctx, `
		UPDATE document SET annotations_approved_by = $1, updated_at = $2
		WHERE id = $3 AND project_id = $4
	`, approver, now(), id, projectID)
	if err != nil {
		return nil, wrap("approve document", err)
	}
	if err := rowsAffected("approve document", res); err != nil {
		return nil, err
	}
	return r.Get(ctx, projectID, id)
}

func (r *Documents) Delete(ctx context.Context, projectID, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM document WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return wrap("delete document", err)
	}
	return rowsAffected("delete document", res)
}
