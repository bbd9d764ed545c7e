// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielhkuo/doclabel/models"
)

// annotationTable describes how one annotation kind maps onto its table.
// The shared columns come first; extra lists the kind-specific ones.
type annotationTable struct {
	kind    models.AnnotationKind
	name    string
	labeled bool
	extra   []string
	newFn   func() models.Annotation
	// values and dests return the kind-specific fields in extra's order.
	values func(models.Annotation) []any
	dests  func(models.Annotation) []any
}

var annotationTables = map[models.AnnotationKind]annotationTable{
	models.KindDocument: {
		kind:    models.KindDocument,
		name:    "document_annotation",
		labeled: true,
		extra:   []string{"label_id"},
		newFn:   func() models.Annotation { return &models.DocumentAnnotation{} },
		values: func(a models.Annotation) []any {
			return []any{a.(*models.DocumentAnnotation).LabelID}
		},
		dests: func(a models.Annotation) []any {
			return []any{&a.(*models.DocumentAnnotation).LabelID}
		},
	},
	models.KindSequence: {
		kind:    models.KindSequence,
		name:    "sequence_annotation",
		labeled: true,
		extra:   []string{"label_id", "start_offset", "end_offset"},
		newFn:   func() models.Annotation { return &models.SequenceAnnotation{} },
		values: func(a models.Annotation) []any {
			s := a.(*models.SequenceAnnotation)
			return []any{s.LabelID, s.StartOffset, s.EndOffset}
		},
		dests: func(a models.Annotation) []any {
			s := a.(*models.SequenceAnnotation)
			return []any{&s.LabelID, &s.StartOffset, &s.EndOffset}
		},
	},
	models.KindSeq2seq: {
		kind:  models.KindSeq2seq,
		name:  "seq2seq_annotation",
		extra: []string{"text"},
		newFn: func() models.Annotation { return &models.Seq2seqAnnotation{} },
		values: func(a models.Annotation) []any {
			return []any{a.(*models.Seq2seqAnnotation).Text}
		},
		dests: func(a models.Annotation) []any {
			return []any{&a.(*models.Seq2seqAnnotation).Text}
		},
	},
	models.KindSpeech2text: {
		kind:  models.KindSpeech2text,
		name:  "speech2text_annotation",
		extra: []string{"text"},
		newFn: func() models.Annotation { return &models.Speech2textAnnotation{} },
		values: func(a models.Annotation) []any {
			return []any{a.(*models.Speech2textAnnotation).Text}
		},
		dests: func(a models.Annotation) []any {
			return []any{&a.(*models.Speech2textAnnotation).Text}
		},
	},
}

var baseAnnotationColumns = []string{"id", "document_id", "user_id", "prob", "manual", "created_at", "updated_at"}

func (t annotationTable) columns() string {
	return strings.Join(append(append([]string{}, baseAnnotationColumns...), t.extra...), ", ")
}

func (t annotationTable) scan(row interface{ Scan(...any) error }) (models.Annotation, error) {
	a := t.newFn()
	b := a.Base()
	dests := append([]any{&b.ID, &b.DocumentID, &b.UserID, &b.Prob, &b.Manual, &b.CreatedAt, &b.UpdatedAt}, t.dests(a)...)
	if err := row.Scan(dests...); err != nil {
		return nil, err
	}
	return a, nil
}

// AnnotationRepo stores the annotations of one kind. It is the
// per-project-type codec: Decode reads the request body shape of its
// kind, and the returned values encode back to the same shape.
type AnnotationRepo struct {
	conn  *sql.DB
	table annotationTable
}

func (r *AnnotationRepo) Kind() models.AnnotationKind { return r.table.kind }

// New returns an empty annotation of the repository's kind.
func (r *AnnotationRepo) New() models.Annotation { return r.table.newFn() }

// Decode parses a JSON body into an annotation of the repository's kind.
func (r *AnnotationRepo) Decode(body []byte) (models.Annotation, error) {
	a := r.table.newFn()
	if err := json.Unmarshal(body, a); err != nil {
		return nil, fmt.Errorf("decode %s annotation: %w", r.table.kind, err)
	}
	return a, nil
}

// Validate runs the annotation's own checks and makes sure a referenced
// label belongs to the project.
func (r *AnnotationRepo) Validate(ctx context.Context, projectID int64, a models.Annotation) error {
	if a.Kind() != r.table.kind {
		return fmt.Errorf("annotation kind %s does not match repository kind %s", a.Kind(), r.table.kind)
	}
	if err := a.Clean(); err != nil {
		return err
	}

	labeled, ok := a.(models.Labeled)
	if !ok {
		return nil
	}
	var n int
	err := r.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM label WHERE id = $1 AND project_id = $2
	`, labeled.LabelRef(), projectID).Scan(&n)
	if err != nil {
		return wrap("check annotation label", err)
	}
	if n == 0 {
		return models.NewValidationError("label", "Label does not belong to this project.")
	}
	return nil
}

// Create inserts the annotation and fills in its ID and timestamps.
// Natural key collisions come back as ErrIntegrity.
func (r *AnnotationRepo) Create(ctx context.Context, a models.Annotation) error {
	return r.create(ctx, r.conn, a)
}

func (r *AnnotationRepo) create(ctx context.Context, q querier, a models.Annotation) error {
	b := a.Base()
	ts := now()
	args := append([]any{b.DocumentID, b.UserID, b.Prob, b.Manual, ts, ts}, r.table.values(a)...)
	cols := append(append([]string{}, baseAnnotationColumns[1:]...), r.table.extra...)

	err := q.QueryRowContext(ctx,
		`INSERT INTO `+r.table.name+` (`+strings.Join(cols, ", ")+`)
		VALUES (`+placeholders(1, len(args))+`)
		RETURNING id`, args...).Scan(&b.ID)
	if err != nil {
		return wrap("create "+string(r.table.kind)+" annotation", err)
	}
	b.CreatedAt, b.UpdatedAt = ts, ts
	return nil
}

func (r *AnnotationRepo) Get(ctx context.Context, documentID, id int64) (models.Annotation, error) {
	a, err := r.table.scan(r.conn.QueryRowContext(ctx,
		`SELECT `+r.table.columns()+` FROM `+r.table.name+` WHERE id = $1 AND document_id = $2`, id, documentID))
	if err != nil {
		return nil, wrap("get "+string(r.table.kind)+" annotation", err)
	}
	return a, nil
}

// List returns the document's annotations; a userID of 0 means every user.
func (r *AnnotationRepo) List(ctx context.Context, documentID, userID int64) ([]models.Annotation, error) {
	query := `SELECT ` + r.table.columns() + ` FROM ` + r.table.name + ` WHERE document_id = $1`
	args := []any{documentID}
	if userID != 0 {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}
	query += ` ORDER BY id`

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list "+string(r.table.kind)+" annotations", err)
	}
	defer rows.Close()

	annotations := []models.Annotation{}
	for rows.Next() {
		a, err := r.table.scan(rows)
		if err != nil {
			return nil, wrap("scan annotation", err)
		}
		annotations = append(annotations, a)
	}
	return annotations, wrap("list annotations", rows.Err())
}

// Update writes prob, manual and the kind-specific fields.
func (r *AnnotationRepo) Update(ctx context.Context, a models.Annotation) error {
	b := a.Base()
	b.UpdatedAt = now()

	sets := []string{"prob = $1", "manual = $2", "updated_at = $3"}
	args := []any{b.Prob, b.Manual, b.UpdatedAt}
	for i, col := range r.table.extra {
		sets = append(sets, col+" = "+placeholders(len(args)+1, 1))
		args = append(args, r.table.values(a)[i])
	}
	args = append(args, b.ID, b.DocumentID)

	res, err := r.conn.ExecContext(ctx,
		`UPDATE `+r.table.name+` SET `+strings.Join(sets, ", ")+
			` WHERE id = `+placeholders(len(args)-1, 1)+` AND document_id = `+placeholders(len(args), 1),
		args...)
	if err != nil {
		return wrap("update "+string(r.table.kind)+" annotation", err)
	}
	return rowsAffected("update annotation", res)
}

func (r *AnnotationRepo) Delete(ctx context.Context, documentID, id int64) error {
	res, err := r.conn.ExecContext(ctx,
		`DELETE FROM `+r.table.name+` WHERE id = $1 AND document_id = $2`, id, documentID)
	if err != nil {
		return wrap("delete "+string(r.table.kind)+" annotation", err)
	}
	return rowsAffected("delete annotation", res)
}

// Count returns the number of stored annotations of this kind.
func (r *AnnotationRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.table.name).Scan(&n)
	return n, wrap("count annotations", err)
}
