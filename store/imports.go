// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/doclabel/models"
)

// Import stores uploaded documents in one transaction. Labels named by the
// upload are created when missing, and annotations that came with the
// documents are attributed to userID.
func (s *Store) Import(ctx context.Context, p *models.Project, userID int64, docs []models.ImportedDocument) (models.UploadResponse, error) {
	var resp models.UploadResponse
	repo, err := s.ForProject(p)
	if err != nil {
		return resp, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		resp = models.UploadResponse{}
		labels := map[string]int64{}

		labelID := func(text string) (int64, error) {
			if id, ok := labels[text]; ok {
				return id, nil
			}
			l, err := getLabelByText(ctx, tx, p.ID, text)
			if errors.Is(err, ErrNotFound) {
				l = &models.Label{ProjectID: p.ID, Text: text}
				if err := createLabel(ctx, tx, l); err != nil {
					return 0, err
				}
				resp.Labels++
			} else if err != nil {
				return 0, err
			}
			labels[text] = l.ID
			return l.ID, nil
		}

		for i, imported := range docs {
			var meta json.RawMessage
			if len(imported.Meta) > 0 {
				encoded, err := json.Marshal(imported.Meta)
				if err != nil {
					return fmt.Errorf("document %d: encode meta: %w", i+1, err)
				}
				meta = encoded
			}
			doc, err := createDocument(ctx, tx, p.ID, imported.Text, meta)
			if err != nil {
				return fmt.Errorf("document %d: %w", i+1, err)
			}
			resp.Documents++

			annotations, err := importedAnnotations(p.ProjectType.AnnotationKind(), imported, labelID)
			if err != nil {
				return fmt.Errorf("document %d: %w", i+1, err)
			}
			for _, a := range annotations {
				b := a.Base()
				b.DocumentID, b.UserID, b.Manual = doc.ID, userID, false
				if err := a.Clean(); err != nil {
					return fmt.Errorf("document %d: %w", i+1, err)
				}
				if err := repo.create(ctx, tx, a); err != nil {
					return fmt.Errorf("document %d: %w", i+1, err)
				}
				resp.Annotations++
			}
		}
		return nil
	})
	return resp, err
}

func importedAnnotations(kind models.AnnotationKind, doc models.ImportedDocument, labelID func(string) (int64, error)) ([]models.Annotation, error) {
	var out []models.Annotation
	seen := map[string]bool{}
	switch kind {
	case models.KindDocument:
		for _, text := range doc.Labels {
			if seen[text] {
				continue
			}
			seen[text] = true
			id, err := labelID(text)
			if err != nil {
				return nil, err
			}
			out = append(out, &models.DocumentAnnotation{LabelID: id})
		}
	case models.KindSequence:
		for _, span := range doc.Spans {
			id, err := labelID(span.Label)
			if err != nil {
				return nil, err
			}
			out = append(out, &models.SequenceAnnotation{LabelID: id, StartOffset: span.StartOffset, EndOffset: span.EndOffset})
		}
	case models.KindSeq2seq:
		for _, text := range doc.Labels {
			if seen[text] {
				continue
			}
			seen[text] = true
			out = append(out, &models.Seq2seqAnnotation{Text: text})
		}
	case models.KindSpeech2text:
		if len(doc.Labels) > 0 {
			out = append(out, &models.Speech2textAnnotation{Text: doc.Labels[0]})
		}
	}
	return out, nil
}
