// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/testutil"
)

func annotationPath(f *fixture, annotationID int64) map[string]string {
	p := f.docPath()
	if annotationID != 0 {
		p["annotation_id"] = idStr(annotationID)
	}
	return p
}

func TestCreateAnnotation_PerProjectType(t *testing.T) {
	testCases := []struct {
		projectType models.ProjectType
		body        func(labelID int64) map[string]any
		check       func(t *testing.T, raw map[string]any)
	}{
		{
			models.DocumentClassification,
			func(labelID int64) map[string]any { return map[string]any{"label": labelID} },
			func(t *testing.T, raw map[string]any) { assert.Contains(t, raw, "label") },
		},
		{
			models.SequenceLabeling,
			func(labelID int64) map[string]any {
				return map[string]any{"label": labelID, "start_offset": 0, "end_offset": 7}
			},
			func(t *testing.T, raw map[string]any) {
				assert.EqualValues(t, 0, raw["start_offset"])
				assert.EqualValues(t, 7, raw["end_offset"])
			},
		},
		{
			models.Seq2seq,
			func(int64) map[string]any { return map[string]any{"text": "un document"} },
			func(t *testing.T, raw map[string]any) { assert.Equal(t, "un document", raw["text"]) },
		},
		{
			models.Speech2text,
			func(int64) map[string]any { return map[string]any{"text": "example document", "prob": 0.5} },
			func(t *testing.T, raw map[string]any) { assert.EqualValues(t, 0.5, raw["prob"]) },
		},
	}

	for _, tc := range testCases {
		t.Run(string(tc.projectType), func(t *testing.T) {
			f := newFixture(t, tc.projectType)
			h := NewAnnotationHandler(f.db, f.cfg)
			label := testutil.CreateTestLabel(t, f.store, f.project, "topic")

			w := call(t, h.CreateAnnotation, f.annotator, "POST", "/annotations", tc.body(label.ID), annotationPath(f, 0))
			testutil.AssertStatus(t, w, http.StatusCreated)
			var raw map[string]any
			testutil.AssertJSON(t, w, &raw)
			assert.EqualValues(t, f.annotator.ID, raw["user"])
			assert.EqualValues(t, f.doc.ID, raw["document"])
			tc.check(t, raw)

			// The same annotation twice collides on the natural key.
			w = call(t, h.CreateAnnotation, f.annotator, "POST", "/annotations", tc.body(label.ID), annotationPath(f, 0))
			testutil.AssertStatus(t, w, http.StatusConflict)
		})
	}
}

func TestCreateAnnotation_Invalid(t *testing.T) {
	f := newFixture(t, models.SequenceLabeling)
	h := NewAnnotationHandler(f.db, f.cfg)
	label := testutil.CreateTestLabel(t, f.store, f.project, "PER")
	other := testutil.CreateTestProject(t, f.store, models.SequenceLabeling, f.admin)
	foreign := testutil.CreateTestLabel(t, f.store, other, "PER")

	testCases := []struct {
		name  string
		body  any
		field string
	}{
		{"empty span", map[string]any{"label": label.ID, "start_offset": 3, "end_offset": 3}, models.NonFieldErrors},
		{"negative start", map[string]any{"label": label.ID, "start_offset": -1, "end_offset": 3}, "start_offset"},
		{"missing label", map[string]any{"start_offset": 0, "end_offset": 3}, "label"},
		{"foreign label", map[string]any{"label": foreign.ID, "start_offset": 0, "end_offset": 3}, "label"},
		{"bad prob", map[string]any{"label": label.ID, "start_offset": 0, "end_offset": 3, "prob": 2}, "prob"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(t, h.CreateAnnotation, f.annotator, "POST", "/annotations", tc.body, annotationPath(f, 0))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			assert.Contains(t, resp.Fields, tc.field)
		})
	}

	t.Run("non member", func(t *testing.T) {
		w := call(t, h.CreateAnnotation, f.outsider, "POST", "/annotations",
			map[string]any{"label": label.ID, "start_offset": 0, "end_offset": 3}, annotationPath(f, 0))
		testutil.AssertStatus(t, w, http.StatusForbidden)
	})
}

func TestAnnotationOwnership(t *testing.T) {
	f := newFixture(t, models.DocumentClassification)
	h := NewAnnotationHandler(f.db, f.cfg)
	positive := testutil.CreateTestLabel(t, f.store, f.project, "positive")
	negative := testutil.CreateTestLabel(t, f.store, f.project, "negative")

	w := call(t, h.CreateAnnotation, f.annotator, "POST", "/annotations", map[string]any{"label": positive.ID}, annotationPath(f, 0))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.DocumentAnnotation
	testutil.AssertJSON(t, w, &created)
	path := annotationPath(f, created.ID)

	t.Run("other annotator", func(t *testing.T) {
		w := call(t, h.GetAnnotation, f.approver, "GET", "/annotations/x", nil, path)
		testutil.AssertStatus(t, w, http.StatusForbidden)
		w = call(t, h.DeleteAnnotation, f.approver, "DELETE", "/annotations/x", nil, path)
		testutil.AssertStatus(t, w, http.StatusForbidden)
	})

	t.Run("owner updates", func(t *testing.T) {
		w := call(t, h.UpdateAnnotation, f.annotator, "PATCH", "/annotations/x",
			map[string]any{"label": negative.ID, "user": f.admin.ID, "document": 9999}, path)
		testutil.AssertStatus(t, w, http.StatusOK)
		var updated models.DocumentAnnotation
		testutil.AssertJSON(t, w, &updated)
		assert.Equal(t, negative.ID, updated.LabelID)
		assert.Equal(t, f.annotator.ID, updated.UserID)
		assert.Equal(t, f.doc.ID, updated.DocumentID)
	})

	t.Run("list is per user", func(t *testing.T) {
		w := call(t, h.ListAnnotations, f.annotator, "GET", "/annotations", nil, annotationPath(f, 0))
		testutil.AssertStatus(t, w, http.StatusOK)
		var mine []json.RawMessage
		testutil.AssertJSON(t, w, &mine)
		assert.Len(t, mine, 1)

		w = call(t, h.ListAnnotations, f.approver, "GET", "/annotations", nil, annotationPath(f, 0))
		testutil.AssertStatus(t, w, http.StatusOK)
		var theirs []json.RawMessage
		testutil.AssertJSON(t, w, &theirs)
		assert.Empty(t, theirs)
	})

	t.Run("collaborative list", func(t *testing.T) {
		collaborative := true
		_, err := f.store.Projects.Update(context.Background(), f.project.ID,
			models.UpdateProjectRequest{CollaborativeAnnotation: &collaborative})
		require.NoError(t, err)

		w := call(t, h.ListAnnotations, f.approver, "GET", "/annotations", nil, annotationPath(f, 0))
		testutil.AssertStatus(t, w, http.StatusOK)
		var all []json.RawMessage
		testutil.AssertJSON(t, w, &all)
		assert.Len(t, all, 1)
	})

	t.Run("admin deletes", func(t *testing.T) {
		w := call(t, h.DeleteAnnotation, f.admin, "DELETE", "/annotations/x", nil, path)
		testutil.AssertStatus(t, w, http.StatusNoContent)

		w = call(t, h.GetAnnotation, f.annotator, "GET", "/annotations/x", nil, path)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestAnnotation_DocumentOfOtherProject(t *testing.T) {
	f := newFixture(t, models.Seq2seq)
	h := NewAnnotationHandler(f.db, f.cfg)
	other := testutil.CreateTestProject(t, f.store, models.Seq2seq, f.admin)
	foreignDoc := testutil.CreateTestDocument(t, f.store, other, "elsewhere")

	w := call(t, h.CreateAnnotation, f.annotator, "POST", "/annotations", map[string]any{"text": "x"},
		map[string]string{"id": idStr(f.project.ID), "doc_id": idStr(foreignDoc.ID)})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
