// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/testutil"
)

func strPtr(s string) *string { return &s }

func TestCreateLabel(t *testing.T) {
	f := newFixture(t, models.DocumentClassification)
	h := NewLabelHandler(f.db, f.cfg)

	w := call(t, h.CreateLabel, f.annotator, "POST", "/labels", models.LabelRequest{Text: "positive"}, f.projectPath())
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = call(t, h.CreateLabel, f.admin, "POST", "/labels", models.LabelRequest{
		Text: "positive", PrefixKey: strPtr(models.PrefixCtrl), SuffixKey: strPtr("p"),
	}, f.projectPath())
	testutil.AssertStatus(t, w, http.StatusCreated)
	var l models.Label
	testutil.AssertJSON(t, w, &l)
	assert.Equal(t, models.DefaultBackgroundColor, l.BackgroundColor)
	assert.Equal(t, models.DefaultTextColor, l.TextColor)

	testCases := []struct {
		name  string
		req   models.LabelRequest
		field string
	}{
		{"duplicate text", models.LabelRequest{Text: "positive"}, models.NonFieldErrors},
		{"duplicate shortcut", models.LabelRequest{Text: "negative", PrefixKey: strPtr(models.PrefixCtrl), SuffixKey: strPtr("p")}, models.NonFieldErrors},
		{"prefix without suffix", models.LabelRequest{Text: "neutral", PrefixKey: strPtr(models.PrefixShift)}, models.NonFieldErrors},
		{"bad suffix", models.LabelRequest{Text: "neutral", SuffixKey: strPtr("!")}, "suffix_key"},
		{"bad color", models.LabelRequest{Text: "neutral", BackgroundColor: "red"}, "background_color"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(t, h.CreateLabel, f.admin, "POST", "/labels", tc.req, f.projectPath())
			testutil.AssertStatus(t, w, http.StatusBadRequest)

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			assert.Contains(t, resp.Fields, tc.field)
		})
	}
}

func TestLabelCRUD(t *testing.T) {
	f := newFixture(t, models.SequenceLabeling)
	h := NewLabelHandler(f.db, f.cfg)
	l := testutil.CreateTestLabel(t, f.store, f.project, "PER")
	path := map[string]string{"id": idStr(f.project.ID), "label_id": idStr(l.ID)}

	w := call(t, h.ListLabels, f.annotator, "GET", "/labels", nil, f.projectPath())
	testutil.AssertStatus(t, w, http.StatusOK)
	var labels []models.Label
	testutil.AssertJSON(t, w, &labels)
	require.Len(t, labels, 1)

	w = call(t, h.GetLabel, f.annotator, "GET", "/labels/x", nil, path)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = call(t, h.UpdateLabel, f.annotator, "PATCH", "/labels/x", map[string]string{"text": "PERSON"}, path)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = call(t, h.UpdateLabel, f.admin, "PATCH", "/labels/x", map[string]string{"text": "PERSON", "suffix_key": "p"}, path)
	testutil.AssertStatus(t, w, http.StatusOK)
	var updated models.Label
	testutil.AssertJSON(t, w, &updated)
	assert.Equal(t, "PERSON", updated.Text)
	assert.Equal(t, models.DefaultBackgroundColor, updated.BackgroundColor)
	require.NotNil(t, updated.SuffixKey)
	assert.Equal(t, "p", *updated.SuffixKey)

	w = call(t, h.DeleteLabel, f.admin, "DELETE", "/labels/x", nil, path)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = call(t, h.GetLabel, f.admin, "GET", "/labels/x", nil, path)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestLabel_OtherProjectHidden(t *testing.T) {
	f := newFixture(t, models.DocumentClassification)
	h := NewLabelHandler(f.db, f.cfg)
	other := testutil.CreateTestProject(t, f.store, models.DocumentClassification, f.admin)
	foreign := testutil.CreateTestLabel(t, f.store, other, "foreign")

	w := call(t, h.GetLabel, f.admin, "GET", "/labels/x", nil,
		map[string]string{"id": idStr(f.project.ID), "label_id": idStr(foreign.ID)})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
