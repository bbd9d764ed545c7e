// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
	"github.com/danielhkuo/doclabel/testutil"
)

func TestLabel_TextUniqueness(t *testing.T) {
	ctx := context.Background()
	s, admin := setup(t)
	p := testutil.CreateTestProject(t, s, models.DocumentClassification, admin)
	other := testutil.CreateTestProject(t, s, models.DocumentClassification, admin)

	label := testutil.CreateTestLabel(t, s, p, "positive")
	// The same text in another project is fine.
	testutil.CreateTestLabel(t, s, other, label.Text)

	err := s.Labels.Create(ctx, &models.Label{ProjectID: p.ID, Text: label.Text})
	assert.ErrorIs(t, err, store.ErrIntegrity)

	err = s.Labels.FullClean(ctx, &models.Label{ProjectID: p.ID, Text: label.Text})
	assertValidationError(t, err)
}

func TestLabel_KeysUniqueness(t *testing.T) {
	ctx := context.Background()
	s, admin := setup(t)
	p := testutil.CreateTestProject(t, s, models.DocumentClassification, admin)

	label := &models.Label{ProjectID: p.ID, Text: "first", PrefixKey: strp("ctrl"), SuffixKey: strp("a")}
	require.NoError(t, s.Labels.Create(ctx, label))

	dup := &models.Label{ProjectID: p.ID, Text: "example", PrefixKey: label.PrefixKey, SuffixKey: label.SuffixKey}
	assertValidationError(t, s.Labels.FullClean(ctx, dup))

	// The database backs the check up.
	assert.ErrorIs(t, s.Labels.Create(ctx, dup), store.ErrIntegrity)
}

func TestLabel_SuffixKeyUniqueness(t *testing.T) {
	ctx := context.Background()
	s, admin := setup(t)
	p := testutil.CreateTestProject(t, s, models.DocumentClassification, admin)

	label := &models.Label{ProjectID: p.ID, Text: "first", SuffixKey: strp("a")}
	require.NoError(t, s.Labels.Create(ctx, label))

	dup := &models.Label{ProjectID: p.ID, Text: "example", PrefixKey: label.PrefixKey, SuffixKey: label.SuffixKey}
	assertValidationError(t, s.Labels.FullClean(ctx, dup))
	assert.ErrorIs(t, s.Labels.Create(ctx, dup), store.ErrIntegrity)

	// Same suffix with a prefix is a different shortcut.
	withPrefix := &models.Label{ProjectID: p.ID, Text: "third", PrefixKey: strp("shift"), SuffixKey: strp("a")}
	assert.NoError(t, s.Labels.FullClean(ctx, withPrefix))
}

func TestLabel_Shortcuts(t *testing.T) {
	ctx := context.Background()
	s, admin := setup(t)
	p := testutil.CreateTestProject(t, s, models.DocumentClassification, admin)

	tests := []struct {
		name    string
		prefix  *string
		suffix  *string
		wantErr bool
	}{
		{"only prefix key", strp("ctrl"), nil, true},
		{"only suffix key", nil, strp("a"), false},
		{"suffix key with prefix key", strp("ctrl"), strp("a"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &models.Label{ProjectID: p.ID, Text: "example", PrefixKey: tt.prefix, SuffixKey: tt.suffix}
			err := s.Labels.FullClean(ctx, l)
			if tt.wantErr {
				assertValidationError(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLabel_CRUD(t *testing.T) {
	ctx := context.Background()
	s, admin := setup(t)
	p := testutil.CreateTestProject(t, s, models.DocumentClassification, admin)

	l := &models.Label{ProjectID: p.ID, Text: "negative", SuffixKey: strp("n")}
	require.NoError(t, s.Labels.Create(ctx, l))
	assert.Equal(t, models.DefaultBackgroundColor, l.BackgroundColor)

	got, err := s.Labels.Get(ctx, p.ID, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SuffixKey)
	assert.Equal(t, "n", *got.SuffixKey)
	assert.Nil(t, got.PrefixKey)

	// Updating a label does not collide with itself.
	got.BackgroundColor = "#ff0000"
	require.NoError(t, s.Labels.FullClean(ctx, got))
	require.NoError(t, s.Labels.Update(ctx, got))

	labels, err := s.Labels.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "#ff0000", labels[0].BackgroundColor)

	require.NoError(t, s.Labels.Delete(ctx, p.ID, l.ID))
	_, err = s.Labels.Get(ctx, p.ID, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
