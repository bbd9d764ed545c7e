// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
	"github.com/danielhkuo/doclabel/testutil"
)

const sample = `
users:
  - username: admin
    password: admin-password
    superuser: true
  - username: alice
    password: alice-password
  - username: bob
    password: bob-password
projects:
  - name: movie reviews
    type: DocumentClassification
    description: sentiment of short reviews
    members:
      - username: alice
        role: project_admin
      - username: bob
        role: annotator
  - name: news entities
    type: SequenceLabeling
    collaborative_annotation: true
    members:
      - username: bob
        role: project_admin
      - username: alice
        role: annotation_approver
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Users, 3)
	assert.True(t, f.Users[0].Superuser)
	require.Len(t, f.Projects, 2)
	assert.Equal(t, models.SequenceLabeling, f.Projects[1].Type)
	assert.True(t, f.Projects[1].Collaborative)
	assert.Equal(t, "alice", f.Projects[0].admin())
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
		want string
	}{
		{"empty", "  \n", "empty"},
		{"not yaml", "users: [", "decode"},
		{"duplicate user", "users:\n  - username: a\n  - username: a\n", "duplicate username"},
		{"unknown type", "projects:\n  - name: p\n    type: ImageClassification\n    members:\n      - {username: a, role: project_admin}\n", "unknown type"},
		{"no admin", "projects:\n  - name: p\n    type: Seq2seq\n    members:\n      - {username: a, role: annotator}\n", "project_admin member"},
		{"unknown role", "projects:\n  - name: p\n    type: Seq2seq\n    members:\n      - {username: a, role: project_admin}\n      - {username: b, role: owner}\n", "unknown role"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Projects, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := store.New(testutil.SetupTestDB(t))
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	res, err := f.Apply(ctx, s)
	require.NoError(t, err)
	// Creators already hold project_admin, so only the other member of
	// each project needs an assignment.
	assert.Equal(t, Result{Users: 3, Projects: 2, Roles: 2}, res)

	admin, err := s.Users.Authenticate(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.True(t, admin.IsSuperuser)

	reviews, err := s.Projects.GetByName(ctx, "movie reviews")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentClassification, reviews.ProjectType)
	assert.Len(t, reviews.Users, 2)

	bob, err := s.Users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	role, err := s.Roles.RoleOf(ctx, reviews.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAnnotator, role)

	entities, err := s.Projects.GetByName(ctx, "news entities")
	require.NoError(t, err)
	assert.True(t, entities.CollaborativeAnnotation)

	t.Run("idempotent", func(t *testing.T) {
		res, err := f.Apply(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, Result{}, res)
	})

	t.Run("role change", func(t *testing.T) {
		f.Projects[0].Members[1].Role = models.RoleAnnotationApprover
		res, err := f.Apply(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, Result{Roles: 1}, res)

		role, err := s.Roles.RoleOf(ctx, reviews.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAnnotationApprover, role)
	})
}

func TestApply_UnknownMember(t *testing.T) {
	s := store.New(testutil.SetupTestDB(t))
	f, err := Parse([]byte("projects:\n  - name: p\n    type: Seq2seq\n    members:\n      - {username: ghost, role: project_admin}\n"))
	require.NoError(t, err)

	_, err = f.Apply(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
