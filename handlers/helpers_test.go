// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
	"github.com/danielhkuo/doclabel/testutil"
)

// fixture is a project with one user per role, an outsider and a
// document.
type fixture struct {
	db    *sql.DB
	cfg   cliparse.Config
	store *store.Store

	admin     *models.User
	approver  *models.User
	annotator *models.User
	outsider  *models.User

	project *models.Project
	doc     *models.Document
}

func newFixture(t *testing.T, projectType models.ProjectType) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	f := &fixture{
		db:        db,
		cfg:       testutil.GetTestConfig(),
		store:     s,
		admin:     testutil.CreateTestUser(t, s, "project_admin_name"),
		approver:  testutil.CreateTestUser(t, s, "approver_name_name"),
		annotator: testutil.CreateTestUser(t, s, "annotator_name"),
		outsider:  testutil.CreateTestUser(t, s, "non_member_name"),
	}
	f.project = testutil.CreateTestProject(t, s, projectType, f.admin)
	testutil.AssignRole(t, s, f.project, f.approver, models.RoleAnnotationApprover)
	testutil.AssignRole(t, s, f.project, f.annotator, models.RoleAnnotator)
	f.doc = testutil.CreateTestDocument(t, s, f.project, "example document")
	return f
}

func idStr(v int64) string { return strconv.FormatInt(v, 10) }

// call runs handler as user (nil for anonymous) with the given path
// values. Paths are only informative; routing is covered by the router
// tests.
func call(t *testing.T, handler http.HandlerFunc, user *models.User, method, path string, body interface{}, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.MakeRequest(method, path, body, nil)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}

	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func (f *fixture) projectPath() map[string]string {
	return map[string]string{"id": idStr(f.project.ID)}
}

func (f *fixture) docPath() map[string]string {
	return map[string]string{"id": idStr(f.project.ID), "doc_id": idStr(f.doc.ID)}
}
