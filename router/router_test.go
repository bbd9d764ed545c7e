// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
	"github.com/danielhkuo/doclabel/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "doclabel API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	// Anonymous calls reach the handlers, which refuse them with 403 or
	// reject the empty body with 400.
	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/auth/login"},
		{"GET", "/me"},
		{"GET", "/users"},
		{"POST", "/users"},
		{"GET", "/roles"},

		{"GET", "/projects"},
		{"POST", "/projects"},
		{"GET", "/projects/1"},
		{"PATCH", "/projects/1"},
		{"DELETE", "/projects/1"},
		{"GET", "/projects/1/statistics"},
		{"GET", "/projects/1/roles"},
		{"POST", "/projects/1/roles"},
		{"DELETE", "/projects/1/roles/1"},

		{"GET", "/projects/1/labels"},
		{"POST", "/projects/1/labels"},
		{"GET", "/projects/1/labels/1"},
		{"PATCH", "/projects/1/labels/1"},
		{"DELETE", "/projects/1/labels/1"},

		{"GET", "/projects/1/docs"},
		{"POST", "/projects/1/docs"},
		{"POST", "/projects/1/docs/upload"},
		{"GET", "/projects/1/docs/download"},
		{"GET", "/projects/1/docs/1"},
		{"PATCH", "/projects/1/docs/1"},
		{"DELETE", "/projects/1/docs/1"},
		{"POST", "/projects/1/docs/1/approve"},

		{"GET", "/projects/1/docs/1/annotations"},
		{"POST", "/projects/1/docs/1/annotations"},
		{"GET", "/projects/1/docs/1/annotations/1"},
		{"PATCH", "/projects/1/docs/1/annotations/1"},
		{"DELETE", "/projects/1/docs/1/annotations/1"},

		{"POST", "/projects/1/docs/1/feedback"},
		{"GET", "/projects/1/docs/1/feedback"},
		{"DELETE", "/projects/1/docs/1/feedback"},
		{"GET", "/projects/1/feedback"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden && w.Code != http.StatusBadRequest {
				t.Errorf("Route %s %s returned %d, expected the handler to refuse an anonymous caller", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"PUT to project", "PUT", "/projects/1", http.StatusMethodNotAllowed},
		{"PATCH to feedback", "PATCH", "/projects/1/docs/1/feedback", http.StatusMethodNotAllowed},
		{"PUT to upload", "PUT", "/projects/1/docs/upload", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

// TestFeedbackWorkflow drives the full handler chain: login, project
// setup by an admin, feedback from an annotator holding a cookie, and a
// metrics scrape.
func TestFeedbackWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	reg := prometheus.NewRegistry()
	h := NewHandler(db, cfg, reg)

	s := store.New(db)
	testutil.CreateTestUser(t, s, "project_admin_name")
	annotator := testutil.CreateTestUser(t, s, "annotator_name")

	send := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	login := func(username string) string {
		w := send(testutil.MakeRequest("POST", "/auth/login",
			models.LoginRequest{Username: username, Password: testutil.TestPassword}, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.LoginResponse
		testutil.AssertJSON(t, w, &resp)
		return resp.Token
	}

	adminToken := login("project_admin_name")
	bearer := map[string]string{"Authorization": "Bearer " + adminToken}

	w := send(testutil.MakeRequest("POST", "/projects", models.CreateProjectRequest{
		Name: "reviews", ProjectType: models.DocumentClassification,
	}, bearer))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var project models.ProjectResponse
	testutil.AssertJSON(t, w, &project)
	projectPath := "/projects/" + strconv.FormatInt(project.ID, 10)

	w = send(testutil.MakeRequest("POST", projectPath+"/roles",
		models.AssignRoleRequest{UserID: annotator.ID, Role: models.RoleAnnotator}, bearer))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = send(testutil.MakeRequest("POST", projectPath+"/docs", models.CreateDocumentRequest{Text: "example document"}, bearer))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var doc models.Document
	testutil.AssertJSON(t, w, &doc)
	docPath := projectPath + "/docs/" + strconv.FormatInt(doc.ID, 10)

	// The annotator authenticates with the session cookie.
	withCookie := func(req *http.Request) *http.Request {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: login("annotator_name")})
		return req
	}

	w = send(withCookie(testutil.MakeRequest("POST", docPath+"/feedback",
		models.FeedbackRequest{Text: "Example feedback", DocID: doc.ID}, nil)))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var fb models.FeedbackResponse
	testutil.AssertJSON(t, w, &fb)
	assert.Equal(t, models.FeedbackResponse{ID: 1, Text: "Example feedback", Document: doc.ID, Username: "annotator_name"}, fb)

	w = send(withCookie(testutil.MakeRequest("GET", projectPath+"/docs", nil, nil)))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"document_feedback":{"text":"Example feedback","user":"annotator_name"`)

	// Anonymous callers are refused, and CORS headers are always present.
	w = send(testutil.MakeRequest("POST", docPath+"/feedback", models.FeedbackRequest{Text: "x"}, nil))
	testutil.AssertStatus(t, w, http.StatusForbidden)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))

	n, err := s.Feedback.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w = send(httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	assert.Contains(t, body, "doclabel_http_requests_total")
	assert.Contains(t, body, `route="POST /projects/{id}/docs/{doc_id}/feedback"`)
	assert.Contains(t, body, "doclabel_http_request_duration_seconds_bucket")
}
