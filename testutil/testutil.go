// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/danielhkuo/doclabel/auth"
	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/db"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

// TestPassword is the password of every user created by CreateTestUser.
const TestPassword = "test-password"

// SetupTestDB creates a fresh database with the full schema. Tests run
// against in-memory SQLite unless TEST_DATABASE_URL points at Postgres.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dbType, url := db.SQLite, "file::memory:"
	if pg := os.Getenv("TEST_DATABASE_URL"); pg != "" {
		dbType, url = db.Postgres, pg
	}

	conn, err := db.Open(ctx, dbType, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Clean up tables before each test
	if err := db.DropSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}
	if err := db.CreateSchema(ctx, conn, dbType); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file::memory:",
		DatabaseType:  db.SQLite,
		SessionSecret: "test-session-secret-0123456789",
		SessionTTL:    time.Hour,
	}
}

// Sessions returns the session manager matching GetTestConfig.
func Sessions() *auth.Sessions {
	cfg := GetTestConfig()
	return auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)
}

// CreateTestUser stores a user whose password is TestPassword.
func CreateTestUser(t *testing.T, s *store.Store, username string) *models.User {
	t.Helper()

	u, err := s.Users.Create(context.Background(), username, TestPassword, false)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// CreateTestProject creates a project of the given type administered by admin.
func CreateTestProject(t *testing.T, s *store.Store, projectType models.ProjectType, admin *models.User) *models.Project {
	t.Helper()

	p := &models.Project{Name: "Test Project", Description: "A test project", ProjectType: projectType}
	if err := s.Projects.Create(context.Background(), p, admin.ID); err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}
	return p
}

// AssignRole gives user the named role within the project.
func AssignRole(t *testing.T, s *store.Store, p *models.Project, user *models.User, role string) {
	t.Helper()

	if _, err := s.Roles.Assign(context.Background(), p.ID, user.ID, role); err != nil {
		t.Fatalf("Failed to assign role: %v", err)
	}
}

// CreateTestDocument adds a document to the project.
func CreateTestDocument(t *testing.T, s *store.Store, p *models.Project, text string) *models.Document {
	t.Helper()

	d, err := s.Documents.Create(context.Background(), p.ID, text, nil)
	if err != nil {
		t.Fatalf("Failed to create test document: %v", err)
	}
	return d
}

// CreateTestLabel adds a label without shortcut keys to the project.
func CreateTestLabel(t *testing.T, s *store.Store, p *models.Project, text string) *models.Label {
	t.Helper()

	l := &models.Label{ProjectID: p.ID, Text: text}
	if err := s.Labels.Create(context.Background(), l); err != nil {
		t.Fatalf("Failed to create test label: %v", err)
	}
	return l
}

// AuthHeaders returns headers carrying a session token for user.
func AuthHeaders(t *testing.T, user *models.User) map[string]string {
	t.Helper()

	token, _, err := Sessions().Issue(user.ID, user.Username)
	if err != nil {
		t.Fatalf("Failed to issue session token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
