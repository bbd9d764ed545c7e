// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

const msgForbidden = "You do not have permission to perform this action."

// Role sets accepted by project routes. A nil set admits any member.
var (
	anyMember     []string
	adminOnly     = []string{models.RoleProjectAdmin}
	approvers     = []string{models.RoleAnnotationApprover, models.RoleProjectAdmin}
	feedbackRoles = []string{models.RoleProjectAdmin, models.RoleAnnotator, models.RoleAnnotationApprover}
)

// access is the caller's standing in the project named by the {id}
// path value.
type access struct {
	user    *models.User
	project *models.Project
	role    string // empty for superusers without a mapping
}

func (a *access) isAdmin() bool {
	return a.user.IsSuperuser || a.role == models.RoleProjectAdmin
}

// projectAccess authenticates the caller, loads the project and checks
// the caller's role against allowed. It writes the error response and
// returns false when the request cannot proceed.
func projectAccess(w http.ResponseWriter, r *http.Request, s *store.Store, allowed []string) (*access, bool) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return nil, false
	}

	projectID, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}

	project, err := s.Projects.Get(r.Context(), projectID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load project")
		return nil, false
	}

	role, err := s.Roles.RoleOf(r.Context(), projectID, user.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("failed to load role", "project_id", projectID, "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load project")
		return nil, false
	}

	a := &access{user: user, project: project, role: role}
	if user.IsSuperuser {
		return a, true
	}
	if role == "" || (allowed != nil && !slices.Contains(allowed, role)) {
		middleware.ErrorResponse(w, http.StatusForbidden, msgForbidden)
		return nil, false
	}
	return a, true
}

// pathID parses a numeric path value, answering 404 when it is not a
// valid id.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// document loads the {doc_id} document of an already authorized project.
func (a *access) document(w http.ResponseWriter, r *http.Request, s *store.Store) (*models.Document, bool) {
	docID, ok := pathID(w, r, "doc_id")
	if !ok {
		return nil, false
	}
	doc, err := s.Documents.Get(r.Context(), a.project.ID, docID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load document")
		return nil, false
	}
	return doc, true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
