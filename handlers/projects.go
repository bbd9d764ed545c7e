// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

type ProjectHandler struct {
	cfg   cliparse.Config
	store *store.Store
}

func NewProjectHandler(db *sql.DB, cfg cliparse.Config) *ProjectHandler {
	return &ProjectHandler{cfg: cfg, store: store.New(db)}
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	projects, err := h.store.Projects.ListForUser(r.Context(), user)
	if err != nil {
		middleware.StoreError(w, err, "Failed to list projects")
		return
	}

	resp := make([]models.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		role, err := h.store.Roles.RoleOf(r.Context(), p.ID, user.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			middleware.StoreError(w, err, "Failed to list projects")
			return
		}
		resp = append(resp, p.Response(role))
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p := &models.Project{
		Name:                    req.Name,
		Description:             req.Description,
		Guideline:               req.Guideline,
		ProjectType:             req.ProjectType,
		RandomizeDocumentOrder:  req.RandomizeDocumentOrder,
		CollaborativeAnnotation: req.CollaborativeAnnotation,
	}
	if err := h.store.Projects.Create(r.Context(), p, user.ID); err != nil {
		middleware.StoreError(w, err, "Failed to create project")
		return
	}

	slog.Info("project created", "project_id", p.ID, "type", p.ProjectType, "creator", user.ID)
	middleware.JSONResponse(w, http.StatusCreated, p.Response(models.RoleProjectAdmin))
}

// GetProject handles GET /projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, anyMember)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, a.project.Response(a.role))
}

// UpdateProject handles PATCH /projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.store.Projects.Update(r.Context(), a.project.ID, req)
	if err != nil {
		middleware.StoreError(w, err, "Failed to update project")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p.Response(a.role))
}

// DeleteProject handles DELETE /projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	if err := h.store.Projects.Delete(r.Context(), a.project.ID); err != nil {
		middleware.StoreError(w, err, "Failed to delete project")
		return
	}

	slog.Info("project deleted", "project_id", a.project.ID, "by", a.user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// GetStatistics handles GET /projects/{id}/statistics
func (h *ProjectHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, anyMember)
	if !ok {
		return
	}

	stats, err := h.store.Projects.Statistics(r.Context(), a.project, a.user.ID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to compute statistics")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}

// ListRoleMappings handles GET /projects/{id}/roles
func (h *ProjectHandler) ListRoleMappings(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	mappings, err := h.store.Roles.ListMappings(r.Context(), a.project.ID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to list roles")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, mappings)
}

// AssignRole handles POST /projects/{id}/roles. Assigning replaces any
// role the user already holds in the project.
func (h *ProjectHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	var req models.AssignRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := h.store.Users.Get(r.Context(), req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.ValidationErrorResponse(w, models.NewValidationError("user", "Invalid pk - object does not exist."))
			return
		}
		middleware.StoreError(w, err, "Failed to assign role")
		return
	}

	m, err := h.store.Roles.Assign(r.Context(), a.project.ID, req.UserID, req.Role)
	if err != nil {
		middleware.StoreError(w, err, "Failed to assign role")
		return
	}

	slog.Info("role assigned", "project_id", a.project.ID, "user_id", req.UserID, "role", req.Role)
	middleware.JSONResponse(w, http.StatusCreated, m)
}

// UnassignRole handles DELETE /projects/{id}/roles/{mapping_id}
func (h *ProjectHandler) UnassignRole(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}
	mappingID, ok := pathID(w, r, "mapping_id")
	if !ok {
		return
	}

	if err := h.store.Roles.Unassign(r.Context(), a.project.ID, mappingID); err != nil {
		middleware.StoreError(w, err, "Failed to remove role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
