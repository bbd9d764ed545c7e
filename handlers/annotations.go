// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"

	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

const maxBodySize = 1 << 20

type AnnotationHandler struct {
	cfg   cliparse.Config
	store *store.Store
}

func NewAnnotationHandler(db *sql.DB, cfg cliparse.Config) *AnnotationHandler {
	return &AnnotationHandler{cfg: cfg, store: store.New(db)}
}

// annotationTarget resolves the project, document and annotation
// repository shared by every annotation route.
func (h *AnnotationHandler) annotationTarget(w http.ResponseWriter, r *http.Request) (*access, *models.Document, *store.AnnotationRepo, bool) {
	a, ok := projectAccess(w, r, h.store, anyMember)
	if !ok {
		return nil, nil, nil, false
	}
	d, ok := a.document(w, r, h.store)
	if !ok {
		return nil, nil, nil, false
	}
	repo, err := h.store.ForProject(a.project)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load annotations")
		return nil, nil, nil, false
	}
	return a, d, repo, true
}

// ListAnnotations handles GET /projects/{id}/docs/{doc_id}/annotations
func (h *AnnotationHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	a, d, repo, ok := h.annotationTarget(w, r)
	if !ok {
		return
	}

	owner := a.user.ID
	if a.project.CollaborativeAnnotation {
		owner = 0
	}
	annotations, err := repo.List(r.Context(), d.ID, owner)
	if err != nil {
		middleware.StoreError(w, err, "Failed to list annotations")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, annotations)
}

// CreateAnnotation handles POST /projects/{id}/docs/{doc_id}/annotations.
// The body shape depends on the project type.
func (h *AnnotationHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	a, d, repo, ok := h.annotationTarget(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	ann, err := repo.Decode(body)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	b := ann.Base()
	b.ID, b.DocumentID, b.UserID = 0, d.ID, a.user.ID
	if err := repo.Validate(r.Context(), a.project.ID, ann); err != nil {
		middleware.StoreError(w, err, "Failed to create annotation")
		return
	}
	if err := repo.Create(r.Context(), ann); err != nil {
		middleware.StoreError(w, err, "Failed to create annotation")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, ann)
}

// ownAnnotation loads {annotation_id} and checks that the caller wrote
// it or administers the project.
func (h *AnnotationHandler) ownAnnotation(w http.ResponseWriter, r *http.Request) (*access, *store.AnnotationRepo, models.Annotation, bool) {
	a, d, repo, ok := h.annotationTarget(w, r)
	if !ok {
		return nil, nil, nil, false
	}
	id, ok := pathID(w, r, "annotation_id")
	if !ok {
		return nil, nil, nil, false
	}

	ann, err := repo.Get(r.Context(), d.ID, id)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load annotation")
		return nil, nil, nil, false
	}
	if ann.Base().UserID != a.user.ID && !a.isAdmin() {
		middleware.ErrorResponse(w, http.StatusForbidden, msgForbidden)
		return nil, nil, nil, false
	}
	return a, repo, ann, true
}

// GetAnnotation handles GET /projects/{id}/docs/{doc_id}/annotations/{annotation_id}
func (h *AnnotationHandler) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	_, _, ann, ok := h.ownAnnotation(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ann)
}

// UpdateAnnotation handles PATCH /projects/{id}/docs/{doc_id}/annotations/{annotation_id}
func (h *AnnotationHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	a, repo, ann, ok := h.ownAnnotation(w, r)
	if !ok {
		return
	}

	keep := *ann.Base()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(ann); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	b := ann.Base()
	b.ID, b.DocumentID, b.UserID, b.CreatedAt = keep.ID, keep.DocumentID, keep.UserID, keep.CreatedAt

	if err := repo.Validate(r.Context(), a.project.ID, ann); err != nil {
		middleware.StoreError(w, err, "Failed to update annotation")
		return
	}
	if err := repo.Update(r.Context(), ann); err != nil {
		middleware.StoreError(w, err, "Failed to update annotation")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ann)
}

// DeleteAnnotation handles DELETE /projects/{id}/docs/{doc_id}/annotations/{annotation_id}
func (h *AnnotationHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	_, repo, ann, ok := h.ownAnnotation(w, r)
	if !ok {
		return
	}

	b := ann.Base()
	if err := repo.Delete(r.Context(), b.DocumentID, b.ID); err != nil {
		middleware.StoreError(w, err, "Failed to delete annotation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
