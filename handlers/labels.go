// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

type LabelHandler struct {
	cfg   cliparse.Config
	store *store.Store
}

func NewLabelHandler(db *sql.DB, cfg cliparse.Config) *LabelHandler {
	return &LabelHandler{cfg: cfg, store: store.New(db)}
}

// ListLabels handles GET /projects/{id}/labels
func (h *LabelHandler) ListLabels(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, anyMember)
	if !ok {
		return
	}

	labels, err := h.store.Labels.List(r.Context(), a.project.ID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to list labels")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, labels)
}

// CreateLabel handles POST /projects/{id}/labels
func (h *LabelHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	var req models.LabelRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	l := &models.Label{
		ProjectID:       a.project.ID,
		Text:            req.Text,
		PrefixKey:       req.PrefixKey,
		SuffixKey:       req.SuffixKey,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
	}
	if err := h.store.Labels.FullClean(r.Context(), l); err != nil {
		middleware.StoreError(w, err, "Failed to create label")
		return
	}
	if err := h.store.Labels.Create(r.Context(), l); err != nil {
		middleware.StoreError(w, err, "Failed to create label")
		return
	}

	slog.Info("label created", "project_id", a.project.ID, "label_id", l.ID)
	middleware.JSONResponse(w, http.StatusCreated, l)
}

// GetLabel handles GET /projects/{id}/labels/{label_id}
func (h *LabelHandler) GetLabel(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, anyMember)
	if !ok {
		return
	}
	labelID, ok := pathID(w, r, "label_id")
	if !ok {
		return
	}

	l, err := h.store.Labels.Get(r.Context(), a.project.ID, labelID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load label")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, l)
}

// UpdateLabel handles PATCH /projects/{id}/labels/{label_id}. Fields
// missing from the body keep their stored values.
func (h *LabelHandler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}
	labelID, ok := pathID(w, r, "label_id")
	if !ok {
		return
	}

	l, err := h.store.Labels.Get(r.Context(), a.project.ID, labelID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load label")
		return
	}

	// Decoding over the stored label leaves absent fields untouched.
	req := models.LabelRequest{
		Text:            l.Text,
		PrefixKey:       l.PrefixKey,
		SuffixKey:       l.SuffixKey,
		BackgroundColor: l.BackgroundColor,
		TextColor:       l.TextColor,
	}
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	l.Text, l.PrefixKey, l.SuffixKey = req.Text, req.PrefixKey, req.SuffixKey
	l.BackgroundColor, l.TextColor = req.BackgroundColor, req.TextColor

	if err := h.store.Labels.FullClean(r.Context(), l); err != nil {
		middleware.StoreError(w, err, "Failed to update label")
		return
	}
	if err := h.store.Labels.Update(r.Context(), l); err != nil {
		middleware.StoreError(w, err, "Failed to update label")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, l)
}

// DeleteLabel handles DELETE /projects/{id}/labels/{label_id}
func (h *LabelHandler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}
	labelID, ok := pathID(w, r, "label_id")
	if !ok {
		return
	}

	if err := h.store.Labels.Delete(r.Context(), a.project.ID, labelID); err != nil {
		middleware.StoreError(w, err, "Failed to delete label")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
