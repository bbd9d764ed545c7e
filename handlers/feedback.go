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

type FeedbackHandler struct {
	cfg   cliparse.Config
	store *store.Store
}

func NewFeedbackHandler(db *sql.DB, cfg cliparse.Config) *FeedbackHandler {
	return &FeedbackHandler{cfg: cfg, store: store.New(db)}
}

func feedbackResponse(f *models.DocumentFeedback) models.FeedbackResponse {
	return models.FeedbackResponse{ID: f.ID, Text: f.Text, Document: f.DocumentID, Username: f.Username}
}

// PostFeedback handles POST /projects/{id}/docs/{doc_id}/feedback.
// The first post creates the caller's feedback (201); later posts
// replace its text (200).
func (h *FeedbackHandler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, feedbackRoles)
	if !ok {
		return
	}
	d, ok := a.document(w, r, h.store)
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if body := max(req.DocID, req.DocumentID); body != 0 && body != d.ID {
		slog.Warn("feedback body names another document", "path_doc", d.ID, "body_doc", body)
	}

	f, created, err := h.store.Feedback.Upsert(r.Context(), d.ID, a.user.ID, req.Text)
	if err != nil {
		middleware.StoreError(w, err, "Failed to save feedback")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		slog.Info("feedback created", "feedback_id", f.ID, "document_id", d.ID, "user_id", a.user.ID)
	}
	middleware.JSONResponse(w, status, feedbackResponse(f))
}

// GetFeedback handles GET /projects/{id}/docs/{doc_id}/feedback
func (h *FeedbackHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, feedbackRoles)
	if !ok {
		return
	}
	d, ok := a.document(w, r, h.store)
	if !ok {
		return
	}

	f, err := h.store.Feedback.Get(r.Context(), d.ID, a.user.ID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load feedback")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, feedbackResponse(f))
}

// DeleteFeedback handles DELETE /projects/{id}/docs/{doc_id}/feedback
func (h *FeedbackHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, feedbackRoles)
	if !ok {
		return
	}
	d, ok := a.document(w, r, h.store)
	if !ok {
		return
	}

	f, err := h.store.Feedback.Get(r.Context(), d.ID, a.user.ID)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load feedback")
		return
	}
	if err := h.store.Feedback.Delete(r.Context(), f.ID); err != nil {
		middleware.StoreError(w, err, "Failed to delete feedback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjectFeedback handles GET /projects/{id}/feedback
func (h *FeedbackHandler) ListProjectFeedback(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, approvers)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", store.DefaultPageSize)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	list, count, err := h.store.Feedback.ListForProject(r.Context(), a.project.ID, limit, offset)
	if err != nil {
		middleware.StoreError(w, err, "Failed to list feedback")
		return
	}

	results := make([]models.FeedbackResponse, 0, len(list))
	for i := range list {
		results = append(results, feedbackResponse(&list[i]))
	}
	middleware.JSONResponse(w, http.StatusOK, models.FeedbackList{Count: count, Results: results})
}
