// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/parsers"
	"github.com/danielhkuo/doclabel/store"
)

const maxUploadSize = 32 << 20

type DocumentHandler struct {
	cfg   cliparse.Config
	store *store.Store
}

func NewDocumentHandler(db *sql.DB, cfg cliparse.Config) *DocumentHandler {
	return &DocumentHandler{cfg: cfg, store: store.New(db)}
}

// ListDocuments handles GET /projects/{id}/docs
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, anyMember)
	if !ok {
		return
	}

	filter := store.DocumentFilter{Query: r.URL.Query().Get("q")}
	var err error
	if filter.Limit, err = queryInt(r, "limit", store.DefaultPageSize); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "offset must be an integer")
		return
	}
	if v := r.URL.Query().Get("is_checked"); v != "" {
		checked, err := strconv.ParseBool(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "is_checked must be true or false")
			return
		}
		filter.Checked = &checked
	}
	if a.project.RandomizeDocumentOrder {
		filter.ShuffleFor = a.user.ID
	}

	docs, count, err := h.store.Documents.List(r.Context(), a.project.ID, filter)
	if err != nil {
		middleware.StoreError(w, err, "Failed to list documents")
		return
	}

	results := make([]models.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp, err := h.documentResponse(r.Context(), a, d)
		if err != nil {
			middleware.StoreError(w, err, "Failed to list documents")
			return
		}
		results = append(results, resp)
	}

	middleware.JSONResponse(w, http.StatusOK, models.DocumentList{Count: count, Results: results})
}

// documentResponse attaches the annotations visible to the caller and
// the caller's own feedback. Annotators only see their own annotations
// unless the project is collaborative.
func (h *DocumentHandler) documentResponse(ctx context.Context, a *access, d models.Document) (models.DocumentResponse, error) {
	resp := models.DocumentResponse{Document: d}

	repo, err := h.store.ForProject(a.project)
	if err != nil {
		return resp, err
	}
	owner := a.user.ID
	if a.project.CollaborativeAnnotation {
		owner = 0
	}
	if resp.Annotations, err = repo.List(ctx, d.ID, owner); err != nil {
		return resp, err
	}

	f, err := h.store.Feedback.Get(ctx, d.ID, a.user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return resp, err
	default:
		resp.DocumentFeedback = &models.FeedbackSummary{Text: f.Text, User: f.Username, Document: f.DocumentID}
	}
	return resp, nil
}

// CreateDocument handles POST /projects/{id}/docs
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	var req models.CreateDocumentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	d, err := h.store.Documents.Create(r.Context(), a.project.ID, req.Text, req.Meta)
	if err != nil {
		middleware.StoreError(w, err, "Failed to create document")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, d)
}

// GetDocument handles GET /projects/{id}/docs/{doc_id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, anyMember)
	if !ok {
		return
	}
	d, ok := a.document(w, r, h.store)
	if !ok {
		return
	}

	resp, err := h.documentResponse(r.Context(), a, *d)
	if err != nil {
		middleware.StoreError(w, err, "Failed to load document")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// UpdateDocument handles PATCH /projects/{id}/docs/{doc_id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}
	docID, ok := pathID(w, r, "doc_id")
	if !ok {
		return
	}

	var req models.UpdateDocumentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	d, err := h.store.Documents.Update(r.Context(), a.project.ID, docID, req)
	if err != nil {
		middleware.StoreError(w, err, "Failed to update document")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, d)
}

// DeleteDocument handles DELETE /projects/{id}/docs/{doc_id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}
	docID, ok := pathID(w, r, "doc_id")
	if !ok {
		return
	}

	if err := h.store.Documents.Delete(r.Context(), a.project.ID, docID); err != nil {
		middleware.StoreError(w, err, "Failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveDocument handles POST /projects/{id}/docs/{doc_id}/approve
func (h *DocumentHandler) ApproveDocument(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, approvers)
	if !ok {
		return
	}
	docID, ok := pathID(w, r, "doc_id")
	if !ok {
		return
	}

	var req models.ApproveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var approver *int64
	if req.Approved {
		approver = &a.user.ID
	}
	d, err := h.store.Documents.SetApprover(r.Context(), a.project.ID, docID, approver)
	if err != nil {
		middleware.StoreError(w, err, "Failed to approve document")
		return
	}

	slog.Info("document approval changed", "document_id", d.ID, "approved", req.Approved, "by", a.user.ID)
	middleware.JSONResponse(w, http.StatusOK, d)
}

// UploadDocuments handles POST /projects/{id}/docs/upload with a
// multipart body carrying "file" and "format".
func (h *DocumentHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}
	format := r.FormValue("format")
	if !slices.Contains(parsers.Formats, format) {
		middleware.ValidationErrorResponse(w, models.NewValidationError("format", fmt.Sprintf("%q is not a valid choice.", format)))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.ValidationErrorResponse(w, models.NewValidationError("file", "No file was submitted."))
		return
	}
	defer file.Close()

	docs, err := parsers.Parse(format, file)
	var perr *parsers.FileParseError
	if errors.As(err, &perr) {
		middleware.ErrorResponse(w, http.StatusBadRequest, perr.Error())
		return
	}
	if err != nil {
		slog.Error("failed to read upload", "project_id", a.project.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	resp, err := h.store.Import(r.Context(), a.project, a.user.ID, docs)
	if err != nil {
		middleware.StoreError(w, err, "Failed to import documents")
		return
	}

	slog.Info("documents uploaded", "project_id", a.project.ID, "format", format,
		"documents", resp.Documents, "labels", resp.Labels, "annotations", resp.Annotations)
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// DownloadDocuments handles GET /projects/{id}/docs/download. The
// export holds every document with the annotations of all users, in
// the jsonl upload format.
func (h *DocumentHandler) DownloadDocuments(w http.ResponseWriter, r *http.Request) {
	a, ok := projectAccess(w, r, h.store, adminOnly)
	if !ok {
		return
	}

	exported, err := h.export(r.Context(), a.project)
	if err != nil {
		middleware.StoreError(w, err, "Failed to export documents")
		return
	}

	w.Header().Set("Content-Type", "application/jsonl")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"project_%d.jsonl\"", a.project.ID))
	w.WriteHeader(http.StatusOK)
	if err := parsers.WriteJSONL(w, exported); err != nil {
		slog.Error("failed to write export", "project_id", a.project.ID, "error", err)
	}
}

func (h *DocumentHandler) export(ctx context.Context, p *models.Project) ([]models.ImportedDocument, error) {
	repo, err := h.store.ForProject(p)
	if err != nil {
		return nil, err
	}
	labels, err := h.store.Labels.List(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	labelText := make(map[int64]string, len(labels))
	for _, l := range labels {
		labelText[l.ID] = l.Text
	}

	docs, err := h.store.Documents.All(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	exported := make([]models.ImportedDocument, 0, len(docs))
	for _, d := range docs {
		out := models.ImportedDocument{Text: d.Text}
		if len(d.Meta) > 0 {
			if err := json.Unmarshal(d.Meta, &out.Meta); err != nil {
				return nil, fmt.Errorf("decode meta of document %d: %w", d.ID, err)
			}
			if len(out.Meta) == 0 {
				out.Meta = nil
			}
		}

		annotations, err := repo.List(ctx, d.ID, 0)
		if err != nil {
			return nil, err
		}
		for _, ann := range annotations {
			switch v := ann.(type) {
			case *models.DocumentAnnotation:
				if text := labelText[v.LabelID]; !slices.Contains(out.Labels, text) {
					out.Labels = append(out.Labels, text)
				}
			case *models.SequenceAnnotation:
				out.Spans = append(out.Spans, models.ImportedSpan{
					StartOffset: v.StartOffset, EndOffset: v.EndOffset, Label: labelText[v.LabelID],
				})
			case *models.Seq2seqAnnotation:
				out.Labels = append(out.Labels, v.Text)
			case *models.Speech2textAnnotation:
				out.Labels = append(out.Labels, v.Text)
			}
		}
		exported = append(exported, out)
	}
	return exported, nil
}
