// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/doclabel/auth"
	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/handlers"
	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/store"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	projectHandler := handlers.NewProjectHandler(db, cfg)
	labelHandler := handlers.NewLabelHandler(db, cfg)
	documentHandler := handlers.NewDocumentHandler(db, cfg)
	annotationHandler := handlers.NewAnnotationHandler(db, cfg)
	feedbackHandler := handlers.NewFeedbackHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Users and sessions
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(authHandler.Login))
	mux.HandleFunc("POST /auth/logout", middleware.WithLogging(authHandler.Logout))
	mux.HandleFunc("GET /me", middleware.WithLogging(authHandler.Me))
	mux.HandleFunc("GET /users", middleware.WithLogging(authHandler.ListUsers))
	mux.HandleFunc("POST /users", middleware.WithLogging(authHandler.CreateUser))
	mux.HandleFunc("GET /roles", middleware.WithLogging(authHandler.ListRoles))

	// Projects and membership
	mux.HandleFunc("GET /projects", middleware.WithLogging(projectHandler.ListProjects))
	mux.HandleFunc("POST /projects", middleware.WithLogging(projectHandler.CreateProject))
	mux.HandleFunc("GET /projects/{id}", middleware.WithLogging(projectHandler.GetProject))
	mux.HandleFunc("PATCH /projects/{id}", middleware.WithLogging(projectHandler.UpdateProject))
	mux.HandleFunc("DELETE /projects/{id}", middleware.WithLogging(projectHandler.DeleteProject))
	mux.HandleFunc("GET /projects/{id}/statistics", middleware.WithLogging(projectHandler.GetStatistics))
	mux.HandleFunc("GET /projects/{id}/roles", middleware.WithLogging(projectHandler.ListRoleMappings))
	mux.HandleFunc("POST /projects/{id}/roles", middleware.WithLogging(projectHandler.AssignRole))
	mux.HandleFunc("DELETE /projects/{id}/roles/{mapping_id}", middleware.WithLogging(projectHandler.UnassignRole))

	// Labels
	mux.HandleFunc("GET /projects/{id}/labels", middleware.WithLogging(labelHandler.ListLabels))
	mux.HandleFunc("POST /projects/{id}/labels", middleware.WithLogging(labelHandler.CreateLabel))
	mux.HandleFunc("GET /projects/{id}/labels/{label_id}", middleware.WithLogging(labelHandler.GetLabel))
	mux.HandleFunc("PATCH /projects/{id}/labels/{label_id}", middleware.WithLogging(labelHandler.UpdateLabel))
	mux.HandleFunc("DELETE /projects/{id}/labels/{label_id}", middleware.WithLogging(labelHandler.DeleteLabel))

	// Documents
	mux.HandleFunc("GET /projects/{id}/docs", middleware.WithLogging(documentHandler.ListDocuments))
	mux.HandleFunc("POST /projects/{id}/docs", middleware.WithLogging(documentHandler.CreateDocument))
	mux.HandleFunc("POST /projects/{id}/docs/upload", middleware.WithLogging(documentHandler.UploadDocuments))
	mux.HandleFunc("GET /projects/{id}/docs/download", middleware.WithLogging(documentHandler.DownloadDocuments))
	mux.HandleFunc("GET /projects/{id}/docs/{doc_id}", middleware.WithLogging(documentHandler.GetDocument))
	mux.HandleFunc("PATCH /projects/{id}/docs/{doc_id}", middleware.WithLogging(documentHandler.UpdateDocument))
	mux.HandleFunc("DELETE /projects/{id}/docs/{doc_id}", middleware.WithLogging(documentHandler.DeleteDocument))
	mux.HandleFunc("POST /projects/{id}/docs/{doc_id}/approve", middleware.WithLogging(documentHandler.ApproveDocument))

	// Annotations (shape depends on the project type)
	mux.HandleFunc("GET /projects/{id}/docs/{doc_id}/annotations", middleware.WithLogging(annotationHandler.ListAnnotations))
	mux.HandleFunc("POST /projects/{id}/docs/{doc_id}/annotations", middleware.WithLogging(annotationHandler.CreateAnnotation))
	mux.HandleFunc("GET /projects/{id}/docs/{doc_id}/annotations/{annotation_id}", middleware.WithLogging(annotationHandler.GetAnnotation))
	mux.HandleFunc("PATCH /projects/{id}/docs/{doc_id}/annotations/{annotation_id}", middleware.WithLogging(annotationHandler.UpdateAnnotation))
	mux.HandleFunc("DELETE /projects/{id}/docs/{doc_id}/annotations/{annotation_id}", middleware.WithLogging(annotationHandler.DeleteAnnotation))

	// Document feedback
	mux.HandleFunc("POST /projects/{id}/docs/{doc_id}/feedback", middleware.WithLogging(feedbackHandler.PostFeedback))
	mux.HandleFunc("GET /projects/{id}/docs/{doc_id}/feedback", middleware.WithLogging(feedbackHandler.GetFeedback))
	mux.HandleFunc("DELETE /projects/{id}/docs/{doc_id}/feedback", middleware.WithLogging(feedbackHandler.DeleteFeedback))
	mux.HandleFunc("GET /projects/{id}/feedback", middleware.WithLogging(feedbackHandler.ListProjectFeedback))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("doclabel API v1"))
	})

	return mux
}

// NewHandler wraps the routes in the full middleware chain: CORS, session
// resolution, then request metrics. GET /metrics exposes what reg gathers.
func NewHandler(db *sql.DB, cfg cliparse.Config, reg *prometheus.Registry) http.Handler {
	mux := NewRouter(db, cfg)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	metrics := middleware.NewMetrics(reg)
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)
	users := store.New(db).Users

	return middleware.CORS(cfg.AllowedOrigin)(
		middleware.WithSession(sessions, users)(
			metrics.WithMetrics(mux)))
}
