// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the doclabel API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

NewHandler adds GET /metrics and the middleware chain used in production
(CORS, session resolution, request metrics):

	handler := router.NewHandler(db, cfg, prometheus.NewRegistry())

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Users and sessions:

	POST /auth/login  - Start a session (cookie and bearer token)
	POST /auth/logout - Clear the session cookie
	GET  /me          - Current user
	GET  /users       - List users
	POST /users       - Create user (superusers)
	GET  /roles       - List roles

Projects:

	GET    /projects                          - Projects of the caller
	POST   /projects                          - Create; caller becomes project admin
	GET    /projects/{id}                     - Project details
	PATCH  /projects/{id}                     - Update (admin)
	DELETE /projects/{id}                     - Delete (admin)
	GET    /projects/{id}/statistics          - Progress totals
	GET    /projects/{id}/roles               - Role mappings (admin)
	POST   /projects/{id}/roles               - Assign role (admin)
	DELETE /projects/{id}/roles/{mapping_id}  - Unassign role (admin)

Labels, documents and annotations live under /projects/{id}/labels and
/projects/{id}/docs. Document feedback:

	POST   /projects/{id}/docs/{doc_id}/feedback - Create or update own feedback
	GET    /projects/{id}/docs/{doc_id}/feedback - Own feedback
	DELETE /projects/{id}/docs/{doc_id}/feedback - Delete own feedback
	GET    /projects/{id}/feedback               - All feedback (approvers)

# Handler Initialization

The router creates handler instances with dependency injection:

	authHandler := handlers.NewAuthHandler(db, cfg)
	projectHandler := handlers.NewProjectHandler(db, cfg)
	feedbackHandler := handlers.NewFeedbackHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
