// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (request_id, method, path, remote) and completion
(status, duration_ms). The request id is taken from X-Request-ID or
generated, and echoed back in the response header.

# Sessions

WithSession resolves the bearer token or the sessionid cookie into a
user stored in the request context:

	handler := middleware.WithSession(sessions, store.Users)(mux)

Handlers call RequireUser, which answers anonymous requests with 403.

# Metrics

	m := middleware.NewMetrics(prometheus.DefaultRegisterer)
	handler := m.WithMetrics(mux)

WithMetrics must wrap the ServeMux itself so that the matched pattern is
visible after the mux returns.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(cfg.AllowedOrigin)(handler),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.StoreError(w, err, "Failed to create label")

StoreError maps validation errors to 400 with per-field messages,
store.ErrNotFound to 404 and store.ErrIntegrity to 409.
*/
package middleware
