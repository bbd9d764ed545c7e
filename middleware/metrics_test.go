// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "404" {
			w.WriteHeader(http.StatusNotFound)
		}
	})
	handler := m.WithMetrics(mux)

	for _, path := range []string{"/projects/1", "/projects/2", "/projects/404", "/nowhere"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, 2.0, promtest.ToFloat64(m.requests.WithLabelValues("GET /projects/{id}", "GET", "200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.requests.WithLabelValues("GET /projects/{id}", "GET", "404")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 2, promtest.CollectAndCount(m.duration))
}
