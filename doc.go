// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the doclabel API server.

doclabel is a collaborative text annotation service. Project admins upload
documents and define labels; annotators classify documents, tag spans,
write translations or transcripts, and leave feedback on documents;
approvers sign off on finished work.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	SESSION_SECRET=... DATABASE_URL=doclabel.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -seed seed.yaml

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SESSION_SECRET (-session-secret): Session signing secret, 16+ bytes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - SESSION_TTL (-session-ttl): Session lifetime (default: 24h)
  - SEED_FILE (-seed): YAML users and projects applied at start
  - CORS_ORIGIN (-origin): Allowed CORS origin
  - LOG_FORMAT: "json" switches logs to JSON

A .env file in the working directory is loaded first.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers and permission checks
  - router: Route definitions using Go 1.22+ routing
  - middleware: Sessions, metrics, CORS, logging, JSON helpers
  - store: Repositories over database/sql
  - models: Domain, request and response types with validation
  - parsers: Upload formats and export
  - auth: Password hashing and session tokens
  - seed: YAML bootstrap
  - db: Connections, schema and constraint errors
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
