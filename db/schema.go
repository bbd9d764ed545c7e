// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application and seeds
// the built-in roles.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB, dbType string) error {
	ddl, err := SchemaFor(dbType)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table created by CreateSchema.
func DropSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// SchemaFor renders the DDL for the given dialect.
func SchemaFor(dbType string) (string, error) {
	var r *strings.Replacer
	switch dbType {
	case Postgres:
		r = strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{now}}", "NOW()",
		)
	case SQLite:
		r = strings.NewReplacer(
			"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{ts}}", "TIMESTAMP",
			"{{now}}", "CURRENT_TIMESTAMP",
		)
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
	return r.Replace(schema), nil
}

// Drop order: children before parents.
var tables = []string{
	"document_feedback",
	"speech2text_annotation",
	"seq2seq_annotation",
	"sequence_annotation",
	"document_annotation",
	"label",
	"document",
	"role_mapping",
	"project_user",
	"project",
	"role",
	"app_user",
}

const schema = `
-- Users
CREATE TABLE IF NOT EXISTS app_user (
    id {{pk}},
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{ts}} NOT NULL DEFAULT {{now}}
);

-- Roles
CREATE TABLE IF NOT EXISTS role (
    id {{pk}},
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT ''
);

INSERT INTO role (name, description) VALUES
    ('project_admin', 'Manages the project, its members, labels and documents'),
    ('annotator', 'Annotates documents'),
    ('annotation_approver', 'Annotates documents and approves annotations')
ON CONFLICT (name) DO NOTHING;

-- Projects
CREATE TABLE IF NOT EXISTS project (
    id {{pk}},
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    guideline TEXT NOT NULL DEFAULT '',
    project_type TEXT NOT NULL CHECK (project_type IN ('DocumentClassification', 'SequenceLabeling', 'Seq2seq', 'Speech2text')),
    randomize_document_order BOOLEAN NOT NULL DEFAULT FALSE,
    collaborative_annotation BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}}
);

CREATE TABLE IF NOT EXISTS project_user (
    project_id BIGINT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    PRIMARY KEY (project_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_project_user_user_id ON project_user(user_id);

-- Role mappings: one role per user per project
CREATE TABLE IF NOT EXISTS role_mapping (
    id {{pk}},
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    project_id BIGINT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
    role_id BIGINT NOT NULL REFERENCES role(id) ON DELETE CASCADE,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    UNIQUE (user_id, project_id)
);

CREATE INDEX IF NOT EXISTS idx_role_mapping_project_id ON role_mapping(project_id);

-- Documents
CREATE TABLE IF NOT EXISTS document (
    id {{pk}},
    project_id BIGINT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    meta TEXT NOT NULL DEFAULT '{}',
    annotations_approved_by BIGINT REFERENCES app_user(id) ON DELETE SET NULL,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}}
);

CREATE INDEX IF NOT EXISTS idx_document_project_id ON document(project_id);

-- Labels
CREATE TABLE IF NOT EXISTS label (
    id {{pk}},
    project_id BIGINT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    prefix_key TEXT CHECK (prefix_key IN ('ctrl', 'shift', 'ctrl shift')),
    suffix_key TEXT,
    background_color TEXT NOT NULL DEFAULT '#209cee',
    text_color TEXT NOT NULL DEFAULT '#ffffff',
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}},
    UNIQUE (project_id, text)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_label_shortcut
    ON label(project_id, COALESCE(prefix_key, ''), suffix_key)
    WHERE suffix_key IS NOT NULL;

-- Annotations
CREATE TABLE IF NOT EXISTS document_annotation (
    id {{pk}},
    document_id BIGINT NOT NULL REFERENCES document(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    label_id BIGINT NOT NULL REFERENCES label(id) ON DELETE CASCADE,
    prob REAL NOT NULL DEFAULT 0,
    manual BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}},
    UNIQUE (document_id, user_id, label_id)
);

CREATE TABLE IF NOT EXISTS sequence_annotation (
    id {{pk}},
    document_id BIGINT NOT NULL REFERENCES document(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    label_id BIGINT NOT NULL REFERENCES label(id) ON DELETE CASCADE,
    start_offset INTEGER NOT NULL CHECK (start_offset >= 0),
    end_offset INTEGER NOT NULL,
    prob REAL NOT NULL DEFAULT 0,
    manual BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}},
    CHECK (start_offset < end_offset),
    UNIQUE (document_id, user_id, label_id, start_offset, end_offset)
);

CREATE TABLE IF NOT EXISTS seq2seq_annotation (
    id {{pk}},
    document_id BIGINT NOT NULL REFERENCES document(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    prob REAL NOT NULL DEFAULT 0,
    manual BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}},
    UNIQUE (document_id, user_id, text)
);

CREATE TABLE IF NOT EXISTS speech2text_annotation (
    id {{pk}},
    document_id BIGINT NOT NULL REFERENCES document(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    prob REAL NOT NULL DEFAULT 0,
    manual BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}},
    UNIQUE (document_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_document_annotation_document_id ON document_annotation(document_id);
CREATE INDEX IF NOT EXISTS idx_sequence_annotation_document_id ON sequence_annotation(document_id);
CREATE INDEX IF NOT EXISTS idx_seq2seq_annotation_document_id ON seq2seq_annotation(document_id);
CREATE INDEX IF NOT EXISTS idx_speech2text_annotation_document_id ON speech2text_annotation(document_id);

-- Feedback: one row per user per document
CREATE TABLE IF NOT EXISTS document_feedback (
    id {{pk}},
    document_id BIGINT NOT NULL REFERENCES document(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    created_at {{ts}} NOT NULL DEFAULT {{now}},
    updated_at {{ts}} NOT NULL DEFAULT {{now}},
    UNIQUE (document_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_document_feedback_user_id ON document_feedback(user_id);
`
