// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/doclabel/db"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.CreateSchema(context.Background(), conn, db.SQLite))
	return conn
}

func TestCreateSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	require.NoError(t, db.CreateSchema(ctx, conn, db.SQLite))

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM role`).Scan(&n))
	assert.Equal(t, 3, n, "built-in roles are seeded exactly once")

	rows, err := conn.QueryContext(ctx, `SELECT name FROM role ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"annotation_approver", "annotator", "project_admin"}, names)
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	require.NoError(t, db.DropSchema(ctx, conn))
	_, err := conn.ExecContext(ctx, `SELECT COUNT(*) FROM project`)
	assert.Error(t, err)

	require.NoError(t, db.CreateSchema(ctx, conn, db.SQLite))
}

func TestSchemaFor(t *testing.T) {
	pg, err := db.SchemaFor(db.Postgres)
	require.NoError(t, err)
	assert.Contains(t, pg, "BIGSERIAL PRIMARY KEY")
	assert.NotContains(t, pg, "{{")

	lite, err := db.SchemaFor(db.SQLite)
	require.NoError(t, err)
	assert.Contains(t, lite, "AUTOINCREMENT")

	_, err = db.SchemaFor("mysql")
	assert.Error(t, err)
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := db.Open(context.Background(), "oracle", "whatever")
	assert.Error(t, err)
}

func TestConstraintClassification(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO app_user (username, password_hash, is_superuser) VALUES ('alice', 'x', FALSE)
	`)
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, `
		INSERT INTO app_user (username, password_hash, is_superuser) VALUES ('alice', 'y', FALSE)
	`)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err), "duplicate username: %v", err)
	assert.False(t, db.IsForeignKeyViolation(err))
	assert.True(t, db.IsConstraintViolation(err))

	_, err = conn.ExecContext(ctx, `
		INSERT INTO project (name, description, guideline, project_type, randomize_document_order, collaborative_annotation, created_at, updated_at)
		VALUES ('p', '', '', 'NotAType', FALSE, FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`)
	require.Error(t, err)
	assert.True(t, db.IsCheckViolation(err), "bad project type: %v", err)

	_, err = conn.ExecContext(ctx, `
		INSERT INTO document (project_id, text, meta, created_at, updated_at)
		VALUES (9999, 'orphan', '{}', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`)
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err), "missing project: %v", err)

	assert.False(t, db.IsConstraintViolation(nil))
	assert.False(t, db.IsConstraintViolation(errors.New("UNIQUE constraint failed: but not from sqlite")))
}
