// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation and constraint errors.

# Connections

Open supports PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite):

	conn, err := db.Open(ctx, db.SQLite, "doclabel.db")

SQLite runs with foreign keys on and a single open connection.

# Schema Creation

CreateSchema initializes all required tables and the three roles:

	if err := db.CreateSchema(ctx, conn, db.Postgres); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - app_user, role, project, project_user, role_mapping
  - document, label
  - document_annotation, sequence_annotation, seq2seq_annotation,
    speech2text_annotation
  - document_feedback: unique per (document_id, user_id)

All foreign keys use ON DELETE CASCADE.

# Constraint Errors

IsUniqueViolation, IsCheckViolation and IsForeignKeyViolation classify
driver errors from either database.
*/
package db
