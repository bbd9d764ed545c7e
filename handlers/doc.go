// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the doclabel API.

# Handler Types

Each handler is a struct with config and store dependencies:

  - AuthHandler: Login, logout, users and roles
  - ProjectHandler: Projects, statistics and role mappings
  - LabelHandler: Project labels and shortcut keys
  - DocumentHandler: Documents, approval, upload and download
  - AnnotationHandler: Annotations of the project's kind
  - FeedbackHandler: Per-user document feedback

Handlers are created via constructor functions that accept *sql.DB and Config:

	feedbackHandler := handlers.NewFeedbackHandler(db, cfg)

# Permissions

The session middleware puts the caller in the request context. Project
routes resolve the caller's role in the project named by {id}:

	annotator           - read the project, annotate, leave feedback
	annotation_approver - also approve documents and read all feedback
	project_admin       - also manage the project, labels, documents and roles

Superusers pass every check. Anonymous callers get 403 with
"Authentication credentials were not provided." and members lacking the
role get 403. Unknown or malformed ids get 404.

# Annotations

The annotation body depends on the project type:

	DocumentClassification - {"label"}
	SequenceLabeling       - {"label", "start_offset", "end_offset"}
	Seq2seq, Speech2text   - {"text"}

Annotators see only their own annotations unless the project is
collaborative.

# Feedback

Each user keeps at most one feedback per document. POST creates it
(201) or replaces its text (200):

	POST /projects/{id}/docs/{doc_id}/feedback {"text": "...", "doc_id": 1}
*/
package handlers
