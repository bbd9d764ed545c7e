// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - User, Role, RoleMapping: accounts and per-project roles
  - Project: annotation task of one ProjectType
  - Document: text to annotate, with JSON meta
  - Label: project label with optional shortcut keys and colors
  - DocumentFeedback: one free-text note per user per document
  - Annotation: implemented by DocumentAnnotation, SequenceAnnotation,
    Seq2seqAnnotation and Speech2textAnnotation

# Project Types

Each ProjectType selects an annotation kind, a front-end bundle and a
card image:

	DocumentClassification → document annotations
	SequenceLabeling       → sequence annotations (spans)
	Seq2seq                → seq2seq annotations (text)
	Speech2text            → speech2text annotations (text)

# Validation

Clean methods return a *ValidationError mapping field names to messages.
Errors not tied to one field are reported under NonFieldErrors.

	if err := label.Clean(); err != nil {
		// err.(*ValidationError).Fields["suffix_key"]
	}

# Request and Response Types

Types for incoming JSON end in Request; types for JSON responses end in
Response or List. ErrorResponse carries error, message and, for
validation failures, fields.
*/
package models
