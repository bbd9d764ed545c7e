// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type (sqlite or postgres)
	-session-secret  Session signing secret
	-session-ttl     Session lifetime
	-seed            YAML seed file
	-origin          Allowed CORS origin

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	SESSION_SECRET → -session-secret
	SESSION_TTL    → -session-ttl
	SEED_FILE      → -seed
	CORS_ORIGIN    → -origin
	LOG_FORMAT     (no flag)

CLI flags take precedence over environment variables. Variables from a
.env file (or the file named by ENV_FILE) fill in whatever the process
environment leaves unset.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - SESSION_SECRET is missing or shorter than 16 bytes
  - the port, database type or session TTL is invalid
*/
package cliparse
