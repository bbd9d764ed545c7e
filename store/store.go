// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/doclabel/db"
	"github.com/danielhkuo/doclabel/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrIntegrity wraps unique, check and foreign key violations.
	ErrIntegrity = errors.New("integrity error")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups the repositories that share one connection pool.
type Store struct {
	conn *sql.DB

	Users     *Users
	Roles     *Roles
	Projects  *Projects
	Documents *Documents
	Labels    *Labels
	Feedback  *Feedback

	annotations map[models.AnnotationKind]*AnnotationRepo
}

func New(conn *sql.DB) *Store {
	s := &Store{conn: conn}
	s.Users = &Users{conn: conn}
	s.Roles = &Roles{conn: conn}
	s.Projects = &Projects{conn: conn}
	s.Documents = &Documents{conn: conn}
	s.Labels = &Labels{conn: conn}
	s.Feedback = &Feedback{conn: conn}
	s.annotations = make(map[models.AnnotationKind]*AnnotationRepo, len(annotationTables))
	for kind, table := range annotationTables {
		s.annotations[kind] = &AnnotationRepo{conn: conn, table: table}
	}
	return s
}

// Annotations returns the repository for an annotation kind.
func (s *Store) Annotations(kind models.AnnotationKind) (*AnnotationRepo, error) {
	repo, ok := s.annotations[kind]
	if !ok {
		return nil, fmt.Errorf("unknown annotation kind %q", kind)
	}
	return repo, nil
}

// ForProject returns the annotation repository matching the project type.
func (s *Store) ForProject(p *models.Project) (*AnnotationRepo, error) {
	return s.Annotations(p.ProjectType.AnnotationKind())
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return inTx(ctx, s.conn, fn)
}

func inTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// wrap annotates err with op and maps driver errors onto the package
// sentinels.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case db.IsConstraintViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrIntegrity, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func now() time.Time {
	// Postgres keeps microseconds; truncating keeps round trips equal.
	return time.Now().UTC().Truncate(time.Microsecond)
}

// placeholders renders "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(parts, ", ")
}

func rowsAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
