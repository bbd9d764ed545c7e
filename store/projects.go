// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"

	"github.com/danielhkuo/doclabel/models"
)

type Projects struct {
	conn *sql.DB
}

const projectColumns = `id, name, description, guideline, project_type,
	randomize_document_order, collaborative_annotation, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Guideline, &p.ProjectType,
		&p.RandomizeDocumentOrder, &p.CollaborativeAnnotation, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores the project and makes creatorID its project admin.
func (r *Projects) Create(ctx context.Context, p *models.Project, creatorID int64) error {
	if err := p.Clean(); err != nil {
		return err
	}

	ts := now()
	return inTx(ctx, r.conn, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO project (name, description, guideline, project_type,
				randomize_document_order, collaborative_annotation, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, p.Name, p.Description, p.Guideline, p.ProjectType,
			p.RandomizeDocumentOrder, p.CollaborativeAnnotation, ts, ts).Scan(&p.ID)
		if err != nil {
			return wrap("create project", err)
		}
		p.CreatedAt, p.UpdatedAt = ts, ts

		if _, err := assignRole(ctx, tx, p.ID, creatorID, models.RoleProjectAdmin); err != nil {
			return err
		}
		p.Users = []int64{creatorID}
		return nil
	})
}

func (r *Projects) Get(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(r.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM project WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get project", err)
	}

	if p.Users, err = r.members(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByName returns the oldest project with the given name.
func (r *Projects) GetByName(ctx context.Context, name string) (*models.Project, error) {
	var id int64
	err := r.conn.QueryRowContext(ctx,
		`SELECT id FROM project WHERE name = $1 ORDER BY id LIMIT 1`, name).Scan(&id)
	if err != nil {
		return nil, wrap("get project by name", err)
	}
	return r.Get(ctx, id)
}

func (r *Projects) members(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT user_id FROM project_user WHERE project_id = $1 ORDER BY user_id`, projectID)
	if err != nil {
		return nil, wrap("list project members", err)
	}
	defer rows.Close()

	users := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan project member", err)
		}
		users = append(users, id)
	}
	return users, wrap("list project members", rows.Err())
}

// AddMember adds a user to the project without giving them a role.
func (r *Projects) AddMember(ctx context.Context, projectID, userID int64) error {
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO project_user (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`, projectID, userID)
	return wrap("add project member", err)
}

func (r *Projects) IsMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var n int
	err := r.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM project_user WHERE project_id = $1 AND user_id = $2
	`, projectID, userID).Scan(&n)
	if err != nil {
		return false, wrap("check project member", err)
	}
	return n > 0, nil
}

// Update applies the non-nil fields of req.
func (r *Projects) Update(ctx context.Context, id int64, req models.UpdateProjectRequest) (*models.Project, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Guideline != nil {
		p.Guideline = *req.Guideline
	}
	if req.RandomizeDocumentOrder != nil {
		p.RandomizeDocumentOrder = *req.RandomizeDocumentOrder
	}
	if req.CollaborativeAnnotation != nil {
		p.CollaborativeAnnotation = *req.CollaborativeAnnotation
	}
	if err := p.Clean(); err != nil {
		return nil, err
	}

	p.UpdatedAt = now()
	_, err = r.conn.ExecContext(ctx, `
		UPDATE project
		SET name = $1, description = $2, guideline = $3,
			randomize_document_order = $4, collaborative_annotation = $5, updated_at = $6
		WHERE id = $7
	`, p.Name, p.Description, p.Guideline, p.RandomizeDocumentOrder,
		p.CollaborativeAnnotation, p.UpdatedAt, id)
	if err != nil {
		return nil, wrap("update project", err)
	}
	return p, nil
}

func (r *Projects) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM project WHERE id = $1`, id)
	if err != nil {
		return wrap("delete project", err)
	}
	return rowsAffected("delete project", res)
}

// ListForUser returns the projects the user is a member of, or every
// project for a superuser.
func (r *Projects) ListForUser(ctx context.Context, user *models.User) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project ORDER BY id`
	args := []any{}
	if !user.IsSuperuser {
		query = `SELECT ` + projectColumns + ` FROM project
			WHERE id IN (SELECT project_id FROM project_user WHERE user_id = $1)
			ORDER BY id`
		args = append(args, user.ID)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list projects", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, wrap("scan project", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list projects", err)
	}
	rows.Close()

	for i := range projects {
		if projects[i].Users, err = r.members(ctx, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// Statistics summarizes annotation progress. Remaining counts documents
// the user has not annotated yet.
func (r *Projects) Statistics(ctx context.Context, p *models.Project, userID int64) (*models.Statistics, error) {
	table := annotationTables[p.ProjectType.AnnotationKind()]
	stats := &models.Statistics{Labels: map[string]int{}, Users: map[string]int{}}

	err := r.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN annotations_approved_by IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM document WHERE project_id = $1
	`, p.ID).Scan(&stats.Total, &stats.Approved)
	if err != nil {
		return nil, wrap("count documents", err)
	}

	var done int
	err = r.conn.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT a.document_id)
		FROM `+table.name+` a
		JOIN document d ON d.id = a.document_id
		WHERE d.project_id = $1 AND a.user_id = $2
	`, p.ID, userID).Scan(&done)
	if err != nil {
		return nil, wrap("count annotated documents", err)
	}
	stats.Remaining = stats.Total - done

	if err := r.countInto(ctx, stats.Users, `
		SELECT u.username, COUNT(*)
		FROM `+table.name+` a
		JOIN document d ON d.id = a.document_id
		JOIN app_user u ON u.id = a.user_id
		WHERE d.project_id = $1
		GROUP BY u.username
	`, p.ID); err != nil {
		return nil, err
	}

	if table.labeled {
		if err := r.countInto(ctx, stats.Labels, `
			SELECT l.text, COUNT(*)
			FROM `+table.name+` a
			JOIN label l ON l.id = a.label_id
			WHERE l.project_id = $1
			GROUP BY l.text
		`, p.ID); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *Projects) countInto(ctx context.Context, into map[string]int, query string, args ...any) error {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return wrap("count annotations", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return wrap("scan count", err)
		}
		into[key] = n
	}
	return wrap("count annotations", rows.Err())
}
