// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/doclabel/models"
)

type Roles struct {
	conn *sql.DB
}

func (r *Roles) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id, name, description FROM role ORDER BY id`)
	if err != nil {
		return nil, wrap("list roles", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, wrap("scan role", err)
		}
		roles = append(roles, role)
	}
	return roles, wrap("list roles", rows.Err())
}

func (r *Roles) GetByName(ctx context.Context, name string) (*models.Role, error) {
	return getRoleByName(ctx, r.conn, name)
}

func getRoleByName(ctx context.Context, q querier, name string) (*models.Role, error) {
	var role models.Role
	err := q.QueryRowContext(ctx, `SELECT id, name, description FROM role WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewValidationError("role", fmt.Sprintf("%q is not a valid role.", name))
	}
	if err != nil {
		return nil, wrap("get role", err)
	}
	return &role, nil
}

// Assign gives the user roleName within the project, replacing any role
// they held before, and makes them a project member.
func (r *Roles) Assign(ctx context.Context, projectID, userID int64, roleName string) (*models.RoleMapping, error) {
	var mappingID int64
	err := inTx(ctx, r.conn, func(tx *sql.Tx) error {
		var err error
		mappingID, err = assignRole(ctx, tx, projectID, userID, roleName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetMapping(ctx, projectID, mappingID)
}

func assignRole(ctx context.Context, q querier, projectID, userID int64, roleName string) (int64, error) {
	role, err := getRoleByName(ctx, q, roleName)
	if err != nil {
		return 0, err
	}

	var mappingID int64
	err = q.QueryRowContext(ctx, `
		INSERT INTO role_mapping (user_id, project_id, role_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, project_id) DO UPDATE SET role_id = excluded.role_id
		RETURNING id
	`, userID, projectID, role.ID, now()).Scan(&mappingID)
	if err != nil {
		return 0, wrap("assign role", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO project_user (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`, projectID, userID)
	if err != nil {
		return 0, wrap("add project member", err)
	}
	return mappingID, nil
}

// Unassign removes a role mapping and the membership that came with it.
func (r *Roles) Unassign(ctx context.Context, projectID, mappingID int64) error {
	return inTx(ctx, r.conn, func(tx *sql.Tx) error {
		var userID int64
		err := tx.QueryRowContext(ctx, `
			DELETE FROM role_mapping WHERE id = $1 AND project_id = $2
			RETURNING user_id
		`, mappingID, projectID).Scan(&userID)
		if err != nil {
			return wrap("delete role mapping", err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM project_user WHERE project_id = $1 AND user_id = $2
		`, projectID, userID)
		return wrap("remove project member", err)
	})
}

const mappingQuery = `
	SELECT m.id, m.user_id, u.username, m.project_id, m.role_id, r.name, m.created_at
	FROM role_mapping m
	JOIN app_user u ON u.id = m.user_id
	JOIN role r ON r.id = m.role_id
`

func scanMapping(row interface{ Scan(...any) error }) (models.RoleMapping, error) {
	var m models.RoleMapping
	err := row.Scan(&m.ID, &m.UserID, &m.Username, &m.ProjectID, &m.RoleID, &m.RoleName, &m.CreatedAt)
	return m, err
}

func (r *Roles) GetMapping(ctx context.Context, projectID, mappingID int64) (*models.RoleMapping, error) {
	m, err := scanMapping(r.conn.QueryRowContext(ctx,
		mappingQuery+` WHERE m.id = $1 AND m.project_id = $2`, mappingID, projectID))
	if err != nil {
		return nil, wrap("get role mapping", err)
	}
	return &m, nil
}

func (r *Roles) ListMappings(ctx context.Context, projectID int64) ([]models.RoleMapping, error) {
	rows, err := r.conn.QueryContext(ctx, mappingQuery+` WHERE m.project_id = $1 ORDER BY m.id`, projectID)
	if err != nil {
		return nil, wrap("list role mappings", err)
	}
	defer rows.Close()

	mappings := []models.RoleMapping{}
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, wrap("scan role mapping", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, wrap("list role mappings", rows.Err())
}

// RoleOf returns the name of the user's role in the project, or
// ErrNotFound when they hold none.
func (r *Roles) RoleOf(ctx context.Context, projectID, userID int64) (string, error) {
	var name string
	err := r.conn.QueryRowContext(ctx, `
		SELECT r.name
		FROM role_mapping m
		JOIN role r ON r.id = m.role_id
		WHERE m.project_id = $1 AND m.user_id = $2
	`, projectID, userID).Scan(&name)
	if err != nil {
		return "", wrap("get role of user", err)
	}
	return name, nil
}
