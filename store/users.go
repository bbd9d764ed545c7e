// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/danielhkuo/doclabel/auth"
	"github.com/danielhkuo/doclabel/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")

	usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)
)

type Users struct {
	conn *sql.DB
}

const userColumns = `id, username, password_hash, is_superuser, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create stores a new user with a hashed password.
func (r *Users) Create(ctx context.Context, username, password string, superuser bool) (*models.User, error) {
	if !usernamePattern.MatchString(username) {
		return nil, models.NewValidationError("username",
			"Enter a valid username: up to 150 letters, digits and @/./+/-/_ characters.")
	}

	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrWeakPassword) {
		return nil, models.NewValidationError("password", err.Error())
	}
	if err != nil {
		return nil, err
	}

	u := &models.User{Username: username, PasswordHash: hash, IsSuperuser: superuser, CreatedAt: now()}
	err = r.conn.QueryRowContext(ctx, `
		INSERT INTO app_user (username, password_hash, is_superuser, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Username, u.PasswordHash, u.IsSuperuser, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		return nil, wrap("create user", err)
	}
	return u, nil
}

// Authenticate returns the user when password matches.
func (r *Users) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := r.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate %s: %w", username, err)
	}
	return u, nil
}

func (r *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

func (r *Users) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE username = $1`, username))
	if err != nil {
		return nil, wrap("get user by username", err)
	}
	return u, nil
}

func (r *Users) List(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id, username FROM app_user ORDER BY id`)
	if err != nil {
		return nil, wrap("list users", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, wrap("scan user", err)
		}
		users = append(users, u)
	}
	return users, wrap("list users", rows.Err())
}
