// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

// File is the on-disk seed schema.
type File struct {
	Users    []User    `yaml:"users"`
	Projects []Project `yaml:"projects"`
}

type User struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Superuser bool   `yaml:"superuser,omitempty"`
}

type Project struct {
	Name          string             `yaml:"name"`
	Type          models.ProjectType `yaml:"type"`
	Description   string             `yaml:"description,omitempty"`
	Guideline     string             `yaml:"guideline,omitempty"`
	Randomize     bool               `yaml:"randomize_document_order,omitempty"`
	Collaborative bool               `yaml:"collaborative_annotation,omitempty"`
	Members       []Member           `yaml:"members"`
}

type Member struct {
	Username string `yaml:"username"`
	Role     string `yaml:"role"`
}

// Result counts what Apply created.
type Result struct {
	Users    int
	Projects int
	Roles    int
}

var roleNames = []string{models.RoleProjectAdmin, models.RoleAnnotationApprover, models.RoleAnnotator}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("seed: file is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return &f, nil
}

// Load reads a seed file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) validate() error {
	seen := map[string]bool{}
	for i, u := range f.Users {
		if u.Username == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		if seen[u.Username] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = true
	}

	for i, p := range f.Projects {
		if p.Name == "" {
			return fmt.Errorf("projects[%d]: name is required", i)
		}
		if !p.Type.Valid() {
			return fmt.Errorf("projects[%d]: unknown type %q", i, p.Type)
		}
		if p.admin() == "" {
			return fmt.Errorf("projects[%d]: needs a %s member", i, models.RoleProjectAdmin)
		}
		for j, m := range p.Members {
			if !slices.Contains(roleNames, m.Role) {
				return fmt.Errorf("projects[%d].members[%d]: unknown role %q", i, j, m.Role)
			}
		}
	}
	return nil
}

// admin is the first project_admin member; it becomes the creator.
func (p Project) admin() string {
	for _, m := range p.Members {
		if m.Role == models.RoleProjectAdmin {
			return m.Username
		}
	}
	return ""
}

// Apply creates the users and projects that do not exist yet and assigns
// every listed role. Users are matched by username and projects by name,
// so applying the same file twice changes nothing.
func (f *File) Apply(ctx context.Context, s *store.Store) (Result, error) {
	var res Result

	for _, u := range f.Users {
		_, err := s.Users.GetByUsername(ctx, u.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, fmt.Errorf("seed: look up user %s: %w", u.Username, err)
		}
		if _, err := s.Users.Create(ctx, u.Username, u.Password, u.Superuser); err != nil {
			return res, fmt.Errorf("seed: create user %s: %w", u.Username, err)
		}
		res.Users++
	}

	for _, p := range f.Projects {
		project, err := s.Projects.GetByName(ctx, p.Name)
		if errors.Is(err, store.ErrNotFound) {
			admin, err := s.Users.GetByUsername(ctx, p.admin())
			if err != nil {
				return res, fmt.Errorf("seed: project %s: admin %s: %w", p.Name, p.admin(), err)
			}
			project = &models.Project{
				Name:                    p.Name,
				Description:             p.Description,
				Guideline:               p.Guideline,
				ProjectType:             p.Type,
				RandomizeDocumentOrder:  p.Randomize,
				CollaborativeAnnotation: p.Collaborative,
			}
			if err := s.Projects.Create(ctx, project, admin.ID); err != nil {
				return res, fmt.Errorf("seed: create project %s: %w", p.Name, err)
			}
			res.Projects++
		} else if err != nil {
			return res, fmt.Errorf("seed: look up project %s: %w", p.Name, err)
		}

		for _, m := range p.Members {
			user, err := s.Users.GetByUsername(ctx, m.Username)
			if err != nil {
				return res, fmt.Errorf("seed: project %s: member %s: %w", p.Name, m.Username, err)
			}
			current, err := s.Roles.RoleOf(ctx, project.ID, user.ID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return res, fmt.Errorf("seed: project %s: role of %s: %w", p.Name, m.Username, err)
			}
			if current == m.Role {
				continue
			}
			if _, err := s.Roles.Assign(ctx, project.ID, user.ID, m.Role); err != nil {
				return res, fmt.Errorf("seed: project %s: assign %s: %w", p.Name, m.Username, err)
			}
			res.Roles++
		}
	}

	slog.Info("seed applied", "users", res.Users, "projects", res.Projects, "roles", res.Roles)
	return res, nil
}
