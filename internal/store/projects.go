package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const projectColumns = `id, user_id, name, description, color, created_at, updated_at`

// CreateProject inserts p, generating its id and timestamps.
func (s *Store) CreateProject(ctx context.Context, p Project) (*Project, error) {
	now := time.Now()
	p.ID = uuid.NewString()
	if p.Color == "" {
		p.Color = DefaultColor
	}
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.Color, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, p.UserID, p.ID)
}

func (s *Store) GetProject(ctx context.Context, userID, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? AND id = ?`, userID, id,
	)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns the user's projects, newest first.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectRow(res, "delete project "+id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (*Project, error) {
	p := &Project{}
	var createdAt, updatedAt string
	if err := sc.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Color, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}
