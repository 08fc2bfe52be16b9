package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const taskColumns = `id, project_id, user_id, title, content, completed, priority, due_date, labels, sort_order, created_at, updated_at`

// CreateTask inserts t as given, generating its id and timestamps.
func (s *Store) CreateTask(ctx context.Context, t Task) (*Task, error) {
	now := time.Now()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now

	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullString(t.ProjectID), t.UserID, t.Title, nullContent(t.Content), boolInt(t.Completed),
		string(t.Priority), nullTime(t.DueDate), string(labels), t.Order, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.UserID, t.ID)
}

func (s *Store) GetTask(ctx context.Context, userID, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND id = ?`, userID, id,
	)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// ListTasks returns all of the user's tasks ordered by manual order.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY sort_order ASC, created_at ASC`, userID,
	)
}

// ListOpenTasks returns incomplete tasks, most urgent first.
func (s *Store) ListOpenTasks(ctx context.Context, userID string) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND completed = 0
		 ORDER BY CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC,
		          sort_order ASC`, userID,
	)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask replaces every mutable field of t. UpdatedAt is written as given.
func (s *Store) UpdateTask(ctx context.Context, t Task) error {
	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET project_id = ?, title = ?, content = ?, completed = ?, priority = ?,
		        due_date = ?, labels = ?, sort_order = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		nullString(t.ProjectID), t.Title, nullContent(t.Content), boolInt(t.Completed), string(t.Priority),
		nullTime(t.DueDate), string(labels), t.Order, formatTime(t.UpdatedAt),
		t.UserID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(res, "update task "+t.ID)
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(res, "delete task "+id)
}

func (s *Store) CountTasks(ctx context.Context, userID string, completed bool) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND completed = ?`, userID, boolInt(completed),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func scanTask(sc scanner) (*Task, error) {
	t := &Task{}
	var projectID, content, dueDate sql.NullString
	var completed int
	var priority, labels, createdAt, updatedAt string

	err := sc.Scan(&t.ID, &projectID, &t.UserID, &t.Title, &content, &completed, &priority,
		&dueDate, &labels, &t.Order, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.ProjectID = stringPtr(projectID)
	if content.Valid {
		t.Content = json.RawMessage(content.String)
	}
	t.Completed = completed == 1
	t.Priority = Priority(priority)
	t.DueDate = timePtr(dueDate)
	if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
		return nil, fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func nullContent(c json.RawMessage) sql.NullString {
	if len(c) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(c), Valid: true}
}
