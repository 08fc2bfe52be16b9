package store

import (
	"encoding/json"
	"time"
)

// DefaultColor is used for projects and legacy labels without a colour.
const DefaultColor = "#666666"

type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

type LoginCode struct {
	Code      string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
}

type AuthSession struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	RevokedAt *time.Time
}

type Project struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Task is a single to-do item. ProjectID nil means the task lives in the Inbox.
type Task struct {
	ID        string
	ProjectID *string
	UserID    string
	Title     string
	Content   json.RawMessage // owned by the editor, never inspected here
	Completed bool
	Priority  Priority
	DueDate   *time.Time
	Labels    Labels
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InProject reports whether the task belongs to the project with id.
func (t Task) InProject(id string) bool {
	return t.ProjectID != nil && *t.ProjectID == id
}

type DeepWorkSession struct {
	ID            string
	UserID        string
	TaskID        *string
	Duration      int // seconds
	BreakDuration int // seconds
	StartedAt     time.Time
	EndedAt       *time.Time
	Completed     bool
}

type Setting struct {
	Key   string
	Value string
}

// DailyFocus is the completed focus time for one day.
type DailyFocus struct {
	Date         string
	TotalSeconds int64
	SessionCount int
}
