// Package tasks keeps an in-memory view of one user's projects and tasks and
// derives the perspective lists and sidebar counts shown by the UI.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/floe/internal/store"
)

var (
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("tasks: engine closed")
	// ErrStale is returned when the bound user changed while a call was in flight.
	// The result is dropped and the cache is left alone.
	ErrStale = errors.New("tasks: result discarded after user change")
)

// Store is the persistence the engine needs. *store.Store satisfies it.
type Store interface {
	ListProjects(ctx context.Context, userID string) ([]store.Project, error)
	CreateProject(ctx context.Context, p store.Project) (*store.Project, error)
	ListTasks(ctx context.Context, userID string) ([]store.Task, error)
	CreateTask(ctx context.Context, t store.Task) (*store.Task, error)
	UpdateTask(ctx context.Context, t store.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// Engine is safe for concurrent use. The lock is never held across store
// calls, and the cache only changes after the store confirms a write.
// Cached slices are replaced, never edited in place, so readers may use a
// snapshot after releasing the lock.
type Engine struct {
	store Store
	now   func() time.Time

	mu        sync.Mutex
	userID    string
	gen       uint64
	closed    bool
	projects  []store.Project
	tasks     []store.Task
	selTask   string
	selection Perspective
	lastOrder int // highest order handed out, creates in flight included
}

type Option func(*Engine)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(s Store, opts ...Option) *Engine {
	e := &Engine{store: s, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetUser binds the engine to userID and empties the cache. Results of calls
// issued for the previous user are discarded when they arrive.
func (e *Engine) SetUser(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userID = userID
	e.gen++
	e.projects = nil
	e.tasks = nil
	e.selTask = ""
	e.selection = Perspective{}
	e.lastOrder = 0
}

func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Close detaches the engine. Later calls fail with ErrClosed and in-flight
// results are dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.gen++
}

// begin snapshots the user and generation for a store call.
func (e *Engine) begin() (string, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", 0, ErrClosed
	}
	return e.userID, e.gen, nil
}

// settle must be called with mu held.
func (e *Engine) settle(gen uint64) error {
	if e.closed {
		return ErrClosed
	}
	if gen != e.gen {
		return ErrStale
	}
	return nil
}

// LoadProjects replaces the project cache with the user's projects, newest
// first. With nothing selected, the first project becomes the selection.
func (e *Engine) LoadProjects(ctx context.Context) ([]store.Project, error) {
	user, gen, err := e.begin()
	if err != nil || user == "" {
		return nil, err
	}

	projects, err := e.store.ListProjects(ctx, user)
	if err != nil {
		log.Printf("tasks: load projects: %v", err)
		return nil, fmt.Errorf("load projects: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.settle(gen); err != nil {
		return nil, err
	}
	e.projects = projects
	if e.selection.IsZero() && len(projects) > 0 {
		e.selection = ProjectPerspective(projects[0].ID)
	}
	return clone(projects), nil
}

// LoadTasks replaces the task cache with the user's tasks in manual order.
func (e *Engine) LoadTasks(ctx context.Context) ([]store.Task, error) {
	user, gen, err := e.begin()
	if err != nil || user == "" {
		return nil, err
	}

	tasks, err := e.store.ListTasks(ctx, user)
	if err != nil {
		log.Printf("tasks: load tasks: %v", err)
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.settle(gen); err != nil {
		return nil, err
	}
	e.tasks = tasks
	return clone(tasks), nil
}

// CreateProject returns nil, nil when name is blank or no user is bound.
func (e *Engine) CreateProject(ctx context.Context, name string) (*store.Project, error) {
	name = strings.TrimSpace(name)
	user, gen, err := e.begin()
	if err != nil {
		return nil, err
	}
	if name == "" || user == "" {
		return nil, nil
	}

	p, err := e.store.CreateProject(ctx, store.Project{UserID: user, Name: name, Color: store.DefaultColor})
	if err != nil {
		log.Printf("tasks: create project: %v", err)
		return nil, fmt.Errorf("create project: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.settle(gen); err != nil {
		return nil, err
	}
	e.projects = append(e.projects, *p)
	return p, nil
}

// CreateTask adds a task titled title with the defaults p implies and
// appends it to the cache. A blank title is a no-op returning nil, nil.
func (e *Engine) CreateTask(ctx context.Context, title string, p Perspective) (*store.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	user, gen := e.userID, e.gen
	if user == "" {
		e.mu.Unlock()
		return nil, nil
	}
	order := e.lastOrder
	for _, t := range e.tasks {
		order = max(order, t.Order)
	}
	order++
	e.lastOrder = order
	e.mu.Unlock()

	t := store.Task{UserID: user, Title: title, Order: order}
	applyDefaults(&t, p, e.now())

	created, err := e.store.CreateTask(ctx, t)
	if err != nil {
		log.Printf("tasks: create task: %v", err)
		return nil, fmt.Errorf("create task: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.settle(gen); err != nil {
		return nil, err
	}
	e.tasks = append(e.tasks, *created)
	return created, nil
}

func applyDefaults(t *store.Task, p Perspective, now time.Time) {
	switch p.Kind {
	case Today:
		due := endOfDay(now, 0)
		t.DueDate = &due
	case Upcoming:
		due := endOfDay(now, 1)
		t.DueDate = &due
		if p.ProjectID != "" {
			id := p.ProjectID
			t.ProjectID = &id
		}
	case ProjectView:
		if p.ProjectID != "" {
			id := p.ProjectID
			t.ProjectID = &id
		}
	}
}

// ToggleTask flips task's completion. The returned task carries an
// updated_at strictly later than task's.
func (e *Engine) ToggleTask(ctx context.Context, task store.Task) (*store.Task, error) {
	task.Completed = !task.Completed
	task.UpdatedAt = e.stamp(task.UpdatedAt)
	return e.replace(ctx, task, "toggle task")
}

// UpdateTask persists task as a full replacement.
func (e *Engine) UpdateTask(ctx context.Context, task store.Task) (*store.Task, error) {
	task.UpdatedAt = e.stamp(task.UpdatedAt)
	return e.replace(ctx, task, "update task")
}

func (e *Engine) replace(ctx context.Context, task store.Task, what string) (*store.Task, error) {
	user, gen, err := e.begin()
	if err != nil {
		return nil, err
	}
	if task.UserID == "" {
		task.UserID = user
	}

	if err := e.store.UpdateTask(ctx, task); err != nil {
		log.Printf("tasks: %s %s: %v", what, task.ID, err)
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.settle(gen); err != nil {
		return nil, err
	}
	next := clone(e.tasks)
	for i := range next {
		if next[i].ID == task.ID {
			next[i] = task
			break
		}
	}
	e.tasks = next
	return &task, nil
}

// stamp returns now, or a moment after prev when the clock has not moved past it.
func (e *Engine) stamp(prev time.Time) time.Time {
	now := e.now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// DeleteTask removes the task and clears the selection if it pointed at it.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	user, gen, err := e.begin()
	if err != nil {
		return err
	}

	if err := e.store.DeleteTask(ctx, user, id); err != nil {
		log.Printf("tasks: delete task %s: %v", id, err)
		return fmt.Errorf("delete task: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.settle(gen); err != nil {
		return err
	}
	next := make([]store.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	e.tasks = next
	if e.selTask == id {
		e.selTask = ""
	}
	return nil
}

func (e *Engine) Projects() []store.Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.projects)
}

func (e *Engine) Tasks() []store.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.tasks)
}

// Task returns the cached task with id.
func (e *Engine) Task(id string) (store.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return store.Task{}, false
}

// FilteredTasks applies Filter to the cache.
func (e *Engine) FilteredTasks(p Perspective) []store.Task {
	e.mu.Lock()
	tasks := e.tasks
	e.mu.Unlock()
	return Filter(tasks, p, e.now())
}

// Counts applies CountTasks to the cache.
func (e *Engine) Counts() Counts {
	e.mu.Lock()
	tasks, projects := e.tasks, e.projects
	e.mu.Unlock()
	return CountTasks(tasks, projects, e.now())
}

func (e *Engine) SelectTask(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selTask = id
}

// SelectedTask returns the selected task, if it is still cached.
func (e *Engine) SelectedTask() (store.Task, bool) {
	e.mu.Lock()
	id := e.selTask
	e.mu.Unlock()
	if id == "" {
		return store.Task{}, false
	}
	return e.Task(id)
}

func (e *Engine) Select(p Perspective) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = p
}

func (e *Engine) SelectProject(id string) {
	e.Select(ProjectPerspective(id))
}

// Selection returns the active perspective; zero when none is selected.
func (e *Engine) Selection() Perspective {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

// SelectedProject returns the selected project, if the selection is one.
func (e *Engine) SelectedProject() (store.Project, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selection.Kind != ProjectView {
		return store.Project{}, false
	}
	for _, p := range e.projects {
		if p.ID == e.selection.ProjectID {
			return p, true
		}
	}
	return store.Project{}, false
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
