package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/floe/internal/store"
)

var errBoom = errors.New("boom")

// fakeStore is an in-memory Store. fail makes every call return errBoom;
// hook, when set, runs before a call returns.
type fakeStore struct {
	mu       sync.Mutex
	projects []store.Project
	tasks    []store.Task
	seq      int
	fail     bool
	hook     func()
	created  []store.Task
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) done() error {
	if f.hook != nil {
		f.hook()
	}
	if f.fail {
		return errBoom
	}
	return nil
}

func (f *fakeStore) ListProjects(_ context.Context, userID string) ([]store.Project, error) {
	f.mu.Lock()
	var out []store.Project
	for i := len(f.projects) - 1; i >= 0; i-- {
		if f.projects[i].UserID == userID {
			out = append(out, f.projects[i])
		}
	}
	f.mu.Unlock()
	if err := f.done(); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) CreateProject(_ context.Context, p store.Project) (*store.Project, error) {
	if err := f.done(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID("project")
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeStore) ListTasks(_ context.Context, userID string) ([]store.Task, error) {
	f.mu.Lock()
	var out []store.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	f.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	if err := f.done(); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) CreateTask(_ context.Context, t store.Task) (*store.Task, error) {
	if err := f.done(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.nextID("task")
	f.tasks = append(f.tasks, t)
	f.created = append(f.created, t)
	return &t, nil
}

func (f *fakeStore) UpdateTask(_ context.Context, t store.Task) error {
	if err := f.done(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == t.ID {
			f.tasks[i] = t
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteTask(_ context.Context, _, id string) error {
	if err := f.done(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func newTestEngine(t *testing.T, fs *fakeStore) *Engine {
	t.Helper()
	e := NewEngine(fs, WithClock(func() time.Time { return testNow }))
	e.SetUser("u1")
	return e
}

func seedTasks(fs *fakeStore, orders ...int) {
	for _, o := range orders {
		fs.tasks = append(fs.tasks, store.Task{
			ID: fmt.Sprintf("seed-%d", o), UserID: "u1", Title: "seed", Order: o,
			UpdatedAt: testNow.Add(-time.Hour),
		})
	}
}

// ============================================================
// Loading
// ============================================================

func TestLoadProjectsSelectsFirst(t *testing.T) {
	fs := &fakeStore{projects: []store.Project{
		{ID: "old", UserID: "u1"}, {ID: "new", UserID: "u1"},
	}}
	e := newTestEngine(t, fs)

	projects, err := e.LoadProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", projects)
	}
	if sel := e.Selection(); sel != ProjectPerspective("new") {
		t.Fatalf("expected first project selected, got %+v", sel)
	}
}

func TestLoadProjectsKeepsExistingSelection(t *testing.T) {
	fs := &fakeStore{projects: []store.Project{{ID: "p", UserID: "u1"}}}
	e := newTestEngine(t, fs)
	e.Select(TodayPerspective())

	e.LoadProjects(context.Background())
	if sel := e.Selection(); sel != TodayPerspective() {
		t.Fatalf("selection changed to %+v", sel)
	}
}

func TestLoadProjectsEmptyLeavesNoSelection(t *testing.T) {
	e := newTestEngine(t, &fakeStore{})
	e.LoadProjects(context.Background())
	if !e.Selection().IsZero() {
		t.Fatalf("expected no selection, got %+v", e.Selection())
	}
}

func TestLoadTasksOrdered(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 3, 1, 2)
	e := newTestEngine(t, fs)

	tasks, err := e.LoadTasks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{1, 2, 3} {
		if tasks[i].Order != want {
			t.Fatalf("position %d: expected order %d, got %d", i, want, tasks[i].Order)
		}
	}
}

func TestLoadFailureKeepsCache(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	fs.fail = true
	if _, err := e.LoadTasks(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped errBoom, got %v", err)
	}
	if len(e.Tasks()) != 1 {
		t.Fatal("cache should be unchanged after failed load")
	}
}

// ============================================================
// Projects
// ============================================================

func TestCreateProjectBlankName(t *testing.T) {
	fs := &fakeStore{}
	e := newTestEngine(t, fs)
	p, err := e.CreateProject(context.Background(), "   ")
	if p != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v, %v", p, err)
	}
	if len(fs.projects) != 0 {
		t.Fatal("blank project should not be persisted")
	}
}

func TestCreateProjectWithoutUser(t *testing.T) {
	fs := &fakeStore{}
	e := NewEngine(fs)
	p, err := e.CreateProject(context.Background(), "Work")
	if p != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v, %v", p, err)
	}
}

func TestCreateProjectAppends(t *testing.T) {
	e := newTestEngine(t, &fakeStore{})
	p, err := e.CreateProject(context.Background(), "  Work ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Work" || p.Color != store.DefaultColor {
		t.Fatalf("unexpected project: %+v", p)
	}
	if got := e.Projects(); len(got) != 1 || got[0].ID != p.ID {
		t.Fatalf("expected project cached, got %+v", got)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestCreateTaskBlankTitle(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	task, err := e.CreateTask(context.Background(), " \t ", InboxPerspective())
	if task != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v, %v", task, err)
	}
	if len(e.Tasks()) != 1 || len(fs.created) != 0 {
		t.Fatal("blank title should leave collection unchanged")
	}
}

func TestCreateTaskOrder(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1, 3, 2)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	task, err := e.CreateTask(context.Background(), "next", InboxPerspective())
	if err != nil {
		t.Fatal(err)
	}
	if task.Order != 4 {
		t.Fatalf("expected order 4, got %d", task.Order)
	}
	tasks := e.Tasks()
	if tasks[len(tasks)-1].ID != task.ID {
		t.Fatal("new task should be appended")
	}
}

func TestCreateTaskOverlappingOrders(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1, 2)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	var inner *store.Task
	fs.hook = func() {
		fs.hook = nil
		inner, _ = e.CreateTask(context.Background(), "inner", InboxPerspective())
	}
	outer, err := e.CreateTask(context.Background(), "outer", InboxPerspective())
	if err != nil || inner == nil {
		t.Fatalf("both creates should succeed: %v", err)
	}
	if outer.Order != 3 || inner.Order != 4 {
		t.Fatalf("orders = %d, %d; want 3, 4", outer.Order, inner.Order)
	}
}

func TestCreateTaskFailureKeepsOrderReserved(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	fs.fail = true
	if _, err := e.CreateTask(context.Background(), "lost", InboxPerspective()); err == nil {
		t.Fatal("expected store error")
	}
	fs.fail = false
	task, err := e.CreateTask(context.Background(), "kept", InboxPerspective())
	if err != nil {
		t.Fatal(err)
	}
	if task.Order != 3 {
		t.Fatalf("expected order 3, got %d", task.Order)
	}
}

func TestCreateTaskFirstOrder(t *testing.T) {
	e := newTestEngine(t, &fakeStore{})
	task, _ := e.CreateTask(context.Background(), "first", InboxPerspective())
	if task.Order != 1 {
		t.Fatalf("expected order 1, got %d", task.Order)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	endToday := time.Date(2024, 6, 10, 23, 59, 59, 0, time.Local)
	endTomorrow := endToday.AddDate(0, 0, 1)

	tests := []struct {
		name    string
		p       Perspective
		due     *time.Time
		project string
	}{
		{"inbox", InboxPerspective(), nil, ""},
		{"today", TodayPerspective(), &endToday, ""},
		{"upcoming", UpcomingPerspective(), &endTomorrow, ""},
		{"upcoming with project", Perspective{Kind: Upcoming, ProjectID: "p9"}, &endTomorrow, "p9"},
		{"project", ProjectPerspective("p1"), nil, "p1"},
		{"unknown", Perspective{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, &fakeStore{})
			task, err := e.CreateTask(context.Background(), "x", tt.p)
			if err != nil {
				t.Fatal(err)
			}
			switch {
			case tt.due == nil && task.DueDate != nil:
				t.Fatalf("expected no due date, got %v", task.DueDate)
			case tt.due != nil && (task.DueDate == nil || !task.DueDate.Equal(*tt.due)):
				t.Fatalf("expected due %v, got %v", tt.due, task.DueDate)
			}
			got := ""
			if task.ProjectID != nil {
				got = *task.ProjectID
			}
			if got != tt.project {
				t.Fatalf("expected project %q, got %q", tt.project, got)
			}
		})
	}
}

func TestToggleTask(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())
	before := e.Tasks()[0]

	got, err := e.ToggleTask(context.Background(), before)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed {
		t.Fatal("expected completed")
	}
	if !got.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("updated_at %v not after %v", got.UpdatedAt, before.UpdatedAt)
	}
	cached, _ := e.Task(before.ID)
	if !cached.Completed {
		t.Fatal("cache not updated")
	}
}

func TestToggleTaskStampStrictlyLater(t *testing.T) {
	fs := &fakeStore{}
	fs.tasks = []store.Task{{ID: "t", UserID: "u1", UpdatedAt: testNow}}
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	got, err := e.ToggleTask(context.Background(), e.Tasks()[0])
	if err != nil {
		t.Fatal(err)
	}
	if !got.UpdatedAt.After(testNow) {
		t.Fatalf("expected updated_at after %v, got %v", testNow, got.UpdatedAt)
	}
}

func TestToggleTaskFailureLeavesCache(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	fs.fail = true
	if _, err := e.ToggleTask(context.Background(), e.Tasks()[0]); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if e.Tasks()[0].Completed {
		t.Fatal("completed should remain false after failed persist")
	}
}

func TestUpdateTaskReplacesEntry(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1, 2)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())

	edited := e.Tasks()[1]
	edited.Title = "renamed"
	edited.Priority = store.PriorityHigh
	if _, err := e.UpdateTask(context.Background(), edited); err != nil {
		t.Fatal(err)
	}
	got, _ := e.Task(edited.ID)
	if got.Title != "renamed" || got.Priority != store.PriorityHigh {
		t.Fatalf("unexpected cached task: %+v", got)
	}
	if e.Tasks()[0].Title != "seed" {
		t.Fatal("other tasks should be untouched")
	}
}

func TestDeleteSelectedTaskClearsSelection(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1, 2)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())
	e.SelectTask("seed-1")

	if err := e.DeleteTask(context.Background(), "seed-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.SelectedTask(); ok {
		t.Fatal("selection should be cleared")
	}
	if len(e.Tasks()) != 1 {
		t.Fatal("task should be removed from cache")
	}
}

func TestDeleteOtherTaskKeepsSelection(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1, 2)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())
	e.SelectTask("seed-1")

	e.DeleteTask(context.Background(), "seed-2")
	if sel, ok := e.SelectedTask(); !ok || sel.ID != "seed-1" {
		t.Fatal("selection should be untouched")
	}
}

func TestDeleteFailureKeepsTask(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())
	e.SelectTask("seed-1")

	fs.fail = true
	if err := e.DeleteTask(context.Background(), "seed-1"); err == nil {
		t.Fatal("expected error")
	}
	if len(e.Tasks()) != 1 {
		t.Fatal("task should remain cached")
	}
	if _, ok := e.SelectedTask(); !ok {
		t.Fatal("selection should remain")
	}
}

// ============================================================
// Teardown and user changes
// ============================================================

func TestResultDiscardedAfterUserChange(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	fs.hook = func() { e.SetUser("u2") }

	if _, err := e.LoadTasks(context.Background()); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if len(e.Tasks()) != 0 {
		t.Fatal("stale result should not reach the cache")
	}
}

func TestResultDiscardedAfterClose(t *testing.T) {
	fs := &fakeStore{}
	e := newTestEngine(t, fs)
	fs.hook = e.Close

	if _, err := e.CreateTask(context.Background(), "late", InboxPerspective()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if len(e.Tasks()) != 0 {
		t.Fatal("result after close should be dropped")
	}

	fs.hook = nil
	if _, err := e.LoadProjects(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestFilteredTasksUsesCache(t *testing.T) {
	fs := &fakeStore{}
	seedTasks(fs, 1)
	e := newTestEngine(t, fs)
	e.LoadTasks(context.Background())
	e.CreateTask(context.Background(), "today", TodayPerspective())

	if got := e.FilteredTasks(TodayPerspective()); len(got) != 1 || got[0].Title != "today" {
		t.Fatalf("unexpected today view: %+v", got)
	}
	if c := e.Counts(); c.Inbox != 2 || c.Today != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

func TestSelectedProject(t *testing.T) {
	fs := &fakeStore{projects: []store.Project{{ID: "p1", UserID: "u1", Name: "Work"}}}
	e := newTestEngine(t, fs)
	e.LoadProjects(context.Background())

	p, ok := e.SelectedProject()
	if !ok || p.Name != "Work" {
		t.Fatalf("expected Work selected, got %+v %v", p, ok)
	}
	e.Select(InboxPerspective())
	if _, ok := e.SelectedProject(); ok {
		t.Fatal("inbox is not a project")
	}
}
