package tasks

import (
	"testing"
	"time"

	"github.com/sadopc/floe/internal/store"
)

var testNow = time.Date(2024, 6, 10, 14, 30, 0, 0, time.Local)

func ptr[T any](v T) *T { return &v }

func due(days int, hour int) *time.Time {
	d := time.Date(testNow.Year(), testNow.Month(), testNow.Day()+days, hour, 0, 0, 0, time.Local)
	return &d
}

func sampleTasks() []store.Task {
	return []store.Task{
		{ID: "inbox-open", Title: "a", Order: 1},
		{ID: "inbox-done", Title: "b", Completed: true, Order: 2},
		{ID: "today-morning", Title: "c", DueDate: due(0, 8), Order: 3},
		{ID: "today-done", Title: "d", DueDate: due(0, 9), Completed: true, Order: 4},
		{ID: "tomorrow", Title: "e", DueDate: due(1, 9), ProjectID: ptr("p1"), Order: 5},
		{ID: "yesterday", Title: "f", DueDate: due(-1, 9), Order: 6},
		{ID: "next-week", Title: "g", DueDate: due(7, 9), ProjectID: ptr("p1"), Completed: true, Order: 7},
		{ID: "p1-open", Title: "h", ProjectID: ptr("p1"), Order: 8},
		{ID: "p2-open", Title: "i", ProjectID: ptr("p2"), Order: 9},
	}
}

func ids(tasks []store.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func assertIDs(t *testing.T, got []store.Task, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

// ============================================================
// Filter
// ============================================================

func TestFilterInbox(t *testing.T) {
	got := Filter(sampleTasks(), InboxPerspective(), testNow)
	assertIDs(t, got, "inbox-open", "today-morning", "yesterday")
}

func TestFilterToday(t *testing.T) {
	got := Filter(sampleTasks(), TodayPerspective(), testNow)
	assertIDs(t, got, "today-morning")
}

func TestFilterTodayIncludesEarlierHours(t *testing.T) {
	// Due this morning is still today even though the moment has passed.
	tasks := []store.Task{{ID: "x", DueDate: due(0, 0)}}
	assertIDs(t, Filter(tasks, TodayPerspective(), testNow), "x")
}

func TestFilterUpcomingSortedAndOpen(t *testing.T) {
	got := Filter(sampleTasks(), UpcomingPerspective(), testNow)
	assertIDs(t, got, "today-morning", "tomorrow")
	for i := 1; i < len(got); i++ {
		if got[i].DueDate.Before(*got[i-1].DueDate) {
			t.Fatalf("upcoming not sorted: %v", ids(got))
		}
	}
}

func TestFilterUpcomingStableOnTies(t *testing.T) {
	same := due(2, 10)
	tasks := []store.Task{
		{ID: "later", DueDate: due(3, 10)},
		{ID: "first", DueDate: same},
		{ID: "second", DueDate: same},
		{ID: "third", DueDate: same},
	}
	assertIDs(t, Filter(tasks, UpcomingPerspective(), testNow), "first", "second", "third", "later")
}

func TestFilterUpcomingDoesNotReorderInput(t *testing.T) {
	tasks := []store.Task{{ID: "b", DueDate: due(2, 0)}, {ID: "a", DueDate: due(1, 0)}}
	Filter(tasks, UpcomingPerspective(), testNow)
	if tasks[0].ID != "b" {
		t.Fatal("input slice was reordered")
	}
}

func TestFilterProjectModes(t *testing.T) {
	all := Filter(sampleTasks(), ProjectPerspective("p1"), testNow)
	assertIDs(t, all, "tomorrow", "next-week", "p1-open")

	open := Perspective{Kind: ProjectView, ProjectID: "p1", Completion: ProjectOpen}
	assertIDs(t, Filter(sampleTasks(), open, testNow), "tomorrow", "p1-open")
}

func TestFilterNoSelection(t *testing.T) {
	if got := Filter(sampleTasks(), Perspective{}, testNow); len(got) != 0 {
		t.Fatalf("expected nothing for zero perspective, got %v", ids(got))
	}
}

// ============================================================
// Counts
// ============================================================

func TestCountTasks(t *testing.T) {
	projects := []store.Project{{ID: "p1"}, {ID: "p2"}, {ID: "empty"}}
	c := CountTasks(sampleTasks(), projects, testNow)

	if c.Inbox != 3 {
		t.Fatalf("expected inbox 3, got %d", c.Inbox)
	}
	if c.Today != 1 {
		t.Fatalf("expected today 1, got %d", c.Today)
	}
	if c.Upcoming != 2 {
		t.Fatalf("expected upcoming 2, got %d", c.Upcoming)
	}
	if c.Projects["p1"] != 2 || c.Projects["p2"] != 1 {
		t.Fatalf("unexpected project counts: %v", c.Projects)
	}
	if n, ok := c.Projects["empty"]; !ok || n != 0 {
		t.Fatalf("expected zero entry for empty project, got %v", c.Projects)
	}
}

func TestInboxCountMatchesInboxView(t *testing.T) {
	tasks := sampleTasks()
	c := CountTasks(tasks, nil, testNow)
	if n := len(Filter(tasks, InboxPerspective(), testNow)); n != c.Inbox {
		t.Fatalf("inbox count %d != inbox view size %d", c.Inbox, n)
	}
}

// ============================================================
// Perspective parsing and defaults
// ============================================================

func TestParsePerspective(t *testing.T) {
	cases := map[string]Perspective{
		"":         InboxPerspective(),
		"inbox":    InboxPerspective(),
		"TODAY":    TodayPerspective(),
		"upcoming": UpcomingPerspective(),
		"abc-123":  ProjectPerspective("abc-123"),
	}
	for in, want := range cases {
		if got := ParsePerspective(in); got != want {
			t.Errorf("ParsePerspective(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestEndOfDay(t *testing.T) {
	got := endOfDay(testNow, 1)
	want := time.Date(2024, 6, 11, 23, 59, 59, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
