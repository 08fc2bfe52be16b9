package tasks

import (
	"sort"
	"strings"
	"time"

	"github.com/sadopc/floe/internal/store"
)

// Kind names a perspective. The zero Kind means nothing is selected.
type Kind int

const (
	Inbox Kind = iota + 1
	Today
	Upcoming
	ProjectView
)

func (k Kind) String() string {
	switch k {
	case Inbox:
		return "inbox"
	case Today:
		return "today"
	case Upcoming:
		return "upcoming"
	case ProjectView:
		return "project"
	}
	return ""
}

// Completion controls which tasks a project perspective shows.
type Completion int

const (
	ProjectAll Completion = iota
	ProjectOpen
)

// Perspective is a named view over the task list. ProjectID is required for
// ProjectView and optional for Upcoming, where it only affects new tasks.
type Perspective struct {
	Kind       Kind
	ProjectID  string
	Completion Completion
}

func InboxPerspective() Perspective    { return Perspective{Kind: Inbox} }
func TodayPerspective() Perspective    { return Perspective{Kind: Today} }
func UpcomingPerspective() Perspective { return Perspective{Kind: Upcoming} }

func ProjectPerspective(id string) Perspective {
	return Perspective{Kind: ProjectView, ProjectID: id}
}

// ParsePerspective maps inbox, today and upcoming to their views; any other
// non-empty string is taken as a project id.
func ParsePerspective(s string) Perspective {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inbox":
		return InboxPerspective()
	case "today":
		return TodayPerspective()
	case "upcoming":
		return UpcomingPerspective()
	}
	return ProjectPerspective(strings.TrimSpace(s))
}

func (p Perspective) IsZero() bool { return p.Kind == 0 }

func (p Perspective) String() string {
	if p.Kind == ProjectView {
		return p.ProjectID
	}
	return p.Kind.String()
}

// Filter returns the tasks visible in p, evaluated against now's local day.
// The input slice is never modified.
func Filter(tasks []store.Task, p Perspective, now time.Time) []store.Task {
	var out []store.Task
	today := dayOf(now, now.Location())

	switch p.Kind {
	case Inbox:
		for _, t := range tasks {
			if t.ProjectID == nil && !t.Completed {
				out = append(out, t)
			}
		}
	case Today:
		for _, t := range tasks {
			if dueOn(t, today, now.Location()) {
				out = append(out, t)
			}
		}
	case Upcoming:
		for _, t := range tasks {
			if t.Completed || t.DueDate == nil {
				continue
			}
			if !dayOf(*t.DueDate, now.Location()).Before(today) {
				out = append(out, t)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DueDate.Before(*out[j].DueDate)
		})
	case ProjectView:
		for _, t := range tasks {
			if !t.InProject(p.ProjectID) {
				continue
			}
			if p.Completion == ProjectOpen && t.Completed {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

// Counts holds the sidebar badges: incomplete tasks per perspective.
type Counts struct {
	Inbox    int
	Today    int
	Upcoming int
	Projects map[string]int
}

// CountTasks derives Counts. Every project in projects gets an entry, even
// when it has no open tasks.
func CountTasks(tasks []store.Task, projects []store.Project, now time.Time) Counts {
	c := Counts{Projects: make(map[string]int, len(projects))}
	for _, p := range projects {
		c.Projects[p.ID] = 0
	}

	loc := now.Location()
	today := dayOf(now, loc)
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if t.ProjectID == nil {
			c.Inbox++
		} else if _, ok := c.Projects[*t.ProjectID]; ok {
			c.Projects[*t.ProjectID]++
		}
		if t.DueDate == nil {
			continue
		}
		due := dayOf(*t.DueDate, loc)
		if due.Equal(today) {
			c.Today++
		}
		if !due.Before(today) {
			c.Upcoming++
		}
	}
	return c
}

func dueOn(t store.Task, day time.Time, loc *time.Location) bool {
	return !t.Completed && t.DueDate != nil && dayOf(*t.DueDate, loc).Equal(day)
}

// dayOf truncates t to midnight of its calendar day in loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// endOfDay returns 23:59:59 on the local day that is offset days after now.
func endOfDay(now time.Time, offset int) time.Time {
	d := dayOf(now, now.Location()).AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
}
