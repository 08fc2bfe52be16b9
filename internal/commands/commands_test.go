package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sadopc/floe/internal/deepwork"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tasks"
)

func init() {
	color.NoColor = true
}

// run executes the CLI with args against a fresh config directory shared by
// the rest of the test.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags undoes flag values left over from earlier executions.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// configDir points the CLI at a temporary directory and returns it.
func configDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FLOE_CONFIG_DIR", dir)
	return dir
}

// seed opens the CLI's database directly and adds data for the local user.
func seed(t *testing.T, dir string, fn func(ctx context.Context, s *store.Store, u *store.User)) {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(filepath.Join(dir, "floe.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	u, err := s.UpsertUser(ctx, LocalEmail)
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	fn(ctx, s, u)
}

// ============================================================
// Commands
// ============================================================

func TestVersion(t *testing.T) {
	configDir(t)
	SetVersion("1.2.3", "abc", "today")
	t.Cleanup(func() { SetVersion("dev", "none", "unknown") })

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "floe 1.2.3 (commit abc") {
		t.Errorf("version output = %q", out)
	}
}

func TestListInbox(t *testing.T) {
	dir := configDir(t)
	seed(t, dir, func(ctx context.Context, s *store.Store, u *store.User) {
		s.CreateTask(ctx, store.Task{UserID: u.ID, Title: "Water plants", Priority: store.PriorityHigh})
		s.CreateTask(ctx, store.Task{UserID: u.ID, Title: "Already done", Completed: true})
	})

	out, err := run(t, "ls")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out, "Water plants") || !strings.Contains(out, "high") {
		t.Errorf("ls output missing open task:\n%s", out)
	}
	if strings.Contains(out, "Already done") {
		t.Errorf("inbox should hide completed tasks:\n%s", out)
	}
}

func TestListProjectByName(t *testing.T) {
	dir := configDir(t)
	seed(t, dir, func(ctx context.Context, s *store.Store, u *store.User) {
		p, _ := s.CreateProject(ctx, store.Project{UserID: u.ID, Name: "Garden"})
		s.CreateTask(ctx, store.Task{UserID: u.ID, ProjectID: &p.ID, Title: "Dig"})
		s.CreateTask(ctx, store.Task{UserID: u.ID, ProjectID: &p.ID, Title: "Plant", Completed: true})
	})

	out, err := run(t, "ls", "garden")
	if err != nil {
		t.Fatalf("ls garden: %v", err)
	}
	if !strings.Contains(out, "Dig") || !strings.Contains(out, "[x]") {
		t.Errorf("project view should show all tasks:\n%s", out)
	}

	out, err = run(t, "ls", "garden", "--open")
	if err != nil {
		t.Fatalf("ls garden --open: %v", err)
	}
	if strings.Contains(out, "Plant") {
		t.Errorf("--open should hide completed tasks:\n%s", out)
	}
}

func TestListUnknownProject(t *testing.T) {
	configDir(t)
	if _, err := run(t, "ls", "nowhere"); err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestLoginFlow(t *testing.T) {
	configDir(t)

	out, err := run(t, "login", "ada@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	i := strings.Index(out, "http")
	if i < 0 {
		t.Fatalf("no link in output:\n%s", out)
	}
	link, err := url.Parse(strings.Fields(out[i:])[0])
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	code := link.Query().Get("code")
	if code == "" {
		t.Fatalf("link %s has no code", link)
	}

	if _, err := run(t, "login", "--code", code); err != nil {
		t.Fatalf("login --code: %v", err)
	}
	out, err = run(t, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if strings.TrimSpace(out) != "ada@example.com" {
		t.Errorf("whoami = %q, want ada@example.com", out)
	}

	if _, err := run(t, "login", "--code", code); err == nil {
		t.Error("a used code should be rejected")
	}

	if _, err := run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, _ = run(t, "whoami")
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("whoami after logout = %q", out)
	}
}

func TestLoginRejectsBadEmail(t *testing.T) {
	configDir(t)
	if _, err := run(t, "login", "not an email"); err == nil {
		t.Fatal("expected invalid email error")
	}
	if _, err := run(t, "login"); err == nil {
		t.Fatal("expected error without email or code")
	}
}

func TestExportJSON(t *testing.T) {
	dir := configDir(t)
	seed(t, dir, func(ctx context.Context, s *store.Store, u *store.User) {
		s.CreateTask(ctx, store.Task{UserID: u.ID, Title: "Ship it"})
	})

	out, err := run(t, "export", "--format", "json")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("export output is not JSON: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Ship it") {
		t.Errorf("export missing task:\n%s", out)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	configDir(t)
	if _, err := run(t, "export", "-f", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFocusNeedsMatchingTask(t *testing.T) {
	configDir(t)
	if _, err := run(t, "focus", "nothing"); err == nil {
		t.Fatal("expected error when no task matches")
	}
}

func TestFocusRejectsBadDurations(t *testing.T) {
	dir := configDir(t)
	seed(t, dir, func(ctx context.Context, s *store.Store, u *store.User) {
		s.CreateTask(ctx, store.Task{UserID: u.ID, Title: "Write"})
	})
	if _, err := run(t, "focus", "Write", "--focus", "500"); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestResolvePerspective(t *testing.T) {
	projects := []store.Project{{ID: "p1", Name: "Work"}}

	tests := []struct {
		arg  string
		want tasks.Perspective
	}{
		{"", tasks.InboxPerspective()},
		{"today", tasks.TodayPerspective()},
		{"Upcoming", tasks.UpcomingPerspective()},
		{"work", tasks.ProjectPerspective("p1")},
		{"p1", tasks.ProjectPerspective("p1")},
	}
	for _, tt := range tests {
		got, err := resolvePerspective(tt.arg, projects)
		if err != nil {
			t.Errorf("resolvePerspective(%q): %v", tt.arg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("resolvePerspective(%q) = %+v, want %+v", tt.arg, got, tt.want)
		}
	}
}

func TestFindTask(t *testing.T) {
	open := []store.Task{
		{ID: "a1", Title: "Write report"},
		{ID: "b2", Title: "Write tests"},
		{ID: "c3", Title: "Read book"},
	}

	if got, err := findTask(open, "c3"); err != nil || got.ID != "c3" {
		t.Errorf("by id = %v, %v", got.ID, err)
	}
	if got, err := findTask(open, "read"); err != nil || got.ID != "c3" {
		t.Errorf("by prefix = %v, %v", got.ID, err)
	}
	if got, err := findTask(open, "WRITE TESTS"); err != nil || got.ID != "b2" {
		t.Errorf("by title = %v, %v", got.ID, err)
	}
	if _, err := findTask(open, "write"); err == nil {
		t.Error("ambiguous prefix should fail")
	}
}

func TestLinePrompter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := newLinePrompter(context.Background(), strings.NewReader(tt.input), &out)
		if got := p.Continue(deepwork.Break); got != tt.want {
			t.Errorf("Continue with %q = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Start your break?") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestLinePrompterStopsOnCancel(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	p := newLinePrompter(ctx, r, io.Discard)

	done := make(chan bool, 1)
	go func() { done <- p.Continue(deepwork.Focus) }()
	cancel()

	select {
	case got := <-done:
		if got {
			t.Fatal("a cancelled prompt should answer no")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("prompt kept waiting for input after cancel")
	}
}

func TestPrintTasks(t *testing.T) {
	pid := "p1"
	var out bytes.Buffer
	printTasks(&out, []store.Task{
		{Title: "Inbox task"},
		{Title: "Project task", ProjectID: &pid, Labels: store.Labels{store.LabelFor("bug")}},
	}, []store.Project{{ID: "p1", Name: "Work"}})

	s := out.String()
	for _, want := range []string{"TITLE", "Inbox", "Work", "bug"} {
		if !strings.Contains(s, want) {
			t.Errorf("table missing %q:\n%s", want, s)
		}
	}
}
