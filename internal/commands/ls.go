package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tasks"
)

var lsCmd = &cobra.Command{
	Use:     "ls [inbox|today|upcoming|<project>]",
	Aliases: []string{"list"},
	Short:   "List tasks",
	Long: `List the tasks in a view. The default view is the Inbox. Any other
argument names a project, by name or id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withEnv(runList),
}

func init() {
	lsCmd.Flags().Bool("open", false, "Hide completed tasks in a project view")
}

func runList(cmd *cobra.Command, args []string, e *env) error {
	ctx := cmd.Context()
	u, err := e.user(ctx)
	if err != nil {
		return err
	}

	engine := tasks.NewEngine(e.store)
	defer engine.Close()
	engine.SetUser(u.ID)

	projects, err := engine.LoadProjects(ctx)
	if err != nil {
		return err
	}
	if _, err := engine.LoadTasks(ctx); err != nil {
		return err
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	p, err := resolvePerspective(arg, projects)
	if err != nil {
		return err
	}
	if open, _ := cmd.Flags().GetBool("open"); open {
		p.Completion = tasks.ProjectOpen
	}

	list := engine.FilteredTasks(p)
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks here. Open floe to add some.")
		return nil
	}
	printTasks(cmd.OutOrStdout(), list, projects)
	return nil
}

// resolvePerspective maps a view name or a project's name or id to its
// perspective.
func resolvePerspective(arg string, projects []store.Project) (tasks.Perspective, error) {
	p := tasks.ParsePerspective(arg)
	if p.Kind != tasks.ProjectView {
		return p, nil
	}
	for _, pr := range projects {
		if pr.ID == p.ProjectID || strings.EqualFold(pr.Name, p.ProjectID) {
			return tasks.ProjectPerspective(pr.ID), nil
		}
	}
	return tasks.Perspective{}, fmt.Errorf("no project named %q", arg)
}

func printTasks(w io.Writer, list []store.Task, projects []store.Project) {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	red := color.New(color.FgRed)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.AddRow("", bold.Sprint("TITLE"), bold.Sprint("PRIO"), bold.Sprint("DUE"), bold.Sprint("PROJECT"), bold.Sprint("LABELS"))

	now := time.Now()
	for _, t := range list {
		check := "[ ]"
		title := t.Title
		if t.Completed {
			check = "[x]"
			title = faint.Sprint(title)
		}

		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("2006-01-02")
			if !t.Completed && t.DueDate.Before(now) {
				due = red.Sprint(due)
			}
		}

		project := "Inbox"
		if t.ProjectID != nil {
			project = names[*t.ProjectID]
		}

		prio := ""
		if t.Priority != store.PriorityNone {
			prio = string(t.Priority)
		}

		tbl.AddRow(check, title, prio, due, project, strings.Join(t.Labels.Names(), ","))
	}
	_, _ = fmt.Fprintln(w, tbl)
}
