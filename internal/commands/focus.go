package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/floe/internal/deepwork"
	"github.com/sadopc/floe/internal/store"
)

var focusCmd = &cobra.Command{
	Use:   "focus <task>",
	Short: "Run a deep work session on a task",
	Long: `Run focus and break phases against an open task, named by id or title.
After each phase you are asked whether to start the next one. Ctrl+C stops
the timer and records the session as abandoned.`,
	Args: cobra.ExactArgs(1),
	RunE: withEnv(runFocus),
}

func init() {
	focusCmd.Flags().Int("focus", 0, "Focus minutes for this run (default: saved setting)")
	focusCmd.Flags().Int("break", 0, "Break minutes for this run (default: saved setting)")
}

func runFocus(cmd *cobra.Command, args []string, e *env) error {
	ctx := cmd.Context()
	u, err := e.user(ctx)
	if err != nil {
		return err
	}

	open, err := e.store.ListOpenTasks(ctx, u.ID)
	if err != nil {
		return err
	}
	task, err := findTask(open, args[0])
	if err != nil {
		return err
	}

	cfg := deepwork.LoadConfig(ctx, e.store)
	if cmd.Flags().Changed("focus") || cmd.Flags().Changed("break") {
		focus, _ := cmd.Flags().GetInt("focus")
		brk, _ := cmd.Flags().GetInt("break")
		if !cmd.Flags().Changed("focus") {
			focus = cfg.FocusMinutes
		}
		if !cmd.Flags().Changed("break") {
			brk = cfg.BreakMinutes
		}
		if cfg, err = deepwork.NewConfig(focus, brk); err != nil {
			return err
		}
	}

	timer := deepwork.New(e.store,
		deepwork.WithUser(u.ID),
		deepwork.WithConfig(cfg),
		deepwork.WithNotifier(deepwork.Bell{W: cmd.ErrOrStderr()}),
	)
	defer timer.Close()
	timer.SelectTask(task.ID, task.Title)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Focusing on %s (%s). Ctrl+C stops.\n", color.CyanString(task.Title), cfg)

	err = timer.Run(ctx, newLinePrompter(ctx, cmd.InOrStdin(), out))
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nStopped")
		return nil
	}
	return err
}

// findTask matches ref against task ids first, then titles, ignoring case.
func findTask(open []store.Task, ref string) (store.Task, error) {
	ref = strings.TrimSpace(ref)
	for _, t := range open {
		if t.ID == ref {
			return t, nil
		}
	}
	var matches []store.Task
	for _, t := range open {
		if strings.EqualFold(t.Title, ref) {
			return t, nil
		}
		if strings.HasPrefix(strings.ToLower(t.Title), strings.ToLower(ref)) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return store.Task{}, fmt.Errorf("no open task matches %q", ref)
	case 1:
		return matches[0], nil
	}
	return store.Task{}, fmt.Errorf("%q matches %d open tasks", ref, len(matches))
}

// linePrompter asks on out and reads y/n answers from in. An empty answer
// means yes. End of input or a cancelled context means no.
type linePrompter struct {
	ctx   context.Context
	lines <-chan string
	out   io.Writer
}

func newLinePrompter(ctx context.Context, in io.Reader, out io.Writer) linePrompter {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return linePrompter{ctx: ctx, lines: lines, out: out}
}

func (p linePrompter) Continue(next deepwork.Phase) bool {
	q := "Focus complete. Start your break? [Y/n] "
	if next == deepwork.Focus {
		q = "Break over. Start another focus session? [Y/n] "
	}
	fmt.Fprint(p.out, q)

	select {
	case <-p.ctx.Done():
		return false
	case line, ok := <-p.lines:
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y", "yes":
			return true
		}
		return false
	}
}
