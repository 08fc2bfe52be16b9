package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/floe/internal/deepwork"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tasks"
)

type deepworkModel struct {
	store  *store.Store
	engine *tasks.Engine
	timer  *deepwork.Timer
	width  int
	height int

	picking    bool
	pickCursor int
	openTasks  []store.Task

	formActive bool
	form       *huh.Form
	confirm    *bool
}

func newDeepworkModel(s *store.Store, e *tasks.Engine, t *deepwork.Timer) deepworkModel {
	yes := true
	return deepworkModel{store: s, engine: e, timer: t, confirm: &yes}
}

func (d *deepworkModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

// tickAfter arms the next one-second tick for generation gen.
func tickAfter(gen uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return deepworkTickMsg{gen: gen}
	})
}

type openTasksMsg struct {
	tasks []store.Task
	err   error
}

func (d deepworkModel) loadOpenTasks() tea.Cmd {
	userID := d.engine.UserID()
	return func() tea.Msg {
		list, err := d.store.ListOpenTasks(context.Background(), userID)
		return openTasksMsg{tasks: list, err: err}
	}
}

func (d deepworkModel) update(msg tea.Msg) (deepworkModel, tea.Cmd) {
	if msg, ok := msg.(deepworkTickMsg); ok {
		return d.tick(msg.gen)
	}
	if d.formActive && d.form != nil {
		return d.updatePrompt(msg)
	}

	switch msg := msg.(type) {
	case openTasksMsg:
		if msg.err != nil {
			d.picking = false
			return d, errStatus("Load tasks: %v", msg.err)
		}
		d.openTasks = msg.tasks
		if d.pickCursor >= len(d.openTasks) {
			d.pickCursor = max(0, len(d.openTasks)-1)
		}
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}
		ctx := context.Background()
		switch {
		case key.Matches(msg, keys.Start):
			return d.start(ctx)
		case key.Matches(msg, keys.Toggle):
			if d.timer.Toggle() {
				if st := d.timer.Status(); st.State == deepwork.Running {
					return d, tickAfter(st.Gen)
				}
			}
		case key.Matches(msg, keys.Stop):
			if d.timer.Status().State != deepwork.Idle {
				d.timer.Stop(ctx)
				return d, status("Deep work stopped")
			}
		case key.Matches(msg, keys.PickTask):
			if d.timer.Status().State != deepwork.Idle {
				return d, status("Stop the timer before switching tasks")
			}
			d.picking = true
			d.pickCursor = 0
			return d, d.loadOpenTasks()
		case key.Matches(msg, keys.Preset):
			return d.cyclePreset(ctx)
		}
	}
	return d, nil
}

func (d deepworkModel) start(ctx context.Context) (deepworkModel, tea.Cmd) {
	st := d.timer.Status()
	if st.State != deepwork.Idle {
		return d, nil
	}
	if !d.timer.Start(ctx) {
		if st.Phase == deepwork.Focus && st.TaskID == "" {
			return d, status("Pick a task first (t)")
		}
		return d, nil
	}
	return d, tickAfter(d.timer.Status().Gen)
}

// tick feeds one tick to the timer and re-arms while gen stays live.
func (d deepworkModel) tick(gen uint64) (deepworkModel, tea.Cmd) {
	if d.timer.Tick(context.Background(), gen) {
		return d.showPrompt()
	}
	if st := d.timer.Status(); st.State == deepwork.Running && st.Gen == gen {
		return d, tickAfter(gen)
	}
	return d, nil
}

func (d deepworkModel) showPrompt() (deepworkModel, tea.Cmd) {
	next := d.timer.Status().Phase
	title := "Focus complete. Start your break?"
	text := "Focus session complete"
	if next == deepwork.Focus {
		title = "Break over. Start another focus session?"
		text = "Break over"
	}
	*d.confirm = true
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative("Start").Negative("Not now").Value(d.confirm),
		),
	).WithShowHelp(true)
	d.formActive = true
	return d, tea.Batch(d.form.Init(), status(text))
}

func (d deepworkModel) updatePrompt(msg tea.Msg) (deepworkModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		d.timer.Decline()
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}
	if d.form.State != huh.StateCompleted {
		return d, cmd
	}

	d.formActive = false
	d.form = nil
	if !*d.confirm {
		d.timer.Decline()
		return d, nil
	}
	if !d.timer.Continue(context.Background()) {
		return d, status("Pick a task first (t)")
	}
	return d, tickAfter(d.timer.Status().Gen)
}

func (d deepworkModel) updatePicker(msg tea.KeyMsg) (deepworkModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickCursor > 0 {
			d.pickCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickCursor < len(d.openTasks)-1 {
			d.pickCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickCursor < len(d.openTasks) {
			t := d.openTasks[d.pickCursor]
			if !d.timer.SelectTask(t.ID, t.Title) {
				return d, status("Stop the timer before switching tasks")
			}
			d.engine.SelectTask(t.ID)
			return d, status("Focusing on " + t.Title)
		}
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d deepworkModel) cyclePreset(ctx context.Context) (deepworkModel, tea.Cmd) {
	if d.timer.Status().State != deepwork.Idle {
		return d, status("Presets can only change while idle")
	}
	cur := d.timer.Status().Config
	next := deepwork.Presets[0]
	for i, p := range deepwork.Presets {
		if p.Config == cur {
			next = deepwork.Presets[(i+1)%len(deepwork.Presets)]
			break
		}
	}
	if err := d.timer.SetConfig(next.Config); err != nil {
		return d, errStatus("Preset: %v", err)
	}
	if err := deepwork.SaveConfig(ctx, d.store, next.Config); err != nil {
		return d, errStatus("Save preset: %v", err)
	}
	return d, tea.Batch(
		status(fmt.Sprintf("Preset %s (%s)", next.Name, next.Config)),
		func() tea.Msg { return timerConfigMsg{} },
	)
}

func (d deepworkModel) view() string {
	w := d.width - 4
	if d.formActive && d.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Deep Work"), "", d.form.View()),
		)
	}
	if d.picking {
		return d.renderPicker(w)
	}

	st := d.timer.Status()
	clock := formatClock(st.TimeLeft)

	var display, label string
	phaseStyle := accentStyle.Bold(true)
	if st.Phase == deepwork.Break {
		phaseStyle = successStyle.Bold(true)
	}
	switch st.State {
	case deepwork.Running:
		display = phaseStyle.Width(w - 6).Align(lipgloss.Center).Render(clock)
		label = phaseStyle.Render(st.Phase.String())
	case deepwork.Paused:
		display = timerPausedStyle.Width(w - 6).Render(clock)
		label = warningStyle.Bold(true).Render(st.Phase.String() + " PAUSED")
	default:
		display = timerStyle.Width(w - 6).Render(clock)
		label = mutedStyle.Render(st.Phase.String() + " ready")
	}

	task := mutedStyle.Render("No task selected")
	if st.TaskTitle != "" {
		task = highlightStyle.Render(st.TaskTitle)
	}

	preset := st.Config.Preset()
	if preset == "" {
		preset = "Custom"
	}
	cfg := mutedStyle.Render(fmt.Sprintf("%s  %d min focus / %d min break", preset, st.Config.FocusMinutes, st.Config.BreakMinutes))

	var controls string
	switch st.State {
	case deepwork.Idle:
		controls = "s: start  t: pick task  c: preset"
	case deepwork.Running:
		controls = "space: pause  x: stop"
	case deepwork.Paused:
		controls = "space: resume  x: stop"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Deep Work"),
		"",
		display,
		label,
		"",
		task,
		cfg,
		"",
		mutedStyle.Render(controls),
	)
	if st.State == deepwork.Idle {
		return panelStyle.Width(w).Render(content)
	}
	return activePanelStyle.Width(w).Render(content)
}

func (d deepworkModel) renderPicker(w int) string {
	rows := []string{titleStyle.Render("Pick a Task"), ""}
	if len(d.openTasks) == 0 {
		rows = append(rows, mutedStyle.Render("No open tasks. Add one on the Tasks tab."))
	}
	for i, t := range d.openTasks {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		prio := ""
		if t.Priority != store.PriorityNone {
			prio = mutedStyle.Render(" (" + string(t.Priority) + ")")
		}
		rows = append(rows, style.Render(cursor+t.Title)+prio)
	}
	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
