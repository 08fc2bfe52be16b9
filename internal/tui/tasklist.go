package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/floe/internal/editor"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tasks"
)

const dueLayout = "2006-01-02"

const sidebarWidth = 26

type pane int

const (
	paneSidebar pane = iota
	paneList
)

type sideItem struct {
	label       string
	color       string
	count       int
	perspective tasks.Perspective
}

type taskListModel struct {
	engine *tasks.Engine
	width  int
	height int

	focus      pane
	sideCursor int
	cursor     int
	completion tasks.Completion

	formActive bool
	form       *huh.Form
	formType   string // "task", "project", "edit"

	// Form field pointers (survive value copies)
	formTitle    *string
	formPriority *string
	formDue      *string
	formLabels   *[]string

	editing store.Task
	notes   *editor.Editor
}

func newTaskListModel(e *tasks.Engine) taskListModel {
	title, prio, due := "", "", ""
	labels := []string{}
	return taskListModel{
		engine:       e,
		focus:        paneSidebar,
		formTitle:    &title,
		formPriority: &prio,
		formDue:      &due,
		formLabels:   &labels,
	}
}

func (m *taskListModel) setSize(w, h int) {
	m.width = w
	m.height = h
	if m.notes != nil {
		m.notes.SetSize(max(20, w-10), max(3, h-10))
	}
}

// refresh reloads projects and tasks for the bound user.
func (m taskListModel) refresh() tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := e.LoadProjects(ctx); err != nil {
			return tasksLoadedMsg{err: err}
		}
		_, err := e.LoadTasks(ctx)
		return tasksLoadedMsg{err: err}
	}
}

func (m taskListModel) sidebar() []sideItem {
	c := m.engine.Counts()
	items := []sideItem{
		{label: "Inbox", color: "#7AA2F7", count: c.Inbox, perspective: tasks.InboxPerspective()},
		{label: "Today", color: "#2ECC71", count: c.Today, perspective: tasks.TodayPerspective()},
		{label: "Upcoming", color: "#F39C12", count: c.Upcoming, perspective: tasks.UpcomingPerspective()},
	}
	for _, p := range m.engine.Projects() {
		pv := tasks.ProjectPerspective(p.ID)
		pv.Completion = m.completion
		items = append(items, sideItem{label: p.Name, color: p.Color, count: c.Projects[p.ID], perspective: pv})
	}
	return items
}

func (m taskListModel) visible() []store.Task {
	sel := m.engine.Selection()
	if sel.IsZero() {
		return nil
	}
	return m.engine.FilteredTasks(sel)
}

// synced moves the sidebar cursor onto the engine's selection and clamps
// the list cursor after the cache changed.
func (m taskListModel) synced() taskListModel {
	sel := m.engine.Selection()
	for i, it := range m.sidebar() {
		if it.perspective.Kind == sel.Kind && it.perspective.ProjectID == sel.ProjectID {
			m.sideCursor = i
			break
		}
	}
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	return m
}

func (m taskListModel) current() (store.Task, bool) {
	list := m.visible()
	if m.cursor < 0 || m.cursor >= len(list) {
		return store.Task{}, false
	}
	return list[m.cursor], true
}

func (m taskListModel) update(msg tea.Msg) (taskListModel, tea.Cmd) {
	if m.formActive {
		if m.notes != nil {
			return m.updateNotes(msg)
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(kmsg, keys.Left):
		m.focus = paneSidebar
		return m, nil
	case key.Matches(kmsg, keys.Right):
		m.focus = paneList
		return m, nil
	case key.Matches(kmsg, keys.New):
		return m.showTitleForm("task")
	case key.Matches(kmsg, keys.NewProject):
		return m.showTitleForm("project")
	case key.Matches(kmsg, keys.ShowAll):
		if m.completion == tasks.ProjectAll {
			m.completion = tasks.ProjectOpen
		} else {
			m.completion = tasks.ProjectAll
		}
		if sel := m.engine.Selection(); sel.Kind == tasks.ProjectView {
			sel.Completion = m.completion
			m.engine.Select(sel)
		}
		return m.synced(), nil
	}

	if m.focus == paneSidebar {
		return m.updateSidebar(kmsg)
	}
	return m.updateList(kmsg)
}

func (m taskListModel) updateSidebar(msg tea.KeyMsg) (taskListModel, tea.Cmd) {
	items := m.sidebar()
	switch {
	case key.Matches(msg, keys.Up):
		if m.sideCursor > 0 {
			m.sideCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.sideCursor < len(items)-1 {
			m.sideCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.focus = paneList
		return m, nil
	default:
		return m, nil
	}
	if m.sideCursor < len(items) {
		m.engine.Select(items[m.sideCursor].perspective)
		m.cursor = 0
	}
	return m, nil
}

func (m taskListModel) updateList(msg tea.KeyMsg) (taskListModel, tea.Cmd) {
	list := m.visible()
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(list)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Back):
		m.focus = paneSidebar
	case key.Matches(msg, keys.Toggle):
		if t, ok := m.current(); ok {
			return m, m.toggle(t)
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := m.current(); ok {
			return m, m.remove(t)
		}
	case key.Matches(msg, keys.Enter):
		if t, ok := m.current(); ok {
			m.engine.SelectTask(t.ID)
			return m.showEditForm(t)
		}
	}
	return m, nil
}

func (m taskListModel) toggle(t store.Task) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		updated, err := e.ToggleTask(context.Background(), t)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		if updated.Completed {
			return taskChangedMsg{text: "Completed " + updated.Title}
		}
		return taskChangedMsg{text: "Reopened " + updated.Title}
	}
}

func (m taskListModel) remove(t store.Task) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		if err := e.DeleteTask(context.Background(), t.ID); err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{text: "Deleted " + t.Title, deleted: t.ID}
	}
}

func (m taskListModel) showTitleForm(kind string) (taskListModel, tea.Cmd) {
	*m.formTitle = ""
	m.formType = kind

	title := "Task"
	if kind == "project" {
		title = "Project Name"
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Value(m.formTitle),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m taskListModel) showEditForm(t store.Task) (taskListModel, tea.Cmd) {
	m.editing = t
	m.formType = "edit"
	*m.formTitle = t.Title
	*m.formPriority = string(t.Priority)
	*m.formDue = ""
	if t.DueDate != nil {
		*m.formDue = t.DueDate.Local().Format(dueLayout)
	}
	*m.formLabels = t.Labels.Names()

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Priority").Options(
				huh.NewOption("None", ""),
				huh.NewOption("Low", string(store.PriorityLow)),
				huh.NewOption("Medium", string(store.PriorityMedium)),
				huh.NewOption("High", string(store.PriorityHigh)),
			).Value(m.formPriority),
			huh.NewInput().Title("Due (YYYY-MM-DD, blank for none)").Value(m.formDue).Validate(validateDue),
			huh.NewMultiSelect[string]().Title("Labels").Options(labelOptions(t.Labels)...).Value(m.formLabels),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func labelOptions(current store.Labels) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, l := range store.PresetLabels {
		opts = append(opts, huh.NewOption(dot(l.Color)+" "+l.Name, l.Name))
	}
	for _, l := range current {
		if store.LabelFor(l.Name).Color == store.DefaultColor {
			opts = append(opts, huh.NewOption(dot(l.Color)+" "+l.Name, l.Name))
		}
	}
	return opts
}

func validateDue(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.ParseInLocation(dueLayout, strings.TrimSpace(s), time.Local); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// parseDue returns 23:59:59 local on the given day, or nil for blank input.
func parseDue(s string) *time.Time {
	d, err := time.ParseInLocation(dueLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil
	}
	due := d.Add(24*time.Hour - time.Second)
	return &due
}

func (m taskListModel) updateForm(msg tea.Msg) (taskListModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.form = nil
	switch m.formType {
	case "task":
		m.formActive = false
		return m, m.createTask(*m.formTitle)
	case "project":
		m.formActive = false
		return m, m.createProject(*m.formTitle)
	case "edit":
		// Notes come last, in the block editor.
		m.notes = editor.New(m.editing.Content, "Notes…")
		m.notes.SetSize(max(20, m.width-10), max(3, m.height-10))
		return m, m.notes.Focus()
	}
	m.formActive = false
	return m, nil
}

func (m taskListModel) updateNotes(msg tea.Msg) (taskListModel, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(kmsg, keys.Save):
			return m.finishEdit(true)
		case key.Matches(kmsg, keys.Back):
			return m.finishEdit(false)
		}
	}
	return m, m.notes.Update(msg)
}

// finishEdit commits the form fields, plus the notes when keep is set.
func (m taskListModel) finishEdit(keep bool) (taskListModel, tea.Cmd) {
	t := m.editing
	if keep {
		content, err := m.notes.Save()
		if err != nil {
			m.notes.Destroy()
			m.notes = nil
			m.formActive = false
			return m, errStatus("Notes error: %v", err)
		}
		t.Content = content
	}
	m.notes.Destroy()
	m.notes = nil
	m.formActive = false

	t.Title = strings.TrimSpace(*m.formTitle)
	if p, err := store.ParsePriority(*m.formPriority); err == nil {
		t.Priority = p
	}
	t.DueDate = parseDue(*m.formDue)
	t.Labels = make(store.Labels, 0, len(*m.formLabels))
	for _, name := range *m.formLabels {
		t.Labels = append(t.Labels, labelNamed(m.editing.Labels, name))
	}

	e := m.engine
	return m, func() tea.Msg {
		updated, err := e.UpdateTask(context.Background(), t)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{text: "Saved " + updated.Title}
	}
}

// labelNamed keeps an existing label's colour, else uses the preset one.
func labelNamed(existing store.Labels, name string) store.Label {
	for _, l := range existing {
		if l.Name == name {
			return l
		}
	}
	return store.LabelFor(name)
}

func (m taskListModel) createTask(title string) tea.Cmd {
	e := m.engine
	sel := e.Selection()
	return func() tea.Msg {
		t, err := e.CreateTask(context.Background(), title, sel)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		if t == nil {
			return nil
		}
		return taskChangedMsg{text: "Added " + t.Title}
	}
}

func (m taskListModel) createProject(name string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		p, err := e.CreateProject(context.Background(), name)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		if p == nil {
			return nil
		}
		return taskChangedMsg{text: "Created project " + p.Name}
	}
}

func (m taskListModel) view() string {
	if m.formActive {
		return m.renderForm()
	}

	side := m.renderSidebar()
	listWidth := max(20, m.width-sidebarWidth-8)
	list := m.renderList(listWidth)
	return lipgloss.JoinHorizontal(lipgloss.Top, side, list)
}

func (m taskListModel) renderForm() string {
	w := m.width - 4
	var title, body string
	switch {
	case m.notes != nil:
		title = titleStyle.Render("Notes: " + *m.formTitle)
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.notes.View(), "", mutedStyle.Render("ctrl+s: save  esc: keep old notes"))
	case m.form != nil:
		switch m.formType {
		case "project":
			title = titleStyle.Render("New Project")
		case "edit":
			title = titleStyle.Render("Edit Task")
		default:
			title = titleStyle.Render("New Task in " + m.selectionName())
		}
		body = m.form.View()
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func (m taskListModel) selectionName() string {
	sel := m.engine.Selection()
	if p, ok := m.engine.SelectedProject(); ok {
		return p.Name
	}
	if sel.IsZero() {
		return "Inbox"
	}
	return sel.Kind.String()
}

func (m taskListModel) renderSidebar() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Views"), "")
	for i, it := range m.sidebar() {
		if i == 3 {
			rows = append(rows, "", mutedStyle.Render("Projects"))
		}
		cursor := "  "
		style := normalItemStyle
		if i == m.sideCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		label := it.label
		if r := []rune(label); len(r) > sidebarWidth-10 {
			label = string(r[:sidebarWidth-11]) + "…"
		}
		badge := ""
		if it.count > 0 {
			badge = mutedStyle.Render(fmt.Sprintf(" %d", it.count))
		}
		rows = append(rows, style.Render(cursor)+dot(it.color)+" "+style.Render(label)+badge)
	}

	style := panelStyle
	if m.focus == paneSidebar {
		style = activePanelStyle
	}
	return style.Width(sidebarWidth).Render(strings.Join(rows, "\n"))
}

func (m taskListModel) renderList(w int) string {
	sel := m.engine.Selection()
	header := titleStyle.Render(m.selectionName())
	if sel.Kind == tasks.ProjectView && sel.Completion == tasks.ProjectOpen {
		header += mutedStyle.Render("  (open only)")
	}

	style := panelStyle
	if m.focus == paneList {
		style = activePanelStyle
	}

	if sel.IsZero() {
		return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("Pick a view on the left.")))
	}

	list := m.visible()
	if len(list) == 0 {
		return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("No tasks. Press n to add one.")))
	}

	rows := []string{header, ""}
	for i, t := range list {
		rows = append(rows, m.renderTask(t, i == m.cursor && m.focus == paneList))
	}
	rows = append(rows, "", mutedStyle.Render("  space: done  enter: edit  d: delete  n: new  p: project"))
	return style.Width(w).Render(strings.Join(rows, "\n"))
}

func (m taskListModel) renderTask(t store.Task, selected bool) string {
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}
	box := "[ ]"
	title := style.Render(t.Title)
	if t.Completed {
		box = "[x]"
		title = doneItemStyle.Render(t.Title)
	}

	var extras []string
	switch t.Priority {
	case store.PriorityHigh:
		extras = append(extras, errorStyle.Render("!!!"))
	case store.PriorityMedium:
		extras = append(extras, warningStyle.Render("!!"))
	case store.PriorityLow:
		extras = append(extras, mutedStyle.Render("!"))
	}
	if t.DueDate != nil {
		extras = append(extras, mutedStyle.Render(t.DueDate.Local().Format("Jan 02")))
	}
	for _, l := range t.Labels {
		extras = append(extras, lipgloss.NewStyle().Foreground(lipgloss.Color(l.Color)).Render("#"+l.Name))
	}

	line := style.Render(cursor+box+" ") + title
	if len(extras) > 0 {
		line += "  " + strings.Join(extras, " ")
	}
	return line
}
