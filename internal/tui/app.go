// Package tui is the Bubble Tea front end: tasks, deep work, reports and
// settings over a single store.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/floe/internal/deepwork"
	"github.com/sadopc/floe/internal/export"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tasks"
	"github.com/sadopc/floe/internal/theme"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	engine *tasks.Engine
	timer  *deepwork.Timer
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	home     homeModel
	taskList taskListModel
	deepwork deepworkModel
	reports  reportsModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the UI for user. The timer's lengths and the theme are read
// from the settings table.
func NewApp(s *store.Store, user store.User) App {
	ctx := context.Background()
	engine := tasks.NewEngine(s)
	engine.SetUser(user.ID)

	timer := deepwork.New(s,
		deepwork.WithUser(user.ID),
		deepwork.WithConfig(deepwork.LoadConfig(ctx, s)),
		deepwork.WithNotifier(deepwork.Bell{W: os.Stderr}),
	)

	th := theme.Load(ctx, s)
	applyTheme(th)

	home, _ := os.UserHomeDir()
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		engine:     engine,
		timer:      timer,
		activeView: viewHome,
		exportDir:  home,
		home:       newHomeModel(s, engine, timer, user.Email),
		taskList:   newTaskListModel(engine),
		deepwork:   newDeepworkModel(s, engine, timer),
		reports:    newReportsModel(s, engine),
		settings:   newSettingsModel(s, timer, th),
		help:       h,
	}
}

// Close retires the engine and the timer. Call it after the program exits.
func (a App) Close() {
	a.timer.Close()
	a.engine.Close()
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.taskList.refresh(),
		a.home.loadData(),
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.home.setSize(a.width, contentHeight)
		a.taskList.setSize(a.width, contentHeight)
		a.deepwork.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input (form, editor) gets keys first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewHome)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewTasks)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewDeepWork)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case deepworkTickMsg:
		// Ticks reach the timer whichever view is showing.
		var cmd tea.Cmd
		a.deepwork, cmd = a.deepwork.update(msg)
		return a, cmd

	case tasksLoadedMsg:
		if msg.err != nil {
			a.status, a.statusErr = fmt.Sprintf("Load failed: %v", msg.err), true
		}
		a.taskList = a.taskList.synced()
		return a, nil

	case taskChangedMsg:
		if msg.err != nil {
			a.status, a.statusErr = fmt.Sprintf("Error: %v", msg.err), true
		} else {
			a.status, a.statusErr = msg.text, false
		}
		if msg.deleted != "" {
			a.timer.ForgetTask(msg.deleted)
		}
		a.taskList = a.taskList.synced()
		return a, a.home.loadData()

	case homeDataMsg:
		a.home, _ = a.home.update(msg)
		return a, nil

	case themeChangedMsg:
		applyTheme(a.settings.theme)
		a.status, a.statusErr = "Theme: "+string(a.settings.theme.Mode), false
		if a.activeView == viewReports {
			a.reports.buildChart()
		}
		return a, nil

	case timerConfigMsg:
		return a, a.settings.refresh()

	case statusMsg:
		a.status, a.statusErr = msg.text, msg.isError
		return a, nil

	case exportDoneMsg:
		a.status, a.statusErr = "Exported to "+msg.path, false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewHome:
		a.home, cmd = a.home.update(msg)
	case viewTasks:
		a.taskList, cmd = a.taskList.update(msg)
	case viewDeepWork:
		a.deepwork, cmd = a.deepwork.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.taskList.formActive
	case viewDeepWork:
		return a.deepwork.formActive || a.deepwork.picking
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewHome:
		return a.home.loadData()
	case viewTasks:
		return a.taskList.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewHome:
		content = a.home.view()
	case viewTasks:
		content = a.taskList.view()
	case viewDeepWork:
		content = a.deepwork.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(1, a.height-lipgloss.Height(header)-lipgloss.Height(footer))
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content, footer))
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("floe")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	statusText := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		statusText = style.Render(" " + a.status)
	}

	timerInfo := ""
	st := a.timer.Status()
	switch {
	case st.State == deepwork.Running:
		timerInfo = accentStyle.Render(" ● " + st.Phase.String() + " " + formatClock(st.TimeLeft))
	case st.State == deepwork.Paused:
		timerInfo = warningStyle.Render(" ⏸ " + formatClock(st.TimeLeft))
	case st.Pending && a.activeView != viewDeepWork:
		timerInfo = successStyle.Render(" ✓ phase done, press 3")
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + statusText

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Tasks"), ""}
	for i, f := range []string{"CSV", "JSON"} {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the cached tasks to ~/floe-export-<date>.csv or .json.
func (a App) doExport(format int) tea.Cmd {
	taskList := a.engine.Tasks()
	projects := export.ProjectIndex(a.engine.Projects())
	dir := a.exportDir
	ext, write := "csv", export.ToCSV
	if format == 1 {
		ext, write = "json", export.ToJSON
	}
	return func() tea.Msg {
		name := fmt.Sprintf("floe-export-%s.%s", time.Now().Format("2006-01-02"), ext)
		path := filepath.Join(dir, name)
		if err := write(taskList, projects, path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export %s: %v", ext, err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
