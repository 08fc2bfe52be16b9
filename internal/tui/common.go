package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type viewState int

const (
	viewHome viewState = iota
	viewTasks
	viewDeepWork
	viewReports
	viewSettings
)

var viewNames = []string{"Home", "Tasks", "Deep Work", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

// deepworkTickMsg carries the timer generation it was armed with.
type deepworkTickMsg struct {
	gen uint64
}

type tasksLoadedMsg struct {
	err error
}

type taskChangedMsg struct {
	text    string
	deleted string // id of a task that no longer exists
	err     error
}

type themeChangedMsg struct{}

type timerConfigMsg struct{}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func errStatus(format string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf(format, err), isError: true}
	}
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// formatClock renders a countdown as MM:SS.
func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatHours(secs int64) string {
	return fmt.Sprintf("%.1fh", float64(secs)/3600)
}
