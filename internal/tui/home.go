package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/floe/internal/deepwork"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tasks"
)

type homeModel struct {
	store  *store.Store
	engine *tasks.Engine
	timer  *deepwork.Timer
	email  string
	width  int
	height int

	completed  int
	open       int
	totalFocus int64
	todayFocus int64
	todayCount int
}

func newHomeModel(s *store.Store, e *tasks.Engine, t *deepwork.Timer, email string) homeModel {
	return homeModel{store: s, engine: e, timer: t, email: email}
}

func (h *homeModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type homeDataMsg struct {
	completed  int
	open       int
	totalFocus int64
	todayFocus int64
	todayCount int
}

func (h homeModel) loadData() tea.Cmd {
	userID := h.engine.UserID()
	return func() tea.Msg {
		ctx := context.Background()
		var msg homeDataMsg
		msg.completed, _ = h.store.CountTasks(ctx, userID, true)
		msg.open, _ = h.store.CountTasks(ctx, userID, false)
		msg.totalFocus, _ = h.store.TotalFocusSeconds(ctx, userID)

		now := time.Now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		days, _ := h.store.FocusSummary(ctx, userID, dayStart, dayStart.Add(24*time.Hour))
		for _, d := range days {
			msg.todayFocus += d.TotalSeconds
			msg.todayCount += d.SessionCount
		}
		return msg
	}
}

func (h homeModel) update(msg tea.Msg) (homeModel, tea.Cmd) {
	if msg, ok := msg.(homeDataMsg); ok {
		h.completed = msg.completed
		h.open = msg.open
		h.totalFocus = msg.totalFocus
		h.todayFocus = msg.todayFocus
		h.todayCount = msg.todayCount
	}
	return h, nil
}

func (h homeModel) view() string {
	if h.width < 20 {
		return "Terminal too small"
	}
	w := h.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		h.renderTimerPanel(w),
		h.renderStatsPanel(w),
		h.renderTodayPanel(w),
	)
}

func (h homeModel) renderTimerPanel(w int) string {
	st := h.timer.Status()
	clock := formatClock(st.TimeLeft)

	var display, indicator string
	switch st.State {
	case deepwork.Running:
		display = timerRunningStyle.Width(w - 6).Render(clock)
		indicator = accentStyle.Render("●  " + st.Phase.String())
	case deepwork.Paused:
		display = timerPausedStyle.Width(w - 6).Render(clock)
		indicator = warningStyle.Render("⏸  PAUSED")
	default:
		display = timerStyle.Width(w - 6).Render(clock)
		indicator = mutedStyle.Render("■  " + st.Phase.String() + " ready")
	}

	task := mutedStyle.Render("No task selected. Press 3 to pick one.")
	if st.TaskTitle != "" {
		task = highlightStyle.Render(st.TaskTitle)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, display, indicator, task)
	if st.State == deepwork.Idle {
		return panelStyle.Width(w).Render(content)
	}
	return activePanelStyle.Width(w).Render(content)
}

func (h homeModel) renderStatsPanel(w int) string {
	title := titleStyle.Render("Overview")
	if h.email != "" {
		title += mutedStyle.Render("  " + h.email)
	}
	rows := []string{
		title,
		fmt.Sprintf("  %-18s %s", "Completed tasks", highlightStyle.Render(fmt.Sprint(h.completed))),
		fmt.Sprintf("  %-18s %s", "Open tasks", highlightStyle.Render(fmt.Sprint(h.open))),
		fmt.Sprintf("  %-18s %s", "Total focus", highlightStyle.Render(formatHours(h.totalFocus))),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (h homeModel) renderTodayPanel(w int) string {
	title := titleStyle.Render("Today")
	c := h.engine.Counts()
	rows := []string{
		fmt.Sprintf("%s  %s", title, highlightStyle.Render(formatSeconds(h.todayFocus))),
	}
	if h.todayCount == 0 {
		rows = append(rows, mutedStyle.Render("No completed focus sessions today"))
	} else {
		rows = append(rows, fmt.Sprintf("  %d focus sessions completed", h.todayCount))
	}
	rows = append(rows, fmt.Sprintf("  %d due today  %d upcoming  %d in inbox", c.Today, c.Upcoming, c.Inbox))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
