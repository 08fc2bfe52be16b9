package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/tasks"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

func (m reportMode) String() string {
	if m == reportWeekly {
		return "Weekly"
	}
	return "Daily"
}

type reportsModel struct {
	store  *store.Store
	engine *tasks.Engine
	width  int
	height int

	mode   reportMode
	days   []store.DailyFocus
	offset int // 7-day blocks back from today
	now    func() time.Time

	chart barchart.Model
}

func newReportsModel(s *store.Store, e *tasks.Engine) reportsModel {
	return reportsModel{
		store:  s,
		engine: e,
		now:    time.Now,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days []store.DailyFocus
	err  error
}

func (r reportsModel) refresh() tea.Cmd {
	userID := r.engine.UserID()
	from, to := r.dateRange()
	return func() tea.Msg {
		days, err := r.store.FocusSummary(context.Background(), userID, from, to)
		return reportsDataMsg{days: days, err: err}
	}
}

// dateRange is the UTC window shown: the last seven days, or the Monday-based
// week, shifted back by offset.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if r.mode == reportWeekly {
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		start := today.AddDate(0, 0, -int(weekday-time.Monday)-7*r.offset)
		return start, start.AddDate(0, 0, 7)
	}
	end := today.AddDate(0, 0, 1-7*r.offset)
	return end.AddDate(0, 0, -7), end
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			return r, errStatus("Reports: %v", msg.err)
		}
		r.days = msg.days
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Range):
			r.mode = (r.mode + 1) % 2
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

// minutesOn returns the focus minutes recorded for the UTC day d.
func (r reportsModel) minutesOn(d time.Time) float64 {
	date := d.Format("2006-01-02")
	for _, day := range r.days {
		if day.Date == date {
			return float64(day.TotalSeconds) / 60
		}
	}
	return 0
}

func (r *reportsModel) buildChart() {
	width := max(20, r.width-8)
	height := 12
	if r.height > 30 {
		height = 16
	}
	r.chart = barchart.New(width, height)

	bar := lipgloss.NewStyle().Foreground(colorPrimary)
	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: []barchart.BarValue{{Name: "focus", Value: r.minutesOn(d), Style: bar}},
		})
	}
	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	var tabs []string
	for _, m := range []reportMode{reportDaily, reportWeekly} {
		style := inactiveTabStyle
		if m == r.mode {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(m.String()))
	}

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Focus Minutes"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "  ", dateLabel,
	)
	nav := mutedStyle.Render("  ←/→: navigate  w: daily/weekly")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTable(w int) string {
	if len(r.days) == 0 {
		return mutedStyle.Render("  No completed focus sessions in this period")
	}

	var total int64
	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %10s %9s", "Date", "Focus", "Sessions")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 33))),
	}
	for _, d := range r.days {
		total += d.TotalSeconds
		rows = append(rows, fmt.Sprintf("  %-12s %10s %9d", d.Date, formatSeconds(d.TotalSeconds), d.SessionCount))
	}
	rows = append(rows, highlightStyle.Render(fmt.Sprintf("  %-12s %10s", "Total", formatSeconds(total))))
	return strings.Join(rows, "\n")
}
