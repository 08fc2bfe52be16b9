package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/floe/internal/deepwork"
	"github.com/sadopc/floe/internal/store"
	"github.com/sadopc/floe/internal/theme"
)

const customPreset = "custom"

type settingsModel struct {
	store  *store.Store
	timer  *deepwork.Timer
	theme  theme.Theme
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	preset     *string
	focusInput *string
	breakInput *string
}

func newSettingsModel(s *store.Store, t *deepwork.Timer, th theme.Theme) settingsModel {
	p, f, b := "", "", ""
	return settingsModel{
		store:      s,
		timer:      t,
		theme:      th,
		preset:     &p,
		focusInput: &f,
		breakInput: &b,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings(context.Background())
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		case key.Matches(msg, keys.Mode):
			return s.setTheme(s.theme.Cycle())
		case key.Matches(msg, keys.Background):
			return s.setTheme(s.theme.Next())
		}
	}
	return s, nil
}

func (s settingsModel) setTheme(t theme.Theme) (settingsModel, tea.Cmd) {
	if err := theme.Save(context.Background(), s.store, t); err != nil {
		return s, errStatus("Save theme: %v", err)
	}
	s.theme = t
	return s, tea.Batch(
		func() tea.Msg { return themeChangedMsg{} },
		s.refresh(),
	)
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cfg := s.timer.Status().Config
	*s.preset = strings.ToLower(cfg.Preset())
	if *s.preset == "" {
		*s.preset = customPreset
	}
	*s.focusInput = strconv.Itoa(cfg.FocusMinutes)
	*s.breakInput = strconv.Itoa(cfg.BreakMinutes)

	opts := make([]huh.Option[string], 0, len(deepwork.Presets)+1)
	for _, p := range deepwork.Presets {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", p.Name, p.Config), strings.ToLower(p.Name)))
	}
	opts = append(opts, huh.NewOption("Custom", customPreset))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Timer preset").Options(opts...).Value(s.preset),
		).Title("Deep Work"),
		huh.NewGroup(
			huh.NewInput().Title(fmt.Sprintf("Focus (%d-%d min)", deepwork.MinFocusMinutes, deepwork.MaxFocusMinutes)).
				Value(s.focusInput).Validate(minutesValidator(deepwork.MinFocusMinutes, deepwork.MaxFocusMinutes)),
			huh.NewInput().Title(fmt.Sprintf("Break (%d-%d min)", deepwork.MinBreakMinutes, deepwork.MaxBreakMinutes)).
				Value(s.breakInput).Validate(minutesValidator(deepwork.MinBreakMinutes, deepwork.MaxBreakMinutes)),
		).Title("Custom durations").WithHideFunc(func() bool { return *s.preset != customPreset }),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func minutesValidator(lo, hi int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < lo || n > hi {
			return fmt.Errorf("enter %d to %d", lo, hi)
		}
		return nil
	}
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State != huh.StateCompleted {
		return s, cmd
	}

	s.formActive = false
	s.form = nil
	cfg, err := s.formConfig()
	if err != nil {
		return s, errStatus("Settings: %v", err)
	}
	if err := s.timer.SetConfig(cfg); err != nil {
		return s, errStatus("Settings: %v", err)
	}
	if err := deepwork.SaveConfig(context.Background(), s.store, cfg); err != nil {
		return s, errStatus("Save settings: %v", err)
	}
	return s, tea.Batch(
		s.refresh(),
		func() tea.Msg { return timerConfigMsg{} },
		status("Timer set to "+cfg.String()),
	)
}

func (s settingsModel) formConfig() (deepwork.Config, error) {
	for _, p := range deepwork.Presets {
		if strings.ToLower(p.Name) == *s.preset {
			return p.Config, nil
		}
	}
	focus, _ := strconv.Atoi(strings.TrimSpace(*s.focusInput))
	brk, _ := strconv.Atoi(strings.TrimSpace(*s.breakInput))
	return deepwork.NewConfig(focus, brk)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	swatches := make([]string, len(theme.Backgrounds))
	for i, bg := range theme.Backgrounds {
		mark := "  "
		if i == s.theme.Background {
			mark = "▣ "
		}
		swatches[i] = lipgloss.NewStyle().Background(bg).Foreground(colorFg).Render(mark)
	}

	rows = append(rows,
		"",
		fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("backgrounds"), strings.Join(swatches, " ")),
		"",
		mutedStyle.Render("  enter: timer durations  m: theme mode  b: next background"),
	)
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "focus_minutes", "break_minutes":
		return v + " min"
	case "custom_durations":
		if v == "true" {
			return "custom"
		}
		return "preset"
	}
	return v
}
