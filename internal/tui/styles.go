package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/floe/internal/theme"
)

// Fixed status colours; the rest come from the theme palette.
var (
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F39C12")
	colorError   = lipgloss.Color("#E74C3C")
)

var (
	colorPrimary lipgloss.Color
	colorAccent  lipgloss.Color
	colorMuted   lipgloss.Color
	colorFg      lipgloss.Color
	colorBg      lipgloss.Color
	colorSubtle  lipgloss.Color
)

var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	timerStyle        lipgloss.Style
	timerRunningStyle lipgloss.Style
	timerPausedStyle  lipgloss.Style
	titleStyle        lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
	doneItemStyle     lipgloss.Style
	screenStyle       lipgloss.Style
)

func init() {
	applyTheme(theme.Default())
}

// applyTheme rebuilds the package styles from t. Called from Update only.
func applyTheme(t theme.Theme) {
	p := t.Palette()
	colorPrimary = p.Primary
	colorAccent = p.Accent
	colorMuted = p.Muted
	colorFg = p.Fg
	colorBg = p.Bg
	colorSubtle = p.Subtle

	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	timerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Align(lipgloss.Center)

	timerRunningStyle = timerStyle.Foreground(colorAccent)
	timerPausedStyle = timerStyle.Foreground(colorWarning)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorPrimary)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(colorFg)
	doneItemStyle = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)

	screenStyle = lipgloss.NewStyle().Background(colorBg).Foreground(colorFg)
}

func dot(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
