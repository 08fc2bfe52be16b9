// Package theme holds the UI's appearance settings: a mode and a rotating
// background, persisted in the settings table.
package theme

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

type Mode string

const (
	Picture Mode = "picture"
	Light   Mode = "light"
	Dark    Mode = "dark"
)

var Modes = []Mode{Picture, Light, Dark}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown theme mode %q", s)
}

// Backgrounds is the picture-mode rotation.
var Backgrounds = []lipgloss.Color{
	"#1A1B26", // night
	"#1E2A24", // forest
	"#2A1E1E", // ember
	"#1B2333", // harbor
	"#262335", // dusk
	"#2B2A1F", // dune
}

const (
	keyMode       = "theme_mode"
	keyBackground = "theme_background"
)

// Palette is the set of colours the UI renders with.
type Palette struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Fg      lipgloss.Color
	Bg      lipgloss.Color
	Muted   lipgloss.Color
	Subtle  lipgloss.Color
}

type Theme struct {
	Mode       Mode
	Background int
}

func Default() Theme { return Theme{Mode: Picture} }

// Next advances to the following background, wrapping around.
func (t Theme) Next() Theme {
	t.Background = (t.Background + 1) % len(Backgrounds)
	return t
}

// Cycle advances to the following mode.
func (t Theme) Cycle() Theme {
	for i, m := range Modes {
		if m == t.Mode {
			t.Mode = Modes[(i+1)%len(Modes)]
			return t
		}
	}
	t.Mode = Picture
	return t
}

func (t Theme) Palette() Palette {
	switch t.Mode {
	case Light:
		return Palette{
			Primary: "#4B44CC",
			Accent:  "#D64545",
			Fg:      "#24283B",
			Bg:      "#F5F5F5",
			Muted:   "#8A8A8A",
			Subtle:  "#C8C8D0",
		}
	case Dark:
		return Palette{
			Primary: "#6C63FF",
			Accent:  "#FF6B6B",
			Fg:      "#C0CAF5",
			Bg:      "#000000",
			Muted:   "#666666",
			Subtle:  "#414868",
		}
	}
	return Palette{
		Primary: "#7AA2F7",
		Accent:  "#2EC4B6",
		Fg:      "#C0CAF5",
		Bg:      Backgrounds[t.index()],
		Muted:   "#666666",
		Subtle:  "#414868",
	}
}

func (t Theme) index() int {
	if t.Background < 0 || t.Background >= len(Backgrounds) {
		return 0
	}
	return t.Background
}

// Settings is the key/value store the theme persists to.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Load reads the theme, falling back to Default for missing or bad values.
func Load(ctx context.Context, s Settings) Theme {
	t := Default()
	if v, err := s.GetSetting(ctx, keyMode); err == nil {
		if m, err := ParseMode(v); err == nil {
			t.Mode = m
		}
	}
	if v, err := s.GetSetting(ctx, keyBackground); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			t.Background = n
		}
	}
	t.Background = t.index()
	return t
}

func Save(ctx context.Context, s Settings, t Theme) error {
	if err := s.SetSetting(ctx, keyMode, string(t.Mode)); err != nil {
		return err
	}
	return s.SetSetting(ctx, keyBackground, strconv.Itoa(t.index()))
}
