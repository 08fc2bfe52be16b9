package deepwork

import (
	"errors"
	"fmt"
)

const (
	MinFocusMinutes = 1
	MaxFocusMinutes = 120
	MinBreakMinutes = 1
	MaxBreakMinutes = 60
)

var ErrOutOfRange = errors.New("deepwork: duration out of range")

// Config holds the focus and break lengths in minutes.
type Config struct {
	FocusMinutes int
	BreakMinutes int
}

var (
	Classic  = Config{FocusMinutes: 25, BreakMinutes: 5}
	Extended = Config{FocusMinutes: 45, BreakMinutes: 15}
)

type Preset struct {
	Name   string
	Config Config
}

var Presets = []Preset{
	{Name: "Classic", Config: Classic},
	{Name: "Extended", Config: Extended},
}

// NewConfig validates custom values.
func NewConfig(focus, brk int) (Config, error) {
	c := Config{FocusMinutes: focus, BreakMinutes: brk}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.FocusMinutes < MinFocusMinutes || c.FocusMinutes > MaxFocusMinutes {
		return fmt.Errorf("focus %d min: %w", c.FocusMinutes, ErrOutOfRange)
	}
	if c.BreakMinutes < MinBreakMinutes || c.BreakMinutes > MaxBreakMinutes {
		return fmt.Errorf("break %d min: %w", c.BreakMinutes, ErrOutOfRange)
	}
	return nil
}

// Preset returns the name of the matching preset, or "" for custom values.
func (c Config) Preset() string {
	for _, p := range Presets {
		if p.Config == c {
			return p.Name
		}
	}
	return ""
}

func (c Config) seconds(p Phase) int {
	if p == Break {
		return c.BreakMinutes * 60
	}
	return c.FocusMinutes * 60
}

func (c Config) String() string {
	return fmt.Sprintf("%d/%d", c.FocusMinutes, c.BreakMinutes)
}
