package deepwork

import (
	"context"
	"strconv"
)

const (
	keyFocus  = "focus_minutes"
	keyBreak  = "break_minutes"
	keyCustom = "custom_durations"
)

// Settings is the key/value store the timer lengths persist to.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// LoadConfig reads the saved lengths. Missing or out-of-range values fall
// back to Classic.
func LoadConfig(ctx context.Context, s Settings) Config {
	focus, ok1 := intSetting(ctx, s, keyFocus)
	brk, ok2 := intSetting(ctx, s, keyBreak)
	if !ok1 || !ok2 {
		return Classic
	}
	c, err := NewConfig(focus, brk)
	if err != nil {
		return Classic
	}
	return c
}

// SaveConfig validates c and stores it, flagging values that match no preset
// as custom.
func SaveConfig(ctx context.Context, s Settings, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.SetSetting(ctx, keyFocus, strconv.Itoa(c.FocusMinutes)); err != nil {
		return err
	}
	if err := s.SetSetting(ctx, keyBreak, strconv.Itoa(c.BreakMinutes)); err != nil {
		return err
	}
	return s.SetSetting(ctx, keyCustom, strconv.FormatBool(c.Preset() == ""))
}

func intSetting(ctx context.Context, s Settings, key string) (int, bool) {
	v, err := s.GetSetting(ctx, key)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}
