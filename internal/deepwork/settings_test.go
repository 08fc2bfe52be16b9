package deepwork

import (
	"context"
	"errors"
	"testing"
)

type mapSettings map[string]string

func (m mapSettings) GetSetting(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func (m mapSettings) SetSetting(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestLoadConfigDefaults(t *testing.T) {
	if got := LoadConfig(context.Background(), mapSettings{}); got != Classic {
		t.Fatalf("expected Classic, got %v", got)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := mapSettings{}

	if err := SaveConfig(ctx, s, Extended); err != nil {
		t.Fatal(err)
	}
	if s[keyCustom] != "false" {
		t.Fatalf("preset values should not be flagged custom, got %q", s[keyCustom])
	}
	if got := LoadConfig(ctx, s); got != Extended {
		t.Fatalf("expected Extended, got %v", got)
	}

	custom := Config{FocusMinutes: 50, BreakMinutes: 10}
	if err := SaveConfig(ctx, s, custom); err != nil {
		t.Fatal(err)
	}
	if s[keyCustom] != "true" {
		t.Fatalf("expected custom flag, got %q", s[keyCustom])
	}
	if got := LoadConfig(ctx, s); got != custom {
		t.Fatalf("expected %v, got %v", custom, got)
	}
}

func TestSaveConfigRejectsOutOfRange(t *testing.T) {
	s := mapSettings{}
	err := SaveConfig(context.Background(), s, Config{FocusMinutes: 0, BreakMinutes: 5})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if len(s) != 0 {
		t.Fatalf("nothing should be written, got %v", s)
	}
}

func TestLoadConfigIgnoresBadValues(t *testing.T) {
	s := mapSettings{keyFocus: "500", keyBreak: "5"}
	if got := LoadConfig(context.Background(), s); got != Classic {
		t.Fatalf("expected Classic for out-of-range value, got %v", got)
	}
}
