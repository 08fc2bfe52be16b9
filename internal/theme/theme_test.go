package theme

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

func TestNextWraps(t *testing.T) {
	th := Theme{Mode: Picture, Background: len(Backgrounds) - 1}
	if got := th.Next().Background; got != 0 {
		t.Fatalf("expected wrap to 0, got %d", got)
	}
}

func TestCycleModes(t *testing.T) {
	th := Default()
	seen := []Mode{th.Mode}
	for i := 0; i < len(Modes); i++ {
		th = th.Cycle()
		seen = append(seen, th.Mode)
	}
	if seen[1] != Light || seen[2] != Dark || seen[3] != Picture {
		t.Fatalf("unexpected cycle %v", seen)
	}
}

func TestPictureUsesBackground(t *testing.T) {
	th := Theme{Mode: Picture, Background: 2}
	if th.Palette().Bg != Backgrounds[2] {
		t.Fatalf("expected background 2, got %s", th.Palette().Bg)
	}
	if (Theme{Mode: Dark, Background: 2}).Palette().Bg == Backgrounds[2] {
		t.Fatal("dark mode ignores the picture rotation")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	s := mapSettings{}
	ctx := context.Background()
	if got := Load(ctx, s); got != Default() {
		t.Fatalf("expected default for empty settings, got %+v", got)
	}

	want := Theme{Mode: Dark, Background: 3}
	if err := Save(ctx, s, want); err != nil {
		t.Fatal(err)
	}
	if got := Load(ctx, s); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestLoadIgnoresBadValues(t *testing.T) {
	s := mapSettings{keyMode: "neon", keyBackground: "99"}
	if got := Load(context.Background(), s); got != Default() {
		t.Fatalf("expected default, got %+v", got)
	}
}
