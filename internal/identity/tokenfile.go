package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenFile keeps the CLI's current session token on disk.
type TokenFile struct {
	Path string
}

// Load returns "" when no token has been saved.
func (f TokenFile) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (f TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(f.Path, []byte(token+"\n"), 0o600)
}

func (f TokenFile) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
