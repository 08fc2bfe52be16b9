package deepwork

import (
	"io"
	"os"
)

// Notifier plays the cue at the end of a phase. Errors are ignored by the timer.
type Notifier interface {
	Notify(completed Phase) error
}

// Bell rings the terminal bell on W, or stdout when W is nil.
type Bell struct {
	W io.Writer
}

func (b Bell) Notify(Phase) error {
	w := b.W
	if w == nil {
		w = os.Stdout
	}
	_, err := io.WriteString(w, "\a")
	return err
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Phase) error

func (f NotifierFunc) Notify(p Phase) error { return f(p) }

type silent struct{}

func (silent) Notify(Phase) error { return nil }
