package deepwork

import (
	"context"
	"errors"
	"time"
)

// ErrNoTask is returned by Run when the focus phase has no task to bind.
var ErrNoTask = errors.New("deepwork: no task selected")

// Prompter decides whether to start the next phase after one completes.
type Prompter interface {
	Continue(next Phase) bool
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(Phase) bool

func (f PrompterFunc) Continue(next Phase) bool { return f(next) }

// Run drives t with a real ticker until the prompter declines or ctx ends.
// A prompter should answer no once ctx is done.
// A cancelled run is stopped, so its open session is recorded as abandoned.
func (t *Timer) Run(ctx context.Context, p Prompter) error {
	return t.run(ctx, p, time.Second)
}

func (t *Timer) run(ctx context.Context, p Prompter, interval time.Duration) error {
	if !t.Start(ctx) {
		return ErrNoTask
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Stop(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			st := t.Status()
			if st.State != Running {
				continue
			}
			if !t.Tick(ctx, st.Gen) {
				continue
			}
			next := t.Status().Phase
			if !p.Continue(next) {
				t.Decline()
				return ctx.Err()
			}
			if !t.Continue(ctx) {
				return ErrNoTask
			}
		}
	}
}
