// Package deepwork implements the focus/break countdown and records each
// focus interval as a session.
package deepwork

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sadopc/floe/internal/store"
)

type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	}
	return "IDLE"
}

type Phase int

const (
	Focus Phase = iota
	Break
)

func (p Phase) String() string {
	if p == Break {
		return "BREAK"
	}
	return "FOCUS"
}

// SessionStore persists session records. *store.Store satisfies it.
type SessionStore interface {
	StartSession(ctx context.Context, s store.DeepWorkSession) (*store.DeepWorkSession, error)
	EndSession(ctx context.Context, id string, endedAt time.Time, completed bool) error
}

// Status is a point-in-time copy of the timer.
type Status struct {
	State     State
	Phase     Phase
	TimeLeft  int // seconds
	Gen       uint64
	TaskID    string
	TaskTitle string
	SessionID string
	Pending   bool // a phase just completed and awaits Continue or Decline
	Config    Config
}

// Timer is the deep work state machine. Ticks carry the generation they were
// armed with; any transition that stops the countdown bumps the generation
// so at most one tick chain is ever live.
type Timer struct {
	sessions SessionStore
	notifier Notifier
	now      func() time.Time

	mu        sync.Mutex
	userID    string
	cfg       Config
	state     State
	phase     Phase
	timeLeft  int
	gen       uint64
	runID     uint64 // identifies the focus run a session record belongs to
	taskID    string
	taskTitle string
	sessionID string
	pending   bool
	closed    bool
}

type Option func(*Timer)

func WithConfig(c Config) Option { return func(t *Timer) { t.cfg = c } }

func WithNotifier(n Notifier) Option { return func(t *Timer) { t.notifier = n } }

func WithClock(now func() time.Time) Option { return func(t *Timer) { t.now = now } }

func WithUser(id string) Option { return func(t *Timer) { t.userID = id } }

func New(sessions SessionStore, opts ...Option) *Timer {
	t := &Timer{
		sessions: sessions,
		notifier: silent{},
		now:      time.Now,
		cfg:      Classic,
	}
	for _, o := range opts {
		o(t)
	}
	t.timeLeft = t.cfg.seconds(Focus)
	return t
}

func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *Timer) statusLocked() Status {
	return Status{
		State:     t.state,
		Phase:     t.phase,
		TimeLeft:  t.timeLeft,
		Gen:       t.gen,
		TaskID:    t.taskID,
		TaskTitle: t.taskTitle,
		SessionID: t.sessionID,
		Pending:   t.pending,
		Config:    t.cfg,
	}
}

func (t *Timer) SetUser(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userID = id
}

// SetConfig applies c. While idle in the focus phase the countdown is reset
// to the new focus length.
func (t *Timer) SetConfig(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = c
	if t.state == Idle && t.phase == Focus {
		t.timeLeft = c.seconds(Focus)
	}
	return nil
}

// SelectTask binds the timer to a task. It is refused while a run is active.
func (t *Timer) SelectTask(id, title string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Idle {
		return false
	}
	t.taskID, t.taskTitle = id, title
	return true
}

// ForgetTask drops the selected task if it is id, so a deleted task is never
// used for the next focus session. A session already recording keeps its
// row. It reports whether the selection was cleared.
func (t *Timer) ForgetTask(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == "" || t.taskID != id {
		return false
	}
	t.taskID, t.taskTitle = "", ""
	return true
}

// Start begins the current phase from Idle. Focus needs a selected task;
// without one Start does nothing and returns false.
func (t *Timer) Start(ctx context.Context) bool {
	t.mu.Lock()
	if t.closed || t.state != Idle {
		t.mu.Unlock()
		return false
	}
	if t.phase == Focus && t.taskID == "" {
		t.mu.Unlock()
		return false
	}
	t.pending = false
	t.timeLeft = t.cfg.seconds(t.phase)
	t.state = Running
	t.gen++
	t.runID++
	run := t.runID
	var rec *store.DeepWorkSession
	if t.phase == Focus {
		taskID := t.taskID
		rec = &store.DeepWorkSession{
			UserID:        t.userID,
			TaskID:        &taskID,
			Duration:      t.cfg.seconds(Focus),
			BreakDuration: t.cfg.seconds(Break),
			StartedAt:     t.now(),
		}
	}
	t.mu.Unlock()

	if rec != nil {
		t.openSession(ctx, run, *rec)
	}
	return true
}

func (t *Timer) openSession(ctx context.Context, run uint64, rec store.DeepWorkSession) {
	sess, err := t.sessions.StartSession(ctx, rec)
	if err != nil {
		log.Printf("deepwork: start session: %v", err)
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if run == t.runID {
		t.sessionID = sess.ID
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// The run ended before the record was written; close it as abandoned.
	t.closeSession(ctx, sess.ID, false)
}

func (t *Timer) closeSession(ctx context.Context, id string, completed bool) {
	if id == "" {
		return
	}
	if err := t.sessions.EndSession(ctx, id, t.now(), completed); err != nil {
		log.Printf("deepwork: end session %s: %v", id, err)
	}
}

func (t *Timer) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Running {
		return false
	}
	t.state = Paused
	t.gen++
	return true
}

func (t *Timer) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.state != Paused {
		return false
	}
	t.state = Running
	t.gen++
	return true
}

// Toggle pauses a running timer or resumes a paused one.
func (t *Timer) Toggle() bool {
	if t.Pause() {
		return true
	}
	return t.Resume()
}

// Stop abandons the run: the timer returns to Idle in the focus phase with a
// full focus countdown, and any open session is closed as not completed.
func (t *Timer) Stop(ctx context.Context) {
	t.mu.Lock()
	id := t.sessionID
	t.sessionID = ""
	t.state = Idle
	t.phase = Focus
	t.pending = false
	t.timeLeft = t.cfg.seconds(Focus)
	t.gen++
	t.runID++
	t.mu.Unlock()

	t.closeSession(ctx, id, false)
}

// Tick advances the countdown by one second if gen is the live generation
// and the timer is running. It reports whether the tick completed a phase.
func (t *Timer) Tick(ctx context.Context, gen uint64) bool {
	t.mu.Lock()
	if t.closed || t.state != Running || gen != t.gen {
		t.mu.Unlock()
		return false
	}
	if t.timeLeft > 0 {
		t.timeLeft--
		t.mu.Unlock()
		return false
	}

	done := t.phase
	id := t.sessionID
	t.sessionID = ""
	if done == Focus {
		t.phase = Break
	} else {
		t.phase = Focus
		id = ""
	}
	t.timeLeft = t.cfg.seconds(t.phase)
	t.state = Idle
	t.pending = true
	t.gen++
	t.runID++
	t.mu.Unlock()

	t.closeSession(ctx, id, true)
	_ = t.notifier.Notify(done)
	return true
}

// Continue answers a completion prompt by starting the next phase.
func (t *Timer) Continue(ctx context.Context) bool {
	t.mu.Lock()
	t.pending = false
	t.mu.Unlock()
	return t.Start(ctx)
}

// Decline answers a completion prompt by staying idle.
func (t *Timer) Decline() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = false
}

// Close retires the timer. Later ticks and session results are dropped.
// An open session is left as is.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.state = Idle
	t.gen++
}
