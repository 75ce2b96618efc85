package undo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultGraceWindow is how long an action stays undoable.
const DefaultGraceWindow = 5 * time.Second

// Journal persists lifecycle transitions. Record is called in transition
// order for each action.
type Journal interface {
	Record(action PendingAction, state State, detail string) error
}

// Observer counts lifecycle transitions (metrics).
type Observer interface {
	ObserveOutcome(kind, outcome string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithGraceWindow sets the undo window. Non-positive values are ignored.
func WithGraceWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.grace = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithJournal persists every transition.
func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

// WithNotifier sets where notifications are sent.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

type entry struct {
	action   PendingAction
	finalize func(ctx context.Context) error
	revert   func(ctx context.Context) error
	cancel   func(ctx context.Context) error

	failureMessage string

	timer   *time.Timer
	gen     int
	undoing bool
	state   State
	done    chan struct{}
}

// startTimer arms e's timer for d. The caller holds mu. Callbacks of
// earlier timers of e are ignored.
func (c *Controller) startTimer(e *entry, d time.Duration) {
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(d, func() { c.expire(e, gen) })
}

func (e *entry) resolve(state State) {
	e.state = state
	select {
	case <-e.done:
	default:
		close(e.done)
	}
}

// event is one ordered side effect of a transition.
type event struct {
	action  PendingAction
	state   State
	detail  string
	show    *Notification
	dismiss bool
}

// Controller arms pending actions, runs their grace-window timers and
// handles undo, expiry, replacement and teardown. It is safe for
// concurrent use. Remote calls (Finalize, Revert) never run under the
// controller's lock.
type Controller struct {
	grace    time.Duration
	logger   zerolog.Logger
	journal  Journal
	notifier Notifier
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	active  map[Kind]*entry
	failed  map[Kind]*entry
	byID    map[string]*entry
	outbox  []event
	flushMu sync.Mutex
}

// NewController returns a Controller with no armed actions.
func NewController(opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		grace:  DefaultGraceWindow,
		logger: zerolog.Nop(),
		ctx:    ctx,
		cancel: cancel,
		active: make(map[Kind]*entry),
		failed: make(map[Kind]*entry),
		byID:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GraceWindow returns the configured undo window.
func (c *Controller) GraceWindow() time.Duration { return c.grace }

// Arm starts the grace window for a confirmed action. An armed action of
// the same kind is resolved first: a deferred one is cancelled (its remote
// call never fires and its local change is reverted), an immediate one is
// accepted as final.
func (c *Controller) Arm(a Action) (PendingAction, error) {
	if a.Revert == nil || (a.Kind.Deferred() && a.Finalize == nil) {
		return PendingAction{}, fmt.Errorf("%w: %s needs Revert and, when deferred, Finalize", ErrInvalidAction, a.Kind)
	}
	if _, ok := ParseKind(string(a.Kind)); !ok {
		return PendingAction{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, a.Kind)
	}

	e := &entry{
		action: PendingAction{
			ID:          uuid.NewString(),
			Kind:        a.Kind,
			SubjectID:   a.SubjectID,
			SubjectName: a.SubjectName,
			Message:     a.Message,
			PriorState:  a.PriorState,
			ArmedAt:     time.Now(),
			GraceWindow: c.grace,
		},
		finalize:       a.Finalize,
		revert:         a.Revert,
		cancel:         a.Cancel,
		failureMessage: a.FailureMessage,
		state:          StateArmed,
		done:           make(chan struct{}),
	}
	if e.cancel == nil {
		e.cancel = a.Revert
	}
	if e.failureMessage == "" {
		e.failureMessage = "Не удалось завершить действие: " + a.SubjectName
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return PendingAction{}, ErrClosed
	}

	prev := c.active[a.Kind]
	var cancelPrev *entry
	if prev != nil {
		prev.timer.Stop()
		delete(c.active, a.Kind)
		if !prev.undoing {
			if a.Kind.Deferred() {
				cancelPrev = prev
			}
			prev.resolve(StateReplaced)
			detail := "committed"
			if a.Kind.Deferred() {
				detail = "cancelled"
			}
			c.queue(event{action: prev.action, state: StateReplaced, detail: detail})
		}
	}

	c.active[a.Kind] = e
	c.byID[e.action.ID] = e
	c.startTimer(e, c.grace)

	c.queue(event{action: e.action, state: StateArmed, show: &Notification{
		Kind:     a.Kind,
		ActionID: e.action.ID,
		Level:    LevelInfo,
		Message:  a.Message,
		Undoable: true,
		Deadline: e.action.Deadline(),
	}})
	c.mu.Unlock()

	if cancelPrev != nil {
		if err := cancelPrev.cancel(c.ctx); err != nil {
			c.logger.Error().Err(err).
				Str("kind", string(cancelPrev.action.Kind)).
				Str("action_id", cancelPrev.action.ID).
				Msg("failed to cancel replaced action")
		}
	}

	c.flush()
	return e.action, nil
}

// Undo reverses the armed action of kind. On failure the action stays
// armed until its original deadline; if that deadline passed during the
// attempt, the action expires immediately.
func (c *Controller) Undo(ctx context.Context, kind Kind) error {
	c.mu.Lock()
	e := c.active[kind]
	if e == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNothingPending, kind)
	}
	if e.undoing {
		c.mu.Unlock()
		return ErrUndoInProgress
	}
	e.timer.Stop()
	e.undoing = true
	c.mu.Unlock()

	err := e.revert(ctx)

	c.mu.Lock()
	e.undoing = false
	current := c.active[kind] == e

	if err == nil {
		if current {
			delete(c.active, kind)
		}
		e.resolve(StateUndone)
		c.queue(event{action: e.action, state: StateUndone, dismiss: true})
		c.mu.Unlock()
		c.flush()
		return nil
	}

	c.logger.Warn().Err(err).
		Str("kind", string(kind)).
		Str("action_id", e.action.ID).
		Msg("undo failed")

	if !current {
		// Replaced or torn down while the undo ran: the action stands.
		if !e.state.Terminal() {
			state := StateReplaced
			if c.closed {
				state = StateTornDown
			}
			e.resolve(state)
			c.queue(event{action: e.action, state: state, detail: err.Error(), dismiss: true})
		}
		c.mu.Unlock()
		c.flush()
		return fmt.Errorf("undo %s: %w", kind, err)
	}

	if remaining := e.action.Remaining(time.Now()); remaining > 0 {
		c.startTimer(e, remaining)
		c.mu.Unlock()
		return fmt.Errorf("undo %s: %w", kind, err)
	}

	delete(c.active, kind)
	c.wg.Add(1)
	c.mu.Unlock()
	_ = c.lapse(e)
	return fmt.Errorf("undo %s: %w", kind, err)
}

// Commit ends the grace window of kind now, as if it had lapsed.
func (c *Controller) Commit(kind Kind) error {
	c.mu.Lock()
	e := c.active[kind]
	if e == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNothingPending, kind)
	}
	if e.undoing {
		c.mu.Unlock()
		return ErrUndoInProgress
	}
	e.timer.Stop()
	delete(c.active, kind)
	c.wg.Add(1)
	c.mu.Unlock()

	if err := c.lapse(e); err != nil {
		return fmt.Errorf("finalize %s: %w", kind, err)
	}
	return nil
}

// expire is the timer callback. It ignores the timer if the action was
// replaced, undone, re-timed or is being undone.
func (c *Controller) expire(e *entry, gen int) {
	c.mu.Lock()
	kind := e.action.Kind
	if c.closed || c.active[kind] != e || e.gen != gen || e.undoing {
		c.mu.Unlock()
		return
	}
	delete(c.active, kind)
	c.wg.Add(1)
	c.mu.Unlock()

	_ = c.lapse(e)
}

// lapse resolves an action whose window ended and returns the finalization
// error, if any. The caller has removed e from active and added one to wg.
func (c *Controller) lapse(e *entry) error {
	defer c.wg.Done()

	if !e.action.Kind.Deferred() {
		c.mu.Lock()
		e.resolve(StateExpired)
		c.queue(event{action: e.action, state: StateExpired, dismiss: true})
		c.mu.Unlock()
		c.flush()
		return nil
	}

	err := e.finalize(c.ctx)

	c.mu.Lock()
	switch {
	case err == nil:
		e.resolve(StateFinalized)
		c.queue(event{action: e.action, state: StateFinalized, dismiss: true})
	case c.ctx.Err() != nil:
		e.resolve(StateTornDown)
		c.queue(event{action: e.action, state: StateTornDown, detail: err.Error(), dismiss: true})
	default:
		c.logger.Error().Err(err).
			Str("kind", string(e.action.Kind)).
			Str("action_id", e.action.ID).
			Str("subject_id", e.action.SubjectID).
			Msg("deferred finalization failed")
		e.resolve(StateFinalizeFailed)
		c.failed[e.action.Kind] = e
		c.queue(event{action: e.action, state: StateFinalizeFailed, detail: err.Error(), show: failureNotification(e)})
	}
	c.mu.Unlock()
	c.flush()
	return err
}

func failureNotification(e *entry) *Notification {
	return &Notification{
		Kind:      e.action.Kind,
		ActionID:  e.action.ID,
		Level:     LevelError,
		Message:   e.failureMessage,
		Retryable: true,
	}
}

// RetryFinalize re-issues the failed deferred call of kind.
func (c *Controller) RetryFinalize(ctx context.Context, kind Kind) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	e := c.failed[kind]
	if e == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no failed %s", ErrNothingPending, kind)
	}
	delete(c.failed, kind)
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	err := e.finalize(ctx)

	c.mu.Lock()
	if err == nil {
		e.resolve(StateFinalized)
		c.queue(event{action: e.action, state: StateFinalized, dismiss: true})
	} else {
		if _, taken := c.failed[kind]; !taken && !c.closed {
			c.failed[kind] = e
		}
		c.queue(event{action: e.action, state: StateFinalizeFailed, detail: err.Error(), show: failureNotification(e)})
	}
	c.mu.Unlock()
	c.flush()

	if err != nil {
		return fmt.Errorf("finalize %s: %w", kind, err)
	}
	return nil
}

// DismissFailure drops the failure notification of kind. The journal keeps
// the action as finalize_failed for a later resume.
func (c *Controller) DismissFailure(kind Kind) {
	c.mu.Lock()
	e := c.failed[kind]
	if e == nil {
		c.mu.Unlock()
		return
	}
	delete(c.failed, kind)
	c.queue(event{action: e.action, dismiss: true})
	c.mu.Unlock()
	c.flush()
}

// Pending returns the armed action of kind.
func (c *Controller) Pending(kind Kind) (PendingAction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.active[kind]
	if e == nil {
		return PendingAction{}, false
	}
	return e.action, true
}

// PendingAll returns every armed action, oldest first.
func (c *Controller) PendingAll() []PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PendingAction, 0, len(c.active))
	for _, e := range c.active {
		out = append(out, e.action)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArmedAt.Before(out[j].ArmedAt) })
	return out
}

// Wait blocks until the action with id leaves the armed state and returns
// that state.
func (c *Controller) Wait(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	e := c.byID[id]
	c.mu.Unlock()
	if e == nil {
		return "", fmt.Errorf("%w: unknown action %s", ErrNothingPending, id)
	}

	select {
	case <-e.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return e.state, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close tears the controller down: timers stop, armed actions are marked
// torn_down, in-flight finalizations are cancelled and awaited, and every
// notification is dismissed. No finalization starts after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for kind, e := range c.active {
		e.timer.Stop()
		delete(c.active, kind)
		if e.undoing {
			continue
		}
		e.resolve(StateTornDown)
		c.queue(event{action: e.action, state: StateTornDown, dismiss: true})
	}
	for kind, e := range c.failed {
		delete(c.failed, kind)
		c.queue(event{action: e.action, dismiss: true})
	}
	c.mu.Unlock()

	c.cancel()
	c.flush()
	c.wg.Wait()
	c.flush()
}

// queue appends a side effect. The caller holds mu.
func (c *Controller) queue(ev event) {
	c.outbox = append(c.outbox, ev)
}

// flush emits queued side effects in the order they were queued.
func (c *Controller) flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	for {
		c.mu.Lock()
		batch := c.outbox
		c.outbox = nil
		c.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			c.emit(ev)
		}
	}
}

func (c *Controller) emit(ev event) {
	if ev.state != "" {
		c.logger.Debug().
			Str("kind", string(ev.action.Kind)).
			Str("action_id", ev.action.ID).
			Str("state", string(ev.state)).
			Str("detail", ev.detail).
			Msg("pending action transition")

		if c.observer != nil {
			c.observer.ObserveOutcome(string(ev.action.Kind), string(ev.state))
		}
		if c.journal != nil {
			if err := c.journal.Record(ev.action, ev.state, ev.detail); err != nil {
				c.logger.Warn().Err(err).Str("action_id", ev.action.ID).Msg("failed to journal pending action")
			}
		}
	}

	if c.notifier == nil {
		return
	}
	if ev.show != nil {
		c.notifier.Show(*ev.show)
	}
	if ev.dismiss {
		c.notifier.Dismiss(ev.action.Kind, ev.action.ID)
	}
}
