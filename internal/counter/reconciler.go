// Package counter turns elapsed calendar days into counter increments and
// decides when a Fibonacci milestone needs the user's attention.
package counter

import (
	"context"
	"log/slog"
	"time"

	"github.com/lazypower/fibday/internal/store"
)

// Result is what one reconciliation observed.
type Result struct {
	Value       uint64
	State       State
	DaysPassed  int
	Initialized bool // first activation, state was just created
	Wrote       bool
}

// Reconciler owns the counter's value and last-update date. It is not safe
// for concurrent use; callers run one handler at a time.
type Reconciler struct {
	kv  store.KV
	now func() time.Time
	loc *time.Location

	last    State
	hasLast bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithLocation sets the zone whose calendar defines "today".
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// NewReconciler returns a Reconciler persisting to kv.
func NewReconciler(kv store.KV, opts ...Option) *Reconciler {
	r := &Reconciler{
		kv:  kv,
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Today returns the current calendar date in the reconciler's location.
func (r *Reconciler) Today() Date {
	return DateOf(r.now().In(r.loc))
}

// Load reads the persisted state without changing it. ok is false before
// the first activation.
func (r *Reconciler) Load(ctx context.Context) (State, bool, error) {
	raw, ok, err := store.Read(ctx, r.kv, store.KeyCounter)
	if err != nil {
		return State{}, false, err
	}
	if !ok {
		return State{}, false, nil
	}
	s, err := decodeState(raw)
	if err != nil {
		return State{}, false, &store.AccessError{Op: "decode", Key: store.KeyCounter, Err: err}
	}
	r.remember(s)
	return s, true, nil
}

// Reconcile credits every calendar day elapsed since the last update.
// Repeated calls on the same day, or after the clock moved backwards, do
// not write.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	today := r.Today()

	s, ok, err := r.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	if !ok || s.LastUpdate.IsZero() {
		s.LastUpdate = today
		if err := r.save(ctx, s); err != nil {
			return Result{}, err
		}
		slog.Debug("counter initialized", "value", s.Value, "date", today.String())
		return Result{Value: s.Value, State: s, Initialized: true, Wrote: true}, nil
	}

	days := today.DaysSince(s.LastUpdate)
	if days <= 0 {
		if days < 0 {
			slog.Warn("clock behind last update, skipping", "last_update", s.LastUpdate.String(), "today", today.String())
		}
		return Result{Value: s.Value, State: s, DaysPassed: days}, nil
	}

	next := s
	next.Value += uint64(days)
	next.LastUpdate = today
	if err := r.save(ctx, next); err != nil {
		return Result{}, err
	}
	slog.Info("counter advanced", "value", next.Value, "days", days)
	return Result{Value: next.Value, State: next, DaysPassed: days, Wrote: true}, nil
}

// Reset sets the value to zero, closes any prompt and clears the prompted
// marker. The last-update date is left alone.
func (r *Reconciler) Reset(ctx context.Context) (State, error) {
	s, ok, err := r.Load(ctx)
	if err != nil {
		return State{}, err
	}
	if !ok || s.LastUpdate.IsZero() {
		s.LastUpdate = r.Today()
	}
	s.Value = 0
	s.Prompted = 0
	s.PromptOpen = false
	if err := r.save(ctx, s); err != nil {
		return State{}, err
	}
	return s, nil
}

// SavePrompt records the milestone a prompt was raised for and whether it
// is still waiting for an answer. Value and date are left alone.
func (r *Reconciler) SavePrompt(ctx context.Context, prompted uint64, open bool) (State, error) {
	s, ok, err := r.Load(ctx)
	if err != nil {
		return State{}, err
	}
	if !ok || s.LastUpdate.IsZero() {
		s.LastUpdate = r.Today()
	}
	s.Prompted = prompted
	s.PromptOpen = open
	if err := r.save(ctx, s); err != nil {
		return State{}, err
	}
	return s, nil
}

// LastKnown returns the most recent state read from or written to the
// store. ok is false until one succeeds.
func (r *Reconciler) LastKnown() (State, bool) {
	return r.last, r.hasLast
}

func (r *Reconciler) save(ctx context.Context, s State) error {
	raw, err := encodeState(s)
	if err != nil {
		return &store.AccessError{Op: "encode", Key: store.KeyCounter, Err: err}
	}
	if err := store.Write(ctx, r.kv, store.KeyCounter, raw); err != nil {
		return err
	}
	r.remember(s)
	return nil
}

func (r *Reconciler) remember(s State) {
	r.last = s
	r.hasLast = true
}
