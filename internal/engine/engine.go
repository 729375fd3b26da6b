// Package engine runs the companion's event handlers: activations that
// reconcile the day counter, milestone decisions, and note edits.
//
// Handlers run one at a time. HTTP requests, CLI commands and the daily
// cron tick all queue on the same lock, so a note read-modify-write or a
// reconcile never interleaves with another handler.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/lazypower/fibday/internal/counter"
	"github.com/lazypower/fibday/internal/notes"
	"github.com/lazypower/fibday/internal/store"
)

// Engine owns the counter, the milestone prompt and the note list.
type Engine struct {
	mu         sync.Mutex
	Reconciler *counter.Reconciler
	Milestones *counter.Controller
	Notes      *notes.Store

	registry *prometheus.Registry
	metrics  *metrics
	cron     *cron.Cron
	loc      *time.Location
}

// New creates an Engine over kv. Options are passed to the reconciler.
func New(kv store.KV, opts ...counter.Option) *Engine {
	rec := counter.NewReconciler(kv, opts...)
	reg := prometheus.NewRegistry()
	return &Engine{
		Reconciler: rec,
		Milestones: counter.NewController(rec),
		Notes:      notes.New(kv),
		registry:   reg,
		metrics:    newMetrics(reg),
		loc:        time.Local,
	}
}

// SetLocation sets the zone the daily schedule fires in. It should match
// the reconciler's location.
func (e *Engine) SetLocation(loc *time.Location) {
	if loc != nil {
		e.loc = loc
	}
}

// Registry exposes the engine's metrics for scraping.
func (e *Engine) Registry() *prometheus.Registry {
	return e.registry
}

// Activate handles an activation event: credit elapsed days, then let the
// milestone controller look at the result. On a store failure the view
// still shows the last value displayed, alongside the error.
func (e *Engine) Activate(ctx context.Context) (counter.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.reconciliations.Inc()
	res, err := e.Reconciler.Reconcile(ctx)
	if err != nil {
		e.storeFailed(err)
		return e.lastView(), err
	}
	if res.DaysPassed > 0 {
		e.metrics.daysCredited.Add(float64(res.DaysPassed))
	}

	wasOpen := res.State.PromptOpen
	view, err := e.Milestones.Observe(ctx, res.State)
	e.metrics.value.Set(float64(view.Value))
	if err != nil {
		e.storeFailed(err)
		return view, err
	}
	if view.PromptOpen && !wasOpen {
		e.metrics.prompts.Inc()
		slog.Info("milestone reached", "value", view.Value)
	}
	return view, nil
}

// Status reports the persisted counter without reconciling.
func (e *Engine) Status(ctx context.Context) (counter.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, _, err := e.Reconciler.Load(ctx)
	if err != nil {
		e.storeFailed(err)
		return e.lastView(), err
	}
	return counter.ViewOf(s), nil
}

// Decide applies the user's answer to the open milestone prompt.
func (e *Engine) Decide(ctx context.Context, d counter.Decision) (counter.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	view, err := e.Milestones.Decide(ctx, d)
	if err != nil {
		e.storeFailed(err)
		return view, err
	}
	e.metrics.decisions.WithLabelValues(d.String()).Inc()
	e.metrics.value.Set(float64(view.Value))
	slog.Info("milestone decision", "decision", d.String(), "value", view.Value)
	return view, nil
}

// ListNotes handles a notes screen focus event.
func (e *Engine) ListNotes(ctx context.Context) ([]notes.Note, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.Notes.List(ctx)
	return e.notesDone(list, err)
}

// AddNote appends text; blank text is ignored with added == false.
func (e *Engine) AddNote(ctx context.Context, text string) (notes.Note, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, added, err := e.Notes.Append(ctx, text)
	if err != nil {
		e.storeFailed(err)
		return n, added, err
	}
	if added {
		e.countNotes(ctx)
	}
	return n, added, nil
}

// EditNoteAt replaces the note at a list position.
func (e *Engine) EditNoteAt(ctx context.Context, index int, text string) (notes.Note, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.Notes.EditAt(ctx, index, text)
	e.storeFailed(err)
	return n, err
}

// RemoveNoteAt deletes the note at a list position.
func (e *Engine) RemoveNoteAt(ctx context.Context, index int) (notes.Note, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.Notes.RemoveAt(ctx, index)
	if err != nil {
		e.storeFailed(err)
		return n, err
	}
	e.countNotes(ctx)
	return n, nil
}

// EditNote replaces the note with the given ID.
func (e *Engine) EditNote(ctx context.Context, id, text string) (notes.Note, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.Notes.Edit(ctx, id, text)
	e.storeFailed(err)
	return n, err
}

// RemoveNote deletes the note with the given ID.
func (e *Engine) RemoveNote(ctx context.Context, id string) (notes.Note, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.Notes.Remove(ctx, id)
	if err != nil {
		e.storeFailed(err)
		return n, err
	}
	e.countNotes(ctx)
	return n, nil
}

// StartDaily fires an activation event on the given cron schedule, so a
// long-running server credits each new day without waiting for a client.
func (e *Engine) StartDaily(spec string) error {
	if e.cron != nil {
		return fmt.Errorf("daily schedule already running")
	}
	c := cron.New(cron.WithLocation(e.loc))
	if _, err := c.AddFunc(spec, e.tick); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	e.cron = c
	slog.Debug("daily activation scheduled", "spec", spec, "tz", e.loc.String())
	return nil
}

// Stop shuts down the daily schedule, waiting for a running tick.
func (e *Engine) Stop() {
	if e.cron == nil {
		return
	}
	<-e.cron.Stop().Done()
	e.cron = nil
}

func (e *Engine) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	view, err := e.Activate(ctx)
	if err != nil {
		slog.Warn("scheduled activation failed", "error", err)
		return
	}
	slog.Debug("scheduled activation", "value", view.Value, "prompt_open", view.PromptOpen)
}

// lastView is what the counter surface showed before a failed read.
func (e *Engine) lastView() counter.View {
	if s, ok := e.Reconciler.LastKnown(); ok {
		return counter.ViewOf(s)
	}
	return e.Milestones.View()
}

func (e *Engine) notesDone(list []notes.Note, err error) ([]notes.Note, error) {
	if err != nil {
		e.storeFailed(err)
		return nil, err
	}
	e.metrics.notes.Set(float64(len(list)))
	return list, nil
}

// countNotes sets the notes gauge from the stored list. The gauge starts
// unset in every process, so it is never adjusted relative to itself.
func (e *Engine) countNotes(ctx context.Context) {
	list, err := e.Notes.List(ctx)
	if err != nil {
		slog.Debug("note count unavailable", "error", err)
		return
	}
	e.metrics.notes.Set(float64(len(list)))
}

// storeFailed counts and logs store failures; other errors pass silently.
func (e *Engine) storeFailed(err error) {
	var ae *store.AccessError
	if !errors.As(err, &ae) {
		return
	}
	e.metrics.storeErrors.WithLabelValues(ae.Op).Inc()
	slog.Warn("store access failed", "op", ae.Op, "key", ae.Key, "error", ae.Err)
}
