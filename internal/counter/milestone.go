package counter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lazypower/fibday/internal/fib"
)

// ErrNoPrompt is returned by Decide when no milestone prompt is open.
var ErrNoPrompt = errors.New("no milestone prompt is open")

// Decision is the user's answer to a milestone prompt.
type Decision int

const (
	Continue Decision = iota
	Stop
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// ParseDecision maps "stop" and "continue" (any case) to a Decision.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continue":
		return Continue, nil
	case "stop":
		return Stop, nil
	}
	return 0, fmt.Errorf("unknown decision %q (want stop or continue)", s)
}

// View is what the counter surface displays.
type View struct {
	Value         uint64 `json:"value"`
	DaysUntilNext uint64 `json:"days_until_next"`
	IsMilestone   bool   `json:"is_milestone"`
	PromptOpen    bool   `json:"prompt_open"`
}

// Ledger persists the prompt marker alongside the counter. Reconciler
// implements it.
type Ledger interface {
	Load(ctx context.Context) (State, bool, error)
	SavePrompt(ctx context.Context, prompted uint64, open bool) (State, error)
	Reset(ctx context.Context) (State, error)
}

var _ Ledger = (*Reconciler)(nil)

// Controller moves between Idle and PromptOpen. A prompt opens at most once
// per milestone value. Which milestone was last prompted, and whether that
// prompt is still open, live in the persisted State, so a restarted process
// (or another CLI invocation) neither re-asks an answered milestone nor
// loses an unanswered one.
type Controller struct {
	ledger Ledger
	state  State
}

// NewController returns a Controller persisting through l.
func NewController(l Ledger) *Controller {
	return &Controller{ledger: l}
}

// Observe records the reconciled state and opens a prompt when its value is
// a milestone not yet prompted for. Zero never prompts. A milestone reached
// while a prompt is still open moves the marker without opening a second
// prompt. If the marker cannot be saved the prompt stays closed and the
// next activation tries again.
func (c *Controller) Observe(ctx context.Context, s State) (View, error) {
	c.state = s
	if s.Value == 0 || !fib.IsMember(s.Value) || s.Value == s.Prompted {
		return c.View(), nil
	}

	next, err := c.ledger.SavePrompt(ctx, s.Value, true)
	if err != nil {
		return c.View(), err
	}
	c.state = next
	return c.View(), nil
}

// View returns the current presentation state without changing it.
func (c *Controller) View() View {
	return ViewOf(c.state)
}

// ViewOf describes s as the counter surface shows it.
func ViewOf(s State) View {
	return View{
		Value:         s.Value,
		DaysUntilNext: fib.DaysUntilNext(s.Value),
		IsMilestone:   fib.IsMember(s.Value),
		PromptOpen:    s.PromptOpen,
	}
}

// Decide applies the user's answer and closes the prompt. The prompt state
// is re-read first, so an answer given elsewhere is not applied twice. If
// the write fails the prompt stays open so the user can answer again.
func (c *Controller) Decide(ctx context.Context, d Decision) (View, error) {
	s, _, err := c.ledger.Load(ctx)
	if err != nil {
		return c.View(), err
	}
	c.state = s
	if !s.PromptOpen {
		return c.View(), ErrNoPrompt
	}

	var next State
	switch d {
	case Stop:
		// re-arm: Reset clears the marker so the next crossing prompts again
		next, err = c.ledger.Reset(ctx)
	case Continue:
		next, err = c.ledger.SavePrompt(ctx, s.Prompted, false)
	default:
		return c.View(), fmt.Errorf("unknown decision %d", int(d))
	}
	if err != nil {
		return c.View(), err
	}

	c.state = next
	return c.View(), nil
}
