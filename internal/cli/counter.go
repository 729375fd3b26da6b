package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/fibday/internal/counter"
	"github.com/lazypower/fibday/internal/store"
)

const commandTimeout = 30 * time.Second

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Credit the days elapsed since the last activation and show the counter",
	Args:  cobra.NoArgs,
	RunE:  runActivate,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored counter without crediting elapsed days",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var decideCmd = &cobra.Command{
	Use:       "decide stop|continue",
	Short:     "Answer the milestone prompt",
	Long:      "Answer the open milestone prompt. stop resets the counter to 0; continue keeps it.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"stop", "continue"},
	RunE:      runDecide,
}

func runActivate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	view, err := b.Activate(ctx)
	printView(cmd.OutOrStdout(), view)
	return storeNotice(err)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	view, err := b.Status(ctx)
	printView(cmd.OutOrStdout(), view)
	return storeNotice(err)
}

func runDecide(cmd *cobra.Command, args []string) error {
	d, err := counter.ParseDecision(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	// Answering is an activation too, so a milestone reached since the
	// last run is prompted before the answer applies.
	current, err := b.Activate(ctx)
	if err != nil {
		return storeNotice(err)
	}

	view, err := b.Decide(ctx, d)
	if errors.Is(err, counter.ErrNoPrompt) {
		fmt.Fprintf(cmd.OutOrStdout(), "Day %d is not waiting for an answer.\n", current.Value)
		return nil
	}
	if err != nil {
		return storeNotice(err)
	}

	switch d {
	case counter.Stop:
		fmt.Fprintln(cmd.OutOrStdout(), "Stopped. The counter is back at 0.")
	case counter.Continue:
		fmt.Fprintf(cmd.OutOrStdout(), "Continuing from day %d.\n", view.Value)
	}
	printView(cmd.OutOrStdout(), view)
	return nil
}

func printView(w io.Writer, v counter.View) {
	fmt.Fprintf(w, "%d\n", v.Value)
	if v.PromptOpen {
		fmt.Fprintf(w, "Fibonacci number reached: %d. Continue or stop? (fibday decide continue|stop)\n", v.Value)
	}
	fmt.Fprintf(w, "Give it everything for the next %d day/s.\n", v.DaysUntilNext)
}

// storeNotice turns a store failure into a short, non-alarming message.
func storeNotice(err error) error {
	if err == nil {
		return nil
	}
	var ae *store.AccessError
	if errors.As(err, &ae) {
		return fmt.Errorf("storage unavailable, nothing was changed (try again later): %w", err)
	}
	return err
}
