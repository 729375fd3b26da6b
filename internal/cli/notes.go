package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/fibday/internal/notes"
)

var (
	notesShowIDs bool
	notesByID    bool
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage personal notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes with their positions",
	Args:  cobra.NoArgs,
	RunE:  runNotesList,
}

var notesAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Append a note ('-' reads the text from stdin)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNotesAdd,
}

var notesEditCmd = &cobra.Command{
	Use:   "edit <index|id> [text]",
	Short: "Replace the text of a note",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runNotesEdit,
}

var notesRmCmd = &cobra.Command{
	Use:     "rm <index|id>",
	Aliases: []string{"delete"},
	Short:   "Delete a note; later notes move up one position",
	Args:    cobra.ExactArgs(1),
	RunE:    runNotesRm,
}

func init() {
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesAddCmd)
	notesCmd.AddCommand(notesEditCmd)
	notesCmd.AddCommand(notesRmCmd)

	notesListCmd.Flags().BoolVar(&notesShowIDs, "ids", false, "Show note IDs")
	notesEditCmd.Flags().BoolVar(&notesByID, "id", false, "Address the note by ID instead of position")
	notesRmCmd.Flags().BoolVar(&notesByID, "id", false, "Address the note by ID instead of position")
}

func runNotesList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := b.ListNotes(ctx)
	if err != nil {
		return storeNotice(err)
	}
	printNotes(cmd.OutOrStdout(), list, notesShowIDs)
	return nil
}

func runNotesAdd(cmd *cobra.Command, args []string) error {
	text, err := noteText(cmd.InOrStdin(), args)
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

	n, added, err := b.AddNote(ctx, text)
	if err != nil {
		return storeNotice(err)
	}
	if !added {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to save: the note is blank.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved note %s\n", n.ID)
	return nil
}

func runNotesEdit(cmd *cobra.Command, args []string) error {
	text, err := noteText(cmd.InOrStdin(), args[1:])
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

	var n notes.Note
	if notesByID {
		n, err = b.EditNote(ctx, args[0], text)
	} else {
		index, perr := parseIndex(args[0])
		if perr != nil {
			return perr
		}
		n, err = b.EditNoteAt(ctx, index, text)
	}
	if err != nil {
		return noteError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s\n", n.ID)
	return nil
}

func runNotesRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	b, closeFn, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var n notes.Note
	if notesByID {
		n, err = b.RemoveNote(ctx, args[0])
	} else {
		index, perr := parseIndex(args[0])
		if perr != nil {
			return perr
		}
		n, err = b.RemoveNoteAt(ctx, index)
	}
	if err != nil {
		return noteError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", firstLine(n.Text))
	return nil
}

func printNotes(w io.Writer, list []notes.Note, ids bool) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No notes available.")
		return
	}
	for i, n := range list {
		if ids {
			fmt.Fprintf(w, "%d. [%s] %s\n", i, n.ID, firstLine(n.Text))
		} else {
			fmt.Fprintf(w, "%d. %s\n", i, firstLine(n.Text))
		}
	}
}

// noteText joins args, or reads stdin when the only arg is "-".
func noteText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	return strings.Join(args, " "), nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a note position (use --id to address by ID)", s)
	}
	return i, nil
}

func noteError(err error) error {
	if errors.Is(err, notes.ErrIndexOutOfRange) || errors.Is(err, notes.ErrNotFound) {
		return fmt.Errorf("note no longer exists; run 'fibday notes list' to refresh: %w", err)
	}
	return storeNotice(err)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if first, _, found := strings.Cut(s, "\n"); found {
		return first + " ..."
	}
	return s
}
