package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lazypower/fibday/internal/counter"
	"github.com/lazypower/fibday/internal/notes"
)

// maxSummaryNotes caps how many notes the summary lists.
const maxSummaryNotes = 10

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Status(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	list, err := s.engine.ListNotes(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"summary": buildSummary(view, list),
	})
}

// buildSummary renders the counter and the newest notes as markdown.
func buildSummary(view counter.View, list []notes.Note) string {
	var b strings.Builder

	b.WriteString("## Fibday\n\n")
	fmt.Fprintf(&b, "**Day %d**", view.Value)
	if view.IsMilestone && view.Value > 0 {
		b.WriteString(" (milestone)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Give it everything for the next %d day/s.\n", view.DaysUntilNext)
	if view.PromptOpen {
		fmt.Fprintf(&b, "\n> Fibonacci number reached: %d. Continue or stop?\n", view.Value)
	}

	if len(list) == 0 {
		return b.String()
	}

	b.WriteString("\n### Notes\n")
	start := 0
	if len(list) > maxSummaryNotes {
		start = len(list) - maxSummaryNotes
	}
	for i := start; i < len(list); i++ {
		text := strings.TrimSpace(list[i].Text)
		if first, _, found := strings.Cut(text, "\n"); found {
			text = first + " ..."
		}
		fmt.Fprintf(&b, "%d. %s\n", i, text)
	}
	if start > 0 {
		fmt.Fprintf(&b, "\n_%d older notes not shown_\n", start)
	}
	return b.String()
}
