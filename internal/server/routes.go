package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/fibday/internal/counter"
	"github.com/lazypower/fibday/internal/notes"
	"github.com/lazypower/fibday/internal/store"
)

// writeError maps core errors onto HTTP. Nothing here is fatal: store
// failures are a notice to retry, stale note references a 404.
func writeError(w http.ResponseWriter, err error, extra map[string]any) {
	body := map[string]any{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}

	var ae *store.AccessError
	switch {
	case errors.As(err, &ae):
		body["notice"] = "storage is unavailable right now; nothing was changed"
		writeJSON(w, http.StatusServiceUnavailable, body)
	case errors.Is(err, notes.ErrIndexOutOfRange), errors.Is(err, notes.ErrNotFound):
		body["error"] = "note no longer exists"
		body["detail"] = err.Error()
		writeJSON(w, http.StatusNotFound, body)
	case errors.Is(err, notes.ErrBlank):
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, counter.ErrNoPrompt):
		writeJSON(w, http.StatusConflict, body)
	default:
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Activate(r.Context())
	if err != nil {
		writeError(w, err, map[string]any{"counter": view})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Status(r.Context())
	if err != nil {
		writeError(w, err, map[string]any{"counter": view})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	d, err := counter.ParseDecision(req.Decision)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	view, err := s.engine.Decide(r.Context(), d)
	if err != nil {
		writeError(w, err, map[string]any{"counter": view})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ListNotes(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(list),
		"notes": list,
	})
}

type noteText struct {
	Text string `json:"text"`
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteText
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	n, added, err := s.engine.AddNote(r.Context(), req.Text)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if !added {
		// blank text is ignored, not rejected
		writeJSON(w, http.StatusOK, map[string]any{"added": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"added": true, "note": n})
}

func (s *Server) handleEditNoteAt(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req noteText
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	n, err := s.engine.EditNoteAt(r.Context(), index, req.Text)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleRemoveNoteAt(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	n, err := s.engine.RemoveNoteAt(r.Context(), index)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

func (s *Server) handleEditNote(w http.ResponseWriter, r *http.Request) {
	var req noteText
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	n, err := s.engine.EditNote(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleRemoveNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.RemoveNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(w, "index must be an integer, got "+strconv.Quote(raw))
		return 0, false
	}
	return index, true
}
