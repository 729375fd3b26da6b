// Package notes keeps the user's ordered list of personal notes.
//
// The whole list lives under one key and every mutation is a
// read-modify-write of that single value, so a failed write leaves the
// previous list intact. Notes can be addressed by position, as the list
// screen shows them, or by the ID assigned when they were created. Position
// is only meaningful against the list it was read from; IDs survive other
// notes being added or removed.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/fibday/internal/store"
)

var (
	// ErrIndexOutOfRange means a positional reference no longer points at a
	// note, usually because the list changed since it was displayed.
	ErrIndexOutOfRange = errors.New("note index out of range")
	// ErrNotFound means no note carries the given ID.
	ErrNotFound = errors.New("note not found")
	// ErrBlank rejects an edit that would leave a note empty.
	ErrBlank = errors.New("note text is blank")
)

// Note is a single entry in the list.
type Note struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Store is the note list backed by a KV.
type Store struct {
	kv    store.KV
	now   func() time.Time
	newID func() string
}

// New returns a Store persisting under store.KeyNotes.
func New(kv store.KV) *Store {
	return &Store{
		kv:    kv,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// List returns the notes in order. It is empty, not nil, when nothing has
// been saved yet.
func (s *Store) List(ctx context.Context) ([]Note, error) {
	return s.load(ctx)
}

// Append adds text to the end of the list. Blank text is ignored and
// reported with added == false.
func (s *Store) Append(ctx context.Context, text string) (n Note, added bool, err error) {
	if isBlank(text) {
		return Note{}, false, nil
	}
	list, err := s.load(ctx)
	if err != nil {
		return Note{}, false, err
	}

	ts := s.now().UnixMilli()
	n = Note{ID: s.newID(), Text: text, CreatedAt: ts, UpdatedAt: ts}
	if err := s.save(ctx, append(list, n)); err != nil {
		return Note{}, false, err
	}
	return n, true, nil
}

// EditAt replaces the text of the note at index.
func (s *Store) EditAt(ctx context.Context, index int, text string) (Note, error) {
	if isBlank(text) {
		return Note{}, ErrBlank
	}
	list, err := s.load(ctx)
	if err != nil {
		return Note{}, err
	}
	if err := checkIndex(index, len(list)); err != nil {
		return Note{}, err
	}
	return s.replace(ctx, list, index, text)
}

// RemoveAt deletes the note at index. Later notes move down one position.
func (s *Store) RemoveAt(ctx context.Context, index int) (Note, error) {
	list, err := s.load(ctx)
	if err != nil {
		return Note{}, err
	}
	if err := checkIndex(index, len(list)); err != nil {
		return Note{}, err
	}
	return s.remove(ctx, list, index)
}

// Edit replaces the text of the note with the given ID.
func (s *Store) Edit(ctx context.Context, id, text string) (Note, error) {
	if isBlank(text) {
		return Note{}, ErrBlank
	}
	list, err := s.load(ctx)
	if err != nil {
		return Note{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return Note{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.replace(ctx, list, i, text)
}

// Remove deletes the note with the given ID.
func (s *Store) Remove(ctx context.Context, id string) (Note, error) {
	list, err := s.load(ctx)
	if err != nil {
		return Note{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return Note{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.remove(ctx, list, i)
}

func (s *Store) replace(ctx context.Context, list []Note, i int, text string) (Note, error) {
	updated := make([]Note, len(list))
	copy(updated, list)
	updated[i].Text = text
	updated[i].UpdatedAt = s.now().UnixMilli()
	if err := s.save(ctx, updated); err != nil {
		return Note{}, err
	}
	return updated[i], nil
}

func (s *Store) remove(ctx context.Context, list []Note, i int) (Note, error) {
	removed := list[i]
	updated := make([]Note, 0, len(list)-1)
	updated = append(updated, list[:i]...)
	updated = append(updated, list[i+1:]...)
	if err := s.save(ctx, updated); err != nil {
		return Note{}, err
	}
	return removed, nil
}

func (s *Store) load(ctx context.Context) ([]Note, error) {
	raw, ok, err := store.Read(ctx, s.kv, store.KeyNotes)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []Note{}, nil
	}

	var list []Note
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		if list == nil {
			list = []Note{}
		}
		return list, nil
	}

	// Plain array of strings, the format earlier versions wrote. IDs are
	// assigned once and persisted so they stay stable across loads. The read
	// itself succeeded, so a failed persist is only logged; the next
	// mutation saves the upgraded list.
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, &store.AccessError{Op: "decode", Key: store.KeyNotes, Err: err}
	}
	ts := s.now().UnixMilli()
	list = make([]Note, 0, len(texts))
	for _, t := range texts {
		list = append(list, Note{ID: s.newID(), Text: t, CreatedAt: ts, UpdatedAt: ts})
	}
	if err := s.save(ctx, list); err != nil {
		slog.Warn("legacy notes upgrade not saved", "notes", len(list), "error", err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []Note) error {
	b, err := json.Marshal(list)
	if err != nil {
		return &store.AccessError{Op: "encode", Key: store.KeyNotes, Err: err}
	}
	return store.Write(ctx, s.kv, store.KeyNotes, string(b))
}

// Texts returns the note texts in list order.
func Texts(list []Note) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.Text
	}
	return out
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
	}
	return nil
}

func indexOf(list []Note, id string) int {
	for i, n := range list {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
