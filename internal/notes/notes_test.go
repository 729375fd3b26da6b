package notes

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/lazypower/fibday/internal/store"
)

func testStore(t *testing.T) (*Store, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := New(db)
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("note-%d", seq)
	}
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return s, db
}

func mustAppend(t *testing.T, s *Store, texts ...string) {
	t.Helper()
	for _, text := range texts {
		if _, added, err := s.Append(context.Background(), text); err != nil || !added {
			t.Fatalf("Append(%q): added=%v err=%v", text, added, err)
		}
	}
}

func texts(t *testing.T, s *Store) []string {
	t.Helper()
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return Texts(list)
}

func TestListEmpty(t *testing.T) {
	s, _ := testStore(t)
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("List = %#v, want empty non-nil", list)
	}
}

func TestAppendThenList(t *testing.T) {
	s, _ := testStore(t)
	mustAppend(t, s, "first", "hello")

	got := texts(t, s)
	if got[len(got)-1] != "hello" {
		t.Errorf("last note = %q, want hello", got[len(got)-1])
	}
}

func TestAppendBlankIsNoop(t *testing.T) {
	s, db := testStore(t)
	for _, blank := range []string{"", "   ", "\n\t"} {
		_, added, err := s.Append(context.Background(), blank)
		if err != nil || added {
			t.Errorf("Append(%q): added=%v err=%v", blank, added, err)
		}
	}
	if _, ok, _ := db.Get(context.Background(), store.KeyNotes); ok {
		t.Error("blank append persisted a list")
	}
}

func TestAppendAllowsDuplicates(t *testing.T) {
	s, _ := testStore(t)
	mustAppend(t, s, "same", "same")
	if got := texts(t, s); !reflect.DeepEqual(got, []string{"same", "same"}) {
		t.Errorf("texts = %v", got)
	}
}

func TestEditAt(t *testing.T) {
	s, _ := testStore(t)
	mustAppend(t, s, "a", "b", "c")

	n, err := s.EditAt(context.Background(), 1, "x")
	if err != nil {
		t.Fatalf("EditAt: %v", err)
	}
	if n.ID != "note-2" || n.Text != "x" {
		t.Errorf("edited note = %+v", n)
	}
	if got := texts(t, s); !reflect.DeepEqual(got, []string{"a", "x", "c"}) {
		t.Errorf("texts after edit = %v", got)
	}
}

func TestEditAtOutOfRange(t *testing.T) {
	s, _ := testStore(t)
	mustAppend(t, s, "one", "two")

	for _, i := range []int{2, -1, 99} {
		if _, err := s.EditAt(context.Background(), i, "updated"); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("EditAt(%d) err = %v, want ErrIndexOutOfRange", i, err)
		}
	}
	if got := texts(t, s); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("list changed by failed edit: %v", got)
	}
}

func TestEditBlankRejected(t *testing.T) {
	s, _ := testStore(t)
	mustAppend(t, s, "keep")
	if _, err := s.EditAt(context.Background(), 0, "  "); !errors.Is(err, ErrBlank) {
		t.Errorf("err = %v, want ErrBlank", err)
	}
}

func TestRemoveAtShiftsDown(t *testing.T) {
	s, _ := testStore(t)
	mustAppend(t, s, "a", "b", "x")

	removed, err := s.RemoveAt(context.Background(), 2)
	if err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	if removed.Text != "x" {
		t.Errorf("removed = %+v", removed)
	}
	got := texts(t, s)
	if len(got) != 2 || !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("texts after remove = %v", got)
	}

	if _, err := s.RemoveAt(context.Background(), 0); err != nil {
		t.Fatalf("RemoveAt(0): %v", err)
	}
	if got := texts(t, s); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("texts after head remove = %v", got)
	}
}

func TestRemoveAtOutOfRange(t *testing.T) {
	s, _ := testStore(t)
	if _, err := s.RemoveAt(context.Background(), 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("RemoveAt on empty list err = %v", err)
	}
}

func TestIDAddressingSurvivesShift(t *testing.T) {
	s, _ := testStore(t)
	mustAppend(t, s, "a", "b", "c")

	list, _ := s.List(context.Background())
	target := list[2].ID

	// another handler removes the head; position 2 is now stale
	if _, err := s.RemoveAt(context.Background(), 0); err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	if _, err := s.EditAt(context.Background(), 2, "stale"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("stale EditAt err = %v", err)
	}

	n, err := s.Edit(context.Background(), target, "c2")
	if err != nil {
		t.Fatalf("Edit by id: %v", err)
	}
	if n.Text != "c2" {
		t.Errorf("edited = %+v", n)
	}
	if got := texts(t, s); !reflect.DeepEqual(got, []string{"b", "c2"}) {
		t.Errorf("texts = %v", got)
	}

	if _, err := s.Remove(context.Background(), target); err != nil {
		t.Fatalf("Remove by id: %v", err)
	}
	if _, err := s.Remove(context.Background(), target); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove err = %v, want ErrNotFound", err)
	}
}

func TestLegacyStringArrayUpgraded(t *testing.T) {
	s, db := testStore(t)
	ctx := context.Background()
	db.Set(ctx, store.KeyNotes, `["old one","old two"]`)

	first, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(Texts(first), []string{"old one", "old two"}) {
		t.Fatalf("texts = %v", Texts(first))
	}

	second, _ := s.List(ctx)
	if first[0].ID != second[0].ID {
		t.Errorf("legacy IDs not stable: %q then %q", first[0].ID, second[0].ID)
	}
}

func TestCorruptListIsAccessError(t *testing.T) {
	s, db := testStore(t)
	db.Set(context.Background(), store.KeyNotes, `{not json`)

	_, err := s.List(context.Background())
	var ae *store.AccessError
	if !errors.As(err, &ae) || ae.Op != "decode" {
		t.Errorf("err = %v, want decode AccessError", err)
	}
}

type failingSetKV struct {
	*store.Memory
	fail bool
}

func (f *failingSetKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

func TestWriteFailureLeavesListUnchanged(t *testing.T) {
	kv := &failingSetKV{Memory: store.NewMemory()}
	s := New(kv)
	ctx := context.Background()
	mustAppend(t, s, "a", "b")

	kv.fail = true
	var ae *store.AccessError
	if _, _, err := s.Append(ctx, "c"); !errors.As(err, &ae) {
		t.Errorf("Append err = %v, want AccessError", err)
	}
	if _, err := s.EditAt(ctx, 0, "z"); !errors.As(err, &ae) {
		t.Errorf("EditAt err = %v, want AccessError", err)
	}
	if _, err := s.RemoveAt(ctx, 1); !errors.As(err, &ae) {
		t.Errorf("RemoveAt err = %v, want AccessError", err)
	}

	kv.fail = false
	if got := texts(t, s); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("texts after failed writes = %v", got)
	}
}

func TestLegacyUpgradeWriteFailureStillLists(t *testing.T) {
	kv := &failingSetKV{Memory: store.NewMemory()}
	s := New(kv)
	ctx := context.Background()
	kv.Memory.Set(ctx, store.KeyNotes, `["old one","old two"]`)

	kv.fail = true
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List with read-only store: %v", err)
	}
	if !reflect.DeepEqual(Texts(list), []string{"old one", "old two"}) {
		t.Errorf("texts = %v", Texts(list))
	}
	raw, _, _ := kv.Memory.Get(ctx, store.KeyNotes)
	if raw != `["old one","old two"]` {
		t.Errorf("stored value changed to %s", raw)
	}

	// the next mutation persists the upgraded list
	kv.fail = false
	mustAppend(t, s, "new")
	if got := texts(t, s); !reflect.DeepEqual(got, []string{"old one", "old two", "new"}) {
		t.Errorf("texts after append = %v", got)
	}
	first, _ := s.List(ctx)
	second, _ := s.List(ctx)
	if first[0].ID != second[0].ID {
		t.Errorf("IDs not stable after upgrade: %q then %q", first[0].ID, second[0].ID)
	}
}
