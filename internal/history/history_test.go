package history

import (
	"testing"
	"time"
)

func TestAppendToEmptyList(t *testing.T) {
	e := Entry{ID: "e1"}

	got := Append(nil, e, 0)

	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("Append([], e1) = %+v", got)
	}
}

func TestAppendPutsNewestFirst(t *testing.T) {
	e1 := Entry{ID: "e1"}
	e2 := Entry{ID: "e2"}

	got := Append([]Entry{e1}, e2, 0)

	if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e1" {
		t.Fatalf("Append([e1], e2) = %+v", got)
	}
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	e := Entry{ID: "same"}

	got := Append(Append(nil, e, 0), e, 0)

	if len(got) != 2 {
		t.Fatalf("expected duplicate kept, got %+v", got)
	}
}

func TestAppendTruncatesOldestBeyondMaxLength(t *testing.T) {
	list := []Entry{{ID: "e3"}, {ID: "e2"}, {ID: "e1"}}

	got := Append(list, Entry{ID: "e4"}, 3)

	if len(got) != 3 || got[0].ID != "e4" || got[2].ID != "e2" {
		t.Fatalf("unexpected truncation: %+v", got)
	}
}

func TestAppendDoesNotMutateInput(t *testing.T) {
	list := make([]Entry, 1, 4)
	list[0] = Entry{ID: "e1"}

	_ = Append(list, Entry{ID: "e2"}, 0)

	if list[0].ID != "e1" {
		t.Fatalf("input list mutated: %+v", list)
	}
}

func TestNewEntry(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	a := NewEntry(now, "12650.00 CNY", "summary")
	b := NewEntry(now, "12650.00 CNY", "summary")

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp != "2024-03-09 14:05:07" {
		t.Fatalf("timestamp = %q", a.Timestamp)
	}
}
