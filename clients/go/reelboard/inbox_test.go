package reelboard

import (
	"fmt"
	"testing"
	"time"
)

func TestInboxCapsAtTenNewestFirst(t *testing.T) {
	in := NewInbox()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 15; i++ {
		in.Add("status", fmt.Sprintf("update %d", i), "msg", base.Add(time.Duration(i)*time.Second))
	}

	got := in.List()
	if len(got) != MaxNotifications {
		t.Fatalf("expected %d notifications, got %d", MaxNotifications, len(got))
	}

	// Newest first: update 14 down to update 5.
	for i, n := range got {
		want := fmt.Sprintf("update %d", 14-i)
		if n.Title != want {
			t.Errorf("entry %d: got title %q, want %q", i, n.Title, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Errorf("entries out of order at %d", i)
		}
	}
}

func TestInboxMarkReadIdempotent(t *testing.T) {
	in := NewInbox()
	id := in.Add("assignment", "Task assigned to you", "msg", time.Time{})
	in.Add("status", "Task status changed", "msg", time.Time{})

	if in.Unread() != 2 {
		t.Fatalf("expected 2 unread, got %d", in.Unread())
	}

	in.MarkRead(id)
	if in.Unread() != 1 {
		t.Fatalf("expected 1 unread after MarkRead, got %d", in.Unread())
	}

	// Marking again changes nothing.
	in.MarkRead(id)
	if in.Unread() != 1 {
		t.Fatalf("expected 1 unread after repeat MarkRead, got %d", in.Unread())
	}

	// Unknown id is a no-op.
	in.MarkRead("nope")
	if in.Unread() != 1 {
		t.Fatalf("expected 1 unread after unknown MarkRead, got %d", in.Unread())
	}
}

func TestInboxDismiss(t *testing.T) {
	in := NewInbox()
	keep := in.Add("status", "keep", "msg", time.Time{})
	drop := in.Add("status", "drop", "msg", time.Time{})

	in.Dismiss(drop)

	got := in.List()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].ID != keep {
		t.Errorf("wrong notification survived: %q", got[0].Title)
	}

	// Dismissing again is harmless.
	in.Dismiss(drop)
	if len(in.List()) != 1 {
		t.Fatal("repeat dismiss changed the inbox")
	}
}

func TestInboxGeneratesSortableIDs(t *testing.T) {
	in := NewInbox()
	a := in.Add("status", "first", "msg", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	b := in.Add("status", "second", "msg", time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC))

	if a == b {
		t.Fatal("expected distinct IDs")
	}
	if !(a < b) {
		t.Errorf("IDs not time-ordered: %s >= %s", a, b)
	}
}
