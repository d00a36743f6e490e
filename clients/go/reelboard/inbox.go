package reelboard

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MaxNotifications is how many notifications the inbox retains. Older
// entries fall off the end as new ones arrive.
const MaxNotifications = 10

// Notification is a single inbox entry derived from a push event.
type Notification struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Inbox holds the most recent notifications, newest first.
type Inbox struct {
	mu      sync.Mutex
	entries []Notification
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Add prepends a notification and returns its generated ID. When the
// inbox is full the oldest entry is dropped.
func (in *Inbox) Add(category, title, message string, at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	n := Notification{
		ID:        ulid.MustNew(ulid.Timestamp(at), rand.Reader).String(),
		Category:  category,
		Title:     title,
		Message:   message,
		Timestamp: at,
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	in.entries = append([]Notification{n}, in.entries...)
	if len(in.entries) > MaxNotifications {
		in.entries = in.entries[:MaxNotifications]
	}
	return n.ID
}

// List returns a snapshot of the inbox, newest first.
func (in *Inbox) List() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]Notification, len(in.entries))
	copy(out, in.entries)
	return out
}

// Unread counts notifications not yet marked read.
func (in *Inbox) Unread() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	count := 0
	for _, n := range in.entries {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marks a notification as read. Marking an already-read or
// unknown notification is a no-op.
func (in *Inbox) MarkRead(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.entries {
		if in.entries[i].ID == id {
			in.entries[i].Read = true
			return
		}
	}
}

// Dismiss removes a notification from the inbox.
func (in *Inbox) Dismiss(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.entries {
		if in.entries[i].ID == id {
			in.entries = append(in.entries[:i], in.entries[i+1:]...)
			return
		}
	}
}
