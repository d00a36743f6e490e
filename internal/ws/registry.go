package ws

import "sync"

// Registry maps a participant ID to its single active connection.
// At most one connection is tracked per participant; registering again
// replaces the previous entry (last-connect-wins).
type Registry interface {
	// Register stores the connection for a participant and returns the
	// connection it replaced, if any.
	Register(userID string, c *Client) (prev *Client)

	// Unregister removes the participant's entry, but only if it still
	// points at c. This keeps a replaced connection's deferred cleanup
	// from evicting its successor. It reports whether an entry was
	// actually removed, so callers can skip accounting for a
	// connection that was already displaced.
	Unregister(userID string, c *Client) bool

	// Lookup returns the participant's current connection. A miss is a
	// normal outcome, not an error: it covers both "never connected"
	// and "disconnected".
	Lookup(userID string) (*Client, bool)

	// Len returns the number of open connections.
	Len() int
}

// NewRegistry returns an in-process Registry. Scaling the relay to
// multiple processes would require replacing this with a shared
// external store; see DESIGN.md.
func NewRegistry() Registry {
	return &memoryRegistry{conns: make(map[string]*Client)}
}

type memoryRegistry struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

func (r *memoryRegistry) Register(userID string, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[userID]
	r.conns[userID] = c
	return prev
}

func (r *memoryRegistry) Unregister(userID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] != c {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *memoryRegistry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

func (r *memoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
