package ws

import "sync"

// roomSet tracks which connections belong to which broadcast group.
// Membership is written once at admission and removed at disconnect;
// there is no operation to move a live connection between rooms.
type roomSet struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func newRoomSet() *roomSet {
	return &roomSet{rooms: make(map[string]map[*Client]struct{})}
}

func (rs *roomSet) join(room string, c *Client) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	members, ok := rs.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		rs.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (rs *roomSet) leaveAll(c *Client) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for room, members := range rs.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(rs.rooms, room)
		}
	}
}

// members returns a snapshot so callers can push without holding the
// lock.
func (rs *roomSet) members(room string) []*Client {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]*Client, 0, len(rs.rooms[room]))
	for c := range rs.rooms[room] {
		out = append(out, c)
	}
	return out
}
