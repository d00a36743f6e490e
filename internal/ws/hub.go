// Package ws implements the real-time task-update relay: an
// authenticated connection registry, role-based rooms, and best-effort
// notification fanout. Delivery is at-most-once; an offline recipient
// simply misses the push and recovers state on its next data fetch.
package ws

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/metrics"
	"github.com/reelboard/reelboard/internal/models"
	"github.com/reelboard/reelboard/internal/store"
	"github.com/reelboard/reelboard/internal/workflow"
)

// AdminUpdatesRoom receives every task_status_changed broadcast.
const AdminUpdatesRoom = "admin-updates"

// RoomsForRole computes the broadcast groups a connection joins at
// admission. Every connection joins its own role's room; admins and
// managers additionally join the shared admin-updates room.
func RoomsForRole(role models.Role) []string {
	rooms := []string{strings.ToLower(string(role))}
	if role == models.RoleAdmin || role == models.RoleManager {
		rooms = append(rooms, AdminUpdatesRoom)
	}
	return rooms
}

// TaskReader is the slice of the data store the relay needs to
// validate a claimed status transition. store.DataStore satisfies it.
type TaskReader interface {
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// Hub owns the registry and room membership and performs the fanout.
type Hub struct {
	registry Registry
	tasks    TaskReader       // nil disables transition lookups
	presence *store.RedisStore // nil disables presence tracking
	logger   zerolog.Logger

	rooms *roomSet
}

// NewHub creates a Hub around the given registry.
func NewHub(registry Registry, tasks TaskReader, presence *store.RedisStore, logger zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		tasks:    tasks,
		presence: presence,
		logger:   logger,
		rooms:    newRoomSet(),
	}
}

// Registry exposes the hub's registry, mainly for the stats endpoint.
func (h *Hub) Registry() Registry {
	return h.registry
}

// Admit registers an authenticated connection and joins its rooms.
// A previous connection for the same participant is displaced and
// closed (last-connect-wins).
func (h *Hub) Admit(c *Client) {
	if prev := h.registry.Register(c.UserID, c); prev != nil {
		h.rooms.leaveAll(prev)
		prev.shutdown()
		h.logger.Info().Str("user_id", c.UserID).Msg("displaced previous connection")
		metrics.ConnectionsActive.Dec()
	}

	for _, room := range c.Rooms {
		h.rooms.join(room, c)
	}
	h.heartbeat(c.UserID)
	metrics.ConnectionsActive.Inc()

	h.logger.Info().
		Str("user_id", c.UserID).
		Str("role", string(c.Role)).
		Strs("rooms", c.Rooms).
		Msg("connection admitted")
}

// Remove drops a connection from the registry and its rooms. Called
// from the connection's read loop on disconnect. A connection that was
// already displaced by Admit was accounted for there, and its
// participant's new connection is still live, so neither the gauge nor
// the presence entry may be touched for it.
func (h *Hub) Remove(c *Client) {
	h.rooms.leaveAll(c)
	if !h.registry.Unregister(c.UserID, c) {
		return
	}
	metrics.ConnectionsActive.Dec()

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.presence.ClearPresence(ctx, c.UserID); err != nil {
			h.logger.Warn().Err(err).Msg("presence cleanup failed")
		}
	}

	h.logger.Info().Str("user_id", c.UserID).Msg("connection removed")
}

// Relay fans a task update out to its recipients:
//
//  1. task_status_changed to every admin-updates member except the
//     originator.
//  2. task_assigned directly to the assignee, if connected.
//  3. project_updated directly to the project's client, if connected.
//
// The claimed status is validated against the workflow transition
// table before any fanout; a rejected event produces an error push to
// the originator and nothing else.
func (h *Hub) Relay(from *Client, upd models.TaskUpdate) {
	if upd.TaskID == "" || upd.Status == "" {
		h.reject(from, "taskId and status are required", "malformed")
		return
	}
	if !workflow.ValidStatus(upd.Status) {
		h.reject(from, "unknown status: "+upd.Status, "malformed")
		return
	}

	if !h.transitionAllowed(upd) {
		h.reject(from, "illegal status transition to "+upd.Status, "illegal_transition")
		return
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)

	h.broadcast(AdminUpdatesRoom, from, models.EventTaskStatusChanged, models.StatusChangedPush{
		TaskID:    upd.TaskID,
		NewStatus: upd.Status,
		UpdatedBy: from.Name,
		Timestamp: timestamp,
	})

	if upd.AssignedToID != "" {
		h.sendDirect(upd.AssignedToID, models.EventTaskAssigned, models.AssignedPush{
			TaskID:     upd.TaskID,
			TaskTitle:  upd.TaskTitle,
			AssignedBy: from.Name,
			Timestamp:  timestamp,
		})
	}

	if upd.ClientID != "" {
		h.sendDirect(upd.ClientID, models.EventProjectUpdated, models.ProjectUpdatedPush{
			TaskID:    upd.TaskID,
			TaskTitle: upd.TaskTitle,
			NewStatus: upd.Status,
			Timestamp: timestamp,
		})
	}
}

// transitionAllowed checks the claimed move against the persisted task
// state. The preceding API write may or may not have landed yet, so a
// claim equal to the stored status is treated as already-applied and
// allowed. Unknown tasks pass: there is nothing to validate against.
func (h *Hub) transitionAllowed(upd models.TaskUpdate) bool {
	if h.tasks == nil {
		return true
	}
	taskID, err := uuid.Parse(upd.TaskID)
	if err != nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	task, err := h.tasks.GetTask(ctx, taskID)
	if err != nil {
		h.logger.Warn().Err(err).Str("task_id", upd.TaskID).Msg("transition lookup failed")
		return true
	}
	if task == nil {
		return true
	}
	return workflow.Allowed(task.Status, upd.Status)
}

func (h *Hub) reject(from *Client, message, reason string) {
	metrics.RelayEventsRejected.WithLabelValues(reason).Inc()
	from.trySend(models.EventError, models.ErrorPush{Message: message})
	h.logger.Warn().
		Str("user_id", from.UserID).
		Str("reason", reason).
		Msg("relay event rejected")
}

// broadcast pushes an event to every member of a room except the
// originator.
func (h *Hub) broadcast(room string, except *Client, event string, payload interface{}) {
	for _, member := range h.rooms.members(room) {
		if member == except {
			continue
		}
		if member.trySend(event, payload) {
			metrics.NotificationsDelivered.WithLabelValues(event).Inc()
		} else {
			metrics.NotificationsDropped.WithLabelValues("slow_consumer").Inc()
			h.logger.Warn().
				Str("user_id", member.UserID).
				Str("event", event).
				Msg("notification dropped")
		}
	}
}

// sendDirect pushes an event to one participant. An offline recipient
// is a silent no-op.
func (h *Hub) sendDirect(userID, event string, payload interface{}) {
	target, ok := h.registry.Lookup(userID)
	if !ok {
		metrics.NotificationsDropped.WithLabelValues("offline").Inc()
		return
	}
	if target.trySend(event, payload) {
		metrics.NotificationsDelivered.WithLabelValues(event).Inc()
	} else {
		metrics.NotificationsDropped.WithLabelValues("slow_consumer").Inc()
		h.logger.Warn().
			Str("user_id", userID).
			Str("event", event).
			Msg("notification dropped")
	}
}

func (h *Hub) heartbeat(userID string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.Heartbeat(ctx, userID); err != nil {
		h.logger.Warn().Err(err).Msg("presence heartbeat failed")
	}
}
