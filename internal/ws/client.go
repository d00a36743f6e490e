package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/auth"
	"github.com/reelboard/reelboard/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBufferSize = 32
)

// envelope is the outbound wire frame.
type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// inbound is the frame read off the wire before payload decoding.
type inbound struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Client is one authenticated WebSocket connection. Identity and room
// memberships are fixed at connect time; a role change elsewhere does
// not propagate to an open connection.
type Client struct {
	UserID string
	Name   string
	Role   models.Role
	Rooms  []string

	hub    *Hub
	conn   *websocket.Conn
	send   chan envelope
	done   chan struct{}
	closer sync.Once
	logger zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, id *auth.Identity, logger zerolog.Logger) *Client {
	return &Client{
		UserID: id.UserID,
		Name:   id.Name,
		Role:   id.Role,
		Rooms:  RoomsForRole(id.Role),
		hub:    hub,
		conn:   conn,
		send:   make(chan envelope, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger.With().Str("user_id", id.UserID).Str("role", string(id.Role)).Logger(),
	}
}

// shutdown closes the connection once. The send channel is never
// closed; trySend observes done instead, so concurrent relays cannot
// panic on a closed channel.
func (c *Client) shutdown() {
	c.closer.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// trySend queues an event for delivery. It never blocks: a closed or
// slow connection drops the event, which is the relay's best-effort
// contract.
func (c *Client) trySend(event string, payload interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- envelope{Event: event, Payload: payload}:
		return true
	default:
		return false
	}
}

// readPump reads inbound events until the connection drops, then
// removes the client from the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		c.shutdown()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.heartbeat(c.UserID)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var frame inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			c.trySend(models.EventError, models.ErrorPush{Message: "malformed frame"})
			continue
		}

		switch frame.Event {
		case models.EventTaskUpdated:
			var upd models.TaskUpdate
			if err := json.Unmarshal(frame.Payload, &upd); err != nil {
				c.trySend(models.EventError, models.ErrorPush{Message: "malformed task_updated payload"})
				continue
			}
			c.hub.Relay(c, upd)
		default:
			c.trySend(models.EventError, models.ErrorPush{Message: "unknown event: " + frame.Event})
		}
	}
}

// writePump drains the send queue onto the wire. One writer goroutine
// per connection gives FIFO delivery per recipient.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Warn().Err(err).Str("event", env.Event).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
