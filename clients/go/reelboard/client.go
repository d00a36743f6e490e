// Package reelboard provides a Go client for the Reelboard task relay.
package reelboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client connects to a Reelboard server and turns push events into
// inbox notifications.
type Client struct {
	BaseURL string
	Token   string
	Inbox   *Inbox

	conn *websocket.Conn
}

// NewClient creates a client for the given server. baseURL is the HTTP
// base, e.g. "http://localhost:8080".
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Inbox:   NewInbox(),
	}
}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Connect opens the WebSocket connection. The access token is passed
// in the handshake query string.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.Token}}.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("connect rejected: invalid token")
		}
		return fmt.Errorf("connect failed: %w", err)
	}
	c.conn = conn
	return nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// EmitTaskUpdate announces a task change that has already been written
// through the REST API, so the server can notify interested parties.
func (c *Client) EmitTaskUpdate(taskID, taskTitle, status, assignedToID, clientID string) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	payload := map[string]string{
		"taskId":    taskID,
		"taskTitle": taskTitle,
		"status":    status,
	}
	if assignedToID != "" {
		payload["assignedToId"] = assignedToID
	}
	if clientID != "" {
		payload["clientId"] = clientID
	}
	return c.conn.WriteJSON(map[string]interface{}{
		"event":   "task_updated",
		"payload": payload,
	})
}

// Listen reads push events until the connection closes or ctx is
// cancelled, filing each one into the inbox.
func (c *Client) Listen(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.file(env)
	}
}

func (c *Client) file(env envelope) {
	switch env.Event {
	case "task_status_changed":
		var p struct {
			TaskID    string `json:"taskId"`
			NewStatus string `json:"newStatus"`
			UpdatedBy string `json:"updatedBy"`
			Timestamp string `json:"timestamp"`
		}
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.Inbox.Add("status", "Task status changed",
			fmt.Sprintf("%s moved a task to %s", p.UpdatedBy, p.NewStatus),
			parseTimestamp(p.Timestamp))

	case "task_assigned":
		var p struct {
			TaskTitle  string `json:"taskTitle"`
			AssignedBy string `json:"assignedBy"`
			Timestamp  string `json:"timestamp"`
		}
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.Inbox.Add("assignment", "Task assigned to you",
			fmt.Sprintf("%s assigned you %q", p.AssignedBy, p.TaskTitle),
			parseTimestamp(p.Timestamp))

	case "project_updated":
		var p struct {
			TaskTitle string `json:"taskTitle"`
			NewStatus string `json:"newStatus"`
			Timestamp string `json:"timestamp"`
		}
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.Inbox.Add("project", "Project update",
			fmt.Sprintf("%q is now %s", p.TaskTitle, p.NewStatus),
			parseTimestamp(p.Timestamp))

	case "error":
		var p struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.Inbox.Add("error", "Update rejected", p.Message, time.Time{})
	}
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
