package models

// Event names carried on the WebSocket wire.
const (
	EventTaskUpdated       = "task_updated"
	EventTaskStatusChanged = "task_status_changed"
	EventTaskAssigned      = "task_assigned"
	EventProjectUpdated    = "project_updated"
	EventError             = "error"
)

// TaskUpdate is the inbound relay event emitted by a client after it
// has written a task change to the API.
type TaskUpdate struct {
	TaskID       string `json:"taskId"`
	TaskTitle    string `json:"taskTitle"`
	Status       string `json:"status"`
	AssignedToID string `json:"assignedToId,omitempty"`
	ClientID     string `json:"clientId,omitempty"`
}

// StatusChangedPush is fanned out to the admin-updates room.
type StatusChangedPush struct {
	TaskID    string `json:"taskId"`
	NewStatus string `json:"newStatus"`
	UpdatedBy string `json:"updatedBy"`
	Timestamp string `json:"timestamp"`
}

// AssignedPush is delivered to the assignee only.
type AssignedPush struct {
	TaskID     string `json:"taskId"`
	TaskTitle  string `json:"taskTitle"`
	AssignedBy string `json:"assignedBy"`
	Timestamp  string `json:"timestamp"`
}

// ProjectUpdatedPush is delivered to the project's client only.
type ProjectUpdatedPush struct {
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
	NewStatus string `json:"newStatus"`
	Timestamp string `json:"timestamp"`
}

// ErrorPush is sent back to an originator whose event was rejected.
type ErrorPush struct {
	Message string `json:"message"`
}
