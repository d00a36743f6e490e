// Package workflow defines the kanban status machine for tasks.
package workflow

// Task statuses, matching the board columns.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusReview     = "REVIEW"
	StatusRevisions  = "REVISIONS"
	StatusDone       = "DONE"
)

// transitions lists the legal moves keyed by current status.
var transitions = map[string][]string{
	StatusTodo:       {StatusInProgress},
	StatusInProgress: {StatusTodo, StatusReview},
	StatusReview:     {StatusInProgress, StatusRevisions, StatusDone},
	StatusRevisions:  {StatusInProgress, StatusReview},
	StatusDone:       {StatusReview},
}

// ValidStatus reports whether s is a known board status.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Allowed reports whether moving a task from one status to another is
// legal. A no-op move (from == to) is allowed: the relay can observe a
// status that has already been persisted by the preceding API write.
func Allowed(from, to string) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Statuses returns the known statuses in board order.
func Statuses() []string {
	return []string{StatusTodo, StatusInProgress, StatusReview, StatusRevisions, StatusDone}
}
