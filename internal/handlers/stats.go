package handlers

import (
	"net/http"
	"time"

	"github.com/reelboard/reelboard/internal/workflow"
)

// StatsResponse represents the board statistics response.
type StatsResponse struct {
	TotalUsers    int64            `json:"total_users"`
	TotalProjects int64            `json:"total_projects"`
	TasksByStatus map[string]int64 `json:"tasks_by_status"`
	OnlineNow     int64            `json:"online_now"`
	LastActivity  string           `json:"last_activity"`
}

// Stats returns aggregate board statistics for dashboards.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalUsers, err := h.store.CountUsers(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count users")
		return
	}

	totalProjects, err := h.store.CountProjects(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count projects")
		return
	}

	counts, err := h.store.CountTasksByStatus(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count tasks")
		return
	}
	// Show every column, including empty ones
	byStatus := make(map[string]int64, len(counts))
	for _, status := range workflow.Statuses() {
		byStatus[status] = counts[status]
	}

	var online int64
	if h.hub != nil {
		online = int64(h.hub.Registry().Len())
	} else if h.redis != nil {
		online, _ = h.redis.CountOnline(ctx)
	}

	lastActivityTime, err := h.store.GetMostRecentActivity(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to get last activity")
		return
	}
	lastActivity := "no activity yet"
	if lastActivityTime != nil {
		lastActivity = formatTimeAgo(*lastActivityTime)
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalUsers:    totalUsers,
		TotalProjects: totalProjects,
		TasksByStatus: byStatus,
		OnlineNow:     online,
		LastActivity:  lastActivity,
	})
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return formatInt(mins) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return formatInt(hours) + " hours ago"
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return formatInt(days) + " days ago"
	}
}

// formatInt converts an int to string without importing strconv.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
