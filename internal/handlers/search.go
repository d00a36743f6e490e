package handlers

import (
	"net/http"

	"github.com/reelboard/reelboard/internal/metrics"
	"github.com/reelboard/reelboard/internal/models"
)

// SearchResponse represents the search response.
type SearchResponse struct {
	Query string        `json:"query"`
	Tasks []models.Task `json:"tasks"`
}

// Search finds tasks whose titles match all query words. The Redis
// word index supplies candidates; the database supplies the records.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.Error(w, http.StatusBadRequest, "q is required")
		return
	}
	if h.redis == nil {
		h.Error(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	metrics.SearchQueries.Inc()

	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	ids, err := h.redis.SearchTasks(r.Context(), query, limit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "search failed")
		return
	}

	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		task, err := h.store.GetTask(r.Context(), id)
		if err != nil || task == nil {
			continue // task deleted since indexing
		}
		tasks = append(tasks, *task)
	}

	h.JSON(w, http.StatusOK, SearchResponse{Query: query, Tasks: tasks})
}
