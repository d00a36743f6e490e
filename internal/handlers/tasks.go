package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelboard/reelboard/internal/api/middleware"
	"github.com/reelboard/reelboard/internal/metrics"
	"github.com/reelboard/reelboard/internal/models"
	"github.com/reelboard/reelboard/internal/store"
	"github.com/reelboard/reelboard/internal/workflow"
)

// CreateTaskRequest represents the task creation request body.
type CreateTaskRequest struct {
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest represents the task update request body. A status
// change is validated against the workflow transition table and
// recorded in the task's history; other fields update in place.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	Status      *string    `json:"status"`
}

// TaskListResponse represents the tasks list response.
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// HistoryResponse represents a task's status history.
type HistoryResponse struct {
	History []models.StatusChange `json:"history"`
}

// CreateTask handles task creation.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid project_id format")
		return
	}
	title := sanitizeName(req.Title)
	if title == "" {
		h.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if project == nil {
		h.Error(w, http.StatusNotFound, "project not found")
		return
	}

	assignedTo, ok := h.parseAssignee(w, r, req.AssignedTo)
	if !ok {
		return
	}

	task, err := h.store.CreateTask(r.Context(), projectID, title, req.Description, assignedTo, req.DueDate)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	metrics.TasksCreated.Inc()
	h.indexTask(r, task)

	h.JSON(w, http.StatusCreated, task)
}

// GetTask handles task lookup.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid task ID format")
		return
	}

	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if task == nil {
		h.Error(w, http.StatusNotFound, "task not found")
		return
	}

	h.JSON(w, http.StatusOK, task)
}

// ListTasks handles listing tasks filtered by project, assignee or status.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var f store.TaskFilter

	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid project_id format")
			return
		}
		f.ProjectID = &id
	}
	if raw := r.URL.Query().Get("assigned_to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid assigned_to format")
			return
		}
		f.AssignedTo = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if !workflow.ValidStatus(raw) {
			h.Error(w, http.StatusBadRequest, "unknown status: "+raw)
			return
		}
		f.Status = raw
	}
	f.Limit = queryInt(r, "limit", 100)

	tasks, err := h.store.ListTasks(r.Context(), f)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if tasks == nil {
		tasks = []models.Task{}
	}
	h.JSON(w, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// UpdateTask handles partial task updates, including status moves.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid task ID format")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if task == nil {
		h.Error(w, http.StatusNotFound, "task not found")
		return
	}

	// Status moves first: they are validated against the transition
	// table and recorded in history.
	if req.Status != nil && *req.Status != task.Status {
		if !workflow.ValidStatus(*req.Status) {
			h.Error(w, http.StatusBadRequest, "unknown status: "+*req.Status)
			return
		}
		if !workflow.Allowed(task.Status, *req.Status) {
			h.Error(w, http.StatusUnprocessableEntity, "illegal transition "+task.Status+" -> "+*req.Status)
			return
		}

		changedBy, err := uuid.Parse(identity.UserID)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid caller identity")
			return
		}

		task, err = h.store.UpdateTaskStatus(r.Context(), id, *req.Status, changedBy)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to update status")
			return
		}
		if task == nil {
			h.Error(w, http.StatusNotFound, "task not found")
			return
		}
		metrics.StatusChanges.WithLabelValues(*req.Status).Inc()
	}

	if req.Title != nil || req.Description != nil || req.AssignedTo != nil || req.DueDate != nil {
		title := task.Title
		if req.Title != nil {
			title = sanitizeName(*req.Title)
			if title == "" {
				h.Error(w, http.StatusBadRequest, "title cannot be empty")
				return
			}
		}
		description := task.Description
		if req.Description != nil {
			description = *req.Description
		}
		assignedTo := task.AssignedTo
		if req.AssignedTo != nil {
			var ok bool
			assignedTo, ok = h.parseAssignee(w, r, *req.AssignedTo)
			if !ok {
				return
			}
		}
		dueDate := task.DueDate
		if req.DueDate != nil {
			dueDate = req.DueDate
		}

		task, err = h.store.UpdateTaskDetails(r.Context(), id, title, description, assignedTo, dueDate)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to update task")
			return
		}
		if task == nil {
			h.Error(w, http.StatusNotFound, "task not found")
			return
		}
		h.indexTask(r, task)
	}

	h.JSON(w, http.StatusOK, task)
}

// DeleteTask removes a task.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid task ID format")
		return
	}

	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTaskHistory returns a task's status history, newest first.
func (h *Handler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid task ID format")
		return
	}

	history, err := h.store.ListStatusHistory(r.Context(), id, queryInt(r, "limit", 50))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if history == nil {
		history = []models.StatusChange{}
	}
	h.JSON(w, http.StatusOK, HistoryResponse{History: history})
}

// parseAssignee resolves an optional assignee id, writing an error
// response and returning ok=false on failure. Empty means unassigned.
func (h *Handler) parseAssignee(w http.ResponseWriter, r *http.Request, raw string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid assigned_to format")
		return nil, false
	}
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return nil, false
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "assignee not found")
		return nil, false
	}
	return &id, true
}

// indexTask updates the search index. Best-effort: the database stays
// authoritative if Redis is down or absent.
func (h *Handler) indexTask(r *http.Request, task *models.Task) {
	if h.redis == nil {
		return
	}
	if err := h.redis.IndexTask(r.Context(), task.ID, task.Title); err != nil {
		h.logger.Warn().Err(err).Str("task_id", task.ID.String()).Msg("search indexing failed")
	}
}
