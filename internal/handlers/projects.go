package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelboard/reelboard/internal/models"
)

// CreateProjectRequest represents the project creation request body.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ClientID    string `json:"client_id"`
}

// UpdateProjectRequest represents the project update request body.
// Omitted fields keep their current value.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ClientID    *string `json:"client_id"`
	Status      *string `json:"status"`
}

// ProjectListResponse represents the projects list response.
type ProjectListResponse struct {
	Projects []models.Project `json:"projects"`
	Total    int              `json:"total"`
}

// CreateProject handles project creation.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := sanitizeName(req.Name)
	if name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	var clientID *uuid.UUID
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid client_id format")
			return
		}
		client, err := h.store.GetUserByID(r.Context(), id)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		if client == nil {
			h.Error(w, http.StatusNotFound, "client not found")
			return
		}
		clientID = &id
	}

	project, err := h.store.CreateProject(r.Context(), name, req.Description, clientID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	h.JSON(w, http.StatusCreated, project)
}

// GetProject handles project lookup.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid project ID format")
		return
	}

	project, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if project == nil {
		h.Error(w, http.StatusNotFound, "project not found")
		return
	}

	h.JSON(w, http.StatusOK, project)
}

// ListProjects handles listing projects with pagination.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	offset := queryInt(r, "offset", 0)

	projects, total, err := h.store.ListProjects(r.Context(), limit, offset)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if projects == nil {
		projects = []models.Project{}
	}
	h.JSON(w, http.StatusOK, ProjectListResponse{Projects: projects, Total: total})
}

// UpdateProject handles partial project updates.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid project ID format")
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	project, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if project == nil {
		h.Error(w, http.StatusNotFound, "project not found")
		return
	}

	if req.Name != nil {
		name := sanitizeName(*req.Name)
		if name == "" {
			h.Error(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.ClientID != nil {
		if *req.ClientID == "" {
			project.ClientID = nil
		} else {
			cid, err := uuid.Parse(*req.ClientID)
			if err != nil {
				h.Error(w, http.StatusBadRequest, "invalid client_id format")
				return
			}
			project.ClientID = &cid
		}
	}

	if err := h.store.UpdateProject(r.Context(), project); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update project")
		return
	}

	h.JSON(w, http.StatusOK, project)
}

// DeleteProject removes a project and its tasks.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid project ID format")
		return
	}

	if err := h.store.DeleteProject(r.Context(), id); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
