package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/reelboard/reelboard/internal/models"
)

// TaskFilter narrows ListTasks results. Zero values mean "no filter".
type TaskFilter struct {
	ProjectID  *uuid.UUID
	AssignedTo *uuid.UUID
	Status     string
	Limit      int
}

// DataStore defines the interface for persistent storage of users,
// projects and tasks. Both PostgresStore and SQLiteStore implement it.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Project operations
	CreateProject(ctx context.Context, name, description string, clientID *uuid.UUID) (*models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]models.Project, int, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
	CountProjects(ctx context.Context) (int64, error)

	// Task operations
	CreateTask(ctx context.Context, projectID uuid.UUID, title, description string, assignedTo *uuid.UUID, dueDate *time.Time) (*models.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error)
	UpdateTaskDetails(ctx context.Context, id uuid.UUID, title, description string, assignedTo *uuid.UUID, dueDate *time.Time) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, toStatus string, changedBy uuid.UUID) (*models.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListStatusHistory(ctx context.Context, taskID uuid.UUID, limit int) ([]models.StatusChange, error)

	// Board statistics
	CountTasksByStatus(ctx context.Context) (map[string]int64, error)
	GetMostRecentActivity(ctx context.Context) (*time.Time, error)
}
