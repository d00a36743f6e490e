package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelboard/reelboard/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, name, role, created_at, updated_at
	`, email, passwordHash, name, role).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users WHERE id = $1
	`, id))
}

// GetUserByEmail retrieves a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users WHERE email = $1
	`, email))
}

func (s *PostgresStore) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateProject creates a new project.
func (s *PostgresStore) CreateProject(ctx context.Context, name, description string, clientID *uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO projects (name, description, client_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, client_id, status, created_at, updated_at
	`, name, description, clientID).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ClientID,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject retrieves a project by ID.
func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, client_id, status, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ClientID,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return project, nil
}

// ListProjects retrieves projects with pagination, newest activity first.
func (s *PostgresStore) ListProjects(ctx context.Context, limit, offset int) ([]models.Project, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, client_id, status, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ClientID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}

	return projects, total, nil
}

// UpdateProject updates a project's mutable fields.
func (s *PostgresStore) UpdateProject(ctx context.Context, p *models.Project) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE projects
		SET name = $2, description = $3, client_id = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.ClientID, p.Status)
	return err
}

// DeleteProject removes a project and, via cascade, its tasks.
func (s *PostgresStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

// CountProjects returns the total number of projects.
func (s *PostgresStore) CountProjects(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count)
	return count, err
}

// CreateTask creates a new task in TODO status.
func (s *PostgresStore) CreateTask(ctx context.Context, projectID uuid.UUID, title, description string, assignedTo *uuid.UUID, dueDate *time.Time) (*models.Task, error) {
	task := &models.Task{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, assigned_to, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at
	`, projectID, title, description, assignedTo, dueDate).Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.AssignedTo,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves a task by ID.
func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task := &models.Task{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id).Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.AssignedTo,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// ListTasks retrieves tasks matching the filter.
func (s *PostgresStore) ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	query := `
		SELECT id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at
		FROM tasks WHERE 1=1`
	args := []interface{}{}

	if f.ProjectID != nil {
		args = append(args, *f.ProjectID)
		query += ` AND project_id = $` + strconv.Itoa(len(args))
	}
	if f.AssignedTo != nil {
		args = append(args, *f.AssignedTo)
		query += ` AND assigned_to = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += ` ORDER BY updated_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.AssignedTo, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// UpdateTaskDetails updates a task's fields other than status.
func (s *PostgresStore) UpdateTaskDetails(ctx context.Context, id uuid.UUID, title, description string, assignedTo *uuid.UUID, dueDate *time.Time) (*models.Task, error) {
	task := &models.Task{}
	err := s.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, assigned_to = $4, due_date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at
	`, id, title, description, assignedTo, dueDate).Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.AssignedTo,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// UpdateTaskStatus moves a task to a new status and appends a history
// row, both in one transaction.
func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, toStatus string, changedBy uuid.UUID) (*models.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var fromStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1 FOR UPDATE`, id).Scan(&fromStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	task := &models.Task{}
	err = tx.QueryRow(ctx, `
		UPDATE tasks
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at
	`, id, toStatus).Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.AssignedTo,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO task_status_history (task_id, from_status, to_status, changed_by)
		VALUES ($1, $2, $3, $4)
	`, id, fromStatus, toStatus, changedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task.
func (s *PostgresStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

// ListStatusHistory retrieves the status history for a task, newest first.
func (s *PostgresStore) ListStatusHistory(ctx context.Context, taskID uuid.UUID, limit int) ([]models.StatusChange, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, from_status, to_status, changed_by, changed_at
		FROM task_status_history
		WHERE task_id = $1
		ORDER BY changed_at DESC
		LIMIT $2
	`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		err := rows.Scan(&c.ID, &c.TaskID, &c.FromStatus, &c.ToStatus, &c.ChangedBy, &c.ChangedAt)
		if err != nil {
			return nil, err
		}
		history = append(history, c)
	}

	return history, nil
}

// CountTasksByStatus returns task counts grouped by board column.
func (s *PostgresStore) CountTasksByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, nil
}

// GetMostRecentActivity returns the timestamp of the latest task update.
func (s *PostgresStore) GetMostRecentActivity(ctx context.Context) (*time.Time, error) {
	var t *time.Time
	err := s.pool.QueryRow(ctx, `SELECT MAX(updated_at) FROM tasks`).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

var _ DataStore = (*PostgresStore)(nil)
