package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/reelboard/reelboard/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// fallback when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/reelboard.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/reelboard.db"
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		client_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'TODO',
		assigned_to TEXT REFERENCES users(id) ON DELETE SET NULL,
		due_date DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS task_status_history (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		changed_by TEXT NOT NULL,
		changed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_assigned ON tasks(assigned_to);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_history_task ON task_status_history(task_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.User, error) {
	id := uuid.New()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id.String(), email, passwordHash, name, role, now, now)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var id string
	err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users WHERE id = ?
	`, id.String()))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users WHERE email = ?
	`, email))
}

// CountUsers returns the total number of registered users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateProject creates a new project.
func (s *SQLiteStore) CreateProject(ctx context.Context, name, description string, clientID *uuid.UUID) (*models.Project, error) {
	id := uuid.New()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, client_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'ACTIVE', ?, ?)
	`, id.String(), name, description, uuidPtrString(clientID), now, now)
	if err != nil {
		return nil, err
	}

	return &models.Project{
		ID:          id,
		Name:        name,
		Description: description,
		ClientID:    clientID,
		Status:      "ACTIVE",
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func scanProjectRow(scan func(dest ...interface{}) error) (*models.Project, error) {
	p := &models.Project{}
	var id string
	var clientID sql.NullString
	err := scan(&id, &p.Name, &p.Description, &clientID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	p.ClientID, err = parseNullUUID(clientID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject retrieves a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, client_id, status, created_at, updated_at
		FROM projects WHERE id = ?
	`, id.String())

	p, err := scanProjectRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListProjects retrieves projects with pagination, newest activity first.
func (s *SQLiteStore) ListProjects(ctx context.Context, limit, offset int) ([]models.Project, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, client_id, status, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProjectRow(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}

	return projects, total, nil
}

// UpdateProject updates a project's mutable fields.
func (s *SQLiteStore) UpdateProject(ctx context.Context, p *models.Project) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, client_id = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Description, uuidPtrString(p.ClientID), p.Status, time.Now().UTC(), p.ID.String())
	return err
}

// DeleteProject removes a project and, via cascade, its tasks.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id.String())
	return err
}

// CountProjects returns the total number of projects.
func (s *SQLiteStore) CountProjects(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count)
	return count, err
}

// CreateTask creates a new task in TODO status.
func (s *SQLiteStore) CreateTask(ctx context.Context, projectID uuid.UUID, title, description string, assignedTo *uuid.UUID, dueDate *time.Time) (*models.Task, error) {
	id := uuid.New()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'TODO', ?, ?, ?, ?)
	`, id.String(), projectID.String(), title, description, uuidPtrString(assignedTo), dueDate, now, now)
	if err != nil {
		return nil, err
	}

	return &models.Task{
		ID:          id,
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		Status:      "TODO",
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func scanTaskRow(scan func(dest ...interface{}) error) (*models.Task, error) {
	t := &models.Task{}
	var id, projectID string
	var assignedTo sql.NullString
	var dueDate sql.NullTime
	err := scan(&id, &projectID, &t.Title, &t.Description, &t.Status, &assignedTo, &dueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	t.ProjectID, err = uuid.Parse(projectID)
	if err != nil {
		return nil, err
	}
	t.AssignedTo, err = parseNullUUID(assignedTo)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	return t, nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id.String())

	t, err := scanTaskRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListTasks retrieves tasks matching the filter.
func (s *SQLiteStore) ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	query := `
		SELECT id, project_id, title, description, status, assigned_to, due_date, created_at, updated_at
		FROM tasks WHERE 1=1`
	args := []interface{}{}

	if f.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID.String())
	}
	if f.AssignedTo != nil {
		query += ` AND assigned_to = ?`
		args = append(args, f.AssignedTo.String())
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += ` ORDER BY updated_at DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}

	return tasks, nil
}

// UpdateTaskDetails updates a task's fields other than status.
func (s *SQLiteStore) UpdateTaskDetails(ctx context.Context, id uuid.UUID, title, description string, assignedTo *uuid.UUID, dueDate *time.Time) (*models.Task, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, assigned_to = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`, title, description, uuidPtrString(assignedTo), dueDate, time.Now().UTC(), id.String())
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetTask(ctx, id)
}

// UpdateTaskStatus moves a task to a new status and appends a history
// row, both in one transaction.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, toStatus string, changedBy uuid.UUID) (*models.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var fromStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id.String()).Scan(&fromStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, toStatus, time.Now().UTC(), id.String())
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO task_status_history (id, task_id, from_status, to_status, changed_by, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), id.String(), fromStatus, toStatus, changedBy.String(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
	return err
}

// ListStatusHistory retrieves the status history for a task, newest first.
func (s *SQLiteStore) ListStatusHistory(ctx context.Context, taskID uuid.UUID, limit int) ([]models.StatusChange, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, from_status, to_status, changed_by, changed_at
		FROM task_status_history
		WHERE task_id = ?
		ORDER BY changed_at DESC, rowid DESC
		LIMIT ?
	`, taskID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		var id, tid, changedBy string
		err := rows.Scan(&id, &tid, &c.FromStatus, &c.ToStatus, &changedBy, &c.ChangedAt)
		if err != nil {
			return nil, err
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if c.TaskID, err = uuid.Parse(tid); err != nil {
			return nil, err
		}
		if c.ChangedBy, err = uuid.Parse(changedBy); err != nil {
			return nil, err
		}
		history = append(history, c)
	}

	return history, nil
}

// CountTasksByStatus returns task counts grouped by board column.
func (s *SQLiteStore) CountTasksByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
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
func (s *SQLiteStore) GetMostRecentActivity(ctx context.Context) (*time.Time, error) {
	// MAX() loses the declared column type, which defeats the driver's
	// time conversion, so order instead.
	var t time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM tasks ORDER BY updated_at DESC LIMIT 1
	`).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func uuidPtrString(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func parseNullUUID(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

var _ DataStore = (*SQLiteStore)(nil)
