package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/reelboard/reelboard/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "maya@example.com", "hash", "Maya", models.RoleManager)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == uuid.Nil {
		t.Fatal("expected generated user ID")
	}

	got, err := s.GetUserByEmail(ctx, "maya@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("expected user %s, got %+v", u.ID, got)
	}
	if got.Role != models.RoleManager {
		t.Fatalf("expected role manager, got %q", got.Role)
	}

	missing, err := s.GetUserByID(ctx, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown user")
	}

	count, err := s.CountUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client, err := s.CreateUser(ctx, "client@example.com", "hash", "Acme", models.RoleClient)
	if err != nil {
		t.Fatal(err)
	}

	p, err := s.CreateProject(ctx, "Launch Video", "Q4 spot", &client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != "ACTIVE" {
		t.Fatalf("expected ACTIVE status, got %q", p.Status)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ClientID == nil || *got.ClientID != client.ID {
		t.Fatalf("expected client %s on project, got %+v", client.ID, got)
	}

	got.Name = "Launch Video v2"
	got.Status = "ARCHIVED"
	if err := s.UpdateProject(ctx, got); err != nil {
		t.Fatal(err)
	}

	updated, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Launch Video v2" || updated.Status != "ARCHIVED" {
		t.Fatalf("update not applied: %+v", updated)
	}

	projects, total, err := s.ListProjects(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(projects) != 1 {
		t.Fatalf("expected 1 project, got total=%d len=%d", total, len(projects))
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	gone, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gone != nil {
		t.Fatal("expected project to be deleted")
	}
}

func TestTaskStatusHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	manager, err := s.CreateUser(ctx, "m@example.com", "hash", "Maya", models.RoleManager)
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.CreateProject(ctx, "Launch Video", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	task, err := s.CreateTask(ctx, p.ID, "Cut Intro", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != "TODO" {
		t.Fatalf("new task should be TODO, got %q", task.Status)
	}

	moved, err := s.UpdateTaskStatus(ctx, task.ID, "IN_PROGRESS", manager.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.Status != "IN_PROGRESS" {
		t.Fatalf("expected IN_PROGRESS, got %q", moved.Status)
	}

	if _, err := s.UpdateTaskStatus(ctx, task.ID, "REVIEW", manager.ID); err != nil {
		t.Fatal(err)
	}

	history, err := s.ListStatusHistory(ctx, task.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
	// Newest first
	if history[0].FromStatus != "IN_PROGRESS" || history[0].ToStatus != "REVIEW" {
		t.Fatalf("unexpected newest row: %+v", history[0])
	}
	if history[1].FromStatus != "TODO" || history[1].ToStatus != "IN_PROGRESS" {
		t.Fatalf("unexpected oldest row: %+v", history[1])
	}

	missing, err := s.UpdateTaskStatus(ctx, uuid.New(), "DONE", manager.ID)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown task")
	}
}

func TestListTasksFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	editor, err := s.CreateUser(ctx, "e@example.com", "hash", "Eli", models.RoleEditor)
	if err != nil {
		t.Fatal(err)
	}
	p1, err := s.CreateProject(ctx, "Project One", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := s.CreateProject(ctx, "Project Two", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.CreateTask(ctx, p1.ID, "Cut Intro", "", &editor.ID, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTask(ctx, p1.ID, "Color Grade", "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTask(ctx, p2.ID, "Sound Mix", "", &editor.ID, nil); err != nil {
		t.Fatal(err)
	}

	byProject, err := s.ListTasks(ctx, TaskFilter{ProjectID: &p1.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(byProject) != 2 {
		t.Fatalf("expected 2 tasks in project one, got %d", len(byProject))
	}

	byAssignee, err := s.ListTasks(ctx, TaskFilter{AssignedTo: &editor.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(byAssignee) != 2 {
		t.Fatalf("expected 2 tasks for editor, got %d", len(byAssignee))
	}

	byStatus, err := s.ListTasks(ctx, TaskFilter{Status: "DONE"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byStatus) != 0 {
		t.Fatalf("expected no DONE tasks, got %d", len(byStatus))
	}

	counts, err := s.CountTasksByStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["TODO"] != 3 {
		t.Fatalf("expected 3 TODO tasks, got %d", counts["TODO"])
	}
}
