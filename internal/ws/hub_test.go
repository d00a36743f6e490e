package ws

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/metrics"
	"github.com/reelboard/reelboard/internal/models"
	"github.com/reelboard/reelboard/internal/workflow"
)

func testClient(id, name string, role models.Role) *Client {
	return &Client{
		UserID: id,
		Name:   name,
		Role:   role,
		Rooms:  RoomsForRole(role),
		send:   make(chan envelope, sendBufferSize),
		done:   make(chan struct{}),
		logger: zerolog.Nop(),
	}
}

func testHub(tasks TaskReader) *Hub {
	return NewHub(NewRegistry(), tasks, nil, zerolog.Nop())
}

// drain collects everything queued for a client without blocking.
func drain(c *Client) []envelope {
	var out []envelope
	for {
		select {
		case env := <-c.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

type fakeTasks struct {
	tasks map[string]*models.Task
}

func (f *fakeTasks) GetTask(_ context.Context, id uuid.UUID) (*models.Task, error) {
	return f.tasks[id.String()], nil
}

func TestRoomsForRole(t *testing.T) {
	cases := []struct {
		role models.Role
		want []string
	}{
		{models.RoleEditor, []string{"editor"}},
		{models.RoleClient, []string{"client"}},
		{models.RoleSalesRep, []string{"sales_rep"}},
		{models.RoleAdmin, []string{"admin", AdminUpdatesRoom}},
		{models.RoleManager, []string{"manager", AdminUpdatesRoom}},
	}

	for _, c := range cases {
		got := RoomsForRole(c.role)
		if len(got) != len(c.want) {
			t.Fatalf("RoomsForRole(%s) = %v, want %v", c.role, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("RoomsForRole(%s) = %v, want %v", c.role, got, c.want)
			}
		}
	}
}

func TestRegistryLastConnectWins(t *testing.T) {
	r := NewRegistry()
	first := testClient("u1", "Maya", models.RoleEditor)
	second := testClient("u1", "Maya", models.RoleEditor)

	if prev := r.Register("u1", first); prev != nil {
		t.Fatal("first registration should have no predecessor")
	}
	if prev := r.Register("u1", second); prev != first {
		t.Fatal("second registration should return the displaced connection")
	}

	got, ok := r.Lookup("u1")
	if !ok || got != second {
		t.Fatal("lookup should return the latest connection")
	}

	// The displaced connection's cleanup must not evict its successor.
	r.Unregister("u1", first)
	if _, ok := r.Lookup("u1"); !ok {
		t.Fatal("stale unregister evicted the live connection")
	}

	r.Unregister("u1", second)
	if _, ok := r.Lookup("u1"); ok {
		t.Fatal("expected lookup miss after unregister")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRemoveAfterDisplacementKeepsAccounting(t *testing.T) {
	hub := testHub(nil)
	first := testClient("u1", "Maya", models.RoleManager)
	second := testClient("u1", "Maya", models.RoleManager)

	base := testutil.ToFloat64(metrics.ConnectionsActive)

	hub.Admit(first)
	hub.Admit(second)

	// The displaced connection's read loop runs Remove on its way out.
	// That must not decrement the gauge a second time: the live
	// connection is still open.
	hub.Remove(first)

	if got := testutil.ToFloat64(metrics.ConnectionsActive) - base; got != 1 {
		t.Fatalf("one live connection but gauge delta is %v", got)
	}
	if _, ok := hub.Registry().Lookup("u1"); !ok {
		t.Fatal("stale Remove evicted the live connection")
	}

	// Removing the live connection settles the gauge back to baseline.
	hub.Remove(second)
	if got := testutil.ToFloat64(metrics.ConnectionsActive) - base; got != 0 {
		t.Fatalf("expected gauge back at baseline, delta is %v", got)
	}
}

func TestAdmitDisplacesPreviousConnection(t *testing.T) {
	hub := testHub(nil)
	first := testClient("u1", "Maya", models.RoleManager)
	second := testClient("u1", "Maya", models.RoleManager)

	hub.Admit(first)
	hub.Admit(second)

	select {
	case <-first.done:
	default:
		t.Fatal("displaced connection should be closed")
	}

	got, ok := hub.Registry().Lookup("u1")
	if !ok || got != second {
		t.Fatal("registry should hold the new connection")
	}

	// The displaced connection must no longer receive broadcasts.
	other := testClient("u2", "Ana", models.RoleAdmin)
	hub.Admit(other)
	hub.Relay(other, models.TaskUpdate{TaskID: "t1", Status: workflow.StatusInProgress})

	if got := drain(first); len(got) != 0 {
		t.Fatalf("displaced connection received %d events", len(got))
	}
	if got := drain(second); len(got) != 1 {
		t.Fatalf("live connection should receive 1 event, got %d", len(got))
	}
}

func TestRelayScenario(t *testing.T) {
	// Manager M moves task t1 "Cut Intro" to IN_PROGRESS, assigned to
	// editor e1: every admin-updates member except M gets
	// task_status_changed and e1 gets task_assigned.
	hub := testHub(nil)

	manager := testClient("m1", "Maya", models.RoleManager)
	admin := testClient("a1", "Ana", models.RoleAdmin)
	editor := testClient("e1", "Eli", models.RoleEditor)
	hub.Admit(manager)
	hub.Admit(admin)
	hub.Admit(editor)

	hub.Relay(manager, models.TaskUpdate{
		TaskID:       "t1",
		TaskTitle:    "Cut Intro",
		Status:       workflow.StatusInProgress,
		AssignedToID: "e1",
	})

	adminEvents := drain(admin)
	if len(adminEvents) != 1 {
		t.Fatalf("admin should receive exactly 1 event, got %d", len(adminEvents))
	}
	if adminEvents[0].Event != models.EventTaskStatusChanged {
		t.Fatalf("expected task_status_changed, got %s", adminEvents[0].Event)
	}
	push := adminEvents[0].Payload.(models.StatusChangedPush)
	if push.TaskID != "t1" || push.NewStatus != workflow.StatusInProgress {
		t.Fatalf("unexpected push: %+v", push)
	}
	if push.UpdatedBy != "Maya" {
		t.Fatalf("expected updatedBy Maya, got %q", push.UpdatedBy)
	}
	if push.Timestamp == "" {
		t.Fatal("expected server-generated timestamp")
	}

	if got := drain(manager); len(got) != 0 {
		t.Fatalf("originator should receive nothing, got %d events", len(got))
	}

	editorEvents := drain(editor)
	if len(editorEvents) != 1 {
		t.Fatalf("assignee should receive exactly 1 event, got %d", len(editorEvents))
	}
	if editorEvents[0].Event != models.EventTaskAssigned {
		t.Fatalf("expected task_assigned, got %s", editorEvents[0].Event)
	}
	assigned := editorEvents[0].Payload.(models.AssignedPush)
	if assigned.TaskTitle != "Cut Intro" || assigned.AssignedBy != "Maya" {
		t.Fatalf("unexpected assigned push: %+v", assigned)
	}
}

func TestRelayOfflineAssigneeIsSilentNoOp(t *testing.T) {
	hub := testHub(nil)
	manager := testClient("m1", "Maya", models.RoleManager)
	hub.Admit(manager)

	hub.Relay(manager, models.TaskUpdate{
		TaskID:       "t1",
		TaskTitle:    "Cut Intro",
		Status:       workflow.StatusInProgress,
		AssignedToID: "e1", // not connected
	})

	// No error pushed back to the originator.
	if got := drain(manager); len(got) != 0 {
		t.Fatalf("originator should receive nothing, got %v", got)
	}
}

func TestRelayClientRecipient(t *testing.T) {
	hub := testHub(nil)
	manager := testClient("m1", "Maya", models.RoleManager)
	client := testClient("c1", "Acme", models.RoleClient)
	hub.Admit(manager)
	hub.Admit(client)

	hub.Relay(manager, models.TaskUpdate{
		TaskID:    "t1",
		TaskTitle: "Cut Intro",
		Status:    workflow.StatusReview,
		ClientID:  "c1",
	})

	events := drain(client)
	if len(events) != 1 {
		t.Fatalf("client should receive exactly 1 event, got %d", len(events))
	}
	if events[0].Event != models.EventProjectUpdated {
		t.Fatalf("expected project_updated, got %s", events[0].Event)
	}
	push := events[0].Payload.(models.ProjectUpdatedPush)
	if push.NewStatus != workflow.StatusReview || push.TaskTitle != "Cut Intro" {
		t.Fatalf("unexpected push: %+v", push)
	}
}

func TestRelayRejectsMalformedEvent(t *testing.T) {
	hub := testHub(nil)
	manager := testClient("m1", "Maya", models.RoleManager)
	admin := testClient("a1", "Ana", models.RoleAdmin)
	hub.Admit(manager)
	hub.Admit(admin)

	hub.Relay(manager, models.TaskUpdate{TaskTitle: "no id or status"})

	events := drain(manager)
	if len(events) != 1 || events[0].Event != models.EventError {
		t.Fatalf("expected error push to originator, got %v", events)
	}
	if got := drain(admin); len(got) != 0 {
		t.Fatalf("rejected event must not fan out, admin got %d events", len(got))
	}
}

func TestRelayRejectsUnknownStatus(t *testing.T) {
	hub := testHub(nil)
	manager := testClient("m1", "Maya", models.RoleManager)
	hub.Admit(manager)

	hub.Relay(manager, models.TaskUpdate{TaskID: "t1", Status: "SHIPPED"})

	events := drain(manager)
	if len(events) != 1 || events[0].Event != models.EventError {
		t.Fatalf("expected error push, got %v", events)
	}
}

func TestRelayRejectsIllegalTransition(t *testing.T) {
	taskID := uuid.New()
	tasks := &fakeTasks{tasks: map[string]*models.Task{
		taskID.String(): {ID: taskID, Status: workflow.StatusTodo},
	}}
	hub := testHub(tasks)

	manager := testClient("m1", "Maya", models.RoleManager)
	admin := testClient("a1", "Ana", models.RoleAdmin)
	hub.Admit(manager)
	hub.Admit(admin)

	hub.Relay(manager, models.TaskUpdate{TaskID: taskID.String(), Status: workflow.StatusDone})

	events := drain(manager)
	if len(events) != 1 || events[0].Event != models.EventError {
		t.Fatalf("expected error push for TODO -> DONE, got %v", events)
	}
	if got := drain(admin); len(got) != 0 {
		t.Fatal("illegal transition must not fan out")
	}
}

func TestRelayAllowsAlreadyPersistedStatus(t *testing.T) {
	// The API write usually lands before the relay event, so the
	// stored status can already equal the claim.
	taskID := uuid.New()
	tasks := &fakeTasks{tasks: map[string]*models.Task{
		taskID.String(): {ID: taskID, Status: workflow.StatusInProgress},
	}}
	hub := testHub(tasks)

	manager := testClient("m1", "Maya", models.RoleManager)
	admin := testClient("a1", "Ana", models.RoleAdmin)
	hub.Admit(manager)
	hub.Admit(admin)

	hub.Relay(manager, models.TaskUpdate{TaskID: taskID.String(), Status: workflow.StatusInProgress})

	if got := drain(admin); len(got) != 1 {
		t.Fatalf("expected fanout for already-persisted status, got %d events", len(got))
	}
}

func TestRemoveStopsDelivery(t *testing.T) {
	hub := testHub(nil)
	manager := testClient("m1", "Maya", models.RoleManager)
	admin := testClient("a1", "Ana", models.RoleAdmin)
	hub.Admit(manager)
	hub.Admit(admin)

	hub.Remove(admin)

	hub.Relay(manager, models.TaskUpdate{TaskID: "t1", Status: workflow.StatusInProgress})

	if got := drain(admin); len(got) != 0 {
		t.Fatalf("removed connection received %d events", len(got))
	}
	if _, ok := hub.Registry().Lookup("a1"); ok {
		t.Fatal("removed connection still registered")
	}
}
