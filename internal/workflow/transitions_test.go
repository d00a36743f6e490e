package workflow

import "testing"

func TestAllowedTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusTodo, StatusInProgress, true},
		{StatusInProgress, StatusReview, true},
		{StatusInProgress, StatusTodo, true},
		{StatusReview, StatusDone, true},
		{StatusReview, StatusRevisions, true},
		{StatusRevisions, StatusReview, true},
		{StatusDone, StatusReview, true},

		{StatusTodo, StatusDone, false},
		{StatusTodo, StatusReview, false},
		{StatusDone, StatusTodo, false},
		{StatusRevisions, StatusDone, false},
	}

	for _, c := range cases {
		if got := Allowed(c.from, c.to); got != c.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestNoOpMoveIsAllowed(t *testing.T) {
	for _, s := range Statuses() {
		if !Allowed(s, s) {
			t.Errorf("Allowed(%s, %s) should be true", s, s)
		}
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	if ValidStatus("SHIPPED") {
		t.Fatal("SHIPPED should not be a valid status")
	}
	if Allowed("SHIPPED", StatusDone) {
		t.Fatal("transition from unknown status should be rejected")
	}
	if Allowed(StatusTodo, "SHIPPED") {
		t.Fatal("transition to unknown status should be rejected")
	}
}
