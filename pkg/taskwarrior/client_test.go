package taskwarrior

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
)

func TestParseTasks(t *testing.T) {
	input := `[{
		"uuid": "f45a05b3-c12e-42e5-9c9c-333333333333",
		"description": "Buy milk",
		"status": "pending",
		"due": "20260101T230000Z",
		"project": "Groceries",
		"priority": "H",
		"tags": ["buy", "food"]
	},
	{"uuid": "a1", "description": "Gone", "status": "deleted"}]
	{"uuid": "a2", "description": "Water plants", "status": "recurring", "recur": "weekly", "tags": ["home"]}`

	client := NewClient()
	tasks, err := client.ParseTasks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTasks failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}

	expectedDue, _ := time.Parse(time.RFC3339, "2026-01-01T23:00:00Z")
	if !tasks[0].Due.Time.Equal(expectedDue) {
		t.Errorf("Expected Due %v, got %v", expectedDue, tasks[0].Due.Time)
	}

	berlin := time.FixedZone("CET", 3600)
	drafts := Drafts(tasks, berlin)
	if len(drafts) != 2 {
		t.Fatalf("Expected deleted task to be dropped, got %d drafts", len(drafts))
	}

	milk := drafts[0]
	if milk.Title != "Buy milk" || milk.Category != "Groceries" || milk.Priority != model.PriorityHigh {
		t.Errorf("Unexpected draft %+v", milk)
	}
	if milk.Deadline.String() != "2026-01-02" {
		t.Errorf("Expected deadline in local time 2026-01-02, got %s", milk.Deadline)
	}

	plants := drafts[1]
	if !plants.Recurring || plants.Category != "home" || plants.Priority != model.PriorityMedium {
		t.Errorf("Unexpected draft %+v", plants)
	}
}

func TestCompletedTaskKeepsStatus(t *testing.T) {
	d, ok := Task{Description: "Filed taxes", Status: COMPLETED, Priority: "l"}.Draft(time.UTC)
	if !ok {
		t.Fatal("Expected a draft")
	}
	if d.Status != model.StatusCompleted || d.Priority != model.PriorityLow || d.Category != model.DefaultCategory {
		t.Errorf("Unexpected draft %+v", d)
	}
}

func TestGetTasksMissingBinary(t *testing.T) {
	c := &Client{Binary: "steady-no-such-task-binary"}
	if _, err := c.GetTasks(context.Background(), nil); err == nil {
		t.Error("Expected an error for a missing binary")
	}
}
