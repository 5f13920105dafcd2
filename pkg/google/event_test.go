package google

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
	"google.golang.org/api/calendar/v3"
)

func TestEventFromTask(t *testing.T) {
	task := model.Task{
		ID:               12,
		Title:            "Stretch",
		Category:         "Health",
		Priority:         model.PriorityHigh,
		Deadline:         model.NewDate(2026, time.October, 14),
		Status:           model.StatusPending,
		Recurring:        true,
		ConsistencyScore: 72.4,
	}

	event, err := EventFromTask(task, "3", model.NewDate(2026, time.October, 15))
	if err != nil {
		t.Fatalf("EventFromTask failed: %v", err)
	}

	if event.Summary != "! ↻ Stretch" {
		t.Errorf("Expected overdue habit summary, got %q", event.Summary)
	}
	if event.Start.Date != "2026-10-14" || event.End.Date != "2026-10-15" {
		t.Errorf("Expected all-day event on 2026-10-14, got %s..%s", event.Start.Date, event.End.Date)
	}
	if event.ColorId != "3" {
		t.Errorf("Expected color 3, got %s", event.ColorId)
	}
	if val := event.ExtendedProperties.Private[TaskIDProperty]; val != "12" {
		t.Errorf("Expected %s 12, got %v", TaskIDProperty, val)
	}
	for _, want := range []string{"Category: Health", "Priority: High", "Consistency: 72%", "Steady ID: 12"} {
		if !strings.Contains(event.Description, want) {
			t.Errorf("Expected description to contain %q, got: %s", want, event.Description)
		}
	}
}

func TestEventFromTaskOnTime(t *testing.T) {
	task := model.Task{ID: 1, Title: "Report", Deadline: model.NewDate(2026, time.October, 15)}
	event, err := EventFromTask(task, "1", model.NewDate(2026, time.October, 15))
	if err != nil {
		t.Fatalf("EventFromTask failed: %v", err)
	}
	if event.Summary != "Report" {
		t.Errorf("Expected plain summary, got %q", event.Summary)
	}

	if _, err := EventFromTask(model.Task{ID: 2, Title: "Someday"}, "1", model.Date{}); err == nil {
		t.Error("Expected an error for a task without deadline")
	}
}

func TestExportable(t *testing.T) {
	due := model.NewDate(2026, time.October, 20)
	cases := []struct {
		name string
		task model.Task
		want bool
	}{
		{"pending with deadline", model.Task{ID: 1, Deadline: due, Status: model.StatusPending}, true},
		{"completed", model.Task{ID: 1, Deadline: due, Status: model.StatusCompleted}, false},
		{"no deadline", model.Task{ID: 1, Status: model.StatusPending}, false},
		{"placeholder", model.Task{ID: -1, Deadline: due, Status: model.StatusPending}, false},
	}
	for _, tc := range cases {
		if got := Exportable(tc.task); got != tc.want {
			t.Errorf("%s: Exportable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	existing := &calendar.Event{
		Summary:     "Report",
		Description: "Steady ID: 1\n",
		ColorId:     "1",
		Start:       &calendar.EventDateTime{Date: "2026-10-15"},
		End:         &calendar.EventDateTime{Date: "2026-10-16"},
	}
	same := *existing
	if patch := EventNeedsUpdate(existing, &same); patch != nil {
		t.Errorf("Expected no patch for identical events, got %+v", patch)
	}

	moved := same
	moved.Start = &calendar.EventDateTime{Date: "2026-10-17"}
	moved.End = &calendar.EventDateTime{Date: "2026-10-18"}
	moved.ColorId = "4"
	patch := EventNeedsUpdate(existing, &moved)
	if patch == nil {
		t.Fatal("Expected a patch")
	}
	if patch.Summary != "" || patch.Description != "" {
		t.Errorf("Expected only changed fields in patch, got %+v", patch)
	}
	if patch.ColorId != "4" || patch.Start.Date != "2026-10-17" {
		t.Errorf("Unexpected patch %+v", patch)
	}
}

func TestTaskIDFromEvent(t *testing.T) {
	ev := &calendar.Event{ExtendedProperties: &calendar.EventExtendedProperties{
		Private: map[string]string{TaskIDProperty: "44"},
	}}
	if id, ok := TaskIDFromEvent(ev); !ok || id != 44 {
		t.Errorf("Expected 44 from properties, got %d %v", id, ok)
	}

	ev = &calendar.Event{Description: "Category: Work\nSteady ID: 9\n"}
	if id, ok := TaskIDFromEvent(ev); !ok || id != 9 {
		t.Errorf("Expected 9 from description, got %d %v", id, ok)
	}

	if _, ok := TaskIDFromEvent(&calendar.Event{Summary: "Lunch"}); ok {
		t.Error("Expected no id on a foreign event")
	}
}
