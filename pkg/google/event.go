package google

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
	"google.golang.org/api/calendar/v3"
)

// TaskIDProperty is the private extended property carrying the task id.
const TaskIDProperty = "steady_id"

const (
	prefixOverdue = "!"
	prefixHabit   = "↻"
	dateLayout    = "2006-01-02"
)

var taskIDRe = regexp.MustCompile(`Steady ID: (\d+)`)

// Exportable reports whether task belongs on the calendar: pending, with a
// deadline, and already confirmed by the server.
func Exportable(task model.Task) bool {
	return task.Status != model.StatusCompleted && !task.Deadline.IsZero() && !task.Temporary()
}

// EventFromTask renders task as an all-day event on its deadline. today
// decides the overdue marker.
func EventFromTask(task model.Task, colorID string, today model.Date) (*calendar.Event, error) {
	if task.Deadline.IsZero() {
		return nil, fmt.Errorf("task %d has no deadline", task.ID)
	}

	var prefixes []string
	if task.Overdue(today) {
		prefixes = append(prefixes, prefixOverdue)
	}
	if task.Recurring {
		prefixes = append(prefixes, prefixHabit)
	}
	summary := strings.Join(append(prefixes, task.Title), " ")

	var desc strings.Builder
	fmt.Fprintf(&desc, "Category: %s\n", task.Category)
	fmt.Fprintf(&desc, "Priority: %s\n", task.Priority)
	if task.Recurring {
		fmt.Fprintf(&desc, "Consistency: %.0f%%\n", task.ConsistencyScore)
		if !task.LastCompleted.IsZero() {
			fmt.Fprintf(&desc, "Last completed: %s\n", task.LastCompleted)
		}
	}
	fmt.Fprintf(&desc, "Steady ID: %d\n", task.ID)

	id := strconv.FormatInt(task.ID, 10)
	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ColorId:     colorID,
		Start:       &calendar.EventDateTime{Date: task.Deadline.Format(dateLayout)},
		// All-day end dates are exclusive.
		End:          &calendar.EventDateTime{Date: task.Deadline.AddDate(0, 0, 1).Format(dateLayout)},
		Transparency: "transparent",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: id},
		},
	}, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when they match.
func EventNeedsUpdate(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if eventDate(existing.Start) != eventDate(target.Start) || eventDate(existing.End) != eventDate(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

// eventDate normalises an all-day or timed boundary to its date.
func eventDate(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.Date != "" {
		return dt.Date
	}
	if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
		return t.UTC().Format(dateLayout)
	}
	return dt.DateTime
}

// TaskIDFromEvent reads the task id from the extended property, falling
// back to the description for events edited by hand.
func TaskIDFromEvent(ev *calendar.Event) (int64, bool) {
	if ev == nil {
		return 0, false
	}
	if ev.ExtendedProperties != nil {
		if raw, ok := ev.ExtendedProperties.Private[TaskIDProperty]; ok {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return id, true
			}
		}
	}
	if m := taskIDRe.FindStringSubmatch(ev.Description); len(m) > 1 {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}
