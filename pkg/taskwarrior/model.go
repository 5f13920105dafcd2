package taskwarrior

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
	RECURRING = "recurring"
)

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, 'Z' indicates UTC

// UnmarshalJSON implements the json.Unmarshaler interface for CustomTime.
func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

// Task is the subset of a `task export` record steady imports.
type Task struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Due         *CustomTime `json:"due,omitempty"`
	Status      string      `json:"status"`
	Project     string      `json:"project,omitempty"`
	Priority    string      `json:"priority,omitempty"`
	Recur       string      `json:"recur,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// Draft converts t into a steady draft. Deleted tasks report false. The
// due date is taken in loc, since Taskwarrior stores UTC.
func (t Task) Draft(loc *time.Location) (model.Draft, bool) {
	if t.Status == DELETED || strings.TrimSpace(t.Description) == "" {
		return model.Draft{}, false
	}

	d := model.Draft{
		Title:     strings.TrimSpace(t.Description),
		Category:  t.Project,
		Recurring: t.Recur != "" || t.Status == RECURRING,
		Status:    model.StatusPending,
	}
	if d.Category == "" && len(t.Tags) > 0 {
		d.Category = t.Tags[0]
	}
	switch strings.ToUpper(t.Priority) {
	case "H":
		d.Priority = model.PriorityHigh
	case "M":
		d.Priority = model.PriorityMedium
	case "L":
		d.Priority = model.PriorityLow
	}
	if t.Status == COMPLETED {
		d.Status = model.StatusCompleted
	}
	if t.Due != nil && !t.Due.IsZero() {
		d.Deadline = model.DateOf(t.Due.In(loc))
	}
	return d.WithDefaults(), true
}
