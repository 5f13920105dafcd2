package model

import (
	"errors"
	"fmt"
	"strings"
)

// Priority is the importance level of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// DefaultCategory is assigned to tasks submitted without a category.
const DefaultCategory = "General"

var (
	ErrEmptyTitle      = errors.New("task title is required")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidStatus   = errors.New("invalid status")
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// PriorityRank returns the sort order for a priority (lower = more urgent).
func PriorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ParsePriority accepts any casing of Low, Medium or High.
func ParsePriority(s string) (Priority, error) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// ParseStatus accepts any casing of Pending or Completed.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusPending, StatusCompleted} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Task is a to-do item or, when Recurring is set, a tracked habit.
// ConsistencyScore, LastCompleted and CreatedAt are maintained by the server.
type Task struct {
	ID               int64     `json:"id" yaml:"id"`
	Title            string    `json:"task" yaml:"task"`
	Category         string    `json:"category" yaml:"category"`
	Priority         Priority  `json:"priority" yaml:"priority"`
	Deadline         Date      `json:"deadline" yaml:"deadline"`
	Status           Status    `json:"status" yaml:"status"`
	Recurring        bool      `json:"recurring" yaml:"recurring"`
	ConsistencyScore float64   `json:"consistency_score" yaml:"consistency_score"`
	LastCompleted    Date      `json:"last_completed" yaml:"last_completed"`
	CreatedAt        Timestamp `json:"created_at" yaml:"created_at"`
}

// Temporary reports whether the task carries a client-side placeholder id.
// Server ids are always positive.
func (t Task) Temporary() bool {
	return t.ID < 0
}

// Overdue reports a pending task whose deadline is before today.
func (t Task) Overdue(today Date) bool {
	return t.Status != StatusCompleted && !t.Deadline.IsZero() && t.Deadline.Before(today)
}

// Draft holds the fields submitted when creating a task.
type Draft struct {
	Title     string   `json:"task"`
	Category  string   `json:"category"`
	Priority  Priority `json:"priority"`
	Deadline  Date     `json:"deadline"`
	Recurring bool     `json:"recurring"`
	Status    Status   `json:"status"`
}

// WithDefaults fills unset fields the way the server would.
func (d Draft) WithDefaults() Draft {
	d.Title = strings.TrimSpace(d.Title)
	if strings.TrimSpace(d.Category) == "" {
		d.Category = DefaultCategory
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	return d
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	if d.Status != "" && !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched; a Deadline
// pointing at a zero Date clears the deadline.
type Patch struct {
	Title     *string   `json:"task,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Deadline  *Date     `json:"deadline,omitempty"`
	Status    *Status   `json:"status,omitempty"`
	Recurring *bool     `json:"recurring,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Priority == nil &&
		p.Deadline == nil && p.Status == nil && p.Recurring == nil
}

func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	return nil
}

// Apply returns t with the patch fields merged over it.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Recurring != nil {
		t.Recurring = *p.Recurring
	}
	return t
}

// EditableFields returns a patch carrying every client-editable field of t.
func EditableFields(t Task) Patch {
	return Patch{
		Title:     &t.Title,
		Category:  &t.Category,
		Priority:  &t.Priority,
		Deadline:  &t.Deadline,
		Status:    &t.Status,
		Recurring: &t.Recurring,
	}
}
