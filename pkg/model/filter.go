package model

import (
	"sort"
	"strings"
)

// FilterAll disables a filter dimension.
const FilterAll = "All"

// Filter selects the tasks shown in a list view.
type Filter struct {
	Query    string
	Priority string // FilterAll or a Priority
	Status   string // FilterAll or a Status
}

// DefaultFilter shows every pending task.
func DefaultFilter() Filter {
	return Filter{Priority: FilterAll, Status: string(StatusPending)}
}

func (f Filter) Match(t Task) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Category), q) {
			return false
		}
	}
	if f.Priority != "" && f.Priority != FilterAll && string(t.Priority) != f.Priority {
		return false
	}
	if f.Status != "" && f.Status != FilterAll && string(t.Status) != f.Status {
		return false
	}
	return true
}

// Apply returns the matching tasks in their original order.
func (f Filter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortByPriority orders tasks High to Low, then by earliest deadline
// (tasks without one last), then by id.
func SortByPriority(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if ra, rb := PriorityRank(a.Priority), PriorityRank(b.Priority); ra != rb {
			return ra < rb
		}
		switch {
		case a.Deadline.IsZero() && !b.Deadline.IsZero():
			return false
		case !a.Deadline.IsZero() && b.Deadline.IsZero():
			return true
		case !a.Deadline.Equal(b.Deadline.Time):
			return a.Deadline.Before(b.Deadline)
		}
		return a.ID < b.ID
	})
}
