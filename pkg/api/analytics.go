package api

import (
	"context"

	"github.com/harrisonrobin/steady/pkg/model"
)

// CompletionRate returns the percentage of the user's tasks that are completed.
func (c *Client) CompletionRate(ctx context.Context) (float64, error) {
	var out struct {
		CompletionRate float64 `json:"completion_rate"`
	}
	if err := c.get(ctx, "/analytics/completion_rate", &out); err != nil {
		return 0, err
	}
	return out.CompletionRate, nil
}

// ByCategory returns the task count per category.
func (c *Client) ByCategory(ctx context.Context) (map[string]int, error) {
	out := map[string]int{}
	if err := c.get(ctx, "/analytics/by_category", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByPriority returns the task count per priority.
func (c *Client) ByPriority(ctx context.Context) (map[string]int, error) {
	out := map[string]int{}
	if err := c.get(ctx, "/analytics/by_priority", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Habits derives the habit list from the task list. Failures degrade to an
// empty list.
func (c *Client) Habits(ctx context.Context) []model.Habit {
	tasks, err := c.ListTasks(ctx)
	if err != nil {
		c.log.WithError(err).Debug("habits unavailable")
		return []model.Habit{}
	}
	return model.Habits(tasks)
}
