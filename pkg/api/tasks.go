package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/harrisonrobin/steady/pkg/model"
)

// Ack is the acknowledgement body most write endpoints return.
type Ack struct {
	Message string `json:"message"`
}

// ListTasks fetches every task of the signed-in user.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.get(ctx, "/tasks", &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, d model.Draft) error {
	var ack Ack
	return c.do(ctx, request{method: http.MethodPost, path: "/tasks", body: d.WithDefaults(), out: &ack})
}

func (c *Client) UpdateTask(ctx context.Context, id int64, p model.Patch) error {
	var ack Ack
	return c.do(ctx, request{method: http.MethodPut, path: taskPath(id), body: p, out: &ack})
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	var ack Ack
	return c.do(ctx, request{method: http.MethodDelete, path: taskPath(id), out: &ack})
}

// CompleteTask uses the dedicated completion endpoint, which only touches
// the status column.
func (c *Client) CompleteTask(ctx context.Context, id int64) error {
	var ack Ack
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   taskPath(id) + "/complete",
		body:   struct{}{},
		out:    &ack,
	})
}

func taskPath(id int64) string {
	return fmt.Sprintf("/tasks/%d", id)
}
