package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

func (c *Client) listUsers(ctx context.Context) ([]wireUser, error) {
	var resp []wireUser
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/users", auth: true}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]user.Summary, error) {
	wire, err := c.listUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]user.Summary, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.summary())
	}
	return out, nil
}

// GetAllTasks flattens the task lists embedded in the user listing into
// one sequence, stamping each task with its owner. The server has no
// endpoint for this.
func (c *Client) GetAllTasks(ctx context.Context) ([]task.Task, error) {
	wire, err := c.listUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []task.Task
	for _, u := range wire {
		owner := u.summary().Ref()
		for _, wt := range u.Tasks {
			t := wt.task()
			t.AssignedTo = owner
			out = append(out, t)
		}
	}
	if out == nil {
		out = []task.Task{}
	}
	return out, nil
}

// DeleteUser removes a user; the server deletes the user's tasks with it.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/auth/users/" + url.PathEscape(userID),
		auth:   true,
	}, nil)
}
