package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rpggio/taskdesk/internal/domain/task"
)

// CreateTaskRequest describes a task to assign.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
}

// CreateTask assigns a new pending task to req.AssignedTo.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) error {
	body := struct {
		CreateTaskRequest
		Status task.Status `json:"status"`
	}{CreateTaskRequest: req, Status: task.StatusPending}

	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/users/" + url.PathEscape(req.AssignedTo) + "/tasks",
		body:   body,
		auth:   true,
	}, nil)
}

// ListUserTasks returns the tasks assigned to one user.
func (c *Client) ListUserTasks(ctx context.Context, userID string) ([]task.Task, error) {
	var resp []wireTask
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/users/" + url.PathEscape(userID) + "/tasks",
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return tasksFromWire(resp), nil
}

// DeleteTask removes one of a user's tasks.
func (c *Client) DeleteTask(ctx context.Context, userID, taskID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/auth/users/" + url.PathEscape(userID) + "/tasks/" + url.PathEscape(taskID),
		auth:   true,
	}, nil)
}

// MyTasks returns the caller's tasks.
func (c *Client) MyTasks(ctx context.Context) ([]task.Task, error) {
	var resp []wireTask
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me/tasks", auth: true}, &resp); err != nil {
		return nil, err
	}
	return tasksFromWire(resp), nil
}

// UpdateTaskStatus sets the status and completion notes of a caller's task.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID string, status task.Status, notes string) (task.Task, error) {
	var resp wireTask
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/auth/me/tasks/" + url.PathEscape(taskID),
		body: map[string]string{
			"status":          string(status),
			"completionNotes": notes,
		},
		auth: true,
	}, &resp)
	if err != nil {
		return task.Task{}, err
	}
	return resp.task(), nil
}

// AcceptTask moves a caller's pending task to accepted.
func (c *Client) AcceptTask(ctx context.Context, taskID string) (task.Task, error) {
	var resp wireTask
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/me/tasks/" + url.PathEscape(taskID) + "/accept",
		auth:   true,
	}, &resp)
	if err != nil {
		return task.Task{}, err
	}
	return resp.task(), nil
}
