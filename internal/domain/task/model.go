package task

import (
	"time"

	"github.com/rpggio/taskdesk/internal/domain/user"
)

// Status represents the lifecycle position of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Task is a unit of work assigned by an admin to a user.
type Task struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	AssignedTo      user.Ref  `json:"assigned_to"`
	AssignedBy      user.Ref  `json:"assigned_by"`
	Status          Status    `json:"status"`
	CompletionNotes string    `json:"completion_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Counts partitions a task snapshot by status.
type Counts struct {
	Pending    int `json:"pending"`
	Accepted   int `json:"accepted"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Count derives status counts from tasks.
func Count(tasks []Task) Counts {
	var c Counts
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			c.Pending++
		case StatusAccepted:
			c.Accepted++
		case StatusInProgress:
			c.InProgress++
		case StatusCompleted:
			c.Completed++
		}
	}
	return c
}

// Find returns the task with the given id.
func Find(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
