package mcp

import (
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/rpggio/taskdesk/internal/guard"
)

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type RegisterUserParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type CreateTaskParams struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
}

type UserIDParams struct {
	UserID string `json:"user_id"`
}

type DeleteTaskParams struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

type DateParams struct {
	Date string `json:"date,omitempty"`
}

type TaskIDParams struct {
	TaskID string `json:"task_id"`
}

type CompleteTaskParams struct {
	TaskID string `json:"task_id"`
	Notes  string `json:"notes"`
}

// StatusResponse describes where the shell is and who is logged in.
type StatusResponse struct {
	Route      guard.Route   `json:"route"`
	LoggedIn   bool          `json:"logged_in"`
	Profile    *user.Summary `json:"profile,omitempty"`
	LoginState string        `json:"login_state"`
	LoginError string        `json:"login_error,omitempty"`
}

// NavigateResponse reports the route shown after a navigation.
type NavigateResponse struct {
	Route guard.Route `json:"route"`
}

// MessageResponse carries the banner set by a dashboard action.
type MessageResponse struct {
	Message string `json:"message"`
}
