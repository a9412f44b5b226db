package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Session
		{
			Name:        "status",
			Description: "Show the current route, login state and the logged-in profile",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "login",
			Description: "Log in and open the dashboard for the role. The role must match the account's role.",
			InputSchema: object(map[string]any{
				"email":    str("Account email"),
				"password": str("Account password"),
				"role":     enum("Role to log in as", "admin", "user"),
			}, "email", "password", "role"),
		},
		{
			Name:        "logout",
			Description: "Clear the stored session and return to login",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "refresh",
			Description: "Reload the open dashboard from the server and return its snapshot",
			InputSchema: object(map[string]any{}),
		},

		// Admin
		{
			Name:        "admin_dashboard",
			Description: "Return the admin dashboard snapshot: users, all tasks, attendance for the selected date and banners",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "admin_register_user",
			Description: "Register a new account",
			InputSchema: object(map[string]any{
				"name":     str("Display name"),
				"email":    str("Login email"),
				"password": str("Initial password"),
				"role":     enum("Role of the new account (default user)", "admin", "user"),
			}, "name", "email", "password"),
		},
		{
			Name:        "admin_create_task",
			Description: "Assign a new pending task to a user",
			InputSchema: object(map[string]any{
				"title":       str("Task title"),
				"description": str("Task description"),
				"assigned_to": str("ID of the user the task is assigned to"),
			}, "title", "description", "assigned_to"),
		},
		{
			Name:        "admin_user_tasks",
			Description: "List the tasks assigned to one user",
			InputSchema: object(map[string]any{
				"user_id": str("User ID"),
			}, "user_id"),
		},
		{
			Name:        "admin_delete_task",
			Description: "Delete one of a user's tasks",
			InputSchema: object(map[string]any{
				"user_id": str("Owner of the task"),
				"task_id": str("Task ID"),
			}, "user_id", "task_id"),
		},
		{
			Name:        "admin_delete_user",
			Description: "Delete a user together with the user's tasks",
			InputSchema: object(map[string]any{
				"user_id": str("User ID"),
			}, "user_id"),
		},
		{
			Name:        "admin_attendance",
			Description: "List attendance records for a date (defaults to the selected date)",
			InputSchema: object(map[string]any{
				"date": str("Date as YYYY-MM-DD"),
			}),
		},
		{
			Name:        "admin_mark_attendance",
			Description: "Mark the admin present on a date (defaults to the selected date)",
			InputSchema: object(map[string]any{
				"date": str("Date as YYYY-MM-DD"),
			}),
		},
		{
			Name:        "admin_clear_attendance",
			Description: "Delete every attendance record",
			InputSchema: object(map[string]any{}),
		},

		// User
		{
			Name:        "user_dashboard",
			Description: "Return the user dashboard snapshot: own tasks, status counts and attendance",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "user_accept_task",
			Description: "Accept a pending task",
			InputSchema: object(map[string]any{
				"task_id": str("Task ID"),
			}, "task_id"),
		},
		{
			Name:        "user_complete_task",
			Description: "Complete an accepted task with completion notes",
			InputSchema: object(map[string]any{
				"task_id": str("Task ID"),
				"notes":   str("What was done"),
			}, "task_id", "notes"),
		},
		{
			Name:        "user_mark_attendance",
			Description: "Mark yourself present on a date (defaults to today)",
			InputSchema: object(map[string]any{
				"date": str("Date as YYYY-MM-DD"),
			}),
		},
	}
}

func registerTools(server *sdkmcp.Server, handler *Handler, logger *slog.Logger) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, name, args)
			if err != nil {
				logger.Debug("tool failed", "tool", name, "error", err)
				return errorResult(err), nil
			}
			return jsonResult(result)
		})
	}
}

func jsonResult(payload any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		if toolErr = MapError(err); toolErr == nil {
			toolErr = &ToolError{Code: "INTERNAL", Message: err.Error()}
		}
	}
	data, _ := json.Marshal(toolErr)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
