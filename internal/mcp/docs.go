package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `taskdesk is a client for a role-based task and attendance service.

Core concepts:
- Session: the token, role and profile stored at login. Every tool except login and status needs one.
- Role: admin or user. Each role has its own dashboard; a session can only open its own.
- Dashboard snapshot: the last full reload. Actions reload after writing, so the snapshot they return is current.
- Task lifecycle: pending -> accepted -> completed. Only pending tasks can be accepted and only accepted tasks completed.

Default workflow:
1) Call status. If not logged in, call login with email, password and the account's role.
2) Admins: admin_dashboard, then admin_register_user / admin_create_task / admin_delete_* / admin_*attendance.
3) Users: user_dashboard, then user_accept_task / user_complete_task / user_mark_attendance.
4) Call refresh to reload the open dashboard; logout when done.

Errors carry a code: AUTH_REQUIRED (log in again), ROLE_MISMATCH, FORBIDDEN (wrong dashboard),
VALIDATION_ERROR (fix the arguments; nothing was sent), API_ERROR (server refused), NETWORK_ERROR (retry).

Docs:
- taskdesk://docs/index
- taskdesk://docs/tasks
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "taskdesk://docs/index",
		Name:        "docs_index",
		Title:       "taskdesk docs index",
		Description: "What the tools do and how sessions and dashboards relate.",
		Content: `# taskdesk: Agent Docs Index

## Sessions

- login stores the session locally; it survives restarts until logout.
- The role you pass to login must equal the account's role, otherwise login fails with ROLE_MISMATCH and nothing is stored.
- A 401 from the server or an expired token clears the session. Tools then answer AUTH_REQUIRED.

## Dashboards

- Opening a dashboard runs a full reload: admins get users, then every task, then attendance for the selected date; users get their tasks and attendance.
- The snapshot is replaced as a whole. A failed reload keeps the previous snapshot and sets an error banner.
- Admin dashboards poll every 30 seconds, user dashboards every 5 minutes, while the server runs.

## Further reading

- taskdesk://docs/tasks
`,
	},
	{
		URI:         "taskdesk://docs/tasks",
		Name:        "docs_tasks",
		Title:       "Tasks and attendance",
		Description: "Task lifecycle, assignment rules and attendance semantics.",
		Content: `# Tasks and attendance

## Tasks

- admin_create_task always creates a pending task. assigned_to must be a user, not an admin.
- user_accept_task: pending -> accepted.
- user_complete_task: accepted -> completed. Notes are required.
- Deleting a user deletes that user's tasks on the server.

## Attendance

- One record per user and date. Marking the same date twice keeps one record.
- Dates are calendar days written YYYY-MM-DD (UTC).
- admin_clear_attendance removes every record for every user.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
