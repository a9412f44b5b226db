package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, f *fixture) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(Config{Shell: f.shell, Sessions: f.store, Version: "test"})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "taskdesk-test", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestServer_ListsToolsAndDocs(t *testing.T) {
	f := newFixture(t)
	session := connect(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, len(buildToolCatalog()))

	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	require.True(t, names["login"])
	require.True(t, names["admin_create_task"])
	require.True(t, names["user_complete_task"])

	read, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "taskdesk://docs/index"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	require.Equal(t, "text/markdown", read.Contents[0].MIMEType)
	require.Contains(t, read.Contents[0].Text, "Agent Docs Index")
}

func TestServer_AdminWorkflow(t *testing.T) {
	f := newFixture(t)
	session := connect(t, f)

	text, isErr := callTool(t, session, "login", map[string]any{
		"email": "ada@example.com", "password": "secret", "role": "admin",
	})
	require.False(t, isErr, text)
	require.JSONEq(t, `{"route":"/admin-dashboard"}`, text)

	text, isErr = callTool(t, session, "admin_register_user", map[string]any{
		"name": "Ned", "email": "ned@example.com", "password": "secret",
	})
	require.False(t, isErr, text)
	require.Contains(t, text, "User registered successfully")

	text, isErr = callTool(t, session, "admin_dashboard", nil)
	require.False(t, isErr, text)
	var view struct {
		Users []struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &view))
	require.Len(t, view.Users, 3)
}

func TestServer_ErrorsAreToolResults(t *testing.T) {
	f := newFixture(t)
	session := connect(t, f)

	text, isErr := callTool(t, session, "user_dashboard", nil)
	require.True(t, isErr)

	var toolErr ToolError
	require.NoError(t, json.Unmarshal([]byte(text), &toolErr))
	require.Equal(t, "AUTH_REQUIRED", toolErr.Code)
	require.Equal(t, "Call login", toolErr.RecoveryHint)
}
