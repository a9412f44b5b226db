package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/taskdesk/internal/controller"
	"github.com/rpggio/taskdesk/internal/domain/attendance"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func TestRenderAdmin(t *testing.T) {
	date, err := attendance.ParseDate("2026-10-19")
	require.NoError(t, err)
	view := controller.AdminView{
		Users: []user.Summary{
			{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: user.RoleAdmin},
			{ID: "u2", Name: "Uma", Email: "uma@example.com", Role: user.RoleUser},
		},
		Tasks: []task.Task{
			{ID: "t1", Title: "Sweep", Status: task.StatusPending, AssignedTo: user.Ref{ID: "u2", Name: "Uma"}},
		},
		Attendance:       []attendance.Record{{UserID: "u2", Name: "Uma", Date: date, Status: attendance.StatusPresent}},
		SelectedDate:     date,
		AttendanceBanner: controller.Banner{Kind: controller.BannerSuccess, Message: "Attendance marked successfully"},
		SyncedAt:         time.Now(),
	}

	var buf bytes.Buffer
	require.NoError(t, renderAdmin(&buf, view))
	out := buf.String()

	require.Contains(t, out, "Users (1)")
	require.NotContains(t, out, "ada@example.com")
	require.Contains(t, out, "Sweep")
	require.Contains(t, out, "Attendance for 2026-10-19")
	require.Contains(t, out, "[success] attendance: Attendance marked successfully")
}

func TestRenderUser(t *testing.T) {
	view := controller.UserView{
		Profile: user.Summary{Name: "Uma"},
		Tasks: []task.Task{
			{ID: "t1", Title: "Sweep", Status: task.StatusCompleted, CompletionNotes: "all done"},
		},
		Counts: task.Counts{Completed: 1},
		Banner: controller.Banner{Kind: controller.BannerError, Message: "Failed to load data. Please try again."},
	}

	var buf bytes.Buffer
	require.NoError(t, renderUser(&buf, view))
	out := buf.String()

	require.Contains(t, out, "Uma's dashboard (synced never)")
	require.Contains(t, out, "completed 1")
	require.Contains(t, out, "all done")
	require.Contains(t, out, "[error] dashboard: Failed to load data. Please try again.")
	require.Contains(t, out, "no records")
}

func TestLogFileWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskdesk.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	defer file.Close()
	w.max, w.keep = 64, 32

	_, err = w.Write([]byte(strings.Repeat("a", 60) + "\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Repeat("b", 20) + "\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 32)
	require.True(t, strings.HasSuffix(string(data), strings.Repeat("b", 20)+"\n"))
}
