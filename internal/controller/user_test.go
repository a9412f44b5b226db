package controller_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/controller"
	"github.com/rpggio/taskdesk/internal/domain/attendance"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func mountUser(t *testing.T, e *env, opts controller.UserOptions) *controller.User {
	t.Helper()
	e.loginAs(t, e.userID, user.RoleUser)
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}
	opts.Profile = user.Summary{ID: e.userID, Name: "Uma", Role: user.RoleUser}
	c := controller.NewUser(e.client, opts)
	require.NoError(t, c.Mount(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func TestUser_MountDerivesCounts(t *testing.T) {
	e := newEnv(t)
	e.srv.AddTask(e.userID, e.adminID, "A", "pending")
	e.srv.AddTask(e.userID, e.adminID, "B", "pending")
	e.srv.AddTask(e.userID, e.adminID, "C", "accepted")
	e.srv.AddTask(e.userID, e.adminID, "D", "completed")

	c := mountUser(t, e, controller.UserOptions{})

	view := c.View()
	require.Equal(t, "Uma", view.Profile.Name)
	require.Len(t, view.Tasks, 4)
	require.Equal(t, task.Counts{Pending: 2, Accepted: 1, Completed: 1}, view.Counts)
	require.ElementsMatch(t, []string{"GET /auth/me/tasks", "GET /auth/me/attendance"}, e.srv.Requests())
}

func TestUser_ReloadFetchesInParallel(t *testing.T) {
	e := newEnv(t)
	c := mountUser(t, e, controller.UserOptions{})

	// Each request is held until both have arrived, so a sequential reload
	// would time out.
	var (
		mu      sync.Mutex
		arrived int
		both    = make(chan struct{})
	)
	e.srv.Intercept(func(w http.ResponseWriter, r *http.Request) bool {
		mu.Lock()
		arrived++
		if arrived == 2 {
			close(both)
		}
		mu.Unlock()
		select {
		case <-both:
			return false
		case <-time.After(2 * time.Second):
			http.Error(w, `{"error":"sequential"}`, http.StatusServiceUnavailable)
			return true
		}
	})

	require.NoError(t, c.Reload(context.Background()))
}

func TestUser_AcceptTask(t *testing.T) {
	e := newEnv(t)
	id := e.srv.AddTask(e.userID, e.adminID, "A", "pending")
	c := mountUser(t, e, controller.UserOptions{})

	require.NoError(t, c.AcceptTask(context.Background(), id))

	view := c.View()
	require.Equal(t, task.StatusAccepted, view.Tasks[0].Status)
	require.Equal(t, task.Counts{Accepted: 1}, view.Counts)
	require.Equal(t, "Task accepted successfully", view.Banner.Message)
}

func TestUser_AcceptOnlyFromPending(t *testing.T) {
	e := newEnv(t)
	id := e.srv.AddTask(e.userID, e.adminID, "A", "accepted")
	c := mountUser(t, e, controller.UserOptions{})
	e.srv.ResetRequests()

	err := c.AcceptTask(context.Background(), id)
	require.ErrorIs(t, err, task.ErrInvalidTransition)
	require.Empty(t, e.srv.Requests())
}

func TestUser_CompletePendingRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.srv.AddTask(e.userID, e.adminID, "A", "pending")
	c := mountUser(t, e, controller.UserOptions{})
	e.srv.ResetRequests()

	require.ErrorIs(t, c.OpenComplete(ctx, id), task.ErrInvalidTransition)
	err := c.CompleteTask(ctx, controller.CompleteForm{TaskID: id, Notes: "done"})
	require.ErrorIs(t, err, task.ErrInvalidTransition)
	require.Empty(t, e.srv.Requests())
	require.Equal(t, "pending", e.srv.Tasks(e.userID)[0].Status)
}

func TestUser_CompleteRequiresNotes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.srv.AddTask(e.userID, e.adminID, "A", "accepted")
	c := mountUser(t, e, controller.UserOptions{})
	require.NoError(t, c.OpenComplete(ctx, id))
	e.srv.ResetRequests()

	err := c.CompleteTask(ctx, controller.CompleteForm{TaskID: id, Notes: "   "})
	var verr *controller.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "notes", verr.Field)
	require.Empty(t, e.srv.Requests())
	require.NotNil(t, c.View().Completing)
}

func TestUser_CompleteTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.srv.AddTask(e.userID, e.adminID, "A", "accepted")
	c := mountUser(t, e, controller.UserOptions{})
	require.NoError(t, c.OpenComplete(ctx, id))

	require.NoError(t, c.CompleteTask(ctx, controller.CompleteForm{TaskID: id, Notes: "shipped"}))

	view := c.View()
	require.Nil(t, view.Completing)
	require.Equal(t, task.StatusCompleted, view.Tasks[0].Status)
	require.Equal(t, "shipped", view.Tasks[0].CompletionNotes)
	require.Equal(t, "Task completed successfully", view.Banner.Message)

	c.CancelComplete()
	require.Nil(t, c.View().Completing)
}

func TestUser_MarkAttendanceTwiceKeepsOneRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := mountUser(t, e, controller.UserOptions{})
	day, err := attendance.ParseDate("2024-01-05")
	require.NoError(t, err)
	c.SetSelectedDate(day)

	require.NoError(t, c.MarkAttendance(ctx))
	require.NoError(t, c.MarkAttendance(ctx))

	view := c.View()
	require.Len(t, view.Attendance, 1)
	require.Equal(t, day, view.Attendance[0].Date)
	require.Equal(t, attendance.StatusPresent, view.Attendance[0].Status)
	require.Equal(t, "Attendance marked successfully", view.Banner.Message)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, "Attendance marked successfully", c.View().Banner.Message)
}

func TestUser_NetworkFailureKeepsSnapshot(t *testing.T) {
	e := newEnv(t)
	e.srv.AddTask(e.userID, e.adminID, "A", "pending")
	c := mountUser(t, e, controller.UserOptions{})
	before := c.View()

	e.srv.Server.Close()
	err := c.Refresh(context.Background())
	require.True(t, api.IsNetworkError(err))

	view := c.View()
	require.Equal(t, before.Tasks, view.Tasks)
	require.Equal(t, before.Counts, view.Counts)
	require.True(t, api.IsNetworkError(view.Banner.Err))
	require.Equal(t, "Unable to reach the server. Check your connection and try again.", view.Banner.Message)
}

func TestUser_PollsOnInterval(t *testing.T) {
	e := newEnv(t)
	c := mountUser(t, e, controller.UserOptions{PollInterval: 20 * time.Millisecond})

	e.srv.AddTask(e.userID, e.adminID, "Late", "pending")
	require.Eventually(t, func() bool {
		return c.View().Counts.Pending == 1
	}, time.Second, 5*time.Millisecond)
}

func TestUser_AcceptDuringPollReloadEndsWithServerState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.srv.AddTask(e.userID, e.adminID, "A", "pending")
	c := mountUser(t, e, controller.UserOptions{})

	entered, release := parkFirst(t, e.srv, http.MethodGet, "/me/tasks")
	tick := make(chan error, 1)
	go func() { tick <- c.Reload(ctx) }()
	<-entered

	require.NoError(t, c.AcceptTask(ctx, id))
	require.Equal(t, task.StatusAccepted, c.View().Tasks[0].Status)

	release()
	require.NoError(t, <-tick)

	view := c.View()
	require.False(t, view.Loading)
	require.Len(t, view.Tasks, 1)
	require.Equal(t, task.StatusAccepted, view.Tasks[0].Status)
	require.Equal(t, task.Counts{Accepted: 1}, view.Counts)
	require.Equal(t, "accepted", e.srv.Tasks(e.userID)[0].Status)
}
