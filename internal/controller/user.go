package controller

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/rpggio/taskdesk/internal/domain/attendance"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"golang.org/x/sync/errgroup"
)

// UserAPI is the part of the API client the user dashboard uses.
type UserAPI interface {
	MyTasks(ctx context.Context) ([]task.Task, error)
	MyAttendance(ctx context.Context) ([]attendance.Record, error)
	AcceptTask(ctx context.Context, taskID string) (task.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status task.Status, notes string) (task.Task, error)
	MarkAttendance(ctx context.Context, date attendance.Date) (attendance.Record, error)
}

// UserOptions configures a User dashboard.
type UserOptions struct {
	Profile      user.Summary
	PollInterval time.Duration
	Logger       *slog.Logger
	OnAuthLost   AuthLostFunc
	Now          func() time.Time
}

// UserView is a snapshot of the user dashboard.
type UserView struct {
	Loading      bool                `json:"loading"`
	Profile      user.Summary        `json:"profile"`
	Tasks        []task.Task         `json:"tasks"`
	Counts       task.Counts         `json:"counts"`
	Attendance   []attendance.Record `json:"attendance"`
	SelectedDate attendance.Date     `json:"selected_date"`
	Completing   *CompleteForm       `json:"completing,omitempty"`
	Banner       Banner              `json:"banner"`
	SyncedAt     time.Time           `json:"synced_at"`
}

// User drives the standard user's dashboard.
type User struct {
	dashboard
	api     UserAPI
	profile user.Summary
	now     func() time.Time

	view UserView
}

// NewUser creates an unmounted user dashboard.
func NewUser(client UserAPI, opts UserOptions) *User {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &User{
		dashboard: newDashboard(opts.PollInterval, opts.Logger, opts.OnAuthLost),
		api:       client,
		profile:   opts.Profile,
		now:       opts.Now,
	}
}

// Mount starts the dashboard and runs the first reload.
func (c *User) Mount(ctx context.Context) error {
	started := c.start(ctx, func() {
		c.view = UserView{
			Profile:      c.profile,
			SelectedDate: attendance.DateOf(c.now()),
		}
	}, c.Reload)
	if !started {
		return nil
	}
	return c.Reload(ctx)
}

// View returns a copy of the current snapshot with counts derived from it.
func (c *User) View() UserView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Loading = c.inflight > 0
	v.Tasks = slices.Clone(v.Tasks)
	v.Attendance = slices.Clone(v.Attendance)
	v.Counts = task.Count(v.Tasks)
	if v.Completing != nil {
		form := *v.Completing
		v.Completing = &form
	}
	return v
}

// Reload fetches the caller's tasks and attendance concurrently and
// replaces the snapshot when both succeed.
func (c *User) Reload(ctx context.Context) error {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	var (
		tasks   []task.Task
		records []attendance.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = c.api.MyTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = c.api.MyAttendance(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return c.fail(ctx, err, "Failed to load data. Please try again.")
	}

	return c.commit(func() {
		c.view.Tasks = tasks
		c.view.Attendance = records
		c.view.SyncedAt = c.now()
		if c.view.Banner.Kind == BannerError {
			c.view.Banner = Banner{}
		}
	})
}

// Refresh reloads on demand.
func (c *User) Refresh(ctx context.Context) error {
	return c.Reload(ctx)
}

// AcceptTask accepts a pending task and reloads.
func (c *User) AcceptTask(ctx context.Context, taskID string) error {
	t, err := c.task(taskID)
	if err != nil {
		return c.fail(ctx, err, "")
	}
	if !t.CanAccept() {
		return c.fail(ctx, &ValidationError{
			Field:  "status",
			Reason: "only pending tasks can be accepted",
			Err:    task.ErrInvalidTransition,
		}, "")
	}

	err = c.act(ctx, func(ctx context.Context) error {
		_, err := c.api.AcceptTask(ctx, taskID)
		return err
	})
	if err != nil {
		return c.fail(ctx, err, "Failed to accept task")
	}
	if err := c.commit(func() { c.view.Banner = success("Task accepted successfully") }); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// OpenComplete shows the completion modal for an accepted task.
func (c *User) OpenComplete(ctx context.Context, taskID string) error {
	t, err := c.task(taskID)
	if err == nil && !t.CanComplete() {
		err = completeNotAllowed()
	}
	if err != nil {
		return c.fail(ctx, err, "")
	}
	return c.commit(func() { c.view.Completing = &CompleteForm{TaskID: taskID} })
}

// CancelComplete hides the completion modal.
func (c *User) CancelComplete() {
	_ = c.commit(func() { c.view.Completing = nil })
}

// CompleteTask completes an accepted task with the given notes. Empty
// notes block the request.
func (c *User) CompleteTask(ctx context.Context, form CompleteForm) error {
	form = form.normalized()
	if err := c.commit(func() {
		if c.view.Completing != nil && c.view.Completing.TaskID == form.TaskID {
			c.view.Completing.Notes = form.Notes
		}
	}); err != nil {
		return err
	}
	if err := validateForm(form); err != nil {
		return c.fail(ctx, err, "")
	}
	t, err := c.task(form.TaskID)
	if err == nil && !t.CanComplete() {
		err = completeNotAllowed()
	}
	if err != nil {
		return c.fail(ctx, err, "")
	}

	err = c.act(ctx, func(ctx context.Context) error {
		_, err := c.api.UpdateTaskStatus(ctx, form.TaskID, task.StatusCompleted, form.Notes)
		return err
	})
	if err != nil {
		return c.fail(ctx, err, "Failed to complete task")
	}
	if err := c.commit(func() {
		c.view.Banner = success("Task completed successfully")
		c.view.Completing = nil
	}); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// SetSelectedDate changes the day MarkAttendance records.
func (c *User) SetSelectedDate(date attendance.Date) {
	_ = c.commit(func() { c.view.SelectedDate = date })
}

// MarkAttendance records the caller as present on the selected date. The
// resulting banner stays until the next action.
func (c *User) MarkAttendance(ctx context.Context) error {
	var date attendance.Date
	if err := c.commit(func() { date = c.view.SelectedDate }); err != nil {
		return err
	}
	err := c.act(ctx, func(ctx context.Context) error {
		_, err := c.api.MarkAttendance(ctx, date)
		return err
	})
	if err != nil {
		return c.fail(ctx, err, "Failed to mark attendance")
	}
	if err := c.commit(func() { c.view.Banner = success("Attendance marked successfully") }); err != nil {
		return err
	}
	return c.Reload(ctx)
}

func completeNotAllowed() error {
	return &ValidationError{
		Field:  "status",
		Reason: "only accepted tasks can be completed",
		Err:    task.ErrInvalidTransition,
	}
}

// task looks taskID up in the current snapshot.
func (c *User) task(taskID string) (task.Task, error) {
	var (
		t     task.Task
		found bool
	)
	if err := c.commit(func() { t, found = task.Find(c.view.Tasks, taskID) }); err != nil {
		return task.Task{}, err
	}
	if !found {
		return task.Task{}, &ValidationError{Field: "taskId", Reason: "does not match a task on this dashboard"}
	}
	return t, nil
}

func (c *User) fail(ctx context.Context, err error, fallback string) error {
	if errors.Is(err, ErrNotMounted) {
		return err
	}
	c.logger.Debug("user action failed", "error", err)
	return c.settle(ctx, err, func(err error) {
		c.view.Banner = failure(err, fallback)
	})
}
