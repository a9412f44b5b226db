package controller

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/domain/attendance"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

// AdminAPI is the part of the API client the admin dashboard uses.
type AdminAPI interface {
	ListUsers(ctx context.Context) ([]user.Summary, error)
	GetAllTasks(ctx context.Context) ([]task.Task, error)
	AttendanceForDate(ctx context.Context, date attendance.Date) ([]attendance.Record, error)
	RegisterUser(ctx context.Context, req api.RegisterRequest) error
	CreateTask(ctx context.Context, req api.CreateTaskRequest) error
	ListUserTasks(ctx context.Context, userID string) ([]task.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	DeleteUser(ctx context.Context, userID string) error
	MarkAttendance(ctx context.Context, date attendance.Date) (attendance.Record, error)
	ClearAttendance(ctx context.Context) error
}

// DefaultBannerTTL is how long the attendance banner stays when
// AdminOptions.BannerTTL is unset.
const DefaultBannerTTL = 3 * time.Second

// AdminOptions configures an Admin dashboard.
type AdminOptions struct {
	PollInterval time.Duration
	BannerTTL    time.Duration
	Logger       *slog.Logger
	OnAuthLost   AuthLostFunc
	Now          func() time.Time
}

// UserTasksOverlay is the per-user task list opened from the users tab.
type UserTasksOverlay struct {
	UserID string      `json:"user_id"`
	Tasks  []task.Task `json:"tasks"`
}

// AdminView is a snapshot of the admin dashboard.
type AdminView struct {
	Loading          bool                `json:"loading"`
	Users            []user.Summary      `json:"users"`
	Tasks            []task.Task         `json:"tasks"`
	Attendance       []attendance.Record `json:"attendance"`
	SelectedDate     attendance.Date     `json:"selected_date"`
	Overlay          *UserTasksOverlay   `json:"overlay,omitempty"`
	Banner           Banner              `json:"banner"`
	AttendanceBanner Banner              `json:"attendance_banner"`
	RegisterForm     RegisterForm        `json:"-"`
	TaskForm         TaskForm            `json:"task_form"`
	SyncedAt         time.Time           `json:"synced_at"`
}

// Members returns the users that can be assigned tasks.
func (v AdminView) Members() []user.Summary {
	return user.Members(v.Users)
}

// Admin drives the admin dashboard.
type Admin struct {
	dashboard
	api AdminAPI
	ttl time.Duration
	now func() time.Time

	view          AdminView
	attendanceGen uint64
}

// NewAdmin creates an unmounted admin dashboard.
func NewAdmin(client AdminAPI, opts AdminOptions) *Admin {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = DefaultBannerTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Admin{
		dashboard: newDashboard(opts.PollInterval, opts.Logger, opts.OnAuthLost),
		api:       client,
		ttl:       opts.BannerTTL,
		now:       opts.Now,
	}
}

// Mount starts the dashboard: the view is reset, polling begins and the
// first reload runs before Mount returns.
func (c *Admin) Mount(ctx context.Context) error {
	started := c.start(ctx, func() {
		c.view = AdminView{
			SelectedDate: attendance.DateOf(c.now()),
			RegisterForm: DefaultRegisterForm(),
		}
	}, c.Reload)
	if !started {
		return nil
	}
	return c.Reload(ctx)
}

// View returns a copy of the current snapshot.
func (c *Admin) View() AdminView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Loading = c.inflight > 0
	v.Users = slices.Clone(v.Users)
	v.Tasks = slices.Clone(v.Tasks)
	v.Attendance = slices.Clone(v.Attendance)
	if v.Overlay != nil {
		overlay := *v.Overlay
		overlay.Tasks = slices.Clone(overlay.Tasks)
		v.Overlay = &overlay
	}
	return v
}

// Reload fetches users, then all tasks, then attendance for the selected
// date, and replaces the snapshot only when all three succeed.
func (c *Admin) Reload(ctx context.Context) error {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	users, err := c.api.ListUsers(ctx)
	if err != nil {
		return c.fail(ctx, err, "Failed to load data. Please try again.")
	}
	tasks, err := c.api.GetAllTasks(ctx)
	if err != nil {
		return c.fail(ctx, err, "Failed to load data. Please try again.")
	}
	date := c.selectedDate()
	records, err := c.api.AttendanceForDate(ctx, date)
	if err != nil {
		return c.fail(ctx, err, "Failed to load data. Please try again.")
	}

	return c.commit(func() {
		c.view.Users = users
		c.view.Tasks = tasks
		if c.view.SelectedDate == date {
			c.view.Attendance = records
		}
		c.view.SyncedAt = c.now()
		if c.view.Banner.Kind == BannerError {
			c.view.Banner = Banner{}
		}
	})
}

// Refresh reloads on demand.
func (c *Admin) Refresh(ctx context.Context) error {
	return c.Reload(ctx)
}

// RegisterUser creates a user from form. The form is kept on failure and
// reset on success.
func (c *Admin) RegisterUser(ctx context.Context, form RegisterForm) error {
	form = form.normalized()
	if err := c.commit(func() { c.view.RegisterForm = form }); err != nil {
		return err
	}
	if err := validateForm(form); err != nil {
		return c.fail(ctx, err, "")
	}

	err := c.act(ctx, func(ctx context.Context) error {
		return c.api.RegisterUser(ctx, api.RegisterRequest{
			Name:     form.Name,
			Email:    form.Email,
			Password: form.Password,
			Role:     form.Role,
		})
	})
	if err != nil {
		return c.fail(ctx, err, "Failed to register user")
	}

	if err := c.commit(func() {
		c.view.RegisterForm = DefaultRegisterForm()
		c.view.Banner = success("User registered successfully")
	}); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// CreateTask assigns a new pending task.
func (c *Admin) CreateTask(ctx context.Context, form TaskForm) error {
	form = form.normalized()
	var assignee *user.Summary
	if err := c.commit(func() {
		c.view.TaskForm = form
		for _, u := range c.view.Users {
			if u.ID == form.AssignedTo {
				assignee = &u
				break
			}
		}
	}); err != nil {
		return err
	}
	if err := validateForm(form); err != nil {
		return c.fail(ctx, err, "")
	}
	if assignee != nil && assignee.Role != user.RoleUser {
		return c.fail(ctx, &ValidationError{Field: "assignedTo", Reason: "must be a user, not an admin"}, "")
	}

	err := c.act(ctx, func(ctx context.Context) error {
		return c.api.CreateTask(ctx, api.CreateTaskRequest{
			Title:       form.Title,
			Description: form.Description,
			AssignedTo:  form.AssignedTo,
		})
	})
	if err != nil {
		return c.fail(ctx, err, "Failed to create task")
	}

	if err := c.commit(func() {
		c.view.TaskForm = TaskForm{}
		c.view.Banner = success("Task created and assigned successfully")
	}); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// ViewUserTasks opens the overlay for one user's tasks.
func (c *Admin) ViewUserTasks(ctx context.Context, userID string) error {
	if userID == "" {
		return c.fail(ctx, &ValidationError{Field: "userId", Reason: "is required"}, "")
	}
	tasks, err := c.userTasks(ctx, userID)
	if err != nil {
		return c.fail(ctx, err, "Failed to load user tasks")
	}
	return c.commit(func() {
		c.view.Overlay = &UserTasksOverlay{UserID: userID, Tasks: tasks}
	})
}

// CloseOverlay hides the per-user task list.
func (c *Admin) CloseOverlay() {
	_ = c.commit(func() { c.view.Overlay = nil })
}

// DeleteTask removes one of userID's tasks. With the overlay open for the
// same user only that user's list is fetched again; otherwise the whole
// dashboard reloads.
func (c *Admin) DeleteTask(ctx context.Context, userID, taskID string) error {
	err := c.act(ctx, func(ctx context.Context) error {
		return c.api.DeleteTask(ctx, userID, taskID)
	})
	if err != nil {
		return c.fail(ctx, err, "Failed to delete task. Please try again.")
	}

	overlayOpen := false
	if err := c.commit(func() {
		c.view.Banner = success("Task deleted successfully")
		c.view.Tasks = slices.DeleteFunc(slices.Clone(c.view.Tasks), func(t task.Task) bool {
			return t.ID == taskID
		})
		overlayOpen = c.view.Overlay != nil && c.view.Overlay.UserID == userID
	}); err != nil {
		return err
	}
	if !overlayOpen {
		return c.Reload(ctx)
	}

	tasks, err := c.userTasks(ctx, userID)
	if err != nil {
		return c.fail(ctx, err, "Failed to load user tasks")
	}
	return c.commit(func() {
		if c.view.Overlay != nil && c.view.Overlay.UserID == userID {
			c.view.Overlay.Tasks = tasks
		}
	})
}

// DeleteUser removes a user. The server deletes the user's tasks too.
func (c *Admin) DeleteUser(ctx context.Context, userID string) error {
	err := c.act(ctx, func(ctx context.Context) error {
		return c.api.DeleteUser(ctx, userID)
	})
	if err != nil {
		return c.fail(ctx, err, "Failed to delete user. Please try again.")
	}
	if err := c.commit(func() {
		c.view.Banner = success("User and associated tasks deleted successfully")
		if c.view.Overlay != nil && c.view.Overlay.UserID == userID {
			c.view.Overlay = nil
		}
	}); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// SetSelectedDate changes the day the attendance tab shows. The next
// reload or GenerateAttendance fetches it.
func (c *Admin) SetSelectedDate(date attendance.Date) {
	_ = c.commit(func() {
		if c.view.SelectedDate != date {
			c.view.SelectedDate = date
			c.view.Attendance = nil
		}
	})
}

// MarkAttendance records the admin as present on the selected date and
// refreshes that day's records.
func (c *Admin) MarkAttendance(ctx context.Context) error {
	date := c.selectedDate()
	err := c.act(ctx, func(ctx context.Context) error {
		_, err := c.api.MarkAttendance(ctx, date)
		return err
	})
	if err != nil {
		return c.failAttendance(ctx, err, "Failed to mark attendance")
	}
	if err := c.commit(func() {
		c.setAttendanceBannerLocked(success("Attendance marked successfully"))
	}); err != nil {
		return err
	}
	return c.GenerateAttendance(ctx)
}

// GenerateAttendance fetches the records for the selected date.
func (c *Admin) GenerateAttendance(ctx context.Context) error {
	date := c.selectedDate()
	var records []attendance.Record
	err := c.act(ctx, func(ctx context.Context) error {
		var err error
		records, err = c.api.AttendanceForDate(ctx, date)
		return err
	})
	if err != nil {
		return c.failAttendance(ctx, err, "Failed to load attendance data")
	}
	return c.commit(func() {
		if c.view.SelectedDate == date {
			c.view.Attendance = records
		}
	})
}

// ClearAttendance deletes every attendance record and reloads.
func (c *Admin) ClearAttendance(ctx context.Context) error {
	err := c.act(ctx, func(ctx context.Context) error {
		return c.api.ClearAttendance(ctx)
	})
	if err != nil {
		return c.failAttendance(ctx, err, "Failed to clear attendance")
	}
	if err := c.commit(func() {
		c.setAttendanceBannerLocked(success("Attendance records cleared"))
	}); err != nil {
		return err
	}
	return c.Reload(ctx)
}

func (c *Admin) selectedDate() attendance.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.SelectedDate
}

func (c *Admin) userTasks(ctx context.Context, userID string) ([]task.Task, error) {
	var tasks []task.Task
	err := c.act(ctx, func(ctx context.Context) error {
		var err error
		tasks, err = c.api.ListUserTasks(ctx, userID)
		return err
	})
	return tasks, err
}

func (c *Admin) fail(ctx context.Context, err error, fallback string) error {
	if errors.Is(err, ErrNotMounted) {
		return err
	}
	c.logger.Debug("admin action failed", "error", err)
	return c.settle(ctx, err, func(err error) {
		c.view.Banner = failure(err, fallback)
	})
}

func (c *Admin) failAttendance(ctx context.Context, err error, fallback string) error {
	if errors.Is(err, ErrNotMounted) {
		return err
	}
	c.logger.Debug("attendance action failed", "error", err)
	return c.settle(ctx, err, func(err error) {
		c.setAttendanceBannerLocked(failure(err, fallback))
	})
}

// setAttendanceBannerLocked shows b and clears it after the banner TTL
// unless a newer attendance banner replaced it first.
func (c *Admin) setAttendanceBannerLocked(b Banner) {
	c.view.AttendanceBanner = b
	c.attendanceGen++
	gen := c.attendanceGen
	c.afterLocked(c.ttl, func() {
		if c.attendanceGen == gen {
			c.view.AttendanceBanner = Banner{}
		}
	})
}
