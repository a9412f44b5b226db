package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/taskdesk/internal/controller"
	"github.com/rpggio/taskdesk/internal/domain/attendance"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/rpggio/taskdesk/internal/guard"
	"github.com/rpggio/taskdesk/internal/session"
)

// Shell defines the navigation operations needed by MCP.
type Shell interface {
	Route() guard.Route
	Navigate(ctx context.Context, target guard.Route) (guard.Route, error)
	Login(ctx context.Context, form controller.LoginForm) (guard.Route, error)
	Logout(ctx context.Context) error
	LoginScreen() *controller.Login
	Admin() (*controller.Admin, bool)
	User() (*controller.User, bool)
}

// Handler dispatches MCP tool calls to the shell and its dashboards.
type Handler struct {
	shell    Shell
	sessions session.Reader
	guard    *guard.Guard
}

// NewHandler creates a new MCP handler.
func NewHandler(shell Shell, sessions session.Reader) *Handler {
	return &Handler{shell: shell, sessions: sessions, guard: guard.New(sessions)}
}

// Handle dispatches one tool call.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "status":
		return h.status(ctx), nil
	case "login":
		var req LoginParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		route, err := h.shell.Login(ctx, controller.LoginForm{
			Email:    req.Email,
			Password: req.Password,
			Role:     user.Role(req.Role),
		})
		if err != nil {
			return nil, mapError(err)
		}
		return NavigateResponse{Route: route}, nil
	case "logout":
		if err := h.shell.Logout(ctx); err != nil {
			return nil, err
		}
		return NavigateResponse{Route: h.shell.Route()}, nil
	case "refresh":
		return h.refresh(ctx)

	case "admin_dashboard":
		admin, err := h.admin(ctx)
		if err != nil {
			return nil, err
		}
		return admin.View(), nil
	case "admin_register_user":
		var req RegisterUserParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.adminAction(ctx, func(a *controller.Admin) error {
			return a.RegisterUser(ctx, controller.RegisterForm{
				Name:     req.Name,
				Email:    req.Email,
				Password: req.Password,
				Role:     user.Role(req.Role),
			})
		})
	case "admin_create_task":
		var req CreateTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.adminAction(ctx, func(a *controller.Admin) error {
			return a.CreateTask(ctx, controller.TaskForm{
				Title:       req.Title,
				Description: req.Description,
				AssignedTo:  req.AssignedTo,
			})
		})
	case "admin_user_tasks":
		var req UserIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		admin, err := h.admin(ctx)
		if err != nil {
			return nil, err
		}
		if err := admin.ViewUserTasks(ctx, req.UserID); err != nil {
			return nil, mapError(err)
		}
		return admin.View().Overlay, nil
	case "admin_delete_task":
		var req DeleteTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.adminAction(ctx, func(a *controller.Admin) error {
			return a.DeleteTask(ctx, req.UserID, req.TaskID)
		})
	case "admin_delete_user":
		var req UserIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.adminAction(ctx, func(a *controller.Admin) error {
			return a.DeleteUser(ctx, req.UserID)
		})
	case "admin_attendance":
		var req DateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		admin, err := h.admin(ctx)
		if err != nil {
			return nil, err
		}
		if err := selectDate(req.Date, admin.SetSelectedDate); err != nil {
			return nil, mapError(err)
		}
		if err := admin.GenerateAttendance(ctx); err != nil {
			return nil, mapError(err)
		}
		return admin.View().Attendance, nil
	case "admin_mark_attendance":
		var req DateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		admin, err := h.admin(ctx)
		if err != nil {
			return nil, err
		}
		if err := selectDate(req.Date, admin.SetSelectedDate); err != nil {
			return nil, mapError(err)
		}
		if err := admin.MarkAttendance(ctx); err != nil {
			return nil, mapError(err)
		}
		return MessageResponse{Message: admin.View().AttendanceBanner.Message}, nil
	case "admin_clear_attendance":
		admin, err := h.admin(ctx)
		if err != nil {
			return nil, err
		}
		if err := admin.ClearAttendance(ctx); err != nil {
			return nil, mapError(err)
		}
		return MessageResponse{Message: admin.View().AttendanceBanner.Message}, nil

	case "user_dashboard":
		usr, err := h.user(ctx)
		if err != nil {
			return nil, err
		}
		return usr.View(), nil
	case "user_accept_task":
		var req TaskIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.userAction(ctx, func(u *controller.User) error {
			return u.AcceptTask(ctx, req.TaskID)
		})
	case "user_complete_task":
		var req CompleteTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.userAction(ctx, func(u *controller.User) error {
			return u.CompleteTask(ctx, controller.CompleteForm{TaskID: req.TaskID, Notes: req.Notes})
		})
	case "user_mark_attendance":
		var req DateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.userAction(ctx, func(u *controller.User) error {
			if err := selectDate(req.Date, u.SetSelectedDate); err != nil {
				return err
			}
			return u.MarkAttendance(ctx)
		})
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func (h *Handler) status(ctx context.Context) StatusResponse {
	login := h.shell.LoginScreen().View()
	resp := StatusResponse{
		Route:      h.shell.Route(),
		LoginState: string(login.State),
		LoginError: login.Error,
	}
	if sess, err := h.sessions.Current(ctx); err == nil {
		resp.LoggedIn = true
		profile := sess.Profile
		resp.Profile = &profile
	}
	return resp
}

func (h *Handler) refresh(ctx context.Context) (any, error) {
	if admin, ok := h.shell.Admin(); ok {
		if err := admin.Refresh(ctx); err != nil {
			return nil, mapError(err)
		}
		return admin.View(), nil
	}
	if usr, ok := h.shell.User(); ok {
		if err := usr.Refresh(ctx); err != nil {
			return nil, mapError(err)
		}
		return usr.View(), nil
	}
	return nil, &ToolError{Code: "FORBIDDEN", Message: ErrForbidden.Error(), RecoveryHint: "Call login"}
}

// admin returns the mounted admin dashboard, navigating to it first when
// the route guard admits the session. A refused tool leaves the current
// route alone.
func (h *Handler) admin(ctx context.Context) (*controller.Admin, error) {
	if admin, ok := h.shell.Admin(); ok && admin.Mounted() {
		return admin, nil
	}
	if err := h.enter(ctx, guard.RouteAdmin); err != nil {
		return nil, err
	}
	if admin, ok := h.shell.Admin(); ok && admin.Mounted() {
		return admin, nil
	}
	return nil, mapError(fmt.Errorf("admin: %w", ErrForbidden))
}

func (h *Handler) user(ctx context.Context) (*controller.User, error) {
	if usr, ok := h.shell.User(); ok && usr.Mounted() {
		return usr, nil
	}
	if err := h.enter(ctx, guard.RouteUser); err != nil {
		return nil, err
	}
	if usr, ok := h.shell.User(); ok && usr.Mounted() {
		return usr, nil
	}
	return nil, mapError(fmt.Errorf("user: %w", ErrForbidden))
}

func (h *Handler) enter(ctx context.Context, route guard.Route) error {
	required, _ := route.RequiredRole()
	if !session.Exists(ctx, h.sessions) {
		return &ToolError{Code: "AUTH_REQUIRED", Message: "not logged in", RecoveryHint: "Call login"}
	}
	if !h.guard.CanAccess(ctx, required) {
		return mapError(fmt.Errorf("%s: %w", route, ErrForbidden))
	}
	_, err := h.shell.Navigate(ctx, route)
	return err
}

func (h *Handler) adminAction(ctx context.Context, fn func(*controller.Admin) error) (any, error) {
	admin, err := h.admin(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(admin); err != nil {
		return nil, mapError(err)
	}
	return MessageResponse{Message: admin.View().Banner.Message}, nil
}

func (h *Handler) userAction(ctx context.Context, fn func(*controller.User) error) (any, error) {
	usr, err := h.user(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(usr); err != nil {
		return nil, mapError(err)
	}
	return MessageResponse{Message: usr.View().Banner.Message}, nil
}

func selectDate(raw string, set func(attendance.Date)) error {
	if raw == "" {
		return nil
	}
	date, err := attendance.ParseDate(raw)
	if err != nil {
		return &controller.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD", Err: err}
	}
	set(date)
	return nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &ToolError{Code: "VALIDATION_ERROR", Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return nil
}
