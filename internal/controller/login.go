package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/guard"
	"github.com/rpggio/taskdesk/internal/session"
)

// LoginAPI exchanges credentials for a token.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
}

// LoginState is the position of the login state machine.
type LoginState string

const (
	LoginIdle       LoginState = "idle"
	LoginSubmitting LoginState = "submitting"
	LoginSucceeded  LoginState = "succeeded"
	LoginFailed     LoginState = "failed"
)

// LoginView is a snapshot of the login screen.
type LoginView struct {
	State LoginState `json:"state"`
	Email string     `json:"email,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Submitting reports whether a submission is pending.
func (v LoginView) Submitting() bool {
	return v.State == LoginSubmitting
}

// Login authenticates and establishes the session.
type Login struct {
	api    LoginAPI
	store  session.Store
	logger *slog.Logger

	mu   sync.Mutex
	view LoginView
}

// NewLogin creates a Login controller in the idle state.
func NewLogin(client LoginAPI, store session.Store, logger *slog.Logger) *Login {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Login{
		api:    client,
		store:  store,
		logger: logger,
		view:   LoginView{State: LoginIdle},
	}
}

// View returns the current login screen state.
func (l *Login) View() LoginView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// Submit validates form, authenticates, checks the server's role against
// the selected one and stores the session. It returns the dashboard the
// role lands on. On any failure nothing is stored.
func (l *Login) Submit(ctx context.Context, form LoginForm) (guard.Route, error) {
	form = form.normalized()

	l.mu.Lock()
	if l.view.State == LoginSubmitting {
		l.mu.Unlock()
		return "", ErrBusy
	}
	l.view = LoginView{State: LoginSubmitting, Email: form.Email}
	l.mu.Unlock()

	route, err := l.submit(ctx, form)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.view.State = LoginFailed
		l.view.Error = describe(err, "Login failed")
		l.logger.Info("login failed", "email", form.Email, "error", err)
		return "", err
	}
	l.view.State = LoginSucceeded
	l.view.Error = ""
	return route, nil
}

func (l *Login) submit(ctx context.Context, form LoginForm) (guard.Route, error) {
	if err := validateForm(form); err != nil {
		return "", err
	}

	res, err := l.api.Login(ctx, form.Email, form.Password)
	if err != nil {
		return "", err
	}
	if res.User.Role != form.Role {
		return "", &RoleMismatchError{Selected: form.Role, Actual: res.User.Role}
	}

	if err := l.store.Establish(ctx, session.Session{
		Token:   res.Token,
		Role:    res.User.Role,
		Profile: res.User,
	}); err != nil {
		return "", err
	}
	l.logger.Info("logged in", "user_id", res.User.ID, "role", res.User.Role)
	return guard.HomeFor(res.User.Role), nil
}

// Reset returns the screen to idle, for example after logout.
func (l *Login) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view = LoginView{State: LoginIdle}
}
