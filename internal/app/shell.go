// Package app is the navigation shell. It evaluates the route guard on every
// navigation and keeps at most one dashboard mounted.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/controller"
	"github.com/rpggio/taskdesk/internal/guard"
	"github.com/rpggio/taskdesk/internal/session"
)

// Options configures a Shell.
type Options struct {
	Client            *api.Client
	Store             session.Store
	AdminPollInterval time.Duration
	UserPollInterval  time.Duration
	BannerTTL         time.Duration
	Logger            *slog.Logger
}

// Shell owns the current route and its controller.
type Shell struct {
	client *api.Client
	store  session.Store
	guard  *guard.Guard
	opts   Options
	logger *slog.Logger
	login  *controller.Login

	mu    sync.Mutex
	route guard.Route
	admin *controller.Admin
	user  *controller.User
}

// New creates a Shell showing the login route.
func New(opts Options) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Shell{
		client: opts.Client,
		store:  opts.Store,
		guard:  guard.New(opts.Store),
		opts:   opts,
		logger: logger,
		login:  controller.NewLogin(opts.Client, opts.Store, logger),
		route:  guard.RouteLogin,
	}
}

// Start navigates to the dashboard of the stored session, or to login when
// there is none.
func (s *Shell) Start(ctx context.Context) (guard.Route, error) {
	target := guard.RouteLogin
	sess, err := s.store.Current(ctx)
	switch {
	case err == nil:
		target = guard.HomeFor(sess.Role)
	case !session.IsAbsent(err):
		return guard.RouteLogin, fmt.Errorf("reading session: %w", err)
	}
	return s.Navigate(ctx, target)
}

// Navigate shows target if the guard admits it and login otherwise. The
// previous dashboard is torn down and the new one mounted, which runs its
// first reload. Reload failures are reported on the dashboard's banner.
func (s *Shell) Navigate(ctx context.Context, target guard.Route) (guard.Route, error) {
	resolved := s.guard.Resolve(ctx, target)
	if resolved != target {
		s.logger.Info("navigation redirected", "target", target, "route", resolved)
	}

	var mount func(context.Context) error
	switch resolved {
	case guard.RouteAdmin:
		admin := controller.NewAdmin(s.client, controller.AdminOptions{
			PollInterval: s.opts.AdminPollInterval,
			BannerTTL:    s.opts.BannerTTL,
			Logger:       s.logger.With("dashboard", "admin"),
			OnAuthLost:   s.sessionLost,
		})
		mount = s.swap(resolved, admin, nil)
	case guard.RouteUser:
		sess, err := s.store.Current(ctx)
		if err != nil {
			return s.Navigate(ctx, guard.RouteLogin)
		}
		usr := controller.NewUser(s.client, controller.UserOptions{
			Profile:      sess.Profile,
			PollInterval: s.opts.UserPollInterval,
			Logger:       s.logger.With("dashboard", "user"),
			OnAuthLost:   s.sessionLost,
		})
		mount = s.swap(resolved, nil, usr)
	default:
		s.swap(resolved, nil, nil)
	}

	if mount != nil {
		if err := mount(ctx); err != nil && !errors.Is(err, controller.ErrNotMounted) {
			s.logger.Warn("initial reload failed", "route", resolved, "error", err)
		}
	}
	return s.Route(), nil
}

// swap installs the new controllers, tears down the old ones and returns
// the mount function of whichever new controller was given.
func (s *Shell) swap(route guard.Route, admin *controller.Admin, usr *controller.User) func(context.Context) error {
	s.mu.Lock()
	prevAdmin, prevUser := s.admin, s.user
	s.route, s.admin, s.user = route, admin, usr
	s.mu.Unlock()

	if prevAdmin != nil {
		prevAdmin.Close()
	}
	if prevUser != nil {
		prevUser.Close()
	}
	switch {
	case admin != nil:
		return admin.Mount
	case usr != nil:
		return usr.Mount
	}
	return nil
}

// Login submits the login form and, on success, navigates to the role's
// dashboard. On failure the shell stays on login.
func (s *Shell) Login(ctx context.Context, form controller.LoginForm) (guard.Route, error) {
	route, err := s.login.Submit(ctx, form)
	if err != nil {
		return s.Route(), err
	}
	return s.Navigate(ctx, route)
}

// Logout clears the stored session and returns to login.
func (s *Shell) Logout(ctx context.Context) error {
	s.swap(guard.RouteLogin, nil, nil)
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.login.Reset()
	s.logger.Info("logged out")
	return nil
}

// sessionLost is handed to dashboards. The token is unusable, so the
// session is cleared and the shell returns to login.
func (s *Shell) sessionLost(ctx context.Context, err error) {
	s.logger.Warn("session lost", "error", err)
	if clearErr := s.store.Clear(ctx); clearErr != nil {
		s.logger.Error("clearing session failed", "error", clearErr)
	}
	if _, navErr := s.Navigate(ctx, guard.RouteLogin); navErr != nil {
		s.logger.Error("navigation to login failed", "error", navErr)
	}
}

// Route returns the route currently shown.
func (s *Shell) Route() guard.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// LoginScreen returns the login controller.
func (s *Shell) LoginScreen() *controller.Login {
	return s.login
}

// Admin returns the mounted admin dashboard.
func (s *Shell) Admin() (*controller.Admin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin, s.admin != nil
}

// User returns the mounted user dashboard.
func (s *Shell) User() (*controller.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.user != nil
}

// Close tears down whatever dashboard is mounted without touching the
// stored session.
func (s *Shell) Close() {
	s.mu.Lock()
	route := s.route
	s.mu.Unlock()
	s.swap(route, nil, nil)
}
