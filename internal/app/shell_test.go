package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/apitest"
	"github.com/rpggio/taskdesk/internal/app"
	"github.com/rpggio/taskdesk/internal/controller"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/rpggio/taskdesk/internal/guard"
	"github.com/rpggio/taskdesk/internal/session"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv   *apitest.Server
	store *session.MemoryStore
	shell *app.Shell
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("Ada", "ada@example.com", "secret", "admin")
	srv.AddUser("Uma", "uma@example.com", "secret", "user")
	store := session.NewMemoryStore()
	shell := app.New(app.Options{
		Client:            api.New(api.Options{BaseURL: srv.BaseURL(), Timeout: 5 * time.Second, Sessions: store}),
		Store:             store,
		AdminPollInterval: time.Hour,
		UserPollInterval:  time.Hour,
		BannerTTL:         time.Second,
	})
	t.Cleanup(shell.Close)
	return &fixture{srv: srv, store: store, shell: shell}
}

func TestShell_StartWithoutSession(t *testing.T) {
	f := newFixture(t)

	route, err := f.shell.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, guard.RouteLogin, route)
	_, ok := f.shell.Admin()
	require.False(t, ok)
	require.Empty(t, f.srv.Requests())
}

func TestShell_LoginMountsDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	route, err := f.shell.Login(ctx, controller.LoginForm{Email: "ada@example.com", Password: "secret", Role: user.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, guard.RouteAdmin, route)

	admin, ok := f.shell.Admin()
	require.True(t, ok)
	require.True(t, admin.Mounted())
	require.Len(t, admin.View().Users, 2)
}

func TestShell_RoleMismatchStaysOnLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	route, err := f.shell.Login(ctx, controller.LoginForm{Email: "uma@example.com", Password: "secret", Role: user.RoleAdmin})
	require.ErrorIs(t, err, controller.ErrRoleMismatch)
	require.Equal(t, guard.RouteLogin, route)
	require.False(t, session.Exists(ctx, f.store))
	_, ok := f.shell.User()
	require.False(t, ok)
	require.Equal(t, "Invalid role. Please login as user", f.shell.LoginScreen().View().Error)
}

func TestShell_StartRestoresStoredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.shell.Login(ctx, controller.LoginForm{Email: "uma@example.com", Password: "secret", Role: user.RoleUser})
	require.NoError(t, err)
	f.shell.Close()

	route, err := f.shell.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, guard.RouteUser, route)
	usr, ok := f.shell.User()
	require.True(t, ok)
	require.Equal(t, "Uma", usr.View().Profile.Name)
}

func TestShell_GuardRedirectsWrongRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.shell.Login(ctx, controller.LoginForm{Email: "uma@example.com", Password: "secret", Role: user.RoleUser})
	require.NoError(t, err)
	usr, _ := f.shell.User()

	route, err := f.shell.Navigate(ctx, guard.RouteAdmin)
	require.NoError(t, err)
	require.Equal(t, guard.RouteLogin, route)
	require.False(t, usr.Mounted())
	// Redirecting does not log the user out.
	require.True(t, session.Exists(ctx, f.store))
}

func TestShell_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.shell.Login(ctx, controller.LoginForm{Email: "ada@example.com", Password: "secret", Role: user.RoleAdmin})
	require.NoError(t, err)
	admin, _ := f.shell.Admin()

	require.NoError(t, f.shell.Logout(ctx))
	require.Equal(t, guard.RouteLogin, f.shell.Route())
	require.False(t, admin.Mounted())
	require.False(t, session.Exists(ctx, f.store))
	require.Equal(t, controller.LoginIdle, f.shell.LoginScreen().View().State)

	route, err := f.shell.Navigate(ctx, guard.RouteAdmin)
	require.NoError(t, err)
	require.Equal(t, guard.RouteLogin, route)
}

func TestShell_RevokedTokenReturnsToLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.shell.Login(ctx, controller.LoginForm{Email: "ada@example.com", Password: "secret", Role: user.RoleAdmin})
	require.NoError(t, err)
	admin, _ := f.shell.Admin()

	f.srv.RevokeTokens()
	err = admin.Refresh(ctx)
	require.True(t, api.IsUnauthorized(err))

	require.Equal(t, guard.RouteLogin, f.shell.Route())
	require.False(t, admin.Mounted())
	require.False(t, session.Exists(ctx, f.store))
}
