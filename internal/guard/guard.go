// Package guard decides whether a navigation target may be shown for the
// stored session. It is a convenience for routing only; the API enforces
// authorization on every request.
package guard

import (
	"context"

	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/rpggio/taskdesk/internal/session"
)

// Route is a navigation target.
type Route string

const (
	RouteLogin Route = "/"
	RouteAdmin Route = "/admin-dashboard"
	RouteUser  Route = "/user-dashboard"
)

// RequiredRole returns the role a route needs. An empty role means any
// session is enough; ok is false for routes that need no session at all.
func (r Route) RequiredRole() (role user.Role, ok bool) {
	switch r {
	case RouteAdmin:
		return user.RoleAdmin, true
	case RouteUser:
		return user.RoleUser, true
	default:
		return "", false
	}
}

// HomeFor returns the dashboard a role lands on after login.
func HomeFor(role user.Role) Route {
	if role == user.RoleAdmin {
		return RouteAdmin
	}
	return RouteUser
}

// Guard evaluates access against a session reader. Nothing is cached.
type Guard struct {
	sessions session.Reader
}

// New creates a Guard.
func New(sessions session.Reader) *Guard {
	return &Guard{sessions: sessions}
}

// CanAccess admits when a session exists and, if required is set, the
// session role equals it.
func (g *Guard) CanAccess(ctx context.Context, required user.Role) bool {
	sess, err := g.sessions.Current(ctx)
	if err != nil {
		return false
	}
	return required == "" || sess.Role == required
}

// Resolve returns the route that should actually be shown for target:
// target itself when admitted, otherwise the login entry point.
func (g *Guard) Resolve(ctx context.Context, target Route) Route {
	required, protected := target.RequiredRole()
	if !protected {
		return target
	}
	if g.CanAccess(ctx, required) {
		return target
	}
	return RouteLogin
}
