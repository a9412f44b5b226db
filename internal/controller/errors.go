package controller

import (
	"errors"
	"fmt"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

var (
	// ErrNotMounted indicates an action on a controller that is not mounted
	// or was torn down while the action was in flight.
	ErrNotMounted = errors.New("controller is not mounted")
	// ErrBusy indicates a login submission while another is pending.
	ErrBusy = errors.New("a submission is already in progress")
	// ErrRoleMismatch indicates the server reported a different role than the
	// one selected on the login form.
	ErrRoleMismatch = errors.New("role mismatch")
)

// ValidationError reports a field check that failed before any request
// was sent.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RoleMismatchError carries both roles of a rejected login.
type RoleMismatchError struct {
	Selected user.Role
	Actual   user.Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("Invalid role. Please login as %s", e.Actual)
}

func (e *RoleMismatchError) Unwrap() error {
	return ErrRoleMismatch
}

// sessionLost reports whether err means the stored token can no longer be used.
func sessionLost(err error) bool {
	return api.IsAuthError(err) || api.IsUnauthorized(err)
}

// describe turns err into a banner message.
func describe(err error, fallback string) string {
	var (
		verr     *ValidationError
		mismatch *RoleMismatchError
		apiErr   *api.APIError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &mismatch):
		return mismatch.Error()
	case api.IsAuthError(err):
		return "Your session has ended. Please log in again."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case api.IsNetworkError(err):
		return "Unable to reach the server. Check your connection and try again."
	}
	return fallback
}
