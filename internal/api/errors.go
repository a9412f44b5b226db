package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoToken indicates a token-requiring call was made without a session.
	ErrNoToken = errors.New("no token")
	// ErrTokenExpired indicates the stored bearer token is a JWT past its exp.
	ErrTokenExpired = errors.New("token expired")
)

// AuthError reports a missing or unusable local session. It is raised
// before any request is sent.
type AuthError struct {
	Reason error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication required: %v", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Reason
}

// APIError reports a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError reports that the server could not be reached at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsUnauthorized reports whether the server rejected the bearer token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNetworkError reports whether err is a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func statusMessage(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}
