package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/controller"
)

// ErrForbidden indicates a tool whose dashboard the current session
// cannot reach.
var ErrForbidden = errors.New("dashboard not available for this session")

// ToolError represents an MCP error response.
type ToolError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps client errors to MCP error codes. It returns nil for errors
// it does not recognize.
func MapError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var (
		verr     *controller.ValidationError
		mismatch *controller.RoleMismatchError
		apiErr   *api.APIError
	)
	switch {
	case errors.As(err, &mismatch):
		return &ToolError{Code: "ROLE_MISMATCH", Message: mismatch.Error(), RecoveryHint: fmt.Sprintf("Log in with role %q", mismatch.Actual)}
	case errors.As(err, &verr):
		return &ToolError{Code: "VALIDATION_ERROR", Message: verr.Error(), Details: map[string]string{"field": verr.Field}}
	case api.IsAuthError(err), api.IsUnauthorized(err):
		return &ToolError{Code: "AUTH_REQUIRED", Message: err.Error(), RecoveryHint: "Call login"}
	case errors.Is(err, ErrForbidden):
		return &ToolError{Code: "FORBIDDEN", Message: err.Error(), RecoveryHint: "Call status to see the current role"}
	case errors.Is(err, controller.ErrNotMounted):
		return &ToolError{Code: "FORBIDDEN", Message: "dashboard was closed", RecoveryHint: "Call status and retry"}
	case api.IsNetworkError(err):
		return &ToolError{Code: "NETWORK_ERROR", Message: err.Error(), RecoveryHint: "Check connectivity and retry"}
	case errors.As(err, &apiErr):
		return &ToolError{Code: "API_ERROR", Message: apiErr.Message, Details: map[string]int{"status": apiErr.Status}}
	default:
		return nil
	}
}

func mapError(err error) error {
	if toolErr := MapError(err); toolErr != nil {
		return toolErr
	}
	return err
}
