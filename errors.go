package oauth

import "fmt"

// Flow error codes as constants
const (
	ErrorCodeMissingRedirectParams = "missing_redirect_params"
	ErrorCodeStateMismatch         = "state_mismatch"
	ErrorCodeFetchFailure          = "fetch_failure"
	ErrorCodeInvalidConfig         = "invalid_config"
)

// FlowError represents an error in the implicit-grant flow
type FlowError struct {
	Code        string // Flow error code (e.g., "state_mismatch")
	Description string // Human-readable error description
}

// Error implements the error interface
func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewFlowError creates a new flow error
func NewFlowError(code, description string) *FlowError {
	return &FlowError{
		Code:        code,
		Description: description,
	}
}

// Common flow errors as reusable instances
var (
	// ErrMissingRedirectParams indicates the redirect fragment lacked one
	// or more of the five required parameters. The redirect is ignored;
	// the session stays where it was.
	ErrMissingRedirectParams = NewFlowError(ErrorCodeMissingRedirectParams,
		"redirect fragment is missing required parameters")

	// ErrStateMismatch indicates a structurally complete callback whose
	// state did not match the stored nonce: a forged or replayed callback,
	// or a stale nonce from a superseded attempt. The token is not
	// committed; retry requires a fresh login.
	ErrStateMismatch = NewFlowError(ErrorCodeStateMismatch,
		"redirect state does not match the login attempt")
)
