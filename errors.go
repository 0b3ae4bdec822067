package makerworks

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors - Configuration
var (
	ErrMissingBaseURL   = errors.New("makerworks: BaseURL is required")
	ErrMissingStateDir  = errors.New("makerworks: state directory is required")
	ErrNoIdentityClient = errors.New("makerworks: no identity client bound")
)

// Sentinel errors - API
var (
	ErrConnection   = errors.New("makerworks: failed to reach the MakerWorks API")
	ErrValidation   = errors.New("makerworks: request rejected")
	ErrUnauthorized = errors.New("makerworks: not authenticated")
	ErrForbidden    = errors.New("makerworks: permission denied")
	ErrNotFound     = errors.New("makerworks: not found")
	ErrServer       = errors.New("makerworks: server error")
)

// Sentinel errors - Stores
var (
	ErrKeyNotFound    = errors.New("makerworks: storage key not found")
	ErrStorePersist   = errors.New("makerworks: failed to persist state")
	ErrStoreCorrupted = errors.New("makerworks: persisted state corrupted")
	ErrEmptyCart      = errors.New("makerworks: cart is empty")
)

// APIError represents a MakerWorks API error response.
type APIError struct {
	StatusCode int
	Detail     string
	Fields     []FieldError
	RequestID  string
}

// FieldError is a single validation failure attached to a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
		}
		return fmt.Sprintf("MakerWorks API error (HTTP %d): %s", e.StatusCode, strings.Join(parts, "; "))
	}
	if e.Detail == "" {
		return fmt.Sprintf("MakerWorks API error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("MakerWorks API error (HTTP %d): %s", e.StatusCode, e.Detail)
}

// Is implements the errors.Is interface for HTTP status code mapping.
// This allows checking APIError against sentinel errors based on status codes.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return errors.Is(target, ErrUnauthorized)
	case e.StatusCode == http.StatusForbidden:
		return errors.Is(target, ErrForbidden)
	case e.StatusCode == http.StatusNotFound:
		return errors.Is(target, ErrNotFound)
	case e.StatusCode >= 500:
		return errors.Is(target, ErrServer)
	case e.StatusCode >= 400:
		return errors.Is(target, ErrValidation)
	default:
		return false
	}
}

// NewAPIError creates a new APIError with the given parameters.
func NewAPIError(statusCode int, detail string, requestID string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Detail:     detail,
		RequestID:  requestID,
	}
}

// OpError wraps an error with API operation context.
type OpError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *OpError) Unwrap() error {
	return e.Err
}

// wrapOpError wraps an error with operation context.
// Returns nil if the provided error is nil.
func wrapOpError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
