package mailtm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailtm/client-go/internal/apierrors"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = apierrors.ErrClientClosed

	// ErrUnauthorized is returned when credentials are wrong or the token was rejected.
	ErrUnauthorized = apierrors.ErrUnauthorized

	// ErrNotAuthenticated is returned when an operation needs a token and none is set.
	ErrNotAuthenticated = apierrors.ErrNotAuthenticated

	// ErrNotFound matches every 404 response.
	ErrNotFound = apierrors.ErrNotFound

	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = apierrors.ErrAccountNotFound

	// ErrMessageNotFound is returned when a message or its source is not found.
	ErrMessageNotFound = apierrors.ErrMessageNotFound

	// ErrDomainNotFound is returned when a domain is not found.
	ErrDomainNotFound = apierrors.ErrDomainNotFound

	// ErrAccountExists is returned when registering an address that is already used.
	ErrAccountExists = apierrors.ErrAccountExists

	// ErrInvalidRequest is returned when the service rejects a payload.
	ErrInvalidRequest = apierrors.ErrInvalidRequest

	// ErrInvalidArgument is returned when a required argument is empty or out of range.
	ErrInvalidArgument = apierrors.ErrInvalidArgument

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = apierrors.ErrRateLimited

	// ErrNoDomains is returned when the service lists no domains.
	ErrNoDomains = apierrors.ErrNoDomains

	// ErrInvalidImportData is returned when imported account data is invalid.
	ErrInvalidImportData = apierrors.ErrInvalidImportData

	// ErrDecryptionFailed is returned when a sealed account cannot be opened.
	ErrDecryptionFailed = apierrors.ErrDecryptionFailed
)

// MailTMError is implemented by all SDK errors.
type MailTMError interface {
	error
	MailTMError() // marker method
}

// Violation is a single field-level validation failure reported by the service.
type Violation = apierrors.Violation

// APIError represents an HTTP error from the mail.tm API.
type APIError struct {
	StatusCode int
	Message    string
	Violations []Violation

	resourceType apierrors.ResourceType
}

func (e *APIError) Error() string {
	return e.internal().Error()
}

// MailTMError implements the MailTMError interface.
func (e *APIError) MailTMError() {}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	return e.internal().Is(target)
}

func (e *APIError) internal() *apierrors.APIError {
	return &apierrors.APIError{
		StatusCode:   e.StatusCode,
		Message:      e.Message,
		Violations:   e.Violations,
		ResourceType: e.resourceType,
	}
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err    error
	Method string
	URL    string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MailTMError implements the MailTMError interface.
func (e *NetworkError) MailTMError() {}

// TimeoutError represents a wait that exceeded its deadline. It matches
// context.DeadlineExceeded.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Timeout)
}

// Unwrap returns context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// MailTMError implements the MailTMError interface.
func (e *TimeoutError) MailTMError() {}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Errors)
}

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidImportData
}

// MailTMError implements the MailTMError interface.
func (e *ValidationError) MailTMError() {}

// ArgumentError reports an argument rejected before any request is made.
// It matches ErrInvalidArgument.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s %s", e.Name, e.Reason)
}

// Is implements errors.Is for sentinel error matching.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// MailTMError implements the MailTMError interface.
func (e *ArgumentError) MailTMError() {}

// ResponseError reports a successful response that lacks data the operation
// needs.
type ResponseError struct {
	Operation string
	Reason    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// MailTMError implements the MailTMError interface.
func (e *ResponseError) MailTMError() {}

func invalidArgument(name string) error {
	return &ArgumentError{Name: name, Reason: "is required"}
}

// wrapError converts internal API errors to public errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode:   apiErr.StatusCode,
			Message:      apiErr.Message,
			Violations:   apiErr.Violations,
			resourceType: apiErr.ResourceType,
		}
	}

	var netErr *apierrors.NetworkError
	if errors.As(err, &netErr) {
		return &NetworkError{
			Err:    netErr.Err,
			Method: netErr.Method,
			URL:    netErr.URL,
		}
	}

	return err
}
