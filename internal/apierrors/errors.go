// Package apierrors provides shared error types for the mail.tm client.
package apierrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = errors.New("client has been closed")

	// ErrUnauthorized is returned when credentials or the bearer token are rejected.
	ErrUnauthorized = errors.New("invalid credentials or expired token")

	// ErrNotAuthenticated is returned when an operation needs a token and none is set.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound is returned for any 404 response.
	ErrNotFound = errors.New("resource not found")

	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMessageNotFound is returned when a message is not found.
	ErrMessageNotFound = errors.New("message not found")

	// ErrDomainNotFound is returned when a domain is not found.
	ErrDomainNotFound = errors.New("domain not found")

	// ErrAccountExists is returned when the requested address is already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidRequest is returned when the service rejects a payload (422).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidArgument is returned when a required argument is empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoDomains is returned when the service lists no domains.
	ErrNoDomains = errors.New("no domains available")

	// ErrInvalidImportData is returned when imported account data is invalid.
	ErrInvalidImportData = errors.New("invalid import data")

	// ErrDecryptionFailed is returned when a sealed account cannot be opened.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// ResourceType indicates which type of resource an error relates to.
type ResourceType string

const (
	// ResourceUnknown indicates the resource type is not specified.
	ResourceUnknown ResourceType = ""
	// ResourceAccount indicates the error relates to an account.
	ResourceAccount ResourceType = "account"
	// ResourceMessage indicates the error relates to a message or its source.
	ResourceMessage ResourceType = "message"
	// ResourceDomain indicates the error relates to a domain.
	ResourceDomain ResourceType = "domain"
)

// Violation is a single field-level validation failure reported by the service.
type Violation struct {
	PropertyPath string `json:"propertyPath"`
	Message      string `json:"message"`
}

// APIError represents an HTTP error from the mail.tm API.
type APIError struct {
	StatusCode   int
	Message      string
	Violations   []Violation
	ResourceType ResourceType
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 401:
		return target == ErrUnauthorized
	case 404:
		if target == ErrNotFound {
			return true
		}
		switch e.ResourceType {
		case ResourceAccount:
			return target == ErrAccountNotFound
		case ResourceMessage:
			return target == ErrMessageNotFound
		case ResourceDomain:
			return target == ErrDomainNotFound
		default:
			return target == ErrAccountNotFound || target == ErrMessageNotFound || target == ErrDomainNotFound
		}
	case 422:
		if target == ErrInvalidRequest {
			return true
		}
		return target == ErrAccountExists && e.ResourceType == ResourceAccount && e.alreadyUsed()
	case 429:
		return target == ErrRateLimited
	}
	return false
}

func (e *APIError) alreadyUsed() bool {
	for _, v := range e.Violations {
		if strings.Contains(strings.ToLower(v.Message), "already used") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(e.Message), "already used")
}

// WithResourceType returns a copy of the error with the resource type set.
// If the error is not an *APIError, it is returned unchanged.
func WithResourceType(err error, rt ResourceType) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode:   apiErr.StatusCode,
			Message:      apiErr.Message,
			Violations:   apiErr.Violations,
			ResourceType: rt,
		}
	}
	return err
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
