package apierrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "status code only",
			err:      &APIError{StatusCode: 500},
			expected: "API error 500",
		},
		{
			name:     "with message",
			err:      &APIError{StatusCode: 401, Message: "Invalid credentials."},
			expected: "API error 401: Invalid credentials.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	alreadyUsed := []Violation{{PropertyPath: "address", Message: "This value is already used."}}

	tests := []struct {
		name     string
		err      *APIError
		target   error
		expected bool
	}{
		{"401 matches ErrUnauthorized", &APIError{StatusCode: 401}, ErrUnauthorized, true},
		{"401 does not match ErrNotFound", &APIError{StatusCode: 401}, ErrNotFound, false},
		{"404 always matches ErrNotFound", &APIError{StatusCode: 404, ResourceType: ResourceMessage}, ErrNotFound, true},
		{"404 message matches ErrMessageNotFound", &APIError{StatusCode: 404, ResourceType: ResourceMessage}, ErrMessageNotFound, true},
		{"404 message does not match ErrAccountNotFound", &APIError{StatusCode: 404, ResourceType: ResourceMessage}, ErrAccountNotFound, false},
		{"404 account matches ErrAccountNotFound", &APIError{StatusCode: 404, ResourceType: ResourceAccount}, ErrAccountNotFound, true},
		{"404 domain matches ErrDomainNotFound", &APIError{StatusCode: 404, ResourceType: ResourceDomain}, ErrDomainNotFound, true},
		{"404 unknown matches ErrMessageNotFound", &APIError{StatusCode: 404}, ErrMessageNotFound, true},
		{"404 unknown matches ErrAccountNotFound", &APIError{StatusCode: 404}, ErrAccountNotFound, true},
		{"422 matches ErrInvalidRequest", &APIError{StatusCode: 422}, ErrInvalidRequest, true},
		{"422 account already used matches ErrAccountExists", &APIError{StatusCode: 422, ResourceType: ResourceAccount, Violations: alreadyUsed}, ErrAccountExists, true},
		{"422 account other violation", &APIError{StatusCode: 422, ResourceType: ResourceAccount, Violations: []Violation{{Message: "too short"}}}, ErrAccountExists, false},
		{"422 already used in message", &APIError{StatusCode: 422, ResourceType: ResourceAccount, Message: "address: This value is already used."}, ErrAccountExists, true},
		{"422 message resource never ErrAccountExists", &APIError{StatusCode: 422, ResourceType: ResourceMessage, Violations: alreadyUsed}, ErrAccountExists, false},
		{"429 matches ErrRateLimited", &APIError{StatusCode: 429}, ErrRateLimited, true},
		{"500 does not match any sentinel", &APIError{StatusCode: 500}, ErrUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.expected {
				t.Errorf("errors.Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAPIError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("get message: %w", &APIError{StatusCode: 404, ResourceType: ResourceMessage})
	if !errors.Is(err, ErrMessageNotFound) {
		t.Error("wrapped 404 should match ErrMessageNotFound")
	}
}

func TestWithResourceType(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if WithResourceType(nil, ResourceAccount) != nil {
			t.Error("WithResourceType(nil) should return nil")
		}
	})

	t.Run("non API error unchanged", func(t *testing.T) {
		orig := errors.New("boom")
		if got := WithResourceType(orig, ResourceAccount); got != orig {
			t.Errorf("got %v, want original error", got)
		}
	})

	t.Run("copies fields", func(t *testing.T) {
		orig := &APIError{StatusCode: 422, Message: "bad", Violations: []Violation{{PropertyPath: "address"}}}
		got := WithResourceType(orig, ResourceAccount)

		var apiErr *APIError
		if !errors.As(got, &apiErr) {
			t.Fatalf("expected *APIError, got %T", got)
		}
		if apiErr == orig {
			t.Error("expected a copy, got the original pointer")
		}
		if apiErr.ResourceType != ResourceAccount {
			t.Errorf("ResourceType = %q, want account", apiErr.ResourceType)
		}
		if apiErr.StatusCode != 422 || apiErr.Message != "bad" || len(apiErr.Violations) != 1 {
			t.Errorf("fields not copied: %+v", apiErr)
		}
		if orig.ResourceType != ResourceUnknown {
			t.Error("original error was mutated")
		}
	})
}

func TestNetworkError(t *testing.T) {
	err := &NetworkError{Err: context.DeadlineExceeded, Method: "GET", URL: "https://api.mail.tm/me"}

	if err.Error() != "network error: context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("NetworkError should unwrap to the cause")
	}
}
