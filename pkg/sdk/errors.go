package pharmaninja

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes.
// Use errors.Is() to check.
var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrInvalidFilter   = errors.New("invalid filter attribute")
	ErrNotConfigured   = errors.New("service not configured")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstream        = errors.New("upstream provider error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrServiceDegraded = errors.New("service degraded")
)

// APIError carries the raw error response alongside the mapped sentinel.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pharmaninja: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap maps the API error code onto a sentinel for errors.Is checks.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "validation_failed":
		return ErrEmptyQuestion
	case "invalid_filter":
		return ErrInvalidFilter
	case "service_not_configured":
		return ErrNotConfigured
	case "rate_limited":
		return ErrRateLimited
	case "embedding_provider_error", "index_unavailable":
		return ErrUpstream
	default:
		if e.StatusCode == 401 {
			return ErrUnauthorized
		}
		return nil
	}
}
