package googlebooks

import (
	"errors"
	"fmt"
)

// Common errors returned by the Google Books client.
var (
	// ErrNotFound indicates the volume does not exist.
	ErrNotFound = errors.New("volume not found in Google Books")

	// ErrAuthError indicates a rejected or missing API key.
	ErrAuthError = errors.New("Google Books authentication error")

	// ErrRateLimited indicates the quota or rate limit has been exceeded.
	ErrRateLimited = errors.New("Google Books rate limit exceeded")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Google Books")
)

// APIError represents an error status from the Google Books API.
type APIError struct {
	StatusCode int
	Message    string
	VolumeID   string // For context in volume lookups
}

func (e *APIError) Error() string {
	if e.VolumeID != "" {
		return fmt.Sprintf("Google Books API error (status %d): %s (volume: %s)", e.StatusCode, e.Message, e.VolumeID)
	}
	return fmt.Sprintf("Google Books API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a volume was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
