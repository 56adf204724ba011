package model

import "errors"

// Structural errors propagate to the caller and abort the run. Backend
// degradation never does; it is absorbed by the fallback policies.
var (
	// ErrNotFound indicates a referenced requirement or analysis does not exist
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates an owner scope mismatch
	ErrAccessDenied = errors.New("access denied")

	// ErrBackendUnavailable indicates the reasoning/generation/embedding
	// backend could not be initialized or is not configured
	ErrBackendUnavailable = errors.New("backend not available")

	// ErrRateLimited indicates the owner exceeded the configured request budget
	ErrRateLimited = errors.New("rate limit exceeded")
)
