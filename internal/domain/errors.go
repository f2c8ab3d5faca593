package domain

import "errors"

var (
	// ErrEmptyQuestion signals a missing or whitespace-only question.
	ErrEmptyQuestion = errors.New("question is required")
	// ErrInvalidFilter signals an unknown or malformed filter attribute.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrNotConfigured signals missing upstream credentials or index identifiers.
	ErrNotConfigured = errors.New("service not configured")
	// ErrRateLimited signals an exhausted rate-limit retry budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexUnavailable signals that the vector index cannot be reached.
	// Callers must not treat this as "no matches".
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
