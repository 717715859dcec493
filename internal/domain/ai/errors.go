package ai

import "errors"

// Failure modes surfaced to callers. Storage-read failures are deliberately
// absent: the loader degrades to the environment fallback instead of erroring.
var (
	// ErrNoProviderConfigured means zero usable configs exist anywhere,
	// storage and environment included.
	ErrNoProviderConfigured = errors.New("ai: no provider configured")

	// ErrAllProvidersFailed means every concurrent provider call failed.
	ErrAllProvidersFailed = errors.New("ai: all providers failed")

	// ErrNoEmbeddingProvider means no active config declares embedding support.
	ErrNoEmbeddingProvider = errors.New("ai: no embedding provider available")

	// ErrDimensionMismatch means cosine similarity was called on vectors of
	// unequal length.
	ErrDimensionMismatch = errors.New("ai: embedding dimension mismatch")
)
