package domain

import "errors"

var (
	// ErrValidation signals a bad query (empty, too long). User-correctable.
	ErrValidation = errors.New("invalid query")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrPhrasingProvider signals a chat completion provider failure.
	ErrPhrasingProvider = errors.New("phrasing provider error")
	// ErrServiceUnavailable signals an upstream timeout. Retryable by the caller.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDataInvalid signals a corrupt or empty dataset. Fatal at startup.
	ErrDataInvalid = errors.New("invalid dataset")
	// ErrConfig signals an embedding-space or configuration mismatch. Fatal at startup.
	ErrConfig = errors.New("invalid configuration")
)
