package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource (document, chunk object, session).
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBadFormat signals unreadable or malformed document content.
	ErrBadFormat = errors.New("malformed document")
	// ErrRateLimited signals a retryable rate-limit response from a provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals a non-retryable embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a text generation failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrDatabaseUnavailable signals that the vector store cannot be reached.
	ErrDatabaseUnavailable = errors.New("database unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch on insert.
	// It is a special case of invalid input, so transports map it to 400.
	ErrVectorDimMismatch = fmt.Errorf("vector dimension mismatch: %w", ErrInvalidInput)
)
