package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrRebuildInProgress indicates an index rebuild is already running.
	// A concurrent rebuild request is rejected, never queued.
	ErrRebuildInProgress = errors.New("rebuild already in progress")

	// ErrNoGeneration indicates no index generation has been built yet
	ErrNoGeneration = errors.New("no index generation exists")

	// ErrEmbeddingUnavailable indicates the embedding service could not be
	// reached after exhausted retries
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service could not be
	// reached after exhausted retries
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationRateLimited indicates the generation service rejected the
	// call due to rate limiting
	ErrGenerationRateLimited = errors.New("generation service rate limited")

	// ErrEmptyCompletion indicates the generation service returned an empty
	// or degenerate completion
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates a wrong admin password
	ErrInvalidCredentials = errors.New("invalid credentials")
)
