package core

import "errors"

var (
	// ErrBackendUnavailable is returned when an inference sub-model is absent
	ErrBackendUnavailable = errors.New("inference backend unavailable")
	// ErrGenerationDegenerate is returned when generated text is too short to use
	ErrGenerationDegenerate = errors.New("generated text too short")
	// ErrGenerationFailure wraps any fault raised while generating
	ErrGenerationFailure = errors.New("text generation failed")
	// ErrEmptyText is returned by adapters for empty or whitespace-only input
	ErrEmptyText = errors.New("email text is empty")
)
