package upload

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRegistryRequired is returned when no registry client is provided.
	ErrRegistryRequired = errors.New("registry client is required")

	// ErrEmptyArtifact is returned when the artifact has no bytes to upload.
	ErrEmptyArtifact = errors.New("artifact is empty")
)
