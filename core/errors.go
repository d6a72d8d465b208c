// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Upload protocol errors
var (
	// ErrArtifactRead indicates a local I/O failure reading the
	// packaged artifact. Fatal for the session.
	ErrArtifactRead = errors.New("artifact read failed")

	// ErrConfiguration indicates invalid session parameters, such as a
	// non-positive chunk size or a chunk size changed mid-session. Fatal.
	ErrConfiguration = errors.New("invalid session configuration")

	// ErrRegistration indicates the registry rejected or failed the
	// registration request. Fatal unless the cause was transient transport.
	ErrRegistration = errors.New("model registration failed")

	// ErrChunkUpload indicates a chunk upload failed. Retryable per
	// index up to a bounded attempt count, then fatal for the session.
	ErrChunkUpload = errors.New("chunk upload failed")

	// ErrDigestMismatch indicates the registry-side digest recomputed
	// over received chunks differs from the registered digest. Fatal.
	ErrDigestMismatch = errors.New("digest mismatch")

	// ErrInvalidDigest indicates a digest string could not be decoded.
	ErrInvalidDigest = errors.New("invalid digest encoding")
)

// Metadata validation errors
var (
	// ErrInvalidMetadata indicates a ModelMetadata failed validation.
	ErrInvalidMetadata = errors.New("invalid model metadata")

	// ErrEmptyModelName indicates the Name field is empty.
	ErrEmptyModelName = errors.New("model name cannot be empty")

	// ErrInvalidVersion indicates the Version field is not positive.
	ErrInvalidVersion = errors.New("model version must be positive")

	// ErrInvalidFormat indicates an unknown ModelFormat value.
	ErrInvalidFormat = errors.New("invalid model format")

	// ErrInvalidTaskType indicates an unknown TaskType value.
	ErrInvalidTaskType = errors.New("invalid task type")

	// ErrInvalidDimension indicates a non-positive embedding dimension.
	ErrInvalidDimension = errors.New("embedding dimension must be positive")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")
)
