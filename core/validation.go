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

import "fmt"

// ValidateMetadata validates a ModelMetadata according to the
// registration contract.
//
// Validation rules:
//   - Name must not be empty
//   - Version must be positive
//   - Format must be a known ModelFormat
//   - TaskType must be a known TaskType
//   - Config must pass ValidateModelConfig
func ValidateMetadata(meta *ModelMetadata) error {
	if meta == nil {
		return fmt.Errorf("%w: metadata is nil", ErrInvalidMetadata)
	}

	if meta.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrEmptyModelName)
	}

	if meta.Version <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrInvalidVersion)
	}

	if err := ValidateFormat(meta.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	if err := ValidateTaskType(meta.TaskType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	if err := ValidateModelConfig(&meta.Config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	return nil
}

// ValidateModelConfig validates the framework-specific configuration.
//
// Validation rules:
//   - EmbeddingDimension must be positive
//
// NOT validated (opaque to the upload protocol):
//   - ModelType, FrameworkType, AllConfig (passed through to the registry)
func ValidateModelConfig(config *ModelConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidMetadata)
	}

	if config.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrInvalidDimension)
	}

	return nil
}

// ValidateFormat validates that a ModelFormat has a known value.
func ValidateFormat(format ModelFormat) error {
	if format != FormatTorchScript && format != FormatONNX {
		return fmt.Errorf("%w: value %q", ErrInvalidFormat, format)
	}
	return nil
}

// ValidateTaskType validates that a TaskType has a known value.
func ValidateTaskType(task TaskType) error {
	if task != TaskTextEmbedding && task != TaskTextSimilarity {
		return fmt.Errorf("%w: value %q", ErrInvalidTaskType, task)
	}
	return nil
}

// ValidateChunk validates a Chunk's index bounds and payload.
//
// Validation rules:
//   - Index must be within [0, TotalCount)
//   - Payload must not be empty
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Index < 0 || chunk.Index >= chunk.TotalCount {
		return fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidChunk, chunk.Index, chunk.TotalCount)
	}

	if len(chunk.Payload) == 0 {
		return fmt.Errorf("%w: empty payload at index %d", ErrInvalidChunk, chunk.Index)
	}

	return nil
}
