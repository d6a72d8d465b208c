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


package verify

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/poiesic/modelship/ai"
	"github.com/poiesic/modelship/core"
)

// DefaultProbes are the texts embedded when no custom probes are set.
// They are intentionally varied in length and content so a model that
// truncates, pads, or collapses inputs is likely to show it.
var DefaultProbes = []string{
	"The quick brown fox jumps over the lazy dog.",
	"model registry upload verification probe",
	"short",
	"A longer probe sentence that exercises the tokenizer with punctuation, numbers like 42, and a trailing clause.",
}

// Report summarizes a completed verification run.
type Report struct {
	// Probes is the number of probe texts embedded.
	Probes int

	// Dimension is the embedding dimension observed on every probe.
	Dimension int
}

// Verifier embeds probe texts through a serving endpoint and checks
// the results against the registered model configuration.
type Verifier struct {
	embedder ai.Embedder
	expected int
	probes   []string
	logger   *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithProbes replaces the default probe texts.
func WithProbes(probes []string) Option {
	return func(v *Verifier) {
		if len(probes) > 0 {
			v.probes = probes
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVerifier creates a verifier for a model registered with the given
// embedding dimension.
func NewVerifier(embedder ai.Embedder, expectedDimension int, opts ...Option) (*Verifier, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if expectedDimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive, got %d",
			core.ErrConfiguration, expectedDimension)
	}

	v := &Verifier{
		embedder: embedder,
		expected: expectedDimension,
		probes:   DefaultProbes,
		logger:   slog.Default().With("component", "verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify embeds every probe text in one batch and checks each returned
// vector. It fails on the first probe whose embedding has the wrong
// dimension or contains non-finite values.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	v.logger.Info("verifying served model", "probes", len(v.probes), "expectedDimension", v.expected)

	vectors, err := v.embedder.EmbedTexts(ctx, v.probes)
	if err != nil {
		return nil, fmt.Errorf("embedding %d probe texts: %w", len(v.probes), err)
	}
	if len(vectors) != len(v.probes) {
		return nil, fmt.Errorf("%w: sent %d probes, got %d embeddings",
			ErrDimensionMismatch, len(v.probes), len(vectors))
	}

	for i, vector := range vectors {
		if len(vector) != v.expected {
			return nil, fmt.Errorf("%w: probe %d returned dimension %d, registered %d",
				ErrDimensionMismatch, i, len(vector), v.expected)
		}
		for _, value := range vector {
			f := float64(value)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: probe %d", ErrInvalidEmbedding, i)
			}
		}
	}

	v.logger.Info("model verified", "probes", len(v.probes), "dimension", v.expected)
	return &Report{Probes: len(v.probes), Dimension: v.expected}, nil
}
