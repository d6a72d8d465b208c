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

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// SessionKey is a unique identifier for local upload sessions.
// It is generated using content-based hashing of the model coordinates.
type SessionKey uint64

// SessionKeyFor generates a deterministic session key from a model's
// name and version using BLAKE2b hashing. Publishing the same
// name/version pair always resolves to the same local session.
func SessionKeyFor(name string, version int) SessionKey {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	fmt.Fprintf(h, "%s@%d", name, version)
	sum := h.Sum(nil)
	return SessionKey(binary.LittleEndian.Uint64(sum))
}

// ModelID is the registry-assigned identifier for a registered model.
// It is opaque to this library; all chunk uploads and status queries
// are correlated through it.
type ModelID string

// DigestSize is the length in bytes of an artifact digest (SHA-256).
const DigestSize = 32

// Digest is the content hash of a packaged artifact. The registry
// stores it at registration time and recomputes it over the received
// chunks at finalization; the two must match for an upload to complete.
type Digest [DigestSize]byte

// String returns the lowercase hex encoding used on the wire.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a hex-encoded digest as produced by Digest.String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDigest, DigestSize, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// ModelFormat identifies the serialization format of the model binary.
type ModelFormat string

const (
	// FormatTorchScript is a serialized TorchScript computation graph.
	FormatTorchScript ModelFormat = "TORCH_SCRIPT"
	// FormatONNX is an ONNX computation graph.
	FormatONNX ModelFormat = "ONNX"
)

// TaskType identifies the inference task a model serves.
type TaskType string

const (
	// TaskTextEmbedding produces dense sentence embeddings.
	TaskTextEmbedding TaskType = "TEXT_EMBEDDING"
	// TaskTextSimilarity scores sentence pairs.
	TaskTextSimilarity TaskType = "TEXT_SIMILARITY"
)

// ModelConfig carries the framework-specific configuration blob sent
// alongside the registration request.
type ModelConfig struct {
	ModelType          string // architecture family, e.g. "bert"
	EmbeddingDimension int    // output vector dimensionality
	FrameworkType      string // e.g. "sentence_transformers"
	AllConfig          string // opaque full configuration document
}

// ModelMetadata describes a model being registered with the registry.
type ModelMetadata struct {
	Name     string
	Version  int
	Format   ModelFormat
	TaskType TaskType
	Config   ModelConfig
}

// Coordinates returns the "name@version" pair used in log output and
// session keys.
func (m *ModelMetadata) Coordinates() string {
	return fmt.Sprintf("%s@%d", m.Name, m.Version)
}

// Chunk is one bounded-size slice of the packaged artifact's byte
// stream. Indices are zero-based and contiguous; concatenating payloads
// in index order reconstructs the artifact exactly.
type Chunk struct {
	Index      int
	TotalCount int
	Payload    []byte
}

// ModelState is the lifecycle state of a registration record.
type ModelState string

const (
	// StateCreated means registration was accepted and an ID issued,
	// but no chunk has been acknowledged yet.
	StateCreated ModelState = "CREATED"
	// StateUploading means at least one chunk has been acknowledged.
	StateUploading ModelState = "UPLOADING"
	// StateUploaded means every chunk was acknowledged and the
	// registry-side digest matched. Terminal.
	StateUploaded ModelState = "UPLOADED"
	// StateFailed means the upload was rejected, typically on digest
	// mismatch at finalization. Terminal.
	StateFailed ModelState = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s ModelState) Terminal() bool {
	return s == StateUploaded || s == StateFailed
}

// UploadSession is the local resume record for one upload. It tracks
// which chunk indices the registry has acknowledged so an interrupted
// session can continue against the same model ID.
type UploadSession struct {
	Key        SessionKey
	ModelID    ModelID
	Name       string
	Version    int
	Digest     Digest
	ChunkSize  int
	ChunkCount int
	Acked      []bool // per-index acknowledgment, len == ChunkCount
	State      ModelState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AckedCount returns the number of acknowledged chunk indices.
func (s *UploadSession) AckedCount() int {
	n := 0
	for _, a := range s.Acked {
		if a {
			n++
		}
	}
	return n
}

// Complete reports whether every chunk index has been acknowledged.
func (s *UploadSession) Complete() bool {
	return s.ChunkCount > 0 && s.AckedCount() == s.ChunkCount
}
