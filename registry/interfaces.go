package registry

import (
	"context"

	"github.com/poiesic/modelship/core"
)

// Ack is the registry's acknowledgment of one chunk upload.
type Ack struct {
	// Index is the acknowledged chunk index.
	Index int

	// Duplicate is true when the chunk had already been acknowledged
	// and the registry returned the prior acknowledgment.
	Duplicate bool
}

// ModelStatus is the registry-side view of a registration record.
type ModelStatus struct {
	ModelID     core.ModelID
	State       core.ModelState
	ChunksAcked int
	ChunkCount  int

	// Error carries the registry's failure reason when State is FAILED.
	Error string
}

// Client is the model registry client consumed by the upload
// orchestrator. Implementations must be safe for concurrent use:
// chunk uploads may be issued in parallel.
type Client interface {
	// Register creates a registration record for a model about to be
	// uploaded and returns its registry-assigned identifier. The digest
	// and chunk count are fixed at registration and verified at
	// finalization. Registration never partially succeeds; failures
	// wrap core.ErrRegistration.
	Register(ctx context.Context, meta *core.ModelMetadata, digest core.Digest, chunkCount int) (core.ModelID, error)

	// UploadChunk submits one chunk payload under the model identifier.
	// The record must be in CREATED or UPLOADING state and index must
	// be within [0, chunk count). Re-sending an acknowledged chunk is
	// idempotent. Failures wrap core.ErrChunkUpload.
	UploadChunk(ctx context.Context, id core.ModelID, index int, payload []byte) (Ack, error)

	// Finalize completes the upload once every chunk index is
	// acknowledged. The registry recomputes the digest over received
	// chunks; on mismatch the record transitions to FAILED and the
	// error wraps core.ErrDigestMismatch.
	Finalize(ctx context.Context, id core.ModelID) (ModelStatus, error)

	// Status returns the current registration record state. Used for
	// resume and for polling after finalization.
	Status(ctx context.Context, id core.ModelID) (ModelStatus, error)
}
