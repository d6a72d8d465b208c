package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/registry"
)

// ErrTransient is the injected transient failure returned before a
// chunk upload is allowed to succeed.
var ErrTransient = errors.New("injected transient failure")

// record is one in-memory registration record.
type record struct {
	meta       core.ModelMetadata
	digest     core.Digest
	chunkCount int
	chunks     [][]byte
	acked      []bool
	state      core.ModelState
	failReason string
}

// MockRegistry is a test double for registry.Client with real
// registration-record semantics.
type MockRegistry struct {
	mu      sync.Mutex
	records map[core.ModelID]*record
	nextID  int

	// RegisterFunc is called by Register if set, replacing the default
	// in-memory behavior.
	RegisterFunc func(ctx context.Context, meta *core.ModelMetadata, digest core.Digest, chunkCount int) (core.ModelID, error)

	chunkFailures map[int]int // index -> remaining injected failures
	uploadCalls   map[int]int // index -> total UploadChunk invocations
}

// NewMockRegistry creates an empty in-memory registry.
// Note: Returns concrete type to allow test assertions.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		records:       make(map[core.ModelID]*record),
		chunkFailures: make(map[int]int),
		uploadCalls:   make(map[int]int),
	}
}

// FailChunk makes the next n UploadChunk calls for the given index
// return ErrTransient (wrapped in core.ErrChunkUpload) before
// succeeding.
func (m *MockRegistry) FailChunk(index, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunkFailures[index] = n
}

// UploadCalls returns how many times UploadChunk was invoked for the
// given index, including failed attempts.
func (m *MockRegistry) UploadCalls(index int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadCalls[index]
}

// CorruptRegisteredDigest flips a bit of the stored digest so that
// finalization fails verification.
func (m *MockRegistry) CorruptRegisteredDigest(id core.ModelID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.digest[0] ^= 0xff
	}
}

// Register creates a registration record and issues a model ID.
func (m *MockRegistry) Register(ctx context.Context, meta *core.ModelMetadata, digest core.Digest, chunkCount int) (core.ModelID, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, meta, digest, chunkCount)
	}

	if err := core.ValidateMetadata(meta); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrRegistration, err)
	}
	if chunkCount <= 0 {
		return "", fmt.Errorf("%w: chunk count must be positive, got %d", core.ErrRegistration, chunkCount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.meta.Name == meta.Name && rec.meta.Version == meta.Version {
			return "", fmt.Errorf("%w: %s already registered", core.ErrRegistration, meta.Coordinates())
		}
	}

	m.nextID++
	id := core.ModelID(fmt.Sprintf("mock-model-%d", m.nextID))
	m.records[id] = &record{
		meta:       *meta,
		digest:     digest,
		chunkCount: chunkCount,
		chunks:     make([][]byte, chunkCount),
		acked:      make([]bool, chunkCount),
		state:      core.StateCreated,
	}
	return id, nil
}

// UploadChunk stores one chunk payload. Re-sending an acknowledged
// index returns the prior acknowledgment without changing state.
func (m *MockRegistry) UploadChunk(ctx context.Context, id core.ModelID, index int, payload []byte) (registry.Ack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uploadCalls[index]++

	if remaining := m.chunkFailures[index]; remaining > 0 {
		m.chunkFailures[index] = remaining - 1
		return registry.Ack{}, fmt.Errorf("%w: index %d: %w", core.ErrChunkUpload, index, ErrTransient)
	}

	rec, ok := m.records[id]
	if !ok {
		return registry.Ack{}, fmt.Errorf("%w: unknown model %s", core.ErrChunkUpload, id)
	}
	if rec.state != core.StateCreated && rec.state != core.StateUploading {
		return registry.Ack{}, fmt.Errorf("%w: model %s in state %s", core.ErrChunkUpload, id, rec.state)
	}
	if index < 0 || index >= rec.chunkCount {
		return registry.Ack{}, fmt.Errorf("%w: index %d out of range [0, %d)", core.ErrChunkUpload, index, rec.chunkCount)
	}

	if rec.acked[index] {
		return registry.Ack{Index: index, Duplicate: true}, nil
	}

	rec.chunks[index] = bytes.Clone(payload)
	rec.acked[index] = true
	rec.state = core.StateUploading
	return registry.Ack{Index: index}, nil
}

// Finalize verifies completeness and recomputes the digest over the
// received chunks.
func (m *MockRegistry) Finalize(ctx context.Context, id core.ModelID) (registry.ModelStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return registry.ModelStatus{}, fmt.Errorf("%w: unknown model %s", core.ErrChunkUpload, id)
	}

	if rec.state.Terminal() {
		return m.statusLocked(id, rec), m.terminalErrLocked(id, rec)
	}

	for i, acked := range rec.acked {
		if !acked {
			return m.statusLocked(id, rec), fmt.Errorf("%w: model %s missing chunk %d", core.ErrChunkUpload, id, i)
		}
	}

	h := sha256.New()
	for _, chunk := range rec.chunks {
		h.Write(chunk)
	}
	var recomputed core.Digest
	copy(recomputed[:], h.Sum(nil))

	if recomputed != rec.digest {
		rec.state = core.StateFailed
		rec.failReason = "model content hash does not match registered value"
		return m.statusLocked(id, rec), fmt.Errorf("%w: model %s", core.ErrDigestMismatch, id)
	}

	rec.state = core.StateUploaded
	return m.statusLocked(id, rec), nil
}

// Status returns the record's current state.
func (m *MockRegistry) Status(ctx context.Context, id core.ModelID) (registry.ModelStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return registry.ModelStatus{}, fmt.Errorf("%w: unknown model %s", core.ErrChunkUpload, id)
	}
	return m.statusLocked(id, rec), nil
}

// State returns the raw record state for test assertions.
func (m *MockRegistry) State(id core.ModelID) core.ModelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		return rec.state
	}
	return ""
}

// Reassembled returns the concatenation of received chunk payloads in
// index order, for test assertions.
func (m *MockRegistry) Reassembled(id core.ModelID) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil
	}
	var out []byte
	for _, chunk := range rec.chunks {
		out = append(out, chunk...)
	}
	return out
}

func (m *MockRegistry) statusLocked(id core.ModelID, rec *record) registry.ModelStatus {
	acked := 0
	for _, a := range rec.acked {
		if a {
			acked++
		}
	}
	return registry.ModelStatus{
		ModelID:     id,
		State:       rec.state,
		ChunksAcked: acked,
		ChunkCount:  rec.chunkCount,
		Error:       rec.failReason,
	}
}

func (m *MockRegistry) terminalErrLocked(id core.ModelID, rec *record) error {
	if rec.state == core.StateFailed {
		return fmt.Errorf("%w: model %s", core.ErrDigestMismatch, id)
	}
	return nil
}

var _ registry.Client = (*MockRegistry)(nil)
