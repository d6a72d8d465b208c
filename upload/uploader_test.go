package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/registry"
	"github.com/poiesic/modelship/registry/mock"
	"github.com/poiesic/modelship/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata() *core.ModelMetadata {
	return &core.ModelMetadata{
		Name:     "all-MiniLM-L6-v2-finetuned",
		Version:  1,
		Format:   core.FormatTorchScript,
		TaskType: core.TaskTextEmbedding,
		Config: core.ModelConfig{
			ModelType:          "bert",
			EmbeddingDimension: 384,
			FrameworkType:      "sentence_transformers",
		},
	}
}

func testArtifact(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 253)
	}
	return data
}

func fastConfig() *Config {
	return &Config{
		ChunkSize:      4096,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
		Parallelism:    1,
		ReportInterval: 1,
	}
}

func TestUploader_HappyPath(t *testing.T) {
	reg := mock.NewMockRegistry()
	var progress bytes.Buffer

	uploader, err := NewUploader(reg, fastConfig(), &progress)
	require.NoError(t, err)

	data := testArtifact(10000)
	id, err := uploader.Run(context.Background(), testMetadata(), data)
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, uploader.Phase())
	assert.Equal(t, core.StateUploaded, reg.State(id))
	assert.Equal(t, data, reg.Reassembled(id), "registry must reconstruct the artifact exactly")

	// 10,000 bytes at chunk size 4,096 -> indices 0, 1, 2.
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, reg.UploadCalls(i), "index %d should be uploaded once", i)
	}
	assert.Contains(t, progress.String(), "3/3")
	assert.Contains(t, progress.String(), "Upload complete")
}

func TestUploader_TransientFailuresRetried(t *testing.T) {
	reg := mock.NewMockRegistry()
	// Index 1 times out twice, succeeds on the third attempt.
	reg.FailChunk(1, 2)

	uploader, err := NewUploader(reg, fastConfig(), io.Discard)
	require.NoError(t, err)

	id, err := uploader.Run(context.Background(), testMetadata(), testArtifact(10000))
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, uploader.Phase())
	assert.Equal(t, core.StateUploaded, reg.State(id))
	assert.Equal(t, 3, uploader.Attempts(1), "index 1 should record 3 attempts")
	assert.Equal(t, 1, uploader.Attempts(0))
	assert.Equal(t, 1, uploader.Attempts(2))
}

func TestUploader_RetriesExhausted(t *testing.T) {
	reg := mock.NewMockRegistry()
	reg.FailChunk(1, 10) // more failures than MaxRetries

	uploader, err := NewUploader(reg, fastConfig(), io.Discard)
	require.NoError(t, err)

	_, err = uploader.Run(context.Background(), testMetadata(), testArtifact(10000))
	require.Error(t, err)

	assert.Equal(t, PhaseFailed, uploader.Phase())
	assert.True(t, errors.Is(err, core.ErrChunkUpload))
	assert.Equal(t, 3, uploader.Attempts(1), "should stop after MaxRetries attempts")
}

// corruptOnRegister flips the registered digest right after
// registration so finalization can never verify.
type corruptOnRegister struct {
	*mock.MockRegistry
}

func (c *corruptOnRegister) Register(ctx context.Context, meta *core.ModelMetadata, digest core.Digest, chunkCount int) (core.ModelID, error) {
	id, err := c.MockRegistry.Register(ctx, meta, digest, chunkCount)
	if err == nil {
		c.CorruptRegisteredDigest(id)
	}
	return id, err
}

func TestUploader_DigestMismatchAtFinalize(t *testing.T) {
	reg := &corruptOnRegister{MockRegistry: mock.NewMockRegistry()}

	uploader, err := NewUploader(reg, fastConfig(), io.Discard)
	require.NoError(t, err)

	id, err := uploader.Run(context.Background(), testMetadata(), testArtifact(10000))
	require.Error(t, err)

	assert.True(t, errors.Is(err, core.ErrDigestMismatch))
	assert.Equal(t, PhaseFailed, uploader.Phase())
	assert.Equal(t, core.StateFailed, reg.State(id), "record must never reach UPLOADED on mismatch")
}

func TestUploader_ParallelUpload(t *testing.T) {
	reg := mock.NewMockRegistry()

	config := fastConfig()
	config.Parallelism = 4

	uploader, err := NewUploader(reg, config, io.Discard)
	require.NoError(t, err)

	data := testArtifact(65537)
	id, err := uploader.Run(context.Background(), testMetadata(), data)
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, uploader.Phase())
	assert.Equal(t, data, reg.Reassembled(id), "out-of-order acks must still reconstruct the artifact")
}

func TestUploader_ResumeSkipsAckedChunks(t *testing.T) {
	reg := mock.NewMockRegistry()
	sessions, backend, err := badger.NewMemorySessionRepository()
	require.NoError(t, err)
	defer backend.Close()

	data := testArtifact(10000)
	meta := testMetadata()

	// First run: index 2 keeps failing, session persists indices 0 and 1.
	reg.FailChunk(2, 100)
	first, err := NewUploader(reg, fastConfig(), io.Discard, WithSessionRepository(sessions))
	require.NoError(t, err)

	_, err = first.Run(context.Background(), meta, data)
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, first.Phase())

	saved, err := sessions.LoadSession(context.Background(), core.SessionKeyFor(meta.Name, meta.Version))
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, []bool{true, true, false}, saved.Acked)
	assert.Equal(t, core.StateUploading, saved.State)

	// Second run resumes against the same model ID and only sends index 2.
	reg.FailChunk(2, 0)
	second, err := NewUploader(reg, fastConfig(), io.Discard, WithSessionRepository(sessions))
	require.NoError(t, err)

	id, err := second.Run(context.Background(), meta, data)
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, second.Phase())
	assert.Equal(t, core.StateUploaded, reg.State(id))
	assert.Equal(t, 1, reg.UploadCalls(0), "acked index must not be re-sent on resume")
	assert.Equal(t, 1, reg.UploadCalls(1), "acked index must not be re-sent on resume")
	assert.Equal(t, data, reg.Reassembled(id))
}

func TestUploader_ResumeRejectsChangedChunkSize(t *testing.T) {
	reg := mock.NewMockRegistry()
	sessions, backend, err := badger.NewMemorySessionRepository()
	require.NoError(t, err)
	defer backend.Close()

	data := testArtifact(10000)
	meta := testMetadata()

	reg.FailChunk(2, 100)
	first, err := NewUploader(reg, fastConfig(), io.Discard, WithSessionRepository(sessions))
	require.NoError(t, err)
	_, err = first.Run(context.Background(), meta, data)
	require.Error(t, err)

	// Changing the chunk size mid-session is a protocol violation.
	config := fastConfig()
	config.ChunkSize = 8192
	second, err := NewUploader(reg, config, io.Discard, WithSessionRepository(sessions))
	require.NoError(t, err)

	_, err = second.Run(context.Background(), meta, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfiguration))
}

func TestUploader_ChangedArtifactStartsFresh(t *testing.T) {
	reg := mock.NewMockRegistry()
	sessions, backend, err := badger.NewMemorySessionRepository()
	require.NoError(t, err)
	defer backend.Close()

	meta := testMetadata()

	reg.FailChunk(2, 100)
	first, err := NewUploader(reg, fastConfig(), io.Discard, WithSessionRepository(sessions))
	require.NoError(t, err)
	_, err = first.Run(context.Background(), meta, testArtifact(10000))
	require.Error(t, err)

	// A different artifact under the same coordinates discards the old
	// session. The mock enforces name/version uniqueness, so the fresh
	// registration is rejected, surfacing as a registration error.
	reg.FailChunk(2, 0)
	changed := testArtifact(10000)
	changed[0] ^= 0xff
	second, err := NewUploader(reg, fastConfig(), io.Discard, WithSessionRepository(sessions))
	require.NoError(t, err)

	_, err = second.Run(context.Background(), meta, changed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRegistration))
}

func TestUploader_EmptyArtifact(t *testing.T) {
	uploader, err := NewUploader(mock.NewMockRegistry(), fastConfig(), io.Discard)
	require.NoError(t, err)

	_, err = uploader.Run(context.Background(), testMetadata(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyArtifact))
}

func TestUploader_InvalidMetadata(t *testing.T) {
	uploader, err := NewUploader(mock.NewMockRegistry(), fastConfig(), io.Discard)
	require.NoError(t, err)

	meta := testMetadata()
	meta.Name = ""

	_, err = uploader.Run(context.Background(), meta, testArtifact(100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidMetadata))
}

func TestUploader_Cancellation(t *testing.T) {
	reg := mock.NewMockRegistry()
	reg.FailChunk(1, 100)

	config := fastConfig()
	config.RetryDelay = 50 * time.Millisecond
	config.MaxRetries = 10

	uploader, err := NewUploader(reg, config, io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err = uploader.Run(ctx, testMetadata(), testArtifact(10000))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, PhaseFailed, uploader.Phase())
}

func TestNewUploader_Validation(t *testing.T) {
	_, err := NewUploader(nil, nil, io.Discard)
	assert.ErrorIs(t, err, ErrRegistryRequired)

	bad := fastConfig()
	bad.ChunkSize = 0
	_, err = NewUploader(mock.NewMockRegistry(), bad, io.Discard)
	assert.True(t, errors.Is(err, core.ErrConfiguration))
}

var _ registry.Client = (*corruptOnRegister)(nil)
