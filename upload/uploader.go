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


package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/modelship/artifact"
	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/registry"
	"github.com/poiesic/modelship/storage"
)

// Config holds configuration for an upload session.
type Config struct {
	// ChunkSize is the maximum chunk payload size in bytes. It is
	// fixed for the whole session; resuming with a different size is
	// a protocol violation.
	ChunkSize int

	// MaxRetries is the maximum number of attempts per network
	// operation (registration, each chunk index, finalization).
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// Parallelism is the number of chunk uploads in flight. 1 gives a
	// strictly ordered loop over indices.
	Parallelism int

	// ReportInterval is how often to report progress (number of
	// acknowledged chunks).
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:      artifact.DefaultChunkSize,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Parallelism:    1,
		ReportInterval: 1,
	}
}

func (c *Config) validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", core.ErrConfiguration)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: max retries must be positive", core.ErrConfiguration)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("%w: parallelism must be positive", core.ErrConfiguration)
	}
	return nil
}

// Uploader orchestrates one upload session against a model registry.
type Uploader struct {
	registry registry.Client
	sessions storage.SessionRepository
	config   *Config
	progress io.Writer
	logger   *slog.Logger

	mu       sync.Mutex
	phase    Phase
	attempts map[int]int
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithSessionRepository enables resume: acknowledgment state is
// persisted after every chunk and reloaded on the next run for the
// same model name and version.
func WithSessionRepository(sessions storage.SessionRepository) Option {
	return func(u *Uploader) {
		u.sessions = sessions
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUploader creates a new uploader.
// progress: where to write progress output (typically os.Stderr)
func NewUploader(reg registry.Client, config *Config, progress io.Writer, opts ...Option) (*Uploader, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	u := &Uploader{
		registry: reg,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "uploader"),
		phase:    PhaseInit,
		attempts: make(map[int]int),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Phase returns the session's current state-machine phase.
func (u *Uploader) Phase() Phase {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phase
}

// Attempts returns how many upload attempts were made for the given
// chunk index during this run, including failed ones.
func (u *Uploader) Attempts(index int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attempts[index]
}

func (u *Uploader) setPhase(p Phase) {
	u.mu.Lock()
	u.phase = p
	u.mu.Unlock()
	u.logger.Debug("session phase changed", "phase", p.String())
}

// Run executes the full upload session: hash, register, chunk upload
// loop, finalize. If a persisted session for the same model name and
// version exists with the same digest and chunk size, the upload
// resumes against its model ID and skips acknowledged indices.
// Cancellation between network calls leaves the persisted session
// resumable.
func (u *Uploader) Run(ctx context.Context, meta *core.ModelMetadata, artifactBytes []byte) (core.ModelID, error) {
	id, err := u.run(ctx, meta, artifactBytes)
	if err != nil {
		u.setPhase(PhaseFailed)
		return id, err
	}
	u.setPhase(PhaseDone)
	return id, nil
}

func (u *Uploader) run(ctx context.Context, meta *core.ModelMetadata, artifactBytes []byte) (core.ModelID, error) {
	if err := core.ValidateMetadata(meta); err != nil {
		return "", err
	}
	if len(artifactBytes) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyArtifact, meta.Coordinates())
	}

	u.setPhase(PhaseHashing)
	digest := artifact.DigestBytes(artifactBytes)

	chunker, err := artifact.NewChunker(artifactBytes, u.config.ChunkSize)
	if err != nil {
		return "", err
	}
	chunkCount := chunker.Count()

	session, err := u.resumeOrRegister(ctx, meta, digest, chunkCount)
	if err != nil {
		return "", err
	}

	u.setPhase(PhaseUploading)
	tracker := NewProgressTracker(u.progress, chunkCount, u.config.ReportInterval)
	tracker.Start(session.AckedCount())

	if session.AckedCount() > 0 {
		u.logger.Info("resuming upload", "model", meta.Coordinates(), "modelID", session.ModelID,
			"acked", session.AckedCount(), "total", chunkCount)
	}

	if err := u.uploadChunks(ctx, session, chunker, tracker); err != nil {
		return session.ModelID, err
	}

	u.setPhase(PhaseFinalizing)
	if err := u.finalize(ctx, session); err != nil {
		return session.ModelID, err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(u.progress, "Upload complete: %s as %s (%d chunks in %v)\n",
		meta.Coordinates(), session.ModelID, chunkCount, elapsed.Round(time.Millisecond))

	return session.ModelID, nil
}

// resumeOrRegister loads a resumable persisted session or registers a
// new registration record with the registry.
func (u *Uploader) resumeOrRegister(ctx context.Context, meta *core.ModelMetadata, digest core.Digest, chunkCount int) (*core.UploadSession, error) {
	key := core.SessionKeyFor(meta.Name, meta.Version)

	if u.sessions != nil {
		existing, err := u.sessions.LoadSession(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil && !existing.State.Terminal() {
			if existing.Digest == digest {
				if existing.ChunkSize != u.config.ChunkSize {
					return nil, fmt.Errorf("%w: session for %s was started with chunk size %d, cannot resume with %d",
						core.ErrConfiguration, meta.Coordinates(), existing.ChunkSize, u.config.ChunkSize)
				}
				return existing, nil
			}
			// Artifact changed since the session was created; the old
			// registration can never verify, so start over.
			u.logger.Warn("persisted session digest differs from artifact, discarding session",
				"model", meta.Coordinates(), "modelID", existing.ModelID)
			if err := u.sessions.DeleteSession(ctx, key); err != nil {
				return nil, err
			}
		}
	}

	u.setPhase(PhaseRegistering)

	var id core.ModelID
	// Registration is lookup-or-create on the registry side, so
	// retrying a timed-out request is safe.
	_, err := RetryWithBackoff(ctx, func() error {
		var regErr error
		id, regErr = u.registry.Register(ctx, meta, digest, chunkCount)
		return regErr
	}, u.config.MaxRetries, u.config.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("registering %s after %d attempts: %w", meta.Coordinates(), u.config.MaxRetries, err)
	}

	now := time.Now().UTC()
	session := &core.UploadSession{
		Key:        key,
		ModelID:    id,
		Name:       meta.Name,
		Version:    meta.Version,
		Digest:     digest,
		ChunkSize:  u.config.ChunkSize,
		ChunkCount: chunkCount,
		Acked:      make([]bool, chunkCount),
		State:      core.StateCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// uploadChunks uploads every unacknowledged index. With Parallelism 1
// indices are visited strictly in order; otherwise a bounded worker
// pool submits them concurrently and completion is tracked per index.
func (u *Uploader) uploadChunks(ctx context.Context, session *core.UploadSession, chunker *artifact.Chunker, tracker *ProgressTracker) error {
	var pending []int
	for i := 0; i < session.ChunkCount; i++ {
		if !session.Acked[i] {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	if u.config.Parallelism == 1 {
		for _, index := range pending {
			if err := u.uploadOne(ctx, session, chunker, tracker, index); err != nil {
				return err
			}
		}
		return nil
	}

	pool, err := ants.NewPool(u.config.Parallelism)
	if err != nil {
		return err
	}
	defer pool.Release()

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for _, index := range pending {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if workCtx.Err() != nil {
				return
			}
			if err := u.uploadOne(workCtx, session, chunker, tracker, index); err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		})
		if submitErr != nil {
			wg.Done()
			errOnce.Do(func() {
				firstErr = submitErr
				cancel()
			})
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return nil
}

// uploadOne uploads a single chunk index with bounded retries and
// records its acknowledgment.
func (u *Uploader) uploadOne(ctx context.Context, session *core.UploadSession, chunker *artifact.Chunker, tracker *ProgressTracker, index int) error {
	chunk, err := chunker.ChunkAt(index)
	if err != nil {
		return err
	}

	attempts, err := RetryWithBackoff(ctx, func() error {
		_, upErr := u.registry.UploadChunk(ctx, session.ModelID, chunk.Index, chunk.Payload)
		return upErr
	}, u.config.MaxRetries, u.config.RetryDelay)

	u.mu.Lock()
	u.attempts[index] += attempts
	u.mu.Unlock()

	if err != nil {
		return fmt.Errorf("uploading chunk %d/%d of %s after %d attempts: %w",
			index, session.ChunkCount, session.ModelID, attempts, err)
	}

	u.mu.Lock()
	session.Acked[index] = true
	session.State = core.StateUploading
	u.mu.Unlock()

	if err := u.saveSession(ctx, session); err != nil {
		return err
	}

	tracker.Ack(len(chunk.Payload))
	return nil
}

// finalize asks the registry to verify the completed upload. Digest
// mismatch is permanent; transport failures are retried.
func (u *Uploader) finalize(ctx context.Context, session *core.UploadSession) error {
	attempts, err := RetryWithBackoff(ctx, func() error {
		_, finErr := u.registry.Finalize(ctx, session.ModelID)
		if finErr != nil && errors.Is(finErr, core.ErrDigestMismatch) {
			return Permanent(finErr)
		}
		return finErr
	}, u.config.MaxRetries, u.config.RetryDelay)

	if err != nil {
		u.mu.Lock()
		session.State = core.StateFailed
		u.mu.Unlock()
		if saveErr := u.saveSession(ctx, session); saveErr != nil {
			u.logger.Error("failed to persist failed session", "modelID", session.ModelID, "err", saveErr)
		}
		return fmt.Errorf("finalizing %s after %d attempts: %w", session.ModelID, attempts, err)
	}

	u.mu.Lock()
	session.State = core.StateUploaded
	u.mu.Unlock()
	return u.saveSession(ctx, session)
}

func (u *Uploader) saveSession(ctx context.Context, session *core.UploadSession) error {
	if u.sessions == nil {
		return nil
	}
	u.mu.Lock()
	snapshot := *session
	snapshot.Acked = append([]bool(nil), session.Acked...)
	u.mu.Unlock()
	snapshot.UpdatedAt = time.Now().UTC()
	return u.sessions.SaveSession(ctx, &snapshot)
}
