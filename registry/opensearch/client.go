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


package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/registry"
)

const (
	metaPath  = "/_plugins/_ml/models/meta"
	modelPath = "/_plugins/_ml/models/%s"
	chunkPath = "/_plugins/_ml/models/%s/chunk/%d"

	defaultReqTimeout   = 30 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// Client implements registry.Client against an OpenSearch-style
// ml-plugin model registry.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	reqTimeout   time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRequestTimeout sets the per-request timeout applied to register,
// chunk-upload, and status calls.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.reqTimeout = d
	}
}

// WithPollInterval sets the delay between status polls during Finalize.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// newClient is an internal constructor that returns the concrete type.
func newClient(baseURL string, httpClient *http.Client, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: registry base URL is required", core.ErrConfiguration)
	}
	if httpClient == nil {
		// The connected, authenticated client is supplied by the caller;
		// the default is only suitable for unauthenticated clusters.
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   httpClient,
		reqTimeout:   defaultReqTimeout,
		pollInterval: defaultPollInterval,
		logger:       slog.Default().With("component", "opensearch-registry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// New creates a registry client for the cluster at baseURL using the
// supplied HTTP client for transport. TLS and credential handling
// belong to the HTTP client, not to this package.
//
// Returns registry.Client interface to enforce abstraction.
func New(baseURL string, httpClient *http.Client, opts ...Option) (registry.Client, error) {
	return newClient(baseURL, httpClient, opts...)
}

type registerRequest struct {
	Name                  string              `json:"name"`
	Version               int                 `json:"version"`
	ModelFormat           string              `json:"model_format"`
	ModelTaskType         string              `json:"model_task_type"`
	ModelContentHashValue string              `json:"model_content_hash_value"`
	TotalChunks           int                 `json:"total_chunks"`
	ModelConfig           registerModelConfig `json:"model_config"`
}

type registerModelConfig struct {
	ModelType          string `json:"model_type"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	FrameworkType      string `json:"framework_type"`
	AllConfig          string `json:"all_config,omitempty"`
}

type registerResponse struct {
	ModelID string `json:"model_id"`
	Status  string `json:"status"`
}

type chunkResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	ModelState  string `json:"model_state"`
	TotalChunks int    `json:"total_chunks"`
	ChunksAcked int    `json:"chunks_acked"`
	Error       string `json:"error,omitempty"`
}

// Register creates the registration record and returns the assigned
// model ID.
func (c *Client) Register(ctx context.Context, meta *core.ModelMetadata, digest core.Digest, chunkCount int) (core.ModelID, error) {
	if err := core.ValidateMetadata(meta); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrRegistration, err)
	}
	if chunkCount <= 0 {
		return "", fmt.Errorf("%w: chunk count must be positive, got %d", core.ErrRegistration, chunkCount)
	}

	body, err := json.Marshal(registerRequest{
		Name:                  meta.Name,
		Version:               meta.Version,
		ModelFormat:           string(meta.Format),
		ModelTaskType:         string(meta.TaskType),
		ModelContentHashValue: digest.String(),
		TotalChunks:           chunkCount,
		ModelConfig: registerModelConfig{
			ModelType:          meta.Config.ModelType,
			EmbeddingDimension: meta.Config.EmbeddingDimension,
			FrameworkType:      meta.Config.FrameworkType,
			AllConfig:          meta.Config.AllConfig,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", core.ErrRegistration, err)
	}

	var resp registerResponse
	err = c.doJSON(ctx, http.MethodPost, c.baseURL+metaPath, bytes.NewReader(body), "application/json", &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", core.ErrRegistration, meta.Coordinates(), err)
	}
	if resp.ModelID == "" {
		return "", fmt.Errorf("%w: registry returned no model_id", core.ErrRegistration)
	}

	c.logger.Debug("model registered", "model", meta.Coordinates(), "modelID", resp.ModelID, "chunks", chunkCount)
	return core.ModelID(resp.ModelID), nil
}

// UploadChunk submits one raw chunk payload.
func (c *Client) UploadChunk(ctx context.Context, id core.ModelID, index int, payload []byte) (registry.Ack, error) {
	if id == "" {
		return registry.Ack{}, fmt.Errorf("%w: empty model ID", core.ErrChunkUpload)
	}
	if index < 0 {
		return registry.Ack{}, fmt.Errorf("%w: negative index %d", core.ErrChunkUpload, index)
	}

	url := c.baseURL + fmt.Sprintf(chunkPath, id, index)
	var resp chunkResponse
	err := c.doJSON(ctx, http.MethodPost, url, bytes.NewReader(payload), "application/octet-stream", &resp)
	if err != nil {
		return registry.Ack{}, fmt.Errorf("%w: model %s index %d: %v", core.ErrChunkUpload, id, index, err)
	}

	return registry.Ack{
		Index:     index,
		Duplicate: strings.EqualFold(resp.Status, "duplicate"),
	}, nil
}

// Finalize polls the registration record until it reaches a terminal
// state. The registry performs digest verification after the last
// chunk arrives; a FAILED record with a hash error surfaces as
// core.ErrDigestMismatch.
func (c *Client) Finalize(ctx context.Context, id core.ModelID) (registry.ModelStatus, error) {
	for {
		status, err := c.Status(ctx, id)
		if err != nil {
			return status, err
		}

		switch status.State {
		case core.StateUploaded:
			return status, nil
		case core.StateFailed:
			if isDigestFailure(status.Error) {
				return status, fmt.Errorf("%w: model %s: %s", core.ErrDigestMismatch, id, status.Error)
			}
			return status, fmt.Errorf("%w: model %s: %s", core.ErrChunkUpload, id, status.Error)
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Status fetches the registration record state.
func (c *Client) Status(ctx context.Context, id core.ModelID) (registry.ModelStatus, error) {
	if id == "" {
		return registry.ModelStatus{}, fmt.Errorf("%w: empty model ID", core.ErrChunkUpload)
	}

	url := c.baseURL + fmt.Sprintf(modelPath, id)
	var resp statusResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, "", &resp); err != nil {
		return registry.ModelStatus{}, fmt.Errorf("%w: model %s: %v", core.ErrChunkUpload, id, err)
	}

	return registry.ModelStatus{
		ModelID:     id,
		State:       core.ModelState(resp.ModelState),
		ChunksAcked: resp.ChunksAcked,
		ChunkCount:  resp.TotalChunks,
		Error:       resp.Error,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body io.Reader, contentType string, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.reqTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("registry returned %d: %s", resp.StatusCode, truncate(data, 256))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %v", err)
		}
	}
	return nil
}

func isDigestFailure(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "hash") || strings.Contains(lower, "digest")
}

func truncate(data []byte, max int) string {
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
