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


package modelship

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/poiesic/modelship/archive"
	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/registry"
	"github.com/poiesic/modelship/registry/opensearch"
	"github.com/poiesic/modelship/storage"
	"github.com/poiesic/modelship/storage/badger"
	"github.com/poiesic/modelship/upload"
)

// Publisher wires the archive builder, registry client, upload
// orchestrator, and optional session store into one entry point.
type Publisher struct {
	backend  *badger.Backend
	sessions storage.SessionRepository
	client   registry.Client
	config   *upload.Config
	progress io.Writer
	logger   *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*publisherOptions)

type publisherOptions struct {
	config      *upload.Config
	sessionPath string
	progress    io.Writer
	client      registry.Client
	clientOpts  []opensearch.Option
}

// WithUploadConfig sets the upload configuration.
// Default is upload.DefaultConfig().
func WithUploadConfig(config *upload.Config) PublisherOption {
	return func(o *publisherOptions) {
		o.config = config
	}
}

// WithSessionPath enables resume by persisting upload sessions in a
// BadgerDB database at the given path.
func WithSessionPath(path string) PublisherOption {
	return func(o *publisherOptions) {
		o.sessionPath = path
	}
}

// WithProgress sets where progress output is written.
// Default is os.Stderr.
func WithProgress(w io.Writer) PublisherOption {
	return func(o *publisherOptions) {
		o.progress = w
	}
}

// WithRegistryClient replaces the default OpenSearch client, for
// clusters fronted by a different registry implementation or for
// tests.
func WithRegistryClient(client registry.Client) PublisherOption {
	return func(o *publisherOptions) {
		o.client = client
	}
}

// WithClientOptions passes options through to the OpenSearch client
// constructor. Ignored when WithRegistryClient is set.
func WithClientOptions(opts ...opensearch.Option) PublisherOption {
	return func(o *publisherOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// NewPublisher creates a publisher for the registry at endpoint.
// httpClient carries transport concerns (auth, TLS); pass nil for
// http.DefaultClient.
func NewPublisher(endpoint string, httpClient *http.Client, opts ...PublisherOption) (*Publisher, error) {
	options := &publisherOptions{
		config:   upload.DefaultConfig(),
		progress: os.Stderr,
	}
	for _, opt := range opts {
		opt(options)
	}

	client := options.client
	if client == nil {
		var err error
		client, err = opensearch.New(endpoint, httpClient, options.clientOpts...)
		if err != nil {
			return nil, err
		}
	}

	p := &Publisher{
		client:   client,
		config:   options.config,
		progress: options.progress,
		logger:   slog.Default().With("component", "publisher"),
	}

	if options.sessionPath != "" {
		backend, err := badger.OpenBackend(options.sessionPath, false)
		if err != nil {
			return nil, err
		}
		sessions, err := badger.NewSessionRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		p.backend = backend
		p.sessions = sessions
	}

	return p, nil
}

// Close releases the session store, if one was opened.
func (p *Publisher) Close() error {
	if p.sessions != nil {
		if err := p.sessions.Close(); err != nil {
			p.logger.Error("error closing session repository", "err", err)
			return err
		}
	}
	if p.backend != nil {
		if err := p.backend.Close(); err != nil {
			p.logger.Error("error closing session store backend", "err", err)
			return err
		}
	}
	return nil
}

// Publish packages the model binary and tokenizer config into a
// tar.gz archive and uploads it under the given metadata. Returns the
// registry-assigned model ID.
func (p *Publisher) Publish(ctx context.Context, meta *core.ModelMetadata, modelPath, tokenizerPath string) (core.ModelID, error) {
	var buf bytes.Buffer
	if err := archive.Build(&buf, modelPath, tokenizerPath); err != nil {
		return "", err
	}
	return p.upload(ctx, meta, buf.Bytes())
}

// PublishArchive uploads an already-built archive file.
func (p *Publisher) PublishArchive(ctx context.Context, meta *core.ModelMetadata, archivePath string) (core.ModelID, error) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: reading archive %s: %w", core.ErrArtifactRead, archivePath, err)
	}
	return p.upload(ctx, meta, data)
}

func (p *Publisher) upload(ctx context.Context, meta *core.ModelMetadata, artifact []byte) (core.ModelID, error) {
	var uploaderOpts []upload.Option
	if p.sessions != nil {
		uploaderOpts = append(uploaderOpts, upload.WithSessionRepository(p.sessions))
	}

	uploader, err := upload.NewUploader(p.client, p.config, p.progress, uploaderOpts...)
	if err != nil {
		return "", err
	}
	return uploader.Run(ctx, meta, artifact)
}

// Status queries the registry for a model's upload state.
func (p *Publisher) Status(ctx context.Context, id core.ModelID) (registry.ModelStatus, error) {
	return p.client.Status(ctx, id)
}

// Sessions lists locally persisted upload sessions. Returns nil when
// resume is not enabled.
func (p *Publisher) Sessions(ctx context.Context) ([]*core.UploadSession, error) {
	if p.sessions == nil {
		return nil, nil
	}
	return p.sessions.ListSessions(ctx)
}
