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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/modelship"
	"github.com/poiesic/modelship/ai"
	"github.com/poiesic/modelship/ai/openai"
	"github.com/poiesic/modelship/artifact"
	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/upload"
	"github.com/poiesic/modelship/verify"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "modelship",
		Usage: "Package and upload fine-tuned embedding models to a cluster model registry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "publish",
				Usage:  "Package a model and upload it to the registry",
				Action: publishCommand,
				Flags:  publishFlags(),
			},
			{
				Name:   "resume",
				Usage:  "Resume an interrupted upload from its persisted session",
				Action: resumeCommand,
				Flags:  publishFlags(),
			},
			{
				Name:   "status",
				Usage:  "Query the registry for a model's upload state",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "endpoint",
						Aliases:  []string{"e"},
						Usage:    "Registry base URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "model-id",
						Usage:    "Registry-assigned model ID",
						Required: true,
					},
				},
			},
			{
				Name:   "verify",
				Usage:  "Probe a served model and check its embedding dimension",
				Action: verifyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "model",
						Aliases:  []string{"m"},
						Usage:    "Model name the endpoint serves",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "dimension",
						Usage:    "Registered embedding dimension",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func publishFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "endpoint",
			Aliases:  []string{"e"},
			Usage:    "Registry base URL",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "name",
			Aliases:  []string{"n"},
			Usage:    "Model name to register",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "model-version",
			Usage: "Model version number",
			Value: 1,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Model format (TORCH_SCRIPT, ONNX)",
			Value: string(core.FormatTorchScript),
		},
		&cli.StringFlag{
			Name:  "task-type",
			Usage: "Model task type (TEXT_EMBEDDING, TEXT_SIMILARITY)",
			Value: string(core.TaskTextEmbedding),
		},
		&cli.StringFlag{
			Name:  "model-type",
			Usage: "Model architecture (e.g. bert)",
			Value: "bert",
		},
		&cli.IntFlag{
			Name:     "dimension",
			Usage:    "Embedding dimension",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "framework",
			Usage: "Framework type reported to the registry",
			Value: "sentence_transformers",
		},
		&cli.StringFlag{
			Name:  "model-file",
			Usage: "Path to the model binary (packaged with the tokenizer config)",
		},
		&cli.StringFlag{
			Name:  "tokenizer-file",
			Usage: "Path to the tokenizer config document",
		},
		&cli.StringFlag{
			Name:  "archive",
			Usage: "Path to an already-built archive (instead of model/tokenizer files)",
		},
		&cli.StringFlag{
			Name:  "session-db",
			Usage: "Path to BadgerDB session store for resume",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Maximum chunk payload size in bytes",
			Value: artifact.DefaultChunkSize,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.IntFlag{
			Name:  "parallelism",
			Usage: "Number of chunk uploads in flight (1 = strictly ordered)",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N chunks",
			Value: 1,
		},
	}
}

func publishCommand(c *cli.Context) error {
	return runPublish(c, false)
}

func resumeCommand(c *cli.Context) error {
	return runPublish(c, true)
}

func runPublish(c *cli.Context, requireSession bool) error {
	ctx := context.Background()

	archivePath := c.String("archive")
	modelPath := c.String("model-file")
	tokenizerPath := c.String("tokenizer-file")
	if archivePath == "" && (modelPath == "" || tokenizerPath == "") {
		return fmt.Errorf("either --archive or both --model-file and --tokenizer-file are required")
	}
	if archivePath != "" && (modelPath != "" || tokenizerPath != "") {
		return fmt.Errorf("--archive cannot be combined with --model-file/--tokenizer-file")
	}

	sessionPath := c.String("session-db")
	if requireSession && sessionPath == "" {
		return fmt.Errorf("session-db is required to resume")
	}

	meta, err := metadataFromFlags(c)
	if err != nil {
		return err
	}

	uploadConfig := &upload.Config{
		ChunkSize:      c.Int("chunk-size"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Parallelism:    c.Int("parallelism"),
		ReportInterval: c.Int("report-interval"),
	}

	opts := []modelship.PublisherOption{
		modelship.WithUploadConfig(uploadConfig),
	}
	if sessionPath != "" {
		opts = append(opts, modelship.WithSessionPath(sessionPath))
	}

	publisher, err := modelship.NewPublisher(c.String("endpoint"), nil, opts...)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer publisher.Close()

	fmt.Fprintf(os.Stderr, "Registry: %s\n", c.String("endpoint"))
	fmt.Fprintf(os.Stderr, "Model: %s\n", meta.Coordinates())
	fmt.Fprintln(os.Stderr)

	var id core.ModelID
	if archivePath != "" {
		id, err = publisher.PublishArchive(ctx, meta, archivePath)
	} else {
		id, err = publisher.Publish(ctx, meta, modelPath, tokenizerPath)
	}
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	fmt.Printf("%s\n", id)
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	publisher, err := modelship.NewPublisher(c.String("endpoint"), nil)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer publisher.Close()

	status, err := publisher.Status(ctx, core.ModelID(c.String("model-id")))
	if err != nil {
		return fmt.Errorf("status query failed: %w", err)
	}

	fmt.Printf("Model:  %s\n", status.ModelID)
	fmt.Printf("State:  %s\n", status.State)
	fmt.Printf("Chunks: %d/%d\n", status.ChunksAcked, status.ChunkCount)
	if status.Error != "" {
		fmt.Printf("Error:  %s\n", status.Error)
	}
	return nil
}

func verifyCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	verifier, err := verify.NewVerifier(embedder, c.Int("dimension"))
	if err != nil {
		return fmt.Errorf("failed to create verifier: %w", err)
	}

	report, err := verifier.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Printf("Verified: %d probes, dimension %d\n", report.Probes, report.Dimension)
	return nil
}

func metadataFromFlags(c *cli.Context) (*core.ModelMetadata, error) {
	meta := &core.ModelMetadata{
		Name:     c.String("name"),
		Version:  c.Int("model-version"),
		Format:   core.ModelFormat(strings.ToUpper(c.String("format"))),
		TaskType: core.TaskType(strings.ToUpper(c.String("task-type"))),
		Config: core.ModelConfig{
			ModelType:          c.String("model-type"),
			EmbeddingDimension: c.Int("dimension"),
			FrameworkType:      c.String("framework"),
		},
	}
	if err := core.ValidateMetadata(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
