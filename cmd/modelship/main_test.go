package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/poiesic/modelship/artifact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPublishCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "modelship",
		Commands: []*cli.Command{
			{
				Name:   "publish",
				Usage:  "Package a model and upload it to the registry",
				Action: publishCommand,
				Flags:  publishFlags(),
			},
		},
	}

	t.Run("endpoint is required", func(t *testing.T) {
		args := []string{"modelship", "publish", "--name", "m", "--dimension", "384"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "endpoint")
	})

	t.Run("name is required", func(t *testing.T) {
		args := []string{"modelship", "publish", "--endpoint", "http://localhost:9200", "--dimension", "384"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name")
	})

	t.Run("dimension is required", func(t *testing.T) {
		args := []string{"modelship", "publish", "--endpoint", "http://localhost:9200", "--name", "m"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension")
	})

	t.Run("rejects missing artifact inputs", func(t *testing.T) {
		args := []string{"modelship", "publish",
			"--endpoint", "http://localhost:9200", "--name", "m", "--dimension", "384"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--archive")
	})

	t.Run("rejects archive combined with model file", func(t *testing.T) {
		args := []string{"modelship", "publish",
			"--endpoint", "http://localhost:9200", "--name", "m", "--dimension", "384",
			"--archive", "/tmp/a.tar.gz", "--model-file", "/tmp/model.pt"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be combined")
	})

	t.Run("chunk-size has the package default", func(t *testing.T) {
		var chunkFlag *cli.IntFlag
		for _, flag := range publishFlags() {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "chunk-size" {
				chunkFlag = f
				break
			}
		}
		require.NotNil(t, chunkFlag)
		assert.Equal(t, artifact.DefaultChunkSize, chunkFlag.Value)
	})

	t.Run("parallelism defaults to ordered upload", func(t *testing.T) {
		var parFlag *cli.IntFlag
		for _, flag := range publishFlags() {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "parallelism" {
				parFlag = f
				break
			}
		}
		require.NotNil(t, parFlag)
		assert.Equal(t, 1, parFlag.Value)
	})
}

func TestResumeCommandValidation(t *testing.T) {
	app := &cli.App{
		Name: "modelship",
		Commands: []*cli.Command{
			{
				Name:   "resume",
				Usage:  "Resume an interrupted upload from its persisted session",
				Action: resumeCommand,
				Flags:  publishFlags(),
			},
		},
	}

	t.Run("session-db is required", func(t *testing.T) {
		args := []string{"modelship", "resume",
			"--endpoint", "http://localhost:9200", "--name", "m", "--dimension", "384",
			"--archive", "/tmp/a.tar.gz"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session-db")
	})
}

func TestMetadataFromFlags(t *testing.T) {
	var captured error
	app := &cli.App{
		Name: "modelship",
		Commands: []*cli.Command{
			{
				Name: "probe",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.IntFlag{Name: "model-version", Value: 1},
					&cli.StringFlag{Name: "format", Value: "torch_script"},
					&cli.StringFlag{Name: "task-type", Value: "text_embedding"},
					&cli.StringFlag{Name: "model-type", Value: "bert"},
					&cli.IntFlag{Name: "dimension"},
					&cli.StringFlag{Name: "framework", Value: "sentence_transformers"},
				},
				Action: func(c *cli.Context) error {
					_, captured = metadataFromFlags(c)
					return nil
				},
			},
		},
	}

	t.Run("lowercase format is accepted", func(t *testing.T) {
		err := app.Run([]string{"modelship", "probe", "--name", "m", "--dimension", "384"})
		require.NoError(t, err)
		assert.NoError(t, captured)
	})

	t.Run("invalid metadata is rejected", func(t *testing.T) {
		err := app.Run([]string{"modelship", "probe", "--name", "m", "--dimension", "0"})
		require.NoError(t, err)
		assert.Error(t, captured)
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		testCases := []string{
			"DEBUG",
			"Info",
			"WaRn",
			"ERROR",
		}

		for _, tc := range testCases {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("default log level is info", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				level := c.String("log-level")
				assert.Equal(t, "info", level)
				return nil
			},
		}

		err := app.Run([]string{"test"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
