// Package mock provides a test double implementation of ai.Embedder.
//
// The mock allows tests to run without a live embedding endpoint and
// enables controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Default behavior: deterministic vectors of the given dimension
//	embedder := mock.NewMockEmbedder(384)
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
package mock
