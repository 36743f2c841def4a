package generation

import "context"

// ModelClient defines the interface to the external text/image model
// provider. This is the only boundary the pipeline stages call through;
// retries, backoff, fallback and failure isolation live behind it.
//
// The model argument overrides the configured primary model when
// non-empty; pass "" for the configured default.
// Version: 1.0
type ModelClient interface {
	// GenerateText produces a text completion for the prompt.
	GenerateText(ctx context.Context, prompt string, model string) (string, error)

	// GenerateImage produces image bytes and their MIME type for the prompt.
	GenerateImage(ctx context.Context, prompt string, model string) ([]byte, string, error)
}
