// Package embedder converts text batches into dense vector embeddings via
// plain HTTP against an Ollama, OpenAI, or Azure OpenAI backend. No extra
// SDK dependencies are needed for embedding.
package embedder

import "context"

// Embedder converts a batch of texts into embedding vectors.
// Implementations return one vector per input text, same order, and fail
// loudly: an error is never accompanied by a partial result.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ; override with EMBEDDING_DIMENSIONS.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
)

// DefaultDimensions returns the default embedding vector size for the given
// backend name. Callers pre-configuring the vector index (collection
// creation) should use this rather than hardcoding a value.
// EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	default:
		return defaultOpenAIDimensions
	}
}
