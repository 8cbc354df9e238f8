// Package genai normalizes the generation and embedding clients behind fixed
// result shapes, isolating upstream SDK variability from the answer pipeline.
package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaincontext/chaincontext/internal/model"
)

// EmbeddingDim is the fixed embedding vector width
const EmbeddingDim = 768

// Generation is the normalized output of a plain completion.
// Success is false when the provider produced no usable text.
type Generation struct {
	Text    string
	Success bool
}

// StructuredGeneration is the normalized output of a schema-guided completion.
// Data is nil when the provider returned text that could not be parsed as a
// JSON object; Text always carries the raw response for fallback parsing.
type StructuredGeneration struct {
	Data    map[string]any
	Text    string
	Success bool
}

// Generator is the capability surface the pipeline consumes for text generation
type Generator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) Generation
	GenerateStructured(ctx context.Context, prompt string, schema map[string]string, systemInstruction string) StructuredGeneration
}

// Embedder converts text into a fixed-width vector.
// Implementations return a zero vector on failure, never an error.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// NewGenerator creates a generator from configuration. An empty provider
// disables generation and returns nil without error; the pipeline degrades
// gracefully when no generator is wired.
func NewGenerator(cfg model.LLMConfig) (*OpenAIClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIClient(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}

// ZeroVector returns the all-zero embedding used for failures and empty input
func ZeroVector() []float32 {
	return make([]float32, EmbeddingDim)
}
