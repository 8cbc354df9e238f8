package genai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/chaincontext/chaincontext/internal/model"
)

// OpenAIClient implements Generator and Embedder against the OpenAI-compatible
// Chat Completions and Embeddings APIs.
type OpenAIClient struct {
	client *openai.Client
	cfg    model.LLMConfig
}

// NewOpenAIClient creates a new OpenAI-backed client
func NewOpenAIClient(cfg model.LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Generate runs a plain completion and normalizes the result
func (c *OpenAIClient) Generate(ctx context.Context, prompt, systemInstruction string) Generation {
	text, err := c.complete(ctx, prompt, systemInstruction, nil)
	if err != nil {
		return Generation{}
	}
	return Generation{Text: text, Success: text != ""}
}

// GenerateStructured runs a JSON-mode completion. The schema is advisory: it
// is rendered into the system instruction, and the response is parsed into a
// generic object. Data stays nil when parsing fails so the caller can apply
// its own text-extraction fallback.
func (c *OpenAIClient) GenerateStructured(ctx context.Context, prompt string, schema map[string]string, systemInstruction string) StructuredGeneration {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}

	instruction := systemInstruction
	if len(schema) > 0 {
		instruction = strings.TrimSpace(instruction + "\nRespond with a single JSON object with fields: " + renderSchema(schema) + ".")
	}

	text, err := c.complete(ctx, prompt, instruction, format)
	if err != nil {
		return StructuredGeneration{}
	}

	result := StructuredGeneration{Text: text, Success: text != ""}
	if data, ok := ExtractJSON(text); ok {
		result.Data = data
	}
	return result
}

// Embed generates an embedding for the text. Returns the zero vector for
// empty input and on any API failure.
func (c *OpenAIClient) Embed(ctx context.Context, text string) []float32 {
	if text == "" {
		return ZeroVector()
	}

	embeddingModel := c.cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(embeddingModel),
		Dimensions: EmbeddingDim,
	})
	if err != nil || len(resp.Data) == 0 {
		return ZeroVector()
	}
	return resp.Data[0].Embedding
}

func (c *OpenAIClient) complete(ctx context.Context, prompt, systemInstruction string, format *openai.ChatCompletionResponseFormat) (string, error) {
	chatModel := c.cfg.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := c.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1500
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          chatModel,
		Messages:       messages,
		MaxTokens:      maxTokens,
		Temperature:    0.3,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// renderSchema produces a stable "name (type), ..." description of the schema
func renderSchema(schema map[string]string) string {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s (%s)", k, schema[k]))
	}
	return strings.Join(parts, ", ")
}
