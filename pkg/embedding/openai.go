package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIEmbedder uses the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder wraps an existing OpenAI client.
func NewOpenAIEmbedder(client openai.Client, model string, dimension int) (*OpenAIEmbedder, error) {
	if model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	return &OpenAIEmbedder{client: client, model: model, dimension: dimension}, nil
}

// Name returns the provider identifier.
func (e *OpenAIEmbedder) Name() string {
	return "openai"
}

// Embed returns the embedding for text. OpenAI ignores the task hint.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string, _ Task) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	}
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embedding error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}

	values := resp.Data[0].Embedding
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}
