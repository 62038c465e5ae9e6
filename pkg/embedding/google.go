package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleEmbedder uses the Gemini embedding models.
type GoogleEmbedder struct {
	client    *genai.Client
	model     string
	dimension int32
}

// NewGoogleEmbedder wraps an existing genai client. A zero dimension keeps
// the model's native size.
func NewGoogleEmbedder(client *genai.Client, model string, dimension int) (*GoogleEmbedder, error) {
	if client == nil {
		return nil, fmt.Errorf("google client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	return &GoogleEmbedder{client: client, model: model, dimension: int32(dimension)}, nil
}

// Name returns the provider identifier.
func (e *GoogleEmbedder) Name() string {
	return "google"
}

// Embed returns the embedding for text.
func (e *GoogleEmbedder) Embed(ctx context.Context, text string, task Task) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: string(task)}
	if e.dimension > 0 {
		dim := e.dimension
		cfg.OutputDimensionality = &dim
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("google embedding error: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("google returned no embeddings")
	}
	return resp.Embeddings[0].Values, nil
}
