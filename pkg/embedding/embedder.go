// Package embedding turns text into vectors for similarity search.
package embedding

import "context"

// Task tells providers which side of a retrieval the text is on.
type Task string

const (
	TaskQuery    Task = "RETRIEVAL_QUERY"
	TaskDocument Task = "RETRIEVAL_DOCUMENT"
)

// Embedder generates a single embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string, task Task) ([]float32, error)
	Name() string
}
