// Package docstore holds pre-chunked manual passages and answers similarity
// queries over their embeddings.
package docstore

import "context"

// Record is one chunk of a source document. Page is 0-based as produced by
// the PDF loaders that feed the index.
type Record struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Page      int       `json:"page"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Match is a record returned by a similarity search.
type Match struct {
	Record
	Score float64
}

// SearchOptions bounds a similarity search.
type SearchOptions struct {
	TopK     int
	MinScore float64
}

// Passage is a retrieved chunk as seen by the answering flow. Page is 1-based.
type Passage struct {
	Document string  `json:"document"`
	Page     int     `json:"page"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Store persists records and searches them by cosine similarity.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error)
	Close() error
}

const defaultTopK = 4

func (m Match) passage() Passage {
	return Passage{
		Document: m.Source,
		Page:     m.Page + 1,
		Text:     m.Text,
		Score:    m.Score,
	}
}
