package docstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Upsert inserts or replaces records by ID.
func (s *MemoryStore) Upsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("memory store: record without id")
		}
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("memory store: record %q has no embedding", rec.ID)
		}
		if _, ok := s.records[rec.ID]; !ok {
			s.order = append(s.order, rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return nil
}

// Search returns the TopK records whose cosine similarity is at least MinScore.
func (s *MemoryStore) Search(_ context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		if len(rec.Embedding) != len(query) {
			s.mu.RUnlock()
			return nil, fmt.Errorf("memory store: record %q dimension mismatch (got %d want %d)", id, len(rec.Embedding), len(query))
		}
		score := cosine(query, rec.Embedding)
		if score < opts.MinScore {
			continue
		}
		rec.Embedding = nil
		matches = append(matches, Match{Record: rec, Score: score})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Records returns a copy of all records in insertion order.
func (s *MemoryStore) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
