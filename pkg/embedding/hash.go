package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// HashEmbedder maps lower-cased word tokens into a fixed number of buckets
// and L2-normalizes the counts. It needs no network and is used for the mock
// provider and in tests.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a hashing embedder. Dimensions below 8 are raised to 8.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension < 8 {
		dimension = 8
	}
	return &HashEmbedder{dimension: dimension}
}

// Name returns the provider identifier.
func (e *HashEmbedder) Name() string {
	return "hash"
}

// Embed returns the bucketed token vector for text.
func (e *HashEmbedder) Embed(_ context.Context, text string, _ Task) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32()%uint32(e.dimension))]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}
