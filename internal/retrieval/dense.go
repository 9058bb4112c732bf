package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
	"github.com/kirillkom/ul-rag-assistant/internal/index"
)

// Hit is one (chunk position, score) search result.
type Hit struct {
	Index int
	Score float64
}

// DenseSearcher ranks chunks by cosine similarity between the query embedding
// and the chunk embeddings. Chunk embeddings are unit-normalized at index
// build time, so scoring is a plain dot product; the query vector is
// normalized here. Embedding the query is the one blocking call.
type DenseSearcher struct {
	embedder ports.Embedder
}

func NewDenseSearcher(embedder ports.Embedder) *DenseSearcher {
	return &DenseSearcher{embedder: embedder}
}

func (s *DenseSearcher) Search(ctx context.Context, ix *index.CorpusIndex, query string, k int) ([]Hit, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("dense search: no embedder configured")
	}
	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qnorm := normalizeVector(qvec)

	hits := make([]Hit, 0, len(ix.Embeddings))
	for i, emb := range ix.Embeddings {
		hits = append(hits, Hit{Index: i, Score: dot(qnorm, emb)})
	}
	return topHits(hits, k), nil
}

// topHits orders by descending score, ties broken by original chunk position.
func topHits(hits []Hit, k int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Index < hits[j].Index
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 || sum == 1 {
		return vec
	}
	inv := 1.0 / math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}
