package retrieval

import (
	"github.com/kirillkom/ul-rag-assistant/internal/index"
)

// SparseSearcher ranks chunks with the BM25 model stored in the corpus index.
// Empty or unknown-term queries return an empty result set.
type SparseSearcher struct{}

func NewSparseSearcher() *SparseSearcher {
	return &SparseSearcher{}
}

func (s *SparseSearcher) Search(ix *index.CorpusIndex, query string, k int) []Hit {
	scores := ix.Sparse.Scores(query)
	hits := make([]Hit, 0, len(scores))
	for i, score := range scores {
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{Index: i, Score: score})
	}
	return topHits(hits, k)
}
