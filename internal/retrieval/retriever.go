// Package retrieval implements the hybrid retrieval chain: dense vector
// search and BM25 lexical search over the corpus index, reciprocal-rank
// fusion of the two rank lists, and cross-encoder reranking with an optional
// domain bias.
package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
	"github.com/kirillkom/ul-rag-assistant/internal/index"
)

const (
	defaultMaxChunks       = 6
	defaultCandidateFactor = 8
)

// CorpusProvider hands out the current immutable index snapshot. One retrieve
// call works against a single snapshot even if a reload happens mid-flight.
type CorpusProvider interface {
	Current() *index.CorpusIndex
}

type Config struct {
	// RRFK is the reciprocal-rank fusion constant. Fixed design parameter,
	// not tuned per query.
	RRFK int
	// DomainBias is the additive score bias for domain-hint matches. Zero
	// disables the nudge; a negative value selects the built-in default.
	DomainBias float64
	// CandidateFactor is the over-fetch multiplier giving fusion and rerank
	// recall headroom before truncation.
	CandidateFactor int
}

type Retriever struct {
	corpus   CorpusProvider
	dense    *DenseSearcher
	sparse   *SparseSearcher
	reranker *Reranker
	cfg      Config
	logger   *slog.Logger
}

func NewRetriever(
	corpus CorpusProvider,
	embedder ports.Embedder,
	encoder ports.CrossEncoder,
	cfg Config,
	logger *slog.Logger,
) *Retriever {
	if cfg.RRFK <= 0 {
		cfg.RRFK = defaultRRFK
	}
	if cfg.CandidateFactor <= 0 {
		cfg.CandidateFactor = defaultCandidateFactor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		corpus:   corpus,
		dense:    NewDenseSearcher(embedder),
		sparse:   NewSparseSearcher(),
		reranker: NewReranker(encoder, cfg.DomainBias, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve runs the full chain: dense + sparse candidate search, RRF fusion,
// cross-encoder rerank, truncation to maxChunks with 1-based ranks. An empty
// query returns an empty list without searching. When query embedding fails,
// both hybrid and dense_only modes degrade to sparse results instead of
// erroring; only context cancellation surfaces as an error.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	maxChunks int,
	mode domain.RetrievalMode,
	domainHint string,
) ([]domain.RetrievedDoc, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if maxChunks <= 0 {
		maxChunks = defaultMaxChunks
	}
	if !domain.ValidRetrievalMode(string(mode)) {
		mode = domain.RetrievalHybrid
	}

	ix := r.corpus.Current()
	kCandidates := maxChunks * r.cfg.CandidateFactor

	var denseHits, sparseHits []Hit
	if mode != domain.RetrievalSparseOnly {
		hits, err := r.dense.Search(ctx, ix, query, kCandidates)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("dense_search_degraded", "error", err)
		} else {
			denseHits = hits
		}
	}
	if mode != domain.RetrievalDenseOnly || len(denseHits) == 0 {
		sparseHits = r.sparse.Search(ix, query, kCandidates)
	}

	var fused []Hit
	switch {
	case mode == domain.RetrievalDenseOnly && len(denseHits) > 0:
		fused = denseHits
	case mode == domain.RetrievalSparseOnly || len(denseHits) == 0:
		fused = sparseHits
	default:
		fused = fuseRRF(denseHits, sparseHits, r.cfg.RRFK)
	}
	if len(fused) > kCandidates {
		fused = fused[:kCandidates]
	}

	candidates := make([]domain.Chunk, 0, len(fused))
	for _, hit := range fused {
		candidates = append(candidates, ix.Chunks[hit.Index])
	}

	reranked := r.reranker.Rerank(ctx, query, candidates, domainHint)
	if len(reranked) > maxChunks {
		reranked = reranked[:maxChunks]
	}

	docs := make([]domain.RetrievedDoc, 0, len(reranked))
	for i, sc := range reranked {
		docs = append(docs, domain.RetrievedDoc{
			Text:  sc.Text,
			Meta:  sc.Meta,
			Score: sc.Score,
			Rank:  i + 1,
		})
	}
	r.logger.Debug("retrieve_done", "query_len", len(query), "docs", len(docs), "mode", string(mode))
	return docs, nil
}
