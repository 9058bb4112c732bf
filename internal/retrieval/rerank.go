package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
)

const defaultDomainBias = 0.2

// ScoredChunk is a rerank result: biased cross-encoder score plus the chunk.
type ScoredChunk struct {
	Score float64
	Text  string
	Meta  domain.ChunkMeta
}

// Reranker re-scores fused candidates with a cross-encoder relevance model.
// A matching domain hint adds a fixed additive bias before the final sort,
// nudging results toward canonical sources without hard filtering.
type Reranker struct {
	encoder ports.CrossEncoder
	bias    float64
	logger  *slog.Logger
}

// NewReranker builds a reranker with the given domain bias. A zero bias is a
// valid configuration and disables hint nudging; a negative bias means unset
// and falls back to the default.
func NewReranker(encoder ports.CrossEncoder, bias float64, logger *slog.Logger) *Reranker {
	if bias < 0 {
		bias = defaultDomainBias
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{encoder: encoder, bias: bias, logger: logger}
}

// Rerank returns candidates ordered by descending biased score, stable on
// ties. If the scoring service is missing or fails, the incoming (fused)
// order is preserved with synthetic descending base scores; retrieval never
// hard-fails past construction.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []domain.Chunk, domainHint string) []ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}

	scores := r.baseScores(ctx, query, candidates)

	out := make([]ScoredChunk, len(candidates))
	hint := strings.ToLower(strings.TrimSpace(domainHint))
	for i, cand := range candidates {
		score := scores[i]
		if hint != "" && metaMatchesHint(cand.Meta, hint) {
			score += r.bias
		}
		out[i] = ScoredChunk{Score: score, Text: cand.Text, Meta: cand.Meta}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (r *Reranker) baseScores(ctx context.Context, query string, candidates []domain.Chunk) []float64 {
	if r.encoder != nil {
		texts := make([]string, len(candidates))
		for i, cand := range candidates {
			texts[i] = cand.Text
		}
		scores, err := r.encoder.Score(ctx, query, texts)
		if err == nil && len(scores) == len(candidates) {
			return scores
		}
		r.logger.Warn("rerank_fallback", "reason", "cross_encoder_failed", "error", err)
	}

	// Preserve the fused ordering when no cross-encoder score is available.
	scores := make([]float64, len(candidates))
	for i := range scores {
		scores[i] = -float64(i)
	}
	return scores
}

func metaMatchesHint(meta domain.ChunkMeta, hint string) bool {
	if strings.Contains(strings.ToLower(meta.Host), hint) {
		return true
	}
	if strings.Contains(strings.ToLower(meta.Path), hint) {
		return true
	}
	return strings.Contains(strings.ToLower(meta.Source), hint)
}
