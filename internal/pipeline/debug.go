package pipeline

import (
	"context"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

// DebugResult carries the plain-text contexts alongside the answer, for
// evaluation tooling that needs to inspect what the generator saw.
type DebugResult struct {
	Answer    string            `json:"answer"`
	Contexts  []string          `json:"contexts"`
	Citations []domain.Citation `json:"citations"`
	Meta      map[string]any    `json:"meta"`
}

// AskDebug runs route -> retrieve -> generate without the safety gate and
// without the small-talk dispatch, returning retrieved contexts verbatim.
func (p *Pipeline) AskDebug(ctx context.Context, question string, mode domain.Mode, locale string) *DebugResult {
	plan := p.planner.Route(ctx, question)

	var docs []domain.RetrievedDoc
	if !plan.SkipsRetrieval() {
		retrieved, err := p.retriever.Retrieve(ctx, question, plan.MaxChunks, plan.RetrievalMode, plan.DomainHint)
		if err != nil {
			p.logger.Warn("debug_retrieve_degraded", "error", err)
		} else {
			docs = retrieved
		}
	}

	result := p.generator.Answer(ctx, question, docs, mode, locale)

	contexts := make([]string, 0, len(docs))
	for _, doc := range docs {
		contexts = append(contexts, doc.Text)
	}
	return &DebugResult{
		Answer:    result.Answer,
		Contexts:  contexts,
		Citations: result.Citations,
		Meta: map[string]any{
			"mode":   string(mode),
			"locale": locale,
			"plan":   plan,
		},
	}
}
