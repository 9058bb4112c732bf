package ports

import (
	"context"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

// QuestionService is the inbound contract for answering one question through
// the full pipeline. It never returns an error: every failure mode degrades
// to a plain-language answer.
type QuestionService interface {
	Ask(ctx context.Context, question string, mode domain.Mode, locale string) *domain.AskResult
}

// Planner classifies a question into a query plan. Never fails; the rule-based
// fallback always produces a usable plan.
type Planner interface {
	Route(ctx context.Context, question string) domain.QueryPlan
}

// DocRetriever returns ranked supporting chunks for a query.
type DocRetriever interface {
	Retrieve(ctx context.Context, query string, maxChunks int, mode domain.RetrievalMode, domainHint string) ([]domain.RetrievedDoc, error)
}

// SafetyGate scans raw input for crisis-risk language.
type SafetyGate interface {
	Check(question string) domain.SafetyResult
	EscalationMessage(locale string) string
}

// AnswerGenerator produces the user-facing answer from retrieved context.
// The chitchat and nonsense paths never retrieve and never cite.
type AnswerGenerator interface {
	Answer(ctx context.Context, question string, docs []domain.RetrievedDoc, mode domain.Mode, locale string) domain.GenerationResult
	AnswerChitchat(ctx context.Context, question string, mode domain.Mode, locale string) string
	AnswerNonsense(ctx context.Context, question string, mode domain.Mode, locale string) string
}
