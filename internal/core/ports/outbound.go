package ports

import (
	"context"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

// Embedder turns query text into a fixed-dimension vector. Deterministic for
// a fixed model identifier.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CompletionService is the opaque language-model text completion contract.
// May fail at any call; every caller has a documented local fallback.
type CompletionService interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// CrossEncoder scores (query, text) pairs with a joint relevance model.
// Scores are returned in input order; higher means more relevant, with no
// fixed range guaranteed.
type CrossEncoder interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// TurnStore persists chat turns append-only per session.
type TurnStore interface {
	EnsureSession(ctx context.Context, sessionID string, mode domain.Mode, locale string) error
	AppendTurn(ctx context.Context, sessionID string, turn domain.ChatTurn) error
	ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.ChatTurn, error)
}
