// Package generate turns retrieved chunks into a grounded answer with
// citations. Every failure path degrades to a deterministic message: missing
// documents, unreadable documents, and model-service outages are answer
// variants, never errors.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
)

const (
	defaultSnippetChars         = 550
	defaultFallbackSnippetChars = 350
	fallbackDocCount            = 3

	groundedTemperature = 0.3
	chitchatTemperature = 0.6
	nonsenseTemperature = 0.3
)

const noDocsMessage = "Sorry, I couldn't find any University of Limerick documents clearly " +
	"related to that question. Try rephrasing it, or check the official UL website or department directly."

const unreadableDocsMessage = "I found University of Limerick documents for that question but " +
	"couldn't read usable text from any of them. Try rephrasing the question."

type Config struct {
	// ModelName is recorded in answer meta; empty means no model configured.
	ModelName            string
	SnippetChars         int
	FallbackSnippetChars int
}

type Generator struct {
	llm    ports.CompletionService
	cfg    Config
	logger *slog.Logger
}

// New builds a generator. A nil completion service is valid: grounded answers
// then always take the extractive fallback and the small-talk paths return
// canned replies.
func New(llm ports.CompletionService, cfg Config, logger *slog.Logger) *Generator {
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = defaultSnippetChars
	}
	if cfg.FallbackSnippetChars <= 0 {
		cfg.FallbackSnippetChars = defaultFallbackSnippetChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, cfg: cfg, logger: logger}
}

// Answer produces the grounded answer for a question and its retrieved docs.
// With no docs it returns the fixed no-documents message without touching the
// model service.
func (g *Generator) Answer(
	ctx context.Context,
	question string,
	docs []domain.RetrievedDoc,
	mode domain.Mode,
	locale string,
) domain.GenerationResult {
	if len(docs) == 0 {
		return domain.GenerationResult{
			Answer:    noDocsMessage,
			Citations: []domain.Citation{},
			Meta:      map[string]any{"ctx": 0},
		}
	}

	items := usableItems(docs, g.cfg.SnippetChars)
	if len(items) == 0 {
		return domain.GenerationResult{
			Answer:    unreadableDocsMessage,
			Citations: []domain.Citation{},
			Meta:      map[string]any{"ctx": 0, "unreadable": len(docs)},
		}
	}

	contextBlock, cites := formatContext(items)
	system := studentSystemPrompt
	if mode == domain.ModeStaff {
		system = staffSystemPrompt
	}

	answer, usedModel := g.completeOrFallback(ctx, system, buildUserPrompt(question, contextBlock), docs)

	meta := map[string]any{"ctx": len(items), "locale": locale}
	if usedModel {
		meta["model"] = g.cfg.ModelName
	} else {
		meta["model"] = nil
		meta["fallback"] = "extractive"
	}
	return domain.GenerationResult{Answer: answer, Citations: cites, Meta: meta}
}

func (g *Generator) completeOrFallback(
	ctx context.Context,
	system, user string,
	docs []domain.RetrievedDoc,
) (string, bool) {
	if g.llm == nil {
		g.logger.Warn("generator_fallback", "reason", "no_completion_service")
		return g.extractiveFallback(docs), false
	}
	answer, err := g.llm.Complete(ctx, system, user, groundedTemperature)
	if err != nil || strings.TrimSpace(answer) == "" {
		g.logger.Warn("generator_fallback", "reason", "completion_failed", "error", err)
		return g.extractiveFallback(docs), false
	}
	return strings.TrimSpace(answer), true
}

// extractiveFallback concatenates shortened snippets of the top docs with
// their sources. It never invents content beyond verbatim-truncated text.
func (g *Generator) extractiveFallback(docs []domain.RetrievedDoc) string {
	top := docs
	if len(top) > fallbackDocCount {
		top = top[:fallbackDocCount]
	}
	snippets := make([]string, 0, len(top))
	for i, doc := range top {
		snippet := shorten(stripFrontMatter(doc.Text), g.cfg.FallbackSnippetChars)
		if snippet == "" {
			continue
		}
		snippets = append(snippets, fmt.Sprintf("From source %d (%s): %s", i+1, doc.Meta.SourceRef(), snippet))
	}
	joined := "(no text available)"
	if len(snippets) > 0 {
		joined = strings.Join(snippets, "\n\n")
	}
	return "I can't use the language model right now.\n\n" +
		"Here is a short summary of the most relevant University of Limerick information I could find:\n\n" +
		joined
}

// AnswerChitchat handles greetings and small talk: no retrieval, no citations.
func (g *Generator) AnswerChitchat(ctx context.Context, question string, mode domain.Mode, _ string) string {
	canned := "Hi! I'm the University of Limerick assistant. Ask me anything about UL whenever you're ready."
	if mode == domain.ModeStaff {
		canned = "Hello. I'm the University of Limerick assistant. Let me know if you have any UL-related questions."
	}
	if g.llm == nil {
		return canned
	}
	answer, err := g.llm.Complete(ctx, chitchatSystemPrompt, question, chitchatTemperature)
	if err != nil || strings.TrimSpace(answer) == "" {
		g.logger.Warn("generator_fallback", "reason", "chitchat_completion_failed", "error", err)
		return canned
	}
	return strings.TrimSpace(answer)
}

// AnswerNonsense states the input was not understood. It must never assert
// domain facts.
func (g *Generator) AnswerNonsense(ctx context.Context, question string, _ domain.Mode, _ string) string {
	canned := "I'm not sure what you meant there. " +
		"I can help with questions about the University of Limerick if you'd like to ask one."
	if g.llm == nil {
		return canned
	}
	answer, err := g.llm.Complete(ctx, nonsenseSystemPrompt, question, nonsenseTemperature)
	if err != nil || strings.TrimSpace(answer) == "" {
		g.logger.Warn("generator_fallback", "reason", "nonsense_completion_failed", "error", err)
		return canned
	}
	return strings.TrimSpace(answer)
}
