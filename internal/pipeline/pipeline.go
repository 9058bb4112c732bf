// Package pipeline drives one question through the fixed stage order
// Safety -> Route -> Retrieve -> Generate. The stages form a linear sequence
// over a typed state record: each stage is a transformation of the state,
// there are no cycles, and exactly one pass happens per question. A pre-set
// answer (safety escalation) makes the later stages pass state through
// unchanged.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
	"github.com/kirillkom/ul-rag-assistant/internal/observability/metrics"
)

const serviceName = "ul-rag"

type Pipeline struct {
	gate      ports.SafetyGate
	planner   ports.Planner
	retriever ports.DocRetriever
	generator ports.AnswerGenerator
	metrics   *metrics.PipelineMetrics
	logger    *slog.Logger
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(
	gate ports.SafetyGate,
	planner ports.Planner,
	retriever ports.DocRetriever,
	generator ports.AnswerGenerator,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		gate:      gate,
		planner:   planner,
		retriever: retriever,
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ask runs the full pipeline for one question. It never returns an error:
// every failure mode inside the stages degrades to a plain-language answer.
func (p *Pipeline) Ask(ctx context.Context, question string, mode domain.Mode, locale string) *domain.AskResult {
	if mode != domain.ModeStaff {
		mode = domain.ModeStudent
	}
	state := domain.PipelineState{
		Question: question,
		Mode:     mode,
		Locale:   locale,
		Meta:     map[string]any{},
	}

	state = p.safetyStage(state)
	state = p.routeStage(ctx, state)
	state = p.retrieveStage(ctx, state)
	state = p.generateStage(ctx, state)

	intent := "unknown"
	if state.Plan != nil {
		intent = string(state.Plan.QueryType)
	}
	p.metrics.QuestionHandled(serviceName, intent)

	return &domain.AskResult{
		Answer:    state.Answer,
		Citations: state.Citations,
		Meta:      state.Meta,
		Plan:      state.Plan,
	}
}

func (p *Pipeline) safetyStage(state domain.PipelineState) domain.PipelineState {
	defer p.observeStage("safety", time.Now())

	verdict := p.gate.Check(state.Question)
	if !verdict.Escalate {
		return state
	}
	p.metrics.Escalation()
	p.logger.Warn("safety_escalation", "reason", verdict.Reason)

	state.Answer = p.gate.EscalationMessage(state.Locale)
	state.Answered = true
	state.Citations = []domain.Citation{}
	state.Meta["escalation"] = verdict.Reason
	return state
}

// routeStage always runs; a post-escalation plan is harmless because the
// generate stage checks for a pre-set answer first.
func (p *Pipeline) routeStage(ctx context.Context, state domain.PipelineState) domain.PipelineState {
	defer p.observeStage("route", time.Now())

	plan := p.planner.Route(ctx, state.Question)
	state.Plan = &plan
	return state
}

func (p *Pipeline) retrieveStage(ctx context.Context, state domain.PipelineState) domain.PipelineState {
	defer p.observeStage("retrieve", time.Now())

	if state.Answered {
		return state
	}
	if state.Plan == nil || state.Plan.SkipsRetrieval() {
		state.Docs = []domain.RetrievedDoc{}
		return state
	}

	docs, err := p.retriever.Retrieve(ctx, state.Question, state.Plan.MaxChunks, state.Plan.RetrievalMode, state.Plan.DomainHint)
	if err != nil {
		p.logger.Warn("retrieve_stage_degraded", "error", err)
		state.Meta["retrieval_error"] = true
		docs = nil
	}
	if docs == nil {
		docs = []domain.RetrievedDoc{}
	}
	state.Docs = docs
	p.metrics.ObserveRetrieved(len(docs))
	return state
}

func (p *Pipeline) generateStage(ctx context.Context, state domain.PipelineState) domain.PipelineState {
	defer p.observeStage("generate", time.Now())

	if state.Answered {
		return state
	}

	queryType := domain.QueryGeneral
	if state.Plan != nil {
		queryType = state.Plan.QueryType
	}

	switch queryType {
	case domain.QueryChitchat:
		state.Answer = p.generator.AnswerChitchat(ctx, state.Question, state.Mode, state.Locale)
		state.Citations = []domain.Citation{}
		state.Meta["intent"] = "chitchat"
	case domain.QueryNonsense:
		state.Answer = p.generator.AnswerNonsense(ctx, state.Question, state.Mode, state.Locale)
		state.Citations = []domain.Citation{}
		state.Meta["intent"] = "nonsense"
	default:
		result := p.generator.Answer(ctx, state.Question, state.Docs, state.Mode, state.Locale)
		state.Answer = result.Answer
		state.Citations = result.Citations
		for k, v := range result.Meta {
			state.Meta[k] = v
		}
		if result.Meta["fallback"] != nil {
			p.metrics.ModelFallback(serviceName, "generator")
		}
	}
	state.Answered = true
	return state
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.ObserveStage(serviceName, stage, time.Since(start))
}
