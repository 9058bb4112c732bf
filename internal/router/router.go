// Package router classifies a question into a query plan: intent, topic,
// retrieval mode, chunk budget, and an optional preferred source domain. The
// primary path asks the language model for a JSON plan; a deterministic
// rule-based fallback guarantees a usable plan when the model is missing,
// fails, or returns garbage.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
)

const (
	defaultMaxChunks = 6

	// Canonical UL hosts used to nudge reranking for intents with a known
	// authoritative source.
	staffDirectoryDomain = "pure.ul.ie"
	mainSiteDomain       = "ul.ie"
)

type Router struct {
	llm    ports.CompletionService
	logger *slog.Logger
}

// New builds a router. A nil completion service is valid: every question then
// takes the rule-based fallback path.
func New(llm ports.CompletionService, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{llm: llm, logger: logger}
}

// Route never fails; all error paths fall back to the default plan.
func (r *Router) Route(ctx context.Context, question string) domain.QueryPlan {
	if r.llm == nil {
		r.logger.Warn("router_fallback", "reason", "no_completion_service")
		return r.defaultPlan(question)
	}

	raw, err := r.llm.Complete(ctx, classifierSystemPrompt, "USER MESSAGE:\n"+question, 0.0)
	if err != nil {
		r.logger.Warn("router_fallback", "reason", "completion_failed", "error", err)
		return r.defaultPlan(question)
	}

	plan, err := parsePlan(raw)
	if err != nil {
		r.logger.Warn("router_fallback", "reason", "plan_parse_failed", "error", err)
		return r.defaultPlan(question)
	}

	return postProcess(plan)
}

// postProcess applies deterministic defaults after classification: intents
// with a known canonical host get a domain hint unless the model set one.
func postProcess(plan domain.QueryPlan) domain.QueryPlan {
	if plan.DomainHint == "" {
		switch plan.QueryType {
		case domain.QueryWhoIs:
			plan.DomainHint = staffDirectoryDomain
		case domain.QueryCampusDirections:
			plan.DomainHint = mainSiteDomain
		}
	}
	return plan
}

// defaultPlan is the rule-based fallback: hybrid retrieval, general intent,
// topic derived from simple keyword containment.
func (r *Router) defaultPlan(question string) domain.QueryPlan {
	lowered := strings.ToLower(question)
	topic := ""
	switch {
	case strings.Contains(lowered, "lero"):
		topic = "lero"
	case strings.Contains(lowered, "csis"):
		topic = "csis"
	case strings.Contains(lowered, "accommodation"):
		topic = "accommodation"
	}
	return domain.QueryPlan{
		QueryType:     domain.QueryGeneral,
		Topic:         topic,
		RetrievalMode: domain.RetrievalHybrid,
		MaxChunks:     defaultMaxChunks,
	}
}

type rawPlan struct {
	QueryType     string `json:"query_type"`
	Topic         any    `json:"topic"`
	NeedsMultiHop bool   `json:"needs_multi_hop"`
	RetrievalMode string `json:"retrieval_mode"`
	MaxChunks     any    `json:"max_chunks"`
	DomainHint    any    `json:"domain_hint"`
}

// parsePlan attempts a strict JSON parse first; the first-{...}-span scan is
// only a compatibility shim for models that wrap the object in prose.
func parsePlan(content string) (domain.QueryPlan, error) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return domain.QueryPlan{}, fmt.Errorf("empty classifier output")
	}

	var parsed rawPlan
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		span, ok := jsonObjectSpan(raw)
		if !ok {
			return domain.QueryPlan{}, fmt.Errorf("no JSON object in classifier output")
		}
		if err := json.Unmarshal([]byte(span), &parsed); err != nil {
			return domain.QueryPlan{}, fmt.Errorf("unmarshal classifier output: %w", err)
		}
	}

	plan := domain.QueryPlan{
		QueryType:     domain.QueryGeneral,
		Topic:         coerceString(parsed.Topic),
		NeedsMultiHop: parsed.NeedsMultiHop,
		RetrievalMode: domain.RetrievalHybrid,
		MaxChunks:     coerceInt(parsed.MaxChunks, defaultMaxChunks),
		DomainHint:    coerceString(parsed.DomainHint),
	}
	if domain.ValidQueryType(parsed.QueryType) {
		plan.QueryType = domain.QueryType(parsed.QueryType)
	}
	if domain.ValidRetrievalMode(parsed.RetrievalMode) {
		plan.RetrievalMode = domain.RetrievalMode(parsed.RetrievalMode)
	}
	if plan.MaxChunks <= 0 {
		plan.MaxChunks = defaultMaxChunks
	}
	return plan, nil
}

func jsonObjectSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func coerceInt(v any, fallback int) int {
	switch typed := v.(type) {
	case float64:
		return int(typed)
	case int:
		return typed
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return fallback
		}
		return n
	default:
		return fallback
	}
}
