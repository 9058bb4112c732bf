// Package chat keeps per-conversation state around the pipeline: an
// append-only turn history and a small contextual-query builder that lets
// pronoun references in follow-up questions resolve against recent topics.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
)

const contextUserTurns = 2

// Session is owned by exactly one logical conversation. Callers serialize
// access per session; independent sessions may run in parallel.
type Session struct {
	id     string
	mode   domain.Mode
	locale string

	pipeline ports.QuestionService
	store    ports.TurnStore
	logger   *slog.Logger

	history []domain.ChatTurn
	ensured bool
}

type Option func(*Session)

func WithSessionID(id string) Option {
	return func(s *Session) {
		if strings.TrimSpace(id) != "" {
			s.id = id
		}
	}
}

func WithMode(mode domain.Mode) Option {
	return func(s *Session) {
		if mode == domain.ModeStaff {
			s.mode = domain.ModeStaff
		}
	}
}

func WithLocale(locale string) Option {
	return func(s *Session) {
		if strings.TrimSpace(locale) != "" {
			s.locale = locale
		}
	}
}

// WithTurnStore persists turns append-only. Store failures are logged and do
// not interrupt the conversation; the in-memory history stays authoritative.
func WithTurnStore(store ports.TurnStore) Option {
	return func(s *Session) { s.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSession(pipeline ports.QuestionService, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		mode:     domain.ModeStudent,
		locale:   "IE",
		pipeline: pipeline,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask appends the raw user text to history, invokes the pipeline with a
// context-augmented query, and appends (and returns) the assistant turn.
func (s *Session) Ask(ctx context.Context, text string) domain.ChatTurn {
	// Build context before appending, so history holds only prior turns and
	// augmentation always works on the true conversation.
	augmented := s.buildQueryWithContext(text)

	userTurn := domain.ChatTurn{
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	}
	s.history = append(s.history, userTurn)
	s.persist(ctx, userTurn)

	resp := s.pipeline.Ask(ctx, augmented, s.mode, s.locale)

	answer := resp.Answer
	if strings.TrimSpace(answer) == "" {
		answer = "Sorry, I could not generate an answer."
	}
	assistantTurn := domain.ChatTurn{
		Role:      domain.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now().UTC(),
		Citations: resp.Citations,
		Meta:      resp.Meta,
	}
	s.history = append(s.history, assistantTurn)
	s.persist(ctx, assistantTurn)
	return assistantTurn
}

// buildQueryWithContext prepends up to the two most recent prior user turns,
// chronological order, then the current question.
func (s *Session) buildQueryWithContext(question string) string {
	prev := make([]string, 0, contextUserTurns)
	for i := len(s.history) - 1; i >= 0 && len(prev) < contextUserTurns; i-- {
		if s.history[i].Role == domain.RoleUser {
			prev = append(prev, s.history[i].Content)
		}
	}
	if len(prev) == 0 {
		return question
	}

	// Collected most-recent first; flip to chronological.
	for i, j := 0, len(prev)-1; i < j; i, j = i+1, j-1 {
		prev[i], prev[j] = prev[j], prev[i]
	}

	lines := make([]string, 0, len(prev)+2)
	if len(prev) == 1 {
		lines = append(lines, fmt.Sprintf("Previous question: %s", prev[0]))
	} else {
		lines = append(lines, "Previous questions:")
		for i, q := range prev {
			lines = append(lines, fmt.Sprintf("%d) %s", i+1, q))
		}
	}
	lines = append(lines, fmt.Sprintf("Current question: %s", question))
	return strings.Join(lines, "\n")
}

// Reset clears the conversation history. The only way turns ever leave a
// session.
func (s *Session) Reset() {
	s.history = nil
}

func (s *Session) SetMode(mode domain.Mode) {
	if mode == domain.ModeStaff {
		s.mode = domain.ModeStaff
		return
	}
	s.mode = domain.ModeStudent
}

func (s *Session) SetLocale(locale string) {
	if strings.TrimSpace(locale) != "" {
		s.locale = locale
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() domain.Mode {
	return s.mode
}

// History returns a copy of the conversation history.
func (s *Session) History() []domain.ChatTurn {
	out := make([]domain.ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) persist(ctx context.Context, turn domain.ChatTurn) {
	if s.store == nil {
		return
	}
	if !s.ensured {
		if err := s.store.EnsureSession(ctx, s.id, s.mode, s.locale); err != nil {
			s.logger.Warn("session_persist_failed", "op", "ensure", "session_id", s.id, "error", err)
			return
		}
		s.ensured = true
	}
	if err := s.store.AppendTurn(ctx, s.id, turn); err != nil {
		s.logger.Warn("session_persist_failed", "op", "append", "session_id", s.id, "error", err)
	}
}
