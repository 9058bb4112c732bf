// Package safety implements the crisis gate that runs before any routing or
// retrieval. It is deliberately small: a fixed phrase list and a fixed,
// non-generated support message.
package safety

import (
	"strings"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

var crisisPhrases = []string{
	"suicide",
	"kill myself",
	"self-harm",
	"end my life",
}

type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// Check matches the lowercase question against the fixed crisis phrases.
func (g *Gate) Check(question string) domain.SafetyResult {
	lowered := strings.ToLower(question)
	for _, phrase := range crisisPhrases {
		if strings.Contains(lowered, phrase) {
			return domain.SafetyResult{Escalate: true, Reason: "crisis"}
		}
	}
	return domain.SafetyResult{}
}

// EscalationMessage returns the fixed support message. The locale parameter
// is accepted for forward compatibility; it does not vary the message yet.
func (g *Gate) EscalationMessage(_ string) string {
	return "I'm really sorry you're feeling this way. I'm not able to provide the help you deserve. " +
		"If you are at risk or suicidal please immediately contact the crisis liaison mental health team " +
		"at the University Hospital Limerick (061 301111), your local hospital, or your GP."
}
