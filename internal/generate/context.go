package generate

import (
	"fmt"
	"strings"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

// contextItem is one usable snippet after normalization. Docs with no text at
// all are skipped rather than errored.
type contextItem struct {
	snippet string
	source  string
}

func usableItems(docs []domain.RetrievedDoc, maxChars int) []contextItem {
	items := make([]contextItem, 0, len(docs))
	for _, doc := range docs {
		snippet := shorten(stripFrontMatter(doc.Text), maxChars)
		if snippet == "" {
			continue
		}
		items = append(items, contextItem{snippet: snippet, source: doc.Meta.SourceRef()})
	}
	return items
}

// formatContext renders numbered snippet-with-source blocks and the matching
// citation records.
func formatContext(items []contextItem) (string, []domain.Citation) {
	var b strings.Builder
	cites := make([]domain.Citation, 0, len(items))
	for i, item := range items {
		n := i + 1
		fmt.Fprintf(&b, "[%d] %s\n(Source: %s)\n\n", n, item.snippet, item.source)
		cites = append(cites, domain.Citation{N: n, Source: item.source})
	}
	return strings.TrimRight(b.String(), "\n"), cites
}

// stripFrontMatter drops a leading ----delimited front-matter block if one
// is present; otherwise the text is returned unchanged.
func stripFrontMatter(text string) string {
	stripped := strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(stripped, "---") {
		return text
	}
	parts := strings.SplitN(stripped, "---", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return text
}

// shorten collapses whitespace and truncates at a word boundary. maxChars
// counts runes, not bytes, so multibyte text is never cut mid-rune.
func shorten(text string, maxChars int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	cut := string(runes[:maxChars])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
