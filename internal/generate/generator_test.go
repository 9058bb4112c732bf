package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

type fakeCompletion struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompletion) Complete(_ context.Context, _, _ string, _ float64) (string, error) {
	f.calls++
	return f.reply, f.err
}

func docsFixture() []domain.RetrievedDoc {
	return []domain.RetrievedDoc{
		{Text: "Spring exams begin March 3rd and run for two weeks.", Meta: domain.ChunkMeta{Source: "ul.ie/exams"}, Rank: 1},
		{Text: "Repeat exams take place in late August.", Meta: domain.ChunkMeta{Source: "ul.ie/repeats"}, Rank: 2},
	}
}

func TestAnswerNoDocsSkipsModel(t *testing.T) {
	llm := &fakeCompletion{reply: "should not be used"}
	g := New(llm, Config{ModelName: "test-model"}, nil)

	result := g.Answer(context.Background(), "when do exams start?", nil, domain.ModeStudent, "IE")
	if result.Answer != noDocsMessage {
		t.Fatalf("Answer = %q, want the fixed no-documents message", result.Answer)
	}
	if llm.calls != 0 {
		t.Fatalf("llm.calls = %d, want 0 with no docs", llm.calls)
	}
	if len(result.Citations) != 0 {
		t.Fatalf("Citations = %v, want empty", result.Citations)
	}
	if result.Meta["ctx"] != 0 {
		t.Fatalf("Meta[ctx] = %v, want 0", result.Meta["ctx"])
	}
}

func TestAnswerUnreadableDocs(t *testing.T) {
	llm := &fakeCompletion{reply: "should not be used"}
	g := New(llm, Config{}, nil)

	docs := []domain.RetrievedDoc{
		{Text: "   \n\t  ", Meta: domain.ChunkMeta{Source: "ul.ie/a"}},
		{Text: "", Meta: domain.ChunkMeta{Source: "ul.ie/b"}},
	}
	result := g.Answer(context.Background(), "q", docs, domain.ModeStudent, "IE")
	if result.Answer != unreadableDocsMessage {
		t.Fatalf("Answer = %q, want the unreadable-documents message", result.Answer)
	}
	if llm.calls != 0 {
		t.Fatalf("llm.calls = %d, want 0", llm.calls)
	}
	if result.Meta["unreadable"] != 2 {
		t.Fatalf("Meta[unreadable] = %v, want 2", result.Meta["unreadable"])
	}
}

func TestAnswerGroundedPath(t *testing.T) {
	llm := &fakeCompletion{reply: "Exams start on March 3rd [1]."}
	g := New(llm, Config{ModelName: "test-model"}, nil)

	result := g.Answer(context.Background(), "when do exams start?", docsFixture(), domain.ModeStudent, "IE")
	if result.Answer != "Exams start on March 3rd [1]." {
		t.Fatalf("Answer = %q", result.Answer)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("len(Citations) = %d, want 2", len(result.Citations))
	}
	if result.Citations[0].N != 1 || result.Citations[0].Source != "ul.ie/exams" {
		t.Fatalf("Citations[0] = %+v, want {1 ul.ie/exams}", result.Citations[0])
	}
	if result.Meta["model"] != "test-model" {
		t.Fatalf("Meta[model] = %v, want test-model", result.Meta["model"])
	}
}

func TestAnswerFallsBackToExtractiveOnModelFailure(t *testing.T) {
	llm := &fakeCompletion{err: errors.New("model down")}
	g := New(llm, Config{ModelName: "test-model"}, nil)

	result := g.Answer(context.Background(), "when do exams start?", docsFixture(), domain.ModeStudent, "IE")
	if !strings.Contains(result.Answer, "I can't use the language model right now.") {
		t.Fatalf("Answer = %q, want extractive fallback preamble", result.Answer)
	}
	if !strings.Contains(result.Answer, "From source 1 (ul.ie/exams): Spring exams begin March 3rd") {
		t.Fatalf("Answer = %q, want verbatim snippet with source", result.Answer)
	}
	if result.Meta["fallback"] != "extractive" {
		t.Fatalf("Meta[fallback] = %v, want extractive", result.Meta["fallback"])
	}
	if len(result.Citations) != 2 {
		t.Fatalf("len(Citations) = %d, want citations kept on fallback", len(result.Citations))
	}
}

func TestAnswerNilModelUsesExtractiveFallback(t *testing.T) {
	g := New(nil, Config{}, nil)

	result := g.Answer(context.Background(), "q", docsFixture(), domain.ModeStaff, "IE")
	if !strings.Contains(result.Answer, "I can't use the language model right now.") {
		t.Fatalf("Answer = %q, want extractive fallback", result.Answer)
	}
	if result.Meta["model"] != nil {
		t.Fatalf("Meta[model] = %v, want nil", result.Meta["model"])
	}
}

func TestAnswerChitchatCannedWhenModelFails(t *testing.T) {
	g := New(&fakeCompletion{err: errors.New("down")}, Config{}, nil)

	answer := g.AnswerChitchat(context.Background(), "hi there", domain.ModeStudent, "IE")
	if !strings.Contains(answer, "University of Limerick assistant") {
		t.Fatalf("answer = %q, want the canned greeting", answer)
	}
}

func TestAnswerNonsenseNeverAssertsFacts(t *testing.T) {
	g := New(nil, Config{}, nil)

	answer := g.AnswerNonsense(context.Background(), "florble grabble", domain.ModeStudent, "IE")
	if !strings.Contains(answer, "not sure what you meant") {
		t.Fatalf("answer = %q, want the canned clarification", answer)
	}
}

func TestShortenCutsAtWordBoundary(t *testing.T) {
	got := shorten("the quick brown fox jumps over the lazy dog", 15)
	if got != "the quick…" {
		t.Fatalf("shorten() = %q, want %q", got, "the quick…")
	}
	if full := shorten("short", 15); full != "short" {
		t.Fatalf("shorten() = %q, want unchanged", full)
	}
}

func TestShortenKeepsMultibyteTextValid(t *testing.T) {
	got := shorten(strings.Repeat("€", 400), 350)
	if !utf8.ValidString(got) {
		t.Fatalf("shorten() produced invalid UTF-8: %q", got[len(got)-12:])
	}
	if n := utf8.RuneCountInString(got); n != 351 {
		t.Fatalf("shorten() rune count = %d, want 350 plus the ellipsis", n)
	}

	mixed := shorten("exámenes de primavera Ollscoil Luimnigh "+strings.Repeat("é", 600), 550)
	if !utf8.ValidString(mixed) {
		t.Fatalf("shorten() produced invalid UTF-8 on mixed text")
	}
	if utf8.RuneCountInString(mixed) > 551 {
		t.Fatalf("shorten() rune count = %d, want at most 551", utf8.RuneCountInString(mixed))
	}
}

func TestStripFrontMatter(t *testing.T) {
	text := "---\ntitle: Exams\n---\nSpring exams begin March 3rd."
	got := stripFrontMatter(text)
	if strings.Contains(got, "title:") {
		t.Fatalf("stripFrontMatter() = %q, front matter not removed", got)
	}
	if !strings.Contains(got, "Spring exams begin") {
		t.Fatalf("stripFrontMatter() = %q, body lost", got)
	}

	plain := "No front matter here."
	if got := stripFrontMatter(plain); got != plain {
		t.Fatalf("stripFrontMatter() = %q, want unchanged", got)
	}
}

func TestFormatContextNumbersSnippets(t *testing.T) {
	items := []contextItem{
		{snippet: "first snippet", source: "ul.ie/a"},
		{snippet: "second snippet", source: "ul.ie/b"},
	}
	block, cites := formatContext(items)
	if !strings.Contains(block, "[1] first snippet") || !strings.Contains(block, "(Source: ul.ie/a)") {
		t.Fatalf("block = %q", block)
	}
	if len(cites) != 2 || cites[1].N != 2 || cites[1].Source != "ul.ie/b" {
		t.Fatalf("cites = %+v", cites)
	}
}
