package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

type fakeEncoder struct {
	scores []float64
	err    error
	calls  int
}

func (f *fakeEncoder) Score(_ context.Context, _ string, texts []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.scores != nil {
		return f.scores, nil
	}
	out := make([]float64, len(texts))
	return out, nil
}

func TestRerankOrdersByEncoderScore(t *testing.T) {
	encoder := &fakeEncoder{scores: []float64{0.1, 0.9, 0.4}}
	r := NewReranker(encoder, 0.2, nil)

	candidates := []domain.Chunk{
		{Text: "a"}, {Text: "b"}, {Text: "c"},
	}
	got := r.Rerank(context.Background(), "q", candidates, "")
	if got[0].Text != "b" || got[1].Text != "c" || got[2].Text != "a" {
		t.Fatalf("order = [%s %s %s], want [b c a]", got[0].Text, got[1].Text, got[2].Text)
	}
}

func TestRerankAddsExactDomainBias(t *testing.T) {
	encoder := &fakeEncoder{scores: []float64{0.5, 0.5}}
	r := NewReranker(encoder, 0.2, nil)

	candidates := []domain.Chunk{
		{Text: "off-domain", Meta: domain.ChunkMeta{Host: "example.org"}},
		{Text: "on-domain", Meta: domain.ChunkMeta{Host: "pure.ul.ie"}},
	}
	got := r.Rerank(context.Background(), "q", candidates, "pure.ul.ie")

	if got[0].Text != "on-domain" {
		t.Fatalf("got[0].Text = %q, want the hinted chunk first", got[0].Text)
	}
	if diff := got[0].Score - got[1].Score; diff < 0.2-1e-12 || diff > 0.2+1e-12 {
		t.Fatalf("score gap = %v, want exactly the 0.2 bias", diff)
	}
}

func TestRerankZeroBiasDisablesHintNudge(t *testing.T) {
	encoder := &fakeEncoder{scores: []float64{0.5, 0.5}}
	r := NewReranker(encoder, 0, nil)

	candidates := []domain.Chunk{
		{Text: "off-domain", Meta: domain.ChunkMeta{Host: "example.org"}},
		{Text: "on-domain", Meta: domain.ChunkMeta{Host: "pure.ul.ie"}},
	}
	got := r.Rerank(context.Background(), "q", candidates, "pure.ul.ie")

	if got[0].Score != got[1].Score {
		t.Fatalf("scores = %v and %v, want equal when bias is zero", got[0].Score, got[1].Score)
	}
	if got[0].Text != "off-domain" {
		t.Fatalf("got[0].Text = %q, want incoming order kept on equal scores", got[0].Text)
	}
}

func TestRerankNegativeBiasUsesDefault(t *testing.T) {
	r := NewReranker(&fakeEncoder{scores: []float64{0.5, 0.5}}, -1, nil)
	if r.bias != defaultDomainBias {
		t.Fatalf("bias = %v, want the default %v", r.bias, defaultDomainBias)
	}
}

func TestRerankHintMatchesPathAndSource(t *testing.T) {
	r := NewReranker(&fakeEncoder{scores: []float64{0, 0}}, 0.2, nil)

	candidates := []domain.Chunk{
		{Text: "by-path", Meta: domain.ChunkMeta{Path: "/courses/ul.ie/cs"}},
		{Text: "no-match", Meta: domain.ChunkMeta{Source: "tcd.ie/cs"}},
	}
	got := r.Rerank(context.Background(), "q", candidates, "UL.IE")
	if got[0].Text != "by-path" {
		t.Fatalf("got[0].Text = %q, want case-insensitive path match first", got[0].Text)
	}
}

func TestRerankFallsBackToIncomingOrderOnEncoderFailure(t *testing.T) {
	encoder := &fakeEncoder{err: errors.New("scorer down")}
	r := NewReranker(encoder, 0.2, nil)

	candidates := []domain.Chunk{{Text: "first"}, {Text: "second"}, {Text: "third"}}
	got := r.Rerank(context.Background(), "q", candidates, "")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Fatalf("got[%d].Text = %q, want %q (fused order preserved)", i, got[i].Text, want)
		}
	}
	if got[0].Score <= got[1].Score || got[1].Score <= got[2].Score {
		t.Fatalf("fallback scores must strictly decrease, got %v %v %v", got[0].Score, got[1].Score, got[2].Score)
	}
}

func TestRerankNilEncoderPreservesOrder(t *testing.T) {
	r := NewReranker(nil, 0.2, nil)

	candidates := []domain.Chunk{{Text: "x"}, {Text: "y"}}
	got := r.Rerank(context.Background(), "q", candidates, "")
	if got[0].Text != "x" || got[1].Text != "y" {
		t.Fatalf("order changed without an encoder: %v", got)
	}
}

func TestRerankEmptyCandidates(t *testing.T) {
	r := NewReranker(&fakeEncoder{}, 0.2, nil)
	if got := r.Rerank(context.Background(), "q", nil, ""); got != nil {
		t.Fatalf("Rerank(nil) = %v, want nil", got)
	}
}
