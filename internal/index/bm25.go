package index

import (
	"math"
	"strings"
	"unicode"
)

const (
	defaultBM25K1 = 1.2
	defaultBM25B  = 0.75
)

// Posting is one (document, term frequency) pair in the sparse model.
type Posting struct {
	Doc  int32
	Freq int32
}

// BM25 is the lexical ranking structure stored inside the corpus index
// artifact. All fields are exported for serialization; the model is read-only
// after Build.
type BM25 struct {
	K1        float64
	B         float64
	DocLens   []int32
	AvgDocLen float64
	Postings  map[string][]Posting
}

// BuildBM25 precomputes postings and document lengths over the chunk texts.
func BuildBM25(texts []string) *BM25 {
	m := &BM25{
		K1:       defaultBM25K1,
		B:        defaultBM25B,
		DocLens:  make([]int32, len(texts)),
		Postings: make(map[string][]Posting),
	}

	total := 0
	for doc, text := range texts {
		tokens := tokenizeAlphaNum(text)
		m.DocLens[doc] = int32(len(tokens))
		total += len(tokens)

		freq := make(map[string]int32, len(tokens))
		for _, token := range tokens {
			freq[token]++
		}
		for token, n := range freq {
			m.Postings[token] = append(m.Postings[token], Posting{Doc: int32(doc), Freq: n})
		}
	}
	if len(texts) > 0 {
		m.AvgDocLen = float64(total) / float64(len(texts))
	}
	return m
}

// Size returns the number of documents the model was built over.
func (m *BM25) Size() int {
	return len(m.DocLens)
}

// Scores computes the Okapi BM25 score of the query against every document.
// Unknown or empty queries produce an all-zero slice rather than failing.
func (m *BM25) Scores(query string) []float64 {
	scores := make([]float64, len(m.DocLens))
	tokens := tokenizeAlphaNum(query)
	if len(tokens) == 0 || m.AvgDocLen == 0 {
		return scores
	}

	n := float64(len(m.DocLens))
	for _, token := range tokens {
		postings, ok := m.Postings[token]
		if !ok {
			continue
		}
		df := float64(len(postings))
		idf := math.Log(1.0 + (n-df+0.5)/(df+0.5))
		for _, p := range postings {
			tf := float64(p.Freq)
			norm := 1.0 - m.B + m.B*float64(m.DocLens[p.Doc])/m.AvgDocLen
			scores[p.Doc] += idf * tf * (m.K1 + 1.0) / (tf + m.K1*norm)
		}
	}
	return scores
}

func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
