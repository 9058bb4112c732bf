package domain

// ChunkMeta carries the provenance of a corpus chunk. Source is the canonical
// identifier used in citations; Host and Path exist for domain-hint matching.
type ChunkMeta struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	Host   string `json:"host,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Chunk is a fixed slice of source text stored in the corpus index. Chunks are
// immutable once indexed; identity is the position in the index arrays.
type Chunk struct {
	Text string    `json:"text"`
	Meta ChunkMeta `json:"meta"`
}

// SourceRef returns the best available source identifier for citations.
func (m ChunkMeta) SourceRef() string {
	if m.Source != "" {
		return m.Source
	}
	if m.Path != "" {
		return m.Path
	}
	if m.Host != "" {
		return m.Host
	}
	return "document"
}

// RetrievedDoc is one retrieval result. Rank is 1-based in final order.
type RetrievedDoc struct {
	Text  string    `json:"text"`
	Meta  ChunkMeta `json:"meta"`
	Score float64   `json:"score"`
	Rank  int       `json:"rank"`
}

type Citation struct {
	N      int    `json:"n"`
	Source string `json:"source"`
}

// GenerationResult is the generator's output for a grounded answer.
type GenerationResult struct {
	Answer    string         `json:"answer"`
	Citations []Citation     `json:"citations"`
	Meta      map[string]any `json:"meta"`
}
