// Package index holds the immutable corpus index: chunk texts with metadata,
// unit-normalized dense embeddings aligned 1:1 with the chunks, and the BM25
// sparse model. The index is built offline, loaded read-only at startup, and
// replaced wholesale on reload, never mutated in place.
package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

type CorpusIndex struct {
	Chunks     []domain.Chunk
	Embeddings [][]float32
	Sparse     *BM25
}

// Build constructs an index from chunks and their embeddings. Embedding
// vectors are normalized to unit length so a dot product equals cosine
// similarity at query time.
func Build(chunks []domain.Chunk, embeddings [][]float32) (*CorpusIndex, error) {
	if len(chunks) != len(embeddings) {
		return nil, domain.WrapError(
			domain.ErrIndexCorrupt,
			"build index",
			fmt.Errorf("embeddings count %d != chunks count %d", len(embeddings), len(chunks)),
		)
	}

	normalized := make([][]float32, len(embeddings))
	for i, vec := range embeddings {
		normalized[i] = normalize(vec)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	return &CorpusIndex{
		Chunks:     chunks,
		Embeddings: normalized,
		Sparse:     BuildBM25(texts),
	}, nil
}

// Load reads an index artifact from disk. A missing file surfaces as
// ErrIndexNotFound, a truncated or inconsistent artifact as ErrIndexCorrupt.
// This is a one-time blocking operation; the result is immutable shared state.
func Load(path string) (*CorpusIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrIndexNotFound, "load index", err)
		}
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer f.Close()

	var ix CorpusIndex
	if err := gob.NewDecoder(f).Decode(&ix); err != nil {
		return nil, domain.WrapError(domain.ErrIndexCorrupt, "decode index", err)
	}
	if err := ix.validate(); err != nil {
		return nil, err
	}
	return &ix, nil
}

// Save writes the artifact atomically: encode to a temp file, then rename.
func (ix *CorpusIndex) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(ix); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

func (ix *CorpusIndex) Len() int {
	return len(ix.Chunks)
}

func (ix *CorpusIndex) validate() error {
	if len(ix.Embeddings) != len(ix.Chunks) {
		return domain.WrapError(
			domain.ErrIndexCorrupt,
			"validate index",
			fmt.Errorf("embeddings count %d != chunks count %d", len(ix.Embeddings), len(ix.Chunks)),
		)
	}
	if ix.Sparse == nil || ix.Sparse.Size() != len(ix.Chunks) {
		size := 0
		if ix.Sparse != nil {
			size = ix.Sparse.Size()
		}
		return domain.WrapError(
			domain.ErrIndexCorrupt,
			"validate index",
			fmt.Errorf("sparse model size %d != chunks count %d", size, len(ix.Chunks)),
		)
	}
	return nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		copy(out, vec)
		return out
	}
	inv := 1.0 / math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}
