package index

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{Text: "exam timetable for spring semester", Meta: domain.ChunkMeta{Source: "ul.ie/exams"}},
		{Text: "library opening hours", Meta: domain.ChunkMeta{Source: "ul.ie/library"}},
	}
}

func TestBuildNormalizesEmbeddings(t *testing.T) {
	ix, err := Build(testChunks(), [][]float32{{3, 4}, {0, 2}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for i, vec := range ix.Embeddings {
		var sum float64
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Fatalf("embedding %d norm^2 = %v, want 1", i, sum)
		}
	}
	if ix.Sparse == nil || ix.Sparse.Size() != 2 {
		t.Fatalf("sparse model missing or wrong size")
	}
}

func TestBuildRejectsCountMismatch(t *testing.T) {
	_, err := Build(testChunks(), [][]float32{{1, 0}})
	if err == nil {
		t.Fatal("Build() expected error on count mismatch")
	}
	if !domain.IsKind(err, domain.ErrIndexCorrupt) {
		t.Fatalf("Build() error = %v, want ErrIndexCorrupt", err)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	ix, err := Build(testChunks(), [][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "corpus.idx")
	if err := ix.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}
	if loaded.Chunks[0].Meta.Source != "ul.ie/exams" {
		t.Fatalf("Chunks[0].Meta.Source = %q", loaded.Chunks[0].Meta.Source)
	}
	if loaded.Sparse.Scores("library")[1] <= 0 {
		t.Fatal("sparse model did not survive the round trip")
	}
}

func TestLoadMissingFileIsNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.idx"))
	if !domain.IsKind(err, domain.ErrIndexNotFound) {
		t.Fatalf("Load() error = %v, want ErrIndexNotFound", err)
	}
}

func TestLoadGarbageFileIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.idx")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := Load(path)
	if !domain.IsKind(err, domain.ErrIndexCorrupt) {
		t.Fatalf("Load() error = %v, want ErrIndexCorrupt", err)
	}
}

func TestManagerReloadKeepsOldIndexOnFailure(t *testing.T) {
	ix, err := Build(testChunks(), [][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "corpus.idx")
	if err := ix.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	before := m.Current()

	if err := os.WriteFile(path, []byte("truncated"), 0o644); err != nil {
		t.Fatalf("corrupt fixture: %v", err)
	}
	if err := m.Reload(); err == nil {
		t.Fatal("Reload() expected error on corrupt artifact")
	}
	if m.Current() != before {
		t.Fatal("Reload() failure must keep the previous index")
	}
}

func TestManagerReloadSwapsOnSuccess(t *testing.T) {
	ix, err := Build(testChunks(), [][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "corpus.idx")
	if err := ix.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	bigger, err := Build(append(testChunks(), domain.Chunk{Text: "parking permits"}), [][]float32{{1, 0}, {0, 1}, {1, 1}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := bigger.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if m.Current().Len() != 3 {
		t.Fatalf("Current().Len() = %d, want 3 after reload", m.Current().Len())
	}
}
