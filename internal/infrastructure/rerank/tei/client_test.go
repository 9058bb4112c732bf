package tei

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

func TestScoreMapsResultsToInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.RawScores {
			t.Fatal("raw_scores must be requested")
		}
		// Service replies ranked best-first, not in input order.
		_, _ = w.Write([]byte(`[{"index":2,"score":0.9},{"index":0,"score":0.4},{"index":1,"score":0.1}]`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL})
	scores, err := client.Score(context.Background(), "exam dates", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	want := []float64{0.4, 0.1, 0.9}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("scores = %v, want %v", scores, want)
		}
	}
}

func TestScoreRejectsOutOfRangeIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"index":5,"score":0.9}]`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL})
	_, err := client.Score(context.Background(), "q", []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("error = %v, want ErrModelUnavailable", err)
	}
}

func TestScoreEmptyTextsSkipsRequest(t *testing.T) {
	client := New(Options{BaseURL: "http://127.0.0.1:0"})
	scores, err := client.Score(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if scores != nil {
		t.Fatalf("scores = %v, want nil", scores)
	}
}

func TestScoreWrapsServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL})
	_, err := client.Score(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("error = %v, want ErrModelUnavailable", err)
	}
}
