// Package tei calls a text-embeddings-inference rerank endpoint to score
// query/passage relevance with a cross-encoder model.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   opts.Executor,
	}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score returns one relevance score per input text, in input order.
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := rerankRequest{Query: query, Texts: texts, RawScores: true}
	var results []rerankResult

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, c.baseURL+"/rerank", request, &results)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "tei.rerank", call, classifyRerankError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "rerank", err)
	}

	scores := make([]float64, len(texts))
	for _, result := range results {
		if result.Index < 0 || result.Index >= len(texts) {
			return nil, domain.WrapError(domain.ErrModelUnavailable, "rerank",
				fmt.Errorf("result index %d out of range for %d texts", result.Index, len(texts)))
		}
		scores[result.Index] = result.Score
	}
	return scores, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{status: resp.Status, code: resp.StatusCode, body: string(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rerank response: %w", err)
	}
	return nil
}

type statusError struct {
	status string
	code   int
	body   string
}

func (e *statusError) Error() string {
	if strings.TrimSpace(e.body) == "" {
		return fmt.Sprintf("rerank status: %s", e.status)
	}
	return fmt.Sprintf("rerank status: %s: %s", e.status, strings.TrimSpace(e.body))
}

func classifyRerankError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var sErr *statusError
	if errors.As(err, &sErr) {
		retryable := sErr.code == 429 || sErr.code >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
