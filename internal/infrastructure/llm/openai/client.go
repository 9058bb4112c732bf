// Package openai is the HTTP client for an OpenAI-compatible model service:
// chat completions for text generation and the embeddings endpoint for query
// vectors. Calls go through the shared resilience executor and an outbound
// rate limiter; any final failure is reported to callers, who all have local
// fallbacks.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string

	transport *transport
	executor  *resilience.Executor
	limiter   *rate.Limiter
}

type Options struct {
	BaseURL    string
	APIKey     string
	GenModel   string
	EmbedModel string

	Timeout time.Duration
	// CompletionRPS bounds outbound completion calls; zero disables limiting.
	CompletionRPS float64
	Executor      *resilience.Executor
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if opts.CompletionRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.CompletionRPS), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		genModel:   opts.GenModel,
		embedModel: opts.EmbedModel,
		transport:  newTransport(timeout, opts.APIKey),
		executor:   opts.Executor,
		limiter:    limiter,
	}
}

func (c *Client) GenModel() string {
	return c.genModel
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends one system+user exchange and returns the model text.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("completion rate limit: %w", err)
		}
	}

	request := map[string]any{
		"model": c.genModel,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		"temperature": temperature,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "/v1/chat/completions", request, &response, "complete"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrModelUnavailable, "complete", fmt.Errorf("empty choices"))
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// Embed builds vectors for a batch of texts.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/v1/embeddings", request, &response, "embed"); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(response.Data))
	for _, item := range response.Data {
		out = append(out, item.Embedding)
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any, operation string) error {
	call := func(callCtx context.Context) error {
		return c.transport.postJSON(callCtx, c.baseURL+path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai."+operation, call, classifyModelError)
	} else {
		err = call(ctx)
	}
	return wrapModelError(operation, err)
}
