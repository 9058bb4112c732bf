package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type transport struct {
	httpClient *http.Client
	apiKey     string
}

func newTransport(timeout time.Duration, apiKey string) *transport {
	return &transport{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
	}
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "model service status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("model service %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("model service %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func (t *transport) postJSON(ctx context.Context, url string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model service %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
