package openai

import (
	"context"
	"errors"
	"net"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/resilience"
)

// classifyModelError decides retry and breaker behavior for model calls.
// Context cancellations never count against the breaker; server-side and
// network failures do, and the retryable subset gets backed-off retries.
func classifyModelError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ErrorClassification{
			Retryable:     isRetryableHTTPStatus(statusErr.StatusCode),
			RecordFailure: statusErr.StatusCode >= 500 || statusErr.StatusCode == 429,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	// Connection-level failures without a typed error, e.g. refused dials.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func isRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func wrapModelError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrModelUnavailable, operation, err)
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 500 || statusErr.StatusCode == 429 {
			return domain.WrapError(domain.ErrTemporary, operation, err)
		}
		return domain.WrapError(domain.ErrModelUnavailable, operation, err)
	}

	return domain.WrapError(domain.ErrTemporary, operation, err)
}
