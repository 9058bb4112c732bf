// Package resilience wraps outbound calls with bounded retries and a
// per-operation circuit breaker. Model endpoints, the rerank service and the
// message bus all route through one shared executor so their failure policy
// lives in one place.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassification tells the executor how to treat one failure: whether
// another attempt may succeed, and whether the breaker should count it.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

type Executor struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(cfg Config) *Executor {
	return NewExecutorWithLogger(cfg, nil)
}

func NewExecutorWithLogger(cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		cfg:      cfg.normalize(),
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = conservativeClassifier
	}

	if !e.cfg.BreakerEnabled {
		return e.retryLoop(ctx, op, fn, classifier)
	}

	breaker := e.breakerFor(op, classifier)
	_, err := breaker.Execute(func() (any, error) {
		return nil, e.retryLoop(ctx, op, fn, classifier)
	})
	return err
}

func (e *Executor) retryLoop(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	delay := e.cfg.RetryInitialBackoff

	var lastErr error
	for attempt := 1; attempt <= e.cfg.RetryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !classifier(lastErr).Retryable || attempt == e.cfg.RetryMaxAttempts {
			return lastErr
		}

		e.logger.Warn("operation_retry",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff", delay.String(),
			"error", lastErr,
		)
		if !sleepContext(ctx, delay) {
			return lastErr
		}
		delay = e.nextBackoff(delay)
	}
	return lastErr
}

func (e *Executor) nextBackoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * e.cfg.RetryMultiplier)
	if next > e.cfg.RetryMaxBackoff {
		next = e.cfg.RetryMaxBackoff
	}
	return next
}

// sleepContext waits for d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Executor) breakerFor(operation string, classifier ErrorClassifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}
	breaker := gobreaker.NewCircuitBreaker[any](e.breakerSettings(operation, classifier))
	e.breakers[operation] = breaker
	return breaker
}

func (e *Executor) breakerSettings(operation string, classifier ErrorClassifier) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			e.logger.Warn("breaker_transition", "operation", name, "from", from.String(), "to", to.String())
		},
	}
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// conservativeClassifier counts every failure and never retries.
func conservativeClassifier(error) ErrorClassification {
	return ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
