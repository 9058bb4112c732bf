// Package nats broadcasts index rebuild notifications so running assistants
// can hot-swap their corpus snapshot without a restart.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/resilience"
)

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("ul-rag-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishIndexRebuilt announces a fresh index artifact at the given path.
func (q *Queue) PublishIndexRebuilt(ctx context.Context, indexPath string) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(indexPath)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeIndexRebuilt invokes handler for every rebuild notification until
// ctx is canceled. Handler errors are logged and do not stop the stream;
// a stale index keeps serving until the next successful reload.
func (q *Queue) SubscribeIndexRebuilt(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.Subscribe(q.subject, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, string(msg.Data)); err != nil {
			log.Printf("index reload handler error for path=%s: %v", string(msg.Data), err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
