// Package bootstrap assembles the question pipeline from configuration.
// The corpus index is the only hard dependency; model endpoints, the rerank
// service, postgres and the message bus are optional, and every absent piece
// leaves the pipeline running in a degraded mode.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/ul-rag-assistant/internal/config"
	"github.com/kirillkom/ul-rag-assistant/internal/core/ports"
	"github.com/kirillkom/ul-rag-assistant/internal/generate"
	"github.com/kirillkom/ul-rag-assistant/internal/index"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/rerank/tei"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/ul-rag-assistant/internal/observability/metrics"
	"github.com/kirillkom/ul-rag-assistant/internal/pipeline"
	"github.com/kirillkom/ul-rag-assistant/internal/retrieval"
	"github.com/kirillkom/ul-rag-assistant/internal/router"
	"github.com/kirillkom/ul-rag-assistant/internal/safety"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Index    *index.Manager
	Pipeline *pipeline.Pipeline

	Queue     *nats.Queue
	TurnStore ports.TurnStore
	Metrics   *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	manager, err := index.NewManager(cfg.IndexPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load corpus index: %w", err)
	}

	executor := resilience.NewExecutorWithLogger(resilience.DefaultConfig(), logger)

	var llm *openai.Client
	if cfg.LLMBaseURL != "" {
		llm = openai.New(openai.Options{
			BaseURL:       cfg.LLMBaseURL,
			APIKey:        cfg.LLMAPIKey,
			GenModel:      cfg.LLMGenModel,
			EmbedModel:    cfg.LLMEmbedModel,
			CompletionRPS: cfg.CompletionRPS,
			Executor:      executor,
		})
	}

	var encoder ports.CrossEncoder
	if cfg.RerankURL != "" {
		encoder = tei.New(tei.Options{BaseURL: cfg.RerankURL, Executor: executor})
	}

	var completion ports.CompletionService
	var embedder ports.Embedder
	if llm != nil {
		completion = llm
		embedder = llm
	}

	retriever := retrieval.NewRetriever(manager, embedder, encoder, retrieval.Config{
		RRFK:            cfg.RAGFusionRRFK,
		DomainBias:      cfg.RAGDomainBias,
		CandidateFactor: cfg.RAGCandidateFactor,
	}, logger)

	generator := generate.New(completion, generate.Config{
		ModelName:            cfg.LLMGenModel,
		SnippetChars:         cfg.SnippetChars,
		FallbackSnippetChars: cfg.FallbackSnippetChars,
	}, logger)

	var pipelineMetrics *metrics.PipelineMetrics
	pipelineOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.MetricsPort != "" {
		pipelineMetrics = metrics.NewPipelineMetrics("ul-rag")
		pipelineOpts = append(pipelineOpts, pipeline.WithMetrics(pipelineMetrics))
	}

	pipe := pipeline.New(
		safety.NewGate(),
		router.New(completion, logger),
		retriever,
		generator,
		pipelineOpts...,
	)

	closers := make([]func(), 0, 2)

	var store ports.TurnStore
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewTurnRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo
		closers = append(closers, func() { _ = db.Close() })
	}

	var queue *nats.Queue
	if cfg.NATSURL != "" {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		closers = append(closers, queue.Close)
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Index:     manager,
		Pipeline:  pipe,
		Queue:     queue,
		TurnStore: store,
		Metrics:   pipelineMetrics,
		closeFn: func() {
			for _, fn := range closers {
				fn()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
