// Command indexer builds the corpus artifact offline. It reads chunk records
// from a JSONL file, embeds them through the configured model service, writes
// the artifact, and optionally announces the rebuild on the message bus.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/ul-rag-assistant/internal/config"
	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
	"github.com/kirillkom/ul-rag-assistant/internal/index"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/ul-rag-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/ul-rag-assistant/internal/observability/logging"
)

const embedBatchSize = 32

func main() {
	corpusPath := flag.String("corpus", "./data/corpus.jsonl", "chunk records, one JSON object per line")
	notify := flag.Bool("notify", false, "publish a rebuild notification after writing the artifact")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New("ul-rag-indexer", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chunks, err := readChunks(*corpusPath)
	if err != nil {
		log.Fatalf("read corpus: %v", err)
	}
	if len(chunks) == 0 {
		log.Fatalf("corpus %s contains no chunks", *corpusPath)
	}
	logger.Info("corpus_loaded", "path", *corpusPath, "chunks", len(chunks))

	llm := openai.New(openai.Options{
		BaseURL:    cfg.LLMBaseURL,
		APIKey:     cfg.LLMAPIKey,
		GenModel:   cfg.LLMGenModel,
		EmbedModel: cfg.LLMEmbedModel,
		Executor:   resilience.NewExecutorWithLogger(resilience.DefaultConfig(), logger),
	})

	embeddings, err := embedAll(ctx, llm, chunks)
	if err != nil {
		log.Fatalf("embed corpus: %v", err)
	}

	ix, err := index.Build(chunks, embeddings)
	if err != nil {
		log.Fatalf("build index: %v", err)
	}
	if err := ix.Save(cfg.IndexPath); err != nil {
		log.Fatalf("save index: %v", err)
	}
	logger.Info("index_written", "path", cfg.IndexPath, "chunks", len(chunks))

	if *notify && cfg.NATSURL != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Fatalf("init message queue: %v", err)
		}
		defer queue.Close()
		if err := queue.PublishIndexRebuilt(ctx, cfg.IndexPath); err != nil {
			log.Fatalf("publish rebuild notification: %v", err)
		}
		logger.Info("rebuild_published", "subject", cfg.NATSSubject)
	}

	fmt.Printf("indexed %d chunks into %s\n", len(chunks), cfg.IndexPath)
}

func readChunks(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []domain.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var chunk domain.Chunk
		if err := json.Unmarshal(raw, &chunk); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func embedAll(ctx context.Context, llm *openai.Client, chunks []domain.Chunk) ([][]float32, error) {
	out := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Text)
		}
		vectors, err := llm.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("batch %d-%d: got %d vectors for %d texts", start, end, len(vectors), len(texts))
		}
		out = append(out, vectors...)
	}
	return out, nil
}
