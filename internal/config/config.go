// Package config loads runtime settings from the environment. Every knob has
// a default that works for local development against an empty environment.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	LogLevel  string
	LogFormat string

	IndexPath string

	LLMBaseURL    string
	LLMAPIKey     string
	LLMGenModel   string
	LLMEmbedModel string
	CompletionRPS float64

	RerankURL string

	NATSURL     string
	NATSSubject string

	PostgresDSN string

	MetricsPort string

	RAGDefaultMaxChunks  int
	RAGCandidateFactor   int
	RAGFusionRRFK        int
	RAGDomainBias        float64
	SnippetChars         int
	FallbackSnippetChars int

	DefaultLocale string
}

func Load() Config {
	return Config{
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		IndexPath: mustEnv("INDEX_PATH", "./data/corpus.idx"),

		LLMBaseURL:    mustEnv("LLM_BASE_URL", "http://localhost:8000"),
		LLMAPIKey:     mustEnv("LLM_API_KEY", ""),
		LLMGenModel:   mustEnv("LLM_GEN_MODEL", "qwen2.5:14b-instruct"),
		LLMEmbedModel: mustEnv("LLM_EMBED_MODEL", "bge-m3"),
		CompletionRPS: mustEnvFloat("LLM_COMPLETION_RPS", 0),

		RerankURL: mustEnv("RERANK_URL", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "index.rebuilt"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		MetricsPort: mustEnv("METRICS_PORT", ""),

		RAGDefaultMaxChunks:  mustEnvInt("RAG_DEFAULT_MAX_CHUNKS", 6),
		RAGCandidateFactor:   mustEnvInt("RAG_CANDIDATE_FACTOR", 8),
		RAGFusionRRFK:        mustEnvInt("RAG_FUSION_RRF_K", 60),
		RAGDomainBias:        mustEnvFloat("RAG_DOMAIN_BIAS", 0.2),
		SnippetChars:         mustEnvInt("RAG_SNIPPET_CHARS", 550),
		FallbackSnippetChars: mustEnvInt("RAG_FALLBACK_SNIPPET_CHARS", 350),

		DefaultLocale: mustEnv("DEFAULT_LOCALE", "IE"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
