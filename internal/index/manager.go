package index

import (
	"log/slog"
	"sync/atomic"
)

// Manager owns the current index reference. Reads are lock-free; a reload
// builds the replacement fully before swapping the pointer, so in-flight
// searches keep the index they started with.
type Manager struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[CorpusIndex]
}

// NewManager loads the artifact at path once. A bad or missing index fails
// construction; there is no retrieval capability without a valid index.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	ix, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path, logger: managerLogger(logger)}
	m.current.Store(ix)
	m.logger.Info("index_loaded", "path", path, "chunks", ix.Len())
	return m, nil
}

// NewManagerWith wraps an already-built index (tests, embedded corpora).
func NewManagerWith(ix *CorpusIndex, logger *slog.Logger) *Manager {
	m := &Manager{logger: managerLogger(logger)}
	m.current.Store(ix)
	return m
}

func (m *Manager) Current() *CorpusIndex {
	return m.current.Load()
}

// Reload re-reads the artifact and atomically replaces the current index.
// On failure the previous index stays in place.
func (m *Manager) Reload() error {
	ix, err := Load(m.path)
	if err != nil {
		m.logger.Warn("index_reload_failed", "path", m.path, "error", err)
		return err
	}
	m.current.Store(ix)
	m.logger.Info("index_reloaded", "path", m.path, "chunks", ix.Len())
	return nil
}

func managerLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
