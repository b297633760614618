// Package app wires the configured adapters into ready-to-use
// pipelines for the CLI commands.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"docfind/config"
	"docfind/internal/adapter/cache"
	"docfind/internal/adapter/chunker"
	"docfind/internal/adapter/embedding"
	"docfind/internal/adapter/extractor"
	"docfind/internal/adapter/fs"
	"docfind/internal/adapter/opener"
	"docfind/internal/adapter/vectorindex"
	"docfind/internal/domain"
	"docfind/internal/port"
	"docfind/internal/usecase"
)

// App owns the long-lived components built from one configuration.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Embedder port.Embedder
	Index    *vectorindex.BoltIndex
	Cache    *cache.QueryCache
	Opener   port.Opener
}

// New builds the full component graph. An on-disk index written by an
// older format or a different embedding model cannot be reused, so it
// is removed and recreated rather than failing every command.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("configure embedder: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	idx, err := openIndex(cfg, emb, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Embedder: emb,
		Index:    idx,
		Cache: cache.NewQueryCache(
			cfg.Search.CacheSize,
			time.Duration(cfg.Search.CacheTTLSecs)*time.Second,
		),
		Opener: opener.New(),
	}, nil
}

func openIndex(cfg *config.Config, emb port.Embedder, logger *slog.Logger) (*vectorindex.BoltIndex, error) {
	dbPath := cfg.IndexDBPath()
	tuning := vectorindex.Tuning{
		FlatMaxVectors:  cfg.Index.FlatMaxVectors,
		GraphMaxVectors: cfg.Index.GraphMaxVectors,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEfSearch:    cfg.Index.HNSWEfSearch,
		IVFNProbe:       cfg.Index.IVFNProbe,
	}

	idx, err := vectorindex.Open(dbPath, emb.Dimension(), emb.ModelName(), tuning, logger)
	if errors.Is(err, domain.ErrIndexSchema) {
		logger.Warn("existing index is incompatible, starting fresh", "path", dbPath, "reason", err)
		if rmErr := os.Remove(dbPath); rmErr != nil {
			return nil, fmt.Errorf("remove incompatible index: %w", rmErr)
		}
		idx, err = vectorindex.Open(dbPath, emb.Dimension(), emb.ModelName(), tuning, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return idx, nil
}

// Pipeline builds the indexing pipeline.
func (a *App) Pipeline() *usecase.Pipeline {
	scan := a.Config.Scan

	wc, err := chunker.NewWindowChunker(a.Config.Chunking.Size, a.Config.Chunking.Overlap)
	if err != nil {
		// the config layer guarantees sane defaults; reaching this
		// means a hand-edited config file
		a.Logger.Warn("invalid chunking config, using defaults", "error", err)
		wc, _ = chunker.NewWindowChunker(1000, 100)
	}

	return usecase.NewPipeline(
		fs.NewWalker(scan.Extensions, scan.Excludes, scan.DenyNames, scan.SystemPrefixes),
		extractor.New(scan.MaxTextLen, extractor.WithLogger(a.Logger)),
		wc,
		a.Embedder,
		a.Index,
		scan.Workers,
		a.Config.Embedding.BatchSize,
		a.Logger,
	)
}

// Engine builds the search engine.
func (a *App) Engine() *usecase.Engine {
	s := a.Config.Search
	return usecase.NewEngine(
		a.Embedder, a.Index, a.Cache,
		s.FilenameBoost, s.ContentBoost,
		s.RerankBase, s.RerankVector,
	)
}

// Stats reports the state of the persisted index.
func (a *App) Stats() (domain.Stats, error) {
	vectors, err := a.Index.Count()
	if err != nil {
		return domain.Stats{}, err
	}
	docs, err := a.Index.DocIDs()
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{
		Vectors:   vectors,
		Documents: len(docs),
		Model:     a.Index.Model(),
		Path:      a.Config.IndexDBPath(),
	}, nil
}

func (a *App) Close() error {
	return a.Index.Close()
}
