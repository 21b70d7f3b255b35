// Package main is the chatkb CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chatkb/chatkb/internal/config"
	"github.com/chatkb/chatkb/internal/embedding"
	"github.com/chatkb/chatkb/internal/indexer"
	"github.com/chatkb/chatkb/internal/kb"
	"github.com/chatkb/chatkb/internal/sentiment"
	"github.com/chatkb/chatkb/internal/server"
	"github.com/chatkb/chatkb/internal/store"
	"github.com/chatkb/chatkb/internal/watcher"
	"github.com/chatkb/chatkb/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	// Optional .env next to the binary; environment wins over the config file
	// for the store path and data directory.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch command := os.Args[1]; command {
	case "server":
		runServer()
	case "index":
		runIndex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("chatkb version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// loadConfig loads the config file at path. When path is the default and the
// file does not exist, built-in defaults (plus environment overrides) apply.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// openEmbedder opens the ONNX embedder, falling back to the deterministic
// mock when the model or runtime is unavailable. Indexing and serving go
// through the same path, so both sides of an environment embed consistently.
func openEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	emb, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("embedding model unavailable, using deterministic fallback",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	return emb
}

func openClassifier(cfg *config.Config, logger *zap.Logger) sentiment.Classifier {
	cls, err := sentiment.NewONNXClassifier(cfg.Sentiment.ModelPath, cfg.Sentiment.MaxTokens)
	if err != nil {
		logger.Warn("sentiment model unavailable, using lexicon fallback",
			zap.String("model_path", cfg.Sentiment.ModelPath), zap.Error(err))
		return sentiment.NewMockClassifier()
	}
	return cls
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	watch := fs.Bool("watch", false, "reindex documents in the data directory as they change")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	classifier := openClassifier(cfg, logger)
	defer func() { _ = classifier.Close() }()
	sentimentSvc := sentiment.NewService(classifier, cfg.Sentiment.MaxChars, logger)

	// The KB service owns its embedder and store; the binder runs inside
	// Initialize so any failure leaves the service degraded instead of
	// taking the process down.
	var (
		boundEmbedder embedding.Embedder
		boundStore    store.Store
	)
	kbSvc := kb.NewService(func(ctx context.Context) (embedding.Embedder, store.Store, error) {
		st, err := store.OpenSQLiteStore(cfg.Store.Path, cfg.Store.Collection)
		if err != nil {
			return nil, nil, fmt.Errorf("open vector store: %w", err)
		}
		emb := openEmbedder(cfg, logger)
		boundEmbedder, boundStore = emb, st
		return emb, st, nil
	}, cfg.KB.DefaultTopK, logger)
	defer func() { _ = kbSvc.Close() }()

	if !kbSvc.Initialize(context.Background()) {
		logger.Warn("knowledge base degraded; /search_kb will return empty results")
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if (*watch || cfg.KB.Watch) && kbSvc.State() == kb.StateReady {
		idx := indexer.NewIndexer(boundStore, boundEmbedder,
			indexer.NewChunker(cfg.KB.ChunkSize, cfg.KB.ChunkOverlap), logger)
		w := watcher.New(cfg.KB.DataDir,
			func(path string) {
				if err := idx.ReindexSource(context.Background(), path); err != nil {
					logger.Warn("watch reindex failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if err := idx.RemoveSource(context.Background(), path); err != nil {
					logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		if err := w.Start(watchCtx); err != nil {
			logger.Warn("failed to start watcher", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(sentimentSvc, kbSvc, cfg.Sentiment.ModelName, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dataDir := fs.String("data-dir", "", "source document directory (overrides config)")
	rebuild := fs.Bool("rebuild", false, "delete the existing index and rebuild from scratch")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.KB.DataDir = *dataDir
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.OpenSQLiteStore(cfg.Store.Path, cfg.Store.Collection)
	if err != nil {
		logger.Fatal("failed to open vector store", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	emb := openEmbedder(cfg, logger)
	defer func() { _ = emb.Close() }()

	idx := indexer.NewIndexer(st, emb,
		indexer.NewChunker(cfg.KB.ChunkSize, cfg.KB.ChunkOverlap), logger)
	if err := idx.Run(context.Background(), cfg.KB.DataDir, *rebuild); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	st, err := store.OpenSQLiteStore(cfg.Store.Path, cfg.Store.Collection)
	if err != nil {
		fmt.Printf("Failed to open vector store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	count, err := st.Count(context.Background())
	if err != nil {
		fmt.Printf("Failed to count records: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Store path: %s\n", cfg.Store.Path)
	fmt.Printf("Collection: %s\n", cfg.Store.Collection)
	fmt.Printf("Records:    %d\n", count)
}

func printUsage() {
	fmt.Println(`chatkb - sentiment analysis and knowledge-base retrieval service

Usage:
  chatkb server [-config path] [-debug] [-watch]   Start the HTTP API server
  chatkb index [-config path] [-data-dir dir] [-rebuild]
                                                   Index documents into the vector store
  chatkb status [-config path]                     Show vector store record count
  chatkb version                                   Show version
  chatkb help                                      Show this help

Environment:
  KB_STORE_PATH   Override the vector store path
  KB_DATA_DIR     Override the source document directory`)
}
