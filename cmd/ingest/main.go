package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/marketplace/internal/config"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/graph"
	"github.com/vanshika/marketplace/internal/httpclient"
	"github.com/vanshika/marketplace/internal/logging"
	"github.com/vanshika/marketplace/internal/repository"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "./data/marketplace.json", "Path to a .json or .yaml marketplace dataset")
		target      = flag.String("target", "graph", "Where to write: graph (GRAPH_URI) or api (MARKET_API_URL)")
		workers     = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	ds, err := fixture.Load(*datasetPath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "path", *datasetPath)
		os.Exit(1)
	}
	if len(ds.Users) == 0 {
		logger.Error("dataset has no users", "path", *datasetPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openTarget(ctx, logger, cfg, *target)
	if err != nil {
		logger.Error("failed to open target", "target", *target, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Warn("closing target failed", "error", err)
		}
	}()

	ingestor := service.NewBulkIngestor(st, *workers)

	start := time.Now()
	logger.Info("ingesting dataset", "path", *datasetPath, "target", *target, "workers", *workers)
	stats, err := ingestor.IngestDataset(ctx, ds)
	if err != nil {
		logger.Error("ingestion failed", "error", err, "completed", stats)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "counts", stats)
}

func openTarget(ctx context.Context, logger *slog.Logger, cfg config.Config, target string) (store.Store, error) {
	switch target {
	case "api":
		client := httpclient.New(cfg.Client, logger)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("reach %s: %w", cfg.Client.BaseURL, err)
		}
		logger.Info("connected to api", "url", cfg.Client.BaseURL)
		return client, nil
	case "graph":
		client, err := buildGraphClient(ctx, logger, cfg)
		if err != nil {
			return nil, err
		}
		repo := repository.New(client)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("ensure graph schema: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown target %q", target)
	}
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
