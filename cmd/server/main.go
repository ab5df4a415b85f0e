package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/marketplace/internal/config"
	"github.com/vanshika/marketplace/internal/events"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/graph"
	"github.com/vanshika/marketplace/internal/logging"
	"github.com/vanshika/marketplace/internal/repository"
	"github.com/vanshika/marketplace/internal/server"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store"
	"github.com/vanshika/marketplace/internal/store/memory"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	st, err := openStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()

	sink, err := buildSink(logger, cfg.Events)
	if err != nil {
		logger.Error("failed to create event sink", "error", err)
		os.Exit(1)
	}
	dispatcher := events.NewDispatcher(sink, logger, cfg.Events.BufferSize)

	svc := service.New(st, dispatcher, logger, service.Settings{
		ShippingFee:  cfg.Checkout.ShippingFee,
		Currency:     cfg.Checkout.Currency,
		KYCThreshold: cfg.Checkout.KYCThreshold,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	apiHandlers := server.NewAPIHandlers(logger, svc)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: st},
		API:              apiHandlers,
		AllowedOrigins:   config.SplitCSV(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("flushing events failed", "error", err)
	}
}

func openStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverGraph:
		client, err := buildGraphClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo := repository.New(client)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("ensure graph schema: %w", err)
		}
		logger.Info("using graph store", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
		return repo, nil
	default:
		if cfg.Store.FixturePath == "" {
			logger.Info("using empty in-memory store")
			return memory.New(), nil
		}
		ds, err := fixture.Load(cfg.Store.FixturePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using in-memory store", "fixture", cfg.Store.FixturePath, "users", len(ds.Users), "products", len(ds.Products))
		return memory.NewFromDataset(ds)
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

func buildSink(logger *slog.Logger, cfg config.EventsConfig) (events.Sink, error) {
	if len(cfg.Brokers) == 0 {
		return events.LogSink{Logger: logger.With("component", "events")}, nil
	}
	logger.Info("publishing events to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return events.NewKafkaSink(events.KafkaParams{Brokers: cfg.Brokers, Topic: cfg.Topic})
}
