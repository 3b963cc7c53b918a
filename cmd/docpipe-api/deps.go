package main

import (
	"context"
	"fmt"
	"net"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/internal/events"
	"github.com/docpipe/docpipe/internal/jobs"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/pkg/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// runtime holds the process wide clients shared by the api and the workers.
type runtime struct {
	cfg      *config.Config
	store    store.Store
	pool     *pgxpool.Pool
	blobs    blob.Store
	keys     *blob.Keys
	producer *events.EventProducer
	jobs     *jobs.Client
}

// setupLogging installs the global zap logger and returns its cleanup.
func setupLogging(cfg *config.Config) func() {
	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel), cfg.Service.LogFormat)
	undo := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		undo()
	}
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	if cfg.Database.Type != store.DBTypePgsql {
		return nil, fmt.Errorf("the job queue requires postgres, DB_TYPE is %q", cfg.Database.Type)
	}

	zap.S().Info("initializing data store")
	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing data store: %w", err)
	}
	s := store.NewStore(db)

	pool, err := pgxpool.New(ctx, store.PostgresDSN(cfg))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}

	blobs, err := blob.NewFromConfig(ctx, cfg)
	if err != nil {
		pool.Close()
		_ = s.Close()
		return nil, fmt.Errorf("initializing blob store: %w", err)
	}
	zap.S().Infow("blob store ready", "type", blobs.Type())

	keys := blob.NewKeys()
	producer := events.NewEventProducer(&events.StdoutWriter{}, events.WithOutputTopic(cfg.Service.EventsTopic))

	jobClient, err := jobs.NewClient(pool, cfg, jobs.Dependencies{
		Store:     s,
		Blobs:     blobs,
		Converter: engine.NewLibreOfficeConverter(cfg.Engine.SofficePath, cfg.Engine.ConversionTimeout),
		Extractor: engine.NewDocxPropertyExtractor(),
		Keys:      keys,
		Events:    producer,
	})
	if err != nil {
		_ = producer.Close()
		pool.Close()
		_ = s.Close()
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		store:    s,
		pool:     pool,
		blobs:    blobs,
		keys:     keys,
		producer: producer,
		jobs:     jobClient,
	}, nil
}

func (r *runtime) Close() {
	if err := r.producer.Close(); err != nil {
		zap.S().Errorw("closing event producer", "error", err)
	}
	r.pool.Close()
	if err := r.store.Close(); err != nil {
		zap.S().Errorw("closing data store", "error", err)
	}
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
