package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/internal/events"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap"
)

const (
	completedJobRetention  = 24 * time.Hour
	conversionTimeoutSlack = time.Minute
)

// Dependencies are the process-wide clients shared by the workers.
type Dependencies struct {
	Store     store.Store
	Blobs     blob.Store
	Converter engine.Converter
	Extractor engine.PropertyExtractor
	Keys      *blob.Keys
	Events    events.Emitter
}

// Client owns the river client. It enqueues jobs and, once started, works them.
type Client struct {
	river *river.Client[pgx.Tx]
}

// Make sure we conform to Queue interface
var _ Queue = (*Client)(nil)

func NewClient(pool *pgxpool.Pool, cfg *config.Config, deps Dependencies) (*Client, error) {
	c := &Client{}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewConversionWorker(deps.Store, deps.Blobs, deps.Converter, deps.Keys, deps.Events, cfg.Engine.ConversionTimeout+conversionTimeoutSlack))
	river.AddWorker(workers, NewMetadataWorker(deps.Store, deps.Blobs, deps.Extractor, deps.Events))
	river.AddWorker(workers, NewReconcileWorker(deps.Store, c, cfg.Queue.StalePendingAfter))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			ConversionQueue:  {MaxWorkers: cfg.Queue.ConversionWorkers},
			MetadataQueue:    {MaxWorkers: cfg.Queue.MetadataWorkers},
			MaintenanceQueue: {MaxWorkers: 1},
		},
		Workers:                     workers,
		MaxAttempts:                 cfg.Queue.MaxAttempts,
		CompletedJobRetentionPeriod: completedJobRetention,
		ErrorHandler:                &errorHandler{},
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.Queue.ReconcileInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return ReconcileArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}
	c.river = riverClient

	return c, nil
}

func (c *Client) Start(ctx context.Context) error {
	zap.S().Named("jobs").Info("starting job workers")
	return c.river.Start(ctx)
}

// Stop waits for running jobs to finish until ctx is done.
func (c *Client) Stop(ctx context.Context) error {
	zap.S().Named("jobs").Info("stopping job workers")
	return c.river.Stop(ctx)
}

func (c *Client) EnqueueConversion(ctx context.Context, args ConversionArgs) error {
	return c.insert(ctx, args.DocumentID, args)
}

func (c *Client) EnqueueMetadata(ctx context.Context, args MetadataArgs) error {
	return c.insert(ctx, args.DocumentID, args)
}

func (c *Client) insert(ctx context.Context, documentID string, args river.JobArgs) error {
	result, err := c.river.Insert(ctx, args, nil)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s job for %s: %w", args.Kind(), documentID, err)
	}

	logger := zap.S().Named("jobs")
	if result.UniqueSkippedAsDuplicate {
		logger.Debugw("job already queued", "kind", args.Kind(), "document_id", documentID, "job_id", result.Job.ID)
		return nil
	}
	logger.Debugw("job enqueued", "kind", args.Kind(), "document_id", documentID, "job_id", result.Job.ID)

	return nil
}
