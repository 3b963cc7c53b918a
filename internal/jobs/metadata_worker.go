package jobs

import (
	"context"
	"fmt"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/internal/events"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/pkg/log"
	"github.com/docpipe/docpipe/pkg/metrics"
	"github.com/riverqueue/river"
)

// MetadataWorker extracts document properties. A failure cancels the job and
// leaves no metadata record behind.
type MetadataWorker struct {
	river.WorkerDefaults[MetadataArgs]
	store     store.Store
	blobs     blob.Store
	extractor engine.PropertyExtractor
	events    events.Emitter
}

func NewMetadataWorker(s store.Store, blobs blob.Store, extractor engine.PropertyExtractor, emitter events.Emitter) *MetadataWorker {
	return &MetadataWorker{
		store:     s,
		blobs:     blobs,
		extractor: extractor,
		events:    emitter,
	}
}

func (w *MetadataWorker) Work(ctx context.Context, job *river.Job[MetadataArgs]) error {
	args := job.Args
	logger := log.NewDebugLogger("metadata_worker").
		WithContext(ctx).
		Operation("extract_metadata").
		WithString("document_id", args.DocumentID).
		WithString("blob_key", args.BlobKey).
		Build()

	props, err := w.extract(ctx, args.BlobKey)
	if err != nil {
		return w.giveUp(ctx, logger, args, "extract", err)
	}
	logger.Step("extracted").WithInt("properties", len(props)).Log()

	if _, err := w.store.Metadata().Upsert(ctx, args.DocumentID, props); err != nil {
		return w.giveUp(ctx, logger, args, "upsert_metadata", err)
	}

	metrics.IncreaseMetadataExtractionsTotalMetric(metrics.ResultSuccess)
	events.Emit(ctx, w.events, events.MetadataExtractedKind, events.DocumentEvent{
		DocumentID: args.DocumentID,
		BlobKey:    args.BlobKey,
	})

	logger.Success().Log()
	return nil
}

func (w *MetadataWorker) extract(ctx context.Context, key string) (map[string]string, error) {
	obj, err := w.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer obj.Body.Close()

	props, err := w.extractor.Extract(ctx, obj.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract properties of %s: %w", key, err)
	}
	return props, nil
}

func (w *MetadataWorker) giveUp(ctx context.Context, logger *log.StructuredLogger, args MetadataArgs, step string, err error) error {
	logger.Error(err).WithString("step", step).Log()
	metrics.IncreaseMetadataExtractionsTotalMetric(metrics.ResultFailed)
	events.Emit(ctx, w.events, events.MetadataFailedKind, events.DocumentEvent{
		DocumentID: args.DocumentID,
		BlobKey:    args.BlobKey,
		Error:      err.Error(),
	})
	return river.JobCancel(err)
}
