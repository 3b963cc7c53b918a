package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/store/model"
	"github.com/docpipe/docpipe/pkg/log"
	"github.com/docpipe/docpipe/pkg/metrics"
	"github.com/riverqueue/river"
)

const reconcileBatchSize = 100

// ReconcileWorker re-enqueues conversions whose record stayed pending longer
// than staleAfter, which happens when the enqueue after an upload was lost.
// Jobs still in flight are deduplicated by the queue.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileArgs]
	store      store.Store
	queue      Queue
	staleAfter time.Duration
	now        func() time.Time
}

func NewReconcileWorker(s store.Store, queue Queue, staleAfter time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		store:      s,
		queue:      queue,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileArgs]) error {
	cutoff := w.now().Add(-w.staleAfter)
	logger := log.NewInfoLogger("reconcile_worker").
		WithContext(ctx).
		Operation("reconcile_pending").
		WithParam("cutoff", cutoff).
		Build()

	stale, err := w.store.Conversion().List(ctx, store.NewConversionQueryFilter().
		ByStatus(model.ConversionStatePending).
		UpdatedBefore(cutoff).
		Limit(reconcileBatchSize))
	if err != nil {
		logger.Error(err).WithString("step", "list_pending").Log()
		return fmt.Errorf("failed to list pending conversions: %w", err)
	}

	requeued := 0
	for _, s := range stale {
		err := w.queue.EnqueueConversion(ctx, ConversionArgs{
			DocumentID:   s.DocumentID,
			BlobKey:      s.OriginalKey,
			TargetFormat: TargetFormatPDF,
		})
		if err != nil {
			metrics.IncreaseEnqueueFailuresTotalMetric(ConversionKind)
			logger.Error(err).WithString("step", "enqueue").WithString("document_id", s.DocumentID).Log()
			continue
		}
		requeued++
	}

	logger.Success().WithInt("stale", len(stale)).WithInt("requeued", requeued).Log()
	return nil
}
