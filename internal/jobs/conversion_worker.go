package jobs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/internal/events"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/store/model"
	"github.com/docpipe/docpipe/pkg/log"
	"github.com/docpipe/docpipe/pkg/metrics"
	"github.com/riverqueue/river"
)

const terminalWriteTimeout = 30 * time.Second

// ConversionWorker turns an uploaded document into a PDF and records the outcome.
//
// A conversion that fails is recorded as failed and the job completes. Only a
// failure to write the terminal status is returned to river, which retries the job.
type ConversionWorker struct {
	river.WorkerDefaults[ConversionArgs]
	store     store.Store
	blobs     blob.Store
	converter engine.Converter
	keys      *blob.Keys
	events    events.Emitter
	timeout   time.Duration
}

func NewConversionWorker(s store.Store, blobs blob.Store, converter engine.Converter, keys *blob.Keys, emitter events.Emitter, timeout time.Duration) *ConversionWorker {
	return &ConversionWorker{
		store:     s,
		blobs:     blobs,
		converter: converter,
		keys:      keys,
		events:    emitter,
		timeout:   timeout,
	}
}

func (w *ConversionWorker) Timeout(*river.Job[ConversionArgs]) time.Duration {
	return w.timeout
}

func (w *ConversionWorker) Work(ctx context.Context, job *river.Job[ConversionArgs]) error {
	args := job.Args
	logger := log.NewDebugLogger("conversion_worker").
		WithContext(ctx).
		Operation("convert_document").
		WithString("document_id", args.DocumentID).
		WithString("blob_key", args.BlobKey).
		WithInt("attempt", job.Attempt).
		Build()

	fileName := w.fileName(ctx, args)
	logger.Step("job_started").WithString("file_name", fileName).Log()

	convertedKey, err := w.convert(ctx, logger, args, fileName)
	if err != nil {
		return w.recordFailure(ctx, logger, args, fileName, err)
	}

	writeCtx, cancel := terminalContext(ctx)
	defer cancel()

	if _, err := w.store.Conversion().MarkCompleted(writeCtx, args.DocumentID, fileName, args.BlobKey, convertedKey); err != nil {
		logger.Error(err).WithString("step", "mark_completed").Log()
		return fmt.Errorf("failed to record completed conversion of %s: %w", args.DocumentID, err)
	}

	metrics.IncreaseConversionsTotalMetric(metrics.ResultCompleted)
	events.Emit(ctx, w.events, events.DocumentConvertedKind, events.DocumentEvent{
		DocumentID: args.DocumentID,
		FileName:   fileName,
		Status:     string(model.ConversionStateCompleted),
		BlobKey:    convertedKey,
	})

	logger.Success().WithString("converted_key", convertedKey).Log()
	return nil
}

// fileName prefers the name recorded at intake and falls back to the one embedded in the blob key.
func (w *ConversionWorker) fileName(ctx context.Context, args ConversionArgs) string {
	doc, err := w.store.Document().Get(ctx, args.DocumentID)
	if err != nil {
		return blob.NameFromKey(args.BlobKey)
	}
	return doc.FileName
}

func (w *ConversionWorker) convert(ctx context.Context, logger *log.StructuredLogger, args ConversionArgs, fileName string) (string, error) {
	if args.TargetFormat != "" && args.TargetFormat != TargetFormatPDF {
		return "", fmt.Errorf("unsupported target format %q", args.TargetFormat)
	}

	obj, err := w.blobs.Get(ctx, args.BlobKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", args.BlobKey, err)
	}
	defer obj.Body.Close()
	logger.Step("blob_fetched").WithInt64("size", obj.Size).Log()

	result, err := w.converter.Convert(ctx, obj.Body, fileName)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", fileName, err)
	}
	logger.Step("converted").WithInt("pages", result.Pages).WithInt("pdf_size", len(result.Data)).Log()

	key := w.keys.Converted(args.DocumentID, fileName)
	if err := w.blobs.Put(ctx, key, bytes.NewReader(result.Data), int64(len(result.Data)), engine.PDFContentType); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	return key, nil
}

func (w *ConversionWorker) recordFailure(ctx context.Context, logger *log.StructuredLogger, args ConversionArgs, fileName string, cause error) error {
	logger.Error(cause).WithString("step", "convert").Log()

	writeCtx, cancel := terminalContext(ctx)
	defer cancel()

	status, err := w.store.Conversion().MarkFailed(writeCtx, args.DocumentID, fileName, args.BlobKey, cause.Error())
	if err != nil {
		logger.Error(err).WithString("step", "mark_failed").Log()
		return fmt.Errorf("failed to record failed conversion of %s: %w", args.DocumentID, err)
	}

	if status.Status == model.ConversionStateCompleted {
		logger.Step("already_completed").Log()
		return nil
	}

	metrics.IncreaseConversionsTotalMetric(metrics.ResultFailed)
	events.Emit(ctx, w.events, events.ConversionFailedKind, events.DocumentEvent{
		DocumentID: args.DocumentID,
		FileName:   fileName,
		Status:     string(model.ConversionStateFailed),
		Error:      cause.Error(),
	})

	return nil
}

// terminalContext survives the job deadline so the outcome of a timed out
// conversion is still recorded.
func terminalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
}
