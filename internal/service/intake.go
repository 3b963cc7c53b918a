package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/internal/events"
	"github.com/docpipe/docpipe/internal/jobs"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/store/model"
	"github.com/docpipe/docpipe/pkg/log"
	"github.com/docpipe/docpipe/pkg/metrics"
	"github.com/google/uuid"
)

// sniffLen is the number of leading bytes mimetype inspects.
const sniffLen = 3072

// UploadForm is a validated multipart upload.
type UploadForm struct {
	FileName    string    `validate:"required,max=255,file_name"`
	ContentType string    `validate:"required,docx_content_type"`
	Size        int64     `validate:"gt=0"`
	Content     io.Reader `validate:"-"`
}

type IntakeService struct {
	store   store.Store
	blobs   blob.Store
	queue   jobs.Queue
	keys    *blob.Keys
	events  events.Emitter
	maxSize int64
}

func NewIntakeService(s store.Store, blobs blob.Store, queue jobs.Queue, keys *blob.Keys, emitter events.Emitter, maxSize int64) *IntakeService {
	return &IntakeService{
		store:   s,
		blobs:   blobs,
		queue:   queue,
		keys:    keys,
		events:  emitter,
		maxSize: maxSize,
	}
}

// Upload stores the document, records it as pending and schedules metadata
// extraction and conversion. Once the records are committed the upload
// succeeds, even when scheduling fails.
func (s *IntakeService) Upload(ctx context.Context, form UploadForm) (*model.Document, error) {
	fileName := blob.BaseName(form.FileName)
	logger := log.NewDebugLogger("intake_service").
		WithContext(ctx).
		Operation("upload_document").
		WithString("file_name", fileName).
		WithInt64("size", form.Size).
		Build()

	body, err := s.checkContent(form)
	if err != nil {
		metrics.IncreaseUploadsTotalMetric(metrics.ResultRejected)
		logger.Error(err).WithString("step", "check_content").Log()
		return nil, err
	}

	id := uuid.NewString()
	doc := model.Document{
		ID:          id,
		FileName:    fileName,
		ContentType: engine.DocxContentType,
		Size:        form.Size,
		BlobKey:     s.keys.Upload(id, fileName),
	}

	if err := s.blobs.Put(ctx, doc.BlobKey, body, form.Size, doc.ContentType); err != nil {
		metrics.IncreaseUploadsTotalMetric(metrics.ResultError)
		logger.Error(err).WithString("step", "put_blob").Log()
		return nil, fmt.Errorf("failed to store %s: %w", doc.BlobKey, err)
	}
	logger.Step("blob_stored").WithString("document_id", doc.ID).WithString("blob_key", doc.BlobKey).Log()

	created, err := s.record(ctx, doc)
	if err != nil {
		metrics.IncreaseUploadsTotalMetric(metrics.ResultError)
		logger.Error(err).WithString("step", "record_document").Log()
		return nil, err
	}
	logger.Step("records_created").WithString("document_id", created.ID).Log()

	s.schedule(ctx, logger, *created)

	metrics.IncreaseUploadsTotalMetric(metrics.ResultSuccess)
	events.Emit(ctx, s.events, events.DocumentUploadedKind, events.DocumentEvent{
		DocumentID: created.ID,
		FileName:   created.FileName,
		Status:     string(model.ConversionStatePending),
		BlobKey:    created.BlobKey,
	})

	logger.Success().WithString("document_id", created.ID).Log()
	return created, nil
}

func (s *IntakeService) checkContent(form UploadForm) (io.Reader, error) {
	if form.Size > s.maxSize {
		return nil, NewErrInvalidUpload("file is %d bytes, the limit is %d bytes", form.Size, s.maxSize)
	}

	br := bufio.NewReaderSize(form.Content, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(head) == 0 {
		return nil, NewErrInvalidUpload("file is empty")
	}
	if !engine.IsDocx(head) {
		return nil, NewErrInvalidUpload("file content is %s, only DOCX documents are accepted", engine.SniffContentType(head))
	}

	return br, nil
}

// record creates the document and its pending conversion in one transaction.
func (s *IntakeService) record(ctx context.Context, doc model.Document) (*model.Document, error) {
	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Document().Create(txCtx, doc)
	if err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("failed to create document %s: %w", doc.ID, err)
	}

	if _, err := s.store.Conversion().CreatePending(txCtx, model.NewPendingConversion(*created)); err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("failed to create conversion status of %s: %w", doc.ID, err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, fmt.Errorf("failed to commit document %s: %w", doc.ID, err)
	}

	return created, nil
}

// schedule enqueues both jobs independently. A failure is logged and counted only.
func (s *IntakeService) schedule(ctx context.Context, logger *log.StructuredLogger, doc model.Document) {
	if err := s.queue.EnqueueMetadata(ctx, jobs.MetadataArgs{
		DocumentID: doc.ID,
		BlobKey:    doc.BlobKey,
	}); err != nil {
		metrics.IncreaseEnqueueFailuresTotalMetric(jobs.MetadataKind)
		logger.Error(err).WithString("step", "enqueue_metadata").Log()
	}

	if err := s.queue.EnqueueConversion(ctx, jobs.ConversionArgs{
		DocumentID:   doc.ID,
		BlobKey:      doc.BlobKey,
		TargetFormat: jobs.TargetFormatPDF,
	}); err != nil {
		metrics.IncreaseEnqueueFailuresTotalMetric(jobs.ConversionKind)
		logger.Error(err).WithString("step", "enqueue_conversion").Log()
	}
}
