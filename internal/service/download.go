package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/store/model"
	"github.com/docpipe/docpipe/pkg/log"
	"github.com/docpipe/docpipe/pkg/metrics"
)

const defaultContentType = "application/octet-stream"

// Download is an open blob ready to be streamed. The caller must close Object.Body.
type Download struct {
	Object      *blob.Object
	FileName    string
	ContentType string
	Converted   bool
}

type DownloadService struct {
	store store.Store
	blobs blob.Store
}

func NewDownloadService(s store.Store, blobs blob.Store) *DownloadService {
	return &DownloadService{store: s, blobs: blobs}
}

type candidate struct {
	key       string
	converted bool
}

// Resolve serves the converted PDF when there is one and the original upload otherwise.
// A candidate whose blob is missing is skipped.
func (d *DownloadService) Resolve(ctx context.Context, id string) (*Download, error) {
	logger := log.NewDebugLogger("download_service").
		WithContext(ctx).
		Operation("resolve_download").
		WithString("document_id", id).
		Build()

	status, err := d.store.Conversion().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDocumentNotFound(id)
		}
		return nil, err
	}

	candidates := candidatesOf(status)
	if len(candidates) == 0 {
		return nil, NewErrNoBlobReference(id)
	}

	var lastErr error
	for _, c := range candidates {
		obj, err := d.blobs.Get(ctx, c.key)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", c.key, err)
			logger.Step("candidate_unavailable").WithString("blob_key", c.key).WithString("error", err.Error()).Log()
			continue
		}

		download := newDownload(status, c, obj)
		if c.converted {
			metrics.IncreaseDownloadsTotalMetric(metrics.SourceConverted)
		} else {
			metrics.IncreaseDownloadsTotalMetric(metrics.SourceOriginal)
		}

		logger.Success().WithString("blob_key", c.key).WithString("file_name", download.FileName).Log()
		return download, nil
	}

	logger.Error(lastErr).Log()
	return nil, NewErrBlobResolution(id, lastErr)
}

func candidatesOf(status *model.ConversionStatus) []candidate {
	var candidates []candidate
	if status.ConvertedKey != nil && *status.ConvertedKey != "" {
		candidates = append(candidates, candidate{key: *status.ConvertedKey, converted: true})
	}
	if status.OriginalKey != "" {
		candidates = append(candidates, candidate{key: status.OriginalKey})
	}
	return candidates
}

func newDownload(status *model.ConversionStatus, c candidate, obj *blob.Object) *Download {
	fileName := status.FileName
	if fileName == "" {
		fileName = blob.NameFromKey(status.OriginalKey)
	}

	contentType := obj.ContentType
	if c.converted {
		fileName = blob.PDFName(fileName)
		contentType = engine.PDFContentType
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Download{
		Object:      obj,
		FileName:    fileName,
		ContentType: contentType,
		Converted:   c.converted,
	}
}
