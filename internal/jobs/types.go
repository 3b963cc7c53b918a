package jobs

import (
	"context"

	"github.com/riverqueue/river"
)

const (
	ConversionQueue  = "conversion"
	MetadataQueue    = "metadata"
	MaintenanceQueue = "maintenance"

	ConversionKind = "document_conversion"
	MetadataKind   = "document_metadata"
	ReconcileKind  = "reconcile_pending"

	TargetFormatPDF = "pdf"
)

// Queue is the producer side of the job queue.
type Queue interface {
	EnqueueConversion(ctx context.Context, args ConversionArgs) error
	EnqueueMetadata(ctx context.Context, args MetadataArgs) error
}

// ConversionArgs is stored in river_job.args as JSON.
type ConversionArgs struct {
	DocumentID   string `json:"document_id"`
	BlobKey      string `json:"blob_key"`
	TargetFormat string `json:"target_format"`
}

func (ConversionArgs) Kind() string {
	return ConversionKind
}

// InsertOpts dedups on the full args so an in-flight conversion is never queued twice.
func (ConversionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:      ConversionQueue,
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	}
}

type MetadataArgs struct {
	DocumentID string `json:"document_id"`
	BlobKey    string `json:"blob_key"`
}

func (MetadataArgs) Kind() string {
	return MetadataKind
}

// InsertOpts allows a single attempt. Metadata extraction is best effort.
func (MetadataArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       MetadataQueue,
		MaxAttempts: 1,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	}
}

// ReconcileArgs triggers a sweep of conversions stuck in pending.
type ReconcileArgs struct{}

func (ReconcileArgs) Kind() string {
	return ReconcileKind
}

func (ReconcileArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       MaintenanceQueue,
		MaxAttempts: 1,
	}
}
