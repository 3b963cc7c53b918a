package jobs

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

type errorHandler struct{}

func (h *errorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	zap.S().Named("jobs").Errorw("job errored",
		"kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"error", err,
	)
	return nil
}

// HandlePanic lets river retry the job like any other error.
func (h *errorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	zap.S().Named("jobs").Errorw("job panicked",
		"kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"panic", panicVal,
		"trace", trace,
	)
	return nil
}
