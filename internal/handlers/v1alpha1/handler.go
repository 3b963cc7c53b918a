package v1alpha1

import (
	"errors"
	"net/http"

	"github.com/docpipe/docpipe/internal/handlers/validator"
	"github.com/docpipe/docpipe/internal/service"
	"github.com/docpipe/docpipe/pkg/requestid"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type ServiceHandler struct {
	intakeSrv   *service.IntakeService
	statusSrv   *service.StatusService
	metadataSrv *service.MetadataService
	downloadSrv *service.DownloadService
	healthSrv   *service.HealthService
	validator   *validator.Validator
	maxUpload   int64
}

func NewServiceHandler(
	intake *service.IntakeService,
	status *service.StatusService,
	metadata *service.MetadataService,
	download *service.DownloadService,
	health *service.HealthService,
	maxUploadSize int64,
) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewUploadValidationRules()...)

	return &ServiceHandler{
		intakeSrv:   intake,
		statusSrv:   status,
		metadataSrv: metadata,
		downloadSrv: download,
		healthSrv:   health,
		validator:   v,
		maxUpload:   maxUploadSize,
	}
}

// Routes mounts the document api on r.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Get("/status/{fileId}", h.GetStatus)
	r.Get("/metadata/{fileId}", h.GetMetadata)
	r.Get("/download/{fileId}", h.Download)
	r.Get("/health", h.Health)
}

// errorStatus maps service errors to http status codes. Anything unknown is a 500.
func errorStatus(err error) int {
	var (
		invalidUpload *service.ErrInvalidUpload
		invalidField  *validator.ErrInvalidField
		noBlob        *service.ErrNoBlobReference
		docNotFound   *service.ErrDocumentNotFound
		mdNotFound    *service.ErrMetadataNotFound
	)

	switch {
	case errors.As(err, &invalidUpload), errors.As(err, &invalidField), errors.As(err, &noBlob):
		return http.StatusBadRequest
	case errors.As(err, &docNotFound), errors.As(err, &mdNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// replyError answers with the error message for client errors and with
// fallback for server errors, whose details only go to the log.
func replyError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zap.S().Named("handlers").Errorw("request failed", "path", r.URL.Path, "error", err, "request_id", requestid.FromContext(r.Context()))
		message = fallback
	}
	renderError(w, r, status, message)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	_ = render.Render(w, r, &ErrorReply{
		HTTPStatus: status,
		Message:    message,
		RequestID:  requestid.FromContext(r.Context()),
	})
}
