package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// (GET /status/{fileId})
func (h *ServiceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.statusSrv.GetStatus(r.Context(), chi.URLParam(r, "fileId"))
	if err != nil {
		replyError(w, r, err, "Error fetching file status")
		return
	}

	_ = render.Render(w, r, newStatusReply(status))
}

// (GET /metadata/{fileId})
func (h *ServiceHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	md, err := h.metadataSrv.GetMetadata(r.Context(), chi.URLParam(r, "fileId"))
	if err != nil {
		replyError(w, r, err, "Failed to fetch metadata")
		return
	}

	_ = render.Render(w, r, MetadataReply{Metadata: md.Properties})
}

// (GET /health)
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.healthSrv.Check(r.Context()); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		_ = render.Render(w, r, HealthReply{Status: "unavailable"})
		return
	}

	_ = render.Render(w, r, HealthReply{Status: "ok"})
}
