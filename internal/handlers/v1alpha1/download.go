package v1alpha1

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// (GET /download/{fileId})
func (h *ServiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	d, err := h.downloadSrv.Resolve(r.Context(), chi.URLParam(r, "fileId"))
	if err != nil {
		replyError(w, r, err, "Failed to download file")
		return
	}
	defer d.Object.Body.Close()

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(d.FileName))
	if d.Object.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.Object.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	// headers are gone, a broken stream can only be logged
	if _, err := io.Copy(w, d.Object.Body); err != nil {
		zap.S().Named("handlers").Warnw("download interrupted", "file_name", d.FileName, "error", err)
	}
}

// contentDisposition quotes an ascii fallback name and adds the RFC 5987
// form when the name needs it.
func contentDisposition(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || unicode.IsControl(r) || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)

	if fallback == name {
		return fmt.Sprintf(`attachment; filename="%s"`, name)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(name))
}
