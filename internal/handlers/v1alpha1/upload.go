package v1alpha1

import (
	"errors"
	"net/http"

	"github.com/docpipe/docpipe/internal/service"
	"github.com/go-chi/render"
)

const (
	uploadField = "file"
	// multipartOverhead covers the boundaries and part headers around the file.
	multipartOverhead = 1 << 20
	maxFormMemory     = 8 << 20
)

// (POST /upload)
func (h *ServiceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			renderError(w, r, http.StatusBadRequest, "file exceeds the maximum upload size")
			return
		}
		renderError(w, r, http.StatusBadRequest, "request is not a valid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	form := service.UploadForm{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}
	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, err, "")
		return
	}

	doc, err := h.intakeSrv.Upload(r.Context(), form)
	if err != nil {
		replyError(w, r, err, "Failed to upload file")
		return
	}

	_ = render.Render(w, r, UploadReply{Message: "File uploaded successfully", FileID: doc.ID})
}
