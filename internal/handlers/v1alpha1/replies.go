package v1alpha1

import (
	"net/http"

	"github.com/docpipe/docpipe/internal/store/model"
	"github.com/go-chi/render"
)

type ErrorReply struct {
	HTTPStatus int    `json:"-"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId,omitempty"`
}

func (e *ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatus)
	return nil
}

type UploadReply struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

func (u UploadReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type StatusReply struct {
	FileName      string  `json:"fileName"`
	OriginalPath  string  `json:"originalPath"`
	ConvertedPath *string `json:"convertedPath"`
	Status        string  `json:"status"`
	Error         *string `json:"error,omitempty"`
}

func newStatusReply(s *model.ConversionStatus) StatusReply {
	return StatusReply{
		FileName:      s.FileName,
		OriginalPath:  s.OriginalKey,
		ConvertedPath: s.ConvertedKey,
		Status:        string(s.Status),
		Error:         s.Error,
	}
}

func (s StatusReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type MetadataReply struct {
	Metadata map[string]string `json:"metadata"`
}

func (m MetadataReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type HealthReply struct {
	Status string `json:"status"`
}

func (h HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
