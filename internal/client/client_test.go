package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/docpipe/docpipe/internal/client"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/pkg/requestid"
	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var _ = Describe("client", func() {
	var (
		srv          *httptest.Server
		c            *client.Client
		uploadedName string
		uploadedType string
		uploadedBody []byte
		seenIDs      []string
	)

	BeforeEach(func() {
		uploadedName, uploadedType, uploadedBody, seenIDs = "", "", nil, nil

		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenIDs = append(seenIDs, r.Header.Get(requestid.Header))
				next.ServeHTTP(w, r)
			})
		})
		r.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
			file, header, err := r.FormFile("file")
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file uploaded."})
				return
			}
			defer file.Close()
			uploadedName = header.Filename
			uploadedType = header.Header.Get("Content-Type")
			uploadedBody, _ = io.ReadAll(file)
			writeJSON(w, http.StatusOK, map[string]string{"message": "File uploaded successfully", "fileId": "doc-1"})
		})
		r.Get("/status/{fileId}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "fileId") != "doc-1" {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "document not found"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"fileName":      "report.docx",
				"originalPath":  "uploads/1-report.docx",
				"convertedPath": "converted/2-report.pdf",
				"status":        "completed",
			})
		})
		r.Get("/metadata/{fileId}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "fileId") != "doc-1" {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "metadata not found"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"metadata": map[string]string{"creator": "ana"}})
		})
		r.Get("/download/{fileId}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "fileId") != "doc-1" {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to download file"})
				return
			}
			w.Header().Set("Content-Type", engine.PDFContentType)
			w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"; filename*=UTF-8''r%C3%A9port.pdf`)
			_, _ = w.Write([]byte("%PDF-1.7"))
		})
		srv = httptest.NewServer(r)

		var err error
		c, err = client.New(srv.URL + "/")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		srv.Close()
	})

	It("rejects a server url without a host", func() {
		_, err := client.New("localhost")
		Expect(err).ToNot(BeNil())
	})

	It("uploads the file as a docx multipart part", func() {
		result, err := c.Upload(context.TODO(), "report.docx", strings.NewReader("PK\x03\x04 body"))
		Expect(err).To(BeNil())
		Expect(result.FileID).To(Equal("doc-1"))
		Expect(result.Message).To(Equal("File uploaded successfully"))

		Expect(uploadedName).To(Equal("report.docx"))
		Expect(uploadedType).To(Equal(engine.DocxContentType))
		Expect(string(uploadedBody)).To(Equal("PK\x03\x04 body"))
	})

	It("reads the conversion status", func() {
		status, err := c.GetStatus(context.TODO(), "doc-1")
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(client.StatusCompleted))
		Expect(status.Pending()).To(BeFalse())
		Expect(*status.ConvertedPath).To(Equal("converted/2-report.pdf"))
	})

	It("maps 404 answers to not found errors", func() {
		_, err := c.GetStatus(context.TODO(), "missing")
		Expect(client.IsNotFound(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("document not found"))

		_, err = c.GetMetadata(context.TODO(), "missing")
		Expect(client.IsNotFound(err)).To(BeTrue())
	})

	It("reads the metadata properties", func() {
		props, err := c.GetMetadata(context.TODO(), "doc-1")
		Expect(err).To(BeNil())
		Expect(props).To(HaveKeyWithValue("creator", "ana"))
	})

	It("streams a download and decodes the file name", func() {
		buf := &bytes.Buffer{}
		d, err := c.Download(context.TODO(), "doc-1", buf)
		Expect(err).To(BeNil())
		Expect(buf.String()).To(Equal("%PDF-1.7"))
		Expect(d.FileName).To(Equal("réport.pdf"))
		Expect(d.ContentType).To(Equal(engine.PDFContentType))
		Expect(d.Size).To(Equal(int64(8)))
	})

	It("writes nothing when the download fails", func() {
		buf := &bytes.Buffer{}
		_, err := c.Download(context.TODO(), "broken", buf)
		Expect(err).ToNot(BeNil())
		Expect(client.IsNotFound(err)).To(BeFalse())
		Expect(buf.Len()).To(BeZero())
	})

	It("forwards the request id from the context", func() {
		ctx := requestid.ToContext(context.TODO(), "req-42")
		_, err := c.GetStatus(ctx, "doc-1")
		Expect(err).To(BeNil())
		_, err = c.GetStatus(context.TODO(), "doc-1")
		Expect(err).To(BeNil())

		Expect(seenIDs).To(HaveLen(2))
		Expect(seenIDs[0]).To(Equal("req-42"))
		Expect(seenIDs[1]).ToNot(BeEmpty())
	})
})
