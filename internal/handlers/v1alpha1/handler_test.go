package v1alpha1_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/engine"
	handlers "github.com/docpipe/docpipe/internal/handlers/v1alpha1"
	"github.com/docpipe/docpipe/internal/jobs"
	"github.com/docpipe/docpipe/internal/service"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/testutil"
	"github.com/docpipe/docpipe/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"gorm.io/gorm"
)

var _ = Describe("document handlers", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		dir    string
		blobs  *blob.MemoryStore
		queue  *fakeQueue
		keys   *blob.Keys
		router chi.Router
	)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	get := func(path string) *httptest.ResponseRecorder {
		return serve(httptest.NewRequest(http.MethodGet, path, nil))
	}

	decode := func(rr *httptest.ResponseRecorder) map[string]any {
		var body map[string]any
		Expect(json.Unmarshal(rr.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	upload := func() string {
		rr := serve(newUploadRequest("file", "report.docx", engine.DocxContentType, testutil.NewDocx("Quarterly", "Ada")))
		Expect(rr.Code).To(Equal(http.StatusOK))
		return decode(rr)["fileId"].(string)
	}

	BeforeAll(func() {
		var err error
		dir, err = testutil.MkdirTemp()
		Expect(err).To(BeNil())
		s, gormdb, err = testutil.NewSqliteStore(dir)
		Expect(err).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
		os.RemoveAll(dir)
	})

	BeforeEach(func() {
		blobs = blob.NewMemoryStore()
		queue = &fakeQueue{}
		keys = blob.NewKeys()

		h := handlers.NewServiceHandler(
			service.NewIntakeService(s, blobs, queue, keys, nil, 1<<20),
			service.NewStatusService(s),
			service.NewMetadataService(s),
			service.NewDownloadService(s, blobs),
			service.NewHealthService(s),
			1<<20,
		)
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		h.Routes(r)
		router = r
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM conversion_statuses;")
		gormdb.Exec("DELETE FROM documents;")
		gormdb.Exec("DELETE FROM document_metadata;")
	})

	Context("upload", func() {
		It("accepts a docx and returns the file id", func() {
			rr := serve(newUploadRequest("file", "report.docx", engine.DocxContentType, testutil.NewDocx("Quarterly", "Ada")))

			Expect(rr.Code).To(Equal(http.StatusOK))
			body := decode(rr)
			Expect(body["message"]).To(Equal("File uploaded successfully"))
			Expect(uuid.Validate(body["fileId"].(string))).To(Succeed())
			Expect(queue.conversion).To(HaveLen(1))
			Expect(queue.metadata).To(HaveLen(1))
		})

		It("returns 400 without a file part", func() {
			rr := serve(newUploadRequest("attachment", "report.docx", engine.DocxContentType, []byte("x")))

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			body := decode(rr)
			Expect(body["message"]).To(Equal("No file uploaded."))
			Expect(body["requestId"]).NotTo(BeEmpty())
		})

		It("returns 400 for a request that is not multipart", func() {
			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"file":"x"}`))
			req.Header.Set("Content-Type", "application/json")

			Expect(serve(req).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for an unsupported content type", func() {
			rr := serve(newUploadRequest("file", "report.pdf", "application/pdf", []byte("%PDF-1.7")))

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rr)["message"]).To(ContainSubstring("only DOCX documents are accepted"))
			Expect(queue.conversion).To(BeEmpty())
		})

		It("returns 400 when the bytes are not a docx", func() {
			rr := serve(newUploadRequest("file", "report.docx", engine.DocxContentType, []byte("plain text pretending")))

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(queue.conversion).To(BeEmpty())
		})

		It("returns 400 for an oversized body", func() {
			big := make([]byte, 3<<20)
			rr := serve(newUploadRequest("file", "report.docx", engine.DocxContentType, big))

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("status", func() {
		It("returns the pending record after an upload", func() {
			id := upload()

			rr := get("/status/" + id)
			Expect(rr.Code).To(Equal(http.StatusOK))
			body := decode(rr)
			Expect(body["fileName"]).To(Equal("report.docx"))
			Expect(body["originalPath"]).To(Equal("uploads/" + id + "_report.docx"))
			Expect(body).To(HaveKeyWithValue("convertedPath", BeNil()))
			Expect(body["status"]).To(Equal("pending"))
		})

		It("returns the converted path once completed", func() {
			id := upload()
			_, err := s.Conversion().MarkCompleted(context.TODO(), id, "report.docx", "uploads/" + id + "_report.docx", "converted/1_report.pdf")
			Expect(err).To(BeNil())

			body := decode(get("/status/" + id))
			Expect(body["status"]).To(Equal("completed"))
			Expect(body["convertedPath"]).To(Equal("converted/1_report.pdf"))
		})

		It("returns 404 for an unknown id", func() {
			rr := get("/status/" + uuid.NewString())
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("metadata", func() {
		It("returns 404 until properties are extracted", func() {
			id := upload()
			Expect(get("/metadata/" + id).Code).To(Equal(http.StatusNotFound))

			_, err := s.Metadata().Upsert(context.TODO(), id, map[string]string{"title": "Quarterly"})
			Expect(err).To(BeNil())

			rr := get("/metadata/" + id)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(decode(rr)["metadata"]).To(Equal(map[string]any{"title": "Quarterly"}))
		})
	})

	Context("download", func() {
		It("streams the original while the conversion is pending", func() {
			id := upload()

			rr := get("/download/" + id)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(Equal(engine.DocxContentType))
			Expect(rr.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="report.docx"`))
			Expect(rr.Body.Bytes()).To(Equal(testutil.NewDocx("Quarterly", "Ada")))
		})

		It("streams the pdf once converted", func() {
			id := upload()
			Expect(blobs.Put(context.TODO(), "converted/1_report.pdf", strings.NewReader("%PDF-1.7"), 8, engine.PDFContentType)).To(Succeed())
			_, err := s.Conversion().MarkCompleted(context.TODO(), id, "report.docx", "uploads/" + id + "_report.docx", "converted/1_report.pdf")
			Expect(err).To(BeNil())

			rr := get("/download/" + id)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(Equal(engine.PDFContentType))
			Expect(rr.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="report.pdf"`))
			data, _ := io.ReadAll(rr.Body)
			Expect(string(data)).To(Equal("%PDF-1.7"))
		})

		It("returns 404 for an unknown id", func() {
			Expect(get("/download/" + uuid.NewString()).Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 when no blob can be resolved", func() {
			id := upload()
			blobs.Delete("uploads/" + id + "_report.docx")

			rr := get("/download/" + id)
			Expect(rr.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(rr)["message"]).To(Equal("Failed to download file"))
		})
	})

	Context("pipeline", func() {
		var converter *fakeConverter

		// convert runs the conversion job the upload scheduled.
		convert := func(id string) {
			Expect(queue.conversion).To(HaveLen(1))
			args := queue.conversion[0]
			Expect(args.DocumentID).To(Equal(id))

			worker := jobs.NewConversionWorker(s, blobs, converter, keys, nil, time.Minute)
			Expect(worker.Work(context.TODO(), &river.Job[jobs.ConversionArgs]{
				JobRow: &rivertype.JobRow{ID: 1, Attempt: 1, Kind: jobs.ConversionKind},
				Args:   args,
			})).To(Succeed())
		}

		BeforeEach(func() {
			converter = &fakeConverter{data: []byte("%PDF-1.7 converted report")}
		})

		It("serves the converted pdf after the worker completed the upload", func() {
			id := upload()
			Expect(decode(get("/status/" + id))["status"]).To(Equal("pending"))

			convert(id)

			body := decode(get("/status/" + id))
			Expect(body["status"]).To(Equal("completed"))
			Expect(body["convertedPath"]).To(HavePrefix("converted/" + id + "/"))

			rr := get("/download/" + id)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(Equal(engine.PDFContentType))
			Expect(rr.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="report.pdf"`))
			Expect(rr.Body.String()).To(Equal("%PDF-1.7 converted report"))
		})

		It("serves the original upload after the engine failed", func() {
			id := upload()
			converter.err = errors.New("soffice exited with status 1")

			convert(id)

			body := decode(get("/status/" + id))
			Expect(body["status"]).To(Equal("failed"))
			Expect(body).To(HaveKeyWithValue("convertedPath", BeNil()))

			rr := get("/download/" + id)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(Equal(engine.DocxContentType))
			Expect(rr.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="report.docx"`))
			Expect(rr.Body.Bytes()).To(Equal(testutil.NewDocx("Quarterly", "Ada")))
		})
	})

	Context("health", func() {
		It("returns ok", func() {
			rr := get("/health")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(decode(rr)["status"]).To(Equal("ok"))
		})
	})
})
