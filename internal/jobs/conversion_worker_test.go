package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/internal/jobs"
	"github.com/docpipe/docpipe/internal/store"
	"github.com/docpipe/docpipe/internal/store/model"
	"github.com/docpipe/docpipe/internal/testutil"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"gorm.io/gorm"
)

var _ = Describe("conversion worker", Ordered, func() {
	var (
		s         store.Store
		gormdb    *gorm.DB
		dir       string
		blobs     *blob.MemoryStore
		converter *fakeConverter
		keys      *blob.Keys
	)

	job := func(args jobs.ConversionArgs) *river.Job[jobs.ConversionArgs] {
		return &river.Job[jobs.ConversionArgs]{
			JobRow: &rivertype.JobRow{ID: 1, Attempt: 1, Kind: jobs.ConversionKind},
			Args:   args,
		}
	}

	upload := func(fileName string) jobs.ConversionArgs {
		id := uuid.NewString()
		key := keys.Upload(id, fileName)
		Expect(blobs.Put(context.TODO(), key, strings.NewReader("docx bytes"), 10, engine.DocxContentType)).To(Succeed())

		doc, err := s.Document().Create(context.TODO(), model.Document{
			ID:          id,
			FileName:    fileName,
			ContentType: engine.DocxContentType,
			Size:        10,
			BlobKey:     key,
		})
		Expect(err).To(BeNil())
		_, err = s.Conversion().CreatePending(context.TODO(), model.NewPendingConversion(*doc))
		Expect(err).To(BeNil())

		return jobs.ConversionArgs{DocumentID: id, BlobKey: key, TargetFormat: jobs.TargetFormatPDF}
	}

	newWorker := func(st store.Store) *jobs.ConversionWorker {
		return jobs.NewConversionWorker(st, blobs, converter, keys, nil, time.Minute)
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
		converter = &fakeConverter{}
		keys = blob.NewKeys()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM conversion_statuses;")
		gormdb.Exec("DELETE FROM documents;")
	})

	It("uses the per job timeout", func() {
		Expect(newWorker(s).Timeout(nil)).To(Equal(time.Minute))
	})

	It("stores the pdf and marks the conversion completed", func() {
		args := upload("report.docx")

		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())

		status, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(model.ConversionStateCompleted))
		Expect(status.OriginalKey).To(Equal(args.BlobKey))
		Expect(status.ConvertedKey).NotTo(BeNil())
		Expect(*status.ConvertedKey).To(HavePrefix("converted/" + args.DocumentID + "/"))
		Expect(*status.ConvertedKey).To(HaveSuffix("_report.pdf"))
		Expect(converter.received).To(ConsistOf("report.docx"))

		obj, err := blobs.Get(context.TODO(), *status.ConvertedKey)
		Expect(err).To(BeNil())
		defer obj.Body.Close()
		Expect(obj.ContentType).To(Equal(engine.PDFContentType))
		data, _ := io.ReadAll(obj.Body)
		Expect(bytes.HasPrefix(data, []byte("%PDF"))).To(BeTrue())
	})

	It("marks the conversion failed when the engine fails and does not ask for a retry", func() {
		args := upload("broken.docx")
		converter.err = errors.New("soffice failed: corrupt file")

		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())

		status, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(model.ConversionStateFailed))
		Expect(status.ConvertedKey).To(BeNil())
		Expect(*status.Error).To(ContainSubstring("corrupt file"))
	})

	It("marks the conversion failed when the original blob is missing", func() {
		args := upload("gone.docx")
		blobs.Delete(args.BlobKey)

		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())

		status, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(model.ConversionStateFailed))
		Expect(*status.Error).To(ContainSubstring(blob.ErrNotFound.Error()))
		Expect(converter.received).To(BeEmpty())
	})

	It("rejects target formats other than pdf", func() {
		args := upload("report.docx")
		args.TargetFormat = "odt"

		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())

		status, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(model.ConversionStateFailed))
		Expect(*status.Error).To(ContainSubstring("unsupported target format"))
	})

	It("keeps the completed record when a redelivered job fails", func() {
		args := upload("report.docx")
		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())
		completed, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())

		converter.err = errors.New("engine crashed")
		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())

		status, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(model.ConversionStateCompleted))
		Expect(*status.ConvertedKey).To(Equal(*completed.ConvertedKey))
		Expect(status.Error).To(BeNil())
	})

	It("keeps the converted key of the last successful replay", func() {
		args := upload("report.docx")
		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())
		first, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())

		Expect(newWorker(s).Work(context.TODO(), job(args))).To(Succeed())
		second, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())

		Expect(second.Status).To(Equal(model.ConversionStateCompleted))
		Expect(*second.ConvertedKey).NotTo(Equal(*first.ConvertedKey))

		var count int64
		Expect(gormdb.Model(&model.ConversionStatus{}).Where("document_id = ?", args.DocumentID).Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(int64(1)))
	})

	It("ends with a single terminal record when the same job is delivered twice at once", func() {
		args := upload("report.docx")
		worker := newWorker(s)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				errs[i] = worker.Work(context.TODO(), job(args))
			}(i)
		}
		wg.Wait()

		Expect(errs).To(HaveEach(BeNil()))

		var count int64
		Expect(gormdb.Model(&model.ConversionStatus{}).Where("document_id = ?", args.DocumentID).Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(int64(1)))

		status, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(model.ConversionStateCompleted))
		Expect(converter.received).To(HaveLen(2))
	})

	It("falls back to the name in the blob key when the document record is missing", func() {
		id := uuid.NewString()
		key := keys.Upload(id, "notes.docx")
		Expect(blobs.Put(context.TODO(), key, strings.NewReader("docx bytes"), 10, engine.DocxContentType)).To(Succeed())

		Expect(newWorker(s).Work(context.TODO(), job(jobs.ConversionArgs{DocumentID: id, BlobKey: key, TargetFormat: "pdf"}))).To(Succeed())

		status, err := s.Conversion().Get(context.TODO(), id)
		Expect(err).To(BeNil())
		Expect(status.FileName).To(Equal("notes.docx"))
		Expect(*status.ConvertedKey).To(HaveSuffix("_notes.pdf"))
	})

	It("returns an error so the job is retried when the outcome cannot be recorded", func() {
		args := upload("report.docx")
		broken := storeWithConversions{Store: s, conversions: brokenConversions{Conversion: s.Conversion()}}

		Expect(newWorker(broken).Work(context.TODO(), job(args))).To(MatchError(ContainSubstring("failed to record completed conversion")))

		converter.err = errors.New("engine crashed")
		Expect(newWorker(broken).Work(context.TODO(), job(args))).To(MatchError(ContainSubstring("failed to record failed conversion")))

		status, err := s.Conversion().Get(context.TODO(), args.DocumentID)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(model.ConversionStatePending))
	})
})
