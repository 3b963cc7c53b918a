package jobs_test

import (
	"github.com/docpipe/docpipe/internal/jobs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("job args", func() {
	It("routes conversions to the conversion queue with unique args", func() {
		args := jobs.ConversionArgs{}
		Expect(args.Kind()).To(Equal("document_conversion"))
		opts := args.InsertOpts()
		Expect(opts.Queue).To(Equal(jobs.ConversionQueue))
		Expect(opts.UniqueOpts.ByArgs).To(BeTrue())
		Expect(opts.MaxAttempts).To(BeZero())
	})

	It("gives metadata extraction a single attempt", func() {
		args := jobs.MetadataArgs{}
		Expect(args.Kind()).To(Equal("document_metadata"))
		opts := args.InsertOpts()
		Expect(opts.Queue).To(Equal(jobs.MetadataQueue))
		Expect(opts.MaxAttempts).To(Equal(1))
	})

	It("runs the reconcile sweep on the maintenance queue", func() {
		args := jobs.ReconcileArgs{}
		Expect(args.Kind()).To(Equal("reconcile_pending"))
		Expect(args.InsertOpts().Queue).To(Equal(jobs.MaintenanceQueue))
	})
})
