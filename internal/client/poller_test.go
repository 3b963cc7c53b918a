package client_test

import (
	"context"
	"errors"
	"time"

	"github.com/docpipe/docpipe/internal/client"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("poller", func() {
	var (
		reader *scriptedReader
		poller *client.Poller
	)

	BeforeEach(func() {
		reader = &scriptedReader{}
		poller = client.NewPoller(reader,
			client.WithInterval(5*time.Millisecond),
			client.WithJitter(0),
			client.WithStatusMaxAttempts(4),
			client.WithMetadataMaxAttempts(3),
		)
	})

	Context("conversion", func() {
		It("stops at the first completed status", func() {
			converted := "converted/report-1.pdf"
			reader.statuses = []statusAnswer{
				pending(),
				{status: &client.Status{Status: client.StatusCompleted, ConvertedPath: &converted}},
			}

			result := poller.WatchConversion(context.TODO(), "doc")
			Expect(result.Outcome).To(Equal(client.ConversionReady))
			Expect(result.Attempts).To(Equal(2))
			Expect(*result.Status.ConvertedPath).To(Equal(converted))

			statusCalls, _ := reader.calls()
			Expect(statusCalls).To(Equal(2))
		})

		It("reports a failed conversion", func() {
			reader.statuses = []statusAnswer{{status: &client.Status{Status: client.StatusFailed}}}

			result := poller.WatchConversion(context.TODO(), "doc")
			Expect(result.Outcome).To(Equal(client.ConversionFailed))
			Expect(result.Attempts).To(Equal(1))
		})

		It("gives up with a distinct state when still pending", func() {
			reader.statuses = []statusAnswer{pending()}

			result := poller.WatchConversion(context.TODO(), "doc")
			Expect(result.Outcome).To(Equal(client.ConversionPollingStopped))
			Expect(result.Attempts).To(Equal(4))
			Expect(result.Outcome.String()).To(Equal("still processing, polling stopped"))
		})

		It("counts failed polls as attempts", func() {
			boom := errors.New("connection refused")
			reader.statuses = []statusAnswer{{err: boom}, {err: boom}, {status: &client.Status{Status: client.StatusCompleted}}}

			result := poller.WatchConversion(context.TODO(), "doc")
			Expect(result.Outcome).To(Equal(client.ConversionReady))
			Expect(result.Attempts).To(Equal(3))
			Expect(result.LastErr).To(MatchError(boom))
		})

		It("stops polling once canceled", func() {
			reader.statuses = []statusAnswer{pending()}
			ctx, cancel := context.WithCancel(context.TODO())
			cancel()

			result := poller.WatchConversion(ctx, "doc")
			Expect(result.Outcome).To(Equal(client.ConversionCanceled))

			statusCalls, _ := reader.calls()
			Expect(statusCalls).To(BeZero())
		})
	})

	Context("metadata", func() {
		It("returns the properties once present", func() {
			reader.metadata = []metadataAnswer{notFound(), {props: map[string]string{"title": "Quarterly"}}}

			result := poller.WatchMetadata(context.TODO(), "doc")
			Expect(result.Outcome).To(Equal(client.MetadataAvailable))
			Expect(result.Properties).To(HaveKeyWithValue("title", "Quarterly"))
			Expect(result.LastErr).To(BeNil())
		})

		It("gives up after the attempt budget", func() {
			reader.metadata = []metadataAnswer{notFound()}

			result := poller.WatchMetadata(context.TODO(), "doc")
			Expect(result.Outcome).To(Equal(client.MetadataUnavailable))
			Expect(result.Attempts).To(Equal(3))

			_, metadataCalls := reader.calls()
			Expect(metadataCalls).To(Equal(3))
		})
	})

	Context("watch", func() {
		It("offers download without enabling it when metadata gives up first", func() {
			reader.statuses = []statusAnswer{pending()}
			reader.metadata = []metadataAnswer{notFound()}
			poller = client.NewPoller(reader,
				client.WithInterval(5*time.Millisecond),
				client.WithJitter(0),
				client.WithStatusMaxAttempts(20),
				client.WithMetadataMaxAttempts(3),
			)

			states := []client.State{}
			final := poller.Watch(context.TODO(), "doc", func(s client.State) {
				states = append(states, s)
			})

			Expect(states).To(HaveLen(2))
			// metadata has the smaller budget so it settles first
			Expect(states[0].Metadata.Outcome).To(Equal(client.MetadataUnavailable))
			Expect(states[0].Conversion.Outcome).To(Equal(client.ConversionPolling))
			Expect(states[0].DownloadOffered()).To(BeTrue())
			Expect(states[0].DownloadEnabled()).To(BeFalse())

			Expect(final.Conversion.Outcome).To(Equal(client.ConversionPollingStopped))
			Expect(final.DownloadEnabled()).To(BeFalse())
		})

		It("enables download once the conversion completes, whatever the metadata says", func() {
			reader.statuses = []statusAnswer{{status: &client.Status{Status: client.StatusCompleted}}}
			reader.metadata = []metadataAnswer{notFound()}

			final := poller.Watch(context.TODO(), "doc", nil)
			Expect(final.Conversion.Outcome).To(Equal(client.ConversionReady))
			Expect(final.Metadata.Outcome).To(Equal(client.MetadataUnavailable))
			Expect(final.DownloadOffered()).To(BeTrue())
			Expect(final.DownloadEnabled()).To(BeTrue())
		})

		It("neither offers nor enables download while both axes poll", func() {
			Expect(client.State{}.DownloadOffered()).To(BeFalse())
			Expect(client.State{}.DownloadEnabled()).To(BeFalse())
		})

		It("reports canceled on both axes", func() {
			reader.statuses = []statusAnswer{pending()}
			reader.metadata = []metadataAnswer{notFound()}
			ctx, cancel := context.WithCancel(context.TODO())
			cancel()

			final := poller.Watch(ctx, "doc", nil)
			Expect(final.Conversion.Outcome).To(Equal(client.ConversionCanceled))
			Expect(final.Metadata.Outcome).To(Equal(client.MetadataCanceled))
			Expect(final.DownloadOffered()).To(BeFalse())
		})
	})
})
