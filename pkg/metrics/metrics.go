package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	docpipe = "docpipe"

	uploadsTotal             = "uploads_total"
	conversionsTotal         = "conversions_total"
	metadataExtractionsTotal = "metadata_extractions_total"
	downloadsTotal           = "downloads_total"
	enqueueFailuresTotal     = "enqueue_failures_total"

	// Labels
	resultLabel = "result"
	sourceLabel = "source"
	kindLabel   = "kind"
)

// Label values
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"

	ResultCompleted = "completed"
	ResultFailed    = "failed"

	SourceConverted = "converted"
	SourceOriginal  = "original"
)

/**
* Metrics definition
**/
var uploadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: docpipe,
		Name:      uploadsTotal,
		Help:      "number of uploads partitioned by result",
	},
	[]string{resultLabel},
)

var conversionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: docpipe,
		Name:      conversionsTotal,
		Help:      "number of conversion outcomes recorded",
	},
	[]string{resultLabel},
)

var metadataExtractionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: docpipe,
		Name:      metadataExtractionsTotal,
		Help:      "number of metadata extractions partitioned by result",
	},
	[]string{resultLabel},
)

var downloadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: docpipe,
		Name:      downloadsTotal,
		Help:      "number of downloads partitioned by the blob served",
	},
	[]string{sourceLabel},
)

var enqueueFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: docpipe,
		Name:      enqueueFailuresTotal,
		Help:      "number of jobs that could not be enqueued after the upload was recorded",
	},
	[]string{kindLabel},
)

func IncreaseUploadsTotalMetric(result string) {
	uploadsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func IncreaseConversionsTotalMetric(result string) {
	conversionsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func IncreaseMetadataExtractionsTotalMetric(result string) {
	metadataExtractionsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func IncreaseDownloadsTotalMetric(source string) {
	downloadsTotalMetric.With(prometheus.Labels{sourceLabel: source}).Inc()
}

func IncreaseEnqueueFailuresTotalMetric(kind string) {
	enqueueFailuresTotalMetric.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(uploadsTotalMetric)
	prometheus.MustRegister(conversionsTotalMetric)
	prometheus.MustRegister(metadataExtractionsTotalMetric)
	prometheus.MustRegister(downloadsTotalMetric)
	prometheus.MustRegister(enqueueFailuresTotalMetric)
}
