package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/docpipe/docpipe/internal/store/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StatusCounter is the part of the conversion store the collector reads.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[model.ConversionState]int64, error)
}

type conversionStatusCollector struct {
	counter StatusCounter
	byState *prometheus.Desc
}

// NewConversionStatusCollector exposes the number of conversion records in each state.
func NewConversionStatusCollector(c StatusCounter) prometheus.Collector {
	return &conversionStatusCollector{
		counter: c,
		byState: prometheus.NewDesc(
			fmt.Sprintf("%s_conversion_status_count", docpipe),
			"Number of conversion records in each state.",
			[]string{"state"},
			prometheus.Labels{},
		),
	}
}

func (c *conversionStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.byState
}

// Collect implements Collector.
func (c *conversionStatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		zap.S().Named("status_collector").Errorf("failed to collect conversion statistics: %s", err)
		return
	}

	for state, total := range counts {
		ch <- prometheus.MustNewConstMetric(c.byState, prometheus.GaugeValue, float64(total), string(state))
	}
}
