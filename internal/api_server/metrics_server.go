package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/docpipe/docpipe/pkg/metrics"
	"github.com/docpipe/docpipe/pkg/middleware"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type MetricServer struct {
	bindAddress string
	httpServer  *http.Server
	listener    net.Listener
}

// NewMetricServer serves the default registry and registers the conversion status collector on it.
func NewMetricServer(bindAddress string, listener net.Listener, logLevel string, counter metrics.StatusCounter) *MetricServer {
	router := chi.NewRouter()
	router.Use(middleware.ConditionalLogger(logLevel, "metrics_server"))

	if counter != nil {
		prometheus.MustRegister(metrics.NewConversionStatusCollector(counter))
	}
	router.Handle("/metrics", promhttp.Handler())

	s := &MetricServer{
		bindAddress: bindAddress,
		listener:    listener,
		httpServer: &http.Server{
			Addr:              bindAddress,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}

	return s
}

func (m *MetricServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		m.httpServer.SetKeepAlivesEnabled(false)
		_ = m.httpServer.Shutdown(ctxTimeout)
		zap.S().Named("metrics_server").Info("metrics server terminated")
	}()

	zap.S().Named("metrics_server").Infof("serving metrics: %s", m.bindAddress)
	if err := m.httpServer.Serve(m.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
