package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry          *prometheus.Registry
	toolCallsTotal    *prometheus.CounterVec
	toolCallDuration  *prometheus.HistogramVec
	assetsWritten     *prometheus.CounterVec
	bytesWrittenTotal prometheus.Counter
	bytesSavedTotal   prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_studio_tool_calls_total",
			Help: "Total tool calls by tool name and result status.",
		}, []string{"tool", "status"}),
		toolCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "image_studio_tool_call_duration_seconds",
			Help:    "Duration of each tool call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		assetsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_studio_assets_written_total",
			Help: "Encoded assets written to disk by output format.",
		}, []string{"format"}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_studio_bytes_written_total",
			Help: "Total encoded bytes written to disk.",
		}),
		bytesSavedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_studio_bytes_saved_total",
			Help: "Total bytes saved by optimize and process calls.",
		}),
	}

	registry.MustRegister(
		m.toolCallsTotal,
		m.toolCallDuration,
		m.assetsWritten,
		m.bytesWrittenTotal,
		m.bytesSavedTotal,
	)
	return m
}

// ObserveToolCall records one finished tool call.
func (m *Metrics) ObserveToolCall(tool string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveAsset records an asset write of n bytes in the given format.
func (m *Metrics) ObserveAsset(format string, n int) {
	m.assetsWritten.WithLabelValues(format).Inc()
	m.bytesWrittenTotal.Add(float64(n))
}

// ObserveSaved records bytes saved relative to the source. Negative savings
// (output larger than input) are ignored.
func (m *Metrics) ObserveSaved(saved int64) {
	if saved > 0 {
		m.bytesSavedTotal.Add(float64(saved))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Router serves GET /metrics and GET /healthz.
func (m *Metrics) Router() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	return r
}

// Serve exposes Router on addr in the background. An empty addr disables
// the listener and returns nil.
func (m *Metrics) Serve(addr string, logger *logrus.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics listener stopped")
		}
	}()
	logger.WithField("addr", addr).Info("metrics listener enabled")
	return srv
}
