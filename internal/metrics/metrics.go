// Package metrics provides Prometheus metrics for the embedding service.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "corpus_embeddings"

// Encode modes
const (
	ModeSingle = "single"
	ModePool   = "pool"
)

type Metrics struct {
	Registry *prometheus.Registry

	// RequestsTotal counts HTTP responses by status code.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration measures request handling time.
	RequestDuration *prometheus.HistogramVec
	// EncodeBatchesTotal counts encode calls by dispatch mode.
	EncodeBatchesTotal *prometheus.CounterVec
	// EncodeTextsTotal counts encoded texts.
	EncodeTextsTotal prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		EncodeBatchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "encode_batches_total",
				Help:      "Total number of encode calls",
			},
			[]string{"mode"},
		),
		EncodeTextsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "encode_texts_total",
				Help:      "Total number of encoded texts",
			},
		),
	}
}

// RecordRequest records one handled HTTP request.
func (m *Metrics) RecordRequest(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordEncode records one encode call over n texts.
func (m *Metrics) RecordEncode(mode string, n int) {
	if m == nil {
		return
	}
	m.EncodeBatchesTotal.WithLabelValues(mode).Inc()
	m.EncodeTextsTotal.Add(float64(n))
}

// Server exposes /metrics on its own listener.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	return &Server{srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
}

// Start serves in the background; onError receives a listen failure.
func (s *Server) Start(onError func(error)) {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			onError(err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
