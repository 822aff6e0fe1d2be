// Package metrics provides Prometheus metrics for hubdash's Maker API traffic.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/five82/hubdash/internal/maker"
)

const namespace = "hubdash"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	Registry *prometheus.Registry

	// RequestsTotal counts Maker API requests by endpoint and outcome.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration tracks Maker API request latency.
	RequestDuration *prometheus.HistogramVec
	// ConnectionStatus is 1 while the last poll succeeded.
	ConnectionStatus prometheus.Gauge
	// Devices is the device count seen by the last successful poll.
	Devices prometheus.Gauge
}

// Ensure Metrics observes client requests at compile time.
var _ maker.Observer = (*Metrics)(nil)

// New builds and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of Maker API requests",
			},
			[]string{"endpoint", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of Maker API requests in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		ConnectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_status",
			Help:      "Connection status to the hub (1=connected, 0=disconnected)",
		}),
		Devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Number of devices exposed by the Maker API app",
		}),
	}
	m.Registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ConnectionStatus,
		m.Devices,
	)
	return m
}

// ObserveRequest implements maker.Observer.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordPoll records the result of one refresh cycle.
func (m *Metrics) RecordPoll(deviceCount int, err error) {
	if err != nil {
		m.ConnectionStatus.Set(0)
		return
	}
	m.ConnectionStatus.Set(1)
	m.Devices.Set(float64(deviceCount))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	return m.serve(ctx, ln)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
