// Package metrics exposes Prometheus metrics for snipd.
//
// The collectors live on a private registry so tests can create as many
// Metrics values as they like; the daemon serves its instance on an optional
// HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snipd"

// Outcome labels for extension calls.
const (
	OutcomeValue = "value"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// DurationBuckets are the histogram buckets for render passes, in seconds.
var DurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Metrics holds every collector the daemon updates.
type Metrics struct {
	Registry *prometheus.Registry

	RenderPasses   *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	ExtensionCalls *prometheus.CounterVec

	InputEvents *prometheus.CounterVec

	RemoteCommands *prometheus.CounterVec
	RemoteDropped  prometheus.Counter
	TrayIcon       *prometheus.GaugeVec
}

// New creates a Metrics value with its own registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RenderPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_passes_total",
			Help:      "Render passes by outcome (ok or failed).",
		}, []string{"outcome"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of complete render passes.",
			Buckets:   DurationBuckets,
		}),
		ExtensionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_calls_total",
			Help:      "Extension invocations by extension and outcome.",
		}, []string{"extension", "outcome"}),
		InputEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_events_total",
			Help:      "Input events delivered by the monitor, by kind.",
		}, []string{"kind"}),
		RemoteCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_commands_total",
			Help:      "Commands applied by the UI event loop, by command.",
		}, []string{"command"}),
		RemoteDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_commands_dropped_total",
			Help:      "Commands discarded because the UI queue was full.",
		}),
		TrayIcon: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tray_icon",
			Help:      "1 for the tray icon state currently shown.",
		}, []string{"state"}),
	}

	m.Registry.MustRegister(
		m.RenderPasses,
		m.RenderDuration,
		m.ExtensionCalls,
		m.InputEvents,
		m.RemoteCommands,
		m.RemoteDropped,
		m.TrayIcon,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the HTTP handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Mux returns a mux serving /metrics plus the extra routes.
func (m *Metrics) Mux(routes map[string]http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	for pattern, h := range routes {
		mux.Handle(pattern, h)
	}
	return mux
}

// Serve exposes /metrics and routes on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, routes map[string]http.Handler) error {
	mux := m.Mux(routes)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
