// Package metrics exports cycle outcomes as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"subsync/pkg/updater"
)

// Namespace prefixes every metric name
const Namespace = "subsync"

// Recorder turns cycle reports into Prometheus metrics
type Recorder struct {
	registry      *prometheus.Registry
	cycleDuration *prometheus.HistogramVec
	stepFaults    *prometheus.CounterVec
	pushes        *prometheus.CounterVec
	pulls         prometheus.Counter
	lastSuccess   prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Help:      "Distribution of durations of sync cycles",
				Namespace: Namespace,
				Name:      "cycle_duration_seconds",
			},
			// status: success, error
			[]string{"status"},
		),
		stepFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Total number of faults per cycle step",
				Namespace: Namespace,
				Name:      "step_faults_total",
			},
			[]string{"step"},
		),
		pushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Total number of successful pushes to Reddit",
				Namespace: Namespace,
				Name:      "pushes_total",
			},
			// resource: stylesheet, sidebar
			[]string{"resource"},
		),
		pulls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Total number of successful pulls of the local repository",
				Namespace: Namespace,
				Name:      "pulls_total",
			}),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Help:      "Unix time of the last cycle that finished without faults",
				Namespace: Namespace,
				Name:      "last_success_timestamp_seconds",
			}),
	}

	r.registry.MustRegister(r.cycleDuration, r.stepFaults, r.pushes, r.pulls, r.lastSuccess)
	return r
}

// ObserveCycle implements updater.Observer
func (r *Recorder) ObserveCycle(report updater.Report) {
	status := "success"
	if len(report.Faults) > 0 {
		status = "error"
	}
	r.cycleDuration.WithLabelValues(status).Observe(report.Duration().Seconds())

	for _, f := range report.Faults {
		r.stepFaults.WithLabelValues(string(f.Step)).Inc()
	}
	if report.Pulled {
		r.pulls.Inc()
	}
	if report.StylesheetPushed {
		r.pushes.WithLabelValues(string(updater.StepStylesheet)).Inc()
	}
	if report.SidebarPushed {
		r.pushes.WithLabelValues(string(updater.StepSidebar)).Inc()
	}
	if status == "success" {
		r.lastSuccess.Set(float64(report.Finished.Unix()))
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (r *Recorder) Serve(ctx context.Context, addr string, log *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Debugf("Serving metrics on %s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
