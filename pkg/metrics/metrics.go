// Package metrics records generation and build instrumentation on a private
// Prometheus registry. Nothing is exported over HTTP; the registry exists so
// debug output can dump a consistent text snapshot of everything a compile
// did.
package metrics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Recorder aggregates counters and histograms for one process. Methods are
// nil-safe so instrumentation stays optional at call sites.
type Recorder struct {
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	builds   *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Recorder{
		registry: registry,
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sculpt_generation_attempts_total",
				Help: "Generation attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sculpt_generation_duration_seconds",
				Help:    "Duration of generation calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sculpt_generation_tokens_total",
				Help: "Tokens exchanged with generation providers",
			},
			[]string{"provider", "type"},
		),
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sculpt_builds_total",
				Help: "Completed build actions by target and status",
			},
			[]string{"target", "status"},
		),
	}
}

// ObserveGeneration records one generation call. Token counts are recorded
// only for successful calls; a failed call has no meaningful usage.
func (r *Recorder) ObserveGeneration(provider string, inputTokens, outputTokens int64, success bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	r.attempts.WithLabelValues(provider, outcome).Inc()
	r.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if success {
		r.tokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
		r.tokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// ObserveBuild records one completed build action.
func (r *Recorder) ObserveBuild(target, status string) {
	if r == nil {
		return
	}
	r.builds.WithLabelValues(target, status).Inc()
}

// Dump renders the registry in the Prometheus text exposition format.
func (r *Recorder) Dump() (string, error) {
	if r == nil {
		return "", nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}
	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return "", fmt.Errorf("encode metrics: %w", err)
		}
	}
	return buf.String(), nil
}
