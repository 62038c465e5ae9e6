// Package metrics exposes Prometheus metrics for turns and model calls.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zen-systems/erpassist/pkg/adapter"
)

const namespace = "erpassist"

// Metrics owns a private registry with the assistant's collectors.
type Metrics struct {
	registry     *prometheus.Registry
	stepDuration *prometheus.HistogramVec
	stepErrors   *prometheus.CounterVec
	turns        *prometheus.CounterVec
	modelCalls   *prometheus.CounterVec
	modelTokens  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of turn steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		stepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_errors_total",
			Help:      "Turn steps that returned an error.",
		}, []string{"step"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed turns by terminal action.",
		}, []string{"action", "grounded"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Model calls by adapter, model and outcome.",
		}, []string{"adapter", "model", "outcome"}),
		modelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Tokens reported by providers.",
		}, []string{"adapter", "model", "kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.stepDuration, m.stepErrors, m.turns, m.modelCalls, m.modelTokens,
	)
	return m
}

// ObserveStep records a step duration and, when err is set, a failure.
func (m *Metrics) ObserveStep(step string, elapsed time.Duration, err error) {
	m.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
	if err != nil {
		m.stepErrors.WithLabelValues(step).Inc()
	}
}

// ObserveTurn counts a finished turn.
func (m *Metrics) ObserveTurn(action string, grounded bool) {
	g := "false"
	if grounded {
		g = "true"
	}
	m.turns.WithLabelValues(action, g).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps an adapter so every call is counted.
func (m *Metrics) Instrument(a adapter.Adapter) adapter.Adapter {
	return &instrumented{Adapter: a, metrics: m}
}

type instrumented struct {
	adapter.Adapter
	metrics *Metrics
}

func (i *instrumented) Generate(ctx context.Context, model string, req adapter.Request) (*adapter.Response, error) {
	resp, err := i.Adapter.Generate(ctx, model, req)
	name := i.Adapter.Name()
	switch {
	case err != nil && adapter.IsRateLimited(err):
		i.metrics.modelCalls.WithLabelValues(name, model, "rate_limited").Inc()
	case err != nil:
		i.metrics.modelCalls.WithLabelValues(name, model, "error").Inc()
	default:
		i.metrics.modelCalls.WithLabelValues(name, model, "ok").Inc()
	}
	if resp != nil && resp.Usage != nil {
		i.metrics.modelTokens.WithLabelValues(name, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		i.metrics.modelTokens.WithLabelValues(name, model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	return resp, err
}
