// SPDX-License-Identifier: EPL-2.0

// Package metrics holds the Prometheus collectors for the pipeline and the
// HTTP surface. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "speechrig"

type Metrics struct {
	Requests          *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	InFlight          prometheus.Gauge
	ModelLoads        *prometheus.CounterVec
	ModelLoadDuration *prometheus.HistogramVec
	AudioSeconds      prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Animation requests by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"stage"},
		),
		InFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight",
				Help:      "Whether a pipeline is currently running",
			},
		),
		ModelLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_loads_total",
				Help:      "Model load attempts by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		ModelLoadDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_load_duration_seconds",
				Help:      "Model load duration in seconds",
			},
			[]string{"model"},
		),
		AudioSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "audio_seconds",
				Help:      "Length of the audio animated per request",
				Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
			},
			[]string{"method", "route"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) ObserveRequest(err error, audio time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.AudioSeconds.Observe(audio.Seconds())
	}
}

// Rejected counts a request turned away before it started.
func (m *Metrics) Rejected() {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues("rejected").Inc()
}

func (m *Metrics) ObserveStage(stage string, took time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(took.Seconds())
}

func (m *Metrics) SetInFlight(busy bool) {
	if m == nil {
		return
	}
	if busy {
		m.InFlight.Set(1)
		return
	}
	m.InFlight.Set(0)
}

func (m *Metrics) ObserveModelLoad(model string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.ModelLoads.WithLabelValues(model, outcome(err)).Inc()
	m.ModelLoadDuration.WithLabelValues(model).Observe(took.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
