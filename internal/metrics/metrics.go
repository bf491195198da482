// Package metrics exposes Prometheus instrumentation for the tick loop and
// the HTTP service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several collectors can coexist in
// one process (tests, embedded servers).
type Collector struct {
	registry *prometheus.Registry

	ticks           prometheus.Counter
	tickDuration    prometheus.Histogram
	keplerSteps     prometheus.Histogram
	clockSpeed      prometheus.Gauge
	simTime         prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamClients   prometheus.Gauge
}

// NewCollector creates and registers all orrery metrics.
func NewCollector() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_ticks_total",
			Help: "Total number of simulation ticks",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_tick_duration_seconds",
			Help:    "Time spent computing one frame",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		keplerSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_kepler_iterations",
			Help:    "Newton steps taken by the lunar Kepler solve",
			Buckets: prometheus.LinearBuckets(1, 1, 8),
		}),
		clockSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_clock_speed",
			Help: "Simulated seconds per real second",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_sim_time_seconds",
			Help: "Simulated now as Unix seconds",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "orrery_http_request_duration_seconds",
				Help: "Time spent processing HTTP requests",
			},
			[]string{"route"},
		),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_stream_clients",
			Help: "Connected WebSocket stream clients",
		}),
	}

	m.registry.MustRegister(
		m.ticks,
		m.tickDuration,
		m.keplerSteps,
		m.clockSpeed,
		m.simTime,
		m.requestsTotal,
		m.requestDuration,
		m.streamClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordTick records one completed tick.
func (m *Collector) RecordTick(d time.Duration, keplerSteps int, speed float64, simNow time.Time) {
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
	m.keplerSteps.Observe(float64(keplerSteps))
	m.clockSpeed.Set(speed)
	m.simTime.Set(float64(simNow.UnixNano()) / 1e9)
}

// RecordRequest records one served HTTP request.
func (m *Collector) RecordRequest(route string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// StreamOpened and StreamClosed track WebSocket clients.
func (m *Collector) StreamOpened() { m.streamClients.Inc() }

func (m *Collector) StreamClosed() { m.streamClients.Dec() }

// Registry returns the collector's registry.
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
