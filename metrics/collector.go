// Package metrics wires a natsline.Conn to Prometheus using the same
// counter/gauge/histogram construction style as a typical promauto-based
// collector, generalized from a websocket server's connection metrics to
// one broker session's message and liveness metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements the metrics sink a Conn is built with via
// natsline.WithMetrics. Construct one per process (or per registry) and
// share it across every Conn the process owns.
type Collector struct {
	connected prometheus.Gauge

	messagesIn     prometheus.Counter
	messagesOut    prometheus.Counter
	bytesIn        prometheus.Counter
	bytesOut       prometheus.Counter

	publishLatency prometheus.Histogram
	requestLatency prometheus.Histogram

	pingFailures prometheus.Counter
}

// NewCollector registers its metrics on reg (pass prometheus.DefaultRegisterer
// for the global registry, matching promauto.With(reg) used throughout the
// teacher's NewMetrics()).
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "natsline_connected",
			Help: "1 if the session is connected to the broker, 0 otherwise.",
		}),
		messagesIn: factory.NewCounter(prometheus.CounterOpts{
			Name: "natsline_messages_in_total",
			Help: "Total number of MSG/HMSG messages received from the broker.",
		}),
		messagesOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "natsline_messages_out_total",
			Help: "Total number of messages published.",
		}),
		bytesIn: factory.NewCounter(prometheus.CounterOpts{
			Name: "natsline_bytes_in_total",
			Help: "Total payload bytes received.",
		}),
		bytesOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "natsline_bytes_out_total",
			Help: "Total payload bytes published.",
		}),
		publishLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "natsline_publish_latency_seconds",
			Help:    "Time spent writing a publish frame to the socket.",
			Buckets: prometheus.DefBuckets,
		}),
		requestLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "natsline_request_latency_seconds",
			Help:    "Time from request call to reply received.",
			Buckets: prometheus.DefBuckets,
		}),
		pingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "natsline_ping_failures_total",
			Help: "Total number of health checks that timed out waiting for PONG.",
		}),
	}
}

func (c *Collector) SetConnected(connected bool) {
	if connected {
		c.connected.Set(1)
	} else {
		c.connected.Set(0)
	}
}

func (c *Collector) MessageIn(bytes int) {
	c.messagesIn.Inc()
	c.bytesIn.Add(float64(bytes))
}

func (c *Collector) MessageOut(bytes int) {
	c.messagesOut.Inc()
	c.bytesOut.Add(float64(bytes))
}

func (c *Collector) PublishLatency(d time.Duration) { c.publishLatency.Observe(d.Seconds()) }
func (c *Collector) RequestLatency(d time.Duration) { c.requestLatency.Observe(d.Seconds()) }
func (c *Collector) PingFailure()                   { c.pingFailures.Inc() }
