// Package metric provides Prometheus instrumentation for the bridge:
// request/response counters, timeout and drop counters, round-trip latency
// and buffer side-channel volume.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all bridge-level metrics
type Metrics struct {
	RequestsSent       *prometheus.CounterVec
	ResponsesDelivered *prometheus.CounterVec
	ResponsesDropped   *prometheus.CounterVec
	Timeouts           *prometheus.CounterVec
	RoundTripDuration  *prometheus.HistogramVec
	BufferBytesOut     *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all bridge metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "molvis",
				Subsystem: "requests",
				Name:      "sent_total",
				Help:      "Total number of requests sent to the peer",
			},
			[]string{"scene", "method", "kind"},
		),

		ResponsesDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "molvis",
				Subsystem: "responses",
				Name:      "delivered_total",
				Help:      "Total number of responses matched to a waiting request",
			},
			[]string{"scene"},
		),

		ResponsesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "molvis",
				Subsystem: "responses",
				Name:      "dropped_total",
				Help:      "Total number of inbound messages dropped (unmatched id or decode failure)",
			},
			[]string{"scene", "reason"},
		),

		Timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "molvis",
				Subsystem: "requests",
				Name:      "timeouts_total",
				Help:      "Total number of blocking calls that timed out",
			},
			[]string{"scene", "method"},
		),

		RoundTripDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "molvis",
				Subsystem: "requests",
				Name:      "round_trip_seconds",
				Help:      "Round-trip latency of blocking calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scene", "method"},
		),

		BufferBytesOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "molvis",
				Subsystem: "buffers",
				Name:      "bytes_out_total",
				Help:      "Total bytes shipped on the binary buffer side-channel",
			},
			[]string{"scene"},
		),
	}
}

// RecordRequest increments the sent-request counter. Kind is "fire" or "call".
func (m *Metrics) RecordRequest(scene, method, kind string) {
	if m == nil {
		return
	}
	m.RequestsSent.WithLabelValues(scene, method, kind).Inc()
}

// RecordDelivered increments the matched-response counter
func (m *Metrics) RecordDelivered(scene string) {
	if m == nil {
		return
	}
	m.ResponsesDelivered.WithLabelValues(scene).Inc()
}

// RecordDropped increments the dropped-message counter.
// Reason is "unmatched" or "decode".
func (m *Metrics) RecordDropped(scene, reason string) {
	if m == nil {
		return
	}
	m.ResponsesDropped.WithLabelValues(scene, reason).Inc()
}

// RecordTimeout increments the call-timeout counter
func (m *Metrics) RecordTimeout(scene, method string) {
	if m == nil {
		return
	}
	m.Timeouts.WithLabelValues(scene, method).Inc()
}

// RecordRoundTrip records the latency of one completed blocking call
func (m *Metrics) RecordRoundTrip(scene, method string, d time.Duration) {
	if m == nil {
		return
	}
	m.RoundTripDuration.WithLabelValues(scene, method).Observe(d.Seconds())
}

// RecordBufferBytes adds to the binary side-channel volume counter
func (m *Metrics) RecordBufferBytes(scene string, n int) {
	if m == nil {
		return
	}
	m.BufferBytesOut.WithLabelValues(scene).Add(float64(n))
}
