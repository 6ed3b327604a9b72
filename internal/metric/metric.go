// Package metric exposes the hub's relay counters as Prometheus metrics.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Drop reasons.
const (
	ReasonControl  = "control"  // control frames are never cast
	ReasonFiltered = "filtered" // suppressed by the source gateway
)

// I/O operations for error counting.
const (
	OpPoll  = "poll"
	OpRead  = "read"
	OpWrite = "write"
)

// Metrics holds the hub counters. A nil *Metrics is valid and records
// nothing, so the hub never has to branch on whether metrics are wired.
type Metrics struct {
	FramesSent      prometheus.Counter
	FramesDelivered prometheus.Counter
	FramesDropped   *prometheus.CounterVec
	Replies         prometheus.Counter
	IOErrors        *prometheus.CounterVec
}

// New creates the hub counters and registers them when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "virtualrf",
			Subsystem: "hub",
			Name:      "frames_sent_total",
			Help:      "Frames read off a source port",
		}),
		FramesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "virtualrf",
			Subsystem: "hub",
			Name:      "frames_delivered_total",
			Help:      "Frame deliveries to destination ports",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "virtualrf",
			Subsystem: "hub",
			Name:      "frames_dropped_total",
			Help:      "Frames not cast to the ether",
		}, []string{"reason"}),
		Replies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "virtualrf",
			Subsystem: "hub",
			Name:      "replies_total",
			Help:      "Synthetic reply frames generated by the hub",
		}),
		IOErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "virtualrf",
			Subsystem: "hub",
			Name:      "io_errors_total",
			Help:      "Port I/O failures tolerated by the relay loop",
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(m.FramesSent, m.FramesDelivered, m.FramesDropped, m.Replies, m.IOErrors)
	}
	return m
}

// Sent counts a frame read off a source port.
func (m *Metrics) Sent() {
	if m != nil {
		m.FramesSent.Inc()
	}
}

// Delivered counts a frame written to a destination port.
func (m *Metrics) Delivered() {
	if m != nil {
		m.FramesDelivered.Inc()
	}
}

// Dropped counts a frame that was not cast to the ether.
func (m *Metrics) Dropped(reason string) {
	if m != nil {
		m.FramesDropped.WithLabelValues(reason).Inc()
	}
}

// Replied counts a synthetic reply frame.
func (m *Metrics) Replied() {
	if m != nil {
		m.Replies.Inc()
	}
}

// IOError counts a tolerated port I/O failure.
func (m *Metrics) IOError(op string) {
	if m != nil {
		m.IOErrors.WithLabelValues(op).Inc()
	}
}
