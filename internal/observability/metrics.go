package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "framectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	streamBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framectl",
			Subsystem: "stream",
			Name:      "bytes_received_total",
			Help:      "Raw bytes appended to session buffers.",
		},
		[]string{"session", "bus"},
	)
	streamFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framectl",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Frames detected per session.",
		},
		[]string{"session", "bus"},
	)
	streamDecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framectl",
			Subsystem: "stream",
			Name:      "decode_failures_total",
			Help:      "Frames dropped because their payload did not decode.",
		},
		[]string{"session", "bus", "method"},
	)
	streamBuffered = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "framectl",
			Subsystem: "stream",
			Name:      "buffered_bytes",
			Help:      "Unconsumed bytes held for an incomplete frame.",
		},
		[]string{"session", "bus"},
	)
	streamSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "framectl",
			Subsystem: "stream",
			Name:      "sessions_active",
			Help:      "Open stream sessions.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			streamBytes,
			streamFrames,
			streamDecodeFailures,
			streamBuffered,
			streamSessions,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// StreamRecorder records metrics for one session. The zero value records
// nothing.
type StreamRecorder struct {
	session string
	bus     string
	method  string
}

func NewStreamRecorder(session, bus, method string) StreamRecorder {
	RegisterMetrics()
	return StreamRecorder{session: session, bus: bus, method: method}
}

func (r StreamRecorder) enabled() bool {
	return r.session != ""
}

func (r StreamRecorder) Opened() {
	if r.enabled() {
		streamSessions.Inc()
	}
}

func (r StreamRecorder) Closed() {
	if !r.enabled() {
		return
	}
	streamSessions.Dec()
	streamBuffered.DeleteLabelValues(r.session, r.bus)
}

func (r StreamRecorder) Received(n int) {
	if r.enabled() {
		streamBytes.WithLabelValues(r.session, r.bus).Add(float64(n))
	}
}

func (r StreamRecorder) Frame() {
	if r.enabled() {
		streamFrames.WithLabelValues(r.session, r.bus).Inc()
	}
}

func (r StreamRecorder) DecodeFailure() {
	if r.enabled() {
		streamDecodeFailures.WithLabelValues(r.session, r.bus, r.method).Inc()
	}
}

func (r StreamRecorder) Buffered(n int) {
	if r.enabled() {
		streamBuffered.WithLabelValues(r.session, r.bus).Set(float64(n))
	}
}
