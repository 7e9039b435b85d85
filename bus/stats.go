package bus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats implements §4.8: an instantaneous byte rate sampled over each
// completed interval, plus total bytes and an error counter that never
// resets during a run. One Stats is owned per endpoint.
type Stats struct {
	mu sync.Mutex

	totalBytes   uint64
	bytesAtSnap  uint64
	timeAtSnap   time.Time
	currentRate  float64
	errorCount   uint64

	bytesGauge prometheus.Gauge
	rateGauge  prometheus.Gauge
	errCounter prometheus.Counter
}

// NewStats creates a Stats block and, when reg is non-nil, registers
// three Prometheus metrics (bytes total, instantaneous rate, error count)
// labeled by name — following the per-socket counter pattern
// runZeroInc-sockstats' prom-metrics-gen uses, generalized to one
// registration per bus endpoint. reg may be nil to skip registration
// (e.g. in unit tests that construct many endpoints).
func NewStats(name string, reg prometheus.Registerer) *Stats {
	s := &Stats{timeAtSnap: time.Now()}
	if reg == nil {
		return s
	}

	s.bytesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "picocom16",
		Subsystem: "bus",
		Name:      "endpoint_bytes_total",
		ConstLabels: prometheus.Labels{"endpoint": name},
	})
	s.rateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "picocom16",
		Subsystem: "bus",
		Name:      "endpoint_byte_rate",
		ConstLabels: prometheus.Labels{"endpoint": name},
	})
	s.errCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "picocom16",
		Subsystem: "bus",
		Name:      "endpoint_errors_total",
		ConstLabels: prometheus.Labels{"endpoint": name},
	})

	reg.MustRegister(s.bytesGauge, s.rateGauge, s.errCounter)
	return s
}

// AddBytes records n bytes moved and, if at least one byte moved,
// refreshes the rolling rate sample (§4.8: "the sample is refreshed only
// when at least one byte has moved").
func (s *Stats) AddBytes(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalBytes += uint64(n)
	now := time.Now()
	elapsed := now.Sub(s.timeAtSnap).Seconds()
	if elapsed > 0 {
		s.currentRate = float64(s.totalBytes-s.bytesAtSnap) / elapsed
		s.bytesAtSnap = s.totalBytes
		s.timeAtSnap = now
	}

	if s.bytesGauge != nil {
		s.bytesGauge.Set(float64(s.totalBytes))
		s.rateGauge.Set(s.currentRate)
	}
}

// AddError increments the error counter. Error counters never reset
// during a run (§4.8).
func (s *Stats) AddError() {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()
	if s.errCounter != nil {
		s.errCounter.Inc()
	}
}

// Snapshot is a point-in-time, serialization-friendly copy of a Stats
// block, used by telemetry.Publisher and by cmd/consolesim's describe
// output.
type Snapshot struct {
	TotalBytes uint64  `json:"total_bytes" cbor:"total_bytes"`
	Rate       float64 `json:"rate" cbor:"rate"`
	Errors     uint64  `json:"errors" cbor:"errors"`
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{TotalBytes: s.totalBytes, Rate: s.currentRate, Errors: s.errorCount}
}
