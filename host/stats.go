package host

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Failure kinds reported through Stats.
const (
	failureSubmit   = "submit"
	failureTransfer = "transfer"
	failureReset    = "reset"
	failureDispatch = "dispatch"
)

// Stats exports lifetime pipeline totals. Unlike [Counters] it is never
// zeroed by a device reset. A nil *Stats discards every observation.
type Stats struct {
	bytes     prometheus.Counter
	transfers prometheus.Counter
	resets    prometheus.Counter
	failures  *prometheus.CounterVec
}

// NewStats creates the collectors and registers them with reg when reg is
// not nil.
func NewStats(reg prometheus.Registerer) *Stats {
	s := &Stats{
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xferreset",
			Name:      "bytes_total",
			Help:      "Bytes moved by completed transfers.",
		}),
		transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xferreset",
			Name:      "transfers_total",
			Help:      "Transfers completed successfully.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xferreset",
			Name:      "resets_total",
			Help:      "Device resets issued.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xferreset",
			Name:      "failures_total",
			Help:      "Pipeline failures by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(s.bytes, s.transfers, s.resets, s.failures)
	}
	return s
}

func (s *Stats) transfer(n int) {
	if s == nil {
		return
	}
	s.bytes.Add(float64(n))
	s.transfers.Inc()
}

func (s *Stats) reset() {
	if s == nil {
		return
	}
	s.resets.Inc()
}

func (s *Stats) failure(kind string) {
	if s == nil {
		return
	}
	s.failures.WithLabelValues(kind).Inc()
}
