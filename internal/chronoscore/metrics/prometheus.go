package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// rejectReasons is the fixed set of strings the engine's OnOrderRejected
// call sites use (unknown_instrument, book_full, market_no_liquidity,
// unknown_order). Bounding the set lets every reason's label vector be
// resolved once, at construction, instead of per call.
var rejectReasons = []string{
	"unknown_instrument",
	"book_full",
	"market_no_liquidity",
	"unknown_order",
}

// PrometheusSink registers its collectors against a caller-owned registry
// and only ever increments/observes pre-resolved handles. It never starts
// an HTTP listener or exposition endpoint — that belongs to the egress
// gateway, out of scope here.
//
// Every label combination OnOrderProcessed/OnOrderRejected/OnMatchFound can
// be called with is bounded by instrumentCount/side/orderType, all known at
// construction, so NewPrometheusSink resolves every prometheus.Counter up
// front: the hot-path methods only index a slice and call Inc, with no
// strconv.Itoa or WithLabelValues call left on the path the engine invokes
// inline with MatchOrder.
type PrometheusSink struct {
	instrumentCount int

	// processed[instrumentID][side][orderType]
	processed [][2][2]prometheus.Counter

	// rejected[reasonIndex][instrumentID], with a shared per-reason
	// fallback counter for any instrumentID outside [0, instrumentCount).
	rejected         [][]prometheus.Counter
	rejectedOverflow []prometheus.Counter

	matches         []prometheus.Counter
	matchesOverflow prometheus.Counter

	fillQty prometheus.Histogram

	// OnLatency has no hot-path caller today, so it keeps a lazily
	// populated, mutex-guarded map instead of a bounded precomputed set.
	latencyVec *prometheus.HistogramVec
	latencyMu  sync.Mutex
	latency    map[string]prometheus.Observer
}

// NewPrometheusSink builds a PrometheusSink with every counter it will ever
// need pre-registered and pre-resolved for instrument ids in
// [0, instrumentCount).
func NewPrometheusSink(reg *prometheus.Registry, instrumentCount int) *PrometheusSink {
	if instrumentCount < 0 {
		instrumentCount = 0
	}

	processedVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronos",
		Name:      "orders_processed_total",
	}, []string{"instrument", "side", "order_type"})
	rejectedVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronos",
		Name:      "orders_rejected_total",
	}, []string{"instrument", "reason"})
	matchesVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronos",
		Name:      "matches_total",
	}, []string{"instrument"})
	fillQty := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chronos",
		Name:      "fill_quantity",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
	})
	latencyVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chronos",
		Name:      "stage_latency_seconds",
		Buckets:   prometheus.ExponentialBuckets(1e-7, 2, 20),
	}, []string{"stage"})
	reg.MustRegister(processedVec, rejectedVec, matchesVec, fillQty, latencyVec)

	s := &PrometheusSink{
		instrumentCount: instrumentCount,
		fillQty:         fillQty,
		latencyVec:      latencyVec,
		latency:         make(map[string]prometheus.Observer),
	}

	s.processed = make([][2][2]prometheus.Counter, instrumentCount)
	for id := 0; id < instrumentCount; id++ {
		label := instrumentLabel(id)
		for side := 0; side < 2; side++ {
			for orderType := 0; orderType < 2; orderType++ {
				s.processed[id][side][orderType] = processedVec.WithLabelValues(label, sideLabel(uint8(side)), orderTypeLabel(uint8(orderType)))
			}
		}
	}

	s.rejected = make([][]prometheus.Counter, len(rejectReasons))
	s.rejectedOverflow = make([]prometheus.Counter, len(rejectReasons))
	for ri, reason := range rejectReasons {
		perInstrument := make([]prometheus.Counter, instrumentCount)
		for id := 0; id < instrumentCount; id++ {
			perInstrument[id] = rejectedVec.WithLabelValues(instrumentLabel(id), reason)
		}
		s.rejected[ri] = perInstrument
		s.rejectedOverflow[ri] = rejectedVec.WithLabelValues("overflow", reason)
	}

	s.matches = make([]prometheus.Counter, instrumentCount)
	for id := 0; id < instrumentCount; id++ {
		s.matches[id] = matchesVec.WithLabelValues(instrumentLabel(id))
	}
	s.matchesOverflow = matchesVec.WithLabelValues("overflow")

	return s
}

func sideLabel(side uint8) string {
	if side == 0 {
		return "buy"
	}
	return "sell"
}

func orderTypeLabel(orderType uint8) string {
	if orderType == 0 {
		return "limit"
	}
	return "market"
}

// instrumentLabel renders an instrument id to its decimal label once, at
// construction time; no strconv.Itoa call survives onto the hot path.
func instrumentLabel(instrumentID int) string {
	if instrumentID == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	n := instrumentID
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func reasonIndex(reason string) int {
	for i, r := range rejectReasons {
		if r == reason {
			return i
		}
	}
	return -1
}

func (s *PrometheusSink) OnOrderProcessed(instrumentID int32, side uint8, orderType uint8) {
	if instrumentID < 0 || int(instrumentID) >= s.instrumentCount || side > 1 || orderType > 1 {
		return
	}
	s.processed[instrumentID][side][orderType].Inc()
}

func (s *PrometheusSink) OnOrderRejected(instrumentID int32, reason string) {
	ri := reasonIndex(reason)
	if ri < 0 {
		return
	}
	if instrumentID < 0 || int(instrumentID) >= s.instrumentCount {
		s.rejectedOverflow[ri].Inc()
		return
	}
	s.rejected[ri][instrumentID].Inc()
}

func (s *PrometheusSink) OnMatchFound(instrumentID int32, fillQty int64, fillPrice int64) {
	if instrumentID < 0 || int(instrumentID) >= s.instrumentCount {
		s.matchesOverflow.Inc()
	} else {
		s.matches[instrumentID].Inc()
	}
	s.fillQty.Observe(float64(fillQty))
}

func (s *PrometheusSink) OnLatency(stage string, d time.Duration) {
	s.latencyMu.Lock()
	obs, ok := s.latency[stage]
	if !ok {
		obs = s.latencyVec.WithLabelValues(stage)
		s.latency[stage] = obs
	}
	s.latencyMu.Unlock()
	obs.Observe(d.Seconds())
}

var _ Sink = (*PrometheusSink)(nil)
