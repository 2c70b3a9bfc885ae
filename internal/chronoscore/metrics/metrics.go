// Package metrics defines the injected collaborator that replaces global
// mutable counters inside the matching engine (spec.md §9: "Replace with an
// injected metrics sink"). The methods the engine calls must be safe to call
// from the hot path with no allocation; NoopSink and PrometheusSink both
// satisfy that.
package metrics

import "time"

// Sink receives matching-engine events. The engine calls OnOrderProcessed,
// OnOrderRejected and OnMatchFound synchronously inline with MatchOrder, so
// those must be allocation-free and non-blocking. The engine never calls
// OnLatency; PrometheusSink's OnLatency takes a mutex and resolves a stage's
// label the first time that stage is seen.
type Sink interface {
	OnOrderProcessed(instrumentID int32, side uint8, orderType uint8)
	OnOrderRejected(instrumentID int32, reason string)
	OnMatchFound(instrumentID int32, fillQty int64, fillPrice int64)
	OnLatency(stage string, d time.Duration)
}

// NoopSink discards every event; it is the zero-cost default for tests and
// for callers that don't want metrics.
type NoopSink struct{}

func (NoopSink) OnOrderProcessed(int32, uint8, uint8) {}
func (NoopSink) OnOrderRejected(int32, string)        {}
func (NoopSink) OnMatchFound(int32, int64, int64)     {}
func (NoopSink) OnLatency(string, time.Duration)      {}

var _ Sink = NoopSink{}
