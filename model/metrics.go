package model

import "time"

// Metrics is the external observability collaborator. The engine and
// cache report counters and latencies into it; format and transport are
// the implementer's concern.
type Metrics interface {
	// ObserveQueryLatency records the wall time of one retrieve call.
	ObserveQueryLatency(d time.Duration)
	// CacheHit is called when a non-expired cache entry served a query.
	CacheHit()
	// CacheMiss is called when a query required a fresh aggregation.
	CacheMiss()
	// SignalDegraded is called when a scorer failed for one candidate
	// and its signal was downgraded to 0.
	SignalDegraded(signal Signal)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveQueryLatency(time.Duration) {}
func (NopMetrics) CacheHit()                         {}
func (NopMetrics) CacheMiss()                        {}
func (NopMetrics) SignalDegraded(Signal)             {}
