package calculator

import "sync/atomic"

// Diagnostics counts lookups that silently degraded to zero.
// The zero value is ready to use and safe for concurrent use.
type Diagnostics struct {
	rateMisses       atomic.Int64
	multiplierMisses atomic.Int64
	ruleMisses       atomic.Int64
}

// DiagnosticsSnapshot is a point-in-time copy of the counters.
type DiagnosticsSnapshot struct {
	RateMisses       int64 `json:"rate_misses"`
	MultiplierMisses int64 `json:"multiplier_misses"`
	RuleMisses       int64 `json:"rule_misses"`
}

func (d *Diagnostics) rateMiss() {
	if d != nil {
		d.rateMisses.Add(1)
	}
}

func (d *Diagnostics) multiplierMiss() {
	if d != nil {
		d.multiplierMisses.Add(1)
	}
}

func (d *Diagnostics) ruleMiss() {
	if d != nil {
		d.ruleMisses.Add(1)
	}
}

// Snapshot returns the current counter values.
func (d *Diagnostics) Snapshot() DiagnosticsSnapshot {
	if d == nil {
		return DiagnosticsSnapshot{}
	}
	return DiagnosticsSnapshot{
		RateMisses:       d.rateMisses.Load(),
		MultiplierMisses: d.multiplierMisses.Load(),
		RuleMisses:       d.ruleMisses.Load(),
	}
}
