// Package selfmetrics centralises Prometheus metric registration for the
// tracer's own health, following the teacher's internal/metrics package:
// package-level collectors, a sync.Once-guarded Register, and small typed
// update helpers so callers stay import-cycle-free. These metrics describe
// the tracer's own plumbing (completion pool occupancy, drop counters) —
// they are never themselves traced through internal/tracer, since a
// Prometheus scrape is a downstream consumer of this module's state, not a
// participant in its single-threaded core (SPEC_FULL.md §5).
package selfmetrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	CompletionsInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "replicatracer",
		Name:      "completions_in_use",
		Help:      "Completion handles currently reserved from the send pool.",
	})

	CompletionsCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "replicatracer",
		Name:      "completions_capacity",
		Help:      "Fixed capacity of the send completion pool (packet_count_max).",
	})

	SendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replicatracer",
		Name:      "send_errors_total",
		Help:      "Datagram sends whose completion callback reported an error.",
	})

	SpansDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replicatracer",
		Name:      "spans_dropped_total",
		Help:      "Trace spans dropped because the event buffer had no room.",
	})

	LinesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replicatracer",
		Name:      "lines_dropped_total",
		Help:      "StatsD lines dropped at format time (no space left).",
	})

	PoolExhaustedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replicatracer",
		Name:      "pool_exhausted_total",
		Help:      "Emissions where the completion pool ran out before all datagrams were dispatched.",
	})
)

// Register exports all metrics to the default registerer; safe to call
// multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			CompletionsInUse,
			CompletionsCapacity,
			SendErrorsTotal,
			SpansDroppedTotal,
			LinesDroppedTotal,
			PoolExhaustedTotal,
		)
	})
}

// Snapshot is a point-in-time view published to internal/fleetstatus.
type Snapshot struct {
	CompletionsInUse     int     `json:"completions_in_use"`
	CompletionsCapacity  int     `json:"completions_capacity"`
	SendErrorsTotal      float64 `json:"send_errors_total"`
	SpansDroppedTotal    float64 `json:"spans_dropped_total"`
	LinesDroppedTotal    float64 `json:"lines_dropped_total"`
	PoolExhaustedTotal   float64 `json:"pool_exhausted_total"`
}

// ObservePool updates the two pool-occupancy gauges from a live
// iorun.CompletionPool without importing it (avoids a dependency cycle:
// iorun is lower-level than selfmetrics' consumers).
func ObservePool(inUse, capacity int) {
	CompletionsInUse.Set(float64(inUse))
	CompletionsCapacity.Set(float64(capacity))
}

// AddSendErrors increments the send-error counter by n. A no-op for n <= 0.
func AddSendErrors(n float64) {
	if n > 0 {
		SendErrorsTotal.Add(n)
	}
}

// AddSpansDropped increments the dropped-span counter by n.
func AddSpansDropped(n float64) {
	if n > 0 {
		SpansDroppedTotal.Add(n)
	}
}

// AddLinesDropped increments the dropped-line counter by n.
func AddLinesDropped(n float64) {
	if n > 0 {
		LinesDroppedTotal.Add(n)
	}
}

// AddPoolExhausted increments the pool-exhaustion counter by n.
func AddPoolExhausted(n float64) {
	if n > 0 {
		PoolExhaustedTotal.Add(n)
	}
}
