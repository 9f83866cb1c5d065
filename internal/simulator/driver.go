// Package simulator drives a tracer.Tracer through a scripted sequence of
// operations on a deterministic clock, the way the teacher's samplers poll
// the runtime at a fixed cadence — except here the cadence and every event
// are supplied by a test or a replay script rather than the live runtime,
// so a whole scenario (spec.md §8's concrete scenarios, for example) can be
// replayed byte-for-byte in a unit test.
package simulator

import (
	"bytes"
	"time"

	"github.com/xet7/tigerbeetle/internal/clock"
	"github.com/xet7/tigerbeetle/internal/emitter"
	"github.com/xet7/tigerbeetle/internal/iorun"
	"github.com/xet7/tigerbeetle/internal/schema"
	"github.com/xet7/tigerbeetle/internal/statsdline"
	"github.com/xet7/tigerbeetle/internal/tracer"
)

// Step is one scripted operation. Exactly one field is set; Driver.Run
// dispatches on whichever is non-nil/non-zero, in the order fields are
// checked below.
type Step struct {
	Start    schema.Event
	Stop     schema.Event
	Cancel   *schema.Tag
	Gauge    *GaugeStep
	Advance  int64 // microseconds
	Emit     bool
}

// GaugeStep is the payload for a Step.Gauge entry.
type GaugeStep struct {
	Event schema.Event
	Value uint64
}

// Driver wires a real tracer.Tracer + internal/emitter to a clock.Fake and
// an in-memory trace buffer, then replays a []Step against it.
type Driver struct {
	Clock  *clock.Fake
	Trace  *bytes.Buffer
	Lines  [][]byte // every datagram handed to the sender, in emission order
	Tracer *tracer.Tracer

	pool *iorun.Pool
}

// New builds a Driver. replica and cluster are the identity tags every
// StatsD line and trace span carries.
func New(replica uint8, cluster [16]byte) *Driver {
	d := &Driver{
		Clock: clock.NewFake(),
		Trace: &bytes.Buffer{},
		pool:  iorun.NewPool(statsdline.PacketCountMax()),
	}
	sender := iorun.LogSender{Sink: func(dg []byte) { d.Lines = append(d.Lines, dg) }}
	em := emitter.New(sender, d.pool, statsdline.Identity{Cluster: cluster, Replica: replica})
	d.Tracer = tracer.New(tracer.Options{
		Writer:  d.Trace,
		Clock:   d.Clock,
		Emitter: em,
		Replica: replica,
	})
	return d
}

// Run replays steps in order against d.Tracer.
func (d *Driver) Run(steps []Step) []emitter.Result {
	var results []emitter.Result
	for _, s := range steps {
		switch {
		case s.Advance != 0:
			d.Clock.Advance(time.Duration(s.Advance) * time.Microsecond)
		case s.Cancel != nil:
			d.Tracer.Cancel(*s.Cancel)
		case s.Gauge != nil:
			d.Tracer.Gauge(s.Gauge.Event, s.Gauge.Value)
		case s.Emit:
			results = append(results, d.Tracer.EmitMetrics())
		case s.Start != nil:
			d.Tracer.Start(s.Start)
		case s.Stop != nil:
			d.Tracer.Stop(s.Stop)
		}
	}
	return results
}
