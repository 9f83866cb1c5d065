// Package tracer implements the tracer façade spec.md §4.5 describes:
// start/stop/cancel update a per-stack "is this instance running" table and
// an append-only Chrome-trace JSON stream, while gauge/timing feed the
// aggregator that internal/emitter drains on emit_metrics. Every method on
// Tracer must be called from a single logical execution context — there is
// no locking here, matching the single-threaded-cooperative model the rest
// of this module follows (SPEC_FULL.md §5).
package tracer

import (
	"bytes"
	"time"

	"go.uber.org/zap"

	"github.com/xet7/tigerbeetle/internal/aggregator"
	"github.com/xet7/tigerbeetle/internal/clock"
	"github.com/xet7/tigerbeetle/internal/emitter"
	"github.com/xet7/tigerbeetle/internal/logging"
	"github.com/xet7/tigerbeetle/internal/schema"
	"github.com/xet7/tigerbeetle/internal/selfmetrics"
)

// Writer is the append-only trace sink contract: Write is called once with
// "[\n" at construction, then twice per span: once with the JSON object and
// once with the ",\n" that follows it. The stream is never closed with "]".
type Writer interface {
	Write(p []byte) (n int, err error)
}

// Tracer is the observability core's single entry point. Build one with
// New; every method must run on the same goroutine.
type Tracer struct {
	replica uint8
	writer  Writer // nil if no trace sink is configured

	clk       clock.Clock
	timeStart clock.Instant

	// started[s].IsZero() models events_started[s] == None; any non-zero
	// Instant means the stack is running. See internal/clock's doc comment.
	started []clock.Instant

	table *aggregator.Table
	emit  *emitter.Emitter
}

// Options configures a new Tracer. Writer may be nil (spec.md §6: "If
// absent, start/stop still validate invariants and update aggregates but
// emit no JSON").
type Options struct {
	Writer  Writer
	Clock   clock.Clock
	Emitter *emitter.Emitter
	Replica uint8
}

// New allocates the tracer's tables and, if a sink is configured, writes
// the opening "[\n" (spec.md §3 lifecycle).
func New(opts Options) *Tracer {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	t := &Tracer{
		replica:   opts.Replica,
		writer:    opts.Writer,
		clk:       opts.Clock,
		timeStart: opts.Clock.Now(),
		started:   make([]clock.Instant, schema.StackCount()),
		table:     aggregator.New(),
		emit:      opts.Emitter,
	}
	if t.writer != nil {
		_, _ = t.writer.Write([]byte("[\n"))
	}
	return t
}

func (t *Tracer) microsSince(now clock.Instant) int64 {
	return now.Sub(t.timeStart).Microseconds()
}

// Start begins one instance of event's stack. Starting an already-running
// stack is a programmer error and panics (spec.md §4.5 step 2, §7's
// assertion-violation row).
func (t *Tracer) Start(e schema.Event) {
	s := schema.Stack(e)
	if !t.started[s].IsZero() {
		panic("tracer: start on an already-running stack (tag " + e.Tag().String() + ")")
	}
	now := t.clk.Now()
	t.started[s] = now

	if t.writer != nil {
		var buf bytes.Buffer
		if writeBeginSpan(&buf, t.replica, s, t.microsSince(now), e) {
			_, _ = t.writer.Write(buf.Bytes())
			buf.Reset()
			buf.WriteString(",\n")
			_, _ = t.writer.Write(buf.Bytes())
		} else {
			selfmetrics.AddSpansDropped(1)
			logging.Logger().Warn("trace span dropped: exceeds trace_span_size_max",
				zap.String("tag", e.Tag().String()), zap.Uint32("stack", s))
		}
	}

	logging.Logger().Debug("tracer start", zap.String("tag", e.Tag().String()), zap.Uint32("stack", s))
}

// Stop ends the running instance of event's stack, folding its duration
// into the timing aggregate. Stopping an idle stack is a programmer error
// and panics.
func (t *Tracer) Stop(e schema.Event) {
	s := schema.Stack(e)
	if t.started[s].IsZero() {
		panic("tracer: stop on an idle stack (tag " + e.Tag().String() + ")")
	}
	start := t.started[s]
	now := t.clk.Now()
	t.started[s] = clock.Instant{}

	dur := now.Sub(start)
	t.table.Timing(e, uint64(dur.Microseconds()))

	t.writeEnd(s, now)
	t.logStop(e, dur)
}

// Cancel ends every currently-running instance across tag's whole stack
// range without folding a duration into the timing aggregate — the
// reference tracer's documented behaviour (spec.md §9 Open Question). Safe
// to call when nothing of tag is running.
func (t *Tracer) Cancel(tag schema.Tag) {
	base := schema.StackBase(tag)
	limit := schema.StackLimit(tag)
	now := t.clk.Now()
	for s := base; s < base+limit; s++ {
		if t.started[s].IsZero() {
			continue
		}
		t.started[s] = clock.Instant{}
		t.writeEnd(s, now)
		logging.Logger().Debug("tracer cancel", zap.String("tag", tag.String()), zap.Uint32("stack", s))
	}
}

func (t *Tracer) writeEnd(s uint32, now clock.Instant) {
	if t.writer == nil {
		return
	}
	var buf bytes.Buffer
	if writeEndSpan(&buf, t.replica, s, t.microsSince(now)) {
		_, _ = t.writer.Write(buf.Bytes())
		buf.Reset()
		buf.WriteString(",\n")
		_, _ = t.writer.Write(buf.Bytes())
	} else {
		selfmetrics.AddSpansDropped(1)
	}
}

const stopLogThreshold = 5 * time.Millisecond

func (t *Tracer) logStop(e schema.Event, dur time.Duration) {
	log := logging.Logger()
	if dur >= stopLogThreshold {
		log.Debug("tracer stop", zap.String("tag", e.Tag().String()), zap.Duration("duration", dur))
	} else {
		log.Debug("tracer stop", zap.String("tag", e.Tag().String()), zap.Int64("duration_us", dur.Microseconds()))
	}
}

// Gauge records value for a metric-view event. Last write wins; no
// aggregation.
func (t *Tracer) Gauge(e schema.Event, value uint64) {
	t.table.Gauge(e, value)
}

// EmitMetrics wraps the emitter's Emit call in its own start/stop pair
// (tagged metrics_emit) so the cost of emission is itself observable,
// matching spec.md §4.5's emit_metrics contract.
func (t *Tracer) EmitMetrics() emitter.Result {
	t.Start(schema.MetricsEmit{})
	res := t.emit.Emit(t.table)
	t.Stop(schema.MetricsEmit{})
	return res
}
