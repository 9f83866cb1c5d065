// Package emitter implements spec.md §4.3's packet packer/emitter: it
// drains an aggregator.Table into StatsD lines, greedily packs them into
// datagrams under the 1400-byte budget, and hands each datagram to an
// iorun.Sender with a completion handle from a bounded iorun.CompletionPool.
// There is no locking here — like the rest of this module, Emit is only
// ever called from the single logical thread that also drives start/stop.
package emitter

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/xet7/tigerbeetle/internal/aggregator"
	"github.com/xet7/tigerbeetle/internal/iorun"
	"github.com/xet7/tigerbeetle/internal/logging"
	"github.com/xet7/tigerbeetle/internal/selfmetrics"
	"github.com/xet7/tigerbeetle/internal/statsdline"
)

// Result reports what Emit decided to do. Busy means the prior emission's
// datagrams are still in flight and this call performed no work — the
// explicit backpressure signal spec.md §4.3 step 1 requires.
type Result struct {
	Busy           bool
	DatagramsSent  int
	DatagramsDrop  int // dropped because the completion pool was exhausted
	SamplesDropped int // samples that didn't fit a line (ErrNoSpace)
}

// Emitter packs and fire-and-forget sends one Table snapshot per Emit call.
type Emitter struct {
	sender     iorun.Sender
	completion iorun.CompletionPool
	id         statsdline.Identity
	sendErrors int
}

// New builds an Emitter that sends through sender, bounded by completion.
func New(sender iorun.Sender, completion iorun.CompletionPool, id statsdline.Identity) *Emitter {
	return &Emitter{sender: sender, completion: completion, id: id}
}

// Emit packs every populated slot in tbl into datagrams and sends them. On
// success (Busy == false) it also resets tbl, per spec.md §4.4's reset
// contract: an aggregation window never spans two emissions.
func (e *Emitter) Emit(tbl *aggregator.Table) Result {
	if e.completion.Executing() > 0 {
		logging.Logger().Debug("metrics emit skipped: prior emission still in flight")
		return Result{Busy: true}
	}

	logging.Logger().Debug("metrics emit: resetting prior send-error counter", zap.Int("prior_send_errors", e.sendErrors))
	e.sendErrors = 0

	datagrams, samplesDropped := e.pack(tbl)

	sent, dropped := e.dispatch(datagrams)
	if sent+dropped == len(datagrams) {
		tbl.Reset()
	}

	selfmetrics.AddLinesDropped(float64(samplesDropped))
	if dropped > 0 {
		selfmetrics.AddPoolExhausted(1)
	}

	return Result{
		DatagramsSent:  sent,
		DatagramsDrop:  dropped,
		SamplesDropped: samplesDropped,
	}
}

// pack formats every line and greedily seals datagrams at the 1400-byte
// boundary, preserving line order (spec.md §4.3 step 3).
func (e *Emitter) pack(tbl *aggregator.Table) (datagrams [][]byte, samplesDropped int) {
	var buf bytes.Buffer
	var cur bytes.Buffer

	seal := func() {
		if cur.Len() == 0 {
			return
		}
		cp := make([]byte, cur.Len())
		copy(cp, cur.Bytes())
		datagrams = append(datagrams, cp)
		cur.Reset()
	}

	appendLine := func(sample any) {
		var line bytes.Buffer
		if err := statsdline.Format(&line, sample, e.id); err != nil {
			logging.Logger().Warn("dropping statsd sample: no space left", zap.Error(err))
			samplesDropped++
			return
		}
		if cur.Len()+line.Len() > statsdline.PacketSizeMax {
			seal()
		}
		cur.Write(line.Bytes())
		buf.Write(line.Bytes())
	}

	for _, g := range tbl.Gauges() {
		appendLine(statsdline.GaugeSample{Event: g.Event, Value: g.Value})
	}
	for _, tm := range tbl.Timings() {
		appendLine(statsdline.TimingSample{Event: tm.Event, Kind: statsdline.StatMin, Min: tm.Min, Max: tm.Max, Sum: tm.Sum, Count: tm.Count})
		appendLine(statsdline.TimingSample{Event: tm.Event, Kind: statsdline.StatMax, Min: tm.Min, Max: tm.Max, Sum: tm.Sum, Count: tm.Count})
		appendLine(statsdline.TimingSample{Event: tm.Event, Kind: statsdline.StatAvg, Min: tm.Min, Max: tm.Max, Sum: tm.Sum, Count: tm.Count})
		appendLine(statsdline.TimingSample{Event: tm.Event, Kind: statsdline.StatSum, Min: tm.Min, Max: tm.Max, Sum: tm.Sum, Count: tm.Count})
		appendLine(statsdline.TimingSample{Event: tm.Event, Kind: statsdline.StatCount, Min: tm.Min, Max: tm.Max, Sum: tm.Sum, Count: tm.Count})
	}
	seal()
	return datagrams, samplesDropped
}

// dispatch acquires one completion per datagram and fires off the send;
// once the pool is exhausted, remaining datagrams are silently dropped for
// this emission (spec.md §4.3 step 4).
func (e *Emitter) dispatch(datagrams [][]byte) (sent, dropped int) {
	for _, dg := range datagrams {
		c, ok := e.completion.Acquire()
		if !ok {
			logging.Logger().Warn("completion pool exhausted, dropping remaining datagrams",
				zap.Int("remaining", len(datagrams)-sent-dropped))
			dropped = len(datagrams) - sent
			break
		}
		sent++
		e.sender.Send(dg, func(err error) {
			if err != nil {
				e.sendErrors++
				selfmetrics.AddSendErrors(1)
				logging.Logger().Warn("statsd send failed", zap.Error(err))
			}
			e.completion.Release(c)
		})
	}
	return sent, dropped
}
