package emitter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xet7/tigerbeetle/internal/aggregator"
	"github.com/xet7/tigerbeetle/internal/iorun"
	"github.com/xet7/tigerbeetle/internal/schema"
	"github.com/xet7/tigerbeetle/internal/statsdline"
)

func identity() statsdline.Identity {
	return statsdline.Identity{Cluster: [16]byte{}, Replica: 0}
}

// TestEmitResetsTableOnSuccess matches spec.md §8 invariant 2: after
// emit_metrics returns Ok, both aggregate tables are empty in every slot.
func TestEmitResetsTableOnSuccess(t *testing.T) {
	tbl := aggregator.New()
	tbl.Gauge(schema.ReplicaAofWriteBytes{}, 7)

	pool := iorun.NewPool(4)
	em := New(iorun.LogSender{}, pool, identity())

	res := em.Emit(tbl)
	if res.Busy {
		t.Fatalf("want non-busy emit, got busy")
	}
	if len(tbl.Gauges()) != 0 {
		t.Fatalf("want table reset after successful emit, got %d gauges", len(tbl.Gauges()))
	}
}

// TestEmitBusyLeavesTableUntouched matches spec.md §8 scenario 3: reserving
// every completion handle up front makes the next Emit return Busy, and
// leaves the aggregate tables bit-identical to their pre-call state.
func TestEmitBusyLeavesTableUntouched(t *testing.T) {
	tbl := aggregator.New()
	tbl.Gauge(schema.ReplicaAofWriteBytes{}, 99)

	pool := iorun.NewPool(1)
	held, ok := pool.Acquire()
	if !ok {
		t.Fatalf("expected to acquire the pool's only completion")
	}

	em := New(iorun.LogSender{}, pool, identity())
	res := em.Emit(tbl)
	if !res.Busy {
		t.Fatalf("want busy result while a completion is outstanding")
	}

	gauges := tbl.Gauges()
	if len(gauges) != 1 || gauges[0].Value != 99 {
		t.Fatalf("want table untouched by a busy emit, got %+v", gauges)
	}

	pool.Release(held)
}

// TestLineFormat matches spec.md §8 scenario 5 exactly.
func TestLineFormat(t *testing.T) {
	tbl := aggregator.New()
	tbl.Gauge(schema.CacheHits{Tree: schema.IndexAccountID}, 42)

	var captured []byte
	sink := iorun.LogSender{Sink: func(dg []byte) { captured = dg }}

	id := statsdline.Identity{Replica: 7}
	id.Cluster[15] = 0x01

	pool := iorun.NewPool(4)
	em := New(sink, pool, id)
	em.Emit(tbl)

	want := "tb.cache_hits:42|g|#cluster:00000000000000000000000000000001,replica:7,tree:Account.id\n"
	if string(captured) != want {
		t.Fatalf("want line %q, got %q", want, string(captured))
	}
}

// TestDatagramPackingBoundary follows spec.md §8 scenario 6: N timing
// aggregates pack into datagrams none exceeding 1400 bytes, carrying 5*N
// lines in total, with line order preserved across datagram boundaries.
// The number of datagrams is not checked.
func TestDatagramPackingBoundary(t *testing.T) {
	tbl := aggregator.New()
	trees := []schema.CompactTree{schema.CompactAccount, schema.CompactTransfer}
	n := 0
	for _, tree := range trees {
		for level := uint8(0); level < schema.CompactionLevels; level++ {
			tbl.Timing(schema.CompactBeat{Tree: tree, LevelB: level}, 123456)
			n++
		}
	}

	var datagrams [][]byte
	sink := iorun.LogSender{Sink: func(dg []byte) {
		cp := make([]byte, len(dg))
		copy(cp, dg)
		datagrams = append(datagrams, cp)
	}}

	pool := iorun.NewPool(statsdline.PacketCountMax())
	em := New(sink, pool, identity())
	res := em.Emit(tbl)

	if res.Busy {
		t.Fatalf("want non-busy emit")
	}
	totalLines := 0
	for _, dg := range datagrams {
		if len(dg) > statsdline.PacketSizeMax {
			t.Fatalf("datagram exceeds %d bytes: got %d", statsdline.PacketSizeMax, len(dg))
		}
		totalLines += strings.Count(string(dg), "\n")
	}
	if totalLines != n*5 {
		t.Fatalf("want %d total lines (5 per timing aggregate), got %d", n*5, totalLines)
	}

	// Reassemble and confirm slot/stat enumeration order is preserved:
	// min,max,avg,sum,count for each aggregate in turn.
	var all bytes.Buffer
	for _, dg := range datagrams {
		all.Write(dg)
	}
	lines := strings.Split(strings.TrimRight(all.String(), "\n"), "\n")
	if len(lines) != n*5 {
		t.Fatalf("want %d lines, got %d", n*5, len(lines))
	}
	suffixes := []string{"_us.min", "_us.max", "_us.avg", "_us.sum", "_us.count"}
	for i := 0; i < n; i++ {
		for j, suf := range suffixes {
			line := lines[i*5+j]
			if !strings.Contains(line, "tb.compact_beat"+suf+":") {
				t.Fatalf("line %d: want suffix %q, got %q", i*5+j, suf, line)
			}
		}
	}
}

// TestSendErrorCounterResetsOnNextEmit matches spec.md §8 scenario 4.
func TestSendErrorCounterResetsOnNextEmit(t *testing.T) {
	tbl := aggregator.New()
	tbl.Gauge(schema.ReplicaAofWriteBytes{}, 1)

	failing := failingSender{}
	pool := iorun.NewPool(4)
	em := New(failing, pool, identity())

	em.Emit(tbl)
	if em.sendErrors != 1 {
		t.Fatalf("want 1 recorded send error, got %d", em.sendErrors)
	}

	tbl.Gauge(schema.ReplicaAofWriteBytes{}, 2)
	em.Emit(tbl)
	if em.sendErrors != 1 {
		t.Fatalf("want send-error counter reset then re-incremented to 1, got %d", em.sendErrors)
	}
}

type failingSender struct{}

func (failingSender) Send(datagram []byte, onComplete func(err error)) {
	onComplete(errSend)
}

var errSend = &sendError{}

type sendError struct{}

func (*sendError) Error() string { return "simulated send failure" }
