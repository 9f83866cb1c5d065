package simulator

import (
	"testing"

	"github.com/xet7/tigerbeetle/internal/schema"
)

func TestDriverReplaysCheckpointAndEmit(t *testing.T) {
	d := New(3, [16]byte{})

	tag := schema.TagGridCheckpoint
	results := d.Run([]Step{
		{Start: schema.GridCheckpoint{}},
		{Advance: 500},
		{Stop: schema.GridCheckpoint{}},
		{Emit: true},
		{Cancel: &tag}, // no-op: nothing running
	})

	if len(results) != 1 {
		t.Fatalf("want 1 emit result, got %d", len(results))
	}
	if results[0].Busy {
		t.Fatalf("want non-busy emit result")
	}
	if len(d.Lines) == 0 {
		t.Fatalf("want at least one datagram sent")
	}

	// The trace buffer must carry begin/end spans for grid_checkpoint and
	// for the metrics_emit span EmitMetrics wraps around Emit itself.
	out := d.Trace.String()
	if out == "[\n" {
		t.Fatalf("want span objects recorded, trace buffer is only the opening bracket")
	}
}

func TestDriverGaugeThenEmitProducesOneDatagram(t *testing.T) {
	d := New(0, [16]byte{})

	d.Run([]Step{
		{Gauge: &GaugeStep{Event: schema.ReplicaAofWriteBytes{}, Value: 4096}},
		{Emit: true},
	})

	if len(d.Lines) != 1 {
		t.Fatalf("want exactly 1 datagram, got %d", len(d.Lines))
	}
}
