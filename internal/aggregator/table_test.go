package aggregator

import "testing"

import "github.com/xet7/tigerbeetle/internal/schema"

func TestGaugeLastWriteWins(t *testing.T) {
	tbl := New()
	e := schema.ReplicaAofWriteBytes{}

	tbl.Gauge(e, 10)
	tbl.Gauge(e, 20)

	gauges := tbl.Gauges()
	if len(gauges) != 1 {
		t.Fatalf("want 1 gauge slot populated, got %d", len(gauges))
	}
	if gauges[0].Value != 20 {
		t.Fatalf("want last write (20), got %d", gauges[0].Value)
	}
}

func TestTimingFirstSample(t *testing.T) {
	tbl := New()
	e := schema.ReplicaAofWrite{}

	tbl.Timing(e, 42)

	timings := tbl.Timings()
	if len(timings) != 1 {
		t.Fatalf("want 1 timing slot populated, got %d", len(timings))
	}
	tm := timings[0]
	if tm.Min != 42 || tm.Max != 42 || tm.Sum != 42 || tm.Count != 1 {
		t.Fatalf("want min=max=sum=42 count=1, got %+v", tm)
	}
}

// TestTimingSaturation matches spec.md §8 scenario 2: two
// timing(replica_aof_write, u64::MAX-1) calls must saturate sum at
// u64::MAX rather than wrapping.
func TestTimingSaturation(t *testing.T) {
	tbl := New()
	e := schema.ReplicaAofWrite{}
	const big = ^uint64(0) - 1

	tbl.Timing(e, big)
	tbl.Timing(e, big)

	timings := tbl.Timings()
	if len(timings) != 1 {
		t.Fatalf("want 1 timing slot populated, got %d", len(timings))
	}
	tm := timings[0]
	if tm.Min != big || tm.Max != big {
		t.Fatalf("want min=max=%d, got min=%d max=%d", big, tm.Min, tm.Max)
	}
	if tm.Count != 2 {
		t.Fatalf("want count=2, got %d", tm.Count)
	}
	if tm.Sum != ^uint64(0) {
		t.Fatalf("want sum saturated at u64::MAX, got %d", tm.Sum)
	}
}

func TestResetClearsAllSlots(t *testing.T) {
	tbl := New()
	tbl.Gauge(schema.ReplicaAofWriteBytes{}, 1)
	tbl.Timing(schema.ReplicaAofWrite{}, 1)

	tbl.Reset()

	if len(tbl.Gauges()) != 0 {
		t.Fatalf("want 0 gauges after reset, got %d", len(tbl.Gauges()))
	}
	if len(tbl.Timings()) != 0 {
		t.Fatalf("want 0 timings after reset, got %d", len(tbl.Timings()))
	}
}

func TestTimingMinMaxTrackAcrossSamples(t *testing.T) {
	tbl := New()
	e := schema.ReplicaAofWrite{}

	tbl.Timing(e, 100)
	tbl.Timing(e, 10)
	tbl.Timing(e, 500)

	tm := tbl.Timings()[0]
	if tm.Min != 10 {
		t.Fatalf("want min=10, got %d", tm.Min)
	}
	if tm.Max != 500 {
		t.Fatalf("want max=500, got %d", tm.Max)
	}
	if tm.Sum != 610 {
		t.Fatalf("want sum=610, got %d", tm.Sum)
	}
	if tm.Count != 3 {
		t.Fatalf("want count=3, got %d", tm.Count)
	}
}
