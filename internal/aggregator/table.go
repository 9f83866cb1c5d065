// Package aggregator maintains the gauge slot table (last-write-wins) and
// the timing slot table (min/max/sum/count, saturating) — spec.md §4.4. It
// never touches the network or the clock; the tracer façade owns timing
// measurement and calls Timing with an already-computed duration.
package aggregator

import "github.com/xet7/tigerbeetle/internal/schema"

// Gauge is one slot of the gauge table: the last value reported for event.
type Gauge struct {
	Event schema.Event
	Value uint64
}

// Timing is one slot of the timing table: a running min/max/sum/count over
// every sample reported for event since the last Reset.
type Timing struct {
	Event schema.Event
	Min   uint64
	Max   uint64
	Sum   uint64
	Count uint64
}

// Table holds the gauge and timing slot tables. The zero value is not
// usable; build one with New, which sizes the slices from the schema
// package's slot counts.
type Table struct {
	gauges  []*Gauge
	timings []*Timing
}

// New returns an empty Table sized for the full event catalogue.
func New() *Table {
	return &Table{
		gauges:  make([]*Gauge, schema.MetricSlotCount()),
		timings: make([]*Timing, schema.TimingSlotCount()),
	}
}

// Gauge records value for event. No aggregation; last write wins.
func (t *Table) Gauge(e schema.Event, value uint64) {
	slot := schema.MetricSlot(e)
	t.gauges[slot] = &Gauge{Event: e, Value: value}
}

// Timing folds durationUS into the running aggregate for event's timing
// slot, using saturating arithmetic on sum and count so a long-running
// replica can never wrap them to a small value.
func (t *Table) Timing(e schema.Event, durationUS uint64) {
	slot := schema.TimingSlot(e)
	cur := t.timings[slot]
	if cur == nil {
		t.timings[slot] = &Timing{
			Event: e,
			Min:   durationUS,
			Max:   durationUS,
			Sum:   durationUS,
			Count: 1,
		}
		return
	}
	if durationUS < cur.Min {
		cur.Min = durationUS
	}
	if durationUS > cur.Max {
		cur.Max = durationUS
	}
	cur.Sum = saturatingAdd(cur.Sum, durationUS)
	cur.Count = saturatingAdd(cur.Count, 1)
}

// Gauges returns every populated gauge slot, in slot order.
func (t *Table) Gauges() []*Gauge {
	out := make([]*Gauge, 0, len(t.gauges))
	for _, g := range t.gauges {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

// Timings returns every populated timing slot, in slot order.
func (t *Table) Timings() []*Timing {
	out := make([]*Timing, 0, len(t.timings))
	for _, tm := range t.timings {
		if tm != nil {
			out = append(out, tm)
		}
	}
	return out
}

// Reset clears every gauge and timing slot. The tracer calls this only
// after a successful emit, so an aggregation window never spans two
// emissions.
func (t *Table) Reset() {
	for i := range t.gauges {
		t.gauges[i] = nil
	}
	for i := range t.timings {
		t.timings[i] = nil
	}
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}
