package schema

import "testing"

// TestAllTagsRoundTripWorstCase exercises every tag's worst-case payload
// through Stack/TimingSlot/MetricSlot (whichever views it has) without
// panicking, and checks Fields never yields a reserved field name. The
// compiler cannot catch a missed type-switch case when a tag is added, so
// this is the guard rail that does.
func TestAllTagsRoundTripWorstCase(t *testing.T) {
	for _, tag := range AllTags() {
		e := WorstCase(tag)
		if e.Tag() != tag {
			t.Fatalf("WorstCase(%v) returned event tagged %v", tag, e.Tag())
		}

		if HasTimingView(tag) {
			s := Stack(e)
			if s >= StackCount() {
				t.Fatalf("tag %v: Stack() = %d out of range [0,%d)", tag, s, StackCount())
			}
			if TimingSlot(e) != s {
				t.Fatalf("tag %v: TimingSlot() != Stack() for this catalogue", tag)
			}
		}
		if HasMetricView(tag) {
			slot := MetricSlot(e)
			if slot >= MetricSlotCount() {
				t.Fatalf("tag %v: MetricSlot() = %d out of range [0,%d)", tag, slot, MetricSlotCount())
			}
		}

		for _, f := range Fields(e) {
			if reservedFieldNames[f.Name] {
				t.Fatalf("tag %v: field name %q collides with a reserved tag", tag, f.Name)
			}
		}
	}
}

// TestStackMappingInjective matches spec.md §3's EventTracing invariant:
// the (tag, discriminant) -> stack mapping is total and injective within
// stack_count.
func TestStackMappingInjective(t *testing.T) {
	seen := make(map[uint32]bool)

	record := func(e Event) {
		s := Stack(e)
		if seen[s] {
			t.Fatalf("stack %d assigned to more than one (tag, discriminant) pair", s)
		}
		seen[s] = true
	}

	record(ReplicaCommit{})
	record(ReplicaAofWrite{})
	record(GridCheckpoint{})
	record(MetricsEmit{})
	for tree := CompactTree(0); tree < compactTreeCount; tree++ {
		for level := uint8(0); level < CompactionLevels; level++ {
			record(CompactBeat{Tree: tree, LevelB: level})
		}
	}

	if uint32(len(seen)) != StackCount() {
		t.Fatalf("want every one of %d stacks assigned exactly once, got %d distinct", StackCount(), len(seen))
	}
}

// TestCompactBeatDiscriminantOutOfRangePanics checks Stack's bounds check.
func TestCompactBeatDiscriminantOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("want panic for out-of-range CompactBeat discriminant")
		}
	}()
	Stack(CompactBeat{Tree: compactTreeCount, LevelB: 0})
}
