// internal/schema/layout.go
// Derives the compile-time tables spec.md §4.1 requires from the catalogue
// in catalogue.go: stack_count, per-tag stack_bases/stack_limits, and the
// flat slot counts for the timing and metric views. Go has no comptime, so
// these are plain package-level vars computed once in init() rather than
// true compiler constants; internal/schema/gen holds the generator that
// would freeze them into literal constants for a stricter build pipeline
// (see DESIGN.md).
package schema

// stackLimits[tag] is the number of concurrent stack slots tag occupies;
// zero for metric-only tags that have no EventTracing view.
var stackLimits = [tagCount]uint32{
	TagReplicaCommit:        1,
	TagReplicaAofWrite:      1,
	TagReplicaAofWriteBytes: 0,
	TagCompactBeat:          uint32(compactTreeCount) * CompactionLevels,
	TagGridCheckpoint:       1,
	TagCacheHits:            0,
	TagCacheMisses:          0,
	TagMetricsEmit:          1,
}

var stackBases [tagCount]uint32
var stackCount uint32

// metricLimits[tag] is the number of EventMetric slots tag occupies; zero
// for tags with no EventMetric view.
var metricLimits = [tagCount]uint32{
	TagReplicaCommit:        0,
	TagReplicaAofWrite:      0,
	TagReplicaAofWriteBytes: 1,
	TagCompactBeat:          0,
	TagGridCheckpoint:       0,
	TagCacheHits:            uint32(indexTreeCount),
	TagCacheMisses:          uint32(indexTreeCount),
	TagMetricsEmit:          0,
}

var metricBases [tagCount]uint32
var metricSlotCount uint32

func init() {
	var base uint32
	for t := Tag(0); t < tagCount; t++ {
		stackBases[t] = base
		base += stackLimits[t]
	}
	stackCount = base

	base = 0
	for t := Tag(0); t < tagCount; t++ {
		metricBases[t] = base
		base += metricLimits[t]
	}
	metricSlotCount = base
}

// StackCount is the width of the tracer's events_started table.
func StackCount() uint32 { return stackCount }

// StackBase returns the first stack slot reserved for tag.
func StackBase(t Tag) uint32 { return stackBases[t] }

// StackLimit returns the number of stack slots reserved for tag.
func StackLimit(t Tag) uint32 { return stackLimits[t] }

// MetricSlotCount is the width of the tracer's events_metric table.
func MetricSlotCount() uint32 { return metricSlotCount }

// TimingSlotCount is the width of the tracer's events_timing table. This
// catalogue gives every traceable tag exactly one timing slot per stack
// slot, so the two tables share a numbering; that is a property of this
// catalogue, not a requirement the formatter or aggregator depend on.
func TimingSlotCount() uint32 { return stackCount }

// Stack computes the unique stack slot for e's (tag, discriminant) pair.
// Panics if e's discriminant fields are out of range — a malformed event is
// a caller bug, not a runtime condition to recover from.
func Stack(e Event) uint32 {
	switch v := e.(type) {
	case ReplicaCommit:
		return stackBases[TagReplicaCommit]
	case ReplicaAofWrite:
		return stackBases[TagReplicaAofWrite]
	case CompactBeat:
		if v.Tree >= compactTreeCount || v.LevelB >= CompactionLevels {
			panic("schema: CompactBeat discriminant out of range")
		}
		return stackBases[TagCompactBeat] + uint32(v.Tree)*CompactionLevels + uint32(v.LevelB)
	case GridCheckpoint:
		return stackBases[TagGridCheckpoint]
	case MetricsEmit:
		return stackBases[TagMetricsEmit]
	default:
		panic("schema: event has no EventTracing view")
	}
}

// TimingSlot computes the flat EventTiming slot for e. For this catalogue it
// coincides with Stack; kept as a distinct function so callers never assume
// that equivalence holds in general.
func TimingSlot(e Event) uint32 { return Stack(e) }

// MetricSlot computes the flat EventMetric slot for e.
func MetricSlot(e Event) uint32 {
	switch v := e.(type) {
	case ReplicaAofWriteBytes:
		return metricBases[TagReplicaAofWriteBytes]
	case CacheHits:
		if v.Tree >= indexTreeCount {
			panic("schema: CacheHits discriminant out of range")
		}
		return metricBases[TagCacheHits] + uint32(v.Tree)
	case CacheMisses:
		if v.Tree >= indexTreeCount {
			panic("schema: CacheMisses discriminant out of range")
		}
		return metricBases[TagCacheMisses] + uint32(v.Tree)
	default:
		panic("schema: event has no EventMetric view")
	}
}
