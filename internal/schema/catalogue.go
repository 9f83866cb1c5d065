// internal/schema/catalogue.go
// Package schema defines the closed catalogue of replica event variants the
// observability core accepts. It is a discriminated sum, not an open class
// hierarchy: every variant is a concrete Go struct implementing the Event
// marker interface, and every place that needs to reflect over a variant's
// fields (the line formatter, the JSON span writer, the stack/slot
// assignment below) does so with an exhaustive type switch rather than
// runtime reflection.
//
// Adding a tag means adding a case to every switch in this package
// (catalogue.go, fields.go, layout.go); the compiler will not catch a missed switch case
// (Go has no sealed-interface exhaustiveness check), which is why
// catalogue_test.go enumerates AllTags() and asserts every tag round-trips
// through Stack/TimingSlot/MetricSlot without panicking.
package schema

//go:generate go run ./gen

// Tag identifies one event variant. The catalogue is closed: Tag values
// outside [0, tagCount) never occur.
type Tag uint8

const (
	TagReplicaCommit Tag = iota
	TagReplicaAofWrite
	TagReplicaAofWriteBytes
	TagCompactBeat
	TagGridCheckpoint
	TagCacheHits
	TagCacheMisses
	TagMetricsEmit
	tagCount
)

func (t Tag) String() string {
	switch t {
	case TagReplicaCommit:
		return "replica_commit"
	case TagReplicaAofWrite:
		return "replica_aof_write"
	case TagReplicaAofWriteBytes:
		return "replica_aof_write_bytes"
	case TagCompactBeat:
		return "compact_beat"
	case TagGridCheckpoint:
		return "grid_checkpoint"
	case TagCacheHits:
		return "cache_hits"
	case TagCacheMisses:
		return "cache_misses"
	case TagMetricsEmit:
		return "metrics_emit"
	default:
		return "unknown_tag"
	}
}

// AllTags returns every tag in the closed catalogue, in declaration order.
func AllTags() []Tag {
	out := make([]Tag, 0, int(tagCount))
	for t := Tag(0); t < tagCount; t++ {
		out = append(out, t)
	}
	return out
}

// Event is implemented by every variant below. It carries no behaviour
// beyond identifying its own tag; field access happens through a type
// switch (see Stack, TimingSlot, MetricSlot, and Fields, which
// internal/statsdline.Format and the tracer's JSON writer use).
type Event interface {
	Tag() Tag
}

// ReplicaStage is an enum-tag field: finite name set, formatted as its tag
// name (never as an integer) in both StatsD lines and JSON span args.
type ReplicaStage uint8

const (
	StageIdle ReplicaStage = iota
	StageCommitting
	StageCheckpointing
)

func (s ReplicaStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCommitting:
		return "committing"
	case StageCheckpointing:
		return "checkpointing"
	default:
		return "unknown_stage"
	}
}

// CompactTree is the table-level enum used by CompactBeat (one compaction
// pass runs per tree per level).
type CompactTree uint8

const (
	CompactAccount CompactTree = iota
	CompactTransfer
	compactTreeCount
)

func (t CompactTree) String() string {
	switch t {
	case CompactAccount:
		return "Account"
	case CompactTransfer:
		return "Transfer"
	default:
		return "unknown_tree"
	}
}

// CompactionLevels is the number of LSM levels compact_beat can run against,
// one stack per (tree, level) pair.
const CompactionLevels = 7

// IndexTree is the index-level enum used by cache_hits/cache_misses — field
// values like "Account.id"
// match the per-index tree naming used by the replica's storage engine.
type IndexTree uint8

const (
	IndexAccountID IndexTree = iota
	IndexAccountTimestamp
	IndexTransferID
	IndexTransferTimestamp
	indexTreeCount
)

func (t IndexTree) String() string {
	switch t {
	case IndexAccountID:
		return "Account.id"
	case IndexAccountTimestamp:
		return "Account.timestamp"
	case IndexTransferID:
		return "Transfer.id"
	case IndexTransferTimestamp:
		return "Transfer.timestamp"
	default:
		return "unknown_index"
	}
}

// --- Variants ---------------------------------------------------------

// ReplicaCommit traces one state-machine commit. EventTracing + EventTiming.
type ReplicaCommit struct {
	Stage ReplicaStage
	Op    uint64
}

func (ReplicaCommit) Tag() Tag { return TagReplicaCommit }

// ReplicaAofWrite traces one append-only-file write. EventTracing + EventTiming.
type ReplicaAofWrite struct{}

func (ReplicaAofWrite) Tag() Tag { return TagReplicaAofWrite }

// ReplicaAofWriteBytes is a gauge of the last AOF write size. EventMetric only.
type ReplicaAofWriteBytes struct{}

func (ReplicaAofWriteBytes) Tag() Tag { return TagReplicaAofWriteBytes }

// CompactBeat traces one LSM compaction beat for a (tree, level) pair.
// EventTracing + EventTiming.
type CompactBeat struct {
	Tree   CompactTree
	LevelB uint8
}

func (CompactBeat) Tag() Tag { return TagCompactBeat }

// GridCheckpoint traces a superblock/grid checkpoint. EventTracing + EventTiming.
type GridCheckpoint struct{}

func (GridCheckpoint) Tag() Tag { return TagGridCheckpoint }

// CacheHits is a per-index-tree gauge. EventMetric only.
type CacheHits struct {
	Tree IndexTree
}

func (CacheHits) Tag() Tag { return TagCacheHits }

// CacheMisses is a per-index-tree gauge. EventMetric only.
type CacheMisses struct {
	Tree IndexTree
}

func (CacheMisses) Tag() Tag { return TagCacheMisses }

// MetricsEmit traces the cost of emit_metrics itself (see tracer façade).
// EventTracing + EventTiming.
type MetricsEmit struct{}

func (MetricsEmit) Tag() Tag { return TagMetricsEmit }
