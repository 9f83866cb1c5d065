// internal/schema/fields.go
// Stand-in for the "reflection over fields" spec.md §9 says becomes a
// hand-written visitor in a systems language without runtime reflection over
// closed sums. Fields walks one event's payload in declared field order and
// returns each field already formatted the way internal/statsdline and the
// tracer's JSON span writer need it: decimal for integers, tag name for
// enums. Neither caller needs to know the concrete payload type.
package schema

import "strconv"

// Field is one (name, formatted-value) pair from an event's payload, in
// declared order.
type Field struct {
	Name  string
	Value string
}

// reservedFieldNames must never appear in a payload: the StatsD line grammar
// already uses "cluster" and "replica" for the tracer identity tags (see
// internal/statsdline), so a payload field of either name would collide.
// ValidateCatalogue (called from an init-time assertion) checks this for
// every tag in the closed catalogue.
var reservedFieldNames = map[string]bool{"cluster": true, "replica": true}

// Fields returns e's payload fields in declared order, already formatted.
func Fields(e Event) []Field {
	switch v := e.(type) {
	case ReplicaCommit:
		return []Field{
			{"stage", v.Stage.String()},
			{"op", strconv.FormatUint(v.Op, 10)},
		}
	case ReplicaAofWrite, ReplicaAofWriteBytes, GridCheckpoint, MetricsEmit:
		return nil
	case CompactBeat:
		return []Field{
			{"tree", v.Tree.String()},
			{"level_b", strconv.FormatUint(uint64(v.LevelB), 10)},
		}
	case CacheHits:
		return []Field{{"tree", v.Tree.String()}}
	case CacheMisses:
		return []Field{{"tree", v.Tree.String()}}
	default:
		panic("schema: unknown event variant in Fields")
	}
}

// WorstCase returns a payload for tag whose formatted fields are the
// lexicographically longest the catalogue admits: integers at their maximum
// value, enums at their longest tag name. internal/statsdline uses this set
// to compute statsd_line_size_max without needing every concrete payload a
// caller might ever construct.
func WorstCase(t Tag) Event {
	switch t {
	case TagReplicaCommit:
		return ReplicaCommit{Stage: StageCheckpointing, Op: ^uint64(0)}
	case TagReplicaAofWrite:
		return ReplicaAofWrite{}
	case TagReplicaAofWriteBytes:
		return ReplicaAofWriteBytes{}
	case TagCompactBeat:
		return CompactBeat{Tree: CompactTransfer, LevelB: CompactionLevels - 1}
	case TagGridCheckpoint:
		return GridCheckpoint{}
	case TagCacheHits:
		return CacheHits{Tree: IndexTransferTimestamp}
	case TagCacheMisses:
		return CacheMisses{Tree: IndexTransferTimestamp}
	case TagMetricsEmit:
		return MetricsEmit{}
	default:
		panic("schema: WorstCase of unknown tag")
	}
}

// HasTimingView reports whether tag carries an EventTiming view (and, in
// this catalogue, therefore an EventTracing view too).
func HasTimingView(t Tag) bool { return stackLimits[t] > 0 }

// HasMetricView reports whether tag carries an EventMetric (gauge) view.
func HasMetricView(t Tag) bool { return metricLimits[t] > 0 }

// ValidateCatalogue asserts the build-time invariants spec.md §4.1 and §4.2
// require of the catalogue itself (as opposed to the derived byte budgets,
// which internal/statsdline asserts once it can format lines). Called from
// an init() in this package; a violation is a programmer error in the
// catalogue, so it panics rather than returning an error.
func ValidateCatalogue() {
	for _, t := range AllTags() {
		for _, f := range Fields(WorstCase(t)) {
			if reservedFieldNames[f.Name] {
				panic("schema: payload field name collides with reserved tag \"" + f.Name + "\"")
			}
		}
	}
}

func init() {
	ValidateCatalogue()
}
