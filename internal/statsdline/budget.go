// internal/statsdline/budget.go
// Computes the byte-budget constants spec.md §4.1 requires be verified at
// build time: statsd_line_size_max, packet_messages_max, packet_count_max.
// Go has no comptime, so this package computes them once in init() from the
// catalogue's worst-case payloads (internal/schema.WorstCase) using the same
// formatter real traffic goes through, and panics on violation — the
// closest a plain init() gets to "a build-time failure, not a runtime
// error" (see SPEC_FULL.md §9 and DESIGN.md for the generator that freezes
// these into literal constants for a stricter CI pipeline).
package statsdline

import (
	"bytes"
	"fmt"

	"github.com/xet7/tigerbeetle/internal/schema"
)

// PacketSizeMax is the hard UDP datagram payload ceiling spec.md §4.1 names.
const PacketSizeMax = 1400

var (
	lineSizeMax       int
	packetMessagesMax int
	packetCountMax    int
)

// LineSizeMax is the supremum line length over every payload the catalogue
// admits (statsd_line_size_max).
func LineSizeMax() int { return lineSizeMax }

// PacketMessagesMax is floor(PacketSizeMax / LineSizeMax()).
func PacketMessagesMax() int { return packetMessagesMax }

// PacketCountMax is ceil((EventMetric.slot_count + 5*EventTiming.slot_count) /
// PacketMessagesMax()) — each timing slot expands to five lines — the
// completion-pool capacity an emitter needs.
func PacketCountMax() int { return packetCountMax }

func init() {
	lineSizeMax = worstCaseLineLen()
	if lineSizeMax > PacketSizeMax {
		panic(fmt.Sprintf("statsdline: worst-case line %d bytes exceeds packet budget %d", lineSizeMax, PacketSizeMax))
	}

	packetMessagesMax = PacketSizeMax / lineSizeMax
	if packetMessagesMax <= 0 {
		panic("statsdline: packet_messages_max must be > 0")
	}

	totalSlots := int(schema.MetricSlotCount()) + 5*int(schema.TimingSlotCount())
	packetCountMax = ceilDiv(totalSlots, packetMessagesMax)
	if packetCountMax < 1 || packetCountMax >= 256 {
		panic(fmt.Sprintf("statsdline: packet_count_max %d out of range [1,256)", packetCountMax))
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 1
	}
	return (a + b - 1) / b
}

// worstCaseLineLen formats every stat line for every catalogue tag's
// worst-case payload and returns the longest.
func worstCaseLineLen() int {
	max := 0
	id := Identity{Cluster: [16]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, Replica: 255}
	for _, t := range schema.AllTags() {
		e := schema.WorstCase(t)
		if schema.HasMetricView(t) {
			max = maxInt(max, lineLenOf(GaugeSample{Event: e, Value: ^uint64(0)}, id))
		}
		if schema.HasTimingView(t) {
			for _, k := range []StatKind{StatMin, StatMax, StatAvg, StatSum, StatCount} {
				s := TimingSample{Event: e, Kind: k, Min: ^uint64(0), Max: ^uint64(0), Sum: ^uint64(0), Count: ^uint64(0)}
				max = maxInt(max, lineLenOf(s, id))
			}
		}
	}
	return max
}

func lineLenOf(sample any, id Identity) int {
	var buf bytes.Buffer
	formatInto(&buf, sample, id)
	return buf.Len()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
