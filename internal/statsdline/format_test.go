package statsdline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xet7/tigerbeetle/internal/schema"
)

// TestWorstCasePayloadsNeverOverflow exercises every catalogue tag's
// worst-case payload through the real formatter and confirms it never
// returns ErrNoSpace — the property LineSizeMax is computed to guarantee.
func TestWorstCasePayloadsNeverOverflow(t *testing.T) {
	id := Identity{Cluster: [16]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, Replica: 255}

	for _, tag := range schema.AllTags() {
		e := schema.WorstCase(tag)
		if schema.HasMetricView(tag) {
			var buf bytes.Buffer
			if err := Format(&buf, GaugeSample{Event: e, Value: ^uint64(0)}, id); err != nil {
				t.Fatalf("tag %v: worst-case gauge line overflowed: %v", tag, err)
			}
			if !strings.HasSuffix(buf.String(), "\n") {
				t.Fatalf("tag %v: line must end with \\n", tag)
			}
		}
		if schema.HasTimingView(tag) {
			for _, kind := range []StatKind{StatMin, StatMax, StatAvg, StatSum, StatCount} {
				var buf bytes.Buffer
				sample := TimingSample{Event: e, Kind: kind, Min: 0, Max: ^uint64(0), Sum: ^uint64(0), Count: ^uint64(0)}
				if err := Format(&buf, sample, id); err != nil {
					t.Fatalf("tag %v kind %v: worst-case timing line overflowed: %v", tag, kind, err)
				}
				if buf.Len() > LineSizeMax() {
					t.Fatalf("tag %v kind %v: line length %d exceeds LineSizeMax %d", tag, kind, buf.Len(), LineSizeMax())
				}
			}
		}
	}
}

// TestLineFormatExact matches spec.md §8 scenario 5 exactly.
func TestLineFormatExact(t *testing.T) {
	id := Identity{Replica: 7}
	id.Cluster[15] = 0x01

	var buf bytes.Buffer
	if err := Format(&buf, GaugeSample{Event: schema.CacheHits{Tree: schema.IndexAccountID}, Value: 42}, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "tb.cache_hits:42|g|#cluster:00000000000000000000000000000001,replica:7,tree:Account.id\n"
	if buf.String() != want {
		t.Fatalf("want %q, got %q", want, buf.String())
	}
}

func TestAvgFloorsSumOverCount(t *testing.T) {
	var buf bytes.Buffer
	sample := TimingSample{Event: schema.ReplicaAofWrite{}, Kind: StatAvg, Sum: 10, Count: 3}
	if err := Format(&buf, sample, Identity{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), ":3|g") {
		t.Fatalf("want floor(10/3)=3, got %q", buf.String())
	}
}

func TestBudgetInvariants(t *testing.T) {
	if LineSizeMax() > PacketSizeMax {
		t.Fatalf("LineSizeMax %d exceeds PacketSizeMax %d", LineSizeMax(), PacketSizeMax)
	}
	if PacketMessagesMax() <= 0 {
		t.Fatalf("PacketMessagesMax must be > 0, got %d", PacketMessagesMax())
	}
	if PacketCountMax() < 1 || PacketCountMax() >= 256 {
		t.Fatalf("PacketCountMax must be in [1,256), got %d", PacketCountMax())
	}
}
