package tracer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xet7/tigerbeetle/internal/clock"
	"github.com/xet7/tigerbeetle/internal/emitter"
	"github.com/xet7/tigerbeetle/internal/iorun"
	"github.com/xet7/tigerbeetle/internal/schema"
	"github.com/xet7/tigerbeetle/internal/statsdline"
)

func newTestTracer(t *testing.T, w Writer) *Tracer {
	t.Helper()
	pool := iorun.NewPool(statsdline.PacketCountMax())
	em := emitter.New(iorun.LogSender{}, pool, statsdline.Identity{})
	return New(Options{Writer: w, Clock: clock.NewFake(), Emitter: em, Replica: 0})
}

// TestJSONTraceShape matches spec.md §8 scenario 1: opening "[\n", a
// phase-B object for replica_commit at tid=0, a phase-B for the nested
// compact_beat stack, its phase-E, then the phase-E for replica_commit.
func TestJSONTraceShape(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracer(t, &buf)

	tr.Start(schema.ReplicaCommit{Stage: schema.StageIdle, Op: 123})
	tr.Start(schema.CompactBeat{Tree: schema.CompactAccount, LevelB: 1})
	tr.Stop(schema.CompactBeat{Tree: schema.CompactAccount, LevelB: 1})
	tr.Stop(schema.ReplicaCommit{Stage: schema.StageIdle, Op: 456})

	out := buf.String()
	if !strings.HasPrefix(out, "[\n") {
		t.Fatalf("want stream to open with \"[\\n\", got %q", out[:min(10, len(out))])
	}
	if strings.Contains(out, "]") {
		t.Fatalf("stream must never contain a closing \"]\", got %q", out)
	}

	compactStack := schema.Stack(schema.CompactBeat{Tree: schema.CompactAccount, LevelB: 1})

	records := strings.Split(strings.TrimPrefix(out, "[\n"), ",\n")
	// trailing element is empty after the last ",\n"
	var objs []string
	for _, r := range records {
		if strings.TrimSpace(r) != "" {
			objs = append(objs, r)
		}
	}
	if len(objs) != 4 {
		t.Fatalf("want 4 span objects, got %d: %v", len(objs), objs)
	}

	if !strings.Contains(objs[0], `"pid":0`) || !strings.Contains(objs[0], `"tid":0`) ||
		!strings.Contains(objs[0], `"cat":"replica_commit"`) || !strings.Contains(objs[0], `"ph":"B"`) ||
		!strings.Contains(objs[0], `"args":{"stage":"idle","op":123}`) {
		t.Fatalf("unexpected first span: %s", objs[0])
	}

	wantTidB := `"tid":` + itoa(compactStack)
	if !strings.Contains(objs[1], wantTidB) || !strings.Contains(objs[1], `"ph":"B"`) {
		t.Fatalf("unexpected second span: %s", objs[1])
	}
	if !strings.Contains(objs[2], wantTidB) || !strings.Contains(objs[2], `"ph":"E"`) {
		t.Fatalf("unexpected third span: %s", objs[2])
	}
	if !strings.Contains(objs[3], `"tid":0`) || !strings.Contains(objs[3], `"ph":"E"`) {
		t.Fatalf("unexpected fourth span: %s", objs[3])
	}
}

func TestStartWhileRunningPanics(t *testing.T) {
	tr := newTestTracer(t, nil)
	tr.Start(schema.GridCheckpoint{})
	defer func() {
		if recover() == nil {
			t.Fatalf("want panic on start-while-running")
		}
	}()
	tr.Start(schema.GridCheckpoint{})
}

func TestStopWhileIdlePanics(t *testing.T) {
	tr := newTestTracer(t, nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("want panic on stop-while-idle")
		}
	}()
	tr.Stop(schema.GridCheckpoint{})
}

// TestCancelNoopWhenNothingRunning matches the round-trip property: cancel
// on a tag with no running instance is observationally a no-op.
func TestCancelNoopWhenNothingRunning(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracer(t, &buf)
	tr.Cancel(schema.TagGridCheckpoint)
	if buf.Len() != len("[\n") {
		t.Fatalf("want no spans written by a no-op cancel, got %q", buf.String())
	}
}

// TestCancelDoesNotUpdateTimingAggregate matches the documented Open
// Question resolution: cancel ends the span but never folds a duration
// into the timing aggregate.
func TestCancelDoesNotUpdateTimingAggregate(t *testing.T) {
	tr := newTestTracer(t, nil)
	tr.Start(schema.GridCheckpoint{})
	tr.Cancel(schema.TagGridCheckpoint)

	if len(tr.table.Timings()) != 0 {
		t.Fatalf("want no timing aggregate recorded by cancel, got %d", len(tr.table.Timings()))
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := []byte{}
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}
