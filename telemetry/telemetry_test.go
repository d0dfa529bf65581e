package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func TestNoOpCollector(t *testing.T) {
	collector := FromContext(context.Background())
	_, ok := collector.(noOpCollector)
	assert.True(t, ok, "missing collector should be a no-op")

	timer := StartTimer(context.Background(), "load")
	timer.Child("decode").End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf)
	assert.Equal(t, "", buf.String())
}

func TestTimingCollectorTree(t *testing.T) {
	collector := NewTimingCollector(WithNow(stepClock(5 * time.Millisecond)))
	ctx := WithCollector(context.Background(), collector)

	root := StartTimer(ctx, "load expenses.txt")
	ctx = WithTimer(ctx, root)

	read := StartTimer(ctx, "read")
	read.End()
	decode := StartTimer(ctx, "decode")
	decode.Child("apply").End()
	decode.End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf)

	want := "load expenses.txt: 35ms\n" +
		"├─ read: 5ms\n" +
		"└─ decode: 15ms\n" +
		"   └─ apply: 5ms\n"
	assert.Equal(t, want, buf.String())
}

func TestTimingCollectorSequentialRoots(t *testing.T) {
	collector := NewTimingCollector(WithNow(stepClock(time.Second)))

	first := collector.Start("save")
	first.End()
	second := collector.Start("load")
	second.End()

	var buf bytes.Buffer
	collector.Report(&buf)
	assert.Equal(t, "save: 1.00s\nload: 1.00s\n", buf.String())
}

func TestTimerEndIsIdempotent(t *testing.T) {
	collector := NewTimingCollector(WithNow(stepClock(time.Millisecond)))

	timer := collector.Start("op")
	timer.End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf)
	assert.Equal(t, "op: 1ms\n", buf.String())
}
