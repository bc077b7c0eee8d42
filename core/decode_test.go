package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/schema"
)

func TestPartition(t *testing.T) {
	cases := []struct {
		n, w  int
		sizes []int
	}{
		{10, 4, []int{3, 3, 2, 2}},
		{8, 4, []int{2, 2, 2, 2}},
		{2, 4, []int{1, 1}},
		{5, 1, []int{5}},
		{0, 3, []int{0, 0, 0}},
		{7, 0, []int{7}},
	}
	for _, tc := range cases {
		ranges := Partition(tc.n, tc.w)
		if len(ranges) != len(tc.sizes) {
			t.Fatalf("Partition(%d, %d) = %v, want %d ranges", tc.n, tc.w, ranges, len(tc.sizes))
		}
		next := 0
		for i, r := range ranges {
			if r[0] != next {
				t.Fatalf("Partition(%d, %d) range %d starts at %d, want %d", tc.n, tc.w, i, r[0], next)
			}
			if got := r[1] - r[0]; got != tc.sizes[i] {
				t.Fatalf("Partition(%d, %d) range %d size %d, want %d", tc.n, tc.w, i, got, tc.sizes[i])
			}
			next = r[1]
		}
		if next != tc.n {
			t.Fatalf("Partition(%d, %d) covers %d items", tc.n, tc.w, next)
		}
	}
}

// syntheticBody builds n chunks one second apart alternating between ramp,
// two-way Doppler and one-way range records.
func syntheticBody(t *testing.T, n int) [][]byte {
	t.Helper()
	chunks := make([][]byte, n)
	for i := range chunks {
		at := epoch.Add(time.Duration(i) * time.Second)
		var items map[int]int64
		switch i % 3 {
		case 0:
			items = v2Items(at, 14, 6, 0)
		case 1:
			items = v2Items(at, 43, 2, 2)
		default:
			items = v2Items(at, 63, 5, 5)
		}
		items[30] = int64(i)
		chunks[i] = encodeV2(t, items)
	}
	return chunks
}

func TestDecodeMergeOrderMatchesSingleWorker(t *testing.T) {
	chunks := syntheticBody(t, 1000)
	ctx := context.Background()

	decode := func(workers int) Decoded {
		engine, err := NewDecodeEngine(schema.V2(), WithWorkers(workers))
		if err != nil {
			t.Fatalf("NewDecodeEngine error: %v", err)
		}
		out, err := engine.Decode(ctx, chunks)
		if err != nil {
			t.Fatalf("Decode(workers=%d) error: %v", workers, err)
		}
		return out
	}
	parallel, serial := decode(4), decode(1)

	if !reflect.DeepEqual(parallel.Streams, serial.Streams) {
		t.Fatalf("merged streams differ between 4 workers and 1 worker")
	}
	if got := parallel.Streams.Len(); got != 1000 {
		t.Fatalf("classified %d records, want 1000", got)
	}
	for st, recs := range parallel.Streams {
		for i := 1; i < len(recs); i++ {
			if recs[i].TimeTag.Before(recs[i-1].TimeTag) {
				t.Fatalf("stream %v not time ordered at %d", model.Stream(st), i)
			}
		}
	}
	if want := epoch.Add(999 * time.Second); !parallel.Span.Start.Equal(epoch) || !parallel.Span.End.Equal(want) {
		t.Fatalf("span = %+v", parallel.Span)
	}
}

func TestDecodeDropsBadChunks(t *testing.T) {
	chunks := syntheticBody(t, 6)
	chunks[2] = chunks[2][:100]

	engine, err := NewDecodeEngine(schema.V2(), WithWorkers(2))
	if err != nil {
		t.Fatalf("NewDecodeEngine error: %v", err)
	}
	out, err := engine.Decode(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if out.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", out.Failed)
	}
	if got := out.Streams.Len(); got != 5 {
		t.Fatalf("classified %d records, want 5", got)
	}
}

func TestDecodeExpandsHighRate(t *testing.T) {
	items := v2Items(epoch, 14, 1, 1)
	items[3] = 91
	items[19] = 0
	engine, err := NewDecodeEngine(schema.V2(), WithWorkers(1))
	if err != nil {
		t.Fatalf("NewDecodeEngine error: %v", err)
	}
	out, err := engine.Decode(context.Background(), [][]byte{encodeV2(t, items)})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	recs := out.Streams[model.StreamDoppler1Way]
	if len(recs) != 10 {
		t.Fatalf("one-way records = %d, want 10", len(recs))
	}
	if got := recs[9].TimeTag.Sub(recs[0].TimeTag); got != 900*time.Millisecond {
		t.Fatalf("sub-record spread = %v", got)
	}
}

func TestDecodeHonoursCancellation(t *testing.T) {
	engine, err := NewDecodeEngine(schema.V2(), WithWorkers(2))
	if err != nil {
		t.Fatalf("NewDecodeEngine error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Decode(ctx, syntheticBody(t, 4)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Decode error = %v, want context.Canceled", err)
	}
}

func TestTrimPadding(t *testing.T) {
	chunks := syntheticBody(t, 3)
	padded := append(chunks, make([]byte, schema.ChunkSize), make([]byte, schema.ChunkSize))

	kept, dropped := TrimPadding(schema.V2(), padded, model.FormatV2)
	if dropped != 2 || len(kept) != 3 {
		t.Fatalf("TrimPadding kept %d dropped %d, want 3 and 2", len(kept), dropped)
	}

	kept, dropped = TrimPadding(schema.V2(), chunks, model.FormatV2)
	if dropped != 0 || len(kept) != 3 {
		t.Fatalf("TrimPadding on clean body kept %d dropped %d", len(kept), dropped)
	}
}

func TestDefaultWorkersAtLeastOne(t *testing.T) {
	if DefaultWorkers() < 1 {
		t.Fatalf("DefaultWorkers = %d", DefaultWorkers())
	}
	engine, err := NewDecodeEngine(schema.V2(), WithWorkers(0))
	if err != nil {
		t.Fatalf("NewDecodeEngine error: %v", err)
	}
	if engine.Workers() != DefaultWorkers() {
		t.Fatalf("Workers = %d, want %d", engine.Workers(), DefaultWorkers())
	}
}
