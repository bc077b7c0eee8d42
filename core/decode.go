package core

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/schema"
	"github.com/signalsfoundry/atdf-observables/timetag"
)

// Streams holds classified records per stream in chunk order.
type Streams [model.StreamCount][]model.CanonicalRecord

// Len is the total number of classified records.
func (s *Streams) Len() int {
	n := 0
	for _, recs := range s {
		n += len(recs)
	}
	return n
}

// Decoded is the merged output of a decode run.
type Decoded struct {
	Streams Streams
	// Span covers the time tags of every decoded body record, classified
	// or not.
	Span   timetag.Span
	Chunks int
	Failed int
}

// DecodeEngine decodes body chunks on a fixed pool of workers and merges
// their results back into chunk order.
type DecodeEngine struct {
	extractor schema.Extractor
	workers   int
	log       logging.Logger
	metrics   MetricsRecorder
}

// DecodeOption customises DecodeEngine construction.
type DecodeOption func(*DecodeEngine)

// WithWorkers sets the worker count; values below 1 select DefaultWorkers.
func WithWorkers(n int) DecodeOption {
	return func(e *DecodeEngine) {
		e.workers = n
	}
}

// WithLogger attaches a logger for per-chunk decode warnings.
func WithLogger(l logging.Logger) DecodeOption {
	return func(e *DecodeEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) DecodeOption {
	return func(e *DecodeEngine) {
		e.metrics = recorderOrNoop(m)
	}
}

// DefaultWorkers is half the available CPUs, at least one.
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}
	return n
}

// NewDecodeEngine validates the extractor's table against the chunk size
// once, before any fan-out.
func NewDecodeEngine(ex schema.Extractor, opts ...DecodeOption) (*DecodeEngine, error) {
	if ex == nil {
		return nil, fmt.Errorf("decode engine: nil extractor")
	}
	if err := schema.Validate(ex); err != nil {
		return nil, err
	}
	e := &DecodeEngine{
		extractor: ex,
		log:       logging.Noop(),
		metrics:   noopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.workers < 1 {
		e.workers = DefaultWorkers()
	}
	return e, nil
}

// Workers reports the configured worker count.
func (e *DecodeEngine) Workers() int { return e.workers }

// Partition splits n items into w contiguous [start, end) ranges. The first
// n%w ranges hold one extra item. w is clamped to [1, n] when n > 0.
func Partition(n, w int) [][2]int {
	if w < 1 {
		w = 1
	}
	if n > 0 && w > n {
		w = n
	}
	size, extra := n/w, n%w
	out := make([][2]int, w)
	start := 0
	for i := 0; i < w; i++ {
		end := start + size
		if i < extra {
			end++
		}
		out[i] = [2]int{start, end}
		start = end
	}
	return out
}

type slot struct {
	streams Streams
	span    timetag.Span
	failed  int
}

// Decode runs codec, extractor, high-rate expansion and classifier over
// chunks. A chunk that fails to decode is logged and dropped; only context
// cancellation aborts the run.
func (e *DecodeEngine) Decode(ctx context.Context, chunks [][]byte) (Decoded, error) {
	ranges := Partition(len(chunks), e.workers)
	slots := make([]slot, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			return e.decodeSlice(gctx, chunks, r[0], r[1], &slots[i])
		})
	}
	if err := g.Wait(); err != nil {
		return Decoded{}, err
	}

	// Concatenate by slot index so the merged order equals chunk order.
	out := Decoded{Chunks: len(chunks)}
	for i := range slots {
		s := &slots[i]
		for st := range s.streams {
			out.Streams[st] = append(out.Streams[st], s.streams[st]...)
		}
		if !s.span.IsZero() {
			out.Span = out.Span.Extend(s.span.Start).Extend(s.span.End)
		}
		out.Failed += s.failed
	}
	return out, nil
}

func (e *DecodeEngine) decodeSlice(ctx context.Context, chunks [][]byte, start, end int, s *slot) error {
	var expanded []model.CanonicalRecord
	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := schema.DecodeRecord(e.extractor, chunks[i])
		if err != nil {
			s.failed++
			e.metrics.DecodeFailed()
			e.log.Warn(ctx, "dropping undecodable chunk",
				logging.Int("chunk", i),
				logging.Err(err),
			)
			continue
		}
		e.metrics.ChunkDecoded()
		s.span = s.span.Extend(rec.TimeTag)

		expanded = schema.AppendExpanded(expanded[:0], rec)
		for _, sub := range expanded {
			stream, ok := Classify(sub)
			if !ok {
				continue
			}
			s.streams[stream] = append(s.streams[stream], sub)
			e.metrics.RecordClassified(stream)
		}
	}
	return nil
}

// TrimPadding drops tail chunks until one decodes to the discriminator's
// record format. It returns the kept chunks and the number dropped.
func TrimPadding(ex schema.Extractor, chunks [][]byte, discriminator int) ([][]byte, int) {
	n := len(chunks)
	for n > 0 {
		format, err := schema.RecordFormat(ex, chunks[n-1])
		if err == nil && format == discriminator {
			break
		}
		n--
	}
	return chunks[:n], len(chunks) - n
}
