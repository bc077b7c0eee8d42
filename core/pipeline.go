package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/internal/observability"
	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/schema"
	"github.com/signalsfoundry/atdf-observables/timetag"
)

// headerChunks is the number of leading chunks holding the file header.
const headerChunks = 2

// PipelineConfig holds the parameters the pipeline consumes.
type PipelineConfig struct {
	// Workers for the decode engine; below 1 selects DefaultWorkers.
	Workers int
	// CountIntervals resnaps Doppler count intervals when non-empty.
	CountIntervals []float64
	// Families to extract, in output order. Empty means all.
	Families []model.Family
}

// Result is everything one run produces.
type Result struct {
	Header model.Header
	Format int
	// Span is the observed body time range; FinalRamps close at Span.End.
	Span       timetag.Span
	Ramps      []model.RampObservable
	FinalRamps []model.RampObservable
	// Observables per family, in the order families were extracted.
	Observables map[model.Family][]model.Observable
	Families    []model.Family
	// Skipped counts records dropped by the engines, per stream.
	Skipped      map[model.Stream]int
	Chunks       int
	Trimmed      int
	DecodeFailed int
	Classified   map[model.Stream]int
}

// Pipeline runs header decode, parallel body decode and the continuity
// engines in dependency order.
type Pipeline struct {
	cfg     PipelineConfig
	log     logging.Logger
	metrics MetricsRecorder
}

// NewPipeline builds a pipeline; log and metrics may be nil.
func NewPipeline(cfg PipelineConfig, log logging.Logger, metrics MetricsRecorder) *Pipeline {
	if log == nil {
		log = logging.Noop()
	}
	if len(cfg.Families) == 0 {
		cfg.Families = model.Families
	}
	return &Pipeline{cfg: cfg, log: log, metrics: recorderOrNoop(metrics)}
}

// Run decodes chunks, the whole file split into 288-byte blocks, and
// extracts every enabled observable family. Format errors are fatal; record
// level errors are logged and counted in Result.Skipped.
func (p *Pipeline) Run(ctx context.Context, chunks [][]byte) (Result, error) {
	ctx, span := observability.Tracer().Start(ctx, "atdf.pipeline",
		trace.WithAttributes(attribute.Int("atdf.chunks", len(chunks))))
	defer span.End()

	res, err := p.run(ctx, chunks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, chunks [][]byte) (Result, error) {
	if len(chunks) <= headerChunks {
		return Result{}, &model.FormatError{What: "file holds no body records", Expected: "at least 3 chunks", Found: len(chunks)}
	}
	counter := newSkipCounter(p.metrics)
	res := Result{Chunks: len(chunks), Skipped: counter.skipped}

	var (
		ex   schema.Extractor
		body [][]byte
	)
	err := p.stage(ctx, "header", func(ctx context.Context) error {
		h, err := schema.DecodeHeader(chunks[0], chunks[1])
		if err != nil {
			return err
		}
		res.Header = h
		disc, err := schema.Discriminator(chunks[headerChunks])
		if err != nil {
			return err
		}
		if ex, err = schema.ForFormat(disc); err != nil {
			return err
		}
		res.Format = disc
		body, res.Trimmed = TrimPadding(ex, chunks[headerChunks:], disc)
		if res.Trimmed > 0 {
			p.log.Info(ctx, "trimmed trailing padding chunks", logging.Int("chunks", res.Trimmed))
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	var decoded Decoded
	err = p.stage(ctx, "decode", func(ctx context.Context) error {
		engine, err := NewDecodeEngine(ex, WithWorkers(p.cfg.Workers), WithLogger(p.log), WithMetrics(p.metrics))
		if err != nil {
			return err
		}
		decoded, err = engine.Decode(ctx, body)
		if err != nil {
			return fmt.Errorf("decode body: %w", err)
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("atdf.workers", engine.Workers()),
			attribute.Int("atdf.records", decoded.Streams.Len()),
		)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	res.DecodeFailed = decoded.Failed
	res.Classified = make(map[model.Stream]int, model.StreamCount)
	for st, recs := range decoded.Streams {
		res.Classified[model.Stream(st)] = len(recs)
	}

	res.Span = decoded.Span
	if res.Span.IsZero() {
		res.Span = timetag.Span{Start: res.Header.StartEpoch, End: res.Header.EndEpoch}
	}

	// Three-way Doppler needs every ramp, final ones included, before it
	// starts.
	err = p.stage(ctx, "ramp", func(ctx context.Context) error {
		rampEx := NewRampExtractor(p.log, counter)
		ramps, err := rampEx.Process(ctx, decoded.Streams[model.StreamRamp])
		if err != nil {
			return err
		}
		res.Ramps = ramps
		res.FinalRamps = rampEx.Flush(res.Span.End)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	resolver := NewThreeWayResolver(res.Ramps, res.FinalRamps)

	res.Observables = make(map[model.Family][]model.Observable, len(p.cfg.Families))
	for _, family := range p.cfg.Families {
		recs := decoded.Streams[model.StreamOf(family)]
		err := p.stage(ctx, family.String(), func(ctx context.Context) error {
			obs, err := p.extract(ctx, family, recs, res.Header, resolver, counter)
			if err != nil {
				return err
			}
			res.Observables[family] = obs
			return nil
		})
		if err != nil {
			return Result{}, err
		}
		res.Families = append(res.Families, family)
	}
	return res, nil
}

func (p *Pipeline) extract(ctx context.Context, family model.Family, recs []model.CanonicalRecord, h model.Header, resolver *ThreeWayResolver, metrics MetricsRecorder) ([]model.Observable, error) {
	if !family.IsDoppler() {
		r, err := NewRangeExtractor(family, p.log, metrics)
		if err != nil {
			return nil, err
		}
		return r.Process(ctx, recs)
	}
	d, err := NewDopplerExtractor(family, p.log, metrics)
	if err != nil {
		return nil, err
	}
	d.Transponder = h.TransponderFrequency
	d.CountIntervals = p.cfg.CountIntervals
	d.Resolver = resolver
	return d.Process(ctx, recs)
}

// stage runs fn inside a child span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer().Start(ctx, "atdf."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// skipCounter forwards to a recorder and keeps per-stream skip totals for
// the run result.
type skipCounter struct {
	MetricsRecorder
	mu      sync.Mutex
	skipped map[model.Stream]int
}

func newSkipCounter(next MetricsRecorder) *skipCounter {
	return &skipCounter{MetricsRecorder: next, skipped: make(map[model.Stream]int)}
}

func (c *skipCounter) RecordSkipped(stream model.Stream, reason string) {
	c.mu.Lock()
	c.skipped[stream]++
	c.mu.Unlock()
	c.MetricsRecorder.RecordSkipped(stream, reason)
}
