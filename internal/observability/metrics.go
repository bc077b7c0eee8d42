package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/signalsfoundry/atdf-observables/model"
)

// PipelineCollector bundles Prometheus metrics for a decode run and exposes
// them over HTTP or to a Pushgateway.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	ChunksDecoded      prometheus.Counter
	DecodeFailures     prometheus.Counter
	RecordsClassified  *prometheus.CounterVec
	ObservablesEmitted *prometheus.CounterVec
	RampsEmitted       *prometheus.CounterVec
	RecordsSkipped     *prometheus.CounterVec
	LinkResets         *prometheus.CounterVec
	StageDurations     *prometheus.HistogramVec
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	chunks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atdf_chunks_decoded_total",
		Help: "Body chunks decoded into canonical records.",
	}), "atdf_chunks_decoded_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atdf_decode_failures_total",
		Help: "Body chunks dropped because they could not be decoded.",
	}), "atdf_decode_failures_total")
	if err != nil {
		return nil, err
	}
	classified, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atdf_records_classified_total",
		Help: "Records routed into each stream by the classifier.",
	}, []string{"stream"}), "atdf_records_classified_total")
	if err != nil {
		return nil, err
	}
	emitted, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atdf_observables_emitted_total",
		Help: "Doppler and Range observables written, labeled by family.",
	}, []string{"family"}), "atdf_observables_emitted_total")
	if err != nil {
		return nil, err
	}
	ramps, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atdf_ramps_emitted_total",
		Help: "Ramp intervals written, split by whether the end epoch closed them.",
	}, []string{"final"}), "atdf_ramps_emitted_total")
	if err != nil {
		return nil, err
	}
	skipped, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atdf_records_skipped_total",
		Help: "Records skipped by an engine, labeled by stream and reason.",
	}, []string{"stream", "reason"}), "atdf_records_skipped_total")
	if err != nil {
		return nil, err
	}
	resets, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atdf_link_resets_total",
		Help: "Continuity resets caused by time gaps, labeled by stream.",
	}, []string{"stream"}), "atdf_link_resets_total")
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atdf_stage_duration_seconds",
		Help:    "Wall time of each pipeline stage in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"stage"}), "atdf_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:           gatherer,
		ChunksDecoded:      chunks,
		DecodeFailures:     failures,
		RecordsClassified:  classified,
		ObservablesEmitted: emitted,
		RampsEmitted:       ramps,
		RecordsSkipped:     skipped,
		LinkResets:         resets,
		StageDurations:     durations,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Push sends every gathered metric to a Pushgateway under job, with the
// given grouping labels.
func (c *PipelineCollector) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	if c == nil {
		return fmt.Errorf("pipeline metrics not initialised")
	}
	pusher := push.New(url, job).Gatherer(c.gatherer)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// The methods below satisfy core.MetricsRecorder and are nil-safe.

func (c *PipelineCollector) ChunkDecoded() {
	if c == nil {
		return
	}
	c.ChunksDecoded.Inc()
}

func (c *PipelineCollector) DecodeFailed() {
	if c == nil {
		return
	}
	c.DecodeFailures.Inc()
}

func (c *PipelineCollector) RecordClassified(stream model.Stream) {
	if c == nil {
		return
	}
	c.RecordsClassified.WithLabelValues(stream.String()).Inc()
}

func (c *PipelineCollector) ObservableEmitted(family model.Family) {
	if c == nil {
		return
	}
	c.ObservablesEmitted.WithLabelValues(family.String()).Inc()
}

func (c *PipelineCollector) RampEmitted(final bool) {
	if c == nil {
		return
	}
	c.RampsEmitted.WithLabelValues(fmt.Sprint(final)).Inc()
}

func (c *PipelineCollector) RecordSkipped(stream model.Stream, reason string) {
	if c == nil {
		return
	}
	c.RecordsSkipped.WithLabelValues(stream.String(), reason).Inc()
}

func (c *PipelineCollector) LinkReset(stream model.Stream) {
	if c == nil {
		return
	}
	c.LinkResets.WithLabelValues(stream.String()).Inc()
}

func (c *PipelineCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
