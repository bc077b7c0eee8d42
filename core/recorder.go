// Package core decodes ATDF body chunks into classified record streams and
// turns those streams into Doppler, Range and Ramp observables.
package core

import (
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
)

// MetricsRecorder receives pipeline counters. observability.PipelineCollector
// satisfies it; a nil recorder is replaced by a no-op.
type MetricsRecorder interface {
	ChunkDecoded()
	DecodeFailed()
	RecordClassified(stream model.Stream)
	ObservableEmitted(family model.Family)
	RampEmitted(final bool)
	RecordSkipped(stream model.Stream, reason string)
	LinkReset(stream model.Stream)
	ObserveStage(stage string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ChunkDecoded()                      {}
func (noopRecorder) DecodeFailed()                      {}
func (noopRecorder) RecordClassified(model.Stream)      {}
func (noopRecorder) ObservableEmitted(model.Family)     {}
func (noopRecorder) RampEmitted(bool)                   {}
func (noopRecorder) RecordSkipped(model.Stream, string) {}
func (noopRecorder) LinkReset(model.Stream)             {}
func (noopRecorder) ObserveStage(string, time.Duration) {}

func recorderOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopRecorder{}
	}
	return m
}
