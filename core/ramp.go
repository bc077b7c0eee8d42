package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/kb"
	"github.com/signalsfoundry/atdf-observables/model"
)

// RampExtractor closes each pending ramp of a station and uplink band when
// the next ramp record of that key arrives.
type RampExtractor struct {
	ramps   *kb.RampStore
	log     logging.Logger
	metrics MetricsRecorder
}

// NewRampExtractor builds an extractor with a fresh ramp store.
func NewRampExtractor(log logging.Logger, metrics MetricsRecorder) *RampExtractor {
	if log == nil {
		log = logging.Noop()
	}
	return &RampExtractor{ramps: kb.NewRampStore(), log: log, metrics: recorderOrNoop(metrics)}
}

// Ramps exposes the pending-ramp store.
func (r *RampExtractor) Ramps() *kb.RampStore { return r.ramps }

// RampSky converts a ramp record's start frequency and rate to sky level.
// Values already in the uplink band's sky window pass through.
func RampSky(rec model.CanonicalRecord) (freq, rate float64, err error) {
	ul := rec.UplinkBand
	raw := rec.RampFrequency
	if ul.Known() && model.SkyBand(raw) == ul {
		return raw, rec.RampRate, nil
	}
	fac := Multiplier(raw)
	if fac == 0 {
		return 0, 0, &model.InvalidReferenceFrequencyError{RecordContext: contextOf(rec, ul), Frequency: raw}
	}
	f, r := raw/fac, rec.RampRate/fac
	switch ul {
	case model.BandS:
		return 96 * f, 96 * r, nil
	case model.BandX:
		return 32*f + 6.5e9, 32 * r, nil
	case model.BandKa:
		return 1000*f + 1e10, 1000 * r, nil
	default:
		return 0, 0, &model.UnresolvedBandError{
			RecordContext: contextOf(rec, ul),
			Frequency:     raw,
			Reason:        "no ramp transform for uplink band",
		}
	}
}

// Process runs every ramp record in order and returns the closed ramps.
func (r *RampExtractor) Process(ctx context.Context, recs []model.CanonicalRecord) ([]model.RampObservable, error) {
	var out []model.RampObservable
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		ramp, ok, err := r.Step(rec)
		if err != nil {
			reason := model.SkipReason(err)
			r.metrics.RecordSkipped(model.StreamRamp, reason)
			r.log.Warn(ctx, "skipping ramp record",
				logging.String("reason", reason),
				logging.Err(err),
			)
			continue
		}
		if ok {
			out = append(out, ramp)
			r.metrics.RampEmitted(false)
		}
	}
	return out, nil
}

// Step stores rec as the pending ramp of its key and returns the ramp it
// closes, if any. A record that cannot be converted leaves the pending
// ramp untouched.
func (r *RampExtractor) Step(rec model.CanonicalRecord) (model.RampObservable, bool, error) {
	if !model.IsDSNStation(rec.Station) {
		return model.RampObservable{}, false, &model.InvalidStationError{RecordContext: contextOf(rec, rec.UplinkBand)}
	}
	freq, rate, err := RampSky(rec)
	if err != nil {
		return model.RampObservable{}, false, err
	}

	key := model.RampKey{Station: rec.Station, Band: rec.UplinkBand}
	prev := r.ramps.Get(key)
	next := kb.RampState{Armed: true, Pending: rec, Frequency: freq, Rate: rate}
	if !prev.Armed {
		r.ramps.Put(key, next, kb.EventArmed)
		return model.RampObservable{}, false, nil
	}
	r.ramps.Put(key, next, kb.EventConsumed)
	return closeRamp(key, prev, rec.TimeTag, false), true, nil
}

// Flush closes every pending ramp that starts before end at end and marks
// it final. Ramps are returned in store order.
func (r *RampExtractor) Flush(end time.Time) []model.RampObservable {
	var out []model.RampObservable
	r.ramps.Each(func(key model.RampKey, st kb.RampState) {
		if !st.Armed || !st.Pending.TimeTag.Before(end) {
			return
		}
		out = append(out, closeRamp(key, st, end, true))
	})
	for range out {
		r.metrics.RampEmitted(true)
	}
	return out
}

func closeRamp(key model.RampKey, st kb.RampState, end time.Time, final bool) model.RampObservable {
	return model.RampObservable{
		Start:     st.Pending.TimeTag,
		End:       end,
		Station:   key.Station,
		Band:      key.Band,
		Frequency: st.Frequency,
		Rate:      st.Rate,
		Final:     final,
	}
}
