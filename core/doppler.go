package core

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/kb"
	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/timetag"
)

// DopplerExtractor pairs consecutive records of one Doppler family per link
// into observables.
type DopplerExtractor struct {
	Family model.Family

	// Transponder is the spacecraft transponder frequency from the header,
	// used by the one-way bias.
	Transponder float64

	// CountIntervals, when set, resnaps native count intervals.
	CountIntervals []float64

	// Resolver supplies three-way transmitters; required for that family.
	Resolver *ThreeWayResolver

	links   *kb.LinkStore
	log     logging.Logger
	metrics MetricsRecorder
	stream  model.Stream
}

// NewDopplerExtractor builds an extractor with a fresh link store.
func NewDopplerExtractor(family model.Family, log logging.Logger, metrics MetricsRecorder) (*DopplerExtractor, error) {
	if !family.IsDoppler() {
		return nil, fmt.Errorf("doppler extractor: %s is not a doppler family", family)
	}
	if log == nil {
		log = logging.Noop()
	}
	d := &DopplerExtractor{
		Family:  family,
		links:   kb.NewLinkStore(),
		log:     log,
		metrics: recorderOrNoop(metrics),
		stream:  model.StreamOf(family),
	}
	d.links.Subscribe(func(ev kb.Event[model.LinkKey]) {
		if ev.Type == kb.EventReset {
			d.metrics.LinkReset(d.stream)
		}
	})
	return d, nil
}

// Links exposes the continuity store.
func (d *DopplerExtractor) Links() *kb.LinkStore { return d.links }

// Process runs every record through the link state machine in order.
func (d *DopplerExtractor) Process(ctx context.Context, recs []model.CanonicalRecord) ([]model.Observable, error) {
	if d.Family == model.FamilyDoppler3Way && d.Resolver == nil {
		return nil, fmt.Errorf("doppler extractor: three-way doppler needs a ramp resolver")
	}
	var out []model.Observable
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		obs, ok, err := d.Step(rec)
		if err != nil {
			d.skip(ctx, err)
			continue
		}
		if ok {
			out = append(out, obs)
			d.metrics.ObservableEmitted(d.Family)
		}
	}
	return out, nil
}

// Step feeds one record to its link. It returns an observable when the
// record closes a count interval.
func (d *DopplerExtractor) Step(rec model.CanonicalRecord) (model.Observable, bool, error) {
	if !model.IsDSNStation(rec.Station) {
		return model.Observable{}, false, &model.InvalidStationError{RecordContext: contextOf(rec, rec.UplinkBand)}
	}
	ct := ResnapCountInterval(rec.CountInterval, d.CountIntervals)
	key := rec.Key()
	state := d.links.Get(key)

	if !state.Armed {
		d.arm(key, rec, ct, kb.EventArmed)
		return model.Observable{}, false, nil
	}

	prev := state.Pending
	switch {
	case rec.TimeTag.Equal(state.ExpectedNext) && sameLink(prev, rec):
		obs, ok, err := d.observe(state, rec, ct)
		d.arm(key, rec, ct, kb.EventConsumed)
		return obs, ok, err
	case rec.TimeTag.After(state.ExpectedNext):
		// The gap record is dropped, not used to re-arm.
		d.links.Reset(key)
	}
	return model.Observable{}, false, nil
}

func sameLink(a, b model.CanonicalRecord) bool {
	return a.Station == b.Station &&
		a.UplinkBand == b.UplinkBand &&
		a.DownlinkBand == b.DownlinkBand &&
		a.Channel == b.Channel
}

func (d *DopplerExtractor) arm(key model.LinkKey, rec model.CanonicalRecord, ct float64, ev kb.EventType) {
	d.links.Put(key, kb.LinkState{
		Armed:         true,
		Pending:       rec,
		ExpectedNext:  timetag.Add(rec.TimeTag, ct),
		CountInterval: ct,
	}, ev)
}

func (d *DopplerExtractor) observe(state kb.LinkState, rec model.CanonicalRecord, ct float64) (model.Observable, bool, error) {
	prev := state.Pending
	if state.CountInterval != ct {
		return model.Observable{}, false, nil
	}
	delta := (rec.DopplerCount - prev.DopplerCount) / ct
	if delta == 0 {
		return model.Observable{}, false, nil
	}

	ref, err := ResolveReference(rec)
	if err != nil {
		return model.Observable{}, false, err
	}

	obs := model.Observable{
		TimeTag:            timetag.Add(prev.TimeTag, ct/2),
		Family:             d.Family,
		SpacecraftID:       rec.SpacecraftID,
		Transmitter:        model.StationLabel(rec.Station),
		Receiver:           model.StationLabel(rec.Station),
		Channel:            rec.Channel,
		UplinkBand:         rec.UplinkBand,
		DownlinkBand:       rec.DownlinkBand,
		ExciterBand:        ref.ExciterBand,
		CountInterval:      ct,
		LowRangeComponent:  rec.LowRangeComponent,
		ReferenceFrequency: ref.Frequency,
		TransmitterDelay:   rec.ExciterStationDelay * 1e9,
		ReceiverDelay:      rec.ReceiverStationDelay * 1e9,
		SpacecraftDelay:    0.5 * (rec.SpacecraftDelay + prev.SpacecraftDelay) * 1e9,
	}

	bias := rec.DopplerBias
	switch d.Family {
	case model.FamilyDoppler1Way:
		if bias, err = OneWayBias(rec, d.Transponder); err != nil {
			return model.Observable{}, false, err
		}
		obs.Transmitter = model.SpacecraftLabel
		obs.ReferenceFrequency = d.Transponder
	case model.FamilyDoppler3Way:
		ramp, ok := d.Resolver.Resolve(rec.TimeTag, rec.UplinkBand, rec.Station)
		if !ok {
			return model.Observable{}, false, nil
		}
		obs.Transmitter = model.StationLabel(ramp.Station)
	}

	observed := delta - math.Abs(bias)
	if c4 := rec.DopplerBias; c4 != 0 {
		observed = math.Copysign(1, c4) * observed
	}
	obs.Observed = CorrectModuloReset(observed, ct)
	return obs, true, nil
}

func (d *DopplerExtractor) skip(ctx context.Context, err error) {
	reason := model.SkipReason(err)
	d.metrics.RecordSkipped(d.stream, reason)
	d.log.Warn(ctx, "skipping doppler record",
		logging.String("family", d.Family.String()),
		logging.String("reason", reason),
		logging.Err(err),
	)
}
