package core

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/model"
)

// RangeExtractor converts each Range record into one observable; no state
// is carried between records.
type RangeExtractor struct {
	Family model.Family

	log     logging.Logger
	metrics MetricsRecorder
}

// NewRangeExtractor builds an extractor for a one- or two-way Range family.
func NewRangeExtractor(family model.Family, log logging.Logger, metrics MetricsRecorder) (*RangeExtractor, error) {
	if family != model.FamilyRange1Way && family != model.FamilyRange2Way {
		return nil, fmt.Errorf("range extractor: %s is not a range family", family)
	}
	if log == nil {
		log = logging.Noop()
	}
	return &RangeExtractor{Family: family, log: log, metrics: recorderOrNoop(metrics)}, nil
}

// Process converts recs in order, skipping records that fail.
func (r *RangeExtractor) Process(ctx context.Context, recs []model.CanonicalRecord) ([]model.Observable, error) {
	out := make([]model.Observable, 0, len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		obs, err := r.Convert(rec)
		if err != nil {
			reason := model.SkipReason(err)
			r.metrics.RecordSkipped(model.StreamOf(r.Family), reason)
			r.log.Warn(ctx, "skipping range record",
				logging.String("family", r.Family.String()),
				logging.String("reason", reason),
				logging.Err(err),
			)
			continue
		}
		out = append(out, obs)
		r.metrics.ObservableEmitted(r.Family)
	}
	return out, nil
}

// Convert computes range − equipment delay + Z·k − spacecraft delay·k, with
// k converting seconds to range units.
func (r *RangeExtractor) Convert(rec model.CanonicalRecord) (model.Observable, error) {
	if !model.IsDSNStation(rec.Station) {
		return model.Observable{}, &model.InvalidStationError{RecordContext: contextOf(rec, rec.UplinkBand)}
	}
	ref, err := ResolveReference(rec)
	if err != nil {
		return model.Observable{}, err
	}
	k, err := SecondsToRangeUnits(rec, ref.ExciterBand, ref.Frequency)
	if err != nil {
		return model.Observable{}, err
	}

	transmitter := model.StationLabel(rec.Station)
	if r.Family == model.FamilyRange1Way {
		transmitter = model.SpacecraftLabel
	}
	return model.Observable{
		TimeTag:            rec.TimeTag,
		Family:             r.Family,
		SpacecraftID:       rec.SpacecraftID,
		Transmitter:        transmitter,
		Receiver:           model.StationLabel(rec.Station),
		Channel:            rec.Channel,
		UplinkBand:         rec.UplinkBand,
		DownlinkBand:       rec.DownlinkBand,
		ExciterBand:        ref.ExciterBand,
		CountInterval:      rec.CountInterval,
		LowRangeComponent:  rec.LowRangeComponent,
		Observed:           rec.Range - rec.RangeEquipmentDelay + rec.ZCorrection*k - rec.SpacecraftDelay*k,
		ReferenceFrequency: ref.Frequency,
		TransmitterDelay:   rec.ExciterStationDelay * 1e9,
		ReceiverDelay:      rec.ReceiverStationDelay * 1e9,
		SpacecraftDelay:    rec.SpacecraftDelay * 1e9,
	}, nil
}
