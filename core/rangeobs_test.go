package core

import (
	"context"
	"testing"

	"github.com/signalsfoundry/atdf-observables/model"
)

func rangeRecord(station int) model.CanonicalRecord {
	return model.CanonicalRecord{
		RecordFormat:         model.FormatV2,
		TimeTag:              epoch,
		Station:              station,
		SpacecraftID:         99,
		UplinkBand:           model.BandS,
		DownlinkBand:         model.BandS,
		DataType:             5,
		GroundMode:           6,
		RangeValid:           true,
		CountInterval:        1,
		Range:                500000,
		LowRangeComponent:    6,
		RangeEquipmentDelay:  120,
		ZCorrection:          1e-9,
		SpacecraftDelay:      2e-9,
		ReferenceFrequency:   2.1e9,
		ExciterStationDelay:  3e-9,
		ReceiverStationDelay: 4e-9,
	}
}

func TestRangeConvert(t *testing.T) {
	r, err := NewRangeExtractor(model.FamilyRange2Way, nil, nil)
	if err != nil {
		t.Fatalf("NewRangeExtractor error: %v", err)
	}
	obs, err := r.Convert(rangeRecord(63))
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	k := 0.5 * 2.1e9
	want := 500000 - 120 + 1e-9*k - 2e-9*k
	if !almostEqual(obs.Observed, want, 1e-12) {
		t.Fatalf("Observed = %v, want %v", obs.Observed, want)
	}
	if obs.Transmitter != "DSS 63" || obs.Receiver != "DSS 63" || obs.ExciterBand != model.BandS {
		t.Fatalf("observable = %+v", obs)
	}
	if !almostEqual(obs.TransmitterDelay, 3, 1e-12) || !almostEqual(obs.SpacecraftDelay, 2, 1e-12) {
		t.Fatalf("delays = %v/%v", obs.TransmitterDelay, obs.SpacecraftDelay)
	}
	if obs.LowRangeComponent != 6 || !obs.TimeTag.Equal(epoch) {
		t.Fatalf("observable = %+v", obs)
	}
}

func TestRangeOneWayTransmitterAndXBand(t *testing.T) {
	r, err := NewRangeExtractor(model.FamilyRange1Way, nil, nil)
	if err != nil {
		t.Fatalf("NewRangeExtractor error: %v", err)
	}
	rec := rangeRecord(15)
	rec.ReferenceFrequency = 7.2e9
	rec.ReceiverType = 2
	obs, err := r.Convert(rec)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if obs.Transmitter != model.SpacecraftLabel {
		t.Fatalf("Transmitter = %q", obs.Transmitter)
	}
	k := (11.0 / 75.0) * 7.2e9
	want := 500000 - 120 + 1e-9*k - 2e-9*k
	if obs.ExciterBand != model.BandX || !almostEqual(obs.Observed, want, 1e-12) {
		t.Fatalf("X-band observable = %+v, want observed %v", obs, want)
	}
}

func TestRangeProcessSkipsBadRecords(t *testing.T) {
	r, err := NewRangeExtractor(model.FamilyRange2Way, nil, nil)
	if err != nil {
		t.Fatalf("NewRangeExtractor error: %v", err)
	}
	badStation := rangeRecord(11)
	kaBand := rangeRecord(63)
	kaBand.ReferenceFrequency = 32e9
	out, err := r.Process(context.Background(), []model.CanonicalRecord{badStation, rangeRecord(63), kaBand})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("observables = %d, want 1", len(out))
	}
}
