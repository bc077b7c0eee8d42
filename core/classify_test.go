package core

import (
	"testing"

	"github.com/signalsfoundry/atdf-observables/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		dataType   int
		groundMode int
		doppler    bool
		rng        bool
		want       model.Stream
		ok         bool
	}{
		{"ramp", 6, 0, false, false, model.StreamRamp, true},
		{"ramp wrong mode", 6, 1, true, true, 0, false},
		{"one-way doppler", 1, 1, true, false, model.StreamDoppler1Way, true},
		{"two-way doppler", 2, 2, true, false, model.StreamDoppler2Way, true},
		{"three-way doppler", 2, 3, true, false, model.StreamDoppler3Way, true},
		{"invalid doppler", 2, 2, false, true, 0, false},
		{"doppler range mode", 1, 5, true, true, 0, false},
		{"one-way range", 5, 5, false, true, model.StreamRange1Way, true},
		{"two-way range", 5, 6, false, true, model.StreamRange2Way, true},
		{"invalid range", 5, 6, true, false, 0, false},
		{"unknown data type", 9, 0, true, true, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := model.CanonicalRecord{
				DataType:     tc.dataType,
				GroundMode:   tc.groundMode,
				DopplerValid: tc.doppler,
				RangeValid:   tc.rng,
			}
			got, ok := Classify(rec)
			if ok != tc.ok || (ok && got != tc.want) {
				t.Fatalf("Classify = (%v, %v), want (%v, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}
