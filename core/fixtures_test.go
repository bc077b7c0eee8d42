package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/schema"
)

var epoch = time.Date(2000, time.January, 10, 1, 0, 0, 0, time.UTC)

// v2Items returns the format-8 items of a record at t for station, data
// type and ground mode on an S-band up and downlink.
func v2Items(t time.Time, station, dataType, groundMode int) map[int]int64 {
	return map[int]int64{
		1:  model.FormatV2,
		4:  int64(t.Year() - 1900),
		5:  int64(t.YearDay()),
		6:  int64(t.Hour()),
		7:  int64(t.Minute()),
		8:  int64(t.Second()),
		10: int64(station),
		11: 1,
		12: int64(dataType),
		14: int64(groundMode),
		15: 99,
		79: 1,
	}
}

func encodeV2(t *testing.T, items map[int]int64) []byte {
	t.Helper()
	buf, err := schema.EncodeRecord(schema.V2(), items)
	if err != nil {
		t.Fatalf("EncodeRecord error: %v", err)
	}
	return buf
}

func headerChunksFor(t *testing.T) [][]byte {
	t.Helper()
	first, second, err := schema.EncodeHeader(schema.HeaderFields{
		Start:           [5]int{100, 10, 0, 0, 0},
		End:             [5]int{100, 10, 23, 59, 59},
		SpacecraftID:    99,
		TransponderHigh: 840000,
		TransponderLow:  0,
	})
	if err != nil {
		t.Fatalf("EncodeHeader error: %v", err)
	}
	return [][]byte{first, second}
}

// dopplerRecord is a valid two-way S/S record with a sky-level reference.
func dopplerRecord(t time.Time, station int, count float64) model.CanonicalRecord {
	return model.CanonicalRecord{
		RecordFormat:       model.FormatV2,
		TimeTag:            t,
		Station:            station,
		SpacecraftID:       99,
		UplinkBand:         model.BandS,
		DownlinkBand:       model.BandS,
		DataType:           2,
		GroundMode:         2,
		Channel:            1,
		DopplerValid:       true,
		CountInterval:      10,
		DopplerCount:       count,
		ReferenceFrequency: 2.1e9,
	}
}

func rampRecord(t time.Time, station int, band model.Band, freq, rate float64) model.CanonicalRecord {
	return model.CanonicalRecord{
		RecordFormat:  model.FormatV2,
		TimeTag:       t,
		Station:       station,
		UplinkBand:    band,
		DownlinkBand:  band,
		DataType:      6,
		RampFrequency: freq,
		RampRate:      rate,
	}
}
