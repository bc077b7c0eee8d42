package schema

import (
	"github.com/signalsfoundry/atdf-observables/bitfield"
	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/timetag"
)

// v1RecordFormat is the raw 36-bit record format value of 4-item records.
const v1RecordFormat = 64

type v1 struct{}

// V1 extracts 4-item (format 4) records.
func V1() Extractor { return v1{} }

func (v1) Format() int { return model.FormatV1 }
func (v1) Table() *bitfield.Table { return format4Table }

// v1CountItems are the high/low items of counts 1 through 10.
var v1CountItems = [10][2]int{
	{31, 32}, {42, 43}, {44, 45}, {46, 47}, {48, 49},
	{50, 51}, {52, 53}, {54, 55}, {56, 57}, {58, 59},
}

func v1Band(code int) model.Band {
	switch code {
	case 0:
		return model.BandKu
	case 1:
		return model.BandS
	case 2:
		return model.BandX
	case 3:
		return model.BandKa
	default:
		return model.BandUnknown
	}
}

func (v1) Extract(r bitfield.Record) (model.CanonicalRecord, error) {
	f := items{r}

	format := f.int(1)
	if format == v1RecordFormat {
		format = model.FormatV1
	}

	rec := model.CanonicalRecord{
		RecordFormat: format,
		HighRate:     f.int(2) == highRateType,
		TimeTag:      timetag.FromDayOfYear(f.int(3), f.int(4), f.int(5), f.int(6), f.int(7)),

		SpacecraftID: f.int(8),
		Station:      f.int(10),
		DownlinkBand: v1Band(f.int(11)),
		DataType:     f.int(12),
		GroundMode:   f.int(13),
		RangeType:    f.int(14),

		DopplerValid: f.int(17) == 0,
		DopplerBias:  f.float(20) * 1e6,
		ExciterType:  f.int(28),

		CountInterval: f.float(30) * 1e-2,

		Range:              f.fixed(ScaleMyriad, 33, 0, 34, 0),
		LowRangeComponent:  f.int(35),
		ReferenceFrequency: f.float(40) / 10,

		DopplerResidual:       f.float(60) * 1e-3,
		RangeResidual:         f.float(61),
		TurnaroundNumerator:   f.int(62),
		TurnaroundDenominator: f.int(63),
		UplinkBand:            v1Band(f.int(64)),
		Conscan:               f.int(66),
		Channel:               f.int(69),
		ReceiverType:          f.int(71),
		SlippedCycles:         f.int(76),
		DopplerNoise:          f.float(77) * 1e-3,

		RangeValid:      f.int(85) == 0,
		ZCorrection:     f.float(104) * 1e-11,
		SpacecraftDelay: f.float(105) * 1e-9,
		RangeNoise:      f.float(106) * 1e-2,

		RampController:                f.int(111),
		RampRate:                      f.float(112) * 1e-6,
		RampFrequency:                 f.fixed(ScaleDeca, 113, 0, 114, 0),
		TransmitterReferenceFrequency: f.float(116) / 10,
	}
	for i, it := range v1CountItems {
		rec.Counts[i] = f.fixed(ScaleMyriad, it[0], 0, it[1], 0)
	}
	rec.DopplerCount = rec.Counts[0]
	return rec, nil
}
