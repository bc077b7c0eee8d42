package schema

import (
	"github.com/signalsfoundry/atdf-observables/bitfield"
	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/timetag"
)

type v2 struct{}

// V2 extracts 8-item (format 8) records.
func V2() Extractor { return v2{} }

func (v2) Format() int { return model.FormatV2 }
func (v2) Table() *bitfield.Table { return format8Table }

// v2CountItems are the high/mid/low items of counts 1 through 10.
var v2CountItems = [10][3]int{
	{30, 31, 32}, {46, 47, 48}, {49, 50, 51}, {52, 53, 54}, {55, 56, 57},
	{58, 59, 60}, {61, 62, 63}, {64, 65, 66}, {67, 68, 69}, {70, 71, 72},
}

func v2Band(code int) model.Band {
	switch code {
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

func (v2) Extract(r bitfield.Record) (model.CanonicalRecord, error) {
	f := items{r}
	rec := model.CanonicalRecord{
		RecordFormat: f.int(1),
		HighRate:     f.int(3) == highRateType,
		TimeTag:      timetag.FromDayOfYear(f.int(4), f.int(5), f.int(6), f.int(7), f.int(8)),

		Station:      f.int(10),
		DownlinkBand: v2Band(f.int(11)),
		DataType:     f.int(12),
		Channel:      f.int(13),
		GroundMode:   f.int(14),
		SpacecraftID: f.int(15),
		RangeType:    f.int(16),

		DopplerValid: f.int(19) == 0,
		DopplerBias:  f.float(20) * 1e3,
		SkyLevel:     f.int(22) == 1,
		ReceiverType: f.int(26),
		ExciterType:  f.int(27),

		CountInterval: f.float(29) * 1e-2,

		Range:              f.fixed(ScaleDecimal, 33, 34, 35, 0),
		LowRangeComponent:  f.int(36),
		UplinkPhase:        f.fixed(ScaleBinary, 37, 38, 39, 40),
		ReferenceFrequency: f.fixed(ScaleKilo, 43, 0, 44, 0),

		DopplerResidual:       f.float(74) * 1e-3,
		RangeResidual:         f.float(76) * 1e-3,
		TurnaroundNumerator:   f.int(77),
		TurnaroundDenominator: f.int(78),
		UplinkBand:            v2Band(f.int(79)),
		Conscan:               f.int(81),
		SlippedCycles:         f.int(87),
		DopplerNoise:          f.float(88) * 1e-3,
		ExciterStationDelay:   f.float(90) * 1e-9,
		ReceiverStationDelay:  f.float(91) * 1e-9,

		RangeValid:          f.int(96) == 0,
		RangeEquipmentDelay: f.float(104) * 1e-2,
		ZCorrection:         f.float(112) * 1e-11,
		SpacecraftDelay:     f.float(113) * 1e-9,
		RangeNoise:          f.float(114) * 1e-2,

		RampController:                f.int(119),
		RampRate:                      f.fixed(ScaleKilo, 120, 0, 121, 0),
		RampFrequency:                 f.fixed(ScaleKilo, 123, 0, 125, 0),
		TransmitterReferenceFrequency: f.fixed(ScaleKilo, 140, 0, 141, 0),
	}
	for i, it := range v2CountItems {
		rec.Counts[i] = f.fixed(ScaleDecimal, it[0], it[1], it[2], 0)
	}
	rec.DopplerCount = rec.Counts[0]
	return rec, nil
}
