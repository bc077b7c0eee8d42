package schema

import (
	"time"

	"github.com/signalsfoundry/atdf-observables/bitfield"
	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/timetag"
)

const (
	identificationRecordType = 10
	transponderRecordType    = 30
	fileTag                  = "ATDF"
)

// DecodeHeader decodes and validates the two header chunks.
func DecodeHeader(first, second []byte) (model.Header, error) {
	id, err := bitfield.Decode(first, identificationTable)
	if err != nil {
		return model.Header{}, &model.FormatError{What: "header identification block", Err: err}
	}
	tp, err := bitfield.Decode(second, transponderTable)
	if err != nil {
		return model.Header{}, &model.FormatError{What: "header transponder block", Err: err}
	}

	if rt := int(id.Uint("record_type")); rt != identificationRecordType {
		return model.Header{}, &model.FormatError{What: "identification record type", Expected: identificationRecordType, Found: rt}
	}
	tag := id.Text("tag_a") + id.Text("tag_t") + id.Text("tag_d") + id.Text("tag_f")
	if tag != fileTag {
		return model.Header{}, &model.FormatError{What: "file tag", Expected: fileTag, Found: tag}
	}
	if rt := int(tp.Uint("record_type")); rt != transponderRecordType {
		return model.Header{}, &model.FormatError{What: "transponder record type", Expected: transponderRecordType, Found: rt}
	}

	return model.Header{
		StartEpoch:   epochOf(tp, "start"),
		EndEpoch:     epochOf(tp, "end"),
		SpacecraftID: int(tp.Int("spacecraft_id")),
		TransponderFrequency: Float(ScaleMyriad, Parts{
			High: tp.Int("transponder_high"),
			Low:  tp.Int("transponder_low"),
		}),
		IdentificationType:    identificationRecordType,
		TransponderRecordType: transponderRecordType,
		Tag:                   tag,
	}, nil
}

func epochOf(r bitfield.Record, prefix string) time.Time {
	return timetag.FromDayOfYear(
		int(r.Int(prefix+"_year")),
		int(r.Int(prefix+"_doy")),
		int(r.Int(prefix+"_hour")),
		int(r.Int(prefix+"_minute")),
		int(r.Int(prefix+"_second")),
	)
}

// HeaderFields is the value set EncodeHeader accepts.
type HeaderFields struct {
	Start, End      [5]int // year offset, day of year, hour, minute, second
	SpacecraftID    int
	TransponderHigh int64
	TransponderLow  int64
}

// EncodeHeader builds the two header chunks of a valid file.
func EncodeHeader(h HeaderFields) ([]byte, []byte, error) {
	first, err := bitfield.Encode(identificationTable, map[string]bitfield.Value{
		"record_type": bitfield.UintValue(identificationRecordType),
		"tag_a":       bitfield.TextValue("A"),
		"tag_t":       bitfield.TextValue("T"),
		"tag_d":       bitfield.TextValue("D"),
		"tag_f":       bitfield.TextValue("F"),
	})
	if err != nil {
		return nil, nil, err
	}

	values := map[string]bitfield.Value{
		"record_type":      bitfield.UintValue(transponderRecordType),
		"spacecraft_id":    bitfield.UintValue(uint64(h.SpacecraftID)),
		"transponder_high": bitfield.IntValue(h.TransponderHigh),
		"transponder_low":  bitfield.IntValue(h.TransponderLow),
	}
	suffixes := []string{"_year", "_doy", "_hour", "_minute", "_second"}
	for i, sfx := range suffixes {
		values["start"+sfx] = bitfield.IntValue(int64(h.Start[i]))
		values["end"+sfx] = bitfield.IntValue(int64(h.End[i]))
	}
	second, err := bitfield.Encode(transponderTable, values)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}
