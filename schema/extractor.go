// Package schema maps decoded ATDF bitfields onto canonical tracking
// records for both record layouts, and decodes the file header.
package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/signalsfoundry/atdf-observables/bitfield"
	"github.com/signalsfoundry/atdf-observables/model"
)

// highRateType is the record type of 10-sample high-rate Doppler records.
const highRateType = 91

// Extractor turns a decoded record of one layout into a CanonicalRecord.
type Extractor interface {
	Format() int
	Table() *bitfield.Table
	Extract(bitfield.Record) (model.CanonicalRecord, error)
}

// ForFormat returns the extractor for a body discriminator value.
func ForFormat(format int) (Extractor, error) {
	switch format {
	case model.FormatV1:
		return V1(), nil
	case model.FormatV2:
		return V2(), nil
	default:
		return nil, &model.FormatError{What: "record format discriminator", Expected: "4 or 8", Found: format}
	}
}

// Discriminator reads the first 32 bits of the first body chunk.
func Discriminator(chunk []byte) (int, error) {
	if len(chunk) < 4 {
		return 0, &model.FormatError{What: "body chunk too short for discriminator", Expected: ChunkSize, Found: len(chunk)}
	}
	return int(binary.BigEndian.Uint32(chunk[:4])), nil
}

// Validate checks that the extractor's table covers exactly one chunk.
func Validate(ex Extractor) error {
	if bits := ex.Table().Bits(); bits != ChunkBits {
		return &model.FormatError{
			What:     fmt.Sprintf("table %s width", ex.Table().Name()),
			Expected: ChunkBits,
			Found:    bits,
		}
	}
	return nil
}

// DecodeRecord runs the codec and the extractor over one chunk.
func DecodeRecord(ex Extractor, chunk []byte) (model.CanonicalRecord, error) {
	fields, err := bitfield.Decode(chunk, ex.Table())
	if err != nil {
		return model.CanonicalRecord{}, &model.FormatError{What: "record decode", Err: err}
	}
	return ex.Extract(fields)
}

// RecordFormat decodes only enough of a chunk to report its normalised
// record format. It is used to trim trailing padding.
func RecordFormat(ex Extractor, chunk []byte) (int, error) {
	rec, err := DecodeRecord(ex, chunk)
	if err != nil {
		return 0, err
	}
	return rec.RecordFormat, nil
}

// EncodeRecord builds a chunk from item numbers to values; items not listed
// are zero. It is the inverse of DecodeRecord for synthetic streams.
func EncodeRecord(ex Extractor, values map[int]int64) ([]byte, error) {
	named := make(map[string]bitfield.Value, len(values))
	for n, v := range values {
		if n < 1 || n >= len(itemNames) {
			return nil, fmt.Errorf("item %d out of range", n)
		}
		named[itemNames[n]] = bitfield.IntValue(v)
	}
	return bitfield.Encode(ex.Table(), named)
}
