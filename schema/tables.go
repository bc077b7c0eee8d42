package schema

import (
	"fmt"

	"github.com/signalsfoundry/atdf-observables/bitfield"
)

// ChunkSize is the size of every ATDF block in bytes.
const ChunkSize = 288

// ChunkBits is ChunkSize in bits.
const ChunkBits = ChunkSize * 8

var (
	uf = bitfield.Uint
	sf = bitfield.Int
)

func one(f bitfield.Field) []bitfield.Field { return []bitfield.Field{f} }

func run(fields ...bitfield.Field) []bitfield.Field { return fields }

// format8Table is the 8-item record layout, Item001..Item150.
var format8Table = bitfield.MustTable("format-8", bitfield.Sequence("Item",
	run(uf(32), uf(8), uf(32), uf(12), uf(16), uf(8), uf(8), uf(8), uf(20), uf(10),
		uf(8), uf(6), uf(4), uf(4), uf(16), uf(8), uf(8), uf(8), uf(1), sf(18),
		uf(1), uf(1), uf(1), uf(1), uf(1), uf(6), uf(6), uf(4), uf(32)),
	bitfield.Repeat(6, uf(24)),
	run(uf(8), uf(28), uf(24), uf(24), uf(24), sf(24), sf(24), uf(32), uf(32), sf(32)),
	bitfield.Repeat(27, uf(24)),
	run(sf(4), sf(32), sf(4), sf(32), sf(18), sf(18), uf(8), uf(4), uf(2), uf(1),
		uf(1), uf(1), uf(1), uf(8), uf(10), sf(18), sf(18), uf(24), uf(24)),
	bitfield.Repeat(9, uf(1)),
	run(uf(4), uf(1), uf(10), uf(24), sf(12), sf(4), sf(32), sf(4), sf(32), uf(4),
		uf(32), sf(22), uf(14), uf(23), uf(1), uf(1), uf(1), uf(10), uf(8), sf(32),
		sf(32), uf(4), uf(32), uf(4), uf(32)),
	bitfield.Repeat(14, uf(1)),
	run(uf(28), uf(30)),
	bitfield.Repeat(9, uf(32)),
)...)

// format4Table is the 4-item record layout, Item001..Item117.
var format4Table = bitfield.MustTable("format-4", bitfield.Sequence("Item",
	bitfield.Repeat(2, uf(36)),
	run(uf(12), uf(16), uf(8), uf(12), uf(8), uf(28)),
	bitfield.Repeat(3, uf(8)),
	one(uf(4)),
	bitfield.Repeat(4, uf(8)),
	run(uf(5), uf(1), uf(1), sf(4), uf(1), uf(1), uf(3), uf(3), uf(1), uf(1), uf(2), uf(3), uf(10)),
	bitfield.Repeat(5, uf(36)),
	run(uf(20), uf(72), sf(16)),
	bitfield.Repeat(3, uf(36)),
	one(sf(36)),
	bitfield.Repeat(18, uf(36)),
	run(sf(36), sf(36), sf(18), sf(18)),
	run(uf(3), uf(3), uf(2), uf(1), uf(1), uf(3), uf(1), uf(4), uf(4), uf(1), uf(1), uf(30), uf(18), uf(18), sf(18), sf(36)),
	bitfield.Repeat(12, uf(1)),
	run(uf(4), uf(1), uf(2), uf(2), uf(1), uf(1)),
	run(uf(13), uf(24), sf(12), sf(36), sf(36), sf(36), sf(22), uf(14), uf(33), uf(1), uf(1), uf(1),
		sf(36), uf(5), sf(31), uf(36), uf(36), uf(144), uf(36), uf(144)),
)...)

// identificationTable is the first header block.
var identificationTable = bitfield.MustTable("header-identification",
	uf(32).Named("record_format"),
	uf(8).Named("reserved"),
	uf(32).Named("record_type"),
	bitfield.Skip(120).Named("unused1"),
	bitfield.Str("tag_a", 16),
	bitfield.Str("tag_t", 8),
	bitfield.Str("tag_d", 12),
	bitfield.Str("tag_f", 8),
	bitfield.Skip(2068).Named("unused2"),
)

// transponderTable is the second header block.
var transponderTable = bitfield.MustTable("header-transponder",
	uf(32).Named("record_format"),
	uf(8).Named("reserved"),
	uf(32).Named("record_type"),
	uf(12).Named("start_year"),
	uf(16).Named("start_doy"),
	uf(8).Named("start_hour"),
	uf(12).Named("start_minute"),
	uf(8).Named("start_second"),
	uf(12).Named("unused1"),
	uf(16).Named("spacecraft_id"),
	uf(24).Named("unused2"),
	uf(12).Named("end_year"),
	uf(16).Named("end_doy"),
	uf(8).Named("end_hour"),
	uf(12).Named("end_minute"),
	uf(8).Named("end_second"),
	uf(16).Named("unused3"),
	uf(36).Named("transponder_high"),
	uf(36).Named("transponder_low"),
	bitfield.Skip(1980).Named("unused4"),
)

var itemNames = func() [151]string {
	var names [151]string
	for i := 1; i < len(names); i++ {
		names[i] = fmt.Sprintf("Item%03d", i)
	}
	return names
}()

// items reads numbered fields out of a decoded record.
type items struct{ r bitfield.Record }

func (f items) i64(n int) int64     { return f.r.Int(itemNames[n]) }
func (f items) int(n int) int       { return int(f.i64(n)) }
func (f items) float(n int) float64 { return float64(f.i64(n)) }
