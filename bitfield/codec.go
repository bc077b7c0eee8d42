package bitfield

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
)

// readPiece bounds a single bit read from the stream.
const readPiece = 32

// Record is the decoded form of one buffer: one value per table field.
type Record struct {
	table  *Table
	values []Value
}

// Decode reads buf sequentially, most significant bit first, as described by
// table. The buffer must hold exactly table.Bits() bits.
func Decode(buf []byte, table *Table) (Record, error) {
	if table.Bits() != len(buf)*8 {
		return Record{}, &LengthError{Table: table.Name(), TableBits: table.Bits(), BufferBits: len(buf) * 8}
	}

	stream := kaitai.NewStream(bytes.NewReader(buf))
	values := make([]Value, len(table.fields))
	for i, f := range table.fields {
		v, err := readField(stream, f)
		if err != nil {
			return Record{}, fmt.Errorf("table %s: read %s: %w", table.Name(), f.Name, err)
		}
		values[i] = v
	}
	return Record{table: table, values: values}, nil
}

func readField(stream *kaitai.Stream, f Field) (Value, error) {
	v := Value{kind: f.Kind, bits: f.Bits, set: true}

	if f.Kind == Padding {
		for left := f.Bits; left > 0; {
			n := min(left, readPiece)
			if _, err := stream.ReadBitsIntBe(n); err != nil {
				return Value{}, err
			}
			left -= n
		}
		return v, nil
	}

	if f.Bits <= 64 {
		var acc uint64
		for left := f.Bits; left > 0; {
			n := min(left, readPiece)
			piece, err := stream.ReadBitsIntBe(n)
			if err != nil {
				return Value{}, err
			}
			acc = acc<<uint(n) | piece
			left -= n
		}
		v.raw = acc
	} else {
		acc := new(big.Int)
		for left := f.Bits; left > 0; {
			n := min(left, readPiece)
			piece, err := stream.ReadBitsIntBe(n)
			if err != nil {
				return Value{}, err
			}
			acc.Lsh(acc, uint(n))
			acc.Or(acc, new(big.Int).SetUint64(piece))
			left -= n
		}
		v.wide = acc
	}

	if f.Kind == Text {
		v.text = string(v.Big().Bytes())
	}
	return v, nil
}

// Encode is the inverse of Decode. Fields absent from values encode as zero;
// values that do not fit their field are an error.
func Encode(table *Table, values map[string]Value) ([]byte, error) {
	for name := range values {
		if _, ok := table.Lookup(name); !ok {
			return nil, fmt.Errorf("table %s: unknown field %q", table.Name(), name)
		}
	}

	buf := make([]byte, (table.Bits()+7)/8)
	pos := 0
	for _, f := range table.fields {
		v, ok := values[f.Name]
		if ok && v.set && f.Kind != Padding {
			pattern, fits := v.pattern(f.Kind, f.Bits)
			if !fits {
				return nil, fmt.Errorf("table %s: value for %s does not fit %d %s bits", table.Name(), f.Name, f.Bits, f.Kind)
			}
			setBits(buf, pos, f.Bits, pattern)
		}
		pos += f.Bits
	}
	return buf, nil
}

func setBits(buf []byte, pos, n int, pattern *big.Int) {
	for i := 0; i < n; i++ {
		if pattern.Bit(n-1-i) == 0 {
			continue
		}
		bit := pos + i
		buf[bit/8] |= 0x80 >> uint(bit%8)
	}
}

// Len is the number of decoded fields.
func (r Record) Len() int { return len(r.values) }

// Value returns the named field.
func (r Record) Value(name string) (Value, bool) {
	if r.table == nil {
		return Value{}, false
	}
	i, ok := r.table.Lookup(name)
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// At returns the field at position i.
func (r Record) At(i int) Value { return r.values[i] }

// Uint, Int, Text and Big are shorthands returning the zero value for
// unknown names.
func (r Record) Uint(name string) uint64 {
	v, _ := r.Value(name)
	return v.Uint64()
}

func (r Record) Int(name string) int64 {
	v, _ := r.Value(name)
	return v.Int64()
}

func (r Record) Text(name string) string {
	v, _ := r.Value(name)
	return v.Text()
}

func (r Record) Big(name string) *big.Int {
	v, ok := r.Value(name)
	if !ok {
		return new(big.Int)
	}
	return v.Big()
}
