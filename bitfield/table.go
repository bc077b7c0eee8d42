// Package bitfield decodes and encodes fixed-width, big-endian bit-packed
// records described by declarative field tables.
package bitfield

import (
	"fmt"
)

// MaxBits is the widest single field a table may declare.
const MaxBits = 144

// Kind selects how a field's bits are interpreted.
type Kind int

const (
	// Unsigned fields are plain big-endian integers.
	Unsigned Kind = iota
	// Signed fields are two's complement integers.
	Signed
	// Text fields are the big-endian bytes of the value with leading zero
	// bytes dropped.
	Text
	// Padding fields are skipped on decode and zero on encode. They are the
	// only kind allowed to exceed MaxBits.
	Padding
)

func (k Kind) String() string {
	switch k {
	case Unsigned:
		return "uint"
	case Signed:
		return "int"
	case Text:
		return "text"
	case Padding:
		return "padding"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is one entry of a table.
type Field struct {
	Name string
	Bits int
	Kind Kind
}

// Uint, Int and Str build anonymous or named fields; anonymous ones are
// named by Sequence.
func Uint(bits int) Field { return Field{Bits: bits, Kind: Unsigned} }
func Int(bits int) Field  { return Field{Bits: bits, Kind: Signed} }
func Str(name string, bits int) Field {
	return Field{Name: name, Bits: bits, Kind: Text}
}

// Skip declares unused bits.
func Skip(bits int) Field { return Field{Bits: bits, Kind: Padding} }

// Named returns f with the given name.
func (f Field) Named(name string) Field {
	f.Name = name
	return f
}

// Repeat returns n copies of f.
func Repeat(n int, f Field) []Field {
	out := make([]Field, n)
	for i := range out {
		out[i] = f
	}
	return out
}

// Table is an ordered, validated list of fields with a name index.
type Table struct {
	name   string
	fields []Field
	index  map[string]int
	bits   int
}

// NewTable validates the field list: every width must lie in [1, MaxBits]
// and names must be unique and non-empty.
func NewTable(name string, fields ...Field) (*Table, error) {
	t := &Table{
		name:   name,
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range t.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("table %s: field %d has no name", name, i)
		}
		if f.Bits < 1 || (f.Kind != Padding && f.Bits > MaxBits) {
			return nil, fmt.Errorf("table %s: field %q has width %d outside [1, %d]", name, f.Name, f.Bits, MaxBits)
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("table %s: duplicate field %q", name, f.Name)
		}
		t.index[f.Name] = i
		t.bits += f.Bits
	}
	return t, nil
}

// MustTable is NewTable for package-level tables; it panics on error.
func MustTable(name string, fields ...Field) *Table {
	t, err := NewTable(name, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// Sequence names the fields prefix001, prefix002, ... in declaration order.
// Groups are flattened first so repeated runs can be spliced in directly.
func Sequence(prefix string, groups ...[]Field) []Field {
	var out []Field
	for _, g := range groups {
		out = append(out, g...)
	}
	for i := range out {
		out[i].Name = fmt.Sprintf("%s%03d", prefix, i+1)
	}
	return out
}

// Name identifies the table in errors.
func (t *Table) Name() string { return t.name }

// Bits is the total declared width.
func (t *Table) Bits() int { return t.bits }

// Len is the number of fields.
func (t *Table) Len() int { return len(t.fields) }

// Fields returns a copy of the field list.
func (t *Table) Fields() []Field { return append([]Field(nil), t.fields...) }

// Lookup returns the position of a named field.
func (t *Table) Lookup(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// LengthError reports a buffer whose size disagrees with the table.
type LengthError struct {
	Table      string
	TableBits  int
	BufferBits int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("table %s declares %d bits, buffer holds %d", e.Table, e.TableBits, e.BufferBits)
}
