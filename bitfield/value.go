package bitfield

import (
	"math/big"
)

// Value is a decoded field. Fields up to 64 bits keep their raw pattern in a
// uint64; wider ones are held as a big.Int. Values built by the constructors
// below have no width and carry the literal number instead of a pattern.
type Value struct {
	kind Kind
	bits int
	raw  uint64
	wide *big.Int // raw pattern, only for bits > 64
	text string
	set  bool
}

// UintValue, IntValue, BigValue and TextValue build values for Encode. The
// table decides the final width and interpretation.
func UintValue(u uint64) Value { return Value{kind: Unsigned, raw: u, set: true} }

func IntValue(i int64) Value { return Value{kind: Signed, raw: uint64(i), set: true} }

func BigValue(b *big.Int) Value {
	return Value{kind: Signed, wide: new(big.Int).Set(b), set: true}
}

func TextValue(s string) Value { return Value{kind: Text, text: s, set: true} }

// Kind reports how the value was interpreted.
func (v Value) Kind() Kind { return v.kind }

// Bits is the declared width of the field the value came from.
func (v Value) Bits() int { return v.bits }

// IsZero reports whether the value was never set.
func (v Value) IsZero() bool { return !v.set }

// Uint64 returns the raw bit pattern. Wide values are truncated to their low
// 64 bits.
func (v Value) Uint64() uint64 {
	if v.wide != nil {
		return new(big.Int).And(v.wide, maxUint64).Uint64()
	}
	return v.raw
}

// Int64 returns the numeric value, sign extended for signed fields.
func (v Value) Int64() int64 {
	if v.wide != nil {
		return v.Big().Int64()
	}
	if v.kind == Signed && v.bits > 0 && v.bits < 64 {
		shift := uint(64 - v.bits)
		return int64(v.raw<<shift) >> shift
	}
	return int64(v.raw)
}

// Int is Int64 narrowed to int.
func (v Value) Int() int { return int(v.Int64()) }

// Big returns the numeric value at full precision.
func (v Value) Big() *big.Int {
	if v.wide == nil {
		if v.kind == Signed {
			return big.NewInt(v.Int64())
		}
		return new(big.Int).SetUint64(v.raw)
	}
	out := new(big.Int).Set(v.wide)
	if v.kind == Signed && v.bits > 0 && out.Bit(v.bits-1) == 1 {
		out.Sub(out, new(big.Int).Lsh(big.NewInt(1), uint(v.bits)))
	}
	return out
}

// Text returns the decoded string of a text field, or "" for numeric ones.
func (v Value) Text() string { return v.text }

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// pattern converts v into the raw bit pattern of an n-bit field of kind k.
func (v Value) pattern(k Kind, n int) (*big.Int, bool) {
	var num *big.Int
	switch {
	case v.kind == Text:
		num = new(big.Int).SetBytes([]byte(v.text))
	case v.wide != nil:
		num = new(big.Int).Set(v.wide)
	case v.kind == Signed:
		num = big.NewInt(int64(v.raw))
	default:
		num = new(big.Int).SetUint64(v.raw)
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(n))
	if num.Sign() < 0 {
		if k != Signed {
			return nil, false
		}
		min := new(big.Int).Neg(new(big.Int).Rsh(limit, 1))
		if num.Cmp(min) < 0 {
			return nil, false
		}
		num.Add(num, limit)
		return num, true
	}
	if k == Signed {
		if num.Cmp(new(big.Int).Rsh(limit, 1)) >= 0 {
			return nil, false
		}
		return num, true
	}
	if num.Cmp(limit) >= 0 {
		return nil, false
	}
	return num, true
}
