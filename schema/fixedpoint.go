package schema

import (
	"github.com/shopspring/decimal"
)

// Scale selects how split integer parts recombine into a physical value.
type Scale int

const (
	// ScaleFraction is mid·10⁻⁷ + low·10⁻¹⁴.
	ScaleFraction Scale = iota
	// ScaleDecimal is high·10⁸ + mid·10 + low·10⁻⁶ (format-8 counts and range).
	ScaleDecimal
	// ScaleKilo is high·10³ + low·10⁻⁶ (format-8 frequencies).
	ScaleKilo
	// ScaleBinary is high·2⁴⁰ + mid·2¹⁶ + low·2⁻⁸ + extra·2⁻³² (uplink phase).
	ScaleBinary
	// ScaleMyriad is high·10⁴ + low·10⁻³ (format-4 counts, transponder frequency).
	ScaleMyriad
	// ScaleDeca is high·10 + low·10⁻⁶, and zero when high is zero.
	ScaleDeca
)

// Parts are the integer components of a split field.
type Parts struct {
	High  int64
	Mid   int64
	Low   int64
	Extra int64
}

var (
	pow2p40  = decimal.NewFromInt(1 << 40)
	pow2p16  = decimal.NewFromInt(1 << 16)
	pow2m8   = decimal.RequireFromString("0.00390625")
	pow2m32  = decimal.RequireFromString("0.00000000023283064365386962890625")
	zeroPart = decimal.Zero
)

// Reconstruct combines parts exactly; callers convert to float64 once.
func Reconstruct(scale Scale, p Parts) decimal.Decimal {
	switch scale {
	case ScaleFraction:
		return decimal.New(p.Mid, -7).Add(decimal.New(p.Low, -14))
	case ScaleDecimal:
		return decimal.New(p.High, 8).Add(decimal.New(p.Mid, 1)).Add(decimal.New(p.Low, -6))
	case ScaleKilo:
		return decimal.New(p.High, 3).Add(decimal.New(p.Low, -6))
	case ScaleBinary:
		return decimal.NewFromInt(p.High).Mul(pow2p40).
			Add(decimal.NewFromInt(p.Mid).Mul(pow2p16)).
			Add(decimal.NewFromInt(p.Low).Mul(pow2m8)).
			Add(decimal.NewFromInt(p.Extra).Mul(pow2m32))
	case ScaleMyriad:
		return decimal.New(p.High, 4).Add(decimal.New(p.Low, -3))
	case ScaleDeca:
		if p.High == 0 {
			return zeroPart
		}
		return decimal.New(p.High, 1).Add(decimal.New(p.Low, -6))
	default:
		return zeroPart
	}
}

// Float is Reconstruct converted to the nearest float64.
func Float(scale Scale, p Parts) float64 {
	return Reconstruct(scale, p).InexactFloat64()
}

func (f items) fixed(scale Scale, high, mid, low, extra int) float64 {
	p := Parts{}
	if high > 0 {
		p.High = f.i64(high)
	}
	if mid > 0 {
		p.Mid = f.i64(mid)
	}
	if low > 0 {
		p.Low = f.i64(low)
	}
	if extra > 0 {
		p.Extra = f.i64(extra)
	}
	return Float(scale, p)
}
