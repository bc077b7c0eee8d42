package model

import "strings"

// Band is a radio frequency band as used on DSN links.
type Band int

const (
	BandUnknown Band = iota
	BandL
	BandS
	BandC
	BandX
	BandKu
	BandKa
)

// KnownBands lists every band except BandUnknown, lowest frequency first.
var KnownBands = []Band{BandL, BandS, BandC, BandX, BandKu, BandKa}

var bandNames = map[Band]string{
	BandL:  "L",
	BandS:  "S",
	BandC:  "C",
	BandX:  "X",
	BandKu: "Ku",
	BandKa: "Ka",
}

func (b Band) String() string {
	if name, ok := bandNames[b]; ok {
		return name
	}
	return "NA"
}

// Known reports whether b is a real band.
func (b Band) Known() bool { return b != BandUnknown }

// ParseBand is the inverse of String; anything unrecognised is BandUnknown.
func ParseBand(s string) Band {
	for b, name := range bandNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return b
		}
	}
	return BandUnknown
}

// skyWindows are the [low, high) sky frequency ranges in Hz.
var skyWindows = []struct {
	band     Band
	low, top float64
}{
	{BandL, 1e9, 2e9},
	{BandS, 2e9, 4e9},
	{BandC, 4e9, 7e9},
	{BandX, 7e9, 12e9},
	{BandKu, 12e9, 18e9},
	{BandKa, 26.5e9, 40e9},
}

// SkyBand classifies a frequency in Hz. Frequencies outside every window,
// such as synthesizer reference values near 22 MHz, are BandUnknown.
func SkyBand(freq float64) Band {
	for _, w := range skyWindows {
		if freq >= w.low && freq < w.top {
			return w.band
		}
	}
	return BandUnknown
}
