package core

import (
	"math"
	"slices"

	"github.com/signalsfoundry/atdf-observables/model"
)

// referenceOscillator is the nominal synthesizer reference the recorded
// frequencies are multiples of.
const referenceOscillator = 22e6

// hefReceiverType is the receiver type that needs no HEF X-band correction.
const hefReceiverType = 5

// ratioTolerance is the relative window used to match turnaround ratios.
const ratioTolerance = 1e-9

// Multiplier recovers the integer factor between a recorded reference
// frequency and the 22 MHz oscillator, rounding half to even.
func Multiplier(freq float64) float64 {
	return math.RoundToEven(freq / referenceOscillator)
}

func contextOf(rec model.CanonicalRecord, band model.Band) model.RecordContext {
	return model.RecordContext{Time: rec.TimeTag, Station: rec.Station, Band: band}
}

// SkyFrequency converts a frequency already divided by its multiplier into
// the sky-level frequency of band. X band at the HEF stations gets the
// synthesizer pre-correction unless the receiver type is exempt.
func SkyFrequency(rec model.CanonicalRecord, freq float64, band model.Band) (float64, error) {
	switch band {
	case model.BandS:
		return 96 * freq, nil
	case model.BandX:
		if model.IsHEFStation(rec.Station) && rec.ReceiverType != hefReceiverType {
			freq = 4.68125*freq - 81.4125e6
		}
		return 32*freq + 6.5e9, nil
	case model.BandKa:
		return 1000*freq + 1e10, nil
	default:
		return 0, &model.UnresolvedBandError{
			RecordContext: contextOf(rec, band),
			Frequency:     freq,
			Reason:        "no sky transform for band",
		}
	}
}

// recoverFrequency divides out the multiplier, failing when it rounds to
// zero.
func recoverFrequency(rec model.CanonicalRecord, raw float64, band model.Band) (float64, error) {
	fac := Multiplier(raw)
	if fac == 0 {
		return 0, &model.InvalidReferenceFrequencyError{RecordContext: contextOf(rec, band), Frequency: raw}
	}
	return raw / fac, nil
}

var turnaroundNumerators = [...]float64{240, 880, 3344}

var exciterDenominators = []struct {
	band model.Band
	den  float64
}{
	{model.BandS, 221},
	{model.BandX, 749},
	{model.BandKa, 3599},
}

// ExciterBandFromRatio matches a turnaround ratio against the n/221, n/749
// and n/3599 families within a relative tolerance.
func ExciterBandFromRatio(ratio float64) (model.Band, bool) {
	for _, d := range exciterDenominators {
		for _, n := range turnaroundNumerators {
			want := n / d.den
			if math.Abs(ratio-want) <= ratioTolerance*want {
				return d.band, true
			}
		}
	}
	return model.BandUnknown, false
}

func downlinkIndex(dl model.Band) int {
	switch dl {
	case model.BandS:
		return 0
	case model.BandX:
		return 1
	case model.BandKa:
		return 2
	default:
		return -1
	}
}

// Turnaround is the transponder ratio M2 for an uplink and downlink band.
func Turnaround(ul, dl model.Band) (float64, bool) {
	i := downlinkIndex(dl)
	if i < 0 {
		return 0, false
	}
	for _, d := range exciterDenominators {
		if d.band == ul {
			return turnaroundNumerators[i] / d.den, true
		}
	}
	return 0, false
}

// DownlinkFactor is the one-way bias constant C2 of a downlink band.
func DownlinkFactor(dl model.Band) (float64, bool) {
	i := downlinkIndex(dl)
	if i < 0 {
		return 0, false
	}
	return turnaroundNumerators[i] / turnaroundNumerators[0], true
}

// ExciterBand infers the band the reference frequency belongs to: its own
// sky band when it is already at sky level, else the band implied by the
// turnaround ratio, else the uplink band.
func ExciterBand(rec model.CanonicalRecord) model.Band {
	if b := model.SkyBand(rec.ReferenceFrequency); b.Known() {
		return b
	}
	if rec.TurnaroundNumerator != 0 && rec.TurnaroundDenominator != 0 {
		ratio := float64(rec.TurnaroundNumerator) / float64(rec.TurnaroundDenominator)
		if b, ok := ExciterBandFromRatio(ratio); ok {
			return b
		}
	}
	return rec.UplinkBand
}

// Reference is a resolved exciter band and sky-level reference frequency.
type Reference struct {
	ExciterBand model.Band
	Frequency   float64
	SkyLevel    bool
}

// ResolveReference resolves the reference frequency of a Doppler or Range
// record. Frequencies not at sky level are recovered through the multiplier
// and transformed with the record's uplink band.
func ResolveReference(rec model.CanonicalRecord) (Reference, error) {
	ref := Reference{ExciterBand: ExciterBand(rec)}
	raw := rec.ReferenceFrequency
	if model.SkyBand(raw) == ref.ExciterBand && ref.ExciterBand.Known() {
		ref.Frequency = raw
		ref.SkyLevel = true
		return ref, nil
	}
	f, err := recoverFrequency(rec, raw, rec.UplinkBand)
	if err != nil {
		return Reference{}, err
	}
	if ref.Frequency, err = SkyFrequency(rec, f, rec.UplinkBand); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// OneWayBias is the frequency bias of a one-way Doppler record:
// M2·f_ref − C2·f_transponder + C4, with f_ref resolved against the
// downlink band.
func OneWayBias(rec model.CanonicalRecord, transponder float64) (float64, error) {
	dl := rec.DownlinkBand
	raw := rec.ReferenceFrequency

	band, ref := rec.UplinkBand, raw
	if model.SkyBand(raw) != dl || !dl.Known() {
		f, err := recoverFrequency(rec, raw, dl)
		if err != nil {
			return 0, err
		}
		band = dl
		// Recovered values above the oscillator are S-band uplink references.
		if f > referenceOscillator {
			band = model.BandS
		}
		if ref, err = SkyFrequency(rec, f, band); err != nil {
			return 0, err
		}
	}

	m2, ok := Turnaround(band, dl)
	if !ok {
		return 0, &model.UnresolvedBandError{RecordContext: contextOf(rec, band), Frequency: ref, Reason: "no turnaround ratio for link"}
	}
	c2, ok := DownlinkFactor(dl)
	if !ok {
		return 0, &model.UnresolvedBandError{RecordContext: contextOf(rec, dl), Frequency: ref, Reason: "no downlink constant"}
	}
	return m2*ref - c2*transponder + rec.DopplerBias, nil
}

// SecondsToRangeUnits is the factor converting seconds to range units for
// an exciter band and reference frequency.
func SecondsToRangeUnits(rec model.CanonicalRecord, band model.Band, freq float64) (float64, error) {
	switch band {
	case model.BandS:
		return 0.5 * freq, nil
	case model.BandX:
		if model.IsHEFStation(rec.Station) && rec.ReceiverType != hefReceiverType {
			return (11.0 / 75.0) * freq, nil
		}
		return (221.0 / 1498.0) * freq, nil
	default:
		return 0, &model.UnresolvedBandError{
			RecordContext: contextOf(rec, band),
			Frequency:     freq,
			Reason:        "no range unit conversion for band",
		}
	}
}

// CorrectModuloReset undoes a wrap of the 32-bit cycle counter.
func CorrectModuloReset(observed, countInterval float64) float64 {
	const modulus = 1 << 32
	if math.RoundToEven(observed*countInterval/modulus) == 0 {
		return observed
	}
	if observed > 0 {
		return observed - modulus/countInterval
	}
	return observed + modulus/countInterval
}

// ResnapCountInterval keeps native when it is one of the configured
// intervals and otherwise uses the last configured one. An empty list keeps
// native.
func ResnapCountInterval(native float64, configured []float64) float64 {
	if len(configured) == 0 || slices.Contains(configured, native) {
		return native
	}
	return configured[len(configured)-1]
}
