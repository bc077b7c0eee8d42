package model

import "time"

// Family is an observable type.
type Family int

const (
	FamilyDoppler1Way Family = iota
	FamilyDoppler2Way
	FamilyDoppler3Way
	FamilyRange1Way
	FamilyRange2Way
)

// Families lists every family in output order.
var Families = []Family{FamilyDoppler1Way, FamilyDoppler2Way, FamilyDoppler3Way, FamilyRange1Way, FamilyRange2Way}

func (f Family) String() string {
	switch f {
	case FamilyDoppler1Way:
		return "1-Way-Doppler"
	case FamilyDoppler2Way:
		return "2-Way-Doppler"
	case FamilyDoppler3Way:
		return "3-Way-Doppler"
	case FamilyRange1Way:
		return "1-Way-Range"
	case FamilyRange2Way:
		return "2-Way-Range"
	default:
		return "unknown"
	}
}

// IsDoppler reports Doppler families.
func (f Family) IsDoppler() bool { return f <= FamilyDoppler3Way }

// Ways is 1, 2 or 3.
func (f Family) Ways() int {
	switch f {
	case FamilyDoppler1Way, FamilyRange1Way:
		return 1
	case FamilyDoppler2Way, FamilyRange2Way:
		return 2
	default:
		return 3
	}
}

// Unit of the observed column.
func (f Family) Unit() string {
	if f.IsDoppler() {
		return "Hz"
	}
	return "RU"
}

// Stream is a classifier output bucket.
type Stream int

const (
	StreamRamp Stream = iota
	StreamDoppler1Way
	StreamDoppler2Way
	StreamDoppler3Way
	StreamRange1Way
	StreamRange2Way

	StreamCount = iota
)

func (s Stream) String() string {
	if s == StreamRamp {
		return "ramp"
	}
	if f, ok := s.Family(); ok {
		return f.String()
	}
	return "unknown"
}

// Family maps an observable stream to its family; the ramp stream has none.
func (s Stream) Family() (Family, bool) {
	if s <= StreamRamp || s >= StreamCount {
		return 0, false
	}
	return Family(s - StreamDoppler1Way), true
}

// StreamOf is the inverse of Stream.Family.
func StreamOf(f Family) Stream { return Stream(f) + StreamDoppler1Way }

// Observable is one calibrated Doppler or Range measurement. Delays are in
// nanoseconds.
type Observable struct {
	TimeTag            time.Time
	Family             Family
	SpacecraftID       int
	Transmitter        string
	Receiver           string
	Channel            int
	UplinkBand         Band
	DownlinkBand       Band
	ExciterBand        Band
	CountInterval      float64
	LowRangeComponent  int
	Observed           float64
	ReferenceFrequency float64
	TransmitterDelay   float64
	ReceiverDelay      float64
	SpacecraftDelay    float64
}

// RampObservable is a constant-rate uplink frequency interval.
type RampObservable struct {
	Start     time.Time
	End       time.Time
	Station   int
	Band      Band
	Frequency float64
	Rate      float64
	// Final marks ramps closed at the end epoch rather than by a successor.
	Final bool
}

// Contains reports whether t lies within [Start, End].
func (r RampObservable) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
