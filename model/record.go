package model

import "time"

// Record formats carried in the body discriminator.
const (
	FormatV1 = 4
	FormatV2 = 8
)

// CanonicalRecord is one ATDF tracking record normalised across formats.
// Frequencies are in Hz, delays in seconds unless noted, ranges in range
// units (RU).
type CanonicalRecord struct {
	RecordFormat int
	TimeTag      time.Time
	HighRate     bool

	Station      int
	SpacecraftID int
	UplinkBand   Band
	DownlinkBand Band
	DataType     int
	GroundMode   int
	Channel      int
	RangeType    int
	Conscan      int

	DopplerValid bool
	RangeValid   bool
	SkyLevel     bool

	ReceiverType int
	ExciterType  int

	CountInterval float64
	Counts        [10]float64
	DopplerCount  float64

	Range             float64
	LowRangeComponent int
	UplinkPhase       float64

	ReferenceFrequency    float64
	TurnaroundNumerator   int
	TurnaroundDenominator int
	DopplerBias           float64

	ExciterStationDelay  float64
	ReceiverStationDelay float64
	SpacecraftDelay      float64
	RangeEquipmentDelay  float64 // RU
	ZCorrection          float64

	DopplerResidual float64
	RangeResidual   float64
	DopplerNoise    float64
	RangeNoise      float64
	SlippedCycles   int

	RampController                int
	RampRate                      float64
	RampFrequency                 float64
	TransmitterReferenceFrequency float64
}

// LinkKey identifies a Doppler continuity stream.
type LinkKey struct {
	Station  int
	Uplink   Band
	Downlink Band
}

// Key returns the record's link key.
func (r CanonicalRecord) Key() LinkKey {
	return LinkKey{Station: r.Station, Uplink: r.UplinkBand, Downlink: r.DownlinkBand}
}

// RampKey identifies a ramp stream.
type RampKey struct {
	Station int
	Band    Band
}

// Header is the decoded two-chunk file header.
type Header struct {
	StartEpoch            time.Time
	EndEpoch              time.Time
	SpacecraftID          int
	TransponderFrequency  float64
	IdentificationType    int
	TransponderRecordType int
	Tag                   string
}
