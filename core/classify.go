package core

import "github.com/signalsfoundry/atdf-observables/model"

// Data types and ground modes that select a stream.
const (
	dataTypeDopplerOneWay = 1
	dataTypeDopplerTwoWay = 2
	dataTypeRange         = 5
	dataTypeRamp          = 6

	groundModeRamp     = 0
	groundModeOneWay   = 1
	groundModeTwoWay   = 2
	groundModeThreeWay = 3
	groundModeRange1   = 5
	groundModeRange2   = 6
)

// Classify routes a record into exactly one stream. Records that match no
// stream return false and are dropped by callers.
func Classify(rec model.CanonicalRecord) (model.Stream, bool) {
	switch rec.DataType {
	case dataTypeRamp:
		if rec.GroundMode == groundModeRamp {
			return model.StreamRamp, true
		}
	case dataTypeDopplerOneWay, dataTypeDopplerTwoWay:
		if !rec.DopplerValid {
			return 0, false
		}
		switch rec.GroundMode {
		case groundModeOneWay:
			return model.StreamDoppler1Way, true
		case groundModeTwoWay:
			return model.StreamDoppler2Way, true
		case groundModeThreeWay:
			return model.StreamDoppler3Way, true
		}
	case dataTypeRange:
		if !rec.RangeValid {
			return 0, false
		}
		switch rec.GroundMode {
		case groundModeRange1:
			return model.StreamRange1Way, true
		case groundModeRange2:
			return model.StreamRange2Way, true
		}
	}
	return 0, false
}
