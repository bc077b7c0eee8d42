package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrFormat                    = errors.New("atdf format error")
	ErrInvalidReferenceFrequency = errors.New("invalid reference frequency")
	ErrUnresolvedBand            = errors.New("unresolved band")
	ErrInvalidStation            = errors.New("invalid station")
)

// FormatError is fatal: the file or a table does not match the ATDF layout.
type FormatError struct {
	What     string
	Expected any
	Found    any
	Err      error
}

func (e *FormatError) Error() string {
	msg := "atdf format error: " + e.What
	if e.Expected != nil || e.Found != nil {
		msg += fmt.Sprintf(" (expected %v, found %v)", e.Expected, e.Found)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// RecordContext locates a skipped record in warnings.
type RecordContext struct {
	Time    time.Time
	Station int
	Band    Band
}

func (c RecordContext) String() string {
	return fmt.Sprintf("time %s station %d band %s", c.Time.UTC().Format("2006-01-02T15:04:05.000000"), c.Station, c.Band)
}

// InvalidReferenceFrequencyError reports a reference frequency whose
// multiplier rounds to zero.
type InvalidReferenceFrequencyError struct {
	RecordContext
	Frequency float64
}

func (e *InvalidReferenceFrequencyError) Error() string {
	return fmt.Sprintf("invalid reference frequency %.6f Hz at %s", e.Frequency, e.RecordContext)
}

func (e *InvalidReferenceFrequencyError) Unwrap() error { return ErrInvalidReferenceFrequency }

// UnresolvedBandError reports a band without a transform or calibration.
type UnresolvedBandError struct {
	RecordContext
	Frequency float64
	Reason    string
}

func (e *UnresolvedBandError) Error() string {
	return fmt.Sprintf("unresolved band (%s) for frequency %.6f Hz at %s", e.Reason, e.Frequency, e.RecordContext)
}

func (e *UnresolvedBandError) Unwrap() error { return ErrUnresolvedBand }

// InvalidStationError reports a station outside the DSN allowlist.
type InvalidStationError struct {
	RecordContext
}

func (e *InvalidStationError) Error() string {
	return fmt.Sprintf("station %d is not a DSN station (%s)", e.Station, e.RecordContext)
}

func (e *InvalidStationError) Unwrap() error { return ErrInvalidStation }

// SkipReason is a short metric label for a per-record error.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidReferenceFrequency):
		return "invalid_reference_frequency"
	case errors.Is(err, ErrUnresolvedBand):
		return "unresolved_band"
	case errors.Is(err, ErrInvalidStation):
		return "invalid_station"
	case errors.Is(err, ErrFormat):
		return "format"
	default:
		return "other"
	}
}
