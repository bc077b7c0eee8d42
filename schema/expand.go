package schema

import (
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
)

const (
	highRateSamples  = 10
	highRateInterval = 100 * time.Millisecond
)

// Expand splits a high-rate Doppler record into its ten 0.1 s samples. Every
// other record passes through with count 1 as its Doppler count.
func Expand(rec model.CanonicalRecord) []model.CanonicalRecord {
	return AppendExpanded(nil, rec)
}

// AppendExpanded is Expand appending into dst.
func AppendExpanded(dst []model.CanonicalRecord, rec model.CanonicalRecord) []model.CanonicalRecord {
	if !rec.HighRate || rec.DataType != 1 {
		rec.DopplerCount = rec.Counts[0]
		return append(dst, rec)
	}
	for i := 0; i < highRateSamples; i++ {
		sub := rec
		sub.TimeTag = rec.TimeTag.Add(time.Duration(i) * highRateInterval)
		sub.CountInterval = highRateInterval.Seconds()
		sub.DopplerCount = rec.Counts[i]
		dst = append(dst, sub)
	}
	return dst
}
