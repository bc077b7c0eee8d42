// Package report summarises a pipeline run for the log.
package report

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/model"
)

// FamilySummary describes the observables of one family.
type FamilySummary struct {
	Family   model.Family
	Count    int
	First    time.Time
	Last     time.Time
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	Stations []int
}

// RampSummary describes the ramp table.
type RampSummary struct {
	Count    int
	Final    int
	Stations []int
	// MaxRate is the largest absolute ramp rate in Hz/s.
	MaxRate float64
}

// Summary of one run.
type Summary struct {
	Families []FamilySummary
	Ramps    RampSummary
}

// Summarize computes per-family statistics of the observed column. Families
// without observables are reported with a zero count.
func Summarize(families []model.Family, obs map[model.Family][]model.Observable, ramps, final []model.RampObservable) Summary {
	var s Summary
	for _, f := range families {
		s.Families = append(s.Families, summarizeFamily(f, obs[f]))
	}
	s.Ramps = summarizeRamps(ramps, final)
	return s
}

func summarizeFamily(f model.Family, obs []model.Observable) FamilySummary {
	fs := FamilySummary{Family: f, Count: len(obs)}
	if len(obs) == 0 {
		return fs
	}
	values := make([]float64, len(obs))
	stations := map[int]struct{}{}
	fs.First, fs.Last = obs[0].TimeTag, obs[0].TimeTag
	for i, o := range obs {
		values[i] = o.Observed
		if o.TimeTag.Before(fs.First) {
			fs.First = o.TimeTag
		}
		if o.TimeTag.After(fs.Last) {
			fs.Last = o.TimeTag
		}
		if st, ok := model.ParseStationLabel(o.Receiver); ok {
			stations[st] = struct{}{}
		}
	}
	fs.Mean, fs.StdDev = stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		fs.StdDev = 0
	}
	fs.Min = floats.Min(values)
	fs.Max = floats.Max(values)
	fs.Stations = sortedKeys(stations)
	return fs
}

func summarizeRamps(ramps, final []model.RampObservable) RampSummary {
	rs := RampSummary{Count: len(ramps) + len(final), Final: len(final)}
	if rs.Count == 0 {
		return rs
	}
	rates := make([]float64, 0, rs.Count)
	stations := map[int]struct{}{}
	for _, set := range [][]model.RampObservable{ramps, final} {
		for _, r := range set {
			rates = append(rates, r.Rate)
			stations[r.Station] = struct{}{}
		}
	}
	rs.MaxRate = max(floats.Max(rates), -floats.Min(rates))
	rs.Stations = sortedKeys(stations)
	return rs
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Log writes one line per non-empty family and one for the ramps.
func (s Summary) Log(ctx context.Context, log logging.Logger) {
	for _, f := range s.Families {
		if f.Count == 0 {
			log.Debug(ctx, "no observables", logging.String("family", f.Family.String()))
			continue
		}
		log.Info(ctx, "observables",
			logging.String("family", f.Family.String()),
			logging.Int("count", f.Count),
			logging.Time("first", f.First),
			logging.Time("last", f.Last),
			logging.Float64("mean", f.Mean),
			logging.Float64("stddev", f.StdDev),
			logging.Float64("min", f.Min),
			logging.Float64("max", f.Max),
			logging.Any("stations", f.Stations),
		)
	}
	log.Info(ctx, "ramps",
		logging.Int("count", s.Ramps.Count),
		logging.Int("final", s.Ramps.Final),
		logging.Float64("max_rate_hz_s", s.Ramps.MaxRate),
		logging.Any("stations", s.Ramps.Stations),
	)
}
