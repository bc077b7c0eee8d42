package core

import (
	"sort"
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
)

// ThreeWayResolver finds the ramp that was transmitting on a band at a
// given time. It is built once, after every ramp has been closed.
type ThreeWayResolver struct {
	byBand map[model.Band][]indexedRamp
}

// indexedRamp keeps the position of a ramp in the order it was emitted.
type indexedRamp struct {
	model.RampObservable
	seq int
}

// NewThreeWayResolver indexes ramps per band by start time. Ramps are
// numbered in argument order, closed ramps before final ones.
func NewThreeWayResolver(ramps ...[]model.RampObservable) *ThreeWayResolver {
	r := &ThreeWayResolver{byBand: make(map[model.Band][]indexedRamp)}
	seq := 0
	for _, set := range ramps {
		for _, ramp := range set {
			r.byBand[ramp.Band] = append(r.byBand[ramp.Band], indexedRamp{RampObservable: ramp, seq: seq})
			seq++
		}
	}
	for _, list := range r.byBand {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
	}
	return r
}

// Len is the number of indexed ramps.
func (r *ThreeWayResolver) Len() int {
	n := 0
	for _, list := range r.byBand {
		n += len(list)
	}
	return n
}

// Resolve returns the ramp on band whose interval contains t, ignoring ramps
// of station receiver. When several overlap, the earliest emitted wins.
// Pass a receiver of 0 to consider every station.
func (r *ThreeWayResolver) Resolve(t time.Time, band model.Band, receiver int) (model.RampObservable, bool) {
	if r == nil {
		return model.RampObservable{}, false
	}
	list := r.byBand[band]
	// Index of the first ramp starting after t.
	i := sort.Search(len(list), func(i int) bool { return list[i].Start.After(t) })
	best := -1
	for i--; i >= 0; i-- {
		cand := list[i]
		if cand.Station == receiver || !cand.Contains(t) {
			continue
		}
		if best < 0 || cand.seq < list[best].seq {
			best = i
		}
	}
	if best < 0 {
		return model.RampObservable{}, false
	}
	return list[best].RampObservable, true
}
