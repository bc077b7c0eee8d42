package kb

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
)

func TestLinkStorePrepopulated(t *testing.T) {
	store := NewLinkStore()
	if got, want := store.Len(), len(model.AllLinkKeys()); got != want {
		t.Fatalf("Len = %d, want %d", got, want)
	}
	key := model.LinkKey{Station: 14, Uplink: model.BandS, Downlink: model.BandX}
	if !store.Has(key) {
		t.Fatalf("expected %v to be pre-populated", key)
	}
	if st := store.Get(key); st.Armed {
		t.Fatalf("fresh state should be empty, got %+v", st)
	}

	odd := model.LinkKey{Station: 99, Uplink: model.BandUnknown}
	if store.Has(odd) {
		t.Fatalf("unexpected entry for %v", odd)
	}
	if st := store.Get(odd); st.Armed {
		t.Fatalf("absent key should read as empty")
	}
}

func TestPutAndResetEmitEvents(t *testing.T) {
	store := NewRampStore()
	var events []Event[model.RampKey]
	unsubscribe := store.Subscribe(func(ev Event[model.RampKey]) {
		events = append(events, ev)
	})

	key := model.RampKey{Station: 63, Band: model.BandX}
	store.Put(key, RampState{Armed: true, Frequency: 7.2e9}, EventArmed)
	if st := store.Get(key); !st.Armed || st.Frequency != 7.2e9 {
		t.Fatalf("Get after Put = %+v", st)
	}
	store.Reset(key)
	if st := store.Get(key); st.Armed {
		t.Fatalf("Get after Reset = %+v", st)
	}

	unsubscribe()
	store.Put(key, RampState{Armed: true}, EventArmed)

	if len(events) != 2 {
		t.Fatalf("events = %v, want 2", events)
	}
	if events[0].Type != EventArmed || events[1].Type != EventReset || events[1].Key != key {
		t.Fatalf("events = %+v", events)
	}
}

func TestEachFollowsInsertionOrder(t *testing.T) {
	keys := []model.RampKey{{Station: 14, Band: model.BandS}, {Station: 12, Band: model.BandX}}
	store := NewStore[model.RampKey, RampState](keys)
	extra := model.RampKey{Station: 99, Band: model.BandKa}
	store.Put(extra, RampState{Armed: true}, EventArmed)

	var got []model.RampKey
	store.Each(func(k model.RampKey, _ RampState) { got = append(got, k) })
	want := append(keys, extra)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Each order = %v, want %v", got, want)
	}
}

func TestConcurrentPut(t *testing.T) {
	store := NewLinkStore()
	var mu sync.Mutex
	count := 0
	store.Subscribe(func(Event[model.LinkKey]) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i, s := range model.DSNStations {
		wg.Add(1)
		go func(i, station int) {
			defer wg.Done()
			key := model.LinkKey{Station: station, Uplink: model.BandS, Downlink: model.BandS}
			store.Put(key, LinkState{Armed: true, ExpectedNext: time.Unix(int64(i), 0)}, EventArmed)
		}(i, s)
	}
	wg.Wait()

	if count != len(model.DSNStations) {
		t.Fatalf("events = %d, want %d", count, len(model.DSNStations))
	}
}
