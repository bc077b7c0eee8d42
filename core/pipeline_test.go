package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/schema"
)

func rampItems(at time.Time) map[int]int64 {
	items := v2Items(at, 14, 6, 0)
	items[121] = 500000  // rate 0.5 Hz/s
	items[123] = 2100000 // 2.1 GHz
	return items
}

func TestPipelineSingleRamp(t *testing.T) {
	chunks := headerChunksFor(t)
	chunks = append(chunks,
		encodeV2(t, rampItems(epoch)),
		encodeV2(t, rampItems(epoch.Add(10*time.Minute))),
	)

	res, err := NewPipeline(PipelineConfig{Workers: 2}, nil, nil).Run(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Format != model.FormatV2 || res.Header.SpacecraftID != 99 {
		t.Fatalf("format %d header %+v", res.Format, res.Header)
	}
	if len(res.Ramps) != 1 || len(res.FinalRamps) != 0 {
		t.Fatalf("ramps = %+v final = %+v", res.Ramps, res.FinalRamps)
	}
	want := model.RampObservable{
		Start:     epoch,
		End:       epoch.Add(10 * time.Minute),
		Station:   14,
		Band:      model.BandS,
		Frequency: 2100000000.0,
		Rate:      0.5,
	}
	if got := res.Ramps[0]; !got.Start.Equal(want.Start) || !got.End.Equal(want.End) ||
		got.Station != want.Station || got.Band != want.Band || got.Frequency != want.Frequency || got.Rate != want.Rate {
		t.Fatalf("ramp = %+v, want %+v", got, want)
	}
	if !res.Span.End.Equal(want.End) {
		t.Fatalf("span = %+v", res.Span)
	}
}

func TestPipelineMixedStreams(t *testing.T) {
	doppler := func(at time.Time, count int64) []byte {
		items := v2Items(at, 43, 2, 2)
		items[29] = 1000 // 10 s
		items[31] = count / 10
		items[43] = 2100000
		return encodeV2(t, items)
	}
	rng := v2Items(epoch.Add(5*time.Second), 63, 5, 6)
	rng[33] = 0
	rng[34] = 50000 // 500000 RU
	rng[43] = 2100000

	chunks := headerChunksFor(t)
	chunks = append(chunks,
		encodeV2(t, rampItems(epoch)),
		doppler(epoch, 1000),
		encodeV2(t, rng),
		doppler(epoch.Add(10*time.Second), 1100),
		make([]byte, schema.ChunkSize),
	)

	families := []model.Family{model.FamilyDoppler2Way, model.FamilyRange2Way}
	res, err := NewPipeline(PipelineConfig{Workers: 3, Families: families}, nil, nil).Run(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Trimmed != 1 {
		t.Fatalf("Trimmed = %d, want 1", res.Trimmed)
	}
	dop := res.Observables[model.FamilyDoppler2Way]
	if len(dop) != 1 || dop[0].Observed != 10 {
		t.Fatalf("doppler observables = %+v", dop)
	}
	rngObs := res.Observables[model.FamilyRange2Way]
	if len(rngObs) != 1 || rngObs[0].Observed != 500000 {
		t.Fatalf("range observables = %+v", rngObs)
	}
	if _, ok := res.Observables[model.FamilyDoppler1Way]; ok {
		t.Fatalf("disabled family extracted")
	}
	// The lone ramp is closed at the last observed body record.
	if len(res.FinalRamps) != 1 || !res.FinalRamps[0].End.Equal(epoch.Add(10*time.Second)) {
		t.Fatalf("final ramps = %+v", res.FinalRamps)
	}
	if res.Classified[model.StreamDoppler2Way] != 2 || res.Classified[model.StreamRamp] != 1 {
		t.Fatalf("classified = %v", res.Classified)
	}
}

func TestPipelineFormatErrors(t *testing.T) {
	ctx := context.Background()
	p := NewPipeline(PipelineConfig{Workers: 1}, nil, nil)

	if _, err := p.Run(ctx, headerChunksFor(t)); !errors.Is(err, model.ErrFormat) {
		t.Fatalf("header-only error = %v, want format error", err)
	}

	bad := headerChunksFor(t)
	bad[0] = make([]byte, schema.ChunkSize)
	bad = append(bad, encodeV2(t, rampItems(epoch)))
	if _, err := p.Run(ctx, bad); !errors.Is(err, model.ErrFormat) {
		t.Fatalf("bad header error = %v, want format error", err)
	}

	unknown := rampItems(epoch)
	unknown[1] = 5
	chunks := append(headerChunksFor(t), encodeV2(t, unknown))
	var fe *model.FormatError
	if _, err := p.Run(ctx, chunks); !errors.As(err, &fe) || fe.Found != 5 {
		t.Fatalf("discriminator error = %v", err)
	}
}
