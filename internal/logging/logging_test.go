package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTextLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf})
	log.With(String("component", "doppler")).Warn(context.Background(), "record skipped",
		Int("station", 14),
		Float64("frequency", 22e6),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"level=WARN", "component=doppler", "station=14", "error=boom", "record skipped"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	log.Error(context.Background(), "shown")
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Fatalf("json output = %q", buf.String())
	}
}

func TestRunLoggerAttachesID(t *testing.T) {
	var buf bytes.Buffer
	ctx, log := WithRunLogger(context.Background(), New(Config{Output: &buf}))

	id := RunIDFromContext(ctx)
	if len(id) != 36 {
		t.Fatalf("run id = %q, want a UUID", id)
	}
	ctx2, id2 := EnsureRunID(ctx)
	if id2 != id || ctx2 != ctx {
		t.Fatalf("EnsureRunID should keep the existing id")
	}

	FromContext(ctx).Info(ctx, "hello")
	if !strings.Contains(buf.String(), "run_id="+id) {
		t.Fatalf("log output %q missing run id", buf.String())
	}
	log.Info(ctx, "again")
	if strings.Count(buf.String(), "run_id="+id) != 2 {
		t.Fatalf("returned logger should carry the run id")
	}
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	FromContext(context.Background()).Info(context.Background(), "dropped")
}
