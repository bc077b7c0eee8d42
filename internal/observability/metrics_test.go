package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/signalsfoundry/atdf-observables/model"
)

func TestCollectorRecordsPipelineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}

	collector.ChunkDecoded()
	collector.ChunkDecoded()
	collector.DecodeFailed()
	collector.RecordClassified(model.StreamRamp)
	collector.ObservableEmitted(model.FamilyDoppler2Way)
	collector.RampEmitted(true)
	collector.RecordSkipped(model.StreamDoppler1Way, "unresolved_band")
	collector.LinkReset(model.StreamDoppler2Way)
	collector.ObserveStage("decode", 20*time.Millisecond)

	if got := testutil.ToFloat64(collector.ChunksDecoded); got != 2 {
		t.Fatalf("atdf_chunks_decoded_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.DecodeFailures); got != 1 {
		t.Fatalf("atdf_decode_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.RecordsClassified.WithLabelValues("ramp")); got != 1 {
		t.Fatalf("atdf_records_classified_total{stream=ramp} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ObservablesEmitted.WithLabelValues("2-Way-Doppler")); got != 1 {
		t.Fatalf("atdf_observables_emitted_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.RampsEmitted.WithLabelValues("true")); got != 1 {
		t.Fatalf("atdf_ramps_emitted_total{final=true} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.RecordsSkipped.WithLabelValues("1-Way-Doppler", "unresolved_band")); got != 1 {
		t.Fatalf("atdf_records_skipped_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.LinkResets.WithLabelValues("2-Way-Doppler")); got != 1 {
		t.Fatalf("atdf_link_resets_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "atdf_stage_duration_seconds", map[string]string{"stage": "decode"}); count != 1 {
		t.Fatalf("atdf_stage_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("first NewPipelineCollector: %v", err)
	}
	second, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("second NewPipelineCollector: %v", err)
	}
	first.ChunkDecoded()
	if got := testutil.ToFloat64(second.ChunksDecoded); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *PipelineCollector
	c.ChunkDecoded()
	c.RecordSkipped(model.StreamRamp, "x")
	c.ObserveStage("x", time.Second)
	if err := c.Push(context.Background(), "http://localhost", "job", nil); err == nil {
		t.Fatalf("Push on nil collector should fail")
	}
}

func TestMetricsHandlerExposesPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}
	collector.ChunkDecoded()
	collector.ObservableEmitted(model.FamilyRange1Way)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{"atdf_chunks_decoded_total", "atdf_observables_emitted_total", `family="1-Way-Range"`} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestPushSendsToGateway(t *testing.T) {
	var path, body string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}
	collector.ChunkDecoded()

	if err := collector.Push(context.Background(), gw.URL, "atdf2ascii", map[string]string{"run_id": "abc"}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !strings.Contains(path, "/job/atdf2ascii") || !strings.Contains(path, "/run_id/abc") {
		t.Fatalf("push path = %q", path)
	}
	if body == "" {
		t.Fatalf("push body should not be empty")
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
