package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/atdf-observables/core"
	"github.com/signalsfoundry/atdf-observables/internal/config"
	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/internal/observability"
	"github.com/signalsfoundry/atdf-observables/internal/output"
	"github.com/signalsfoundry/atdf-observables/internal/report"
	"github.com/signalsfoundry/atdf-observables/internal/source"
	"github.com/signalsfoundry/atdf-observables/model"
)

const usage = `usage: atdf2ascii [flags] <file.atdf>

Converts a DSN TRK-2-25 (ATDF) tracking file into calibrated Doppler and
range observables (<stem>.msr) and uplink ramps (<stem>.ramp).

`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// excludeFlags maps each family toggle flag to its family.
var excludeFlags = []struct {
	name   string
	family model.Family
}{
	{"xd1", model.FamilyDoppler1Way},
	{"xd2", model.FamilyDoppler2Way},
	{"xd3", model.FamilyDoppler3Way},
	{"xr1", model.FamilyRange1Way},
	{"xr2", model.FamilyRange2Way},
}

// run returns the process exit code: 0 on success, 1 on a failed run and 2
// on bad usage.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "atdf2ascii: %v\n", err)
		return 2
	}

	if cfg.Log.Output == nil {
		cfg.Log.Output = stderr
	}
	ctx, log := logging.WithRunLogger(ctx, logging.New(cfg.Log))

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	collector, err := observability.NewPipelineCollector(reg)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		return 1
	}
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(ctx, cfg.Metrics.Addr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := convert(ctx, cfg, collector, log); err != nil {
		log.Error(ctx, "conversion failed", logging.String("input", cfg.Input), logging.Err(err))
		return 1
	}

	if cfg.Metrics.PushURL != "" {
		grouping := map[string]string{"run_id": logging.RunIDFromContext(ctx)}
		if err := collector.Push(ctx, cfg.Metrics.PushURL, cfg.Metrics.Job, grouping); err != nil {
			log.Warn(ctx, "failed to push metrics", logging.String("url", cfg.Metrics.PushURL), logging.Err(err))
		}
	}
	return 0
}

// parseConfig layers defaults, the optional YAML file, the environment and
// finally any flag the user set explicitly.
func parseConfig(args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("atdf2ascii", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "optional YAML configuration file")
	outDir := fs.String("o", ".", "output directory for the .msr and .ramp tables")
	intervals := fs.String("c", "", "comma separated Doppler count intervals in seconds, e.g. 10,60")
	workers := fs.Int("workers", 0, "decode workers (0 = half the CPUs)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP address for Prometheus /metrics while running")
	pushURL := fs.String("push-url", "", "Prometheus Pushgateway URL for the final metrics")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn or error")
	logFormat := fs.String("log-format", "text", "log format: text or json")
	tracing := fs.Bool("tracing", false, "export pipeline spans")
	exclude := make(map[string]*bool, len(excludeFlags))
	for _, x := range excludeFlags {
		exclude[x.name] = fs.Bool(x.name, false, "exclude "+x.family.String()+" observables")
	}

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.Log = logging.ConfigFromEnv(cfg.Log)
	cfg.Tracing = observability.TracingConfigFromEnv(cfg.Tracing)

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.OutputDir = *outDir
		case "c":
			list, err := config.ParseCountIntervals(*intervals)
			if err != nil {
				flagErr = err
				return
			}
			cfg.CountIntervals = list
		case "workers":
			cfg.Workers = *workers
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "push-url":
			cfg.Metrics.PushURL = *pushURL
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "tracing":
			cfg.Tracing.Enabled = *tracing
		}
	})
	if flagErr != nil {
		return config.Config{}, flagErr
	}
	for _, x := range excludeFlags {
		if *exclude[x.name] {
			cfg.Families.Set(x.family, false)
		}
	}

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Input = fs.Arg(0)
	default:
		return config.Config{}, fmt.Errorf("expected one input file, found %d", fs.NArg())
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// convert reads the input, runs the pipeline and writes both tables.
func convert(ctx context.Context, cfg config.Config, metrics core.MetricsRecorder, log logging.Logger) error {
	chunks, comp, err := source.ReadFile(cfg.Input)
	if err != nil {
		return err
	}
	if chunks.Partial > 0 {
		log.Warn(ctx, "ignoring trailing partial chunk",
			logging.String("input", cfg.Input),
			logging.Int("bytes", chunks.Partial),
		)
	}
	log.Debug(ctx, "read input",
		logging.String("input", cfg.Input),
		logging.String("compression", comp.String()),
		logging.Int("chunks", len(chunks.Blocks)),
	)

	families := cfg.Families.Enabled()
	pipeline := core.NewPipeline(core.PipelineConfig{
		Workers:        cfg.Workers,
		CountIntervals: cfg.CountIntervals,
		Families:       families,
	}, log, metrics)

	started := time.Now()
	res, err := pipeline.Run(ctx, chunks.Blocks)
	if err != nil {
		return err
	}

	log.Info(ctx, "decoded tracking file",
		logging.String("input", cfg.Input),
		logging.Int("format", res.Format),
		logging.Int("spacecraft_id", res.Header.SpacecraftID),
		logging.Float64("transponder_hz", res.Header.TransponderFrequency),
		logging.Time("start", res.Span.Start),
		logging.Time("end", res.Span.End),
		logging.Any("count_intervals", cfg.CountIntervals),
		logging.Any("families", familyNames(families)),
		logging.Int("chunks", res.Chunks),
		logging.Int("padding_chunks", res.Trimmed),
		logging.Int("decode_failures", res.DecodeFailed),
	)
	for stream, n := range res.Skipped {
		if n > 0 {
			log.Warn(ctx, "records skipped", logging.String("stream", stream.String()), logging.Int("count", n))
		}
	}

	msrPath, rampPath := output.Paths(cfg.OutputDir, cfg.Input)
	if err := writeTable(msrPath, func(w io.Writer) error {
		return output.WriteMeasurements(w, res.Families, res.Observables)
	}); err != nil {
		return err
	}
	if err := writeTable(rampPath, func(w io.Writer) error {
		return output.WriteRamps(w, res.Ramps, res.FinalRamps)
	}); err != nil {
		return err
	}

	report.Summarize(res.Families, res.Observables, res.Ramps, res.FinalRamps).Log(ctx, log)
	log.Info(ctx, "wrote output",
		logging.String("measurements", msrPath),
		logging.String("ramps", rampPath),
		logging.Int("final_ramps", len(res.FinalRamps)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func writeTable(path string, write func(io.Writer) error) error {
	w, closeFn, err := output.CreateFile(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(w); err != nil {
		_ = closeFn()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func familyNames(families []model.Family) []string {
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.String()
	}
	return names
}

func serveMetrics(ctx context.Context, addr string, collector *observability.PipelineCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(ctx, "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
