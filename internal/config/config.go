// Package config holds the atdf2ascii run configuration: defaults, an
// optional YAML file and validation. Command-line flags are overlaid by the
// caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"github.com/signalsfoundry/atdf-observables/internal/observability"
	"github.com/signalsfoundry/atdf-observables/model"
)

// Families toggles each observable family.
type Families struct {
	Doppler1Way bool `yaml:"doppler_1way"`
	Doppler2Way bool `yaml:"doppler_2way"`
	Doppler3Way bool `yaml:"doppler_3way"`
	Range1Way   bool `yaml:"range_1way"`
	Range2Way   bool `yaml:"range_2way"`
}

// AllFamilies enables every family.
func AllFamilies() Families {
	return Families{Doppler1Way: true, Doppler2Way: true, Doppler3Way: true, Range1Way: true, Range2Way: true}
}

func (f *Families) toggle(family model.Family) *bool {
	switch family {
	case model.FamilyDoppler1Way:
		return &f.Doppler1Way
	case model.FamilyDoppler2Way:
		return &f.Doppler2Way
	case model.FamilyDoppler3Way:
		return &f.Doppler3Way
	case model.FamilyRange1Way:
		return &f.Range1Way
	case model.FamilyRange2Way:
		return &f.Range2Way
	default:
		return nil
	}
}

// Set enables or disables one family.
func (f *Families) Set(family model.Family, on bool) {
	if p := f.toggle(family); p != nil {
		*p = on
	}
}

// Enabled lists the enabled families in output order.
func (f Families) Enabled() []model.Family {
	var out []model.Family
	for _, family := range model.Families {
		if p := f.toggle(family); p != nil && *p {
			out = append(out, family)
		}
	}
	return out
}

// Metrics configures the Prometheus endpoint and Pushgateway.
type Metrics struct {
	// Addr serves /metrics while the run is in progress when set.
	Addr string `yaml:"addr"`
	// PushURL pushes the final metrics to a Pushgateway when set.
	PushURL string `yaml:"push_url"`
	Job     string `yaml:"job"`
}

// Config is the full run configuration.
type Config struct {
	Input     string `yaml:"input"`
	OutputDir string `yaml:"output_dir"`
	// CountIntervals, when set, resnap Doppler count intervals: a native
	// interval in the list is kept, any other becomes the last entry.
	CountIntervals []float64 `yaml:"count_intervals"`
	// Workers for the decode engine; 0 selects half the CPUs.
	Workers  int                         `yaml:"workers"`
	Families Families                    `yaml:"families"`
	Log      logging.Config              `yaml:"log"`
	Metrics  Metrics                     `yaml:"metrics"`
	Tracing  observability.TracingConfig `yaml:"tracing"`
}

// Default is every family enabled, output next to the working directory
// and logging at info.
func Default() Config {
	return Config{
		OutputDir: ".",
		Families:  AllFamilies(),
		Log:       logging.Config{Level: "info", Format: "text"},
		Metrics:   Metrics{Job: "atdf2ascii"},
		Tracing:   observability.DefaultTracingConfig(),
	}
}

// Parse decodes YAML from r over base. Unknown keys are rejected.
func Parse(r io.Reader, base Config) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	cfg := base
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML file over Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()
	cfg, err := Parse(f, Default())
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	for _, ct := range c.CountIntervals {
		if ct <= 0 {
			return fmt.Errorf("count_intervals must be positive, found %v", ct)
		}
	}
	if len(c.Families.Enabled()) == 0 {
		return fmt.Errorf("at least one observable family must be enabled")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	return nil
}

// ParseCountIntervals parses a comma separated list such as "10,60".
func ParseCountIntervals(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("count interval %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}
