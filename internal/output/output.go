// Package output writes observables as fixed-width ASCII tables and reads
// ramp tables back.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/signalsfoundry/atdf-observables/model"
	"github.com/signalsfoundry/atdf-observables/timetag"
)

// File extensions of the two output tables.
const (
	MeasurementExt = ".msr"
	RampExt        = ".ramp"
)

const (
	observableHeaderFormat = "%s %25s, %15s, %5s, %10s, %10s, %5s, %5s, %5s, %5s, %10s, %10s, %25s, %25s, %15s, %15s, %15s\n"
	observableRowFormat    = "%27s, %15s, %5s, %10s, %10s, %5s, %5s, %5s, %5s, %10s, %10s, %25.10f, %25.10f, %15.6f, %15.6f, %15.6f\n"
	rampHeaderFormat       = "%s %25s, %30s, %10s, %5s, %25s, %15s\n"
	rampRowFormat          = "%27s, %30s, %10s, %5s, %25.10f, %15.6f\n"
)

// Paths returns the measurement and ramp table paths for an input file.
func Paths(outDir, input string) (msr, ramp string) {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, stem+MeasurementExt), filepath.Join(outDir, stem+RampExt)
}

// FormatCountInterval prints a count interval the way the tables always
// have: shortest form, with a trailing ".0" on whole seconds.
func FormatCountInterval(ct float64) string {
	s := strconv.FormatFloat(ct, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type tableWriter struct {
	w   io.Writer
	err error
}

func (t *tableWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *tableWriter) observableHeader(f model.Family) {
	t.printf(observableHeaderFormat,
		"#", "time_tag (UTC)", "Data Type", "scID", "Xmtr", "Rcvr", "Chnl", "UL", "DL", "Ex", "CT (sec)",
		"Rng-LC", "Observed ("+f.Unit()+")", "Ref-Freq (Hz)", "XmtrDly (nsec)", "RcvrDly (nsec)", "ScDly (nsec)")
}

func (t *tableWriter) observable(o model.Observable) {
	t.printf(observableRowFormat,
		timetag.Format(o.TimeTag),
		o.Family.String(),
		strconv.Itoa(o.SpacecraftID),
		o.Transmitter,
		o.Receiver,
		strconv.Itoa(o.Channel),
		o.UplinkBand.String(),
		o.DownlinkBand.String(),
		o.ExciterBand.String(),
		FormatCountInterval(o.CountInterval),
		strconv.Itoa(o.LowRangeComponent),
		o.Observed,
		o.ReferenceFrequency,
		o.TransmitterDelay,
		o.ReceiverDelay,
		o.SpacecraftDelay,
	)
}

// WriteFamily writes one family block: a header line then one row per
// observable. An empty family writes nothing.
func WriteFamily(w io.Writer, family model.Family, obs []model.Observable) error {
	if len(obs) == 0 {
		return nil
	}
	t := &tableWriter{w: w}
	t.observableHeader(family)
	for _, o := range obs {
		t.observable(o)
	}
	return t.err
}

// WriteMeasurements writes the blocks of families in order.
func WriteMeasurements(w io.Writer, families []model.Family, obs map[model.Family][]model.Observable) error {
	for _, f := range families {
		if err := WriteFamily(w, f, obs[f]); err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
	}
	return nil
}

// WriteRamps writes the ramp table with closed ramps first and final ramps
// last, so a reader can drop the finals by count.
func WriteRamps(w io.Writer, ramps, final []model.RampObservable) error {
	if len(ramps)+len(final) == 0 {
		return nil
	}
	t := &tableWriter{w: w}
	t.printf(rampHeaderFormat, "#", "Start-Time", "End-Time", "Station", "Band", "Frequency (Hz)", "Rate (Hz/sec)")
	for _, set := range [][]model.RampObservable{ramps, final} {
		for _, r := range set {
			t.printf(rampRowFormat,
				timetag.Format(r.Start),
				timetag.Format(r.End),
				model.StationLabel(r.Station),
				r.Band.String(),
				r.Frequency,
				r.Rate,
			)
		}
	}
	return t.err
}

// ReadRampTable parses a table written by WriteRamps. The last
// excludeFinal rows are dropped; pass the final-ramp count of the run that
// wrote the table to read back only ramps closed by a successor.
func ReadRampTable(r io.Reader, excludeFinal int) ([]model.RampObservable, error) {
	var out []model.RampObservable
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ramp, err := parseRampRow(text)
		if err != nil {
			return nil, fmt.Errorf("ramp table line %d: %w", line, err)
		}
		out = append(out, ramp)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ramp table: %w", err)
	}
	if excludeFinal > 0 {
		out = out[:max(0, len(out)-excludeFinal)]
	}
	return out, nil
}

func parseRampRow(text string) (model.RampObservable, error) {
	cols := strings.Split(text, ",")
	if len(cols) != 6 {
		return model.RampObservable{}, fmt.Errorf("want 6 columns, found %d", len(cols))
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	start, err := timetag.Parse(cols[0])
	if err != nil {
		return model.RampObservable{}, fmt.Errorf("start time: %w", err)
	}
	end, err := timetag.Parse(cols[1])
	if err != nil {
		return model.RampObservable{}, fmt.Errorf("end time: %w", err)
	}
	station, ok := model.ParseStationLabel(cols[2])
	if !ok {
		return model.RampObservable{}, fmt.Errorf("station %q: not a DSS label", cols[2])
	}
	freq, err := strconv.ParseFloat(cols[4], 64)
	if err != nil {
		return model.RampObservable{}, fmt.Errorf("frequency: %w", err)
	}
	rate, err := strconv.ParseFloat(cols[5], 64)
	if err != nil {
		return model.RampObservable{}, fmt.Errorf("rate: %w", err)
	}
	return model.RampObservable{
		Start:     start,
		End:       end,
		Station:   station,
		Band:      model.ParseBand(cols[3]),
		Frequency: freq,
		Rate:      rate,
	}, nil
}

// CreateFile creates path and its parent directory, returning a buffered
// writer and a close function that flushes first.
func CreateFile(path string) (*bufio.Writer, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	bw := bufio.NewWriter(f)
	closeFn := func() error {
		if err := bw.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return bw, closeFn, nil
}
