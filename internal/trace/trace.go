// Package trace synthesizes the deterministic input traces for the named
// scenario cases. The traces are functional test signals in the observation
// schema, not physical simulation claims.
package trace

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"ssslverify/internal/fault"
	"ssslverify/internal/observe"
)

// Smoke writes the smoke-test trace: 10 ramp-up samples, 6 plateau samples,
// one sharp drop with the discharge flag set, then 8 ramp-up samples.
func Smoke(outCSV string) error {
	type row struct {
		t, e float64
		d    int
	}
	var rows []row

	t, v := 0.0, 0.0
	for i := 0; i < 10; i++ {
		rows = append(rows, row{t, v, 0})
		t++
		v += 0.08
	}
	for i := 0; i < 6; i++ {
		rows = append(rows, row{t, v, 0})
		t++
	}
	v = math.Max(0, v-0.6)
	rows = append(rows, row{t, v, 1})
	t++
	for i := 0; i < 8; i++ {
		rows = append(rows, row{t, v, 0})
		t++
		v += 0.07
	}

	return writeCSV(outCSV, func(w *csv.Writer) error {
		for _, r := range rows {
			if err := w.Write([]string{g12(r.t), g12(r.e), strconv.Itoa(r.d)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// MechVibration writes a mechanical vibration envelope trace over n samples
// at step dt: quiescent, ramp-up, plateau with sub-eps ripple, a single
// shock sample with the discharge flag, then recovery. n is floored at 10.
func MechVibration(outCSV string, n int, dt float64) error {
	if n < 10 {
		n = 10
	}
	return writeCSV(outCSV, func(w *csv.Writer) error {
		for i := 0; i < n; i++ {
			ts := round6(float64(i) * dt)
			discharge := 0
			var e float64
			switch {
			case i <= 7:
				e = 0.03 + 0.001*math.Sin(2*math.Pi*float64(i)/8.0)
			case i <= 25:
				r := float64(i-8) / float64(25-8)
				e = 0.06 + 0.68*r
			case i <= 40:
				e = 0.74 + 0.008*math.Sin(2*math.Pi*float64(i-26)/10.0)
			case i == 41:
				discharge = 1
				e = 0.32
			case i <= 50:
				r := float64(i-42) / float64(50-42)
				e = 0.34 + 0.40*r
			default:
				e = 0.74 + 0.007*math.Sin(2*math.Pi*float64(i-51)/8.0)
			}
			e = clamp(e, 0, 1)
			if err := w.Write([]string{gShort(ts), gShort(round6(e)), strconv.Itoa(discharge)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// FluidPressure writes a fluid pressure trace over n samples at step dt:
// idle, pump ramp, regulated plateau, a valve-release sample with the
// discharge flag, then recovery. n is floored at 10.
func FluidPressure(outCSV string, n int, dt float64) error {
	if n < 10 {
		n = 10
	}
	return writeCSV(outCSV, func(w *csv.Writer) error {
		for i := 0; i < n; i++ {
			ts := round6(float64(i) * dt)
			discharge := 0
			var e float64
			switch {
			case i <= 9:
				e = 0.04 + 0.001*math.Sin(2*math.Pi*float64(i)/10.0)
			case i <= 30:
				r := float64(i-10) / float64(30-10)
				e = 0.06 + 0.70*r
			case i <= 48:
				e = 0.75 + 0.009*math.Sin(2*math.Pi*float64(i-31)/12.0)
			case i == 49:
				discharge = 1
				e = 0.28
			case i <= 60:
				r := float64(i-50) / float64(60-50)
				e = 0.30 + 0.45*r
			default:
				e = 0.75 + 0.008*math.Sin(2*math.Pi*float64(i-61)/9.0)
			}
			e = clamp(e, 0, 1)
			if err := w.Write([]string{gShort(ts), gShort(round6(e)), strconv.Itoa(discharge)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Seismic projects an earthquake catalog into the observation schema: the
// ordered row index becomes t_s, the magnitude column becomes E_proxy, and
// the discharge flag marks magnitudes at or above threshold.
func Seismic(inCSV, outCSV, magCol string, threshold float64) error {
	f, err := os.Open(inCSV)
	if err != nil {
		if os.IsNotExist(err) {
			return &fault.MissingArtifact{Path: inCSV}
		}
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return &fault.ValidationError{Source: inCSV, Reason: "missing CSV header"}
	}
	magIdx := -1
	for i, name := range header {
		if name == magCol {
			magIdx = i
		}
	}
	if magIdx < 0 {
		return &fault.ValidationError{Source: inCSV, Reason: "magnitude column not found: " + magCol}
	}

	records, err := r.ReadAll()
	if err != nil {
		return &fault.ValidationError{Source: inCSV, Reason: err.Error()}
	}

	return writeCSV(outCSV, func(w *csv.Writer) error {
		for i, rec := range records {
			mag, err := strconv.ParseFloat(rec[magIdx], 64)
			if err != nil {
				return &fault.ValidationError{Source: inCSV, Line: i + 2, Reason: "magnitude is not a number: " + rec[magIdx]}
			}
			discharge := 0
			if mag >= threshold {
				discharge = 1
			}
			if err := w.Write([]string{strconv.Itoa(i), gShort(mag), strconv.Itoa(discharge)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// NegativeControl writes the synthetic abstain trace: alternating magnitude
// 1,0,1,0,... with the discharge flag on every third sample. The high churn
// and depressed S dwell make any sane threshold set abstain.
func NegativeControl(outCSV string, n int) error {
	return writeCSV(outCSV, func(w *csv.Writer) error {
		for i := 0; i < n; i++ {
			e := "0.0"
			if i%2 == 0 {
				e = "1.0"
			}
			d := "0"
			if i%3 == 0 {
				d = "1"
			}
			if err := w.Write([]string{strconv.Itoa(i), e, d}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, body func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(observe.Header); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func g12(v float64) string    { return strconv.FormatFloat(v, 'g', 12, 64) }
func gShort(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
