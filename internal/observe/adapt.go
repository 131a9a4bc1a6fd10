package observe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ssslverify/internal/fault"
)

// The projection adapters below remap foreign tabular data into the
// canonical (t_s, E_proxy, discharge) schema, with the same deterministic
// sort as the ingestor. Column values are re-rendered rather than copied so
// the output bytes do not depend on the source formatting.

// BatteryOptions select and bound the battery projection.
type BatteryOptions struct {
	BatteryID string // device id filter; first seen when empty
	MaxRows   int    // row cap after filtering; 0 means unlimited
}

// ExtractBattery projects a battery cycling dataset into the observation
// schema: t_s = cycle, E_proxy = disV, discharge = 1 iff disI < 0. The
// source must carry battery_id, cycle, disV and disI columns (any order).
func ExtractBattery(batteryCSV, outCSV string, opts BatteryOptions) error {
	f, err := os.Open(batteryCSV)
	if err != nil {
		if os.IsNotExist(err) {
			return &fault.MissingArtifact{Path: batteryCSV}
		}
		return fmt.Errorf("open battery CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return &fault.ValidationError{Source: batteryCSV, Reason: "missing CSV header"}
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"battery_id", "cycle", "disV", "disI"} {
		if _, ok := col[name]; !ok {
			return &fault.ValidationError{
				Source: batteryCSV,
				Reason: "battery CSV must include columns: battery_id, cycle, disV, disI (missing " + name + ")",
			}
		}
	}

	chosen := opts.BatteryID
	var obs []Observation
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &fault.ValidationError{Source: batteryCSV, Line: line, Reason: err.Error()}
		}
		bid := rec[col["battery_id"]]
		if chosen == "" {
			chosen = bid
		}
		if bid != chosen {
			continue
		}
		t, err := strconv.ParseFloat(rec[col["cycle"]], 64)
		if err != nil {
			return &fault.ValidationError{Source: batteryCSV, Line: line, Reason: "cycle is not a number: " + rec[col["cycle"]]}
		}
		e, err := strconv.ParseFloat(rec[col["disV"]], 64)
		if err != nil {
			return &fault.ValidationError{Source: batteryCSV, Line: line, Reason: "disV is not a number: " + rec[col["disV"]]}
		}
		di, err := strconv.ParseFloat(rec[col["disI"]], 64)
		if err != nil {
			return &fault.ValidationError{Source: batteryCSV, Line: line, Reason: "disI is not a number: " + rec[col["disI"]]}
		}
		obs = append(obs, Observation{T: t, E: e, Discharge: di < 0})
		if opts.MaxRows > 0 && len(obs) >= opts.MaxRows {
			break
		}
	}

	SortObservations(obs)
	return writeObservationCSV(outCSV, obs, 'f')
}

// AdaptOptions name the source columns for the generic adapter.
type AdaptOptions struct {
	TimeCol  string
	MagCol   string
	EventCol string // optional; discharge = 0 for every row when empty
}

// Adapt remaps an arbitrary tabular trace into the observation schema using
// named columns. Event values accept common boolean spellings and fall back
// to "numeric > 0 means 1".
func Adapt(inCSV, outCSV string, opts AdaptOptions) error {
	f, err := os.Open(inCSV)
	if err != nil {
		if os.IsNotExist(err) {
			return &fault.MissingArtifact{Path: inCSV}
		}
		return fmt.Errorf("open input CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return &fault.ValidationError{Source: inCSV, Reason: "input CSV has no header row"}
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{opts.TimeCol, opts.MagCol} {
		if _, ok := col[name]; !ok {
			return &fault.ValidationError{Source: inCSV, Reason: "column not found: " + name}
		}
	}
	if opts.EventCol != "" {
		if _, ok := col[opts.EventCol]; !ok {
			return &fault.ValidationError{Source: inCSV, Reason: "column not found: " + opts.EventCol}
		}
	}

	var obs []Observation
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &fault.ValidationError{Source: inCSV, Line: line, Reason: err.Error()}
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(rec[col[opts.TimeCol]]), 64)
		if err != nil {
			return &fault.ValidationError{Source: inCSV, Line: line, Reason: "cannot parse t_s as float: " + rec[col[opts.TimeCol]]}
		}
		e, err := strconv.ParseFloat(strings.TrimSpace(rec[col[opts.MagCol]]), 64)
		if err != nil {
			return &fault.ValidationError{Source: inCSV, Line: line, Reason: "cannot parse E_proxy as float: " + rec[col[opts.MagCol]]}
		}
		discharge := false
		if opts.EventCol != "" {
			discharge, err = parseEvent(rec[col[opts.EventCol]])
			if err != nil {
				return &fault.ValidationError{Source: inCSV, Line: line, Reason: err.Error()}
			}
		}
		obs = append(obs, Observation{T: t, E: e, Discharge: discharge})
	}

	SortObservations(obs)
	return writeObservationCSV(outCSV, obs, 'g')
}

func parseEvent(raw string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "1", "true", "t", "yes", "y":
		return true, nil
	case "0", "false", "f", "no", "n", "":
		return false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, fmt.Errorf("cannot parse discharge as 0/1: %q", raw)
	}
	return v > 0, nil
}

// writeObservationCSV renders observations in the canonical schema. Format
// 'f' uses fixed 6-decimal notation, 'g' uses 12 significant digits; both
// are locale-independent and stable.
func writeObservationCSV(path string, obs []Observation, format byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range obs {
		var rec []string
		if format == 'f' {
			rec = []string{
				strconv.FormatFloat(o.T, 'f', 6, 64),
				strconv.FormatFloat(o.E, 'f', 6, 64),
				strconv.Itoa(o.DischargeInt()),
			}
		} else {
			rec = []string{
				strconv.FormatFloat(o.T, 'g', 12, 64),
				strconv.FormatFloat(o.E, 'g', 12, 64),
				strconv.Itoa(o.DischargeInt()),
			}
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
