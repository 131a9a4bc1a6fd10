// Package observe ingests the 3-column observation schema
// (t_s, E_proxy, discharge): parse, validate, deterministically sort, and
// derive the per-sample derivative. It also hosts the projection adapters
// that remap external tabular datasets into the same schema.
package observe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"ssslverify/internal/fault"
)

// Header is the exact, order-sensitive input header.
var Header = []string{"t_s", "E_proxy", "discharge"}

// Observation is one validated input sample.
type Observation struct {
	T         float64
	E         float64 // magnitude proxy, always >= 0
	Discharge bool
}

// DischargeInt renders the flag in the 0/1 wire form.
func (o Observation) DischargeInt() int {
	if o.Discharge {
		return 1
	}
	return 0
}

// ReadObservations parses and validates an observation CSV. Rows are stably
// sorted by (t, E, discharge) so that ties break deterministically. Fewer
// than two rows is a DataError; any malformed header, field, or range
// violation is a ValidationError naming the offending line.
func ReadObservations(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &fault.MissingArtifact{Path: path}
		}
		return nil, fmt.Errorf("open observations: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &fault.ValidationError{Source: path, Reason: "missing CSV header"}
	}
	if len(header) != len(Header) || header[0] != Header[0] || header[1] != Header[1] || header[2] != Header[2] {
		return nil, &fault.ValidationError{
			Source: path,
			Reason: fmt.Sprintf("header must be exactly %v (got %v)", Header, header),
		}
	}

	var obs []Observation
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &fault.ValidationError{Source: path, Line: line, Reason: err.Error()}
		}
		if len(rec) != 3 {
			return nil, &fault.ValidationError{Source: path, Line: line, Reason: fmt.Sprintf("expected 3 fields, got %d", len(rec))}
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, &fault.ValidationError{Source: path, Line: line, Reason: "t_s is not a number: " + rec[0]}
		}
		e, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, &fault.ValidationError{Source: path, Line: line, Reason: "E_proxy is not a number: " + rec[1]}
		}
		if e < 0 {
			return nil, &fault.ValidationError{Source: path, Line: line, Reason: "E_proxy must be >= 0"}
		}
		d, err := strconv.Atoi(rec[2])
		if err != nil || (d != 0 && d != 1) {
			return nil, &fault.ValidationError{Source: path, Line: line, Reason: "discharge must be 0 or 1: " + rec[2]}
		}
		obs = append(obs, Observation{T: t, E: e, Discharge: d == 1})
	}

	if len(obs) < 2 {
		return nil, &fault.DataError{Reason: fmt.Sprintf("need at least 2 observations to compute a derivative, got %d", len(obs))}
	}

	SortObservations(obs)
	return obs, nil
}

// SortObservations stably orders by (t, E, discharge). The total order makes
// replay runs insensitive to input row order.
func SortObservations(obs []Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		a, b := obs[i], obs[j]
		if a.T != b.T {
			return a.T < b.T
		}
		if a.E != b.E {
			return a.E < b.E
		}
		return a.DischargeInt() < b.DischargeInt()
	})
}

// Derivative computes dE/dt per sample from the immediate predecessor.
// The first sample has no predecessor and any zero time step would divide
// by zero; both cases are defined as 0 here, once, rather than special-cased
// downstream.
func Derivative(obs []Observation) []float64 {
	d := make([]float64, len(obs))
	for i := 1; i < len(obs); i++ {
		dt := obs[i].T - obs[i-1].T
		if dt != 0 {
			d[i] = (obs[i].E - obs[i-1].E) / dt
		}
	}
	return d
}
