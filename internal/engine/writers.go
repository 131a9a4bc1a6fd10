package engine

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ssslverify/internal/admission"
	"ssslverify/internal/observe"
	"ssslverify/internal/spectral"
	"ssslverify/internal/state"
)

// phi is the collapse projection over the conservative (m, a, s) triple.
// The substrate extension must never alter the underlying observable:
// phi((m,a,s)) = m, exactly, for every sample.
func phi(m float64, _ state.State, _ int) float64 {
	return m
}

func f6(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func f12(v float64) string { return strconv.FormatFloat(v, 'f', 12, 64) }

func gv(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeCSVFile(path string, write func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeStates(path string, obs []observe.Observation, dedt []float64, states []state.State) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"t_s", "E_proxy", "dE_dt", "discharge", "a_state"}); err != nil {
			return err
		}
		for i, o := range obs {
			rec := []string{f6(o.T), f6(o.E), f6(dedt[i]), strconv.Itoa(o.DischargeInt()), string(states[i])}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAccumulation(path string, obs []observe.Observation, states []state.State, acc []int) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"t_s", "E_proxy", "a_state", "s"}); err != nil {
			return err
		}
		for i, o := range obs {
			if err := w.Write([]string{f6(o.T), f6(o.E), string(states[i]), strconv.Itoa(acc[i])}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeOperatorTable(path string) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"a", "b", "Inv_s(a)", "Series_s(a,b)", "Parallel_s(a,b)"}); err != nil {
			return err
		}
		for _, row := range state.OperatorTable() {
			rec := []string{string(row.A), string(row.B), string(row.Inv), string(row.Series), string(row.Parallel)}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAdmission(path string, verdict admission.Verdict, m admission.Metrics) error {
	var b strings.Builder
	b.WriteString("SSSL admissibility verdict\n")
	b.WriteString("adm_E: " + string(verdict) + "\n")
	b.WriteString("Metrics:\n")
	// Sorted by metric name for a stable encoding.
	b.WriteString("avg_dwell_S: " + gv(m.AvgDwellS) + "\n")
	b.WriteString("churn_ratio: " + gv(m.ChurnRatio) + "\n")
	b.WriteString("collapse_ratio: " + gv(m.CollapseRatio) + "\n")
	b.WriteString("count_S: " + strconv.Itoa(m.CountS) + "\n")
	return writeText(path, b.String())
}

// writeTransitions writes the three transition artifacts: the count matrix,
// the compact ratio matrix P, and the long-form per-edge audit table. The
// long form intentionally differs from P_matrix.csv byte-wise; the capsule
// guards against the two aliasing into the same bytes.
func writeTransitions(outDir string, counts [][]int, p [][]float64) error {
	header := []string{"From\\To"}
	for _, a := range state.A4 {
		header = append(header, string(a))
	}

	err := writeCSVFile(filepath.Join(outDir, CountsFile), func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return err
		}
		for i, a := range state.A4 {
			rec := []string{string(a)}
			for j := range state.A4 {
				rec = append(rec, strconv.Itoa(counts[i][j]))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = writeCSVFile(filepath.Join(outDir, PMatrixFile), func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return err
		}
		for i, a := range state.A4 {
			rec := []string{string(a)}
			for j := range state.A4 {
				rec = append(rec, f6(p[i][j]))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	rowSums := spectral.RowSums(counts)
	return writeCSVFile(filepath.Join(outDir, RatiosFile), func(w *csv.Writer) error {
		if err := w.Write([]string{"from", "to", "count", "rowsum_from", "ratio"}); err != nil {
			return err
		}
		for i, a := range state.A4 {
			for j, b := range state.A4 {
				ratio := 0.0
				if rowSums[i] > 0 {
					ratio = float64(counts[i][j]) / float64(rowSums[i])
				}
				rec := []string{string(a), string(b), strconv.Itoa(counts[i][j]), strconv.Itoa(rowSums[i]), f6(ratio)}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func writeSpectrum(path string, p [][]float64) error {
	eigs := spectral.QREigenvalues(p, spectral.QRIterations)

	var b strings.Builder
	b.WriteString("SSSL spectral artifact (deterministic QR iteration)\n")
	b.WriteString("Matrix order: [Z0, Eplus, S, Eminus]\n")
	b.WriteString("Eigenvalues (approx):\n")
	for _, e := range eigs {
		b.WriteString(f12(e) + "\n")
	}
	radius := 0.0
	for _, e := range eigs {
		if a := math.Abs(e); a > radius {
			radius = a
		}
	}
	b.WriteString("\nSpectral radius estimate:\n")
	b.WriteString(f12(radius) + "\n")
	return writeText(path, b.String())
}

func writeCollapseCheck(path string, obs []observe.Observation, states []state.State, acc []int) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"t_s", "m", "a_state", "s", "phi(m,a,s)", "ok"}); err != nil {
			return err
		}
		for i, o := range obs {
			projected := phi(o.E, states[i], acc[i])
			ok := "0"
			if projected == o.E {
				ok = "1"
			}
			rec := []string{f6(o.T), f6(o.E), string(states[i]), strconv.Itoa(acc[i]), f6(projected), ok}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSummary(path string, cfg Config, states []state.State) error {
	counts := map[state.State]int{}
	for _, a := range states {
		counts[a]++
	}

	var b strings.Builder
	b.WriteString("SSSL verifier summary\n\n")
	b.WriteString("State space: A4 = {Z0, Eplus, S, Eminus}\n")
	b.WriteString("Conservative extension: phi((m,a,s)) = m\n\n")
	b.WriteString("Deterministic parameters:\n")
	b.WriteString("tau0=" + gv(cfg.Class.Tau0) + "\n")
	b.WriteString("taus=" + gv(cfg.Class.TauS) + "\n")
	b.WriteString("eps=" + gv(cfg.Class.Eps) + "\n")
	b.WriteString("drop=" + gv(cfg.Class.Drop) + "\n")
	if cfg.Substrate {
		b.WriteString("\nAccumulation parameters:\n")
		b.WriteString("s0=" + strconv.Itoa(cfg.Accum.S0) + "\n")
		b.WriteString("s_max=" + strconv.Itoa(cfg.Accum.SMax) + "\n")
		b.WriteString("inc_on_eminus=" + strconv.Itoa(cfg.Accum.IncOnEminus) + "\n")
		b.WriteString("dec_on_s=" + strconv.Itoa(cfg.Accum.DecOnS) + "\n")
		b.WriteString("\nAdmissibility parameters:\n")
		b.WriteString("collapse_ratio_max=" + gv(cfg.Adm.CollapseRatioMax) + "\n")
		b.WriteString("churn_ratio_max=" + gv(cfg.Adm.ChurnRatioMax) + "\n")
		b.WriteString("require_s=" + strconv.Itoa(cfg.Adm.RequireS) + "\n")
	}
	b.WriteString("\nObservations: " + strconv.Itoa(len(states)) + "\n")
	b.WriteString("State counts:\n")
	for _, a := range state.A4 {
		b.WriteString(string(a) + ": " + strconv.Itoa(counts[a]) + "\n")
	}
	b.WriteString("\nRules (deterministic):\n")
	b.WriteString("- Eminus: discharge=1 OR dE/dt <= -drop\n")
	b.WriteString("- S: E_proxy >= taus AND |dE/dt| <= eps\n")
	b.WriteString("- Z0: E_proxy <= tau0 AND |dE/dt| <= eps\n")
	b.WriteString("- Otherwise: Eplus\n")
	return writeText(path, b.String())
}

func writeText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
