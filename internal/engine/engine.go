// Package engine composes the full pipeline for one run: ingest and
// classify the observation trace, derive the substrate artifacts, write the
// fixed artifact set into the output directory, and seal it with a
// manifest. A run is a pure function of its Config; two runs with the same
// Config over the same input produce byte-identical artifact sets.
package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ssslverify/internal/accum"
	"ssslverify/internal/admission"
	"ssslverify/internal/artifact"
	"ssslverify/internal/observe"
	"ssslverify/internal/spectral"
	"ssslverify/internal/state"
)

// Fixed artifact names. The capsule's required-file invariant enumerates
// these by name.
const (
	StatesFile       = "sssl_states.csv"
	AccumulationFile = "sssl_accumulation.csv"
	OperatorFile     = "operator_table.csv"
	AdmissionFile    = "adm_result.txt"
	CountsFile       = "transition_counts.csv"
	RatiosFile       = "transition_ratios.csv"
	PMatrixFile      = "P_matrix.csv"
	SpectrumFile     = "eigenspectrum.txt"
	CollapseFile     = "collapse_check.csv"
	SummaryFile      = "summary.txt"
)

// RunEnv pins the incidental execution environment for one run. The values
// are carried per invocation (never as ambient process mutation) so that
// concurrent replay runs cannot interfere with each other. The Go pipeline
// is locale- and seed-independent by construction; the pin is recorded so
// the replay contract is explicit rather than accidental.
type RunEnv struct {
	HashSeed int
	Locale   string
	Timezone string
}

// DefaultRunEnv returns the pinned environment used by the capsule.
func DefaultRunEnv() RunEnv {
	return RunEnv{HashSeed: 0, Locale: "C", Timezone: "UTC"}
}

// Config is the complete parameterization of one engine run.
type Config struct {
	InCSV  string
	OutDir string

	Class     state.Params
	Substrate bool
	Accum     accum.Params
	Adm       admission.Params

	Env    RunEnv
	Logger *zap.Logger
}

// DefaultConfig returns a Config with every parameter at its documented
// default. InCSV and OutDir are left for the caller.
func DefaultConfig() Config {
	return Config{
		Class: state.DefaultParams(),
		Accum: accum.DefaultParams(),
		Adm:   admission.DefaultParams(),
		Env:   DefaultRunEnv(),
	}
}

// Result summarizes a completed run.
type Result struct {
	OutDir       string
	ManifestPath string
	Observations int
	Verdict      admission.Verdict // empty when the substrate is disabled
}

// Run executes the pipeline once. All failures are fatal and typed per the
// fault taxonomy; nothing is retried.
func Run(cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	// The run ID only correlates log lines. It must never reach an
	// artifact: artifacts are a pure function of the config.
	log = log.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("in_csv", cfg.InCSV),
		zap.String("out_dir", cfg.OutDir),
		zap.String("locale", cfg.Env.Locale),
		zap.String("tz", cfg.Env.Timezone),
		zap.Int("hash_seed", cfg.Env.HashSeed),
	)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	obs, err := observe.ReadObservations(cfg.InCSV)
	if err != nil {
		return nil, err
	}
	dedt := observe.Derivative(obs)

	states := make([]state.State, len(obs))
	for i, o := range obs {
		states[i] = state.Classify(o.E, dedt[i], o.Discharge, cfg.Class)
	}
	log.Debug("trace classified", zap.Int("observations", len(obs)))

	rel := []string{StatesFile}
	if err := writeStates(filepath.Join(cfg.OutDir, StatesFile), obs, dedt, states); err != nil {
		return nil, err
	}

	res := &Result{OutDir: cfg.OutDir, Observations: len(obs)}

	if cfg.Substrate {
		acc := accum.Fold(states, cfg.Accum)
		if err := writeAccumulation(filepath.Join(cfg.OutDir, AccumulationFile), obs, states, acc); err != nil {
			return nil, err
		}
		if err := writeOperatorTable(filepath.Join(cfg.OutDir, OperatorFile)); err != nil {
			return nil, err
		}

		verdict, metrics := admission.Evaluate(states, cfg.Adm)
		res.Verdict = verdict
		if err := writeAdmission(filepath.Join(cfg.OutDir, AdmissionFile), verdict, metrics); err != nil {
			return nil, err
		}

		counts := spectral.CountTransitions(states)
		p := spectral.RatioMatrix(counts)
		if err := writeTransitions(cfg.OutDir, counts, p); err != nil {
			return nil, err
		}
		if err := writeSpectrum(filepath.Join(cfg.OutDir, SpectrumFile), p); err != nil {
			return nil, err
		}
		if err := writeCollapseCheck(filepath.Join(cfg.OutDir, CollapseFile), obs, states, acc); err != nil {
			return nil, err
		}

		rel = append(rel,
			AccumulationFile, OperatorFile, AdmissionFile,
			CountsFile, RatiosFile, PMatrixFile, SpectrumFile, CollapseFile,
		)
		log.Debug("substrate artifacts written", zap.String("adm_E", string(verdict)))
	}

	if err := writeSummary(filepath.Join(cfg.OutDir, SummaryFile), cfg, states); err != nil {
		return nil, err
	}
	rel = append(rel, SummaryFile)

	if err := artifact.WriteManifestFiles(cfg.OutDir, rel, artifact.StyleBinary); err != nil {
		return nil, err
	}
	res.ManifestPath = filepath.Join(cfg.OutDir, artifact.ManifestName)

	log.Info("run sealed",
		zap.Int("artifacts", len(rel)),
		zap.String("manifest", res.ManifestPath),
	)
	return res, nil
}
