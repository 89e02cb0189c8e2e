// Package orchestrator runs the decision analysis of one draw table.
// It coordinates: lambda grid → NMB → acceptability/EVPI → price →
// equity/incremental → sensitivity → persistence
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"trd-cea-lab/internal/decision"
	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/draws"
	"trd-cea-lab/internal/equity"
	"trd-cea-lab/internal/metrics"
	"trd-cea-lab/internal/observability"
	"trd-cea-lab/internal/sensitivity"
	"trd-cea-lab/internal/storage"
)

// Orchestrator coordinates the per-perspective decision analysis.
type Orchestrator struct {
	// Configs
	strategies   domain.StrategyConfig
	analysis     domain.AnalysisSettings
	jurisdiction domain.Jurisdiction
	parameters   []domain.ParameterSample
	weights      []float64

	// Result stores (optional)
	runID            string
	curveStore       storage.CurveStore
	thresholdStore   storage.ThresholdStore
	sensitivityStore storage.SensitivityStore

	logger zerolog.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Strategy set, base and focal strategy. With no strategies configured
	// every strategy in the draw table is compared.
	Strategies   domain.StrategyConfig
	Analysis     domain.AnalysisSettings
	Jurisdiction domain.Jurisdiction // discounting of population EVPI

	// PSA parameter trace for PRCC; nil skips sensitivity analysis.
	Parameters []domain.ParameterSample
	// Population weights for equity summaries; nil is uniform.
	Weights []float64

	// Rows are persisted only when RunID and the matching store are set.
	RunID            string
	CurveStore       storage.CurveStore
	ThresholdStore   storage.ThresholdStore
	SensitivityStore storage.SensitivityStore

	Logger zerolog.Logger // zero value logs nothing
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		strategies:       opts.Strategies,
		analysis:         opts.Analysis,
		jurisdiction:     opts.Jurisdiction,
		parameters:       opts.Parameters,
		weights:          opts.Weights,
		runID:            opts.RunID,
		curveStore:       opts.CurveStore,
		thresholdStore:   opts.ThresholdStore,
		sensitivityStore: opts.SensitivityStore,
		logger:           opts.Logger,
	}
}

// PerspectiveResult is the analysis bundle of one costing perspective.
// A skipped perspective carries only Perspective, Skipped and Reason.
type PerspectiveResult struct {
	Perspective domain.Perspective
	Skipped     bool
	Reason      string

	Strategies    []string // compared strategies, in configured order
	Base          string
	Focal         string
	NMB           *decision.NMBResult
	Acceptability decision.AcceptabilityResult
	EVPI          []decision.EVPIPoint
	VBP           []decision.VBPPoint // nil when Notes explains why
	Equity        []equity.Row
	Incremental   []metrics.IncrementalRow
	Sensitivity   []*sensitivity.Result

	// Notes lists optional outputs that could not be produced.
	Notes []string
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID        string
	Lambdas      []float64
	Perspectives []*PerspectiveResult
	RowsStored   int
}

// Run analyses every perspective present in the configuration or table.
// Phases:
//  1. Build the lambda grid
//  2. NMB, acceptability and EVPI per perspective
//  3. Value-based price, equity and incremental results
//  4. PRCC of each comparator against the base strategy
//  5. Persist curve, threshold and sensitivity rows
func (o *Orchestrator) Run(ctx context.Context, table *draws.Table) (*RunResult, error) {
	// Phase 1: Lambda grid
	o.logger.Info().Msg("Phase 1: Building lambda grid...")
	a := o.analysis
	lambdas, err := decision.LambdaGrid(a.LambdaMin, a.LambdaMax, a.LambdaStep)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (lambda grid) failed: %w", err)
	}
	o.logger.Info().Int("points", len(lambdas)).Msg("  lambda grid ready")

	result := &RunResult{RunID: o.runID, Lambdas: lambdas}
	for _, p := range domain.AllPerspectives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		pr, err := o.analyse(table, p, lambdas)
		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case pr.Skipped:
			status = "skipped"
		}
		observability.RecordAnalysis(p.String(), status, time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("perspective %s: %w", p, err)
		}
		if pr.Skipped {
			o.logger.Info().Str("perspective", p.String()).Str("reason", pr.Reason).Msg("  perspective skipped")
		}
		result.Perspectives = append(result.Perspectives, pr)
	}

	// Phase 5: Persistence
	if o.runID != "" && (o.curveStore != nil || o.thresholdStore != nil || o.sensitivityStore != nil) {
		o.logger.Info().Msg("Phase 5: Persisting results...")
		stored, err := o.persist(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("phase 5 (persist) failed: %w", err)
		}
		result.RowsStored = stored
		o.logger.Info().Int("rows", stored).Msg("  results stored")
	} else {
		o.logger.Info().Msg("Phase 5: Skipping persistence (no result stores)")
	}

	return result, nil
}

// analyse runs phases 2-4 for one perspective.
func (o *Orchestrator) analyse(table *draws.Table, p domain.Perspective, lambdas []float64) (*PerspectiveResult, error) {
	pr := &PerspectiveResult{Perspective: p}
	log := o.logger.With().Str("perspective", p.String()).Logger()

	strategies := o.strategiesFor(table, p)
	switch {
	case len(strategies) < 2:
		pr.Skipped = true
		pr.Reason = fmt.Sprintf("%d strategies apply, need at least 2", len(strategies))
		return pr, nil
	case len(table.Strategies(p)) == 0:
		pr.Skipped = true
		pr.Reason = "no draws recorded for this perspective"
		return pr, nil
	}
	pr.Strategies = strategies

	m, err := table.Matrix(p)
	if err != nil {
		return nil, err
	}
	sel, missing := m.Select(strategies)
	if len(missing) > 0 {
		return nil, &decision.MissingStrategiesError{Perspective: p, Names: missing}
	}

	focal := decision.NoFocal()
	if f := o.strategies.FocalStrategy; f != "" && slices.Contains(strategies, f) {
		focal = decision.FocalStrategy(f)
		pr.Focal = f
	}
	if b := o.strategies.BaseStrategy; b != "" && slices.Contains(strategies, b) {
		pr.Base = b
	}

	// Phase 2: NMB, acceptability, EVPI
	log.Info().Int("strategies", len(strategies)).Int("draws", sel.NumDraws()).Msg("Phase 2: Computing NMB, CEAC/CEAF and EVPI...")
	pr.NMB, err = decision.ComputeNMB(sel, lambdas, decision.Options{Strategies: strategies, Focal: focal})
	if err != nil {
		return nil, err
	}
	pr.Acceptability = decision.Acceptability(pr.NMB, o.reportOrder(table))
	pr.EVPI = decision.EVPI(pr.NMB, decision.Population{
		Size:         o.analysis.Population,
		HorizonYears: o.analysis.PopulationHorizonYears,
		DiscountRate: o.jurisdiction.CostDiscount,
	})

	// Phase 3: price, equity, incremental
	log.Info().Msg("Phase 3: Computing value-based price, equity and incremental results...")
	switch {
	case pr.Focal == "":
		pr.Notes = append(pr.Notes, "value-based price: no focal strategy applies")
	default:
		pr.VBP, err = o.valueBasedPrice(pr.NMB, pr.Focal)
		if errors.Is(err, decision.ErrMissingPrice) {
			pr.Notes = append(pr.Notes, "value-based price: "+err.Error())
		} else if err != nil {
			return nil, err
		}
	}

	pr.Equity, err = equity.StrategyTable(sel, o.analysis.Epsilons, o.weights)
	if err != nil {
		return nil, err
	}

	if pr.Base == "" {
		pr.Notes = append(pr.Notes, "incremental analysis: no base strategy applies")
	} else {
		pr.Incremental, err = metrics.Incremental(sel, pr.Base)
		if err != nil {
			return nil, err
		}
	}

	// Phase 4: sensitivity
	if len(o.parameters) == 0 || pr.Base == "" {
		log.Info().Msg("Phase 4: Skipping PRCC (no parameter trace or base strategy)")
		return pr, nil
	}
	log.Info().Float64("lambda", o.analysis.PRCCLambda).Msg("Phase 4: Computing PRCC...")
	for _, comparator := range strategies {
		if comparator == pr.Base {
			continue
		}
		res, err := sensitivity.Analyze(sel, o.parameters, pr.Base, comparator, o.analysis.PRCCLambda)
		if errors.Is(err, sensitivity.ErrInsufficientDraws) || errors.Is(err, sensitivity.ErrNoParameters) {
			pr.Notes = append(pr.Notes, "prcc: "+err.Error())
			continue
		}
		if err != nil {
			return nil, err
		}
		if res.Unmatched > 0 || res.Incomplete > 0 {
			log.Warn().Str("comparator", comparator).
				Int("unmatched", res.Unmatched).Int("incomplete", res.Incomplete).
				Msg("  prcc dropped draws")
		}
		pr.Sensitivity = append(pr.Sensitivity, res)
	}
	return pr, nil
}

func (o *Orchestrator) valueBasedPrice(res *decision.NMBResult, focal string) ([]decision.VBPPoint, error) {
	price, ok := o.strategies.ListPrice(focal)
	if !ok {
		return decision.ValueBasedPrice(res, focal, nil)
	}
	return decision.ValueBasedPrice(res, focal, &price)
}

// strategiesFor returns the strategies compared under p: the configured
// ones that apply, or every strategy in the table when none are configured.
func (o *Orchestrator) strategiesFor(table *draws.Table, p domain.Perspective) []string {
	if len(o.strategies.Strategies) == 0 {
		return table.Strategies(p)
	}
	return o.strategies.StrategiesFor(p)
}

// reportOrder lists every strategy the acceptability curves report, across
// all perspectives: the configured order, or the sorted union of the
// table's strategies when none are configured.
func (o *Orchestrator) reportOrder(table *draws.Table) []string {
	if len(o.strategies.Strategies) > 0 {
		return o.strategies.IDs()
	}
	var ids []string
	for _, p := range domain.AllPerspectives {
		for _, s := range table.Strategies(p) {
			if !slices.Contains(ids, s) {
				ids = append(ids, s)
			}
		}
	}
	slices.Sort(ids)
	return ids
}
