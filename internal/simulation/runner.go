package simulation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/markov"
	"trd-cea-lab/internal/observability"
)

// Runner errors
var (
	ErrNoDraws         = errors.New("draw count must be positive")
	ErrNoJurisdictions = errors.New("no jurisdictions configured")
)

// Runner executes the probabilistic sensitivity analysis.
type Runner struct {
	strategies    domain.StrategyConfig
	jurisdictions []domain.Jurisdiction
	settings      domain.SimulationSettings
	workers       int
	logger        zerolog.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Strategies    domain.StrategyConfig
	Jurisdictions []domain.Jurisdiction
	Settings      domain.SimulationSettings

	Workers int            // 0 = GOMAXPROCS
	Logger  zerolog.Logger // zero value logs nothing
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		strategies:    opts.Strategies,
		jurisdictions: opts.Jurisdictions,
		settings:      opts.Settings,
		workers:       workers,
		logger:        opts.Logger,
	}
}

// RunResult holds the draw tables and the parameter traces of a PSA run.
type RunResult struct {
	// Draws per jurisdiction id, ordered by draw, strategy, perspective.
	Draws map[string][]domain.DrawRecord
	// Parameters per jurisdiction id: the shared draws plus only that
	// jurisdiction's own cost draws, ordered by draw.
	Parameters map[string][]domain.ParameterSample
}

type job struct {
	sample       int
	strategy     int
	jurisdiction int
	perspective  domain.Perspective
	slot         int
}

// Run executes a simulation for every (draw, strategy, jurisdiction,
// perspective) combination that applies.
// Steps:
//  1. Sample every draw from its own seeded stream
//  2. Fan out cohort simulations over a bounded worker pool
//  3. Assemble draw tables in a fixed order
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	n := r.settings.Draws
	if n <= 0 {
		return nil, ErrNoDraws
	}
	if len(r.jurisdictions) == 0 {
		return nil, ErrNoJurisdictions
	}

	// 1. Sample
	start := time.Now()
	sampler := NewSampler(r.strategies.Strategies, r.jurisdictions, r.settings)
	samples := make([]Sample, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for d := 0; d < n; d++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			samples[d] = sampler.Sample(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	observability.RecordSimulationPhase("sample", time.Since(start).Seconds())
	r.logger.Debug().Int("draws", n).Dur("elapsed", time.Since(start)).Msg("sampled parameters")

	// 2. Simulate
	start = time.Now()
	jobs := r.plan(n)
	records := make([]domain.DrawRecord, len(jobs))

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, jb := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := samples[jb.sample]
			strat := s.Strategies[jb.strategy]
			res, err := markov.Simulate(markov.Input{
				Strategy:     strat,
				Jurisdiction: s.Jurisdictions[jb.jurisdiction],
				Perspective:  jb.perspective,
				Settings:     s.Settings,
			})
			if err != nil {
				observability.RecordSimulationError()
				return fmt.Errorf("draw %d strategy %s jurisdiction %s %s: %w",
					s.Draw, strat.ID, s.Jurisdictions[jb.jurisdiction].ID, jb.perspective, err)
			}
			records[jb.slot] = domain.DrawRecord{
				Draw:        s.Draw,
				Strategy:    strat.ID,
				Cost:        res.Cost,
				Effect:      res.Effect,
				Perspective: jb.perspective,
			}
			observability.RecordDrawSimulated(jb.perspective.String())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	observability.RecordSimulationPhase("simulate", time.Since(start).Seconds())
	r.logger.Info().Int("simulations", len(jobs)).Dur("elapsed", time.Since(start)).Msg("cohort simulations complete")

	// 3. Assemble
	result := &RunResult{
		Draws:      make(map[string][]domain.DrawRecord, len(r.jurisdictions)),
		Parameters: make(map[string][]domain.ParameterSample, len(r.jurisdictions)),
	}
	for i, jb := range jobs {
		id := r.jurisdictions[jb.jurisdiction].ID
		result.Draws[id] = append(result.Draws[id], records[i])
	}
	for j, jur := range r.jurisdictions {
		for _, s := range samples {
			result.Parameters[jur.ID] = append(result.Parameters[jur.ID], s.ParametersFor(j)...)
		}
	}
	return result, nil
}

// plan enumerates jobs in output order: jurisdiction, draw, strategy,
// perspective.
func (r *Runner) plan(draws int) []job {
	var jobs []job
	for j := range r.jurisdictions {
		for d := 0; d < draws; d++ {
			for s, strat := range r.strategies.Strategies {
				for _, p := range domain.AllPerspectives {
					if !strat.AppliesTo(p) {
						continue
					}
					jobs = append(jobs, job{
						sample:       d,
						strategy:     s,
						jurisdiction: j,
						perspective:  p,
						slot:         len(jobs),
					})
				}
			}
		}
	}
	return jobs
}
