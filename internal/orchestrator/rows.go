package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// CurvePoints flattens the acceptability curve into storable rows.
// OnFrontier marks the expected-optimal strategy of each lambda.
func (r *PerspectiveResult) CurvePoints(runID string) []domain.CurvePoint {
	if r.Skipped {
		return nil
	}
	frontier := make(map[float64]string, len(r.Acceptability.Frontier))
	for _, f := range r.Acceptability.Frontier {
		frontier[f.Lambda] = f.Strategy
	}

	out := make([]domain.CurvePoint, 0, len(r.Acceptability.Curve))
	for _, c := range r.Acceptability.Curve {
		out = append(out, domain.CurvePoint{
			RunID:       runID,
			Perspective: r.Perspective,
			Lambda:      c.Lambda,
			Strategy:    c.Strategy,
			ExpectedNMB: c.ExpectedNMB,
			ProbOptimal: c.Probability,
			OnFrontier:  frontier[c.Lambda] == c.Strategy,
		})
	}
	return out
}

// ThresholdPoints joins frontier, EVPI and value-based price per lambda.
func (r *PerspectiveResult) ThresholdPoints(runID string) []domain.ThresholdPoint {
	if r.Skipped {
		return nil
	}
	out := make([]domain.ThresholdPoint, len(r.Acceptability.Frontier))
	for i, f := range r.Acceptability.Frontier {
		tp := domain.ThresholdPoint{
			RunID:            runID,
			Perspective:      r.Perspective,
			Lambda:           f.Lambda,
			FrontierStrategy: f.Strategy,
			FrontierProb:     f.Probability,
			FrontierNMB:      f.ExpectedNMB,
		}
		if i < len(r.EVPI) {
			tp.EVPI = r.EVPI[i].EVPI
			tp.PopulationEVPI = r.EVPI[i].PopulationEVPI
		}
		if i < len(r.VBP) {
			v := r.VBP[i]
			price, current := v.Price, v.CurrentPrice
			tp.VBP = &price
			tp.CurrentPrice = &current
			tp.VBPCompetitor = v.Competitor
		}
		out[i] = tp
	}
	return out
}

// SensitivityRows flattens every PRCC table into storable rows.
func (r *PerspectiveResult) SensitivityRows(runID string) []domain.SensitivityRow {
	var out []domain.SensitivityRow
	for _, res := range r.Sensitivity {
		for _, c := range res.Coefficients {
			out = append(out, domain.SensitivityRow{
				RunID:       runID,
				Perspective: r.Perspective,
				Base:        res.Base,
				Comparator:  res.Comparator,
				Lambda:      res.Lambda,
				Parameter:   c.Parameter,
				PRCC:        c.PRCC,
				PValue:      c.PValue,
				Rank:        c.Rank,
				N:           res.N,
			})
		}
	}
	return out
}

// persist writes result rows of every analysed perspective. Rows already
// stored for the run are skipped so a rerun is idempotent.
func (o *Orchestrator) persist(ctx context.Context, result *RunResult) (int, error) {
	stored := 0
	for _, pr := range result.Perspectives {
		if pr.Skipped {
			continue
		}
		log := o.logger.With().Str("perspective", pr.Perspective.String()).Logger()

		if o.curveStore != nil {
			rows := pr.CurvePoints(o.runID)
			n, err := insertOnce(len(rows), func() error { return o.curveStore.InsertBulk(ctx, rows) })
			if err != nil {
				return stored, fmt.Errorf("store curves: %w", err)
			}
			if n == 0 && len(rows) > 0 {
				log.Info().Msg("  curve rows already stored, skipping")
			}
			stored += n
		}

		if o.thresholdStore != nil {
			rows := pr.ThresholdPoints(o.runID)
			n, err := insertOnce(len(rows), func() error { return o.thresholdStore.InsertBulk(ctx, rows) })
			if err != nil {
				return stored, fmt.Errorf("store thresholds: %w", err)
			}
			if n == 0 && len(rows) > 0 {
				log.Info().Msg("  threshold rows already stored, skipping")
			}
			stored += n
		}

		if o.sensitivityStore != nil {
			rows := pr.SensitivityRows(o.runID)
			n, err := insertOnce(len(rows), func() error { return o.sensitivityStore.InsertBulk(ctx, rows) })
			if err != nil {
				return stored, fmt.Errorf("store sensitivity: %w", err)
			}
			if n == 0 && len(rows) > 0 {
				log.Info().Msg("  sensitivity rows already stored, skipping")
			}
			stored += n
		}
	}
	return stored, nil
}

// insertOnce runs insert and returns the number of rows written. A
// duplicate key means the batch is already stored and counts as zero.
func insertOnce(n int, insert func() error) (int, error) {
	if n == 0 {
		return 0, nil
	}
	err := insert()
	if errors.Is(err, storage.ErrDuplicateKey) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}
