package reporting

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"trd-cea-lab/internal/orchestrator"
)

// num formats a result value. Infinities are written as inf/-inf and NaN
// as an empty cell.
func num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// lambdaCell formats a threshold without trailing zeros.
func lambdaCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// money formats a price to cents.
func money(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return num(v)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// text quotes a free-text cell when it would break the row.
func text(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func analysed(results []*orchestrator.PerspectiveResult) []*orchestrator.PerspectiveResult {
	out := make([]*orchestrator.PerspectiveResult, 0, len(results))
	for _, r := range results {
		if r != nil && !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}

// RenderNMB renders expected NMB and acceptability per lambda and strategy.
func RenderNMB(results []*orchestrator.PerspectiveResult) string {
	var sb strings.Builder

	sb.WriteString("perspective,lambda,strategy,expected_nmb,prob_optimal,present,on_frontier\n")

	for _, r := range analysed(results) {
		frontier := make(map[float64]string, len(r.Acceptability.Frontier))
		for _, f := range r.Acceptability.Frontier {
			frontier[f.Lambda] = f.Strategy
		}
		for _, c := range r.Acceptability.Curve {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%t,%t\n",
				r.Perspective,
				lambdaCell(c.Lambda),
				text(c.Strategy),
				num(c.ExpectedNMB),
				num(c.Probability),
				c.Present,
				frontier[c.Lambda] == c.Strategy,
			))
		}
	}

	return sb.String()
}

// RenderCEAF renders the cost-effectiveness acceptability frontier.
func RenderCEAF(results []*orchestrator.PerspectiveResult) string {
	var sb strings.Builder

	sb.WriteString("perspective,lambda,strategy,prob_optimal,expected_nmb\n")

	for _, r := range analysed(results) {
		for _, f := range r.Acceptability.Frontier {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s\n",
				r.Perspective,
				lambdaCell(f.Lambda),
				text(f.Strategy),
				num(f.Probability),
				num(f.ExpectedNMB),
			))
		}
	}

	return sb.String()
}

// RenderEVPI renders per-patient and population EVPI.
func RenderEVPI(results []*orchestrator.PerspectiveResult) string {
	var sb strings.Builder

	sb.WriteString("perspective,lambda,evci,perfect_info,evpi,population_evpi\n")

	for _, r := range analysed(results) {
		for _, e := range r.EVPI {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s\n",
				r.Perspective,
				lambdaCell(e.Lambda),
				num(e.EVCI),
				num(e.PerfectInfo),
				num(e.EVPI),
				num(e.PopulationEVPI),
			))
		}
	}

	return sb.String()
}

// RenderEquity renders equity summaries. An undefined Atkinson index is an
// empty cell with atkinson_defined=false.
func RenderEquity(results []*orchestrator.PerspectiveResult) string {
	var sb strings.Builder

	sb.WriteString("perspective,strategy,epsilon,n,mean,ede,welfare,atkinson,atkinson_defined\n")

	for _, r := range analysed(results) {
		for _, e := range r.Equity {
			atkinson := ""
			if e.AtkinsonDefined {
				atkinson = num(e.Atkinson)
			}
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%s,%s,%s,%s,%t\n",
				r.Perspective,
				text(e.Strategy),
				lambdaCell(e.Epsilon),
				e.N,
				num(e.Mean),
				num(e.EDE),
				num(e.Welfare),
				atkinson,
				e.AtkinsonDefined,
			))
		}
	}

	return sb.String()
}

// RenderVBP renders the value-based price of the focal strategy.
func RenderVBP(results []*orchestrator.PerspectiveResult) string {
	var sb strings.Builder

	sb.WriteString("perspective,lambda,focal,vbp,current_price,headroom,competitor,competitor_nmb,focal_nmb\n")

	for _, r := range analysed(results) {
		for _, v := range r.VBP {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
				r.Perspective,
				lambdaCell(v.Lambda),
				text(r.Focal),
				money(v.Price),
				money(v.CurrentPrice),
				money(v.Headroom()),
				text(v.Competitor),
				num(v.CompetitorNMB),
				num(v.FocalNMB),
			))
		}
	}

	return sb.String()
}

// RenderPRCC renders every PRCC table, ranked within each comparator.
func RenderPRCC(results []*orchestrator.PerspectiveResult) string {
	var sb strings.Builder

	sb.WriteString("perspective,base,comparator,lambda,rank,parameter,prcc,p_value,n,unmatched,incomplete\n")

	for _, r := range analysed(results) {
		for _, s := range r.Sensitivity {
			for _, c := range s.Coefficients {
				sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%s,%s,%s,%d,%d,%d\n",
					r.Perspective,
					text(s.Base),
					text(s.Comparator),
					lambdaCell(s.Lambda),
					c.Rank,
					text(c.Parameter),
					num(c.PRCC),
					num(c.PValue),
					s.N,
					s.Unmatched,
					s.Incomplete,
				))
			}
		}
	}

	return sb.String()
}

// RenderICER renders incremental results against the base strategy.
func RenderICER(results []*orchestrator.PerspectiveResult) string {
	var sb strings.Builder

	sb.WriteString("perspective,strategy,mean_cost,mean_effect,delta_cost,delta_effect,icer,dominance,")
	sb.WriteString("cost_p025,cost_p50,cost_p975,effect_p025,effect_p50,effect_p975\n")

	for _, r := range analysed(results) {
		for _, m := range r.Incremental {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
				r.Perspective,
				text(m.Strategy),
				num(m.MeanCost),
				num(m.MeanEffect),
				num(m.DeltaCost),
				num(m.DeltaEffect),
				num(m.ICER),
				m.Dominance,
				num(m.Cost.P025),
				num(m.Cost.P50),
				num(m.Cost.P975),
				num(m.Effect.P025),
				num(m.Effect.P50),
				num(m.Effect.P975),
			))
		}
	}

	return sb.String()
}
