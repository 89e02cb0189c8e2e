package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderSummary renders the run manifest as Markdown: which perspectives
// were analysed, why others were skipped, and which optional outputs are
// missing.
func RenderSummary(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Analysis Summary\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}
	if r.Jurisdiction != "" || r.Draws > 0 {
		sb.WriteString(fmt.Sprintf("Jurisdiction: %s | Draws: %d\n\n", r.Jurisdiction, r.Draws))
	}
	if r.ConfigHash != "" {
		sb.WriteString(fmt.Sprintf("Config: `%s`\n\n", r.ConfigHash))
	}

	// Perspectives
	sb.WriteString("## Perspectives\n\n")
	if len(r.Results) == 0 {
		sb.WriteString("No perspectives analysed.\n\n")
		return sb.String()
	}
	sb.WriteString("| Perspective | Status | Strategies | Base | Focal |\n")
	sb.WriteString("|-------------|--------|------------|------|-------|\n")
	for _, pr := range r.Results {
		if pr.Skipped {
			sb.WriteString(fmt.Sprintf("| %s | skipped: %s | | | |\n", pr.Perspective, pr.Reason))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | analysed | %s | %s | %s |\n",
			pr.Perspective, strings.Join(pr.Strategies, ", "), dash(pr.Base), dash(pr.Focal)))
	}
	sb.WriteString("\n")

	// Frontier at the ends of the grid
	sb.WriteString("## Frontier\n\n")
	wrote := false
	for _, pr := range r.Results {
		f := pr.Acceptability.Frontier
		if pr.Skipped || len(f) == 0 {
			continue
		}
		first, last := f[0], f[len(f)-1]
		sb.WriteString(fmt.Sprintf("- %s: %s at λ=%s (p=%.4f), %s at λ=%s (p=%.4f)\n",
			pr.Perspective,
			first.Strategy, lambdaCell(first.Lambda), first.Probability,
			last.Strategy, lambdaCell(last.Lambda), last.Probability))
		wrote = true
	}
	if !wrote {
		sb.WriteString("No frontier available.\n")
	}
	sb.WriteString("\n")

	// Notes (always shown if present)
	var notes []string
	for _, pr := range r.Results {
		for _, n := range pr.Notes {
			notes = append(notes, fmt.Sprintf("%s: %s", pr.Perspective, n))
		}
	}
	if len(notes) > 0 {
		sb.WriteString("## Notes\n\n")
		for _, n := range notes {
			sb.WriteString(fmt.Sprintf("- %s\n", n))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
