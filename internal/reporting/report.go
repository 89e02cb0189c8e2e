package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trd-cea-lab/internal/orchestrator"
)

// Report is the result bundle of one analysis run.
type Report struct {
	// Metadata
	GeneratedAt  time.Time
	RunID        string
	ConfigHash   string
	Jurisdiction string
	Draws        int

	// Per-perspective results, skipped perspectives included
	Results []*orchestrator.PerspectiveResult
}

// Result file names written by Writer.
const (
	FileNMB     = "nmb_ceac.csv"
	FileCEAF    = "ceaf.csv"
	FileEVPI    = "evpi.csv"
	FileEquity  = "equity.csv"
	FileVBP     = "vbp.csv"
	FilePRCC    = "prcc.csv"
	FileICER    = "icer.csv"
	FileSummary = "summary.md"
)

// Writer renders reports into a directory.
type Writer struct {
	dir string
	now func() time.Time // Injectable clock for deterministic output
}

// NewWriter creates a writer for dir. The directory is created on Write.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// NewReport stamps a report with the writer's clock.
func (w *Writer) NewReport(runID string, results []*orchestrator.PerspectiveResult) *Report {
	return &Report{
		GeneratedAt: w.now(),
		RunID:       runID,
		Results:     results,
	}
}

// Write renders every result table of r and returns the written paths.
func (w *Writer) Write(r *Report) ([]string, error) {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = w.now()
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{FileNMB, RenderNMB(r.Results)},
		{FileCEAF, RenderCEAF(r.Results)},
		{FileEVPI, RenderEVPI(r.Results)},
		{FileEquity, RenderEquity(r.Results)},
		{FileVBP, RenderVBP(r.Results)},
		{FilePRCC, RenderPRCC(r.Results)},
		{FileICER, RenderICER(r.Results)},
		{FileSummary, RenderSummary(r)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(w.dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
