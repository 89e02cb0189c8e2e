// Package draws holds the draw table shared by every decision component.
package draws

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"trd-cea-lab/internal/domain"
)

// Draw table errors
var (
	ErrMisalignedDraws     = errors.New("draw ids differ across strategies")
	ErrPerspectiveNotFound = errors.New("perspective not found in draw table")
	ErrDuplicateDraw       = errors.New("duplicate draw record")
	ErrInvalidRecord       = errors.New("invalid draw record")
)

type key struct {
	draw        int
	strategy    string
	perspective domain.Perspective
}

// Table is an immutable collection of draw records.
// Records are copied on construction and on every accessor.
type Table struct {
	records []domain.DrawRecord
}

// New validates and copies records into a Table.
func New(records []domain.DrawRecord) (*Table, error) {
	seen := make(map[key]struct{}, len(records))
	var errs []error

	for i, r := range records {
		if !r.Perspective.IsValid() {
			errs = append(errs, fmt.Errorf("%w: row %d: unknown perspective %q", ErrInvalidRecord, i, r.Perspective))
		}
		if r.Strategy == "" {
			errs = append(errs, fmt.Errorf("%w: row %d: empty strategy", ErrInvalidRecord, i))
		}
		if !finiteNonNegative(r.Cost) || !finiteNonNegative(r.Effect) {
			errs = append(errs, fmt.Errorf("%w: row %d: cost=%v effect=%v", ErrInvalidRecord, i, r.Cost, r.Effect))
		}
		k := key{r.Draw, r.Strategy, r.Perspective}
		if _, dup := seen[k]; dup {
			errs = append(errs, fmt.Errorf("%w: draw %d strategy %s perspective %s",
				ErrDuplicateDraw, r.Draw, r.Strategy, r.Perspective))
		}
		seen[k] = struct{}{}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Table{records: slices.Clone(records)}, nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of all records.
func (t *Table) Records() []domain.DrawRecord {
	return slices.Clone(t.records)
}

// Perspectives returns the perspectives present, in reporting order.
func (t *Table) Perspectives() []domain.Perspective {
	var out []domain.Perspective
	for _, p := range domain.AllPerspectives {
		if t.has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (t *Table) has(p domain.Perspective) bool {
	for _, r := range t.records {
		if r.Perspective == p {
			return true
		}
	}
	return false
}

// Strategies returns the sorted strategy ids present under p.
func (t *Table) Strategies(p domain.Perspective) []string {
	set := map[string]struct{}{}
	for _, r := range t.records {
		if r.Perspective == p {
			set[r.Strategy] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Filter returns the records of one perspective as a new Table.
func (t *Table) Filter(p domain.Perspective) *Table {
	var out []domain.DrawRecord
	for _, r := range t.records {
		if r.Perspective == p {
			out = append(out, r)
		}
	}
	return &Table{records: out}
}

// Matrix builds aligned cost/effect arrays for every strategy under p.
// Every strategy must carry the same set of draw ids.
func (t *Table) Matrix(p domain.Perspective) (*Matrix, error) {
	strategies := t.Strategies(p)
	if len(strategies) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPerspectiveNotFound, p)
	}

	byStrategy := make(map[string]map[int]domain.DrawRecord, len(strategies))
	for _, r := range t.records {
		if r.Perspective != p {
			continue
		}
		if byStrategy[r.Strategy] == nil {
			byStrategy[r.Strategy] = map[int]domain.DrawRecord{}
		}
		byStrategy[r.Strategy][r.Draw] = r
	}

	ref := byStrategy[strategies[0]]
	ids := make([]int, 0, len(ref))
	for d := range ref {
		ids = append(ids, d)
	}
	slices.Sort(ids)

	m := &Matrix{
		Perspective: p,
		Strategies:  strategies,
		Draws:       ids,
		Cost:        make([][]float64, len(strategies)),
		Effect:      make([][]float64, len(strategies)),
	}

	var errs []error
	for i, s := range strategies {
		rows := byStrategy[s]
		if len(rows) != len(ids) {
			errs = append(errs, fmt.Errorf("%w: %s has %d draws, %s has %d",
				ErrMisalignedDraws, s, len(rows), strategies[0], len(ids)))
			continue
		}
		m.Cost[i] = make([]float64, len(ids))
		m.Effect[i] = make([]float64, len(ids))
		for j, d := range ids {
			r, ok := rows[d]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s is missing draw %d", ErrMisalignedDraws, s, d))
				break
			}
			m.Cost[i][j] = r.Cost
			m.Effect[i][j] = r.Effect
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}
