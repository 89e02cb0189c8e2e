// Package tableio reads and writes the draw and parameter-sample CSV tables.
package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"trd-cea-lab/internal/domain"
)

// Table errors
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
)

// DrawColumns is the header of a draw table.
var DrawColumns = []string{"draw", "strategy", "cost", "effect", "perspective"}

// ReadDraws parses a draw table. Columns are matched by header name and
// may appear in any order; extra columns are ignored.
func ReadDraws(r io.Reader) ([]domain.DrawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header, DrawColumns)
	if err != nil {
		return nil, err
	}

	var out []domain.DrawRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		draw, err := strconv.Atoi(strings.TrimSpace(row[idx["draw"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: draw: %v", ErrMalformedRow, line, err)
		}
		cost, err := parseFloat(row[idx["cost"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: cost: %v", ErrMalformedRow, line, err)
		}
		effect, err := parseFloat(row[idx["effect"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: effect: %v", ErrMalformedRow, line, err)
		}
		p, err := domain.ParsePerspective(strings.TrimSpace(row[idx["perspective"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		out = append(out, domain.DrawRecord{
			Draw:        draw,
			Strategy:    strings.TrimSpace(row[idx["strategy"]]),
			Cost:        cost,
			Effect:      effect,
			Perspective: p,
		})
	}
	return out, nil
}

// WriteDraws writes records as a draw table in the given order.
func WriteDraws(w io.Writer, records []domain.DrawRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DrawColumns); err != nil {
		return err
	}
	for _, r := range records {
		err := cw.Write([]string{
			strconv.Itoa(r.Draw),
			r.Strategy,
			formatFloat(r.Cost),
			formatFloat(r.Effect),
			string(r.Perspective),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadDrawsFile reads a draw table from path.
func ReadDrawsFile(path string) ([]domain.DrawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadDraws(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteDrawsFile writes a draw table to path.
func WriteDrawsFile(path string, records []domain.DrawRecord) error {
	return writeFile(path, func(w io.Writer) error { return WriteDraws(w, records) })
}

func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// formatFloat writes the shortest representation that parses back exactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
