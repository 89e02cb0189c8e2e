package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"trd-cea-lab/internal/domain"
)

// ReadParameters parses a wide parameter table "draw,<param1>,<param2>,...".
// Empty cells are treated as missing and produce no sample.
func ReadParameters(r io.Reader) ([]domain.ParameterSample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	drawCol := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if strings.EqualFold(header[i], "draw") {
			drawCol = i
		}
	}
	if drawCol < 0 {
		return nil, fmt.Errorf("%w: draw", ErrMissingColumn)
	}

	seen := make(map[int]bool)
	var out []domain.ParameterSample
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		draw, err := strconv.Atoi(strings.TrimSpace(row[drawCol]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: draw: %v", ErrMalformedRow, line, err)
		}
		if seen[draw] {
			return nil, fmt.Errorf("%w: line %d: duplicate draw %d", ErrMalformedRow, line, draw)
		}
		seen[draw] = true

		for i, cell := range row {
			if i == drawCol || strings.TrimSpace(cell) == "" {
				continue
			}
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %v", ErrMalformedRow, line, header[i], err)
			}
			out = append(out, domain.ParameterSample{Draw: draw, Name: header[i], Value: v})
		}
	}
	return out, nil
}

// WriteParameters pivots samples into a wide table with parameters in
// name order and draws ascending. Missing values are left empty.
func WriteParameters(w io.Writer, samples []domain.ParameterSample) error {
	values := make(map[int]map[string]float64)
	names := make(map[string]struct{})
	for _, s := range samples {
		if values[s.Draw] == nil {
			values[s.Draw] = make(map[string]float64)
		}
		values[s.Draw][s.Name] = s.Value
		names[s.Name] = struct{}{}
	}

	cols := make([]string, 0, len(names))
	for n := range names {
		cols = append(cols, n)
	}
	sort.Strings(cols)
	draws := make([]int, 0, len(values))
	for d := range values {
		draws = append(draws, d)
	}
	sort.Ints(draws)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"draw"}, cols...)); err != nil {
		return err
	}
	row := make([]string, len(cols)+1)
	for _, d := range draws {
		row[0] = strconv.Itoa(d)
		for i, c := range cols {
			row[i+1] = ""
			if v, ok := values[d][c]; ok {
				row[i+1] = formatFloat(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadParametersFile reads a parameter table from path.
func ReadParametersFile(path string) ([]domain.ParameterSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := ReadParameters(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// WriteParametersFile writes a parameter table to path.
func WriteParametersFile(path string, samples []domain.ParameterSample) error {
	return writeFile(path, func(w io.Writer) error { return WriteParameters(w, samples) })
}
