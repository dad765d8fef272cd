package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"StockStats/internal/domain/models"
	domrepo "StockStats/internal/domain/repository"
	"StockStats/pkg/util"
)

var _ domrepo.SampleReader = (*CSVSampleReader)(nil)

// CSVSampleReader loads a price export whose first column is the date index.
// Extra header rows (as written by yfinance) are skipped because their first
// cell is not a date.
type CSVSampleReader struct{}

func NewCSVSampleReader() *CSVSampleReader { return &CSVSampleReader{} }

var sampleColumns = []string{"open", "high", "low", "close", "volume"}

func (r *CSVSampleReader) Read(path string) (models.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sample file: %w", models.ErrRetrieval, err)
	}
	defer f.Close()

	series, err := parseSample(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrRetrieval, path, err)
	}
	return series, nil
}

func parseSample(src io.Reader) (models.Series, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(sampleColumns))
	for i, name := range sampleColumns {
		pos, ok := idx[name]
		if !ok || pos == 0 {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[i] = pos
	}

	var out models.Series
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 0 {
			continue
		}
		date, ok := util.ParseBarDate(strings.TrimSpace(rec[0]))
		if !ok {
			continue
		}

		var vals [5]float64
		complete := true
		for i, c := range cols {
			if c >= len(rec) || strings.TrimSpace(rec[c]) == "" {
				complete = false
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, sampleColumns[i], err)
			}
			vals[i] = v
		}
		if !complete {
			continue
		}

		out = append(out, models.Bar{
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
