package features

import (
	"math"

	"StockStats/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

const (
	Return1D      = "return_1d"
	RollingMean5  = "rolling_mean_5"
	RollingStd5   = "rolling_std_5"
	RollingMean20 = "rolling_mean_20"
	RollingStd20  = "rolling_std_20"
	VolumeMean5   = "volume_mean_5"
	VolumeStd5    = "volume_std_5"
)

// FeatureColumns is the column order shared by training and inference.
var FeatureColumns = []string{
	Return1D,
	RollingMean5,
	RollingStd5,
	RollingMean20,
	RollingStd20,
	VolumeMean5,
	VolumeStd5,
}

// LongestWindow is the warm-up length after which every column is defined.
const LongestWindow = 20

// Build derives the feature frame for a series. Rows keep the input order and
// dates; undefined values are NaN.
func Build(series models.Series) models.FeatureFrame {
	closes := series.Closes()
	volumes := series.Volumes()

	ret := PctChange(closes)
	mean5, std5 := Rolling(closes, 5)
	mean20, std20 := Rolling(closes, 20)
	vmean5, vstd5 := Rolling(volumes, 5)

	cols := make([]string, len(FeatureColumns))
	copy(cols, FeatureColumns)

	rows := make([]models.FeatureRow, len(series))
	for i, bar := range series {
		rows[i] = models.FeatureRow{
			Date:   bar.Date,
			Values: []float64{ret[i], mean5[i], std5[i], mean20[i], std20[i], vmean5[i], vstd5[i]},
		}
	}
	return models.FeatureFrame{Columns: cols, Rows: rows}
}

// PctChange is the one-step percent change. The first element, and any step
// from a zero value, is NaN.
func PctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 || xs[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

// Rolling computes the trailing mean and sample standard deviation over
// window w. The first w-1 outputs are NaN.
func Rolling(xs []float64, w int) (means, stds []float64) {
	means = make([]float64, len(xs))
	stds = make([]float64, len(xs))
	for i := range xs {
		if w <= 0 || i < w-1 {
			means[i] = math.NaN()
			stds[i] = math.NaN()
			continue
		}
		means[i], stds[i] = stat.MeanStdDev(xs[i-w+1:i+1], nil)
	}
	return means, stds
}

// Complete drops every row that still contains an undefined value.
func Complete(f models.FeatureFrame) models.FeatureFrame {
	rows := make([]models.FeatureRow, 0, len(f.Rows))
	for _, r := range f.Rows {
		if rowComplete(r) {
			rows = append(rows, r)
		}
	}
	return models.FeatureFrame{Columns: f.Columns, Rows: rows}
}

func rowComplete(r models.FeatureRow) bool {
	for _, v := range r.Values {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Tail keeps the last n rows.
func Tail(f models.FeatureFrame, n int) models.FeatureFrame {
	if n < 0 {
		n = 0
	}
	if len(f.Rows) <= n {
		return f
	}
	return models.FeatureFrame{Columns: f.Columns, Rows: f.Rows[len(f.Rows)-n:]}
}

// Select builds a matrix with columns in the given order. Any name the frame
// does not carry is reported in a FeatureMismatchError.
func Select(f models.FeatureFrame, names []string) ([][]float64, error) {
	index := make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		index[c] = i
	}

	pos := make([]int, len(names))
	var missing []string
	for i, n := range names {
		j, ok := index[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		pos[i] = j
	}
	if len(missing) > 0 {
		return nil, &models.FeatureMismatchError{Missing: missing}
	}

	X := make([][]float64, len(f.Rows))
	for r, row := range f.Rows {
		x := make([]float64, len(pos))
		for i, j := range pos {
			x[i] = row.Values[j]
		}
		X[r] = x
	}
	return X, nil
}
