package models

import "time"

// FeatureRow is one date-aligned row of derived features. NaN marks a value
// that is still warming up.
type FeatureRow struct {
	Date   time.Time
	Values []float64
}

// FeatureFrame is a feature table with a fixed column order.
type FeatureFrame struct {
	Columns []string
	Rows    []FeatureRow
}

// PredictionResult is the reduced model output for one symbol.
type PredictionResult struct {
	Symbol     string   `json:"symbol"`
	Prediction float64  `json:"prediction"`
	AsOf       string   `json:"as_of"`
	Features   []string `json:"features"`
	Rows       int      `json:"rows"`
}
