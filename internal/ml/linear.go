package ml

import "fmt"

// LinearModel is an ordinary least squares regressor.
type LinearModel struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func (m *LinearModel) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(m.Coefficients))
		}
		y := m.Intercept
		for j, x := range row {
			y += m.Coefficients[j] * x
		}
		out[i] = y
	}
	return out, nil
}

func (m *LinearModel) validate(nFeatures int) error {
	if len(m.Coefficients) != nFeatures {
		return fmt.Errorf("linear model has %d coefficients for %d features", len(m.Coefficients), nFeatures)
	}
	return nil
}
