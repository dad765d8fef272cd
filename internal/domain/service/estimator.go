package service

// Estimator maps a feature matrix (one row per observation, columns in the
// trained order) to one prediction per row.
type Estimator interface {
	Predict(X [][]float64) ([]float64, error)
}
