package model

import "errors"

// MinMaxScaler maps each feature dimension into [0, 1] using the minimum and
// range observed at fit time. Fitted on the training split only; applying it
// to unseen data may produce values outside [0, 1], which is intentional.
type MinMaxScaler struct {
	Min   []float64 `json:"min"`
	Range []float64 `json:"range"` // max - min
}

// FitMinMaxScaler computes scaling parameters from a feature matrix.
func FitMinMaxScaler(X [][]float64) (*MinMaxScaler, error) {
	if len(X) == 0 {
		return nil, errors.New("no rows to fit scaler on")
	}
	featureCount := len(X[0])
	if featureCount == 0 {
		return nil, errors.New("rows have no features")
	}

	min := make([]float64, featureCount)
	max := make([]float64, featureCount)
	copy(min, X[0])
	copy(max, X[0])

	for _, row := range X[1:] {
		if len(row) != featureCount {
			return nil, errors.New("inconsistent feature dimensions")
		}
		for i, val := range row {
			if val < min[i] {
				min[i] = val
			}
			if val > max[i] {
				max[i] = val
			}
		}
	}

	featureRange := make([]float64, featureCount)
	for i := range featureRange {
		featureRange[i] = max[i] - min[i]
		// Prevent division by zero for constant features
		if featureRange[i] < 1e-10 {
			featureRange[i] = 1.0
		}
	}

	return &MinMaxScaler{Min: min, Range: featureRange}, nil
}

// Transform scales a single feature vector.
func (s *MinMaxScaler) Transform(features []float64) []float64 {
	scaled := make([]float64, len(features))
	for i, val := range features {
		scaled[i] = (val - s.Min[i]) / s.Range[i]
	}
	return scaled
}

// TransformMatrix scales every row of a feature matrix.
func (s *MinMaxScaler) TransformMatrix(X [][]float64) [][]float64 {
	scaled := make([][]float64, len(X))
	for i, row := range X {
		scaled[i] = s.Transform(row)
	}
	return scaled
}
