package dataset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted indicates Transform was called before Fit.
var ErrNotFitted = errors.New("scaler: not fitted")

// StandardScaler rescales feature columns to zero mean and unit
// variance. The statistics are learned once from training data and
// then applied unchanged to any split, so test data is never allowed
// to influence them.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// NewStandardScaler returns an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit learns per-column mean and standard deviation from x.
func (s *StandardScaler) Fit(x mat.Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("scaler: empty matrix")
	}
	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		m, sd := stat.MeanStdDev(col, nil)
		// A constant column carries no signal; dividing by 1 maps it
		// to all zeros instead of NaN.
		if sd == 0 || rows < 2 {
			sd = 1
		}
		s.mean[j] = m
		s.std[j] = sd
	}
	return nil
}

// Transform returns (x - mean) / std using the fitted statistics.
func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if s.mean == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("scaler: fitted on %d columns, got %d", len(s.mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (x.At(i, j)-s.mean[j])/s.std[j])
		}
	}
	return out, nil
}

// FitTransform fits on x and returns its transform.
func (s *StandardScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// Mean returns a copy of the fitted per-column means.
func (s *StandardScaler) Mean() []float64 {
	return append([]float64(nil), s.mean...)
}

// Std returns a copy of the fitted per-column standard deviations.
func (s *StandardScaler) Std() []float64 {
	return append([]float64(nil), s.std...)
}
