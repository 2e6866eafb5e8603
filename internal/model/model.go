package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Supported model kinds.
const (
	KindLinear = "linear"
	KindMLP    = "mlp"
)

// Regressor defines the minimal training functionality required by the
// demo: batched prediction and one SGD step.
type Regressor interface {
	Name() string
	Predict(x *mat.Dense) []float64
	TrainStep(x *mat.Dense, targets []float64) float64
	Layers() []LayerSpec
}

// LayerSpec describes one dense layer for inspection and logging.
type LayerSpec struct {
	Width      int
	Activation string
}

// New constructs a regressor of the given kind.
func New(kind string, inputDim int, lr float64, seed int64) (Regressor, error) {
	switch kind {
	case KindLinear:
		return NewLinear(inputDim, lr, seed)
	case KindMLP:
		return NewMLP(inputDim, lr, seed)
	default:
		return nil, fmt.Errorf("model: unknown kind %q", kind)
	}
}
