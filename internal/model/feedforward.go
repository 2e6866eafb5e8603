package model

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	activationNone    = "none"
	activationSigmoid = "sigmoid"

	hiddenWidth = 50
)

// NewLinear builds a single dense layer of width 1 with no activation:
// plain linear regression trained by SGD.
func NewLinear(inputDim int, lr float64, seed int64) (*Feedforward, error) {
	return newFeedforward("linear", inputDim, lr, seed, []LayerSpec{
		{Width: 1, Activation: activationNone},
	})
}

// NewMLP builds the small perceptron variant: two sigmoid hidden layers
// of width 50 and a linear output unit.
func NewMLP(inputDim int, lr float64, seed int64) (*Feedforward, error) {
	return newFeedforward("mlp", inputDim, lr, seed, []LayerSpec{
		{Width: hiddenWidth, Activation: activationSigmoid},
		{Width: hiddenWidth, Activation: activationSigmoid},
		{Width: 1, Activation: activationNone},
	})
}

// Feedforward is a stack of dense layers trained with minibatch SGD on
// mean squared error. Weights are owned by the model and mutated only
// by TrainStep.
type Feedforward struct {
	name   string
	layers []*denseLayer
	lr     float64
}

func newFeedforward(name string, inputDim int, lr float64, seed int64, specs []LayerSpec) (*Feedforward, error) {
	if inputDim <= 0 {
		return nil, errors.New("model: input dimension must be > 0")
	}
	if lr <= 0 {
		return nil, errors.New("model: learning rate must be > 0")
	}
	rng := rand.New(rand.NewSource(seed))
	layers := make([]*denseLayer, 0, len(specs))
	in := inputDim
	for _, spec := range specs {
		layers = append(layers, newDenseLayer(in, spec.Width, spec.Activation, rng))
		in = spec.Width
	}
	return &Feedforward{name: name, layers: layers, lr: lr}, nil
}

// Name returns the model kind.
func (m *Feedforward) Name() string {
	return m.name
}

// Layers reports the layer widths and activations.
func (m *Feedforward) Layers() []LayerSpec {
	specs := make([]LayerSpec, len(m.layers))
	for i, l := range m.layers {
		specs[i] = LayerSpec{Width: l.out, Activation: l.activation}
	}
	return specs
}

// Predict runs a forward pass and returns one prediction per row of x.
func (m *Feedforward) Predict(x *mat.Dense) []float64 {
	out := m.forward(x)
	rows, _ := out.Dims()
	pred := make([]float64, rows)
	for i := 0; i < rows; i++ {
		pred[i] = out.At(i, 0)
	}
	return pred
}

// TrainStep runs one SGD step on the batch and returns its mean
// squared error before the update.
func (m *Feedforward) TrainStep(x *mat.Dense, targets []float64) float64 {
	rows, _ := x.Dims()
	if rows == 0 || rows != len(targets) {
		return 0
	}
	out := m.forward(x)

	// dLoss/dOut for MSE, and the loss itself from the same pass.
	n := float64(rows)
	loss := 0.0
	grad := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		diff := out.At(i, 0) - targets[i]
		loss += diff * diff
		grad.Set(i, 0, 2*diff/n)
	}
	loss /= n

	for i := len(m.layers) - 1; i >= 0; i-- {
		grad = m.layers[i].backward(grad, m.lr)
	}
	return loss
}

func (m *Feedforward) forward(x *mat.Dense) *mat.Dense {
	out := x
	for _, l := range m.layers {
		out = l.forward(out)
	}
	return out
}

// denseLayer is a fully connected layer with an optional sigmoid.
type denseLayer struct {
	in         int
	out        int
	activation string
	weights    *mat.Dense // in x out
	bias       []float64

	// cached by forward for the following backward pass
	input  *mat.Dense
	output *mat.Dense
}

// newDenseLayer initializes weights with Glorot-uniform noise.
func newDenseLayer(in, out int, activation string, rng *rand.Rand) *denseLayer {
	limit := math.Sqrt(6.0 / float64(in+out))
	weights := mat.NewDense(in, out, nil)
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			weights.Set(i, j, (rng.Float64()*2-1)*limit)
		}
	}
	return &denseLayer{
		in:         in,
		out:        out,
		activation: activation,
		weights:    weights,
		bias:       make([]float64, out),
	}
}

func (l *denseLayer) forward(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	z := mat.NewDense(rows, l.out, nil)
	z.Mul(x, l.weights)
	for i := 0; i < rows; i++ {
		for j := 0; j < l.out; j++ {
			v := z.At(i, j) + l.bias[j]
			if l.activation == activationSigmoid {
				v = sigmoid(v)
			}
			z.Set(i, j, v)
		}
	}
	l.input = x
	l.output = z
	return z
}

// backward consumes dLoss/dOutput, applies the SGD update, and returns
// dLoss/dInput for the layer below.
func (l *denseLayer) backward(grad *mat.Dense, lr float64) *mat.Dense {
	rows, _ := grad.Dims()

	dz := grad
	if l.activation == activationSigmoid {
		dz = mat.NewDense(rows, l.out, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < l.out; j++ {
				a := l.output.At(i, j)
				dz.Set(i, j, grad.At(i, j)*a*(1-a))
			}
		}
	}

	dw := mat.NewDense(l.in, l.out, nil)
	dw.Mul(l.input.T(), dz)

	// dInput must be computed against the pre-update weights.
	dinput := mat.NewDense(rows, l.in, nil)
	dinput.Mul(dz, l.weights.T())

	for i := 0; i < l.in; i++ {
		for j := 0; j < l.out; j++ {
			l.weights.Set(i, j, l.weights.At(i, j)-lr*dw.At(i, j))
		}
	}
	for j := 0; j < l.out; j++ {
		db := 0.0
		for i := 0; i < rows; i++ {
			db += dz.At(i, j)
		}
		l.bias[j] -= lr * db
	}
	return dinput
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
