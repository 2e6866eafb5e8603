package dataset

import (
	"errors"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Batch is one minibatch of features and regression targets.
type Batch struct {
	Features *mat.Dense
	Targets  []float64
}

// Rows returns the number of examples in the batch.
func (b Batch) Rows() int {
	r, _ := b.Features.Dims()
	return r
}

// Batcher serves seeded, shuffled minibatches over an in-memory split.
// Shuffle reorders the examples for the next epoch; the final batch of
// an epoch may be short.
type Batcher struct {
	features  *mat.Dense
	targets   []float64
	batchSize int
	rng       *rand.Rand
	order     []int
}

// NewBatcher builds a batcher over features and targets.
func NewBatcher(features *mat.Dense, targets []float64, batchSize int, seed int64) (*Batcher, error) {
	rows, _ := features.Dims()
	if rows == 0 {
		return nil, errors.New("batcher: no examples")
	}
	if rows != len(targets) {
		return nil, errors.New("batcher: features and targets disagree on row count")
	}
	if batchSize <= 0 {
		return nil, errors.New("batcher: batch size must be > 0")
	}
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	return &Batcher{
		features:  features,
		targets:   targets,
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(seed)),
		order:     order,
	}, nil
}

// Shuffle reorders the examples. Call once per epoch.
func (b *Batcher) Shuffle() {
	b.rng.Shuffle(len(b.order), func(i, j int) {
		b.order[i], b.order[j] = b.order[j], b.order[i]
	})
}

// NumBatches returns how many batches one epoch yields.
func (b *Batcher) NumBatches() int {
	return (len(b.order) + b.batchSize - 1) / b.batchSize
}

// Batch materializes the i-th batch of the current epoch order.
func (b *Batcher) Batch(i int) Batch {
	start := i * b.batchSize
	end := start + b.batchSize
	if end > len(b.order) {
		end = len(b.order)
	}
	idx := b.order[start:end]

	_, cols := b.features.Dims()
	features := mat.NewDense(len(idx), cols, nil)
	targets := make([]float64, len(idx))
	for row, src := range idx {
		features.SetRow(row, mat.Row(nil, src, b.features))
		targets[row] = b.targets[src]
	}
	return Batch{Features: features, Targets: targets}
}
