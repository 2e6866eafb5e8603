package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DefaultBaseURL hosts the Boston Housing CSV splits used by the demo.
const DefaultBaseURL = "https://storage.googleapis.com/tfjs-examples/multivariate-linear-regression/data/"

// Fixed resource names under the base URL.
const (
	trainDataFile   = "train-data.csv"
	trainTargetFile = "train-target.csv"
	testDataFile    = "test-data.csv"
	testTargetFile  = "test-target.csv"
)

// ErrEmptyDataset indicates a resource parsed to zero data rows.
var ErrEmptyDataset = errors.New("dataset: no data rows")

// Dataset holds the loaded train/test splits. Replaces the browser
// demo's ambient global state: it is built once by Load and treated as
// immutable afterwards.
type Dataset struct {
	TrainFeatures *mat.Dense
	TrainTargets  []float64
	TestFeatures  *mat.Dense
	TestTargets   []float64
}

// NumFeatures returns the feature column count.
func (d *Dataset) NumFeatures() int {
	_, c := d.TrainFeatures.Dims()
	return c
}

// NumTrain returns the number of training examples.
func (d *Dataset) NumTrain() int {
	r, _ := d.TrainFeatures.Dims()
	return r
}

// NumTest returns the number of test examples.
func (d *Dataset) NumTest() int {
	r, _ := d.TestFeatures.Dims()
	return r
}

// LoadOptions configures the dataset loader.
type LoadOptions struct {
	// BaseURL is the directory URL the four CSV resources live under.
	BaseURL string
	// CacheDir, when non-empty, is checked before fetching and written
	// after a successful fetch.
	CacheDir string
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Load fetches and parses the four CSV splits.
func Load(ctx context.Context, opts LoadOptions) (*Dataset, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	trainX, err := loadMatrix(ctx, opts, trainDataFile)
	if err != nil {
		return nil, err
	}
	trainY, err := loadVector(ctx, opts, trainTargetFile)
	if err != nil {
		return nil, err
	}
	testX, err := loadMatrix(ctx, opts, testDataFile)
	if err != nil {
		return nil, err
	}
	testY, err := loadVector(ctx, opts, testTargetFile)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		TrainFeatures: trainX,
		TrainTargets:  trainY,
		TestFeatures:  testX,
		TestTargets:   testY,
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (d *Dataset) validate() error {
	trainRows, trainCols := d.TrainFeatures.Dims()
	testRows, testCols := d.TestFeatures.Dims()
	if trainCols != testCols {
		return fmt.Errorf("dataset: train has %d feature columns, test has %d", trainCols, testCols)
	}
	if trainRows != len(d.TrainTargets) {
		return fmt.Errorf("dataset: %d train rows but %d train targets", trainRows, len(d.TrainTargets))
	}
	if testRows != len(d.TestTargets) {
		return fmt.Errorf("dataset: %d test rows but %d test targets", testRows, len(d.TestTargets))
	}
	return nil
}

func loadMatrix(ctx context.Context, opts LoadOptions, name string) (*mat.Dense, error) {
	raw, err := fetchResource(ctx, opts, name)
	if err != nil {
		return nil, err
	}
	m, err := parseMatrix(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return m, nil
}

func loadVector(ctx context.Context, opts LoadOptions, name string) ([]float64, error) {
	raw, err := fetchResource(ctx, opts, name)
	if err != nil {
		return nil, err
	}
	m, err := parseMatrix(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	rows, cols := m.Dims()
	if cols != 1 {
		return nil, fmt.Errorf("parse %s: expected 1 target column, got %d", name, cols)
	}
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.At(i, 0)
	}
	return out, nil
}

// fetchResource returns the resource body, serving from the cache
// directory when possible. There is no retry: a failed fetch is a
// failed load.
func fetchResource(ctx context.Context, opts LoadOptions, name string) ([]byte, error) {
	var cachePath string
	if opts.CacheDir != "" {
		cachePath = filepath.Join(opts.CacheDir, name)
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	url := opts.BaseURL + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	if cachePath != "" {
		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			return nil, fmt.Errorf("write cache %s: %w", cachePath, err)
		}
	}
	return data, nil
}

// parseMatrix reads CSV rows into a dense matrix. A leading header row
// (any cell that is not a number) is skipped; every data row must have
// the same width.
func parseMatrix(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		data []float64
		rows int
		cols int
	)
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		values, ok := parseRow(record)
		if !ok {
			if first {
				first = false
				continue // header
			}
			return nil, fmt.Errorf("row %d: non-numeric cell", rows+1)
		}
		first = false
		if cols == 0 {
			cols = len(values)
		} else if len(values) != cols {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", rows+1, cols, len(values))
		}
		data = append(data, values...)
		rows++
	}
	if rows == 0 {
		return nil, ErrEmptyDataset
	}
	return mat.NewDense(rows, cols, data), nil
}

func parseRow(record []string) ([]float64, bool) {
	if len(record) == 0 {
		return nil, false
	}
	values := make([]float64, len(record))
	for i, cell := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
