package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vk/gmtrain/internal/shape"
)

// Family identifies a supported input domain.
type Family string

const (
	MNIST   Family = "mnist"
	CIFAR10 Family = "cifar10"
	CelebA  Family = "celeba"
)

var canonicalShapes = map[Family]shape.Shape{
	MNIST:   {1, 28, 28},
	CIFAR10: {3, 32, 32},
	CelebA:  {3, 64, 64},
}

// Families returns the supported family tokens in sorted order.
func Families() []Family {
	out := make([]Family, 0, len(canonicalShapes))
	for f := range canonicalShapes {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanonicalShape returns the sample shape the benchmark architectures for
// this family are built for. It is nil for unknown families.
func (f Family) CanonicalShape() shape.Shape {
	return canonicalShapes[f].Clone()
}

func (f Family) String() string { return string(f) }

// Split names one half of a run's data.
type Split string

const (
	Train Split = "train"
	Eval  Split = "eval"
)

const (
	// DataKey is the array name expected inside each archive.
	DataKey = "data"
	// MaxPixel is the divisor applied to every raw value.
	MaxPixel = 255.0
)

// FileName returns the archive name for a split.
func (s Split) FileName() string {
	return string(s) + "_data.npz"
}

// Layout describes the on-disk contract, used in error messages.
const Layout = "<dir>/train_data.npz and <dir>/eval_data.npz, each holding an integer array in [0, 255] under key \"data\" shaped (N, C, H, W)"

// ErrContract marks data that was readable but violates the dataset contract.
var ErrContract = errors.New("dataset contract violated")

// Dataset is one normalized split. It must be treated as read-only once built.
type Dataset struct {
	Family Family
	Split  Split
	// Shape is the per-sample shape (C, H, W).
	Shape shape.Shape
	Count int
	// Data holds Count*Shape.Size() values in row-major order.
	Data []float64
	// OutOfRange counts raw values that were outside [0, 255].
	OutOfRange int
}

// Splits is the validated train/eval pair for a run.
type Splits struct {
	Train *Dataset
	Eval  *Dataset
}

// Shape returns the sample shape shared by both splits.
func (s *Splits) Shape() shape.Shape {
	return s.Train.Shape.Clone()
}

// LoadError reports a dataset that could not be loaded or failed validation.
type LoadError struct {
	Family Family
	Dir    string
	Split  Split
	Err    error
}

func (e *LoadError) Error() string {
	where := e.Dir
	if e.Split != "" {
		where = fmt.Sprintf("%s (%s split)", e.Dir, e.Split)
	}
	return fmt.Sprintf("failed to load dataset %q from %s: %v; expected layout: %s", e.Family, where, e.Err, Layout)
}

func (e *LoadError) Unwrap() error { return e.Err }
