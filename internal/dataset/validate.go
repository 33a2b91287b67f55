package dataset

import (
	"context"
	"fmt"

	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/shape"
)

// Array is a raw, not yet normalized, N-dimensional array.
type Array struct {
	Shape []int
	Data  []float64
}

type number interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

// normalize divides every value by MaxPixel. Values outside [0, 255] are not
// clamped; they are counted so the caller can report them.
func normalize[T number](raw []T) ([]float64, int) {
	out := make([]float64, len(raw))
	bad := 0
	for i, v := range raw {
		f := float64(v)
		if f < 0 || f > MaxPixel {
			bad++
		}
		out[i] = f / MaxPixel
	}
	return out, bad
}

// checkArray enforces the per-array part of the contract: rank 4, positive
// dimensions and a data length matching the shape.
func checkArray(dims []int, n int) error {
	if len(dims) != 4 {
		return fmt.Errorf("%w: array must be shaped (N, C, H, W), got rank %d %v", ErrContract, len(dims), shape.Shape(dims))
	}
	if !shape.Shape(dims).Positive() {
		return fmt.Errorf("%w: array dimensions must be positive, got %v", ErrContract, shape.Shape(dims))
	}
	if want := shape.Shape(dims).Size(); want != n {
		return fmt.Errorf("%w: array shaped %v needs %d values, got %d", ErrContract, shape.Shape(dims), want, n)
	}
	return nil
}

func newDataset(family Family, split Split, dims []int, data []float64, bad int) *Dataset {
	return &Dataset{
		Family:     family,
		Split:      split,
		Shape:      shape.Of(dims[1:]...),
		Count:      dims[0],
		Data:       data,
		OutOfRange: bad,
	}
}

// pair joins both splits, asserting they share one sample shape.
func pair(ctx context.Context, family Family, dir string, train, eval *Dataset) (*Splits, error) {
	if !train.Shape.Equal(eval.Shape) {
		return nil, &LoadError{
			Family: family,
			Dir:    dir,
			Split:  Eval,
			Err:    fmt.Errorf("%w: eval sample shape %v differs from train sample shape %v", ErrContract, eval.Shape, train.Shape),
		}
	}

	logger := ctxlog.FromContext(ctx)
	for _, d := range []*Dataset{train, eval} {
		if d.OutOfRange > 0 {
			logger.Warn("Raw values outside [0, 255] were normalized without clamping.", "family", family, "split", d.Split, "count", d.OutOfRange)
		}
	}
	return &Splits{Train: train, Eval: eval}, nil
}

// FromArrays validates and normalizes in-memory arrays holding raw pixel values.
func FromArrays(ctx context.Context, family Family, train, eval Array) (*Splits, error) {
	build := func(split Split, a Array) (*Dataset, error) {
		if err := checkArray(a.Shape, len(a.Data)); err != nil {
			return nil, &LoadError{Family: family, Dir: "memory", Split: split, Err: err}
		}
		data, bad := normalize(a.Data)
		return newDataset(family, split, a.Shape, data, bad), nil
	}

	tr, err := build(Train, train)
	if err != nil {
		return nil, err
	}
	ev, err := build(Eval, eval)
	if err != nil {
		return nil, err
	}
	return pair(ctx, family, "memory", tr, ev)
}
