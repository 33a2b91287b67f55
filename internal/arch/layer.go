package arch

import (
	"errors"
	"fmt"

	"github.com/vk/gmtrain/internal/shape"
)

// ErrShape is returned when a layer cannot accept its input shape.
var ErrShape = errors.New("incompatible shape")

// Layer is a single network stage.
type Layer interface {
	Kind() string
	// OutShape returns the shape produced for an input shape.
	OutShape(in shape.Shape) (shape.Shape, error)
	// Params is the number of trainable scalars owned by the layer.
	Params() int
	String() string
}

// Conv2d is a 2-D convolution with bias.
type Conv2d struct {
	In, Out                 int
	Kernel, Stride, Padding int
}

func (Conv2d) Kind() string { return "Conv2d" }

func (l Conv2d) OutShape(in shape.Shape) (shape.Shape, error) {
	if err := expectChannels(in, l.In); err != nil {
		return nil, err
	}
	nh := in[1] + 2*l.Padding - l.Kernel
	nw := in[2] + 2*l.Padding - l.Kernel
	if nh < 0 || nw < 0 || l.Stride <= 0 {
		return nil, fmt.Errorf("%w: kernel %d does not fit %v", ErrShape, l.Kernel, in)
	}
	h, w := nh/l.Stride+1, nw/l.Stride+1
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: %v collapses to %dx%d", ErrShape, in, h, w)
	}
	return shape.Of(l.Out, h, w), nil
}

func (l Conv2d) Params() int { return l.Out*l.In*l.Kernel*l.Kernel + l.Out }

func (l Conv2d) String() string {
	return fmt.Sprintf("Conv2d(%d, %d, kernel=%d, stride=%d, padding=%d)", l.In, l.Out, l.Kernel, l.Stride, l.Padding)
}

// ConvTranspose2d is a 2-D transposed convolution with bias.
type ConvTranspose2d struct {
	In, Out                 int
	Kernel, Stride, Padding int
	OutputPadding           int
}

func (ConvTranspose2d) Kind() string { return "ConvTranspose2d" }

func (l ConvTranspose2d) OutShape(in shape.Shape) (shape.Shape, error) {
	if err := expectChannels(in, l.In); err != nil {
		return nil, err
	}
	h := (in[1]-1)*l.Stride - 2*l.Padding + l.Kernel + l.OutputPadding
	w := (in[2]-1)*l.Stride - 2*l.Padding + l.Kernel + l.OutputPadding
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: %v collapses to %dx%d", ErrShape, in, h, w)
	}
	return shape.Of(l.Out, h, w), nil
}

func (l ConvTranspose2d) Params() int { return l.In*l.Out*l.Kernel*l.Kernel + l.Out }

func (l ConvTranspose2d) String() string {
	s := fmt.Sprintf("ConvTranspose2d(%d, %d, kernel=%d, stride=%d, padding=%d", l.In, l.Out, l.Kernel, l.Stride, l.Padding)
	if l.OutputPadding != 0 {
		s += fmt.Sprintf(", output_padding=%d", l.OutputPadding)
	}
	return s + ")"
}

// BatchNorm2d normalizes per channel with a learned scale and shift.
type BatchNorm2d struct {
	Features int
}

func (BatchNorm2d) Kind() string { return "BatchNorm2d" }

func (l BatchNorm2d) OutShape(in shape.Shape) (shape.Shape, error) {
	if err := expectChannels(in, l.Features); err != nil {
		return nil, err
	}
	return in.Clone(), nil
}

func (l BatchNorm2d) Params() int { return 2 * l.Features }

func (l BatchNorm2d) String() string { return fmt.Sprintf("BatchNorm2d(%d)", l.Features) }

// Linear is a fully connected layer.
type Linear struct {
	In, Out int
	NoBias  bool
}

func (Linear) Kind() string { return "Linear" }

func (l Linear) OutShape(in shape.Shape) (shape.Shape, error) {
	if len(in) != 1 || in[0] != l.In {
		return nil, fmt.Errorf("%w: Linear expects (%d), got %v", ErrShape, l.In, in)
	}
	return shape.Of(l.Out), nil
}

func (l Linear) Params() int {
	if l.NoBias {
		return l.In * l.Out
	}
	return l.In*l.Out + l.Out
}

func (l Linear) String() string {
	if l.NoBias {
		return fmt.Sprintf("Linear(%d, %d, bias=False)", l.In, l.Out)
	}
	return fmt.Sprintf("Linear(%d, %d)", l.In, l.Out)
}

// Flatten collapses a sample to one dimension.
type Flatten struct{}

func (Flatten) Kind() string { return "Flatten" }

func (Flatten) OutShape(in shape.Shape) (shape.Shape, error) {
	if !in.Positive() {
		return nil, fmt.Errorf("%w: cannot flatten %v", ErrShape, in)
	}
	return shape.Of(in.Size()), nil
}

func (Flatten) Params() int    { return 0 }
func (Flatten) String() string { return "Flatten()" }

// Reshape views a sample with a new shape of the same size.
type Reshape struct {
	To shape.Shape
}

func (Reshape) Kind() string { return "Reshape" }

func (l Reshape) OutShape(in shape.Shape) (shape.Shape, error) {
	if in.Size() != l.To.Size() {
		return nil, fmt.Errorf("%w: cannot reshape %v to %v", ErrShape, in, l.To)
	}
	return l.To.Clone(), nil
}

func (Reshape) Params() int      { return 0 }
func (l Reshape) String() string { return "Reshape" + l.To.String() }

// Activation is a parameter-free elementwise function.
type Activation string

const (
	ReLU     Activation = "ReLU"
	Sigmoid  Activation = "Sigmoid"
	Hardtanh Activation = "Hardtanh"
)

func (a Activation) Kind() string { return string(a) }

func (a Activation) OutShape(in shape.Shape) (shape.Shape, error) { return in.Clone(), nil }

func (Activation) Params() int      { return 0 }
func (a Activation) String() string { return string(a) + "()" }

// Param is a free trainable tensor that is not applied to an input, such as
// a learned scalar or a table of pseudo-inputs.
type Param struct {
	Name  string
	Shape shape.Shape
}

func (Param) Kind() string { return "Parameter" }

func (l Param) OutShape(shape.Shape) (shape.Shape, error) { return l.Shape.Clone(), nil }

func (l Param) Params() int    { return l.Shape.Size() }
func (l Param) String() string { return fmt.Sprintf("Parameter(%s%v)", l.Name, l.Shape) }

func expectChannels(in shape.Shape, channels int) error {
	if len(in) != 3 {
		return fmt.Errorf("%w: expected (C, H, W), got %v", ErrShape, in)
	}
	if in[0] != channels {
		return fmt.Errorf("%w: expected %d channels, got %v", ErrShape, channels, in)
	}
	return nil
}
