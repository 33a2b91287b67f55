// Package shape defines the channel-first sample shape shared by datasets,
// model configurations and architecture descriptors.
package shape

import (
	"fmt"
	"strings"
)

// Shape is the per-sample dimension tuple, e.g. (C, H, W).
type Shape []int

// Of builds a Shape from its dimensions.
func Of(dims ...int) Shape {
	return Shape(dims).Clone()
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Equal reports whether both shapes have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Size is the number of scalar elements in one sample.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Positive reports whether every dimension is strictly positive.
func (s Shape) Positive() bool {
	if len(s) == 0 {
		return false
	}
	for _, d := range s {
		if d <= 0 {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
