package dataset

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vk/gmtrain/internal/shape"
)

// Stats summarizes one split for reporting.
type Stats struct {
	Split Split
	Shape shape.Shape
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// Summary computes reporting statistics over the normalized values.
func Summary(d *Dataset) Stats {
	st := Stats{
		Split: d.Split,
		Shape: append(shape.Shape{d.Count}, d.Shape...),
		Count: d.Count,
	}
	if len(d.Data) == 0 {
		return st
	}
	st.Min = floats.Min(d.Data)
	st.Max = floats.Max(d.Data)
	st.Mean = stat.Mean(d.Data, nil)
	return st
}
