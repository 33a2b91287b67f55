package arch

import (
	"fmt"

	"github.com/vk/gmtrain/internal/shape"
)

// Block is a named sequential stack whose shapes have been inferred.
type Block struct {
	Name   string
	Input  shape.Shape
	Output shape.Shape
	Layers []Layer
	shapes []shape.Shape
}

// NewBlock threads input through layers and fails on the first layer that
// rejects its input shape.
func NewBlock(name string, input shape.Shape, layers ...Layer) (*Block, error) {
	b := &Block{Name: name, Input: input.Clone(), Layers: layers}
	cur := input.Clone()
	for i, l := range layers {
		out, err := l.OutShape(cur)
		if err != nil {
			return nil, fmt.Errorf("%s: layer %d %s: %w", name, i, l, err)
		}
		b.shapes = append(b.shapes, out)
		cur = out
	}
	b.Output = cur
	return b, nil
}

// Params sums the trainable parameters of every layer. A nil block has none.
func (b *Block) Params() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, l := range b.Layers {
		n += l.Params()
	}
	return n
}

// LayerSummary is a serializable view of one layer.
type LayerSummary struct {
	Kind   string `json:"kind"`
	Layer  string `json:"layer"`
	Output []int  `json:"output"`
	Params int    `json:"params"`
}

// Describe returns one summary per layer, in order.
func (b *Block) Describe() []LayerSummary {
	if b == nil {
		return nil
	}
	out := make([]LayerSummary, len(b.Layers))
	for i, l := range b.Layers {
		out[i] = LayerSummary{
			Kind:   l.Kind(),
			Layer:  l.String(),
			Output: b.shapes[i].Clone(),
			Params: l.Params(),
		}
	}
	return out
}
