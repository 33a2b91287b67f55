package arch

import (
	"errors"
	"fmt"

	"github.com/vk/gmtrain/internal/shape"
)

// ErrLatentDim is returned for a non-positive latent dimension.
var ErrLatentDim = errors.New("latent_dim must be positive")

// Spec is what a constructor needs from a model configuration.
type Spec struct {
	InputDim  shape.Shape
	LatentDim int
}

func (s Spec) validate() error {
	if s.LatentDim <= 0 {
		return fmt.Errorf("%w, got %d", ErrLatentDim, s.LatentDim)
	}
	if len(s.InputDim) != 3 || !s.InputDim.Positive() {
		return fmt.Errorf("%w: input_dim must be (C, H, W), got %v", ErrShape, s.InputDim)
	}
	return nil
}

// Encoder maps a sample to a latent code. Variational encoders carry a
// second head for the log-variance.
type Encoder struct {
	Name      string
	Input     shape.Shape
	LatentDim int
	Trunk     *Block
	Embedding *Block
	LogVar    *Block
}

// Variational reports whether the encoder has a log-variance head.
func (e *Encoder) Variational() bool { return e.LogVar != nil }

func (e *Encoder) Params() int {
	return e.Trunk.Params() + e.Embedding.Params() + e.LogVar.Params()
}

// Decoder maps a latent code back to sample space.
type Decoder struct {
	Name      string
	LatentDim int
	Output    shape.Shape
	Net       *Block
}

func (d *Decoder) Params() int { return d.Net.Params() }

// EncoderFunc builds an encoder for a spec.
type EncoderFunc func(Spec) (*Encoder, error)

// DecoderFunc builds a decoder for a spec.
type DecoderFunc func(Spec) (*Decoder, error)

// newEncoder assembles the trunk and heads. The heads read the flattened
// trunk output.
func newEncoder(name string, s Spec, variational bool, trunk func(channels int) []Layer) (*Encoder, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	t, err := NewBlock(name+".trunk", s.InputDim, append(trunk(s.InputDim[0]), Flatten{})...)
	if err != nil {
		return nil, err
	}
	features := t.Output[0]
	emb, err := NewBlock(name+".embedding", t.Output, Linear{In: features, Out: s.LatentDim})
	if err != nil {
		return nil, err
	}
	enc := &Encoder{Name: name, Input: s.InputDim.Clone(), LatentDim: s.LatentDim, Trunk: t, Embedding: emb}
	if variational {
		enc.LogVar, err = NewBlock(name+".log_var", t.Output, Linear{In: features, Out: s.LatentDim})
		if err != nil {
			return nil, err
		}
	}
	return enc, nil
}

// newDecoder projects the latent code to seed, then runs net, which ends in
// the requested number of output channels. The result must
// reproduce the configured input shape.
func newDecoder(name string, s Spec, seed shape.Shape, net func(channels int) []Layer) (*Decoder, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	layers := append([]Layer{Linear{In: s.LatentDim, Out: seed.Size()}, Reshape{To: seed}}, net(s.InputDim[0])...)
	b, err := NewBlock(name, shape.Of(s.LatentDim), layers...)
	if err != nil {
		return nil, err
	}
	if !b.Output.Equal(s.InputDim) {
		return nil, fmt.Errorf("%w: %s produces %v but input_dim is %v", ErrShape, name, b.Output, s.InputDim)
	}
	return &Decoder{Name: name, LatentDim: s.LatentDim, Output: b.Output, Net: b}, nil
}

// downsample is the conv, batch norm, ReLU triple used by the benchmark encoders.
func downsample(in, out, k, stride, pad int) []Layer {
	return []Layer{
		Conv2d{In: in, Out: out, Kernel: k, Stride: stride, Padding: pad},
		BatchNorm2d{Features: out},
		ReLU,
	}
}

func upsample(in, out, k, stride, pad, outPad int) []Layer {
	return []Layer{
		ConvTranspose2d{In: in, Out: out, Kernel: k, Stride: stride, Padding: pad, OutputPadding: outPad},
		BatchNorm2d{Features: out},
		ReLU,
	}
}

func concat(groups ...[]Layer) []Layer {
	var out []Layer
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
