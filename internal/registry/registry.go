package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
)

// Constructors is the (AE encoder, VAE encoder, decoder) triple for one
// dataset family. The decoder is shared by both encoder kinds.
type Constructors struct {
	AEEncoder  arch.EncoderFunc
	VAEEncoder arch.EncoderFunc
	Decoder    arch.DecoderFunc
}

// Select returns the encoder matching a model family's compatibility class
// together with the shared decoder.
func (c Constructors) Select(class model.Class) (arch.EncoderFunc, arch.DecoderFunc) {
	if class == model.ClassVAE {
		return c.VAEEncoder, c.Decoder
	}
	return c.AEEncoder, c.Decoder
}

// UnsupportedDatasetError is returned for a dataset family with no entry.
type UnsupportedDatasetError struct {
	Family    dataset.Family
	Supported []dataset.Family
}

func (e *UnsupportedDatasetError) Error() string {
	names := make([]string, len(e.Supported))
	for i, f := range e.Supported {
		names[i] = string(f)
	}
	return fmt.Sprintf("unsupported dataset %q: supported datasets are %s", e.Family, strings.Join(names, ", "))
}

// Registry holds the constructor triples keyed by dataset family.
type Registry struct {
	entries map[dataset.Family]Constructors
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[dataset.Family]Constructors)}
}

// Register adds a family. Registering a family twice is a programming error.
func (r *Registry) Register(family dataset.Family, c Constructors) {
	if _, exists := r.entries[family]; exists {
		panic(fmt.Sprintf("constructors for dataset '%s' already registered", family))
	}
	slog.Debug("Registering dataset constructors.", "dataset", family)
	r.entries[family] = c
}

// Lookup returns the constructors for family or an *UnsupportedDatasetError.
func (r *Registry) Lookup(family dataset.Family) (Constructors, error) {
	c, ok := r.entries[family]
	if !ok {
		return Constructors{}, &UnsupportedDatasetError{Family: family, Supported: r.Families()}
	}
	return c, nil
}

// Families lists registered families in sorted order.
func (r *Registry) Families() []dataset.Family {
	out := make([]dataset.Family, 0, len(r.entries))
	for f := range r.entries {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Default returns the registry of benchmark architectures.
func Default() *Registry {
	r := New()
	r.Register(dataset.MNIST, Constructors{
		AEEncoder:  arch.MNISTEncoderAE,
		VAEEncoder: arch.MNISTEncoderVAE,
		Decoder:    arch.MNISTDecoder,
	})
	r.Register(dataset.CIFAR10, Constructors{
		AEEncoder:  arch.CIFAREncoderAE,
		VAEEncoder: arch.CIFAREncoderVAE,
		Decoder:    arch.CIFARDecoder,
	})
	r.Register(dataset.CelebA, Constructors{
		AEEncoder:  arch.CelebAEncoderAE,
		VAEEncoder: arch.CelebAEncoderVAE,
		Decoder:    arch.CelebADecoder,
	})
	return r
}
