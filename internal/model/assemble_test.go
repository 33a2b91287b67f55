package model_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/registry"
	"github.com/vk/gmtrain/internal/shape"
)

// fixedSelector returns the same pair for every class.
type fixedSelector struct {
	enc arch.EncoderFunc
	dec arch.DecoderFunc
}

func (s fixedSelector) Select(model.Class) (arch.EncoderFunc, arch.DecoderFunc) { return s.enc, s.dec }

func resolved(f model.Family, dim shape.Shape) model.Config {
	cfg, err := model.DefaultConfig(f)
	Expect(err).NotTo(HaveOccurred())
	return model.WithInputDim(cfg, dim)
}

var _ = Describe("Assemble", func() {
	var (
		ctx   context.Context
		mnist registry.Constructors
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		mnist, err = registry.Default().Lookup(dataset.MNIST)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with an MNIST-shaped VAE", func() {
		It("builds a variational encoder and the shared decoder", func() {
			m, err := model.Assemble(ctx, resolved(model.VAE, shape.Of(1, 28, 28)), mnist)
			Expect(err).NotTo(HaveOccurred())

			Expect(m.Encoder.Variational()).To(BeTrue())
			Expect(m.Decoder.Output).To(Equal(shape.Of(1, 28, 28)))
			Expect(m.Extras).To(BeEmpty())

			pc := m.ParamCounts()
			Expect(pc.Encoder).To(BeNumerically(">", 0))
			Expect(pc.Decoder).To(BeNumerically(">", 0))
			Expect(pc.Total).To(Equal(pc.Encoder + pc.Decoder))
			Expect(pc).To(Equal(model.ParamCounts{Encoder: 11038356, Decoder: 6083073, Total: 17121429}))
		})
	})

	DescribeTable("encoder kind follows the compatibility class",
		func(f model.Family, variational bool) {
			m, err := model.Assemble(ctx, resolved(f, shape.Of(1, 28, 28)), mnist)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Encoder.Variational()).To(Equal(variational))
			Expect(m.Family).To(Equal(f))
		},
		Entry("ae", model.AE, false),
		Entry("wae", model.WAE, false),
		Entry("vae", model.VAE, true),
		Entry("beta_vae", model.BetaVAE, true),
		Entry("vamp", model.VAMP, true),
		Entry("hvae", model.HVAE, true),
		Entry("rhvae", model.RHVAE, true),
	)

	Context("with family extras", func() {
		It("counts the VampPrior pseudo-inputs", func() {
			m, err := model.Assemble(ctx, resolved(model.VAMP, shape.Of(1, 28, 28)), mnist)
			Expect(err).NotTo(HaveOccurred())

			pc := m.ParamCounts()
			Expect(pc.Extras).To(Equal(50 * 784))
			Expect(pc.Total).To(Equal(pc.Encoder + pc.Decoder + pc.Extras))
		})

		It("counts learned leapfrog scalars only when enabled", func() {
			cfg := resolved(model.HVAE, shape.Of(1, 28, 28)).(model.HVAEConfig)
			m, err := model.Assemble(ctx, cfg, mnist)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.ParamCounts().Extras).To(Equal(0))

			cfg.LearnEpsLF = true
			cfg.LearnBetaZero = true
			m, err = model.Assemble(ctx, cfg, mnist)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.ParamCounts().Extras).To(Equal(2))
		})

		It("counts the RHVAE metric network", func() {
			m, err := model.Assemble(ctx, resolved(model.RHVAE, shape.Of(1, 28, 28)), mnist)
			Expect(err).NotTo(HaveOccurred())

			trunk := 784*400 + 400
			diag := 400*10 + 10
			lower := 400*45 + 45
			Expect(m.ParamCounts().Extras).To(Equal(trunk + diag + lower))
		})
	})

	Context("when assembly fails", func() {
		It("wraps invalid hyperparameters in a BuildError", func() {
			cfg := resolved(model.BetaVAE, shape.Of(1, 28, 28)).(model.BetaVAEConfig)
			cfg.Beta = -2

			_, err := model.Assemble(ctx, cfg, mnist)

			var be *model.BuildError
			Expect(errors.As(err, &be)).To(BeTrue())
			Expect(be.Component).To(Equal("config"))
			Expect(be.Family).To(Equal(model.BetaVAE))
		})

		It("reports a decoder that cannot reproduce input_dim", func() {
			_, err := model.Assemble(ctx, resolved(model.AE, shape.Of(3, 32, 32)), mnist)

			var be *model.BuildError
			Expect(errors.As(err, &be)).To(BeTrue())
			Expect(be.Component).To(Equal("decoder"))
			Expect(errors.Is(err, arch.ErrShape)).To(BeTrue())
		})

		It("propagates constructor errors unmodified", func() {
			boom := errors.New("boom")
			sel := fixedSelector{
				enc: func(arch.Spec) (*arch.Encoder, error) { return nil, boom },
				dec: arch.MNISTDecoder,
			}

			_, err := model.Assemble(ctx, resolved(model.AE, shape.Of(1, 28, 28)), sel)

			Expect(err).To(MatchError(boom))
			Expect(err.Error()).To(Equal("failed to build ae model: encoder: boom"))
		})

		It("rejects an encoder of the wrong kind", func() {
			sel := fixedSelector{enc: arch.MNISTEncoderAE, dec: arch.MNISTDecoder}

			_, err := model.Assemble(ctx, resolved(model.VAE, shape.Of(1, 28, 28)), sel)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("does not match class VAE"))
		})

		It("rejects missing constructors", func() {
			_, err := model.Assemble(ctx, resolved(model.AE, shape.Of(1, 28, 28)), fixedSelector{})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no AE constructors registered"))
		})
	})
})
