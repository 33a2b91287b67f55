package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/shape"
)

var _ = Describe("Family table", func() {
	DescribeTable("class and schema per family",
		func(token string, class model.Class, configName string) {
			f, err := model.ParseFamily(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Class()).To(Equal(class))
			Expect(f.ConfigName()).To(Equal(configName))

			cfg, err := model.DefaultConfig(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Family()).To(Equal(f))
			Expect(cfg.Base().InputDim).To(BeNil())
			Expect(cfg.Validate()).To(Succeed())
		},
		Entry("ae", "ae", model.ClassAE, "AEConfig"),
		Entry("vae", "vae", model.ClassVAE, "VAEConfig"),
		Entry("beta_vae", "beta_vae", model.ClassVAE, "BetaVAEConfig"),
		Entry("wae", "wae", model.ClassAE, "WAE_MMD_Config"),
		Entry("vamp", "vamp", model.ClassVAE, "VAMPConfig"),
		Entry("hvae", "hvae", model.ClassVAE, "HVAEConfig"),
		Entry("rhvae", "rhvae", model.ClassVAE, "RHVAEConfig"),
	)

	It("lists every family in presentation order", func() {
		Expect(model.FamilyNames()).To(Equal([]string{"ae", "vae", "beta_vae", "wae", "vamp", "hvae", "rhvae"}))
	})

	It("accepts tokens case-insensitively", func() {
		f, err := model.ParseFamily(" VAMP ")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(model.VAMP))
		Expect(f.Upper()).To(Equal("VAMP"))
	})

	It("rejects unknown tokens", func() {
		_, err := model.ParseFamily("gan")
		Expect(err).To(MatchError(model.ErrUnsupportedFamily))
		Expect(err.Error()).To(ContainSubstring("ae, vae, beta_vae, wae, vamp, hvae, rhvae"))

		_, err = model.DefaultConfig("gan")
		Expect(err).To(MatchError(model.ErrUnsupportedFamily))
	})
})

var _ = Describe("Config values", func() {
	It("carries the documented defaults", func() {
		cfg, err := model.DefaultConfig(model.RHVAE)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(model.RHVAEConfig{
			BaseConfig:     model.BaseConfig{LatentDim: 10, ReconstructionLoss: "mse"},
			NLF:            3,
			EpsLF:          0.001,
			BetaZero:       0.3,
			Temperature:    1.5,
			Regularization: 0.01,
		}))
	})

	It("replaces input_dim without touching the original", func() {
		orig, err := model.DefaultConfig(model.WAE)
		Expect(err).NotTo(HaveOccurred())
		dim := shape.Of(3, 32, 32)

		updated := model.WithInputDim(orig, dim)
		dim[0] = 99

		Expect(orig.Base().InputDim).To(BeNil())
		Expect(updated.Base().InputDim).To(Equal(shape.Of(3, 32, 32)))
		Expect(updated.(model.WAEConfig).KernelChoice).To(Equal("imq"))
	})

	It("is idempotent when applied twice with the same shape", func() {
		cfg, err := model.DefaultConfig(model.HVAE)
		Expect(err).NotTo(HaveOccurred())

		once := model.WithInputDim(cfg, shape.Of(1, 28, 28))
		twice := model.WithInputDim(once, shape.Of(1, 28, 28))

		Expect(twice).To(Equal(once))
	})

	DescribeTable("rejects out-of-range hyperparameters",
		func(cfg model.Config, fragment string) {
			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(fragment))
		},
		Entry("latent_dim", model.AEConfig{BaseConfig: model.BaseConfig{LatentDim: 0, ReconstructionLoss: "mse"}}, "latent_dim must be positive"),
		Entry("loss", model.VAEConfig{BaseConfig: model.BaseConfig{LatentDim: 2, ReconstructionLoss: "l1"}}, "reconstruction_loss"),
		Entry("beta", model.BetaVAEConfig{BaseConfig: model.BaseConfig{LatentDim: 2, ReconstructionLoss: "mse"}, Beta: -1}, "beta must be non-negative"),
		Entry("kernel", model.WAEConfig{BaseConfig: model.BaseConfig{LatentDim: 2, ReconstructionLoss: "mse"}, KernelChoice: "poly", KernelBandwidth: 1}, "kernel_choice"),
		Entry("components", model.VAMPConfig{BaseConfig: model.BaseConfig{LatentDim: 2, ReconstructionLoss: "bce"}}, "number_components"),
		Entry("leapfrog", model.HVAEConfig{BaseConfig: model.BaseConfig{LatentDim: 2, ReconstructionLoss: "mse"}, NLF: 0, EpsLF: 0.1, BetaZero: 0.5}, "n_lf"),
		Entry("temperature", model.RHVAEConfig{BaseConfig: model.BaseConfig{LatentDim: 2, ReconstructionLoss: "mse"}, NLF: 1, EpsLF: 0.1, BetaZero: 0.5}, "temperature must be positive"),
	)
})
