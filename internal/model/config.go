// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the per-family hyperparameter schemas. Field tags are the
// keys accepted in configuration files.
package model

import (
	"errors"
	"fmt"

	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/shape"
)

// Config is a family-specific hyperparameter set.
type Config interface {
	Family() Family
	// Base returns the fields shared by every family.
	Base() BaseConfig
	// Validate checks hyperparameter ranges. It does not check InputDim,
	// which is injected from the dataset.
	Validate() error
	withInputDim(shape.Shape) Config
}

// WithInputDim returns a copy of cfg whose input_dim is s.
func WithInputDim(cfg Config, s shape.Shape) Config {
	return cfg.withInputDim(s.Clone())
}

// SpecOf is the architecture view of a config.
func SpecOf(cfg Config) arch.Spec {
	b := cfg.Base()
	return arch.Spec{InputDim: b.InputDim, LatentDim: b.LatentDim}
}

// BaseConfig holds the fields every family shares.
type BaseConfig struct {
	InputDim           shape.Shape `mapstructure:"input_dim" json:"input_dim"`
	LatentDim          int         `mapstructure:"latent_dim" json:"latent_dim"`
	ReconstructionLoss string      `mapstructure:"reconstruction_loss" json:"reconstruction_loss"`
}

func defaultBase() BaseConfig {
	return BaseConfig{LatentDim: 10, ReconstructionLoss: "mse"}
}

func (b BaseConfig) Base() BaseConfig {
	b.InputDim = b.InputDim.Clone()
	return b
}

func (b BaseConfig) validate() error {
	var errs []error
	if b.LatentDim <= 0 {
		errs = append(errs, fmt.Errorf("latent_dim must be positive, got %d", b.LatentDim))
	}
	if b.ReconstructionLoss != "mse" && b.ReconstructionLoss != "bce" {
		errs = append(errs, fmt.Errorf("reconstruction_loss must be 'mse' or 'bce', got %q", b.ReconstructionLoss))
	}
	return errors.Join(errs...)
}

// AEConfig configures a plain autoencoder.
type AEConfig struct {
	BaseConfig `mapstructure:",squash"`
}

func (AEConfig) Family() Family    { return AE }
func (c AEConfig) Validate() error { return c.validate() }

func (c AEConfig) withInputDim(s shape.Shape) Config {
	c.InputDim = s
	return c
}

// VAEConfig configures a variational autoencoder.
type VAEConfig struct {
	BaseConfig `mapstructure:",squash"`
}

func (VAEConfig) Family() Family    { return VAE }
func (c VAEConfig) Validate() error { return c.validate() }

func (c VAEConfig) withInputDim(s shape.Shape) Config {
	c.InputDim = s
	return c
}

// BetaVAEConfig weighs the KL term by Beta.
type BetaVAEConfig struct {
	BaseConfig `mapstructure:",squash"`
	Beta       float64 `mapstructure:"beta" json:"beta"`
}

func (BetaVAEConfig) Family() Family { return BetaVAE }

func (c BetaVAEConfig) Validate() error {
	var errs []error
	errs = append(errs, c.validate())
	if c.Beta < 0 {
		errs = append(errs, fmt.Errorf("beta must be non-negative, got %v", c.Beta))
	}
	return errors.Join(errs...)
}

func (c BetaVAEConfig) withInputDim(s shape.Shape) Config {
	c.InputDim = s
	return c
}

// WAEConfig configures a Wasserstein autoencoder with an MMD penalty.
type WAEConfig struct {
	BaseConfig      `mapstructure:",squash"`
	KernelChoice    string  `mapstructure:"kernel_choice" json:"kernel_choice"`
	RegWeight       float64 `mapstructure:"reg_weight" json:"reg_weight"`
	KernelBandwidth float64 `mapstructure:"kernel_bandwidth" json:"kernel_bandwidth"`
}

func (WAEConfig) Family() Family { return WAE }

func (c WAEConfig) Validate() error {
	var errs []error
	errs = append(errs, c.validate())
	if c.KernelChoice != "imq" && c.KernelChoice != "rbf" {
		errs = append(errs, fmt.Errorf("kernel_choice must be 'imq' or 'rbf', got %q", c.KernelChoice))
	}
	if c.RegWeight < 0 {
		errs = append(errs, fmt.Errorf("reg_weight must be non-negative, got %v", c.RegWeight))
	}
	if c.KernelBandwidth <= 0 {
		errs = append(errs, fmt.Errorf("kernel_bandwidth must be positive, got %v", c.KernelBandwidth))
	}
	return errors.Join(errs...)
}

func (c WAEConfig) withInputDim(s shape.Shape) Config {
	c.InputDim = s
	return c
}

// VAMPConfig configures a VAE with a VampPrior.
type VAMPConfig struct {
	BaseConfig            `mapstructure:",squash"`
	NumberComponents      int `mapstructure:"number_components" json:"number_components"`
	LinearSchedulingSteps int `mapstructure:"linear_scheduling_steps" json:"linear_scheduling_steps"`
}

func (VAMPConfig) Family() Family { return VAMP }

func (c VAMPConfig) Validate() error {
	var errs []error
	errs = append(errs, c.validate())
	if c.NumberComponents <= 0 {
		errs = append(errs, fmt.Errorf("number_components must be positive, got %d", c.NumberComponents))
	}
	if c.LinearSchedulingSteps < 0 {
		errs = append(errs, fmt.Errorf("linear_scheduling_steps must be non-negative, got %d", c.LinearSchedulingSteps))
	}
	return errors.Join(errs...)
}

func (c VAMPConfig) withInputDim(s shape.Shape) Config {
	c.InputDim = s
	return c
}

// leapfrog holds the integrator settings shared by the Hamiltonian families.
type leapfrog struct {
	NLF      int     `mapstructure:"n_lf" json:"n_lf"`
	EpsLF    float64 `mapstructure:"eps_lf" json:"eps_lf"`
	BetaZero float64 `mapstructure:"beta_zero" json:"beta_zero"`
}

func (l leapfrog) validate() error {
	var errs []error
	if l.NLF < 1 {
		errs = append(errs, fmt.Errorf("n_lf must be at least 1, got %d", l.NLF))
	}
	if l.EpsLF <= 0 {
		errs = append(errs, fmt.Errorf("eps_lf must be positive, got %v", l.EpsLF))
	}
	if l.BetaZero <= 0 || l.BetaZero > 1 {
		errs = append(errs, fmt.Errorf("beta_zero must be in (0, 1], got %v", l.BetaZero))
	}
	return errors.Join(errs...)
}

// HVAEConfig configures a Hamiltonian VAE.
type HVAEConfig struct {
	BaseConfig    `mapstructure:",squash"`
	NLF           int     `mapstructure:"n_lf" json:"n_lf"`
	EpsLF         float64 `mapstructure:"eps_lf" json:"eps_lf"`
	BetaZero      float64 `mapstructure:"beta_zero" json:"beta_zero"`
	LearnEpsLF    bool    `mapstructure:"learn_eps_lf" json:"learn_eps_lf"`
	LearnBetaZero bool    `mapstructure:"learn_beta_zero" json:"learn_beta_zero"`
}

func (HVAEConfig) Family() Family { return HVAE }

func (c HVAEConfig) Validate() error {
	return errors.Join(c.validate(), leapfrog{c.NLF, c.EpsLF, c.BetaZero}.validate())
}

func (c HVAEConfig) withInputDim(s shape.Shape) Config {
	c.InputDim = s
	return c
}

// RHVAEConfig configures a Riemannian Hamiltonian VAE.
type RHVAEConfig struct {
	BaseConfig     `mapstructure:",squash"`
	NLF            int     `mapstructure:"n_lf" json:"n_lf"`
	EpsLF          float64 `mapstructure:"eps_lf" json:"eps_lf"`
	BetaZero       float64 `mapstructure:"beta_zero" json:"beta_zero"`
	Temperature    float64 `mapstructure:"temperature" json:"temperature"`
	Regularization float64 `mapstructure:"regularization" json:"regularization"`
}

func (RHVAEConfig) Family() Family { return RHVAE }

func (c RHVAEConfig) Validate() error {
	var errs []error
	errs = append(errs, c.validate(), leapfrog{c.NLF, c.EpsLF, c.BetaZero}.validate())
	if c.Temperature <= 0 {
		errs = append(errs, fmt.Errorf("temperature must be positive, got %v", c.Temperature))
	}
	if c.Regularization < 0 {
		errs = append(errs, fmt.Errorf("regularization must be non-negative, got %v", c.Regularization))
	}
	return errors.Join(errs...)
}

func (c RHVAEConfig) withInputDim(s shape.Shape) Config {
	c.InputDim = s
	return c
}
