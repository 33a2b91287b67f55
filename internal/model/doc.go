// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model defines the closed set of generative model families, their
// hyperparameter schemas, and the assembler that turns a resolved
// configuration into a concrete encoder/decoder pair.
//
// # Core Concepts
//
//   - Family: one of ae, vae, beta_vae, wae, vamp, hvae or rhvae. Every family
//     belongs to a compatibility Class. AE-class families get a deterministic
//     encoder; VAE-class families get a variational encoder with a
//     log-variance head. Both classes share the same decoder.
//
//   - Config: the family-specific hyperparameters. Every Config embeds a
//     BaseConfig carrying input_dim, latent_dim and reconstruction_loss.
//     Configs are values: WithInputDim returns a new Config and never
//     mutates its argument.
//
//   - Model: the assembled tuple of family, config, encoder, decoder and any
//     family-specific trainable blocks (pseudo-inputs, leapfrog scalars,
//     metric network).
//
// The set of families is closed. Config has an unexported method so no type
// outside this package can implement it.
package model
