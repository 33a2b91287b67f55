// Package hcl provides the HCL implementation of the config.Loader interface.
// A model config file written in HCL is a flat list of attributes:
//
//	name       = "VAEConfig"
//	latent_dim = 16
//	input_dim  = [1, 28, 28]
//
// Blocks are not allowed. Expressions are evaluated without variables or
// functions.
package hcl
