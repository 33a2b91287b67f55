// Package arch describes encoder and decoder networks as stacks of layer
// descriptors. It does no numeric work: each layer knows how it transforms a
// shape and how many trainable parameters it owns, which is all the
// orchestrator needs to check compatibility and report model size before the
// external trainer instantiates the real network.
package arch
