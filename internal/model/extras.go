// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file describes the trainable blocks some families own outside of the
// encoder and decoder.
package model

import (
	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/shape"
)

// metricHidden is the width of the RHVAE metric network.
const metricHidden = 400

// vampExtras is the pseudo-input generator of the VampPrior: K learned
// points in sample space, squashed into [0, 1].
func vampExtras(cfg Config, s arch.Spec) ([]*arch.Block, error) {
	c := cfg.(VAMPConfig)
	k := c.NumberComponents
	b, err := arch.NewBlock("pseudo_inputs", shape.Of(k),
		arch.Linear{In: k, Out: s.InputDim.Size(), NoBias: true},
		arch.Hardtanh,
		arch.Reshape{To: s.InputDim},
	)
	if err != nil {
		return nil, err
	}
	return []*arch.Block{b}, nil
}

// hvaeExtras holds the leapfrog step size and initial temperature when they
// are learned.
func hvaeExtras(cfg Config, _ arch.Spec) ([]*arch.Block, error) {
	c := cfg.(HVAEConfig)
	var params []arch.Layer
	if c.LearnEpsLF {
		params = append(params, arch.Param{Name: "eps_lf", Shape: shape.Of(1)})
	}
	if c.LearnBetaZero {
		params = append(params, arch.Param{Name: "beta_zero_sqrt", Shape: shape.Of(1)})
	}
	if len(params) == 0 {
		return nil, nil
	}
	b, err := arch.NewBlock("leapfrog", nil, params...)
	if err != nil {
		return nil, err
	}
	return []*arch.Block{b}, nil
}

// rhvaeExtras is the metric network: a shared hidden layer feeding the
// diagonal and the strictly lower triangle of the Cholesky factor.
func rhvaeExtras(_ Config, s arch.Spec) ([]*arch.Block, error) {
	in := s.InputDim.Size()
	trunk, err := arch.NewBlock("metric.trunk", shape.Of(in), arch.Linear{In: in, Out: metricHidden}, arch.ReLU)
	if err != nil {
		return nil, err
	}
	diag, err := arch.NewBlock("metric.diag", trunk.Output, arch.Linear{In: metricHidden, Out: s.LatentDim})
	if err != nil {
		return nil, err
	}
	blocks := []*arch.Block{trunk, diag}
	if lower := s.LatentDim * (s.LatentDim - 1) / 2; lower > 0 {
		l, err := arch.NewBlock("metric.lower", trunk.Output, arch.Linear{In: metricHidden, Out: lower})
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, l)
	}
	return blocks, nil
}
