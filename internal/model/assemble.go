// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements assembly: building the encoder and decoder a config
// asks for and checking that they fit together.
package model

import (
	"context"
	"fmt"

	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/ctxlog"
)

// Selector picks the constructors for a compatibility class.
type Selector interface {
	Select(Class) (arch.EncoderFunc, arch.DecoderFunc)
}

// BuildError is returned when a model cannot be assembled.
type BuildError struct {
	Family    Family
	Component string
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build %s model: %s: %v", e.Family, e.Component, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Model is an assembled, ready-to-train model description.
type Model struct {
	Family  Family
	Config  Config
	Encoder *arch.Encoder
	Decoder *arch.Decoder
	// Extras are family-owned trainable blocks outside encoder and decoder.
	Extras []*arch.Block
}

// ParamCounts are trainable parameter totals by component.
type ParamCounts struct {
	Encoder int `json:"encoder"`
	Decoder int `json:"decoder"`
	Extras  int `json:"extras"`
	Total   int `json:"total"`
}

func (m *Model) ParamCounts() ParamCounts {
	pc := ParamCounts{Encoder: m.Encoder.Params(), Decoder: m.Decoder.Params()}
	for _, b := range m.Extras {
		pc.Extras += b.Params()
	}
	pc.Total = pc.Encoder + pc.Decoder + pc.Extras
	return pc
}

// Assemble builds the model for cfg. The encoder is chosen by the family's
// class; encoder and decoder are both built from the same spec so their
// latent interfaces agree. Nothing is retried.
func Assemble(ctx context.Context, cfg Config, sel Selector) (*Model, error) {
	family := cfg.Family()
	logger := ctxlog.FromContext(ctx).With("model", family)
	fail := func(component string, err error) error {
		return &BuildError{Family: family, Component: component, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fail("config", err)
	}

	encFn, decFn := sel.Select(family.Class())
	if encFn == nil || decFn == nil {
		return nil, fail("constructors", fmt.Errorf("no %s constructors registered", family.Class()))
	}

	spec := SpecOf(cfg)
	logger.Debug("Building encoder and decoder.", "class", family.Class(), "input_dim", spec.InputDim, "latent_dim", spec.LatentDim)

	enc, err := encFn(spec)
	if err != nil {
		return nil, fail("encoder", err)
	}
	dec, err := decFn(spec)
	if err != nil {
		return nil, fail("decoder", err)
	}
	if enc.LatentDim != dec.LatentDim {
		return nil, fail("model", fmt.Errorf("encoder latent_dim %d does not match decoder latent_dim %d", enc.LatentDim, dec.LatentDim))
	}
	if (family.Class() == ClassVAE) != enc.Variational() {
		return nil, fail("encoder", fmt.Errorf("%s encoder %s does not match class %s", family, enc.Name, family.Class()))
	}

	m := &Model{Family: family, Config: cfg, Encoder: enc, Decoder: dec}
	if build := families[family].extras; build != nil {
		if m.Extras, err = build(cfg, spec); err != nil {
			return nil, fail("extras", err)
		}
	}

	logger.Info("Model assembled.", "encoder", enc.Name, "decoder", dec.Name, "params", m.ParamCounts().Total)
	return m, nil
}
