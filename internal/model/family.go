// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the family table: the single place that says which
// compatibility class, config schema and extra blocks belong to each family.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/gmtrain/internal/arch"
)

// Family identifies a generative model family.
type Family string

const (
	AE      Family = "ae"
	VAE     Family = "vae"
	BetaVAE Family = "beta_vae"
	WAE     Family = "wae"
	VAMP    Family = "vamp"
	HVAE    Family = "hvae"
	RHVAE   Family = "rhvae"
)

// Class is the encoder compatibility class of a family.
type Class int

const (
	ClassAE Class = iota
	ClassVAE
)

func (c Class) String() string {
	switch c {
	case ClassAE:
		return "AE"
	case ClassVAE:
		return "VAE"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// ErrUnsupportedFamily is returned by ParseFamily for unknown tokens.
var ErrUnsupportedFamily = errors.New("unsupported model family")

type familyInfo struct {
	class      Class
	configName string
	defaults   func() Config
	extras     func(Config, arch.Spec) ([]*arch.Block, error)
}

// order is the presentation order used in help text and errors.
var order = []Family{AE, VAE, BetaVAE, WAE, VAMP, HVAE, RHVAE}

var families = map[Family]familyInfo{
	AE: {
		class:      ClassAE,
		configName: "AEConfig",
		defaults:   func() Config { return AEConfig{BaseConfig: defaultBase()} },
	},
	VAE: {
		class:      ClassVAE,
		configName: "VAEConfig",
		defaults:   func() Config { return VAEConfig{BaseConfig: defaultBase()} },
	},
	BetaVAE: {
		class:      ClassVAE,
		configName: "BetaVAEConfig",
		defaults:   func() Config { return BetaVAEConfig{BaseConfig: defaultBase(), Beta: 1} },
	},
	WAE: {
		class:      ClassAE,
		configName: "WAE_MMD_Config",
		defaults: func() Config {
			return WAEConfig{BaseConfig: defaultBase(), KernelChoice: "imq", RegWeight: 3e-2, KernelBandwidth: 1}
		},
	},
	VAMP: {
		class:      ClassVAE,
		configName: "VAMPConfig",
		defaults:   func() Config { return VAMPConfig{BaseConfig: defaultBase(), NumberComponents: 50} },
		extras:     vampExtras,
	},
	HVAE: {
		class:      ClassVAE,
		configName: "HVAEConfig",
		defaults: func() Config {
			return HVAEConfig{BaseConfig: defaultBase(), NLF: 3, EpsLF: 0.001, BetaZero: 0.3}
		},
		extras: hvaeExtras,
	},
	RHVAE: {
		class:      ClassVAE,
		configName: "RHVAEConfig",
		defaults: func() Config {
			return RHVAEConfig{BaseConfig: defaultBase(), NLF: 3, EpsLF: 0.001, BetaZero: 0.3, Temperature: 1.5, Regularization: 0.01}
		},
		extras: rhvaeExtras,
	},
}

// ParseFamily resolves a command-line token to a Family.
func ParseFamily(token string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(token)))
	if _, ok := families[f]; !ok {
		return "", fmt.Errorf("%w %q: supported families are %s", ErrUnsupportedFamily, token, strings.Join(FamilyNames(), ", "))
	}
	return f, nil
}

// Families returns every supported family.
func Families() []Family {
	return append([]Family(nil), order...)
}

// FamilyNames returns the family tokens as strings.
func FamilyNames() []string {
	out := make([]string, len(order))
	for i, f := range order {
		out[i] = string(f)
	}
	return out
}

// Class returns the compatibility class. Unknown families report ClassAE.
func (f Family) Class() Class { return families[f].class }

// ConfigName is the schema name a config file may declare under "name".
func (f Family) ConfigName() string { return families[f].configName }

// Upper is the family token in upper case, used to name run directories.
func (f Family) Upper() string { return strings.ToUpper(string(f)) }

func (f Family) String() string { return string(f) }

// DefaultConfig returns the schema defaults for a family. InputDim is unset.
func DefaultConfig(f Family) (Config, error) {
	info, ok := families[f]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFamily, f)
	}
	return info.defaults(), nil
}
