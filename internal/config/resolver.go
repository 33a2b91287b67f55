package config

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/shape"
)

// NameKey is the optional key naming the schema a file was written for.
const NameKey = "name"

// IgnoredKeys are bookkeeping keys that saved model configs carry. They
// describe how the saved networks were built and are dropped on load.
var IgnoredKeys = []string{"uses_default_encoder", "uses_default_decoder"}

// Resolver produces the model configuration for a run.
type Resolver struct {
	loaders map[string]Loader
}

// NewResolver creates a Resolver with the built-in loaders plus extra,
// keyed by extension (".hcl"). Extra loaders override built-in ones.
func NewResolver(extra map[string]Loader) *Resolver {
	loaders := DefaultLoaders()
	for ext, l := range extra {
		loaders[strings.ToLower(ext)] = l
	}
	return &Resolver{loaders: loaders}
}

// Extensions lists the file extensions the resolver can read.
func (r *Resolver) Extensions() []string {
	exts := slices.Collect(maps.Keys(r.loaders))
	sort.Strings(exts)
	return exts
}

// Resolve returns the configuration for family: schema defaults, overridden
// by the file at path when path is not empty, with input_dim replaced by
// inputDim in every case.
func (r *Resolver) Resolve(ctx context.Context, family model.Family, path string, inputDim shape.Shape) (model.Config, error) {
	logger := ctxlog.FromContext(ctx).With("model", family)

	cfg, err := model.DefaultConfig(family)
	if err != nil {
		return nil, err
	}

	if path == "" {
		logger.Info("No model config file given, using defaults.", "schema", family.ConfigName())
	} else {
		raw, err := r.load(ctx, path)
		if err != nil {
			return nil, err
		}
		if cfg, err = Bind(cfg, path, raw); err != nil {
			return nil, err
		}
		logger.Info("Model config loaded.", "path", path, "keys", len(raw))
	}

	if file := cfg.Base().InputDim; file != nil && !file.Equal(inputDim) {
		logger.Warn("Overriding input_dim from config file with the dataset shape.", "file", file, "dataset", inputDim)
	}
	cfg = model.WithInputDim(cfg, inputDim)
	logger.Debug("Model config resolved.", "input_dim", inputDim, "latent_dim", cfg.Base().LatentDim)
	return cfg, nil
}

func (r *Resolver) load(ctx context.Context, path string) (map[string]any, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := r.loaders[ext]
	if !ok {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unsupported file extension %q, expected one of %s", ext, strings.Join(r.Extensions(), ", "))}
	}
	raw, err := l.Load(ctx, path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return raw, nil
}

// Bind decodes raw onto a copy of defaults. Keys outside the schema are
// reported together; a "name" key must match the schema name. IgnoredKeys
// are accepted and dropped.
func Bind(defaults model.Config, path string, raw map[string]any) (model.Config, error) {
	schema := defaults.Family().ConfigName()

	raw = maps.Clone(raw)
	if name, ok := raw[NameKey]; ok {
		if s, _ := name.(string); s != schema {
			return nil, &ParseError{Path: path, Schema: schema, Err: fmt.Errorf("file declares %s %v but %s expects %q", NameKey, name, defaults.Family(), schema)}
		}
		delete(raw, NameKey)
	}
	for _, k := range IgnoredKeys {
		delete(raw, k)
	}

	target := reflect.New(reflect.TypeOf(defaults))
	target.Elem().Set(reflect.ValueOf(defaults))

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target.Interface(),
		Metadata:   &md,
		TagName:    "mapstructure",
		DecodeHook: IntegerHook,
		MatchName:  func(key, field string) bool { return key == field },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder for %s: %w", schema, err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, &ParseError{Path: path, Schema: schema, Err: err}
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return nil, &ParseError{Path: path, Schema: schema, Fields: md.Unused}
	}

	return target.Elem().Interface().(model.Config), nil
}
