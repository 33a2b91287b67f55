package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/gmtrain/internal/ctxlog"
)

// JSONLoader reads JSON objects. Numbers are kept as json.Number so integer
// fields reject fractional values.
type JSONLoader struct{}

func (JSONLoader) Load(ctx context.Context, path string) (map[string]any, error) {
	ctxlog.FromContext(ctx).Debug("Loading JSON config.", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return DecodeJSON(data)
}

// DecodeJSON decodes a JSON object into a flat map.
func DecodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("expected a JSON object, got null")
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after the JSON object")
	}
	return out, nil
}

// YAMLLoader reads YAML mappings.
type YAMLLoader struct{}

func (YAMLLoader) Load(ctx context.Context, path string) (map[string]any, error) {
	ctxlog.FromContext(ctx).Debug("Loading YAML config.", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("expected a YAML mapping, got an empty document")
	}
	return out, nil
}

// DefaultLoaders returns the built-in loaders keyed by file extension.
func DefaultLoaders() map[string]Loader {
	return map[string]Loader{
		".json": JSONLoader{},
		".yaml": YAMLLoader{},
		".yml":  YAMLLoader{},
	}
}
