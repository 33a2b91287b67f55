package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the file at path as a flat mapping of hyperparameter name
	// to value.
	Load(ctx context.Context, path string) (map[string]any, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, path string) (map[string]any, error)

func (f LoaderFunc) Load(ctx context.Context, path string) (map[string]any, error) {
	return f(ctx, path)
}
