// Package pipeline hands an assembled model and its data to the training
// loop. The loop itself lives outside this module; Exec prepares a run bundle
// on disk and launches an external trainer process against it.
package pipeline

import (
	"context"

	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/training"
)

// Pipeline runs one training job to completion. Errors are returned as the
// underlying trainer produced them.
type Pipeline interface {
	Run(ctx context.Context, m *model.Model, tc training.Config, train, eval *dataset.Dataset) error
}

// Func adapts a function to the Pipeline interface.
type Func func(ctx context.Context, m *model.Model, tc training.Config, train, eval *dataset.Dataset) error

func (f Func) Run(ctx context.Context, m *model.Model, tc training.Config, train, eval *dataset.Dataset) error {
	return f(ctx, m, tc, train, eval)
}
