package app

import (
	"context"
	"fmt"

	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/pipeline"
	"github.com/vk/gmtrain/internal/report"
	"github.com/vk/gmtrain/internal/training"
)

// Run performs one training run. Stages run strictly in order and the first
// failure aborts the run. Pipeline errors are returned unmodified.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	logger := ctxlog.FromContext(ctx).With("dataset", a.config.Dataset, "model", a.config.Model)
	logger.Debug("App.Run method started.")

	if _, err := a.healthCheckServer(); err != nil {
		return err
	}
	defer func() {
		if cerr := a.closeHealthCheckServer(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fail := func(err error) error {
		return fmt.Errorf("%s failed: %w", a.Stage(), err)
	}

	a.setStage("dataset lookup")
	ctors, err := a.registry.Lookup(a.config.Dataset)
	if err != nil {
		return fail(err)
	}

	a.setStage("loading dataset")
	splits, err := dataset.Load(ctx, a.config.Dataset, a.config.DataDir)
	if err != nil {
		return fail(err)
	}
	if err := report.WriteDatasetSummary(a.outW, a.config.Dataset, dataset.Summary(splits.Train), dataset.Summary(splits.Eval)); err != nil {
		logger.Warn("Failed to write dataset summary.", "error", err)
	}

	a.setStage("resolving model config")
	cfg, err := a.resolver.Resolve(ctx, a.config.Model, a.config.ModelConfigPath, splits.Shape())
	if err != nil {
		return fail(err)
	}

	a.setStage("assembling model")
	m, err := model.Assemble(ctx, cfg, ctors)
	if err != nil {
		return fail(err)
	}
	if err := report.WriteParamCounts(a.outW, m.Family, m.ParamCounts()); err != nil {
		logger.Warn("Failed to write parameter counts.", "error", err)
	}

	a.setStage("loading training config")
	tc, err := training.Load(a.config.TrainingConfigPath)
	if err != nil {
		return fail(err)
	}
	logger.Info("Training config loaded.", "output_dir", tc.OutputDir, "epochs", tc.NumEpochs, "batch_size", tc.BatchSize)

	a.setStage("training")
	reporter := a.progressReporter()
	defer func() {
		if cerr := reporter.Close(); cerr != nil {
			logger.Warn("Failed to close progress reporters.", "error", cerr)
		}
	}()

	p := a.pipeline
	if p == nil {
		p = &pipeline.Exec{
			Command:  a.config.Trainer,
			Dtype:    a.config.BundleDtype,
			Reporter: reporter,
		}
	}
	logger.Info("🚀 Starting training pipeline...")
	if err := p.Run(ctx, m, tc, splits.Train, splits.Eval); err != nil {
		a.setStage("failed")
		return err
	}

	a.setStage("done")
	logger.Info("🏁 Training run finished.")
	return nil
}

// progressReporter combines the configured reporters. A socket.io reporter
// that cannot connect is skipped with a warning.
func (a *App) progressReporter() report.Multi {
	reporters := append(report.Multi{}, a.reporters...)
	if a.config.ProgressURL == "" {
		return reporters
	}
	sio, err := report.DialSocketIO(a.ctx, report.SocketIOOptions{
		URL:       a.config.ProgressURL,
		Namespace: a.config.ProgressNamespace,
	})
	if err != nil {
		ctxlog.FromContext(a.ctx).Warn("Progress reporter unavailable, continuing without it.", "error", err)
		return reporters
	}
	return append(reporters, sio)
}
