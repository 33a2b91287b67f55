package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vk/gmtrain/internal/ctxlog"
)

// Event is one progress update emitted by the trainer.
type Event struct {
	RunID      string   `json:"run_id,omitempty"`
	Epoch      int      `json:"epoch"`
	Step       int      `json:"step,omitempty"`
	TrainLoss  *float64 `json:"train_loss,omitempty"`
	EvalLoss   *float64 `json:"eval_loss,omitempty"`
	Checkpoint string   `json:"checkpoint,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Fields flattens the event for logging and emitting.
func (e Event) Fields() map[string]any {
	f := map[string]any{"epoch": e.Epoch}
	if e.RunID != "" {
		f["run_id"] = e.RunID
	}
	if e.Step != 0 {
		f["step"] = e.Step
	}
	if e.TrainLoss != nil {
		f["train_loss"] = *e.TrainLoss
	}
	if e.EvalLoss != nil {
		f["eval_loss"] = *e.EvalLoss
	}
	if e.Checkpoint != "" {
		f["checkpoint"] = e.Checkpoint
	}
	if e.Message != "" {
		f["message"] = e.Message
	}
	return f
}

// Reporter observes training progress.
type Reporter interface {
	Report(ctx context.Context, ev Event) error
	Close() error
}

// Log writes each event to the context logger.
type Log struct{}

func (Log) Report(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx)
	attrs := []any{"epoch", ev.Epoch}
	if ev.Step != 0 {
		attrs = append(attrs, "step", ev.Step)
	}
	if ev.TrainLoss != nil {
		attrs = append(attrs, "train_loss", *ev.TrainLoss)
	}
	if ev.EvalLoss != nil {
		attrs = append(attrs, "eval_loss", *ev.EvalLoss)
	}
	if ev.Checkpoint != "" {
		attrs = append(attrs, "checkpoint", ev.Checkpoint)
	}
	if ev.Message != "" {
		attrs = append(attrs, "message", ev.Message)
	}
	logger.Log(ctx, slog.LevelInfo, "Training progress.", attrs...)
	return nil
}

func (Log) Close() error { return nil }

// Multi fans events out to every reporter.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
