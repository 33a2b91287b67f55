package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/report"
	"github.com/vk/gmtrain/internal/training"
)

// BundleFlag is appended to the trainer command, followed by the run dir.
const BundleFlag = "--bundle"

// Exec writes a run bundle and runs an external trainer against it.
type Exec struct {
	// Command is the trainer executable followed by its arguments. When
	// empty, Run only prepares the bundle.
	Command []string
	// Env is appended to the current environment for the trainer.
	Env      []string
	Dtype    Dtype
	Reporter report.Reporter
	// Now defaults to time.Now.
	Now func() time.Time
}

// Run implements Pipeline. The trainer's exit error is returned unmodified.
func (e *Exec) Run(ctx context.Context, m *model.Model, tc training.Config, train, eval *dataset.Dataset) error {
	logger := ctxlog.FromContext(ctx)
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	dtype := e.Dtype
	if dtype == "" {
		dtype = Float32
	}

	started := now()
	dir := RunDir(tc.OutputDir, m.Family, started)
	manifest, err := WriteBundle(ctx, dir, dtype, started, m, tc, train, eval)
	if err != nil {
		return err
	}
	ctx = ctxlog.With(ctx, "run_id", manifest.RunID)
	logger = ctxlog.FromContext(ctx)

	if len(e.Command) == 0 {
		logger.Warn("No trainer configured, run bundle prepared only.", "dir", dir)
		return nil
	}

	args := append(append([]string{}, e.Command[1:]...), BundleFlag, dir)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	cmd.Env = append(os.Environ(), e.Env...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	logger.Info("Starting trainer.", "command", e.Command[0])
	if err := cmd.Start(); err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error { return e.pumpEvents(ctx, manifest.RunID, stdout) })
	g.Go(func() error { return pumpLines(ctx, stderr) })
	// Pipes must be drained before Wait closes them.
	pumpErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		return err
	}
	if pumpErr != nil {
		logger.Warn("Failed to read trainer output.", "error", pumpErr)
	}
	logger.Info("Trainer finished.", "elapsed", now().Sub(started).Round(time.Millisecond))
	return nil
}

// maxLine caps a single trainer output line. Longer lines are split.
const maxLine = 64 * 1024

// splitLines is bufio.ScanLines that also breaks on a bare carriage return,
// which progress bars use to redraw in place, and never asks for more than
// maxLine bytes of buffer.
func splitLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF || len(data) >= maxLine {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// scanLines calls fn for each non-blank line of r. On a read error the
// rest of r is discarded so the writer never blocks on a full pipe.
func scanLines(r io.Reader, fn func(line []byte)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 4096), maxLine)
	sc.Split(splitLines)
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			fn(line)
		}
	}
	if err := sc.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// pumpEvents forwards JSON lines from the trainer to the reporter. Other
// lines are logged as they are. Reporter failures never stop training.
func (e *Exec) pumpEvents(ctx context.Context, runID string, r io.Reader) error {
	logger := ctxlog.FromContext(ctx)
	return scanLines(r, func(line []byte) {
		var ev report.Event
		if line[0] != '{' || json.Unmarshal(line, &ev) != nil {
			logger.Info("Trainer output.", "line", string(line))
			return
		}
		if ev.RunID == "" {
			ev.RunID = runID
		}
		if e.Reporter == nil {
			return
		}
		if err := e.Reporter.Report(ctx, ev); err != nil {
			logger.Warn("Failed to report progress.", "error", err)
		}
	})
}

func pumpLines(ctx context.Context, r io.Reader) error {
	logger := ctxlog.FromContext(ctx)
	return scanLines(r, func(line []byte) {
		logger.Warn("Trainer stderr.", "line", string(line))
	})
}
