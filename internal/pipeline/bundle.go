package pipeline

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/d4l3k/go-bfloat16"
	"github.com/google/uuid"
	"github.com/sbinet/npyio"
	"github.com/x448/float16"
	"golang.org/x/sync/errgroup"

	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/fsutil"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/training"
)

// Dtype selects how sample values are stored in the bundle.
type Dtype string

const (
	Float32  Dtype = "f32"
	Float16  Dtype = "f16"
	BFloat16 Dtype = "bf16"
)

// ParseDtype validates a dtype token.
func ParseDtype(s string) (Dtype, error) {
	switch d := Dtype(s); d {
	case Float32, Float16, BFloat16:
		return d, nil
	case "":
		return Float32, nil
	default:
		return "", fmt.Errorf("unsupported bundle dtype %q: must be 'f32', 'f16' or 'bf16'", s)
	}
}

const (
	ManifestFile       = "manifest.json"
	ModelConfigFile    = "model_config.json"
	TrainingConfigFile = "training_config.json"
)

// Manifest describes everything the trainer needs to rebuild the run.
type Manifest struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Model     ModelManifest   `json:"model"`
	Training  training.Config `json:"training"`
	Data      []DataFile      `json:"data"`
}

// ModelManifest is the serialized model description.
type ModelManifest struct {
	Family  model.Family      `json:"family"`
	Class   string            `json:"class"`
	Schema  string            `json:"schema"`
	Config  model.Config      `json:"config"`
	Encoder Component         `json:"encoder"`
	Decoder Component         `json:"decoder"`
	Extras  []Block           `json:"extras,omitempty"`
	Params  model.ParamCounts `json:"params"`
}

// Component is a named network made of blocks.
type Component struct {
	Name   string  `json:"name"`
	Params int     `json:"params"`
	Blocks []Block `json:"blocks"`
}

// Block is one serialized arch.Block.
type Block struct {
	Name   string              `json:"name"`
	Input  []int               `json:"input"`
	Output []int               `json:"output"`
	Layers []arch.LayerSummary `json:"layers"`
}

// DataFile points at one stored split.
type DataFile struct {
	Split dataset.Split `json:"split"`
	File  string        `json:"file"`
	Dtype Dtype         `json:"dtype"`
	// Shape is (N, C, H, W); files hold the flattened values in that order.
	Shape []int `json:"shape"`
}

func describeBlock(b *arch.Block) Block {
	return Block{Name: b.Name, Input: b.Input.Clone(), Output: b.Output.Clone(), Layers: b.Describe()}
}

func newManifest(runID string, now time.Time, m *model.Model, tc training.Config) Manifest {
	enc := Component{Name: m.Encoder.Name, Params: m.Encoder.Params()}
	for _, b := range []*arch.Block{m.Encoder.Trunk, m.Encoder.Embedding, m.Encoder.LogVar} {
		if b != nil {
			enc.Blocks = append(enc.Blocks, describeBlock(b))
		}
	}
	dec := Component{Name: m.Decoder.Name, Params: m.Decoder.Params(), Blocks: []Block{describeBlock(m.Decoder.Net)}}

	mm := ModelManifest{
		Family:  m.Family,
		Class:   m.Family.Class().String(),
		Schema:  m.Family.ConfigName(),
		Config:  m.Config,
		Encoder: enc,
		Decoder: dec,
		Params:  m.ParamCounts(),
	}
	for _, b := range m.Extras {
		mm.Extras = append(mm.Extras, describeBlock(b))
	}
	return Manifest{RunID: runID, CreatedAt: now.UTC(), Model: mm, Training: tc}
}

// RunDir is the directory a run writes to: <output_dir>/<MODEL>_training_<timestamp>.
func RunDir(outputDir string, family model.Family, now time.Time) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s_training_%s", family.Upper(), now.Format("2006-01-02_15-04-05")))
}

// WriteBundle writes the manifest, both configs and both splits into dir.
// The splits are written concurrently.
func WriteBundle(ctx context.Context, dir string, dtype Dtype, now time.Time, m *model.Model, tc training.Config, train, eval *dataset.Dataset) (Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	if err := fsutil.EnsureDir(dir); err != nil {
		return Manifest{}, err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to create run id: %w", err)
	}
	manifest := newManifest(runID.String(), now, m, tc)

	splits := []*dataset.Dataset{train, eval}
	files := make([]DataFile, len(splits))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range splits {
		g.Go(func() error {
			df, err := writeSplit(gctx, dir, dtype, d)
			if err != nil {
				return fmt.Errorf("failed to write %s split: %w", d.Split, err)
			}
			files[i] = df
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Manifest{}, err
	}
	manifest.Data = files

	for name, v := range map[string]any{
		ManifestFile:       manifest,
		ModelConfigFile:    configDocument(m),
		TrainingConfigFile: tc,
	} {
		if err := writeJSON(filepath.Join(dir, name), v); err != nil {
			return Manifest{}, err
		}
	}

	logger.Info("Run bundle written.", "dir", dir, "run_id", manifest.RunID, "dtype", dtype)
	return manifest, nil
}

// configDocument is the model config as a file the resolver would accept back.
func configDocument(m *model.Model) map[string]any {
	doc := map[string]any{}
	data, err := json.Marshal(m.Config)
	if err == nil {
		_ = json.Unmarshal(data, &doc)
	}
	doc["name"] = m.Family.ConfigName()
	return doc
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeSplit(ctx context.Context, dir string, dtype Dtype, d *dataset.Dataset) (DataFile, error) {
	df := DataFile{
		Split: d.Split,
		Dtype: dtype,
		Shape: append([]int{d.Count}, d.Shape...),
	}
	if err := ctx.Err(); err != nil {
		return df, err
	}

	switch dtype {
	case Float16, BFloat16:
		df.File = fmt.Sprintf("%s_data.%s", d.Split, dtype)
	default:
		df.File = string(d.Split) + "_data.npy"
	}

	f, err := os.Create(filepath.Join(dir, df.File))
	if err != nil {
		return df, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	switch dtype {
	case Float16:
		buf := make([]byte, 2)
		for _, v := range d.Data {
			binary.LittleEndian.PutUint16(buf, float16.Fromfloat32(float32(v)).Bits())
			if _, err := w.Write(buf); err != nil {
				return df, err
			}
		}
	case BFloat16:
		if _, err := w.Write(bfloat16.EncodeFloat32(toFloat32(d.Data))); err != nil {
			return df, err
		}
	default:
		if err := npyio.Write(w, toFloat32(d.Data)); err != nil {
			return df, err
		}
	}

	if err := w.Flush(); err != nil {
		return df, err
	}
	return df, f.Close()
}

func toFloat32(data []float64) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v)
	}
	return out
}
