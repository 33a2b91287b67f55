package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sbinet/npyio/npz"
	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/fsutil"
)

// Dir returns the folder holding a family's archives.
func Dir(dataDir string, family Family) string {
	return filepath.Join(dataDir, string(family))
}

// Load reads and validates both splits of a family from dataDir.
func Load(ctx context.Context, family Family, dataDir string) (*Splits, error) {
	dir := Dir(dataDir, family)
	logger := ctxlog.FromContext(ctx).With("family", family, "dir", dir)
	logger.Debug("Loading dataset.")

	if err := fsutil.RequireFiles(dir, ".npz", Train.FileName(), Eval.FileName()); err != nil {
		return nil, &LoadError{Family: family, Dir: dir, Err: err}
	}

	train, err := readSplit(family, dir, Train)
	if err != nil {
		return nil, err
	}
	eval, err := readSplit(family, dir, Eval)
	if err != nil {
		return nil, err
	}

	splits, err := pair(ctx, family, dir, train, eval)
	if err != nil {
		return nil, err
	}
	logger.Info("Dataset loaded.", "shape", splits.Shape(), "train", train.Count, "eval", eval.Count)
	return splits, nil
}

func readSplit(family Family, dir string, split Split) (*Dataset, error) {
	path := filepath.Join(dir, split.FileName())
	fail := func(err error) error {
		return &LoadError{Family: family, Dir: dir, Split: split, Err: err}
	}

	r, err := npz.Open(path)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to open %s: %w", path, err))
	}
	defer r.Close()

	key, ok := findKey(r.Keys())
	if !ok {
		return nil, fail(fmt.Errorf("%s has no %q array, found %v", path, DataKey, r.Keys()))
	}

	hdr := r.Header(key)
	if hdr == nil {
		return nil, fail(fmt.Errorf("failed to read header of %q in %s", key, path))
	}
	if hdr.Descr.Fortran {
		return nil, fail(fmt.Errorf("%w: %s is stored in Fortran order, expected C order", ErrContract, path))
	}
	dims := slices.Clone(hdr.Descr.Shape)

	data, bad, err := readValues(r, key, hdr.Descr.Type)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to read %q from %s: %w", key, path, err))
	}
	if err := checkArray(dims, len(data)); err != nil {
		return nil, fail(err)
	}
	return newDataset(family, split, dims, data, bad), nil
}

// findKey accepts both the bare key and the member name numpy writes.
func findKey(keys []string) (string, bool) {
	for _, k := range keys {
		if k == DataKey || k == DataKey+".npy" {
			return k, true
		}
	}
	return "", false
}

// readValues decodes the array with the Go type matching its dtype, then
// normalizes it.
func readValues(r *npz.Reader, key, descr string) ([]float64, int, error) {
	switch dtype := strings.TrimLeft(descr, "<>|="); dtype {
	case "u1":
		return readAs[uint8](r, key)
	case "i1":
		return readAs[int8](r, key)
	case "u2":
		return readAs[uint16](r, key)
	case "i2":
		return readAs[int16](r, key)
	case "u4":
		return readAs[uint32](r, key)
	case "i4":
		return readAs[int32](r, key)
	case "u8":
		return readAs[uint64](r, key)
	case "i8":
		return readAs[int64](r, key)
	case "f4":
		return readAs[float32](r, key)
	case "f8":
		return readAs[float64](r, key)
	default:
		return nil, 0, fmt.Errorf("%w: unsupported dtype %q", ErrContract, descr)
	}
}

func readAs[T number](r *npz.Reader, key string) ([]float64, int, error) {
	var raw []T
	if err := r.Read(key, &raw); err != nil {
		return nil, 0, err
	}
	data, bad := normalize(raw)
	return data, bad, nil
}
