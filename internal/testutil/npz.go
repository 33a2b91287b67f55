package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// NPYArray is one member of a NumPy archive.
type NPYArray struct {
	Name    string
	Descr   string
	Shape   []int
	Fortran bool
	Data    []byte
}

// U8 builds a "|u1" array.
func U8(name string, shape []int, values []uint8) NPYArray {
	return NPYArray{Name: name, Descr: "|u1", Shape: shape, Data: append([]byte(nil), values...)}
}

// I16 builds a little-endian "<i2" array, useful for out-of-range pixels.
func I16(name string, shape []int, values []int16) NPYArray {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, values)
	return NPYArray{Name: name, Descr: "<i2", Shape: shape, Data: buf.Bytes()}
}

// Ramp returns n uint8 values counting up and wrapping at 256.
func Ramp(n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(i % 256)
	}
	return out
}

// WriteNPZ writes the arrays into a zip archive at path, the way numpy.savez
// lays them out.
func WriteNPZ(t *testing.T, path string, arrays ...NPYArray) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, a := range arrays {
		w, err := zw.Create(a.Name + ".npy")
		require.NoError(t, err)
		_, err = w.Write(encodeNPY(a))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// WriteDatasetDir writes train_data.npz and eval_data.npz into dir, each
// holding u1 ramp data under key "data".
func WriteDatasetDir(t *testing.T, dir string, trainShape, evalShape []int) {
	t.Helper()

	WriteNPZ(t, filepath.Join(dir, "train_data.npz"), U8("data", trainShape, Ramp(prod(trainShape))))
	WriteNPZ(t, filepath.Join(dir, "eval_data.npz"), U8("data", evalShape, Ramp(prod(evalShape))))
}

// encodeNPY renders a version 1.0 .npy payload.
func encodeNPY(a NPYArray) []byte {
	dims := make([]string, len(a.Shape))
	for i, d := range a.Shape {
		dims[i] = fmt.Sprint(d)
	}
	shape := "(" + strings.Join(dims, ", ") + ")"
	if len(a.Shape) == 1 {
		shape = "(" + dims[0] + ",)"
	}
	fortran := "False"
	if a.Fortran {
		fortran = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", a.Descr, fortran, shape)

	// magic(6) + version(2) + length(2) + header + '\n' must align to 64 bytes.
	total := 10 + len(header) + 1
	if rem := total % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(a.Data)
	return buf.Bytes()
}

func prod(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
