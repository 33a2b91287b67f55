package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gmtrain/internal/cli"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/testutil"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"--dataset", "mnist", "--model_name", "ae", "--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_MissingDataset(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"--dataset", "cifar10", "--model_name", "wae", "--data_dir", t.TempDir()})

	var loadErr *dataset.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, dataset.CIFAR10, loadErr.Family)
	assert.Contains(t, err.Error(), "train_data.npz")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	outDir := filepath.Join(root, "runs")
	testutil.WriteDatasetDir(t, filepath.Join(dataDir, "cifar10"), []int{3, 3, 32, 32}, []int{2, 3, 32, 32})
	files := testutil.WriteFiles(t, root, map[string]string{
		"beta_vae.hcl":  "latent_dim = 32\nbeta = 4.0\n",
		"training.yaml": fmt.Sprintf("output_dir: %s\nnum_epochs: 2\n", outDir),
	})
	out := &testutil.SafeBuffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{
		"--dataset", "cifar10",
		"--model_name", "beta_vae",
		"--model_config", filepath.Join(files, "beta_vae.hcl"),
		"--training_config", filepath.Join(files, "training.yaml"),
		"--data_dir", dataDir,
	})

	// --- Assert ---
	require.NoError(t, err)
	runs, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Name(), "BETA_VAE_training_")
	testutil.AssertLogged(t, out.String(), "(3, 3, 32, 32)", "BETA_VAE", "TOTAL PARAMS", "Run bundle written.")
}
