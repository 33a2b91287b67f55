package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/pipeline"
	"github.com/vk/gmtrain/internal/registry"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("minimal flags use defaults", func(t *testing.T) {
		var out bytes.Buffer

		cfg, exit, err := Parse([]string{"--dataset", "mnist", "--model_name", "vae"}, &out)

		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, dataset.MNIST, cfg.Dataset)
		assert.Equal(t, model.VAE, cfg.Model)
		assert.Equal(t, "data", cfg.DataDir)
		assert.Empty(t, cfg.ModelConfigPath)
		assert.Empty(t, cfg.TrainingConfigPath)
		assert.Empty(t, cfg.Trainer)
		assert.Equal(t, pipeline.Float32, cfg.BundleDtype)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("all flags", func(t *testing.T) {
		var out bytes.Buffer
		args := []string{
			"--dataset=CelebA", "--model_name=RHVAE",
			"--model_config", "rhvae.yaml", "--training_config", "train.json",
			"--data_dir", "/srv/data",
			"--trainer", "python train.py", "--trainer_arg", "--fp16", "--trainer_arg", "--workers=4",
			"--bundle_dtype", "F16",
			"--progress_url", "http://localhost:3000", "--progress_namespace", "/runs",
			"--log_level", "DEBUG", "--log_format", "json", "--healthcheck_port", "8081",
		}

		cfg, exit, err := Parse(args, &out)

		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, dataset.CelebA, cfg.Dataset)
		assert.Equal(t, model.RHVAE, cfg.Model)
		assert.Equal(t, "rhvae.yaml", cfg.ModelConfigPath)
		assert.Equal(t, "train.json", cfg.TrainingConfigPath)
		assert.Equal(t, "/srv/data", cfg.DataDir)
		assert.Equal(t, []string{"python", "train.py", "--fp16", "--workers=4"}, cfg.Trainer)
		assert.Equal(t, pipeline.Float16, cfg.BundleDtype)
		assert.Equal(t, "http://localhost:3000", cfg.ProgressURL)
		assert.Equal(t, "/runs", cfg.ProgressNamespace)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 8081, cfg.HealthcheckPort)
	})

	t.Run("help exits cleanly", func(t *testing.T) {
		var out bytes.Buffer

		cfg, exit, err := Parse([]string{"--help"}, &out)

		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "--model_name")
		assert.Contains(t, out.String(), "train_data.npz")
	})
}

func TestParse_UsageErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing required flags", []string{}, `required flag(s) "dataset", "model_name" not set`},
		{"unknown flag", []string{"--dataset", "mnist", "--model_name", "ae", "--epochs", "3"}, "unknown flag: --epochs"},
		{"positional argument", []string{"--dataset", "mnist", "--model_name", "ae", "extra"}, `unknown command "extra"`},
		{"unknown model", []string{"--dataset", "mnist", "--model_name", "gan"}, `unsupported model family "gan"`},
		{"bad log format", []string{"--dataset", "mnist", "--model_name", "ae", "--log_format", "xml"}, "invalid log_format"},
		{"bad log level", []string{"--dataset", "mnist", "--model_name", "ae", "--log_level", "trace"}, "invalid log_level"},
		{"bad dtype", []string{"--dataset", "mnist", "--model_name", "ae", "--bundle_dtype", "f64"}, `unsupported bundle dtype "f64"`},
		{"trainer args without trainer", []string{"--dataset", "mnist", "--model_name", "ae", "--trainer_arg", "x"}, "--trainer_arg given without --trainer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer

			cfg, exit, err := Parse(tc.args, &out)

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.False(t, exit)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.msg)
		})
	}
}

func TestParse_UnsupportedDataset(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	_, _, err := Parse([]string{"--dataset", "svhn", "--model_name", "ae"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	var unsupported *registry.UnsupportedDatasetError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, dataset.Family("svhn"), unsupported.Family)
	assert.Equal(t, `unsupported dataset "svhn": supported datasets are celeba, cifar10, mnist`, err.Error())
}
