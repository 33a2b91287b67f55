package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/gmtrain/internal/app"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/pipeline"
	"github.com/vk/gmtrain/internal/registry"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) *ExitError {
	return &ExitError{Code: 2, Message: err.Error(), Err: err}
}

const long = `Train a generative model on a benchmark image dataset.

The dataset must live in DATA_DIR/<dataset>/ as train_data.npz and
eval_data.npz, with the samples under the key 'data', pixel values in
[0, 255] and the channel first (channels x height x width).`

type flags struct {
	dataset, modelName, modelConfig, trainingConfig, dataDir string
	trainer                                                  string
	trainerArgs                                              []string
	bundleDtype                                              string
	progressURL, progressNamespace                           string
	logLevel, logFormat                                      string
	healthcheckPort                                          int
}

func newCommand(f *flags, ran *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gmtrain --dataset DATASET --model_name MODEL [options]",
		Short:         "Generative model training-run orchestrator",
		Long:          long,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(*cobra.Command, []string) error {
			*ran = true
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SortFlags = false
	fs.StringVar(&f.dataset, "dataset", "", fmt.Sprintf("Dataset to train on. Options: %s.", joinFamilies(registry.Default().Families())))
	fs.StringVar(&f.modelName, "model_name", "", fmt.Sprintf("Model to train. Options: %s.", strings.Join(model.FamilyNames(), ", ")))
	fs.StringVar(&f.modelConfig, "model_config", "", "Path to a model config file (.json, .yaml or .hcl). Defaults to the model's defaults.")
	fs.StringVar(&f.trainingConfig, "training_config", "", "Path to a training config file. Defaults to the bundled base training config.")
	fs.StringVar(&f.dataDir, "data_dir", "data", "Directory holding one folder per dataset.")
	fs.StringVar(&f.trainer, "trainer", "", "External trainer command. Empty prepares the run bundle only.")
	fs.StringArrayVar(&f.trainerArgs, "trainer_arg", nil, "Extra argument for the trainer. Repeatable.")
	fs.StringVar(&f.bundleDtype, "bundle_dtype", string(pipeline.Float32), "Sample dtype in the run bundle. Options: 'f32', 'f16' or 'bf16'.")
	fs.StringVar(&f.progressURL, "progress_url", "", "socket.io server to stream training progress to.")
	fs.StringVar(&f.progressNamespace, "progress_namespace", "/", "socket.io namespace for progress events.")
	fs.StringVar(&f.logLevel, "log_level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&f.logFormat, "log_format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.IntVar(&f.healthcheckPort, "healthcheck_port", 0, "Port for the HTTP health check server. 0 is disabled.")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("model_name")
	return cmd
}

func joinFamilies(fams []dataset.Family) string {
	names := make([]string, len(fams))
	for i, f := range fams {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	var (
		f   flags
		ran bool
	)
	cmd := newCommand(&f, &ran)
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		return nil, false, usageError(err)
	}
	if !ran {
		// --help was printed.
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.")

	family := dataset.Family(strings.ToLower(f.dataset))
	supported := registry.Default().Families()
	if !slices.Contains(supported, family) {
		return nil, false, usageError(&registry.UnsupportedDatasetError{Family: family, Supported: supported})
	}

	modelFamily, err := model.ParseFamily(f.modelName)
	if err != nil {
		return nil, false, usageError(err)
	}

	logFormat := strings.ToLower(f.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError(errors.New("invalid log_format: must be 'text' or 'json'"))
	}

	logLevel := strings.ToLower(f.logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError(errors.New("invalid log_level: must be 'debug', 'info', 'warn', or 'error'"))
	}

	var trainer []string
	if f.trainer != "" {
		trainer = append(strings.Fields(f.trainer), f.trainerArgs...)
	} else if len(f.trainerArgs) > 0 {
		return nil, false, usageError(errors.New("--trainer_arg given without --trainer"))
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Dataset:            family,
		Model:              modelFamily,
		ModelConfigPath:    f.modelConfig,
		TrainingConfigPath: f.trainingConfig,
		DataDir:            f.dataDir,
		Trainer:            trainer,
		BundleDtype:        pipeline.Dtype(strings.ToLower(f.bundleDtype)),
		ProgressURL:        f.progressURL,
		ProgressNamespace:  f.progressNamespace,
		LogFormat:          logFormat,
		LogLevel:           logLevel,
		HealthcheckPort:    f.healthcheckPort,
	})
	if err != nil {
		return nil, false, usageError(err)
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
