// Package training loads the hyperparameters of the optimization loop that
// the external trainer runs. They are kept apart from the model config.
package training

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/vk/gmtrain/internal/config"
)

// SchemaName is the value a training config file may declare under "name".
const SchemaName = "BaseTrainingConfig"

// EnvPrefix prefixes environment overrides, e.g. GMTRAIN_NUM_EPOCHS=5.
const EnvPrefix = "GMTRAIN"

//go:embed base_training_config.json
var bundled []byte

// Config holds the training hyperparameters.
type Config struct {
	Name            string  `mapstructure:"name" json:"name"`
	OutputDir       string  `mapstructure:"output_dir" json:"output_dir"`
	BatchSize       int     `mapstructure:"batch_size" json:"batch_size"`
	NumEpochs       int     `mapstructure:"num_epochs" json:"num_epochs"`
	LearningRate    float64 `mapstructure:"learning_rate" json:"learning_rate"`
	StepsSaving     *int    `mapstructure:"steps_saving" json:"steps_saving"`
	StepsPredict    *int    `mapstructure:"steps_predict" json:"steps_predict"`
	KeepBestOnTrain bool    `mapstructure:"keep_best_on_train" json:"keep_best_on_train"`
	Seed            int     `mapstructure:"seed" json:"seed"`
	NoCuda          bool    `mapstructure:"no_cuda" json:"no_cuda"`
}

// keys are the accepted keys, in schema order.
var keys = []string{
	"name", "output_dir", "batch_size", "num_epochs", "learning_rate",
	"steps_saving", "steps_predict", "keep_best_on_train", "seed", "no_cuda",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", SchemaName)
	v.SetDefault("output_dir", "my_model")
	v.SetDefault("batch_size", 100)
	v.SetDefault("num_epochs", 100)
	v.SetDefault("learning_rate", 1e-3)
	v.SetDefault("keep_best_on_train", false)
	v.SetDefault("seed", 8)
	v.SetDefault("no_cuda", false)
}

// Load reads the training config at path, or the bundled default when path
// is empty, then applies GMTRAIN_* environment overrides.
func Load(path string) (Config, error) {
	source := path
	if source == "" {
		source = "<bundled base_training_config.json>"
	}
	fail := func(err error) (Config, error) {
		return Config{}, &config.ParseError{Path: source, Schema: SchemaName, Err: err}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return fail(err)
		}
	}

	if path == "" {
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(bundled)); err != nil {
			return fail(err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fail(fmt.Errorf("file not found: %w", err))
			}
			return fail(err)
		}
	}

	if unknown := unknownKeys(v.AllKeys()); len(unknown) > 0 {
		return Config{}, &config.ParseError{Path: source, Schema: SchemaName, Fields: unknown}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		config.IntegerHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return fail(err)
	}
	if cfg.Name != SchemaName {
		return fail(fmt.Errorf("file declares name %q, expected %q", cfg.Name, SchemaName))
	}
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	return cfg, nil
}

func unknownKeys(all []string) []string {
	known := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		known[k] = struct{}{}
	}
	var out []string
	for _, k := range all {
		if _, ok := known[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.NumEpochs <= 0 {
		errs = append(errs, fmt.Errorf("num_epochs must be positive, got %d", c.NumEpochs))
	}
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %v", c.LearningRate))
	}
	if c.StepsSaving != nil && *c.StepsSaving <= 0 {
		errs = append(errs, fmt.Errorf("steps_saving must be positive when set, got %d", *c.StepsSaving))
	}
	if c.StepsPredict != nil && *c.StepsPredict <= 0 {
		errs = append(errs, fmt.Errorf("steps_predict must be positive when set, got %d", *c.StepsPredict))
	}
	return errors.Join(errs...)
}
