package app

import (
	"errors"
	"fmt"

	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/pipeline"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Dataset            dataset.Family
	Model              model.Family
	ModelConfigPath    string // optional; family defaults when empty
	TrainingConfigPath string // optional; bundled base config when empty
	DataDir            string

	// Trainer is the external trainer command line. Empty prepares the
	// run bundle without training.
	Trainer     []string
	BundleDtype pipeline.Dtype

	ProgressURL       string
	ProgressNamespace string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.Dataset == "" {
		errs = append(errs, errors.New("dataset is a required configuration field and cannot be empty"))
	}
	if cfg.Model == "" {
		errs = append(errs, errors.New("model is a required configuration field and cannot be empty"))
	} else if family, err := model.ParseFamily(string(cfg.Model)); err != nil {
		errs = append(errs, err)
	} else {
		cfg.Model = family
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	dtype, err := pipeline.ParseDtype(string(cfg.BundleDtype))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.BundleDtype = dtype
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck port out of range: %d", cfg.HealthcheckPort))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
