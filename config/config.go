// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"irisserve/artifact"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log       LogConfig `yaml:"log"`
	Artifacts struct {
		Dir            string `yaml:"dir"`
		Model          string `yaml:"model"`
		ModelType      string `yaml:"model_type"`
		FeatureNames   string `yaml:"feature_names"`
		Metrics        string `yaml:"metrics"`
		RequireMetrics bool   `yaml:"require_metrics"`
		Watch          bool   `yaml:"watch"`
	} `yaml:"artifacts"`
	Inference struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"inference"`
}

// LogConfig selects the log level and optional rotating log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file overrides a field.
func Default() *Config {
	c := &Config{}
	c.Http.Port = 8000
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Http.MaxBodyBytes = 1 << 20
	c.Log = LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28}
	c.Artifacts.Dir = "artifacts"
	c.Artifacts.Model = "model.json"
	c.Artifacts.ModelType = "decision_tree"
	c.Artifacts.FeatureNames = "feature_names.json"
	c.Artifacts.Metrics = "metrics.json"
	c.Artifacts.Watch = true
	c.Inference.CacheSize = 1024
	return c
}

// Load reads path over Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Http.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if c.Inference.CacheSize < 0 {
		return errors.New("inference.cache_size must not be negative")
	}
	if c.Artifacts.Model == "" || c.Artifacts.FeatureNames == "" {
		return errors.New("artifacts.model and artifacts.feature_names are required")
	}
	return nil
}

// ArtifactPaths resolves artifact file names against artifacts.dir.
func (c *Config) ArtifactPaths() artifact.Paths {
	resolve := func(name string) string {
		if name == "" || filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(c.Artifacts.Dir, name)
	}
	return artifact.Paths{
		Model:        resolve(c.Artifacts.Model),
		ModelType:    c.Artifacts.ModelType,
		FeatureNames: resolve(c.Artifacts.FeatureNames),
		Metrics:      resolve(c.Artifacts.Metrics),
	}
}

// LoadOptions maps the config onto artifact load options.
func (c *Config) LoadOptions(classCount int) artifact.LoadOptions {
	return artifact.LoadOptions{
		RequireMetrics: c.Artifacts.RequireMetrics,
		ClassCount:     classCount,
	}
}
