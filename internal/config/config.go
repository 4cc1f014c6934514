// Package config loads calcbert settings from file, environment and flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

// EnvPrefix is the prefix for environment overrides, e.g. CALCBERT_SERVER_PORT.
const EnvPrefix = "CALCBERT"

// Config is the full runtime configuration.
type Config struct {
	Logging  common.LogOptions
	Server   ServerConfig
	Database DatabaseConfig
	Models   ModelsConfig
	Data     DataConfig
	Weights  model.Weights
	Retrain  RetrainConfig
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host           string
	AllowedOrigins []string
	Port           int
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig locates the feedback database.
type DatabaseConfig struct {
	Path string
}

// ModelsConfig locates model artifacts and the inference service.
type ModelsConfig struct {
	TFIDFDir      string
	HeavyDir      string
	HeavyEndpoint string
	HeavyTimeout  time.Duration
}

// DataConfig locates the training data.
type DataConfig struct {
	BaseCorpus string
}

// RetrainConfig selects how retrains run.
type RetrainConfig struct {
	Sync bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8501", "http://127.0.0.1:8501"})
	v.SetDefault("database.path", "~/.local/share/calcbert/feedback.db")
	v.SetDefault("models.tfidf_dir", "./saved_models/tfidf")
	v.SetDefault("models.heavy_dir", "./saved_models/distilbert")
	v.SetDefault("models.heavy_endpoint", "")
	v.SetDefault("models.heavy_timeout", 10*time.Second)
	v.SetDefault("data.base_corpus", "./data/train.csv")
	v.SetDefault("retrain.sync", true)

	w := model.DefaultWeights()
	v.SetDefault("fusion.weights.rule", w.Rule)
	v.SetDefault("fusion.weights.ml", w.ML)
	v.SetDefault("fusion.weights.tfidf", w.TFIDF)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
}

// Load reads the configuration from v, expanding paths and validating values.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			AllowedOrigins: stringList(v.Get("server.allowed_origins")),
		},
		Database: DatabaseConfig{
			Path: expandDBPath(v.GetString("database.path")),
		},
		Models: ModelsConfig{
			TFIDFDir:      ExpandPath(v.GetString("models.tfidf_dir")),
			HeavyDir:      ExpandPath(v.GetString("models.heavy_dir")),
			HeavyEndpoint: strings.TrimSpace(v.GetString("models.heavy_endpoint")),
			HeavyTimeout:  v.GetDuration("models.heavy_timeout"),
		},
		Data: DataConfig{
			BaseCorpus: ExpandPath(v.GetString("data.base_corpus")),
		},
		Retrain: RetrainConfig{
			Sync: v.GetBool("retrain.sync"),
		},
		Weights: model.Weights{
			Rule:  v.GetFloat64("fusion.weights.rule"),
			ML:    v.GetFloat64("fusion.weights.ml"),
			TFIDF: v.GetFloat64("fusion.weights.tfidf"),
		},
		Logging: common.LogOptions{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			File:   ExpandPath(v.GetString("logging.file")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", common.ErrInvalidConfig, c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.Models.TFIDFDir == "" {
		return fmt.Errorf("%w: models.tfidf_dir", common.ErrMissingConfig)
	}
	if c.Weights.Rule < 0 || c.Weights.ML < 0 || c.Weights.TFIDF < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// stringList accepts a YAML list or a comma separated string, the form an
// environment variable arrives in.
func stringList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
