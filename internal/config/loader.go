package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of the configuration file (without extension).
	ConfigFileName = "deepsight"
	// EnvPrefix is the prefix for environment variables (DEEPSIGHT_*).
	EnvPrefix = "DEEPSIGHT"
)

// Loader handles configuration loading with proper precedence:
// flags > environment variables > config file > defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader with defaults applied.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.deepsight")
	v.AddConfigPath("/etc/deepsight")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	return &Loader{v: v}
}

// setDefaults establishes default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)

	v.SetDefault("image.max_width", 512)
	v.SetDefault("image.max_height", 512)
	v.SetDefault("image.quality", 85)

	v.SetDefault("ocr.detector_model_path", "models/detector.onnx")
	v.SetDefault("ocr.recognizer_model_path", "models/recognizer.onnx")
	v.SetDefault("ocr.dict_path", "models/dict.txt")
	v.SetDefault("ocr.max_image_size", 2048)
	v.SetDefault("ocr.min_confidence", 0.3)
	v.SetDefault("ocr.num_threads", 0)
	v.SetDefault("ocr.tesseract_language", "eng")

	v.SetDefault("llm.host", "localhost")
	v.SetDefault("llm.port", 11434)
	v.SetDefault("llm.model", "gemma3:12b")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.describe_timeout_sec", 250)
	v.SetDefault("llm.translate_timeout_sec", 120)
	v.SetDefault("llm.target_languages", []string{"hi", "en"})
	v.SetDefault("llm.description_prompt", "")

	v.SetDefault("batch.checkpoint_interval", 5)
	v.SetDefault("batch.max_history", 100)
	v.SetDefault("batch.save_to_storage", true)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.timeout_sec", 300)
	v.SetDefault("server.shutdown_timeout_sec", 10)
	v.SetDefault("server.progress_interval_sec", 2)
}

// SetConfigFile sets an explicit config file path, bypassing the search paths.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// BindFlag binds one cobra/pflag flag to a config key so that an explicitly
// set flag takes precedence over file and environment values.
func (l *Loader) BindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return fmt.Errorf("no flag registered for config key %s", key)
	}
	if err := l.v.BindPFlag(key, f); err != nil {
		return fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
	}
	return nil
}

// Load reads configuration from all sources and unmarshals it into a Config.
// A missing config file is not an error; a malformed one is.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.Image.MaxWidth <= 0 || c.Image.MaxHeight <= 0 {
		return fmt.Errorf("image max dimensions must be positive (got %dx%d)", c.Image.MaxWidth, c.Image.MaxHeight)
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("image quality must be between 1 and 100 (got %d)", c.Image.Quality)
	}
	if c.OCR.MaxImageSize <= 0 {
		return fmt.Errorf("ocr max_image_size must be positive (got %d)", c.OCR.MaxImageSize)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr min_confidence must be between 0 and 1 (got %f)", c.OCR.MinConfidence)
	}
	if c.LLM.Port < 1 || c.LLM.Port > 65535 {
		return fmt.Errorf("llm port must be between 1 and 65535 (got %d)", c.LLM.Port)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.Batch.CheckpointInterval < 1 {
		return fmt.Errorf("batch checkpoint_interval must be at least 1 (got %d)", c.Batch.CheckpointInterval)
	}
	if c.Batch.MaxHistory < 1 {
		return fmt.Errorf("batch max_history must be at least 1 (got %d)", c.Batch.MaxHistory)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535 (got %d)", c.Server.Port)
	}
	return nil
}

// BaseURL returns the base URL of the LLM service.
func (c *LLMConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}
