package config

// Config represents the complete configuration for the deepsight application.
// It covers all commands (image, batch, serve) and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Image preprocessing settings
	Image ImageConfig `mapstructure:"image" yaml:"image" json:"image"`

	// OCR extraction cascade settings
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	// LLM collaborator settings (description + translation)
	LLM LLMConfig `mapstructure:"llm" yaml:"llm" json:"llm"`

	// Batch processing settings
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// ImageConfig contains working-copy resize settings for the vision model.
type ImageConfig struct {
	MaxWidth  int `mapstructure:"max_width" yaml:"max_width" json:"max_width"`
	MaxHeight int `mapstructure:"max_height" yaml:"max_height" json:"max_height"`
	Quality   int `mapstructure:"quality" yaml:"quality" json:"quality"`
}

// OCRConfig contains settings for the text extraction cascade.
type OCRConfig struct {
	DetectorModelPath   string  `mapstructure:"detector_model_path" yaml:"detector_model_path" json:"detector_model_path"`
	RecognizerModelPath string  `mapstructure:"recognizer_model_path" yaml:"recognizer_model_path" json:"recognizer_model_path"`
	DictPath            string  `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	MaxImageSize        int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
	MinConfidence       float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	NumThreads          int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	TesseractLanguage   string  `mapstructure:"tesseract_language" yaml:"tesseract_language" json:"tesseract_language"`
}

// LLMConfig contains settings for the Ollama-backed description and
// translation collaborators.
type LLMConfig struct {
	Host                string   `mapstructure:"host" yaml:"host" json:"host"`
	Port                int      `mapstructure:"port" yaml:"port" json:"port"`
	Model               string   `mapstructure:"model" yaml:"model" json:"model"`
	Temperature         float64  `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens           int      `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
	DescribeTimeoutSec  int      `mapstructure:"describe_timeout_sec" yaml:"describe_timeout_sec" json:"describe_timeout_sec"`
	TranslateTimeoutSec int      `mapstructure:"translate_timeout_sec" yaml:"translate_timeout_sec" json:"translate_timeout_sec"`
	TargetLanguages     []string `mapstructure:"target_languages" yaml:"target_languages" json:"target_languages"`
	DescriptionPrompt   string   `mapstructure:"description_prompt" yaml:"description_prompt" json:"description_prompt"`
}

// BatchConfig contains batch coordination settings.
type BatchConfig struct {
	CheckpointInterval int  `mapstructure:"checkpoint_interval" yaml:"checkpoint_interval" json:"checkpoint_interval"`
	MaxHistory         int  `mapstructure:"max_history" yaml:"max_history" json:"max_history"`
	SaveToStorage      bool `mapstructure:"save_to_storage" yaml:"save_to_storage" json:"save_to_storage"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                string `mapstructure:"host" yaml:"host" json:"host"`
	Port                int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin          string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	TimeoutSec          int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeoutSec  int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec" json:"shutdown_timeout_sec"`
	ProgressIntervalSec int    `mapstructure:"progress_interval_sec" yaml:"progress_interval_sec" json:"progress_interval_sec"`
}
