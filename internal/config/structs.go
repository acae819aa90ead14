//nolint:lll
package config

// Config represents the complete configuration for epistola. It covers every
// command (annotate, identify, tag, evaluate, serve) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Language LanguageConfig `mapstructure:"language" yaml:"language" json:"language"`
	Entities EntitiesConfig `mapstructure:"entities" yaml:"entities" json:"entities"`
	Tagger   TaggerConfig   `mapstructure:"tagger" yaml:"tagger" json:"tagger"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch annotation configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// LanguageConfig contains language identification settings.
type LanguageConfig struct {
	DataDir   string   `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	Languages []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	Order     int      `mapstructure:"order" yaml:"order" json:"order"`
	Smoothing float64  `mapstructure:"smoothing" yaml:"smoothing" json:"smoothing"`
}

// EntitiesConfig contains entity dictionary settings.
type EntitiesConfig struct {
	Dir               string   `mapstructure:"dir" yaml:"dir" json:"dir"`
	MinUnigramLength  int      `mapstructure:"min_unigram_length" yaml:"min_unigram_length" json:"min_unigram_length"`
	StopwordLanguages []string `mapstructure:"stopword_languages" yaml:"stopword_languages" json:"stopword_languages"`
}

// TaggerConfig contains entity tagger settings.
type TaggerConfig struct {
	Fuzzy FuzzyConfig `mapstructure:"fuzzy" yaml:"fuzzy" json:"fuzzy"`
}

// FuzzyConfig contains the edit-distance fallback thresholds.
type FuzzyConfig struct {
	ExactMaxLength        int `mapstructure:"exact_max_length" yaml:"exact_max_length" json:"exact_max_length"`
	UnigramMaxDistance    int `mapstructure:"unigram_max_distance" yaml:"unigram_max_distance" json:"unigram_max_distance"`
	MultiwordMaxDistance  int `mapstructure:"multiword_max_distance" yaml:"multiword_max_distance" json:"multiword_max_distance"`
	MultiwordMinFirstWord int `mapstructure:"multiword_min_first_word" yaml:"multiword_min_first_word" json:"multiword_min_first_word"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxBodyMB       int    `mapstructure:"max_body_mb" yaml:"max_body_mb" json:"max_body_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains the per-client request limits and daily quotas.
// Zero disables a single limit.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int  `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int  `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// BatchConfig contains batch annotation settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	OutputDir       string   `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}
