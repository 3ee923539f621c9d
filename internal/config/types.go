package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level freestyler configuration, corresponding to .freestyler.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	Model          string       `yaml:"model" koanf:"model"`
	BaseURL        string       `yaml:"base_url,omitempty" koanf:"base_url"`
	Temperature    float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens      int          `yaml:"max_tokens" koanf:"max_tokens"`
	RateLimitRPM   int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	DefaultPersona string       `yaml:"default_persona" koanf:"default_persona"`
	PersonaFiles   []string     `yaml:"persona_files,omitempty" koanf:"persona_files"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	Server         ServerConfig `yaml:"server" koanf:"server"`
	Bars           BarsConfig   `yaml:"bars" koanf:"bars"`
	Log            LogConfig    `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `yaml:"port" koanf:"port"`
	AllowAll       bool          `yaml:"allow_all" koanf:"allow_all"`
	RequestTimeout time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}

// BarsConfig controls how generated text is cut into bars.
type BarsConfig struct {
	Max      int      `yaml:"max" koanf:"max"`
	MinWords int      `yaml:"min_words" koanf:"min_words"`
	Markers  []string `yaml:"markers" koanf:"markers"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"` // "console" or "json"
}
