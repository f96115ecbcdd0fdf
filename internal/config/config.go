package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-triage/")
	v.AddConfigPath("$HOME/.email-triage")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return load(v)
}

// NewFromFile creates a configuration instance from an explicit file
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("EMAIL_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Inference defaults. "none" runs on keywords and templates only.
	v.SetDefault("inference.provider", "none")
	v.SetDefault("inference.classifier.enabled", true)
	v.SetDefault("inference.generator.enabled", true)
	v.SetDefault("inference.timeout", "30s")
	v.SetDefault("inference.max_concurrency", 4)
	v.SetDefault("inference.probe", true)
	v.SetDefault("inference.breaker.enabled", true)
	v.SetDefault("inference.breaker.max_requests", 1)
	v.SetDefault("inference.breaker.interval", "60s")
	v.SetDefault("inference.breaker.timeout", "30s")
	v.SetDefault("inference.breaker.consecutive_failures", 5)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.classifier_model", "gpt-4o-mini")
	v.SetDefault("openai.generator_model", "gpt-4o-mini")
	v.SetDefault("openai.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.classifier_model", "gemini-1.5-flash")
	v.SetDefault("gemini.generator_model", "gemini-1.5-flash")
	v.SetDefault("gemini.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.classifier_model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.generator_model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_body_size", 4096)

	// Scoring defaults
	v.SetDefault("scoring.strategy", "weighted")
	v.SetDefault("scoring.base_weight", 1)
	v.SetDefault("scoring.high_weight", 2)
	v.SetDefault("scoring.short_text_words", 5)
	v.SetDefault("scoring.long_text_words", 20)
	v.SetDefault("scoring.short_text_penalty", 1)
	v.SetDefault("scoring.punctuation_bonus", 1)

	// Generation defaults. generation.temperature has no default on purpose:
	// when unset the provider default applies.
	v.SetDefault("generation.max_length", 64)
	v.SetDefault("generation.detailed_max_length", 160)
	v.SetDefault("generation.num_beams", 2)
	v.SetDefault("generation.min_length", 20)
	v.SetDefault("generation.max_input_chars", 4096)

	v.SetDefault("templates.seed", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")

	// HTTP server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8000")
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.batch_limit", 50)
	v.SetDefault("server.batch_concurrency", 4)
	v.SetDefault("server.max_upload_bytes", 5*1024*1024)
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Content filter defaults
	v.SetDefault("filter.enabled", false)
	v.SetDefault("filter.listen_address", "0.0.0.0:10025")
	v.SetDefault("filter.max_message_bytes", 30*1024*1024)
	v.SetDefault("filter.timeout", "10s")
	v.SetDefault("filter.skip_domains", []string{})
	v.SetDefault("filter.postfix.enabled", true)
	v.SetDefault("filter.postfix.address", "localhost")
	v.SetDefault("filter.postfix.port", 10026)
	v.SetDefault("filter.headers.category", "X-Triage-Category")
	v.SetDefault("filter.headers.urgency", "X-Triage-Urgency")
	v.SetDefault("filter.headers.tone", "X-Triage-Tone")

	// Mailbox defaults
	v.SetDefault("imap.default_server", "imap.gmail.com")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.folder", "INBOX")
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.dial_timeout", "15s")
	v.SetDefault("imap.max_emails", 5)
	v.SetDefault("gmail.endpoint", "")
	v.SetDefault("gmail.max_results", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetUint64 gets a uint64 value from the configuration
func (c *Config) GetUint64(key string) uint64 {
	return c.v.GetUint64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// IsSet reports whether a key was set by a file, the environment or a flag
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Set overrides a value, typically from a command line flag
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
