package config

import (
	"time"
)

// InferenceConfig represents the configuration of the optional inference backend
type InferenceConfig struct {
	Provider          string
	ClassifierEnabled bool
	GeneratorEnabled  bool
	Timeout           time.Duration
	MaxConcurrency    int64
	Probe             bool
	Breaker           BreakerConfig
}

// BreakerConfig represents the circuit breaker guarding the providers
type BreakerConfig struct {
	Enabled             bool
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// OpenAIConfig represents the configuration for OpenAI compatible APIs
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	ClassifierModel string
	GeneratorModel  string
	MaxBodySize     int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey          string
	ClassifierModel string
	GeneratorModel  string
	MaxBodySize     int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region            string
	ClassifierModelID string
	GeneratorModelID  string
	MaxBodySize       int
}

// ScoringConfig represents the keyword scorer configuration
type ScoringConfig struct {
	Strategy         string
	BaseWeight       int
	HighWeight       int
	ShortTextWords   int
	LongTextWords    int
	ShortTextPenalty int
	PunctuationBonus int
}

// GenerationConfig represents the reply generation bounds
type GenerationConfig struct {
	MaxLength         int
	DetailedMaxLength int
	NumBeams          int
	MinLength         int
	MaxInputChars     int
	// Temperature is nil unless generation.temperature is set
	Temperature *float32
}

// CacheConfig represents the verdict cache configuration
type CacheConfig struct {
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	ListenAddress    string
	APIPrefix        string
	BatchLimit       int
	BatchConcurrency int
	MaxUploadBytes   int64
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
}

// FilterConfig represents the SMTP content filter configuration
type FilterConfig struct {
	Enabled         bool
	ListenAddress   string
	MaxMessageBytes int64
	Timeout         time.Duration
	SkipDomains     []string
	PostfixEnabled  bool
	PostfixAddress  string
	PostfixPort     int
	CategoryHeader  string
	UrgencyHeader   string
	ToneHeader      string
}

// IMAPConfig represents the IMAP mailbox defaults
type IMAPConfig struct {
	DefaultServer string
	Port          int
	Folder        string
	TLS           bool
	DialTimeout   time.Duration
	MaxEmails     int
}

// GmailConfig represents the Gmail API configuration
type GmailConfig struct {
	Endpoint   string
	MaxResults int64
}

// GetInference returns the inference backend configuration
func (c *Config) GetInference() (InferenceConfig, error) {
	timeout, err := c.GetDuration("inference.timeout")
	if err != nil {
		return InferenceConfig{}, err
	}
	interval, err := c.GetDuration("inference.breaker.interval")
	if err != nil {
		return InferenceConfig{}, err
	}
	openFor, err := c.GetDuration("inference.breaker.timeout")
	if err != nil {
		return InferenceConfig{}, err
	}

	return InferenceConfig{
		Provider:          c.GetString("inference.provider"),
		ClassifierEnabled: c.GetBool("inference.classifier.enabled"),
		GeneratorEnabled:  c.GetBool("inference.generator.enabled"),
		Timeout:           timeout,
		MaxConcurrency:    c.GetInt64("inference.max_concurrency"),
		Probe:             c.GetBool("inference.probe"),
		Breaker: BreakerConfig{
			Enabled:             c.GetBool("inference.breaker.enabled"),
			MaxRequests:         uint32(c.GetUint64("inference.breaker.max_requests")),
			Interval:            interval,
			Timeout:             openFor,
			ConsecutiveFailures: uint32(c.GetUint64("inference.breaker.consecutive_failures")),
		},
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:          c.GetString("openai.api_key"),
		BaseURL:         c.GetString("openai.base_url"),
		ClassifierModel: c.GetString("openai.classifier_model"),
		GeneratorModel:  c.GetString("openai.generator_model"),
		MaxBodySize:     c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:          c.GetString("gemini.api_key"),
		ClassifierModel: c.GetString("gemini.classifier_model"),
		GeneratorModel:  c.GetString("gemini.generator_model"),
		MaxBodySize:     c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:            c.GetString("bedrock.region"),
		ClassifierModelID: c.GetString("bedrock.classifier_model_id"),
		GeneratorModelID:  c.GetString("bedrock.generator_model_id"),
		MaxBodySize:       c.GetInt("bedrock.max_body_size"),
	}
}

// GetScoring returns the keyword scorer configuration
func (c *Config) GetScoring() ScoringConfig {
	return ScoringConfig{
		Strategy:         c.GetString("scoring.strategy"),
		BaseWeight:       c.GetInt("scoring.base_weight"),
		HighWeight:       c.GetInt("scoring.high_weight"),
		ShortTextWords:   c.GetInt("scoring.short_text_words"),
		LongTextWords:    c.GetInt("scoring.long_text_words"),
		ShortTextPenalty: c.GetInt("scoring.short_text_penalty"),
		PunctuationBonus: c.GetInt("scoring.punctuation_bonus"),
	}
}

// GetGeneration returns the reply generation configuration
func (c *Config) GetGeneration() GenerationConfig {
	cfg := GenerationConfig{
		MaxLength:         c.GetInt("generation.max_length"),
		DetailedMaxLength: c.GetInt("generation.detailed_max_length"),
		NumBeams:          c.GetInt("generation.num_beams"),
		MinLength:         c.GetInt("generation.min_length"),
		MaxInputChars:     c.GetInt("generation.max_input_chars"),
	}
	if c.IsSet("generation.temperature") {
		t := float32(c.GetFloat64("generation.temperature"))
		cfg.Temperature = &t
	}
	return cfg
}

// GetCache returns the verdict cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
	}, nil
}

// GetServer returns the HTTP API configuration
func (c *Config) GetServer() (ServerConfig, error) {
	requestTimeout, err := c.GetDuration("server.request_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdownTimeout, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		ListenAddress:    c.GetString("server.listen_address"),
		APIPrefix:        c.GetString("server.api_prefix"),
		BatchLimit:       c.GetInt("server.batch_limit"),
		BatchConcurrency: c.GetInt("server.batch_concurrency"),
		MaxUploadBytes:   c.GetInt64("server.max_upload_bytes"),
		RequestTimeout:   requestTimeout,
		ShutdownTimeout:  shutdownTimeout,
	}, nil
}

// GetFilter returns the SMTP content filter configuration
func (c *Config) GetFilter() (FilterConfig, error) {
	timeout, err := c.GetDuration("filter.timeout")
	if err != nil {
		return FilterConfig{}, err
	}
	return FilterConfig{
		Enabled:         c.GetBool("filter.enabled"),
		ListenAddress:   c.GetString("filter.listen_address"),
		MaxMessageBytes: c.GetInt64("filter.max_message_bytes"),
		Timeout:         timeout,
		SkipDomains:     c.GetStringSlice("filter.skip_domains"),
		PostfixEnabled:  c.GetBool("filter.postfix.enabled"),
		PostfixAddress:  c.GetString("filter.postfix.address"),
		PostfixPort:     c.GetInt("filter.postfix.port"),
		CategoryHeader:  c.GetString("filter.headers.category"),
		UrgencyHeader:   c.GetString("filter.headers.urgency"),
		ToneHeader:      c.GetString("filter.headers.tone"),
	}, nil
}

// GetIMAP returns the IMAP mailbox configuration
func (c *Config) GetIMAP() (IMAPConfig, error) {
	dialTimeout, err := c.GetDuration("imap.dial_timeout")
	if err != nil {
		return IMAPConfig{}, err
	}
	return IMAPConfig{
		DefaultServer: c.GetString("imap.default_server"),
		Port:          c.GetInt("imap.port"),
		Folder:        c.GetString("imap.folder"),
		TLS:           c.GetBool("imap.tls"),
		DialTimeout:   dialTimeout,
		MaxEmails:     c.GetInt("imap.max_emails"),
	}, nil
}

// GetGmail returns the Gmail API configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		Endpoint:   c.GetString("gmail.endpoint"),
		MaxResults: c.GetInt64("gmail.max_results"),
	}
}
