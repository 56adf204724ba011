package model

import "time"

// Config holds the full engine configuration
type Config struct {
	Database    DatabaseConfig    `yaml:"database" mapstructure:"database"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Semantic    SemanticConfig    `yaml:"semantic" mapstructure:"semantic"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DatabaseConfig configures the sqlite store
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LLMConfig configures the reasoning/generation/embedding backend
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama", "" (disabled)
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
	APIKey         string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds per request
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SemanticConfig tunes the embedding-based matcher
type SemanticConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"` // Cosine similarity cutoff
	CacheTTL  int     `yaml:"cache_ttl" mapstructure:"cache_ttl"` // Minutes; 0 = no expiry
}

// ConcurrencyConfig bounds the fan-out of the batch components
type ConcurrencyConfig struct {
	EvaluationWorkers int `yaml:"evaluation_workers" mapstructure:"evaluation_workers"`
	SuggestionWorkers int `yaml:"suggestion_workers" mapstructure:"suggestion_workers"`
	BatchWorkers      int `yaml:"batch_workers" mapstructure:"batch_workers"` // Concurrent requirement analyses
}

// RateLimitConfig configures the per-owner request budget (0 = disabled)
type RateLimitConfig struct {
	RequestsPerHour int `yaml:"requests_per_hour" mapstructure:"requests_per_hour"`
	Burst           int `yaml:"burst" mapstructure:"burst"`
}

// HTTPConfig configures the requirement-page fetcher
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "reqclarity.db",
		},
		LLM: LLMConfig{
			Provider:       "", // Disabled by default: lexicon-only mode
			Model:          "",
			EmbeddingModel: "",
			Timeout:        30,
			MaxTokens:      1000,
		},
		Semantic: SemanticConfig{
			Enabled:   true,
			Threshold: 0.85,
			CacheTTL:  0,
		},
		Concurrency: ConcurrencyConfig{
			EvaluationWorkers: 8,
			SuggestionWorkers: 8,
			BatchWorkers:      4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerHour: 0, // Disabled
			Burst:           10,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "ReqClarity/0.1 (+https://github.com/reqclarity/reqclarity)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
