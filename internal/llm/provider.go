// Package llm defines the reasoning/generation/embedding backend capability
// and its concrete providers. All availability branching in the pipeline
// happens on this one capability object, never on exception paths.
package llm

import (
	"context"

	"github.com/reqclarity/reqclarity/internal/model"
)

// Provider defines the interface for LLM backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// EvaluateTerm judges whether a term is ambiguous in its specific context
	EvaluateTerm(ctx context.Context, req EvaluationRequest) (model.Judgment, error)

	// GenerateSuggestions produces replacement phrasings and a clarification
	// question for a confirmed-ambiguous term
	GenerateSuggestions(ctx context.Context, req SuggestionRequest) (model.SuggestionSet, error)

	// Embed returns an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// SupportsEmbeddings reports whether Embed is implemented; the semantic
	// matcher degrades to an empty result set when it is not
	SupportsEmbeddings() bool

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// EvaluationRequest carries one candidate term with its context
type EvaluationRequest struct {
	// Term is the surface text being judged
	Term string

	// Sentence is the full sentence containing the term
	Sentence string

	// ContextWindow is the wider surrounding text
	ContextWindow string
}

// SuggestionRequest carries one confirmed-ambiguous term
type SuggestionRequest struct {
	Term     string
	FullText string
	Sentence string
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name for chat/generation (provider-specific)
	Model string

	// EmbeddingModel for the semantic matcher
	EmbeddingModel string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:       mc.Provider,
		Model:          mc.Model,
		EmbeddingModel: mc.EmbeddingModel,
		APIKey:         mc.APIKey,
		BaseURL:        mc.BaseURL,
		Timeout:        mc.Timeout,
		MaxTokens:      mc.MaxTokens,
		HTTPProxy:      mc.HTTPProxy,
		HTTPSProxy:     mc.HTTPSProxy,
		NoProxy:        mc.NoProxy,
	}
}
