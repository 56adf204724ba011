package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/reqclarity/reqclarity/internal/model"
	"github.com/reqclarity/reqclarity/internal/util"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// SupportsEmbeddings reports embedding capability
func (p *OpenAIProvider) SupportsEmbeddings() bool {
	return true
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// EvaluateTerm judges a term's ambiguity using the Chat Completions API
func (p *OpenAIProvider) EvaluateTerm(ctx context.Context, req EvaluationRequest) (model.Judgment, error) {
	raw, err := p.complete(ctx, evaluationSystemPrompt, BuildEvaluationPrompt(req))
	if err != nil {
		return model.Judgment{}, fmt.Errorf("OpenAI evaluation: %w", err)
	}
	return ParseJudgment(raw)
}

// GenerateSuggestions produces replacements for a confirmed-ambiguous term
func (p *OpenAIProvider) GenerateSuggestions(ctx context.Context, req SuggestionRequest) (model.SuggestionSet, error) {
	raw, err := p.complete(ctx, suggestionSystemPrompt, BuildSuggestionPrompt(req))
	if err != nil {
		return model.SuggestionSet{}, fmt.Errorf("OpenAI suggestions: %w", err)
	}
	return ParseSuggestionSet(raw)
}

// Embed returns an embedding vector using the Embeddings API
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	embModel := p.config.EmbeddingModel
	if embModel == "" {
		embModel = string(openai.SmallEmbedding3)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctxWithTimeout, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(embModel),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	chatModel := p.config.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1, // Low temperature for consistent judgments
	})
	if err != nil {
		return "", fmt.Errorf("API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) timeout() time.Duration {
	if p.config.Timeout > 0 {
		return time.Duration(p.config.Timeout) * time.Second
	}
	return 30 * time.Second
}
