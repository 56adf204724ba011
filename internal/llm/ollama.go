package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reqclarity/reqclarity/internal/model"
	"github.com/reqclarity/reqclarity/internal/util"
)

// OllamaProvider implements the Provider interface for local Ollama models
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Ollama API structures
type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type ollamaErrorResponse struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // Local models can be slow
	}

	return &OllamaProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// SupportsEmbeddings reports embedding capability
func (p *OllamaProvider) SupportsEmbeddings() bool {
	return true
}

// IsAvailable checks if the Ollama server is reachable
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// EvaluateTerm judges a term's ambiguity via the generate endpoint
func (p *OllamaProvider) EvaluateTerm(ctx context.Context, req EvaluationRequest) (model.Judgment, error) {
	raw, err := p.generate(ctx, evaluationSystemPrompt, BuildEvaluationPrompt(req))
	if err != nil {
		return model.Judgment{}, fmt.Errorf("Ollama evaluation: %w", err)
	}
	return ParseJudgment(raw)
}

// GenerateSuggestions produces replacements for a confirmed-ambiguous term
func (p *OllamaProvider) GenerateSuggestions(ctx context.Context, req SuggestionRequest) (model.SuggestionSet, error) {
	raw, err := p.generate(ctx, suggestionSystemPrompt, BuildSuggestionPrompt(req))
	if err != nil {
		return model.SuggestionSet{}, fmt.Errorf("Ollama suggestions: %w", err)
	}
	return ParseSuggestionSet(raw)
}

// Embed returns an embedding vector via the embeddings endpoint
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	embModel := p.config.EmbeddingModel
	if embModel == "" {
		embModel = "nomic-embed-text"
	}

	body, err := json.Marshal(ollamaEmbeddingRequest{Model: embModel, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := p.post(ctx, "/api/embeddings", body)
	if err != nil {
		return nil, fmt.Errorf("Ollama embeddings: %w", err)
	}

	var decoded ollamaEmbeddingResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(decoded.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return decoded.Embedding, nil
}

func (p *OllamaProvider) generate(ctx context.Context, system, prompt string) (string, error) {
	chatModel := p.config.Model
	if chatModel == "" {
		chatModel = "llama3.1"
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  chatModel,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.1,
			NumPredict:  maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := p.post(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}

	var decoded ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Response == "" {
		return "", fmt.Errorf("empty response from Ollama")
	}
	return decoded.Response, nil
}

func (p *OllamaProvider) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("Ollama API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return respBody, nil
}
