package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/reqclarity/reqclarity/internal/detect"
	"github.com/reqclarity/reqclarity/internal/lexicon"
	"github.com/reqclarity/reqclarity/internal/llm"
	"github.com/reqclarity/reqclarity/internal/model"
	"github.com/reqclarity/reqclarity/internal/pipeline"
	"github.com/reqclarity/reqclarity/internal/semantic"
	"github.com/reqclarity/reqclarity/internal/store"
	"github.com/reqclarity/reqclarity/internal/worker"
)

// engine bundles the wired components the subcommands operate on
type engine struct {
	cfg      *model.Config
	store    *store.Store
	lexicon  *lexicon.Manager
	pipe     *pipeline.Pipeline
	renderer *pipeline.Renderer
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing store: %v\n", err)
	}
}

// loadConfig builds the effective configuration: defaults overlaid with the
// viper-config file and environment.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid config, using defaults: %v\n", err)
		cfg = model.DefaultConfig()
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg
}

// configureLLM applies the --llm flags and picks up provider credentials
// from the environment.
func configureLLM(cfg *model.Config, provider, chatModel string) error {
	cfg.LLM.Provider = provider
	if chatModel != "" {
		cfg.LLM.Model = chatModel
	}

	switch provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

// buildEngine opens the store, seeds the lexicon, and wires the detection
// pipeline from configuration. The caller must Close the returned engine.
func buildEngine(cfg *model.Config) (*engine, error) {
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}

	lex := lexicon.NewManager(s)
	added, err := lex.Seed()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("seed lexicon: %w", err)
	}
	if added > 0 && cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Seeded %d default lexicon terms\n", added)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("configure LLM provider: %w", err)
	}

	var matcher *semantic.Matcher
	if cfg.Semantic.Enabled && provider != nil {
		cacheTTL := time.Duration(cfg.Semantic.CacheTTL) * time.Minute
		matcher = semantic.NewMatcher(provider, lex, cfg.Semantic.Threshold, cacheTTL)
		matcher.SetVerbose(cfg.Output.Verbose)
	}

	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerHour, cfg.RateLimit.Burst)

	detector := detect.NewDetector(lex)
	pipe := pipeline.New(s, detector, matcher, provider, limiter, pipeline.Options{
		SemanticThreshold: cfg.Semantic.Threshold,
		EvaluationWorkers: cfg.Concurrency.EvaluationWorkers,
		SuggestionWorkers: cfg.Concurrency.SuggestionWorkers,
		BatchWorkers:      cfg.Concurrency.BatchWorkers,
		Verbose:           cfg.Output.Verbose,
	})

	return &engine{
		cfg:      cfg,
		store:    s,
		lexicon:  lex,
		pipe:     pipe,
		renderer: pipeline.NewRenderer(cfg.Output.IncludeFooter),
	}, nil
}
