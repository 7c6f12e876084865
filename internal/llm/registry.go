package llm

import (
	"fmt"
	"os"

	"maitred/internal/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderType represents the type of LLM backend
type ProviderType string

const (
	OpenAIProvider       ProviderType = "openai"
	OllamaProvider       ProviderType = "ollama"
	GitHubModelsProvider ProviderType = "github_models"
	AzureProvider        ProviderType = "azure"
)

const (
	gitHubModelsURL = "https://models.inference.ai.azure.com"
	azureAPIVersion = "2024-02-01"
)

// NewModel builds the langchaingo model named by cfg.Provider.
func NewModel(cfg config.LLMConfig) (llms.Model, error) {
	switch ProviderType(cfg.Provider) {
	case OpenAIProvider:
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return model, nil

	case GitHubModelsProvider:
		token := cfg.APIKey
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN environment variable is required for GitHub Models")
		}
		// GitHub Models uses an OpenAI-compatible API
		model, err := openai.New(
			openai.WithToken(token),
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(gitHubModelsURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub Models client: %w", err)
		}
		return model, nil

	case AzureProvider:
		if cfg.BaseURL == "" || cfg.APIKey == "" {
			return nil, fmt.Errorf("azure provider requires base_url and api_key")
		}
		model, err := openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(azureAPIVersion),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
		}
		return model, nil

	case OllamaProvider:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return model, nil
	}

	return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
}

// NewProvider builds the model for cfg and wraps it as a Provider.
func NewProvider(cfg config.LLMConfig) (*LangChainProvider, error) {
	model, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewLangChainProvider(model, cfg.Temperature, cfg.MaxTokens), nil
}

// TokenCounter returns a tokenizer-backed counter for model, used for
// token-budget history trimming.
func TokenCounter(model string) func(string) int {
	return func(text string) int {
		return llms.CountTokens(model, text)
	}
}
