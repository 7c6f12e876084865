// Package retrieval grounds meal answers in a vector-similarity search over
// the catalog.
package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/embeddings"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"maitred/internal/config"
)

// Embedder turns text into a fixed-length vector. Identical input must
// yield identical output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DefaultDimensions is the HashEmbedder width when none is configured.
const DefaultDimensions = 1024

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true, "to": true,
	"for": true, "in": true, "on": true, "with": true, "me": true, "my": true, "i": true,
	"is": true, "are": true, "can": true, "you": true, "some": true, "any": true,
	"show": true, "please": true, "what": true, "want": true, "like": true, "it": true,
}

// HashEmbedder is a deterministic bag-of-words embedder. Each token is hashed
// into one signed bucket, so cosine similarity approximates term overlap.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hashing embedder with dims buckets.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed hashes the tokens of text into a normalized vector
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	for _, tok := range Tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		sign := float32(1)
		if sum&(1<<63) != 0 {
			sign = -1
		}
		vec[sum%uint64(e.dims)] += sign
	}
	normalize(vec)
	return vec, nil
}

// Tokenize lowercases text, splits on non-alphanumerics, drops stop words and
// strips a plural "s".
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		out = append(out, f)
	}
	return out
}

func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder for the given key, model and optional base URL.
func NewOpenAIEmbedder(apiKey, model, baseURL string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	m := openai.AdaEmbeddingV2
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: m}
}

// Embed requests a single embedding
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding creation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings received")
	}
	return resp.Data[0].Embedding, nil
}

// LangChainEmbedder adapts a langchaingo embedder (ollama or openai backed).
type LangChainEmbedder struct {
	embedder embeddings.Embedder
}

// NewLangChainEmbedder wraps an existing langchaingo embedder.
func NewLangChainEmbedder(e embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{embedder: e}
}

// Embed embeds text as a query
func (e *LangChainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vec, nil
}

// NewEmbedder builds the embedder named by cfg.Provider. The langchain
// provider reuses the LLM backend settings.
func NewEmbedder(cfg config.EmbeddingConfig, llmCfg config.LLMConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings require an api key")
		}
		return NewOpenAIEmbedder(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "langchain":
		client, err := langChainClient(cfg, llmCfg)
		if err != nil {
			return nil, err
		}
		e, err := embeddings.NewEmbedder(client)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return NewLangChainEmbedder(e), nil
	}
	return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
}

func langChainClient(cfg config.EmbeddingConfig, llmCfg config.LLMConfig) (embeddings.EmbedderClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = llmCfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = llmCfg.Model
	}

	if llmCfg.Provider == "ollama" {
		opts := []lcollama.Option{lcollama.WithModel(model)}
		if baseURL != "" {
			opts = append(opts, lcollama.WithServerURL(baseURL))
		}
		return lcollama.New(opts...)
	}

	opts := []lcopenai.Option{lcopenai.WithEmbeddingModel(model)}
	if key := firstNonEmpty(cfg.APIKey, llmCfg.APIKey); key != "" {
		opts = append(opts, lcopenai.WithToken(key))
	}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	return lcopenai.New(opts...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
