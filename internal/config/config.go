package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	LLM          LLMConfig          `yaml:"llm"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	VectorIndex  VectorIndexConfig  `yaml:"vector_index"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Conversation ConversationConfig `yaml:"conversation"`
	Database     DatabaseConfig     `yaml:"database"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Stream       StreamConfig       `yaml:"stream"`
	Retry        RetryConfig        `yaml:"retry"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	Mode        string `yaml:"mode"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// LLMConfig selects the language-model backend.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai, ollama, github_models, azure
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // hash, openai, langchain
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
}

// VectorIndexConfig selects where catalog embeddings live.
type VectorIndexConfig struct {
	Provider   string        `yaml:"provider"` // memory, chroma, database
	URL        string        `yaml:"url"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

type RetrievalConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// ConversationConfig controls history storage and trimming.
type ConversationConfig struct {
	Backend     string         `yaml:"backend"` // memory, redis, dynamodb
	MaxMessages int            `yaml:"max_messages"`
	MaxTokens   int            `yaml:"max_tokens"`
	TTL         time.Duration  `yaml:"ttl"`
	RedisURL    string         `yaml:"redis_url"`
	DynamoDB    DynamoDBConfig `yaml:"dynamodb"`
}

type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// DatabaseConfig enables gorm-backed repositories when Driver is set.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "", sqlite3, postgres
	DSN    string `yaml:"dsn"`
	Seed   bool   `yaml:"seed"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type StreamConfig struct {
	ChunkSize int `yaml:"chunk_size"`
}

type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	Delay          time.Duration `yaml:"delay"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, MetricsPort: 9090, Mode: "release"},
		Log:    LogConfig{Level: "info"},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama3.2",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.7,
			MaxTokens:   1000,
			Timeout:     120 * time.Second,
		},
		Embedding:   EmbeddingConfig{Provider: "hash", Dimensions: 1024},
		VectorIndex: VectorIndexConfig{Provider: "memory", Collection: "meals", Timeout: 10 * time.Second},
		Retrieval:   RetrievalConfig{TopK: 5, MinSimilarity: 0.0},
		Conversation: ConversationConfig{
			Backend:     "memory",
			MaxMessages: 20,
			TTL:         24 * time.Hour,
			DynamoDB:    DynamoDBConfig{Table: "Conversations", Region: "us-east-1"},
		},
		Database: DatabaseConfig{},
		Stream:   StreamConfig{ChunkSize: 5},
		Retry:    RetryConfig{MaxRetries: 1, Delay: 500 * time.Millisecond, AttemptTimeout: 60 * time.Second},
	}
}

// Load reads a YAML file over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Conversation.RedisURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}

// Validate rejects configurations that cannot be wired.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("retrieval.min_similarity must be within [0,1]")
	}
	if c.Conversation.MaxMessages <= 0 {
		return fmt.Errorf("conversation.max_messages must be positive")
	}
	if c.Stream.ChunkSize <= 0 {
		return fmt.Errorf("stream.chunk_size must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}

	switch c.Conversation.Backend {
	case "memory", "redis", "dynamodb":
	default:
		return fmt.Errorf("unknown conversation backend %q", c.Conversation.Backend)
	}
	switch c.VectorIndex.Provider {
	case "memory", "chroma", "database":
	default:
		return fmt.Errorf("unknown vector index provider %q", c.VectorIndex.Provider)
	}
	if c.VectorIndex.Provider == "database" && c.Database.Driver == "" {
		return fmt.Errorf("vector_index.provider database requires database.driver")
	}
	switch c.Database.Driver {
	case "", "sqlite3", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}
