// ABOUTME: Centralized configuration for the docqa service and CLI
// ABOUTME: Loads defaults, an optional config file, and environment overrides via viper
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harper/docqa/internal/storage/sqlite"
)

// EnvPrefix namespaces environment overrides, e.g. DOCQA_STORE_BACKEND
const EnvPrefix = "DOCQA"

// Provider names for embedder and generator selection
const (
	ProviderAuto       = "auto"
	ProviderOpenAI     = "openai"
	ProviderHash       = "hash"
	ProviderExtractive = "extractive"
)

// Store backend names
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
	BackendCharm  = "charm"
)

// Config holds all configuration for docqa
type Config struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Store     StoreConfig     `mapstructure:"store"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Server    ServerConfig    `mapstructure:"server"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// OpenAIConfig configures the hosted embedding and chat models
type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`

	// RequestsPerSecond throttles upstream calls; 0 disables the limiter
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// EmbeddingConfig selects collaborators and bounds their latency
type EmbeddingConfig struct {
	Embedder        string        `mapstructure:"embedder"`
	Generator       string        `mapstructure:"generator"`
	Dimension       int           `mapstructure:"dimension"`
	EmbedTimeout    time.Duration `mapstructure:"embed_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
	BatchSize       int           `mapstructure:"batch_size"`
	Workers         int           `mapstructure:"workers"`
}

// StoreConfig selects and locates the vector store
type StoreConfig struct {
	Backend          string `mapstructure:"backend"`
	DBPath           string `mapstructure:"db_path"`
	QdrantHost       string `mapstructure:"qdrant_host"`
	QdrantPort       int    `mapstructure:"qdrant_port"`
	QdrantCollection string `mapstructure:"qdrant_collection"`
	CharmHost        string `mapstructure:"charm_host"`
	CharmDBName      string `mapstructure:"charm_db"`
	AutoSync         bool   `mapstructure:"auto_sync"`
}

// ChunkingConfig controls how documents are split
type ChunkingConfig struct {
	Size        int    `mapstructure:"size"`
	Overlap     int    `mapstructure:"overlap"`
	MinTrailing int    `mapstructure:"min_trailing"`
	Strategy    string `mapstructure:"strategy"`
}

// RetrievalConfig controls search and context assembly
type RetrievalConfig struct {
	Metric   string `mapstructure:"metric"`
	DefaultK int    `mapstructure:"default_k"`
	MaxK     int    `mapstructure:"max_k"`

	// MaxContextChars caps the generation context; 0 means unlimited
	MaxContextChars int `mapstructure:"max_context_chars"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// TracingConfig controls OpenTelemetry export; an empty endpoint disables it
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Load reads configuration from defaults, the optional file at path, and the environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.resolve()
	return &cfg, cfg.Validate()
}

// Default returns the configuration Load would produce with an empty environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.resolve()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("openai.max_retries", 3)
	v.SetDefault("openai.retry_delay", 2*time.Second)
	v.SetDefault("openai.requests_per_second", 0.0)
	v.SetDefault("openai.burst", 1)

	v.SetDefault("embedding.embedder", ProviderAuto)
	v.SetDefault("embedding.generator", ProviderAuto)
	v.SetDefault("embedding.dimension", 0)
	v.SetDefault("embedding.embed_timeout", 30*time.Second)
	v.SetDefault("embedding.generate_timeout", 60*time.Second)
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.workers", 4)

	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.db_path", sqlite.DefaultDBPath())
	v.SetDefault("store.qdrant_host", "localhost")
	v.SetDefault("store.qdrant_port", 6334)
	v.SetDefault("store.qdrant_collection", "documents")
	v.SetDefault("store.charm_host", "cloud.charm.sh")
	v.SetDefault("store.charm_db", "docqa")
	v.SetDefault("store.auto_sync", true)

	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 200)
	v.SetDefault("chunking.min_trailing", 100)
	v.SetDefault("chunking.strategy", "word")

	v.SetDefault("retrieval.metric", "cosine")
	v.SetDefault("retrieval.default_k", 3)
	v.SetDefault("retrieval.max_k", 0)
	v.SetDefault("retrieval.max_context_chars", 10000)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(32<<20))

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "docqa")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// bindLegacyEnv keeps the conventional unprefixed variables working
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("openai.api_key", "DOCQA_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "DOCQA_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.max_retries", "DOCQA_OPENAI_MAX_RETRIES", "OPENAI_MAX_RETRIES")
	_ = v.BindEnv("openai.retry_delay", "DOCQA_OPENAI_RETRY_DELAY", "OPENAI_RETRY_DELAY")
	_ = v.BindEnv("embedding.embed_timeout", "DOCQA_EMBEDDING_EMBED_TIMEOUT", "OPENAI_TIMEOUT")
	_ = v.BindEnv("store.charm_host", "DOCQA_STORE_CHARM_HOST", "CHARM_HOST")
	_ = v.BindEnv("tracing.endpoint", "DOCQA_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// resolve fills values that depend on other settings
func (c *Config) resolve() {
	if c.Embedding.Embedder == ProviderAuto || c.Embedding.Embedder == "" {
		if c.OpenAI.APIKey != "" {
			c.Embedding.Embedder = ProviderOpenAI
		} else {
			c.Embedding.Embedder = ProviderHash
		}
	}
	if c.Embedding.Generator == ProviderAuto || c.Embedding.Generator == "" {
		if c.OpenAI.APIKey != "" {
			c.Embedding.Generator = ProviderOpenAI
		} else {
			c.Embedding.Generator = ProviderExtractive
		}
	}
	if c.Embedding.Dimension == 0 {
		switch c.Embedding.Embedder {
		case ProviderOpenAI:
			c.Embedding.Dimension = 1536
		default:
			c.Embedding.Dimension = 512
		}
	}
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	if c.OpenAI.MaxRetries < 0 || c.OpenAI.MaxRetries > 10 {
		return fmt.Errorf("openai.max_retries must be 0-10, got %d", c.OpenAI.MaxRetries)
	}
	if c.OpenAI.RequestsPerSecond < 0 {
		return fmt.Errorf("openai.requests_per_second must be >= 0, got %f", c.OpenAI.RequestsPerSecond)
	}
	switch c.Embedding.Embedder {
	case ProviderOpenAI, ProviderHash:
	default:
		return fmt.Errorf("embedding.embedder must be openai or hash, got %q", c.Embedding.Embedder)
	}
	switch c.Embedding.Generator {
	case ProviderOpenAI, ProviderExtractive:
	default:
		return fmt.Errorf("embedding.generator must be openai or extractive, got %q", c.Embedding.Generator)
	}
	if (c.Embedding.Embedder == ProviderOpenAI || c.Embedding.Generator == ProviderOpenAI) && c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when an openai provider is selected")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.EmbedTimeout <= 0 || c.Embedding.GenerateTimeout <= 0 {
		return fmt.Errorf("embedding timeouts must be positive")
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("embedding.batch_size must be >= 1, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Workers < 1 {
		return fmt.Errorf("embedding.workers must be >= 1, got %d", c.Embedding.Workers)
	}

	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendQdrant, BackendCharm:
	default:
		return fmt.Errorf("store.backend must be memory, sqlite, qdrant, or charm, got %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendSQLite && c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required for the sqlite backend")
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap)
	}
	if c.Chunking.MinTrailing < 0 {
		return fmt.Errorf("chunking.min_trailing must be >= 0, got %d", c.Chunking.MinTrailing)
	}
	switch c.Chunking.Strategy {
	case "char", "word", "sentence":
	default:
		return fmt.Errorf("chunking.strategy must be char, word, or sentence, got %q", c.Chunking.Strategy)
	}

	switch strings.ToLower(c.Retrieval.Metric) {
	case "cosine", "dot", "dot_product", "euclidean", "l2":
	default:
		return fmt.Errorf("retrieval.metric must be cosine, dot, or euclidean, got %q", c.Retrieval.Metric)
	}
	if c.Retrieval.DefaultK < 1 {
		return fmt.Errorf("retrieval.default_k must be >= 1, got %d", c.Retrieval.DefaultK)
	}
	// max_k 0 leaves k bounded only by the store size
	if c.Retrieval.MaxK < 0 || (c.Retrieval.MaxK > 0 && c.Retrieval.MaxK < c.Retrieval.DefaultK) {
		return fmt.Errorf("retrieval.max_k (%d) must be 0 or >= default_k (%d)", c.Retrieval.MaxK, c.Retrieval.DefaultK)
	}
	if c.Retrieval.MaxContextChars < 0 {
		return fmt.Errorf("retrieval.max_context_chars must be >= 0, got %d", c.Retrieval.MaxContextChars)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be 0-1, got %f", c.Tracing.SampleRate)
	}
	return nil
}

// Warnings reports settings that are legal but likely unintended
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Embedding.Embedder == ProviderHash && c.Embedding.Generator == ProviderOpenAI {
		warnings = append(warnings, "hash embeddings with an openai generator; retrieval quality will be lexical only")
	}
	if c.Store.Backend == BackendMemory {
		warnings = append(warnings, "memory store selected; documents are lost on exit")
	}
	return warnings
}

// PrintWarnings writes Warnings to stderr
func (c *Config) PrintWarnings() {
	for _, w := range c.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
