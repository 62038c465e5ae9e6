package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSentinel is the reply the answer model gives when the context does
// not support an answer.
const DefaultSentinel = "Não sei, melhor abrir um chamado"

// AssistantConfig is the structure of assistant.yaml.
type AssistantConfig struct {
	Triage    RouteTarget       `yaml:"triage"`
	Answer    AnswerConfig      `yaml:"answer"`
	Vision    RouteTarget       `yaml:"vision"`
	Embedding EmbeddingConfig   `yaml:"embedding"`
	Retrieval RetrievalConfig   `yaml:"retrieval"`
	Store     StoreConfig       `yaml:"store"`
	Images    ImagesConfig      `yaml:"images"`
	Server    ServerConfig      `yaml:"server"`
	Logging   LoggingConfig     `yaml:"logging"`
	Tracing   TracingConfig     `yaml:"tracing"`
	APIKeys   APIKeysConfig     `yaml:"api_keys,omitempty"`
	Aliases   map[string]string `yaml:"aliases,omitempty"`
}

// APIKeysConfig holds provider keys from the file. Environment variables
// take precedence.
type APIKeysConfig struct {
	Google    string `yaml:"google,omitempty"`
	OpenAI    string `yaml:"openai,omitempty"`
	Anthropic string `yaml:"anthropic,omitempty"`
	DeepSeek  string `yaml:"deepseek,omitempty"`
}

// RouteTarget specifies an adapter and model combination.
type RouteTarget struct {
	Adapter string `yaml:"adapter"`
	Model   string `yaml:"model"`
}

// AnswerConfig configures grounded answer generation.
type AnswerConfig struct {
	RouteTarget `yaml:",inline"`
	Sentinel    string `yaml:"sentinel,omitempty"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension,omitempty"`
}

// RetrievalConfig holds similarity search settings. An explicit
// score_threshold of 0 disables the relevance cutoff.
type RetrievalConfig struct {
	TopK           int      `yaml:"top_k"`
	ScoreThreshold *float64 `yaml:"score_threshold"`
}

// DefaultScoreThreshold is the minimum similarity used when none is configured.
const DefaultScoreThreshold = 0.4

// Threshold returns the configured minimum similarity.
func (r RetrievalConfig) Threshold() float64 {
	if r.ScoreThreshold == nil {
		return DefaultScoreThreshold
	}
	return *r.ScoreThreshold
}

// StoreConfig selects the passage store.
type StoreConfig struct {
	Provider    string `yaml:"provider"`
	DSN         string `yaml:"dsn,omitempty"`
	Table       string `yaml:"table,omitempty"`
	RecordsPath string `yaml:"records_path,omitempty"`
}

// ImagesConfig points at the extracted page images.
type ImagesConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
	BodyLimitMB int      `yaml:"body_limit_mb,omitempty"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

// TracingConfig configures OTLP export. Empty endpoint disables tracing.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	ServiceName string `yaml:"service_name,omitempty"`
}

var (
	knownAdapters  = []string{"google", "openai", "anthropic", "deepseek", "mock"}
	knownEmbedders = []string{"google", "openai", "hash"}
	knownStores    = []string{"memory", "pgvector"}
)

// LoadAssistantConfig reads assistant configuration from a YAML file.
func LoadAssistantConfig(path string) (*AssistantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AssistantConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultAssistantConfig returns the default assistant configuration.
func DefaultAssistantConfig() *AssistantConfig {
	cfg := &AssistantConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AssistantConfig) {
	if cfg == nil {
		return
	}
	defaultTarget(&cfg.Triage)
	defaultTarget(&cfg.Answer.RouteTarget)
	defaultTarget(&cfg.Vision)
	if cfg.Answer.Sentinel == "" {
		cfg.Answer.Sentinel = DefaultSentinel
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "google"
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Model = "text-embedding-3-small"
		case "hash":
			cfg.Embedding.Model = "hash"
		default:
			cfg.Embedding.Model = "gemini-embedding-001"
		}
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = 768
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.ScoreThreshold == nil {
		threshold := DefaultScoreThreshold
		cfg.Retrieval.ScoreThreshold = &threshold
	}
	if cfg.Store.Provider == "" {
		cfg.Store.Provider = "memory"
	}
	if cfg.Store.Table == "" {
		cfg.Store.Table = "erp_passages"
	}
	if cfg.Images.Dir == "" {
		cfg.Images.Dir = "imagens_documentos"
	}
	if cfg.Images.URLPrefix == "" {
		cfg.Images.URLPrefix = "/static/images"
	}
	cfg.Images.URLPrefix = "/" + strings.Trim(cfg.Images.URLPrefix, "/")
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.BodyLimitMB == 0 {
		cfg.Server.BodyLimitMB = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "erpassist"
	}
}

func defaultTarget(t *RouteTarget) {
	if t.Adapter == "" {
		t.Adapter = "google"
	}
	if t.Model == "" {
		t.Model = "gemini-2.5-flash"
	}
}

// Validate rejects unknown providers and out-of-range retrieval settings.
func (c *AssistantConfig) Validate() error {
	targets := map[string]RouteTarget{
		"triage": c.Triage,
		"answer": c.Answer.RouteTarget,
		"vision": c.Vision,
	}
	for _, name := range []string{"triage", "answer", "vision"} {
		if !contains(knownAdapters, targets[name].Adapter) {
			return fmt.Errorf("%s: unknown adapter %q", name, targets[name].Adapter)
		}
	}
	if !contains(knownEmbedders, c.Embedding.Provider) {
		return fmt.Errorf("embedding: unknown provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding: dimension must be positive")
	}
	if !contains(knownStores, c.Store.Provider) {
		return fmt.Errorf("store: unknown provider %q", c.Store.Provider)
	}
	if c.Store.Provider == "pgvector" && c.Store.DSN == "" {
		return fmt.Errorf("store: pgvector requires dsn")
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval: top_k must be at least 1")
	}
	if t := c.Retrieval.Threshold(); t < 0 || t > 1 {
		return fmt.Errorf("retrieval: score_threshold must be within [0, 1]")
	}
	if strings.TrimSpace(c.Answer.Sentinel) == "" {
		return fmt.Errorf("answer: sentinel must not be empty")
	}
	return nil
}

// ResolveModel maps an alias to its full model name. Unknown names are
// returned unchanged.
func (c *AssistantConfig) ResolveModel(name string) string {
	if full, ok := c.Aliases[name]; ok && full != "" {
		return full
	}
	return name
}

// Adapters returns the distinct adapters referenced by the model targets.
func (c *AssistantConfig) Adapters() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range []string{c.Triage.Adapter, c.Answer.Adapter, c.Vision.Adapter} {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
