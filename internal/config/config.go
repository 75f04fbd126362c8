package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the prosearch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Engine    EngineConfig    `yaml:"engine"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector store connection settings. Addrs empty means
// no remote backend: the engine serves semantic search from memory.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings. APIKey empty means no
// embedder: the engine serves lexical-only results.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheTTL   int    `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// EngineConfig holds retrieval tuning knobs. The float tunables are pointers
// so an explicit zero (alpha 0 is a pure lexical blend, a zero threshold
// disables that side of the relevance gate) is distinguishable from unset.
type EngineConfig struct {
	RRFConstant    int          `yaml:"rrf_constant"`
	FusionAlpha    *float64     `yaml:"fusion_alpha"`
	MinBM25        *float64     `yaml:"min_bm25_threshold"`
	MinSemantic    *float64     `yaml:"min_semantic_threshold"`
	DefaultLimit   int          `yaml:"default_limit"`
	MaxLimit       int          `yaml:"max_limit"`
	EmbedBatchSize int          `yaml:"embed_batch_size"`
	InitTimeoutSec int          `yaml:"init_timeout_sec"`
	Rules          []RuleConfig `yaml:"rules"`
}

// RuleConfig is one product-type heuristic rule added on top of the
// built-in table.
type RuleConfig struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Required []string `yaml:"required"`
	Excluded []string `yaml:"excluded"`
}

// CatalogConfig holds product catalog source settings.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds key namespace settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	IndexName string `yaml:"index_name"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Engine.RRFConstant <= 0 {
		c.Engine.RRFConstant = 60
	}
	if c.Engine.FusionAlpha == nil {
		c.Engine.FusionAlpha = floatDefault(0.5)
	}
	if c.Engine.MinBM25 == nil {
		c.Engine.MinBM25 = floatDefault(0.15)
	}
	if c.Engine.MinSemantic == nil {
		c.Engine.MinSemantic = floatDefault(0.35)
	}
	if c.Engine.DefaultLimit <= 0 {
		c.Engine.DefaultLimit = 10
	}
	if c.Engine.MaxLimit <= 0 {
		c.Engine.MaxLimit = 100
	}
	if c.Engine.EmbedBatchSize <= 0 {
		c.Engine.EmbedBatchSize = 100
	}
	if c.Engine.InitTimeoutSec <= 0 {
		c.Engine.InitTimeoutSec = 120
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "prosearch:"
	}
	if c.Storage.IndexName == "" {
		c.Storage.IndexName = "prosearch_products"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if a := c.Engine.FusionAlpha; a != nil && (*a < 0 || *a > 1) {
		return fmt.Errorf("engine.fusion_alpha must be between 0 and 1, got %g", *a)
	}
	if v := c.Engine.MinBM25; v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("engine.min_bm25_threshold must be between 0 and 1, got %g", *v)
	}
	if v := c.Engine.MinSemantic; v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("engine.min_semantic_threshold must be between 0 and 1, got %g", *v)
	}
	for i, r := range c.Engine.Rules {
		if r.Name == "" {
			return fmt.Errorf("engine.rules[%d].name is required", i)
		}
		if len(r.Triggers) == 0 {
			return fmt.Errorf("engine.rules[%d] (%s) has no triggers", i, r.Name)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func floatDefault(v float64) *float64 { return &v }

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
