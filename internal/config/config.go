package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nutriplate/nutriplate/internal/domain"
)

// Config holds the nutriplate API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	RAG        RAGConfig        `yaml:"rag"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig maps bearer tokens to user ids. An empty map disables authentication.
type AuthConfig struct {
	Tokens map[string]string `yaml:"tokens"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds Redis-compatible store settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds the OpenAI-compatible embedding endpoint settings.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	MaxBatchSize int    `yaml:"max_batch_size"`
	Cache        bool   `yaml:"cache"`
	// CacheTTLHours expires cached vectors; 0 keeps them until the key is removed.
	CacheTTLHours int `yaml:"cache_ttl_hours"`
}

// GenerationConfig holds the Ollama generate endpoint settings.
type GenerationConfig struct {
	Host             string  `yaml:"host"`
	TextModel        string  `yaml:"text_model"`
	VisionModel      string  `yaml:"vision_model"`
	Temperature      float64 `yaml:"temperature"`
	TextTimeoutSec   int     `yaml:"text_timeout_sec"`
	VisionTimeoutSec int     `yaml:"vision_timeout_sec"`
}

// RAGConfig holds retrieval settings and the documents seeded at startup.
type RAGConfig struct {
	TopK          int      `yaml:"top_k"`
	MaxK          int      `yaml:"max_k"`
	SeedDocuments []string `yaml:"seed_documents"`
	SeedMaxWait   int      `yaml:"seed_max_wait_sec"`
}

// CatalogConfig holds recipe list pagination settings.
type CatalogConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// DefaultSeedDocuments is the knowledge the assistant starts with.
var DefaultSeedDocuments = []string{
	"Walking 30 minutes daily improves cardiovascular health.",
	"Eating vegetables and fruits reduces the risk of chronic diseases.",
	"Good sleep (7-8 hours) improves focus and reduces stress.",
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; variables already set win.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies defaults.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyEnvOverrides()
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

// ApplyEnvOverrides lets the OLLAMA_* variables win over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Generation.Host = v
	}
	if v := os.Getenv("OLLAMA_TEXT_MODEL"); v != "" {
		c.Generation.TextModel = v
	}
	if v := os.Getenv("OLLAMA_VISION_MODEL"); v != "" {
		c.Generation.VisionModel = v
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	models := domain.DefaultModelConfig()

	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Vision calls may take up to two minutes.
		c.HTTP.WriteTimeoutSec = 150
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 10 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.KeyPrefix
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = strings.TrimRight(c.generationHost(models), "/") + "/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = models.EmbeddingModel
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = models.EmbeddingDimensions
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 64
	}

	c.Generation.Host = c.generationHost(models)
	if c.Generation.TextModel == "" {
		c.Generation.TextModel = models.TextModel
	}
	if c.Generation.VisionModel == "" {
		c.Generation.VisionModel = models.VisionModel
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = models.Temperature
	}
	if c.Generation.TextTimeoutSec <= 0 {
		c.Generation.TextTimeoutSec = 120
	}
	if c.Generation.VisionTimeoutSec <= 0 {
		c.Generation.VisionTimeoutSec = 120
	}

	if c.RAG.TopK <= 0 {
		c.RAG.TopK = models.TopK
	}
	if c.RAG.MaxK <= 0 {
		c.RAG.MaxK = 100
	}
	if c.RAG.SeedDocuments == nil {
		c.RAG.SeedDocuments = DefaultSeedDocuments
	}
	if c.RAG.SeedMaxWait <= 0 {
		c.RAG.SeedMaxWait = 300
	}

	if c.Catalog.DefaultPageSize <= 0 {
		c.Catalog.DefaultPageSize = 20
	}
	if c.Catalog.MaxPageSize <= 0 {
		c.Catalog.MaxPageSize = 100
	}
}

func (c *Config) generationHost(models domain.ModelConfig) string {
	if c.Generation.Host != "" {
		return c.Generation.Host
	}
	return models.Host
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.CacheTTLHours < 0 {
		return fmt.Errorf("embedding.cache_ttl_hours must not be negative, got %d", c.Embedding.CacheTTLHours)
	}
	if !strings.HasPrefix(c.Generation.Host, "http://") && !strings.HasPrefix(c.Generation.Host, "https://") {
		return fmt.Errorf("generation.host must be an http(s) URL, got %q", c.Generation.Host)
	}
	if c.Catalog.DefaultPageSize > c.Catalog.MaxPageSize {
		return fmt.Errorf("catalog.default_page_size (%d) exceeds max_page_size (%d)",
			c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	for token, user := range c.Auth.Tokens {
		if token == "" || user == "" {
			return fmt.Errorf("auth.tokens entries need a token and a user")
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
