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

// Config holds the askjames API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Phrasing  PhrasingConfig  `yaml:"phrasing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Bot       BotConfig       `yaml:"bot"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"` // 0 = provider default
	TimeoutSec  int    `yaml:"timeout_sec"`
	MaxInflight int    `yaml:"max_inflight"`
}

// PhrasingConfig holds chat completion settings. When disabled, matched
// answers are returned verbatim from the dataset.
type PhrasingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	TopP         float32 `yaml:"top_p"`
	MaxTokens    int     `yaml:"max_tokens"`
	TimeoutSec   int     `yaml:"timeout_sec"`
	SystemPrompt string  `yaml:"system_prompt"`
}

// RetrievalConfig holds dataset and matching settings.
type RetrievalConfig struct {
	DatasetPath string `yaml:"dataset_path"`
	// SimilarityThreshold is the cosine acceptance cutoff in [-1, 1].
	// 0 means the default; an explicit zero threshold is not supported.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxQueryLen         int     `yaml:"max_query_len"`
}

// BotConfig holds the fixed user-facing messages.
type BotConfig struct {
	RedirectMessage    string `yaml:"redirect_message"`
	UnavailableMessage string `yaml:"unavailable_message"`
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-large"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 15
	}
	if c.Embedding.MaxInflight <= 0 {
		c.Embedding.MaxInflight = 8
	}
	if c.Phrasing.Model == "" {
		c.Phrasing.Model = "gpt-4o-mini"
	}
	if c.Phrasing.Temperature <= 0 {
		c.Phrasing.Temperature = 0.3
	}
	if c.Phrasing.TopP <= 0 {
		c.Phrasing.TopP = 1.0
	}
	if c.Phrasing.MaxTokens <= 0 {
		c.Phrasing.MaxTokens = 900
	}
	if c.Phrasing.TimeoutSec <= 0 {
		c.Phrasing.TimeoutSec = 20
	}
	if c.Retrieval.SimilarityThreshold == 0 {
		c.Retrieval.SimilarityThreshold = 0.75
	}
	if c.Retrieval.MaxQueryLen <= 0 {
		c.Retrieval.MaxQueryLen = 1000
	}
	if c.Bot.RedirectMessage == "" {
		c.Bot.RedirectMessage = "I can only answer questions about James and his work. " +
			"For anything else, please reach out to him directly."
	}
	if c.Bot.UnavailableMessage == "" {
		c.Bot.UnavailableMessage = "The service is temporarily unavailable. Please try again in a moment."
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.Retrieval.DatasetPath == "" {
		return fmt.Errorf("retrieval.dataset_path is required")
	}
	if t := c.Retrieval.SimilarityThreshold; t < -1 || t > 1 {
		return fmt.Errorf("retrieval.similarity_threshold must be in [-1, 1], got %g", t)
	}
	if c.Phrasing.Enabled && c.Phrasing.SystemPrompt == "" {
		return fmt.Errorf("phrasing.system_prompt is required when phrasing is enabled")
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
