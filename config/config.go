// Package config loads the static configuration document and provider
// credentials for voicefin.
//
// Non-secret settings (ticker map, model identifiers, voice settings) live
// in a YAML document; credentials come from the environment, optionally
// seeded from a .env file. Missing required identifiers or keys are a
// deployment problem and fail fast at load time.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names for provider credentials.
const (
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvAlphaVantageKey    = "ALPHA_VANTAGE_KEY"
	EnvNewsAPIKey         = "NEWS_API_KEY"
	EnvAssemblyAIKey      = "ASSEMBLYAI_API_KEY"
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
)

// LLM holds text-generation and embedding model settings.
type LLM struct {
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"-"`
}

// Voice holds speech provider settings.
type Voice struct {
	Region             string `yaml:"region"`
	VoiceID            string `yaml:"voice_id"`
	AssemblyAIKey      string `yaml:"-"`
	AWSAccessKeyID     string `yaml:"-"`
	AWSSecretAccessKey string `yaml:"-"`
}

// Providers holds market and news provider settings.
type Providers struct {
	AlphaVantageKey string `yaml:"-"`
	NewsAPIKey      string `yaml:"-"`
}

// Artifact backend names.
const (
	ArtifactBackendLocal = "local"
	ArtifactBackendCOS   = "cos"
)

// Artifacts selects where synthesized audio is persisted.
type Artifacts struct {
	// Backend is "local" (files under AudioDir) or "cos".
	Backend string `yaml:"backend"`
	// COSBucketURL is the bucket endpoint for the cos backend, e.g.
	// "https://bucket.cos.ap-guangzhou.myqcloud.com".
	COSBucketURL string `yaml:"cos_bucket_url"`
	// COSPrefix is an optional object key prefix.
	COSPrefix string `yaml:"cos_prefix"`
}

// Config is the static configuration document loaded at process start and
// shared read-only across runs.
type Config struct {
	// TickerMap maps display company names to canonical symbols.
	TickerMap map[string]string `yaml:"ticker_map"`
	// PortfolioPath is the persisted holdings record read once per run.
	PortfolioPath string `yaml:"portfolio_path"`
	// AudioDir is where synthesized audio artifacts are exported.
	AudioDir string `yaml:"audio_dir"`
	LogLevel string `yaml:"log_level"`

	LLM       LLM       `yaml:"llm"`
	Voice     Voice     `yaml:"voice"`
	Providers Providers `yaml:"providers"`
	Artifacts Artifacts `yaml:"artifacts"`
}

// Load reads the YAML document at path, merges environment credentials and
// validates the result. A .env file next to the working directory is loaded
// first when present.
func Load(path string) (*Config, error) {
	// Ignore a missing .env; the environment itself may already be set.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{
		PortfolioPath: "data/portfolio.json",
		AudioDir:      "data",
		LogLevel:      "info",
		Artifacts:     Artifacts{Backend: ArtifactBackendLocal},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.LLM.APIKey = os.Getenv(EnvOpenAIAPIKey)
	cfg.Providers.AlphaVantageKey = os.Getenv(EnvAlphaVantageKey)
	cfg.Providers.NewsAPIKey = os.Getenv(EnvNewsAPIKey)
	cfg.Voice.AssemblyAIKey = os.Getenv(EnvAssemblyAIKey)
	cfg.Voice.AWSAccessKeyID = os.Getenv(EnvAWSAccessKeyID)
	cfg.Voice.AWSSecretAccessKey = os.Getenv(EnvAWSSecretAccessKey)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations that indicate a deployment problem.
// Provider credentials for degradable stages (market, news) are allowed to
// be absent; those stages degrade at run time instead.
func (c *Config) validate() error {
	var missing []string
	if c.LLM.Model == "" {
		missing = append(missing, "llm.model")
	}
	if c.LLM.EmbeddingModel == "" {
		missing = append(missing, "llm.embedding_model")
	}
	if c.Voice.Region == "" {
		missing = append(missing, "voice.region")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config missing required settings: %s", strings.Join(missing, ", "))
	}
	if len(c.TickerMap) == 0 {
		return fmt.Errorf("config ticker_map must not be empty")
	}
	switch c.Artifacts.Backend {
	case ArtifactBackendLocal:
	case ArtifactBackendCOS:
		if c.Artifacts.COSBucketURL == "" {
			return fmt.Errorf("config artifacts.cos_bucket_url is required for the cos backend")
		}
	default:
		return fmt.Errorf("config artifacts.backend must be %q or %q, got %q",
			ArtifactBackendLocal, ArtifactBackendCOS, c.Artifacts.Backend)
	}
	return nil
}

// ReverseTickerMap returns the symbol-to-display-name mapping used when
// presenting results.
func (c *Config) ReverseTickerMap() map[string]string {
	reversed := make(map[string]string, len(c.TickerMap))
	for name, symbol := range c.TickerMap {
		reversed[symbol] = name
	}
	return reversed
}
