package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Thresholds Thresholds `yaml:"thresholds"`
	Optimizer  Optimizer  `yaml:"optimizer"`
	Retry      Retry      `yaml:"retry"`
	Cache      Cache      `yaml:"cache"`
	Rewrite    Rewrite    `yaml:"rewrite"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Thresholds holds the per-aspect validation limits.
type Thresholds struct {
	MinMetaDescLength           int     `yaml:"min_meta_desc_length"`
	MaxMetaDescLength           int     `yaml:"max_meta_desc_length"`
	MinKeywordDensity           float64 `yaml:"min_keyword_density"`
	MaxKeywordDensity           float64 `yaml:"max_keyword_density"`
	MaxPassiveVoicePercent      float64 `yaml:"max_passive_voice_percent"`
	MaxLongSentencePercent      float64 `yaml:"max_long_sentence_percent"`
	LongSentenceWordLimit       int     `yaml:"long_sentence_word_limit"`
	MinTransitionWordPercent    float64 `yaml:"min_transition_word_percent"`
	MinTitleLength              int     `yaml:"min_title_length"`
	MaxTitleLength              int     `yaml:"max_title_length"`
	MaxSubheadingKeywordPercent float64 `yaml:"max_subheading_keyword_percent"`
	MinImages                   int     `yaml:"min_images"`
	MinWordCount                int     `yaml:"min_word_count"`
}

// Signature returns a stable string of all threshold values, used as the
// config part of cache keys.
func (t Thresholds) Signature() string {
	return fmt.Sprintf("%d|%d|%.3f|%.3f|%.3f|%.3f|%d|%.3f|%d|%d|%.3f|%d|%d",
		t.MinMetaDescLength, t.MaxMetaDescLength,
		t.MinKeywordDensity, t.MaxKeywordDensity,
		t.MaxPassiveVoicePercent, t.MaxLongSentencePercent, t.LongSentenceWordLimit,
		t.MinTransitionWordPercent,
		t.MinTitleLength, t.MaxTitleLength,
		t.MaxSubheadingKeywordPercent, t.MinImages, t.MinWordCount)
}

// Optimizer controls the multi-pass loop.
type Optimizer struct {
	MaxIterations           int      `yaml:"max_iterations"`
	TargetComplianceScore   float64  `yaml:"target_compliance_score"`
	EnableEarlyTermination  bool     `yaml:"enable_early_termination"`
	StagnationThreshold     int      `yaml:"stagnation_threshold"`
	MinImprovementThreshold float64  `yaml:"min_improvement_threshold"`
	AutoCorrection          bool     `yaml:"auto_correction"`
	PriorityOrder           []string `yaml:"priority_order"`
	CorrectionSeed          int64    `yaml:"correction_seed"`
	MaxHistoryEntries       int      `yaml:"max_history_entries"`
}

// Retry controls backoff behavior for correction attempts.
type Retry struct {
	MaxRetryAttempts  int     `yaml:"max_retry_attempts"`
	BaseDelaySeconds  float64 `yaml:"base_delay_seconds"`
	MaxDelaySeconds   float64 `yaml:"max_delay_seconds"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// Cache controls the two-tier validation cache.
type Cache struct {
	Enabled                   bool `yaml:"enabled"`
	ValidationTTLMinutes      int  `yaml:"validation_ttl_minutes"`
	MetricsTTLMinutes         int  `yaml:"metrics_ttl_minutes"`
	KeywordTTLMinutes         int  `yaml:"keyword_ttl_minutes"`
	ReadabilityTTLMinutes     int  `yaml:"readability_ttl_minutes"`
	TitleUniquenessTTLMinutes int  `yaml:"title_uniqueness_ttl_minutes"`
}

// Rewrite configures the optional LLM-backed rewriter. When the provider
// is empty correctors use heuristics only.
type Rewrite struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for seopass.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "seopass")
}

// DataDir returns the XDG data directory for seopass.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "seopass")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/seopass/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'seopass init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	cfg, _ := parse(nil)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Thresholds: Thresholds{
			MinMetaDescLength:           120,
			MaxMetaDescLength:           156,
			MinKeywordDensity:           0.5,
			MaxKeywordDensity:           2.5,
			MaxPassiveVoicePercent:      10,
			MaxLongSentencePercent:      25,
			LongSentenceWordLimit:       20,
			MinTransitionWordPercent:    30,
			MinTitleLength:              30,
			MaxTitleLength:              60,
			MaxSubheadingKeywordPercent: 75,
			MinImages:                   1,
			MinWordCount:                300,
		},
		Optimizer: Optimizer{
			MaxIterations:           5,
			TargetComplianceScore:   95,
			EnableEarlyTermination:  true,
			StagnationThreshold:     2,
			MinImprovementThreshold: 0.5,
			AutoCorrection:          true,
			PriorityOrder: []string{
				"title", "meta_description", "keyword_density", "readability", "subheadings", "images",
			},
			MaxHistoryEntries: 20,
		},
		Retry: Retry{
			MaxRetryAttempts:  3,
			BaseDelaySeconds:  1,
			MaxDelaySeconds:   30,
			BackoffMultiplier: 2,
		},
		Cache: Cache{
			Enabled:                   true,
			ValidationTTLMinutes:      30,
			MetricsTTLMinutes:         60,
			KeywordTTLMinutes:         60,
			ReadabilityTTLMinutes:     120,
			TitleUniquenessTTLMinutes: 120,
		},
		Rewrite: Rewrite{
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   256,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
