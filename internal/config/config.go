package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"postag-go/internal/service/ngram"

	"gopkg.in/yaml.v2"
)

type AppConfig struct {
	Port            int           `yaml:"port"`
	Workers         int           `yaml:"workers"`
	SentenceTimeout time.Duration `yaml:"sentence_timeout"`
	ModelDir        string        `yaml:"model_dir"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
}

type McpConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetAddress returns host:port for the MCP listener
func (m McpConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// LanguageConfig configures the plain n-gram language model
type LanguageConfig struct {
	N                     int `yaml:"n"`
	ngram.SmoothingConfig `yaml:",inline"`
}

// LexiconConfig sizes the bloom filter behind unknown word detection
type LexiconConfig struct {
	FalsePositiveRate float64 `yaml:"false_positive_rate"`
}

type EvaluationConfig struct {
	MaxSentenceLength int    `yaml:"max_sentence_length"`
	DumpPath          string `yaml:"dump_path"`
}

type Config struct {
	App        AppConfig             `yaml:"app"`
	Mcp        McpConfig             `yaml:"mcp"`
	Language   LanguageConfig        `yaml:"language"`
	Transition ngram.SmoothingConfig `yaml:"transition"`
	Emission   ngram.SmoothingConfig `yaml:"emission"`
	Lexicon    LexiconConfig         `yaml:"lexicon"`
	Evaluation EvaluationConfig      `yaml:"evaluation"`
}

// Default returns a configuration that validates as is
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field
func (c *Config) ApplyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.Workers == 0 {
		c.App.Workers = 4
	}
	if c.App.SentenceTimeout == 0 {
		c.App.SentenceTimeout = 2 * time.Second
	}
	if c.App.ModelDir == "" {
		c.App.ModelDir = "./models"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Mcp.Host == "" {
		c.Mcp.Host = "localhost"
	}
	if c.Mcp.Port == 0 {
		c.Mcp.Port = 8081
	}

	if c.Language.N == 0 {
		c.Language.N = 3
	}
	applySmoothingDefaults(&c.Language.SmoothingConfig, ngram.PolicyGoodTuring, 5, ngram.VocabTrainingTokens)
	applySmoothingDefaults(&c.Transition, ngram.PolicyGoodTuring, 4, ngram.VocabNGramKeys)
	applySmoothingDefaults(&c.Emission, ngram.PolicyNone, 1, ngram.VocabTrainingTokens)

	if c.Lexicon.FalsePositiveRate == 0 {
		c.Lexicon.FalsePositiveRate = ngram.DefaultFalsePositiveRate
	}
}

func applySmoothingDefaults(s *ngram.SmoothingConfig, policy ngram.Policy, k int, source ngram.VocabularySource) {
	if s.Policy == "" {
		s.Policy = policy
	}
	if s.K == 0 {
		s.K = k
	}
	if s.VocabularySource == "" {
		s.VocabularySource = source
	}
}

// Validate returns the first configuration error found
func (c *Config) Validate() error {
	if c.App.Workers < 1 {
		return fmt.Errorf("app.workers must be positive, got %d", c.App.Workers)
	}
	if c.App.SentenceTimeout < 0 {
		return fmt.Errorf("app.sentence_timeout must not be negative, got %s", c.App.SentenceTimeout)
	}
	if c.Language.N < 1 {
		return fmt.Errorf("language.n: %w", &ngram.ConfigError{Op: "config", Err: ngram.ErrInvalidOrder})
	}
	if r := c.Lexicon.FalsePositiveRate; r <= 0 || r >= 1 {
		return fmt.Errorf("lexicon.false_positive_rate must be in (0, 1), got %g", r)
	}
	if c.Evaluation.MaxSentenceLength < 0 {
		return errors.New("evaluation.max_sentence_length must not be negative")
	}
	sections := []struct {
		name string
		cfg  ngram.SmoothingConfig
	}{
		{"language", c.Language.SmoothingConfig},
		{"transition", c.Transition},
		{"emission", c.Emission},
	}
	for _, s := range sections {
		if err := s.cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// LoadConfig reads the app configuration and, when modelConfigPath is not
// empty, overlays the model configuration from a second file.
func LoadConfig(appConfigPath, modelConfigPath string) (*Config, error) {
	cfg := &Config{}
	if err := readYAML(appConfigPath, cfg); err != nil {
		return nil, err
	}
	if modelConfigPath != "" {
		if err := readYAML(modelConfigPath, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func readYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
