// Package config provides runtime configuration loading for promptforge.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the root runtime configuration.
type Config struct {
	LLM     LLMConfig     `json:"llm"     mapstructure:"llm"`
	Retry   RetryConfig   `json:"retry"   mapstructure:"retry"`
	History HistoryConfig `json:"history" mapstructure:"history"`
}

// LLMConfig describes the completion endpoint and request parameters.
type LLMConfig struct {
	Model       string        `json:"model"                 mapstructure:"model"`
	BaseURL     string        `json:"base_url"              mapstructure:"base_url"`
	APIKey      string        `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv   string        `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	Temperature float64       `json:"temperature"           mapstructure:"temperature"`
	MaxTokens   int           `json:"max_tokens"            mapstructure:"max_tokens"`
	Timeout     time.Duration `json:"timeout"               mapstructure:"timeout"`
}

// RetryConfig defines the retry budget for transient completion failures.
type RetryConfig struct {
	MaxAttempts    int           `json:"max_attempts"    mapstructure:"max_attempts"`
	InitialBackoff time.Duration `json:"initial_backoff" mapstructure:"initial_backoff"`
	MaxElapsed     time.Duration `json:"max_elapsed"     mapstructure:"max_elapsed"`
}

// HistoryConfig controls run history persistence.
type HistoryConfig struct {
	Disabled bool `json:"disabled,omitempty" mapstructure:"disabled"`
}

// Environment variable names.
const (
	envModel       = "LLM_MODEL"
	envBaseURL     = "LLM_BASE_URL"
	envAPIKey      = "LLM_API_KEY"
	envTemperature = "LLM_TEMPERATURE"
	envMaxTokens   = "LLM_MAX_TOKENS"
	envMaxRetries  = "PROMPTFORGE_MAX_RETRIES"
)

const (
	defaultModel       = "hf.co/unsloth/gemma-3n-E4B-it-GGUF:Q4_K_M"
	defaultBaseURL     = "http://localhost:11434/v1"
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// Load reads configuration from the given file (optional) and the
// environment. Environment values win over file values.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("llm.model", defaultModel)
	v.SetDefault("llm.base_url", defaultBaseURL)
	v.SetDefault("llm.temperature", defaultTemperature)
	v.SetDefault("llm.max_tokens", defaultMaxTokens)
	v.SetDefault("llm.timeout", "2m")
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.initial_backoff", "1s")
	v.SetDefault("retry.max_elapsed", "1m")

	for key, env := range map[string]string{
		"llm.model":          envModel,
		"llm.base_url":       envBaseURL,
		"llm.api_key":        envAPIKey,
		"llm.temperature":    envTemperature,
		"llm.max_tokens":     envMaxTokens,
		"retry.max_attempts": envMaxRetries,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)),
		func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true },
	); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be > 0")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}
	return nil
}
