// Package config loads the process-wide settings. The configuration is read
// once at startup and handed around by value; nothing mutates it afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the top-level configuration document.
type Config struct {
	ServerAddr string    `json:"server_addr,omitempty"`
	LLM        LLMConfig `json:"llm,omitempty"`
	Limits     Limits    `json:"limits,omitempty"`
}

// LLMConfig carries the default provider settings used when a request does
// not specify its own. APIKeyEnv names an environment variable; the key value
// itself never lives in a config file and is never logged.
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKeyEnv      string `json:"api_key_env,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// Limits bounds uploads and outline shaping.
type Limits struct {
	MaxTemplateBytes int64 `json:"max_template_bytes,omitempty"`
	MinSlides        int   `json:"min_slides,omitempty"`
	MaxSlides        int   `json:"max_slides,omitempty"`
	MaxBullets       int   `json:"max_bullets,omitempty"`
	MaxBulletRunes   int   `json:"max_bullet_runes,omitempty"`
	PromptMinSlides  int   `json:"prompt_min_slides,omitempty"`
	PromptMaxSlides  int   `json:"prompt_max_slides,omitempty"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ServerAddr: ":8080",
		LLM: LLMConfig{
			TimeoutSeconds: 45,
		},
		Limits: Limits{
			MaxTemplateBytes: 25 << 20,
			MinSlides:        1,
			MaxSlides:        25,
			MaxBullets:       6,
			MaxBulletRunes:   200,
			PromptMinSlides:  6,
			PromptMaxSlides:  15,
		},
	}
}

// Load reads a JSON config file. Fields absent from the file keep their
// defaults; present fields are validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would make the pipeline misbehave.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "", "none", "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm timeout_seconds must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	l := c.Limits
	if l.MaxTemplateBytes <= 0 {
		return fmt.Errorf("max_template_bytes must be positive, got %d", l.MaxTemplateBytes)
	}
	if l.MinSlides < 1 {
		return fmt.Errorf("min_slides must be at least 1, got %d", l.MinSlides)
	}
	if l.MaxSlides < l.MinSlides {
		return fmt.Errorf("max_slides %d below min_slides %d", l.MaxSlides, l.MinSlides)
	}
	if l.MaxBullets < 1 {
		return fmt.Errorf("max_bullets must be at least 1, got %d", l.MaxBullets)
	}
	if l.MaxBulletRunes < 8 {
		return fmt.Errorf("max_bullet_runes must be at least 8, got %d", l.MaxBulletRunes)
	}
	if l.PromptMinSlides < 1 || l.PromptMaxSlides < l.PromptMinSlides {
		return fmt.Errorf("prompt slide hint range [%d,%d] is invalid", l.PromptMinSlides, l.PromptMaxSlides)
	}
	return nil
}

// Timeout converts the configured seconds into a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// APIKey resolves the default key from the environment. Empty when no
// api_key_env is configured or the variable is unset.
func (c LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
