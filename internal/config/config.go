// Package config loads and validates the server configuration.
//
// Configuration is resolved in three layers, later wins:
// defaults → JSON config file → REMORA_* environment variables.
// Validation failures here are fatal; everything past this package
// can assume a well-formed configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Extraction strategies the remote store accepts for working memory.
const (
	StrategySummary = "summary"
	StrategyFacts   = "facts"
	StrategyCustom  = "custom"
)

// SummaryViewConfig configures the rolling summary view.
type SummaryViewConfig struct {
	Name           string   `json:"name,omitempty"`
	TimeWindowDays int      `json:"time_window_days,omitempty"`
	GroupBy        []string `json:"group_by,omitempty"`
}

// ExtractionConfig configures how the store extracts memories from
// captured conversation messages.
type ExtractionConfig struct {
	Strategy string `json:"strategy,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// Config holds the full server configuration.
type Config struct {
	// BaseURL is the remote memory store endpoint. Required.
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key,omitempty"`

	Namespace string `json:"namespace,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	// SessionID pins the session identity, overriding derivation from
	// the host's session key.
	SessionID string `json:"session_id,omitempty"`

	// DataDir holds local state (the session capture database).
	DataDir string `json:"data_dir,omitempty"`

	MinScore    float64 `json:"min_score,omitempty"`
	RecallLimit int     `json:"recall_limit,omitempty"`

	SummaryView SummaryViewConfig `json:"summary_view,omitempty"`
	Extraction  ExtractionConfig  `json:"extraction,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Namespace: "default",
		UserID:    "default",
		DataDir:   filepath.Join(home, ".remora"),
	}
}

// Load resolves the configuration: defaults, then the JSON file at
// path (skipped when path is empty or the file does not exist), then
// environment overrides, then validation.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file is fine; env and defaults carry it.
		case err != nil:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays REMORA_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("REMORA_BASE_URL", &cfg.BaseURL)
	envStr("REMORA_API_KEY", &cfg.APIKey)
	envStr("REMORA_NAMESPACE", &cfg.Namespace)
	envStr("REMORA_USER_ID", &cfg.UserID)
	envStr("REMORA_SESSION_ID", &cfg.SessionID)
	envStr("REMORA_DATA_DIR", &cfg.DataDir)
	envStr("REMORA_EXTRACTION_STRATEGY", &cfg.Extraction.Strategy)
	envStr("REMORA_EXTRACTION_PROMPT", &cfg.Extraction.Prompt)
	envStr("REMORA_SUMMARY_VIEW_NAME", &cfg.SummaryView.Name)

	if v := os.Getenv("REMORA_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinScore = f
		}
	}
	if v := os.Getenv("REMORA_RECALL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RecallLimit = n
		}
	}
	if v := os.Getenv("REMORA_SUMMARY_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SummaryView.TimeWindowDays = n
		}
	}
}

// validate rejects configurations the rest of the system cannot act on.
func (c Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required (set REMORA_BASE_URL)")
	}
	switch c.Extraction.Strategy {
	case "", StrategySummary, StrategyFacts:
	case StrategyCustom:
		if c.Extraction.Prompt == "" {
			return fmt.Errorf("config: extraction strategy %q requires a prompt", StrategyCustom)
		}
	default:
		return fmt.Errorf("config: unknown extraction strategy %q (want %s, %s or %s)",
			c.Extraction.Strategy, StrategySummary, StrategyFacts, StrategyCustom)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("config: min_score %v outside [0, 1]", c.MinScore)
	}
	if c.RecallLimit < 0 {
		return fmt.Errorf("config: recall_limit must not be negative")
	}
	return nil
}

// DefaultPath returns the conventional config file location,
// ~/.remora/config.json, or empty when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".remora", "config.json")
}
