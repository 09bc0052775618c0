package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Namespace != "default" {
		t.Errorf("Namespace = %q, want default", cfg.Namespace)
	}
	if cfg.UserID != "default" {
		t.Errorf("UserID = %q, want default", cfg.UserID)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should be set")
	}
}

// --- Load ---

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"base_url": "https://memory.example.com",
		"namespace": "work",
		"min_score": 0.5,
		"summary_view": {"name": "my-summary", "time_window_days": 7}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://memory.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Namespace != "work" {
		t.Errorf("Namespace = %q, want work", cfg.Namespace)
	}
	if cfg.UserID != "default" {
		t.Errorf("UserID = %q, want default (not in file)", cfg.UserID)
	}
	if cfg.MinScore != 0.5 {
		t.Errorf("MinScore = %v, want 0.5", cfg.MinScore)
	}
	if cfg.SummaryView.Name != "my-summary" || cfg.SummaryView.TimeWindowDays != 7 {
		t.Errorf("SummaryView = %+v", cfg.SummaryView)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	t.Setenv("REMORA_BASE_URL", "https://memory.example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://memory.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"base_url": "https://file.example.com", "user_id": "file-user"}`)
	t.Setenv("REMORA_BASE_URL", "https://env.example.com")
	t.Setenv("REMORA_USER_ID", "env-user")
	t.Setenv("REMORA_MIN_SCORE", "0.42")
	t.Setenv("REMORA_RECALL_LIMIT", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, env should win", cfg.BaseURL)
	}
	if cfg.UserID != "env-user" {
		t.Errorf("UserID = %q, env should win", cfg.UserID)
	}
	if cfg.MinScore != 0.42 {
		t.Errorf("MinScore = %v, want 0.42", cfg.MinScore)
	}
	if cfg.RecallLimit != 9 {
		t.Errorf("RecallLimit = %d, want 9", cfg.RecallLimit)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"base_url": `)

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

// --- validation ---

func TestLoad_RequiresBaseURL(t *testing.T) {
	t.Setenv("REMORA_BASE_URL", "")
	if _, err := Load(""); err == nil {
		t.Error("expected error when base_url is unset")
	}
}

func TestLoad_ExtractionStrategies(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{"empty", `{}`, false},
		{"summary", `{"extraction": {"strategy": "summary"}}`, false},
		{"facts", `{"extraction": {"strategy": "facts"}}`, false},
		{"custom with prompt", `{"extraction": {"strategy": "custom", "prompt": "extract decisions"}}`, false},
		{"custom without prompt", `{"extraction": {"strategy": "custom"}}`, true},
		{"unknown", `{"extraction": {"strategy": "telepathy"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REMORA_BASE_URL", "https://memory.example.com")
			path := writeConfig(t, tt.config)
			_, err := Load(path)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_RejectsOutOfRangeMinScore(t *testing.T) {
	t.Setenv("REMORA_BASE_URL", "https://memory.example.com")
	path := writeConfig(t, `{"min_score": 1.5}`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for min_score > 1")
	}
}
